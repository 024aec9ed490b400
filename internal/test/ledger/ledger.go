// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package test_ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/blinklabs-io/txbuilder/evaluator"
	"github.com/blinklabs-io/txbuilder/internal/test"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/txbuilder"
)

// ProtocolParametersJson is a small Conway-era parameter set. The cost models
// are truncated, which is enough for hashing language views
const ProtocolParametersJson = `{
  "min_fee_a": 44,
  "min_fee_b": 155381,
  "max_tx_size": 16384,
  "max_val_size": "5000",
  "key_deposit": "2000000",
  "pool_deposit": "500000000",
  "coins_per_utxo_size": "4310",
  "price_mem": 0.0577,
  "price_step": 0.0000721,
  "max_tx_ex_mem": "14000000",
  "max_tx_ex_steps": "10000000000",
  "collateral_percent": 150,
  "max_collateral_inputs": 3,
  "min_fee_ref_script_cost_per_byte": 15,
  "cost_models_raw": {
    "PlutusV1": [205665, 812, 1, 1, 1000, 571],
    "PlutusV2": [205665, 812, 1, 1, 1000, 571, 0, 1],
    "PlutusV3": [100788, 420, 1, 1, 1000, 173, 0, 1, 1000]
  }
}`

// DefaultExUnits are the execution units reported by MockEvaluator when no
// EvaluateFunc is set
var DefaultExUnits = ledger.ExUnits{Memory: 500_000, Steps: 200_000_000}

// ProtocolParameters returns a fresh copy of the test protocol parameters
func ProtocolParameters() *ledger.ProtocolParameters {
	pp, err := ledger.NewProtocolParametersFromJSON([]byte(ProtocolParametersJson))
	if err != nil {
		panic(fmt.Sprintf("invalid test protocol parameters: %s", err))
	}
	return pp
}

func KeyHash(b byte) ledger.AddrKeyHash {
	return ledger.NewBlake2b224(test.FilledBytes(ledger.Blake2b224Size, b))
}

func TxId(b byte) ledger.TransactionId {
	return ledger.NewBlake2b256(test.FilledBytes(ledger.Blake2b256Size, b))
}

func Input(txByte byte, index uint32) ledger.TransactionInput {
	return ledger.TransactionInput{TxId: TxId(txByte), OutputIndex: index}
}

// KeyAddress returns a testnet enterprise address for a key hash built from b
func KeyAddress(b byte) ledger.Address {
	hash := KeyHash(b)
	addr, err := ledger.NewAddressFromParts(
		ledger.AddressTypeKeyNone,
		ledger.AddressNetworkTestnet,
		hash.Bytes(),
		nil,
	)
	if err != nil {
		panic(err)
	}
	return addr
}

// ScriptAddress returns a testnet enterprise address locked by the script hash
func ScriptAddress(hash ledger.ScriptHash) ledger.Address {
	addr, err := ledger.NewAddressFromParts(
		ledger.AddressTypeScriptNone,
		ledger.AddressNetworkTestnet,
		hash.Bytes(),
		nil,
	)
	if err != nil {
		panic(err)
	}
	return addr
}

// PlutusScript returns a PlutusV2 script whose hash differs for each b
func PlutusScript(b byte) ledger.Script {
	return ledger.NewPlutusScript(
		ledger.LanguagePlutusV2,
		append([]byte{0x4d, 0x01, 0x00, 0x00, 0x33, 0x22, 0x22, 0x20, 0x05, 0x12, 0x00, 0x12, 0x00}, b),
	)
}

// NativeScript returns a native "signature required" script for a key hash built from b
func NativeScript(b byte) ledger.Script {
	hash := KeyHash(b)
	return ledger.NewNativeScript(append([]byte{0x82, 0x00, 0x58, 0x1c}, hash.Bytes()...))
}

// KeyUtxo returns a UTxO locked by KeyAddress(owner)
func KeyUtxo(owner byte, input ledger.TransactionInput, amount ledger.Value) txbuilder.Utxo {
	return txbuilder.Utxo{
		Input:   input,
		Address: KeyAddress(owner),
		Amount:  amount,
	}
}

// ScriptUtxo returns a UTxO locked by the script with an inline unit datum
func ScriptUtxo(
	script ledger.Script,
	input ledger.TransactionInput,
	amount ledger.Value,
) txbuilder.Utxo {
	return txbuilder.Utxo{
		Input:   input,
		Address: ScriptAddress(script.Hash()),
		Amount:  amount,
		Datum:   txbuilder.InlineDatum(ledger.UnitDatum),
	}
}

// Compile-time check that MockEvaluator implements evaluator.Evaluator
var _ evaluator.Evaluator = (*MockEvaluator)(nil)

// MockEvaluator is the canonical internal evaluator mock used by tests. By
// default it reports DefaultExUnits for every redeemer in the transaction.
// Set EvaluateFunc to control the result
type MockEvaluator struct {
	EvaluateFunc func(evaluator.Request) ([]ledger.Redeemer, error)
	mu           sync.Mutex
	requests     []evaluator.Request
}

func (m *MockEvaluator) Evaluate(
	ctx context.Context,
	req evaluator.Request,
) ([]ledger.Redeemer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(req)
	}
	tx, err := ledger.DecodeTransaction(req.Transaction)
	if err != nil {
		return nil, err
	}
	ret := make([]ledger.Redeemer, 0, len(tx.WitnessSet.Redeemers))
	for _, redeemer := range tx.WitnessSet.Redeemers {
		redeemer.ExUnits = DefaultExUnits
		ret = append(ret, redeemer)
	}
	return ret, nil
}

// Requests returns the requests seen so far
func (m *MockEvaluator) Requests() []evaluator.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]evaluator.Request(nil), m.requests...)
}
