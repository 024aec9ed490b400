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

package txbuilder

import (
	"slices"

	"github.com/blinklabs-io/txbuilder/evaluator"
	"github.com/blinklabs-io/txbuilder/ledger"
)

// Draft is an assembled transaction produced by BalanceAndAssemble. It
// carries no key witnesses
type Draft struct {
	tx              *ledger.Transaction
	txCbor          []byte
	fee             uint64
	inputs          []Utxo
	collateral      *CollateralSelection
	referenceInputs []Utxo
	pparams         *ledger.ProtocolParameters
	phase           Phase
}

// Bytes returns the CBOR encoding of the transaction
func (d *Draft) Bytes() []byte {
	return slices.Clone(d.txCbor)
}

func (d *Draft) Transaction() *ledger.Transaction {
	return d.tx
}

func (d *Draft) Hash() (ledger.TransactionId, error) {
	return d.tx.Hash()
}

func (d *Draft) Fee() uint64 {
	return d.fee
}

// Phase returns the builder phase the draft was assembled in
func (d *Draft) Phase() Phase {
	return d.phase
}

// Inputs returns the spent inputs in transaction order
func (d *Draft) Inputs() []ledger.TransactionInput {
	ret := make([]ledger.TransactionInput, 0, len(d.inputs))
	for _, utxo := range d.inputs {
		ret = append(ret, utxo.Input)
	}
	return ret
}

// ResolvedInputs returns the spent UTxOs in transaction order
func (d *Draft) ResolvedInputs() []Utxo {
	return slices.Clone(d.inputs)
}

func (d *Draft) Collateral() (CollateralSelection, bool) {
	if d.collateral == nil {
		return CollateralSelection{}, false
	}
	return *d.collateral, true
}

func (d *Draft) Redeemers() ledger.Redeemers {
	return slices.Clone(d.tx.WitnessSet.Redeemers)
}

func (d *Draft) Outputs() []ledger.TransactionOutput {
	return slices.Clone(d.tx.Body.Outputs)
}

// OutputUtxos returns the UTxOs the transaction creates, which can be
// spent by a chained transaction before this one is on chain
func (d *Draft) OutputUtxos() ([]Utxo, error) {
	txId, err := d.tx.Hash()
	if err != nil {
		return nil, err
	}
	ret := make([]Utxo, 0, len(d.tx.Body.Outputs))
	for idx, output := range d.tx.Body.Outputs {
		ret = append(
			ret,
			NewUtxo(
				ledger.TransactionInput{TxId: txId, OutputIndex: uint32(idx)},
				output,
			),
		)
	}
	return ret, nil
}

func (d *Draft) MarshalJSON() ([]byte, error) {
	return d.tx.MarshalJSON()
}

// EvaluationRequest builds the input for a script evaluator. Every UTxO the
// transaction references, spends or puts up as collateral is resolved
func (d *Draft) EvaluationRequest(slotConfig evaluator.SlotConfig) (evaluator.Request, error) {
	costModels, err := evaluator.EncodeCostModels(d.pparams)
	if err != nil {
		return evaluator.Request{}, err
	}
	ret := evaluator.Request{
		Transaction: d.Bytes(),
		CostModels:  costModels,
		MaxExUnits:  d.pparams.MaxTxExUnits,
		SlotConfig:  slotConfig,
	}
	utxos := slices.Concat(d.inputs, d.referenceInputs)
	if d.collateral != nil {
		utxos = append(utxos, d.collateral.Utxo)
	}
	seen := map[ledger.TransactionInput]bool{}
	for _, utxo := range utxos {
		if seen[utxo.Input] {
			continue
		}
		seen[utxo.Input] = true
		resolved, err := evaluator.NewResolvedUtxo(utxo.Input, utxo.Output())
		if err != nil {
			return evaluator.Request{}, err
		}
		ret.Utxos = append(ret.Utxos, resolved)
	}
	return ret, nil
}
