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

// Package bench provides benchmark fixtures for transaction building.
package bench

import (
	"encoding/binary"

	"github.com/blinklabs-io/txbuilder/coinselect"
	test_ledger "github.com/blinklabs-io/txbuilder/internal/test/ledger"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/txbuilder"
)

// UtxoCounts lists the wallet sizes the benchmarks run against
var UtxoCounts = []int{10, 100, 1000}

// KeyUtxos returns count key-locked UTxOs owned by test_ledger.KeyAddress(0x11).
// Amounts vary between 1 and 10 ADA so that selection has real choices to make
func KeyUtxos(count int) []txbuilder.Utxo {
	ret := make([]txbuilder.Utxo, 0, count)
	for i := range count {
		ret = append(ret, txbuilder.Utxo{
			Input:   fixtureInput(i),
			Address: test_ledger.KeyAddress(0x11),
			Amount:  ledger.NewValue(uint64(1_000_000 + (i*7919)%9_000_000)), // #nosec G115 -- bounded fixture amounts
		})
	}
	return ret
}

// Candidates converts UTxOs to coin selection candidates
func Candidates(utxos []txbuilder.Utxo) []coinselect.Candidate {
	ret := make([]coinselect.Candidate, 0, len(utxos))
	for _, utxo := range utxos {
		ret = append(ret, coinselect.Candidate{Input: utxo.Input, Amount: utxo.Amount})
	}
	return ret
}

// fixtureInput returns a distinct input for each index
func fixtureInput(idx int) ledger.TransactionInput {
	var txId ledger.TransactionId
	binary.BigEndian.PutUint64(txId[:8], uint64(idx)) // #nosec G115 -- fixture index is never negative
	return ledger.TransactionInput{TxId: txId}
}
