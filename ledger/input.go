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

package ledger

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/blinklabs-io/txbuilder/cbor"
)

type TransactionInput struct {
	cbor.StructAsArray
	TxId        TransactionId
	OutputIndex uint32
}

func NewTransactionInput(txId string, index uint32) (TransactionInput, error) {
	hash, err := NewBlake2b256FromHex(txId)
	if err != nil {
		return TransactionInput{}, fmt.Errorf("invalid transaction ID: %w", err)
	}
	return TransactionInput{
		TxId:        hash,
		OutputIndex: index,
	}, nil
}

// ParseTransactionInput parses the "<txid>#<index>" form returned by String
func ParseTransactionInput(s string) (TransactionInput, error) {
	txId, idx, ok := strings.Cut(s, "#")
	if !ok {
		return TransactionInput{}, fmt.Errorf("invalid input reference: %s", s)
	}
	index, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return TransactionInput{}, fmt.Errorf("invalid output index: %w", err)
	}
	return NewTransactionInput(txId, uint32(index))
}

func (i TransactionInput) Id() TransactionId {
	return i.TxId
}

func (i TransactionInput) Index() uint32 {
	return i.OutputIndex
}

func (i TransactionInput) String() string {
	return fmt.Sprintf("%s#%d", i.TxId.String(), i.OutputIndex)
}

func (i TransactionInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// CompareInputs orders inputs the way the ledger does: by transaction ID bytes, then by index
func CompareInputs(a, b TransactionInput) int {
	if c := bytes.Compare(a.TxId[:], b.TxId[:]); c != 0 {
		return c
	}
	return cmp.Compare(a.OutputIndex, b.OutputIndex)
}

// SortInputs returns a sorted copy of the provided inputs with duplicates removed
func SortInputs(inputs []TransactionInput) []TransactionInput {
	ret := slices.Clone(inputs)
	slices.SortFunc(ret, CompareInputs)
	return slices.CompactFunc(ret, func(a, b TransactionInput) bool {
		return CompareInputs(a, b) == 0
	})
}
