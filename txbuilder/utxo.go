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
	"errors"
	"slices"

	"github.com/blinklabs-io/txbuilder/ledger"
)

type DatumKind uint8

const (
	DatumKindNone DatumKind = iota
	// Only the datum hash is known
	DatumKindHash
	// The datum is stored in the output
	DatumKindInline
	// The output carries a datum hash and the matching datum is known
	DatumKindResolved
)

// Datum describes the datum attached to a UTxO
type Datum struct {
	Kind DatumKind
	Hash ledger.DatumHash
	// CBOR encoded Plutus data for inline and resolved datums
	Data []byte
}

func NoDatum() Datum {
	return Datum{}
}

func DatumFromHash(hash ledger.DatumHash) Datum {
	return Datum{Kind: DatumKindHash, Hash: hash}
}

func InlineDatum(datumCbor []byte) Datum {
	return Datum{
		Kind: DatumKindInline,
		Hash: ledger.HashDatum(datumCbor),
		Data: slices.Clone(datumCbor),
	}
}

// ResolvedDatum is a hash datum whose data is known. The hash is derived from the data
func ResolvedDatum(datumCbor []byte) Datum {
	return Datum{
		Kind: DatumKindResolved,
		Hash: ledger.HashDatum(datumCbor),
		Data: slices.Clone(datumCbor),
	}
}

func (d Datum) option() *ledger.DatumOption {
	switch d.Kind {
	case DatumKindHash, DatumKindResolved:
		return ledger.NewDatumOptionHash(d.Hash)
	case DatumKindInline:
		return ledger.NewDatumOptionInline(d.Data)
	default:
		return nil
	}
}

// Utxo is an unspent output together with its reference
type Utxo struct {
	Input     ledger.TransactionInput
	Address   ledger.Address
	Amount    ledger.Value
	Datum     Datum
	ScriptRef *ledger.Script
}

// NewUtxo builds a Utxo from a decoded output. Hash datums are left unresolved
func NewUtxo(input ledger.TransactionInput, output ledger.TransactionOutput) Utxo {
	ret := Utxo{
		Input:   input,
		Address: output.Address,
		Amount:  output.Amount.Clone(),
	}
	if output.DatumOption != nil {
		if output.DatumOption.IsInline() {
			ret.Datum = InlineDatum(output.DatumOption.Inline())
		} else {
			ret.Datum = DatumFromHash(output.DatumOption.Hash())
		}
	}
	if output.ScriptRef != nil {
		tmp := output.ScriptRef.Script
		ret.ScriptRef = &tmp
	}
	return ret
}

// Output returns the ledger output the UTxO refers to
func (u Utxo) Output() ledger.TransactionOutput {
	ret := ledger.NewTransactionOutput(u.Address, u.Amount.Clone())
	ret.DatumOption = u.Datum.option()
	if u.ScriptRef != nil {
		ret.ScriptRef = ledger.NewScriptRef(*u.ScriptRef)
	}
	return ret
}

// ResolveSpendingCredential returns the key hash or script hash that must
// authorize spending the UTxO
func ResolveSpendingCredential(utxo Utxo) (ledger.Credential, error) {
	cred, err := utxo.Address.PaymentCredential()
	if err != nil {
		if errors.Is(err, ledger.ErrByronAddress) {
			return ledger.Credential{}, ByronAddressUnsupportedError{Input: utxo.Input}
		}
		return ledger.Credential{}, CouldNotResolveCredentialError{
			Input: utxo.Input,
			Err:   err,
		}
	}
	return cred, nil
}

// utxoSet is a set of UTxOs that remembers insertion order
type utxoSet struct {
	items []Utxo
	index map[ledger.TransactionInput]int
}

func (s *utxoSet) add(utxo Utxo) {
	if s.index == nil {
		s.index = map[ledger.TransactionInput]int{}
	}
	if idx, ok := s.index[utxo.Input]; ok {
		s.items[idx] = utxo
		return
	}
	s.index[utxo.Input] = len(s.items)
	s.items = append(s.items, utxo)
}

func (s *utxoSet) contains(input ledger.TransactionInput) bool {
	_, ok := s.index[input]
	return ok
}

func (s *utxoSet) list() []Utxo {
	return slices.Clone(s.items)
}
