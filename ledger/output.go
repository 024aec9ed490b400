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
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blinklabs-io/txbuilder/cbor"
)

const (
	DatumOptionTypeHash   = 0
	DatumOptionTypeInline = 1
)

// DatumOption is either a datum hash or an inline Plutus datum
type DatumOption struct {
	hash *DatumHash
	data []byte
}

func NewDatumOptionHash(hash DatumHash) *DatumOption {
	return &DatumOption{hash: &hash}
}

// NewDatumOptionInline wraps the CBOR encoding of a Plutus datum
func NewDatumOptionInline(datumCbor []byte) *DatumOption {
	tmp := make([]byte, len(datumCbor))
	copy(tmp, datumCbor)
	return &DatumOption{data: tmp}
}

func (d *DatumOption) IsInline() bool {
	return d != nil && d.data != nil
}

// Hash returns the datum hash. For inline datums this is the hash of the datum itself
func (d *DatumOption) Hash() DatumHash {
	if d.hash != nil {
		return *d.hash
	}
	return Blake2b256Hash(d.data)
}

// Inline returns the inline datum CBOR, or nil for a datum hash
func (d *DatumOption) Inline() []byte {
	return d.data
}

func (d *DatumOption) UnmarshalCBOR(data []byte) error {
	datumOptionType, err := cbor.DecodeIdFromList(data)
	if err != nil {
		return err
	}
	switch datumOptionType {
	case DatumOptionTypeHash:
		var tmp struct {
			cbor.StructAsArray
			Type uint
			Hash DatumHash
		}
		if _, err := cbor.Decode(data, &tmp); err != nil {
			return err
		}
		d.hash = &tmp.Hash
		d.data = nil
	case DatumOptionTypeInline:
		var tmp struct {
			cbor.StructAsArray
			Type uint
			Data cbor.WrappedCbor
		}
		if _, err := cbor.Decode(data, &tmp); err != nil {
			return err
		}
		d.hash = nil
		d.data = tmp.Data.Bytes()
	default:
		return fmt.Errorf("unsupported datum option type: %d", datumOptionType)
	}
	return nil
}

func (d DatumOption) MarshalCBOR() ([]byte, error) {
	if d.data != nil {
		return cbor.Encode([]any{DatumOptionTypeInline, cbor.WrappedCbor(d.data)})
	}
	if d.hash != nil {
		return cbor.Encode([]any{DatumOptionTypeHash, *d.hash})
	}
	return nil, errors.New("empty datum option")
}

// TransactionOutput is a post-Alonzo (map format) transaction output
type TransactionOutput struct {
	cbor.DecodeStoreCbor
	Address     Address      `cbor:"0,keyasint"`
	Amount      Value        `cbor:"1,keyasint"`
	DatumOption *DatumOption `cbor:"2,keyasint,omitempty"`
	ScriptRef   *ScriptRef   `cbor:"3,keyasint,omitempty"`
}

type legacyTransactionOutput struct {
	cbor.StructAsArray
	Address   Address
	Amount    Value
	DatumHash *DatumHash `cbor:",omitempty"`
}

func NewTransactionOutput(addr Address, amount Value) TransactionOutput {
	return TransactionOutput{
		Address: addr,
		Amount:  amount,
	}
}

func (o *TransactionOutput) UnmarshalCBOR(data []byte) error {
	if len(data) > 0 && data[0]&cbor.CborTypeMask == cbor.CborTypeArray {
		// Pre-Babbage array format
		var tmp legacyTransactionOutput
		if _, err := cbor.Decode(data, &tmp); err != nil {
			return err
		}
		o.Address = tmp.Address
		o.Amount = tmp.Amount
		o.ScriptRef = nil
		o.DatumOption = nil
		if tmp.DatumHash != nil {
			o.DatumOption = NewDatumOptionHash(*tmp.DatumHash)
		}
		o.SetCbor(data)
		return nil
	}
	return cbor.DecodeGeneric(data, o)
}

func (o TransactionOutput) MarshalCBOR() ([]byte, error) {
	return cbor.EncodeGeneric(&o)
}

type transactionOutputJson struct {
	Address   string         `json:"address"`
	Amount    Value          `json:"amount"`
	DatumHash string         `json:"datumHash,omitempty"`
	Datum     string         `json:"inlineDatum,omitempty"`
	ScriptRef *scriptRefJson `json:"scriptRef,omitempty"`
}

type scriptRefJson struct {
	Type uint8  `json:"type"`
	Hash string `json:"hash"`
}

func (o TransactionOutput) MarshalJSON() ([]byte, error) {
	tmp := transactionOutputJson{
		Address: o.Address.String(),
		Amount:  o.Amount,
	}
	if o.DatumOption != nil {
		if o.DatumOption.IsInline() {
			tmp.Datum = hex.EncodeToString(o.DatumOption.Inline())
		} else {
			tmp.DatumHash = o.DatumOption.Hash().String()
		}
	}
	if o.ScriptRef != nil {
		tmp.ScriptRef = &scriptRefJson{
			Type: uint8(o.ScriptRef.Type),
			Hash: o.ScriptRef.Hash().String(),
		}
	}
	return json.Marshal(tmp)
}
