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

	"github.com/blinklabs-io/txbuilder/cbor"
)

type TransactionBody struct {
	cbor.DecodeStoreCbor
	Inputs                cbor.SetType[TransactionInput] `cbor:"0,keyasint"`
	Outputs               []TransactionOutput            `cbor:"1,keyasint"`
	Fee                   uint64                         `cbor:"2,keyasint"`
	Ttl                   uint64                         `cbor:"3,keyasint,omitempty"`
	ValidityIntervalStart uint64                         `cbor:"8,keyasint,omitempty"`
	Mint                  MintAssets                     `cbor:"9,keyasint,omitempty"`
	ScriptDataHash        *Blake2b256                    `cbor:"11,keyasint,omitempty"`
	Collateral            []TransactionInput             `cbor:"13,keyasint,omitempty"`
	RequiredSigners       []AddrKeyHash                  `cbor:"14,keyasint,omitempty"`
	NetworkId             *uint8                         `cbor:"15,keyasint,omitempty"`
	CollateralReturn      *TransactionOutput             `cbor:"16,keyasint,omitempty"`
	TotalCollateral       uint64                         `cbor:"17,keyasint,omitempty"`
	ReferenceInputs       []TransactionInput             `cbor:"18,keyasint,omitempty"`
}

func (b *TransactionBody) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeGeneric(data, b)
}

func (b TransactionBody) MarshalCBOR() ([]byte, error) {
	// Decoded bodies are re-emitted as-is so that their hash is preserved
	if stored := b.Cbor(); len(stored) > 0 {
		return stored, nil
	}
	return cbor.EncodeGeneric(&b)
}

// Hash returns the transaction ID, the Blake2b-256 of the encoded body
func (b TransactionBody) Hash() (TransactionId, error) {
	bodyCbor, err := b.MarshalCBOR()
	if err != nil {
		return TransactionId{}, err
	}
	return Blake2b256Hash(bodyCbor), nil
}

type VkeyWitness struct {
	cbor.StructAsArray
	Vkey      []byte
	Signature []byte
}

type WitnessSet struct {
	VkeyWitnesses   []VkeyWitness     `cbor:"0,keyasint,omitempty"`
	NativeScripts   []cbor.RawMessage `cbor:"1,keyasint,omitempty"`
	PlutusV1Scripts [][]byte          `cbor:"3,keyasint,omitempty"`
	PlutusData      []cbor.RawMessage `cbor:"4,keyasint,omitempty"`
	Redeemers       Redeemers         `cbor:"5,keyasint,omitempty"`
	PlutusV2Scripts [][]byte          `cbor:"6,keyasint,omitempty"`
	PlutusV3Scripts [][]byte          `cbor:"7,keyasint,omitempty"`
}

// AddScript adds a script to the matching witness set field
func (w *WitnessSet) AddScript(script Script) {
	switch script.Type {
	case ScriptTypeNative:
		w.NativeScripts = append(w.NativeScripts, cbor.RawMessage(script.Bytes))
	case ScriptTypePlutusV1:
		w.PlutusV1Scripts = append(w.PlutusV1Scripts, script.Bytes)
	case ScriptTypePlutusV2:
		w.PlutusV2Scripts = append(w.PlutusV2Scripts, script.Bytes)
	case ScriptTypePlutusV3:
		w.PlutusV3Scripts = append(w.PlutusV3Scripts, script.Bytes)
	}
}

// Datums returns the witness datums as raw CBOR
func (w WitnessSet) Datums() [][]byte {
	ret := make([][]byte, 0, len(w.PlutusData))
	for _, datum := range w.PlutusData {
		ret = append(ret, []byte(datum))
	}
	return ret
}

type Transaction struct {
	cbor.StructAsArray
	Body          TransactionBody
	WitnessSet    WitnessSet
	IsValid       bool
	AuxiliaryData *cbor.RawMessage
}

func NewTransaction(body TransactionBody, witnessSet WitnessSet) *Transaction {
	return &Transaction{
		Body:       body,
		WitnessSet: witnessSet,
		IsValid:    true,
	}
}

// DecodeTransaction parses a full transaction
func DecodeTransaction(data []byte) (*Transaction, error) {
	var tx Transaction
	if _, err := cbor.Decode(data, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (t *Transaction) Cbor() ([]byte, error) {
	return cbor.Encode(t)
}

func (t *Transaction) Hash() (TransactionId, error) {
	return t.Body.Hash()
}

func (t *Transaction) MarshalJSON() ([]byte, error) {
	txCbor, err := t.Cbor()
	if err != nil {
		return nil, err
	}
	txHash, err := t.Hash()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Hash       string              `json:"hash"`
		Body       transactionBodyJson `json:"body"`
		Redeemers  Redeemers           `json:"redeemers,omitempty"`
		DatumCount int                 `json:"datumCount,omitempty"`
		Size       int                 `json:"size"`
		Cbor       string              `json:"cbor"`
	}{
		Hash:       txHash.String(),
		Body:       newTransactionBodyJson(t.Body),
		Redeemers:  t.WitnessSet.Redeemers,
		DatumCount: len(t.WitnessSet.PlutusData),
		Size:       len(txCbor),
		Cbor:       hex.EncodeToString(txCbor),
	})
}

type transactionBodyJson struct {
	Inputs           []TransactionInput  `json:"inputs"`
	Outputs          []TransactionOutput `json:"outputs"`
	Fee              uint64              `json:"fee"`
	Ttl              uint64              `json:"ttl,omitempty"`
	ValidityStart    uint64              `json:"validityIntervalStart,omitempty"`
	Mint             map[string]int64    `json:"mint,omitempty"`
	ScriptDataHash   *Blake2b256         `json:"scriptDataHash,omitempty"`
	Collateral       []TransactionInput  `json:"collateral,omitempty"`
	RequiredSigners  []AddrKeyHash       `json:"requiredSigners,omitempty"`
	CollateralReturn *TransactionOutput  `json:"collateralReturn,omitempty"`
	TotalCollateral  uint64              `json:"totalCollateral,omitempty"`
	ReferenceInputs  []TransactionInput  `json:"referenceInputs,omitempty"`
}

func newTransactionBodyJson(b TransactionBody) transactionBodyJson {
	ret := transactionBodyJson{
		Inputs:           b.Inputs.Items,
		Outputs:          b.Outputs,
		Fee:              b.Fee,
		Ttl:              b.Ttl,
		ValidityStart:    b.ValidityIntervalStart,
		ScriptDataHash:   b.ScriptDataHash,
		Collateral:       b.Collateral,
		RequiredSigners:  b.RequiredSigners,
		CollateralReturn: b.CollateralReturn,
		TotalCollateral:  b.TotalCollateral,
		ReferenceInputs:  b.ReferenceInputs,
	}
	for policy, names := range b.Mint {
		for name, qty := range names {
			if ret.Mint == nil {
				ret.Mint = map[string]int64{}
			}
			ret.Mint[AssetId{Policy: policy, Name: name}.String()] = qty
		}
	}
	return ret
}
