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
	"fmt"

	"github.com/blinklabs-io/plutigo/data"
)

// EncodePlutusData serializes a Plutus data value to CBOR
func EncodePlutusData(pd data.PlutusData) ([]byte, error) {
	if pd == nil {
		return nil, fmt.Errorf("cannot encode nil Plutus data")
	}
	return data.Encode(pd)
}

// DecodePlutusData parses CBOR-encoded Plutus data
func DecodePlutusData(cborData []byte) (data.PlutusData, error) {
	pd, err := data.Decode(cborData)
	if err != nil {
		return nil, fmt.Errorf("decode Plutus data: %w", err)
	}
	return pd, nil
}

// ValidatePlutusData checks that the provided bytes are well-formed Plutus data
func ValidatePlutusData(cborData []byte) error {
	_, err := DecodePlutusData(cborData)
	return err
}

// HashDatum returns the datum hash for CBOR-encoded Plutus data. The hash is
// taken over the bytes as provided, so they must be the exact on-chain encoding
func HashDatum(datumCbor []byte) DatumHash {
	return Blake2b256Hash(datumCbor)
}

// UnitDatum is the encoding of the Plutus unit value, Constr 0 []
var UnitDatum = []byte{0xd8, 0x79, 0x80}
