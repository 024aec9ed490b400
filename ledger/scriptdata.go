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
	"slices"

	"github.com/blinklabs-io/txbuilder/cbor"
)

// LanguageViews builds the encoded cost model map used in the script data hash.
// Only the languages passed in are included. PlutusV1 keeps its historical
// quirks: the key is a bytestring and the value is the bytestring encoding of
// an indefinite-length list
func LanguageViews(pp *ProtocolParameters, languages []Language) ([]byte, error) {
	langs := slices.Clone(languages)
	slices.Sort(langs)
	langs = slices.Compact(langs)
	type viewEntry struct {
		key   []byte
		value []byte
	}
	entries := make([]viewEntry, 0, len(langs))
	for _, lang := range langs {
		params, err := pp.CostModel(lang)
		if err != nil {
			return nil, err
		}
		var entry viewEntry
		if lang == LanguagePlutusV1 {
			entry.key, err = cbor.Encode([]byte{byte(LanguagePlutusV1)})
			if err != nil {
				return nil, err
			}
			tmpList := make(cbor.IndefLengthList, 0, len(params))
			for _, param := range params {
				tmpList = append(tmpList, param)
			}
			listCbor, err := cbor.Encode(tmpList)
			if err != nil {
				return nil, err
			}
			entry.value, err = cbor.Encode(listCbor)
			if err != nil {
				return nil, err
			}
		} else {
			entry.key, err = cbor.Encode(uint(lang))
			if err != nil {
				return nil, err
			}
			entry.value, err = cbor.Encode(params)
			if err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	// Canonical CBOR ordering: shorter keys first, then bytewise
	slices.SortFunc(entries, func(a, b viewEntry) int {
		if len(a.key) != len(b.key) {
			return len(a.key) - len(b.key)
		}
		return bytes.Compare(a.key, b.key)
	})
	ret := []byte{cbor.CborTypeMap + byte(len(entries))}
	for _, entry := range entries {
		ret = append(ret, entry.key...)
		ret = append(ret, entry.value...)
	}
	return ret, nil
}

// EncodePlutusDataList encodes witness set datums as a definite-length list
func EncodePlutusDataList(datums [][]byte) ([]byte, error) {
	tmp := make([]cbor.RawMessage, 0, len(datums))
	for _, datum := range datums {
		tmp = append(tmp, cbor.RawMessage(datum))
	}
	return cbor.Encode(tmp)
}

// ScriptDataHash computes the hash binding redeemers, witness datums and the
// cost models of the languages used. It returns nil when there are neither
// redeemers nor datums
func ScriptDataHash(
	pp *ProtocolParameters,
	redeemers Redeemers,
	datums [][]byte,
	languages []Language,
) (*Blake2b256, error) {
	if len(redeemers) == 0 && len(datums) == 0 {
		return nil, nil
	}
	redeemersCbor, err := redeemers.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	var views []byte
	if len(redeemers) == 0 {
		// Datums without redeemers commit to an empty language view map
		views = []byte{cbor.CborTypeMap}
	} else {
		views, err = LanguageViews(pp, languages)
		if err != nil {
			return nil, err
		}
	}
	buf := bytes.NewBuffer(nil)
	buf.Write(redeemersCbor)
	if len(datums) > 0 {
		datumsCbor, err := EncodePlutusDataList(datums)
		if err != nil {
			return nil, err
		}
		buf.Write(datumsCbor)
	}
	buf.Write(views)
	hash := Blake2b256Hash(buf.Bytes())
	return &hash, nil
}
