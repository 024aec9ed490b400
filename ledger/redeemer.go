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
	"cmp"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/bits"
	"slices"

	"github.com/blinklabs-io/txbuilder/cbor"
)

type RedeemerTag uint8

const (
	RedeemerTagSpend     RedeemerTag = 0
	RedeemerTagMint      RedeemerTag = 1
	RedeemerTagCert      RedeemerTag = 2
	RedeemerTagReward    RedeemerTag = 3
	RedeemerTagVoting    RedeemerTag = 4
	RedeemerTagProposing RedeemerTag = 5
)

func (t RedeemerTag) String() string {
	switch t {
	case RedeemerTagSpend:
		return "spend"
	case RedeemerTagMint:
		return "mint"
	case RedeemerTagCert:
		return "cert"
	case RedeemerTagReward:
		return "reward"
	case RedeemerTagVoting:
		return "voting"
	case RedeemerTagProposing:
		return "proposing"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

type ExUnits struct {
	cbor.StructAsArray
	Memory uint64
	Steps  uint64
}

func (e ExUnits) Add(other ExUnits) (ExUnits, error) {
	mem, carry := bits.Add64(e.Memory, other.Memory, 0)
	if carry != 0 {
		return ExUnits{}, QuantityExceedsMaximumError{Asset: "execution memory"}
	}
	steps, carry := bits.Add64(e.Steps, other.Steps, 0)
	if carry != 0 {
		return ExUnits{}, QuantityExceedsMaximumError{Asset: "execution steps"}
	}
	return ExUnits{Memory: mem, Steps: steps}, nil
}

func (e ExUnits) Exceeds(limit ExUnits) bool {
	return e.Memory > limit.Memory || e.Steps > limit.Steps
}

// Redeemer carries the Plutus data and execution budget for one script purpose.
// Data is the CBOR encoding of the redeemer's Plutus data
type Redeemer struct {
	Tag     RedeemerTag
	Index   uint32
	Data    []byte
	ExUnits ExUnits
}

func (r Redeemer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Tag    string `json:"tag"`
		Index  uint32 `json:"index"`
		Data   string `json:"data"`
		Memory uint64 `json:"memory"`
		Steps  uint64 `json:"steps"`
	}{
		Tag:    r.Tag.String(),
		Index:  r.Index,
		Data:   hex.EncodeToString(r.Data),
		Memory: r.ExUnits.Memory,
		Steps:  r.ExUnits.Steps,
	})
}

func CompareRedeemers(a, b Redeemer) int {
	if c := cmp.Compare(a.Tag, b.Tag); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

type redeemerKey struct {
	cbor.StructAsArray
	Tag   uint8
	Index uint32
}

type redeemerValue struct {
	cbor.StructAsArray
	Data    cbor.RawMessage
	ExUnits ExUnits
}

type legacyRedeemer struct {
	cbor.StructAsArray
	Tag     uint8
	Index   uint32
	Data    cbor.RawMessage
	ExUnits ExUnits
}

// Redeemers is the witness set redeemer collection. It is always written in
// the map format keyed by (tag, index) and accepts the older list format when decoding
type Redeemers []Redeemer

// Sorted returns a copy of the redeemers ordered by tag and index
func (r Redeemers) Sorted() Redeemers {
	ret := slices.Clone(r)
	slices.SortStableFunc(ret, CompareRedeemers)
	return ret
}

func (r Redeemers) TotalExUnits() (ExUnits, error) {
	var ret ExUnits
	for _, redeemer := range r {
		var err error
		ret, err = ret.Add(redeemer.ExUnits)
		if err != nil {
			return ExUnits{}, err
		}
	}
	return ret, nil
}

// Find returns the redeemer with the given tag and index
func (r Redeemers) Find(tag RedeemerTag, index uint32) (Redeemer, bool) {
	for _, redeemer := range r {
		if redeemer.Tag == tag && redeemer.Index == index {
			return redeemer, true
		}
	}
	return Redeemer{}, false
}

func (r Redeemers) MarshalCBOR() ([]byte, error) {
	tmp := make(map[redeemerKey]redeemerValue, len(r))
	for _, redeemer := range r {
		key := redeemerKey{Tag: uint8(redeemer.Tag), Index: redeemer.Index}
		if _, ok := tmp[key]; ok {
			return nil, fmt.Errorf(
				"duplicate redeemer: %s %d",
				redeemer.Tag.String(),
				redeemer.Index,
			)
		}
		tmp[key] = redeemerValue{
			Data:    cbor.RawMessage(redeemer.Data),
			ExUnits: redeemer.ExUnits,
		}
	}
	return cbor.Encode(tmp)
}

func (r *Redeemers) UnmarshalCBOR(data []byte) error {
	if len(data) > 0 && data[0]&cbor.CborTypeMask == cbor.CborTypeArray {
		var tmp []legacyRedeemer
		if _, err := cbor.Decode(data, &tmp); err != nil {
			return err
		}
		ret := make(Redeemers, 0, len(tmp))
		for _, item := range tmp {
			ret = append(ret, Redeemer{
				Tag:     RedeemerTag(item.Tag),
				Index:   item.Index,
				Data:    slices.Clone([]byte(item.Data)),
				ExUnits: item.ExUnits,
			})
		}
		*r = ret.Sorted()
		return nil
	}
	var tmp map[redeemerKey]redeemerValue
	if _, err := cbor.Decode(data, &tmp); err != nil {
		return err
	}
	ret := make(Redeemers, 0, len(tmp))
	for key, val := range tmp {
		ret = append(ret, Redeemer{
			Tag:     RedeemerTag(key.Tag),
			Index:   key.Index,
			Data:    slices.Clone([]byte(val.Data)),
			ExUnits: val.ExUnits,
		})
	}
	*r = ret.Sorted()
	return nil
}
