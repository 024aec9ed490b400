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
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"slices"

	"github.com/blinklabs-io/txbuilder/cbor"
)

// AssetName is a map-key friendly asset name
type AssetName = cbor.ByteString

func NewAssetName(name []byte) AssetName {
	return cbor.NewByteString(name)
}

// AssetId names one asset class within a multi-asset bundle
type AssetId struct {
	Policy PolicyId
	Name   AssetName
}

func (a AssetId) String() string {
	return a.Policy.String() + "." + a.Name.String()
}

var ErrNegativeValue = errors.New("value would contain a negative quantity")

// QuantityExceedsMaximumError is returned when a quantity cannot be represented
// by the ledger's native integer width
type QuantityExceedsMaximumError struct {
	Asset    string
	Quantity *big.Int
}

func (e QuantityExceedsMaximumError) Error() string {
	if e.Quantity == nil {
		return fmt.Sprintf("quantity exceeds maximum for %s", e.Asset)
	}
	return fmt.Sprintf(
		"quantity exceeds maximum for %s: %s",
		e.Asset,
		e.Quantity.String(),
	)
}

type MultiAsset map[PolicyId]map[AssetName]uint64

// Value is an amount of lovelace plus an optional bundle of native assets.
// Methods never modify the receiver. Zero quantities are never stored
type Value struct {
	Coin   uint64
	Assets MultiAsset
}

func NewValue(coin uint64) Value {
	return Value{Coin: coin}
}

// WithAsset returns a copy of the value with the given asset quantity set
func (v Value) WithAsset(policy PolicyId, name AssetName, quantity uint64) Value {
	ret := v.Clone()
	if quantity == 0 {
		if names, ok := ret.Assets[policy]; ok {
			delete(names, name)
			if len(names) == 0 {
				delete(ret.Assets, policy)
			}
		}
		return ret
	}
	if ret.Assets == nil {
		ret.Assets = MultiAsset{}
	}
	if ret.Assets[policy] == nil {
		ret.Assets[policy] = map[AssetName]uint64{}
	}
	ret.Assets[policy][name] = quantity
	return ret
}

func (v Value) Clone() Value {
	ret := Value{Coin: v.Coin}
	for policy, names := range v.Assets {
		for name, qty := range names {
			if qty == 0 {
				continue
			}
			if ret.Assets == nil {
				ret.Assets = MultiAsset{}
			}
			if ret.Assets[policy] == nil {
				ret.Assets[policy] = map[AssetName]uint64{}
			}
			ret.Assets[policy][name] = qty
		}
	}
	return ret
}

func (v Value) Quantity(policy PolicyId, name AssetName) uint64 {
	return v.Assets[policy][name]
}

func (v Value) IsZero() bool {
	return v.Coin == 0 && !v.HasAssets()
}

func (v Value) HasAssets() bool {
	for _, names := range v.Assets {
		for _, qty := range names {
			if qty > 0 {
				return true
			}
		}
	}
	return false
}

// HasSufficientCoinFor reports whether the coin component meets the given minimum
func (v Value) HasSufficientCoinFor(minAda uint64) bool {
	return v.Coin >= minAda
}

// AssetIds returns the asset classes in the value in canonical order
func (v Value) AssetIds() []AssetId {
	ret := []AssetId{}
	for policy, names := range v.Assets {
		for name, qty := range names {
			if qty > 0 {
				ret = append(ret, AssetId{Policy: policy, Name: name})
			}
		}
	}
	slices.SortFunc(ret, func(a, b AssetId) int {
		if c := bytes.Compare(a.Policy[:], b.Policy[:]); c != 0 {
			return c
		}
		return bytes.Compare(a.Name.Bytes(), b.Name.Bytes())
	})
	return ret
}

// Add returns the sum of two values
func (v Value) Add(other Value) (Value, error) {
	coin, carry := bits.Add64(v.Coin, other.Coin, 0)
	if carry != 0 {
		return Value{}, QuantityExceedsMaximumError{
			Asset: "lovelace",
			Quantity: new(big.Int).Add(
				new(big.Int).SetUint64(v.Coin),
				new(big.Int).SetUint64(other.Coin),
			),
		}
	}
	ret := v.Clone()
	ret.Coin = coin
	for _, id := range other.AssetIds() {
		a := ret.Quantity(id.Policy, id.Name)
		b := other.Quantity(id.Policy, id.Name)
		sum, carry := bits.Add64(a, b, 0)
		if carry != 0 {
			return Value{}, QuantityExceedsMaximumError{
				Asset: id.String(),
				Quantity: new(big.Int).Add(
					new(big.Int).SetUint64(a),
					new(big.Int).SetUint64(b),
				),
			}
		}
		ret = ret.WithAsset(id.Policy, id.Name, sum)
	}
	return ret, nil
}

// Subtract returns v - other. Any component that would become negative is an error
func (v Value) Subtract(other Value) (Value, error) {
	if other.Coin > v.Coin {
		return Value{}, fmt.Errorf("%w: lovelace", ErrNegativeValue)
	}
	ret := v.Clone()
	ret.Coin = v.Coin - other.Coin
	for _, id := range other.AssetIds() {
		a := ret.Quantity(id.Policy, id.Name)
		b := other.Quantity(id.Policy, id.Name)
		if b > a {
			return Value{}, fmt.Errorf("%w: %s", ErrNegativeValue, id.String())
		}
		ret = ret.WithAsset(id.Policy, id.Name, a-b)
	}
	return ret, nil
}

// Covers reports whether every component of v is at least the matching component of other
func (v Value) Covers(other Value) bool {
	if v.Coin < other.Coin {
		return false
	}
	for _, id := range other.AssetIds() {
		if v.Quantity(id.Policy, id.Name) < other.Quantity(id.Policy, id.Name) {
			return false
		}
	}
	return true
}

// Shortfall returns the part of other that v does not cover
func (v Value) Shortfall(other Value) Value {
	ret := Value{}
	if other.Coin > v.Coin {
		ret.Coin = other.Coin - v.Coin
	}
	for _, id := range other.AssetIds() {
		have := v.Quantity(id.Policy, id.Name)
		want := other.Quantity(id.Policy, id.Name)
		if want > have {
			ret = ret.WithAsset(id.Policy, id.Name, want-have)
		}
	}
	return ret
}

func (v Value) Equal(other Value) bool {
	return v.Covers(other) && other.Covers(v)
}

// Sum adds up a list of values
func Sum(values ...Value) (Value, error) {
	ret := Value{}
	for _, val := range values {
		var err error
		ret, err = ret.Add(val)
		if err != nil {
			return Value{}, err
		}
	}
	return ret, nil
}

func (v Value) MarshalCBOR() ([]byte, error) {
	if !v.HasAssets() {
		return cbor.Encode(v.Coin)
	}
	tmp := []any{v.Coin, v.Clone().Assets}
	return cbor.Encode(tmp)
}

func (v *Value) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty value")
	}
	if data[0]&cbor.CborTypeMask != cbor.CborTypeArray {
		var coin uint64
		if _, err := cbor.Decode(data, &coin); err != nil {
			return err
		}
		*v = Value{Coin: coin}
		return nil
	}
	var tmp struct {
		cbor.StructAsArray
		Coin   uint64
		Assets MultiAsset
	}
	if _, err := cbor.Decode(data, &tmp); err != nil {
		return err
	}
	*v = Value{Coin: tmp.Coin, Assets: tmp.Assets}.Clone()
	return nil
}

type valueJson struct {
	Coin   uint64                       `json:"coin"`
	Assets map[string]map[string]uint64 `json:"assets,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	tmp := valueJson{Coin: v.Coin}
	for _, id := range v.AssetIds() {
		if tmp.Assets == nil {
			tmp.Assets = map[string]map[string]uint64{}
		}
		policy := id.Policy.String()
		if tmp.Assets[policy] == nil {
			tmp.Assets[policy] = map[string]uint64{}
		}
		tmp.Assets[policy][id.Name.String()] = v.Quantity(id.Policy, id.Name)
	}
	return json.Marshal(tmp)
}

// MintAssets holds signed per-asset deltas keyed by policy
type MintAssets map[PolicyId]map[AssetName]int64

// Positive returns the minted (positive) part of the deltas as a Value
func (m MintAssets) Positive() Value {
	ret := Value{}
	for policy, names := range m {
		for name, qty := range names {
			if qty > 0 {
				ret = ret.WithAsset(policy, name, uint64(qty))
			}
		}
	}
	return ret
}

// Negative returns the burned part of the deltas as a Value
func (m MintAssets) Negative() Value {
	ret := Value{}
	for policy, names := range m {
		for name, qty := range names {
			if qty < 0 {
				// Negating math.MinInt64 overflows int64 but not uint64
				ret = ret.WithAsset(policy, name, uint64(-(qty+1))+1)
			}
		}
	}
	return ret
}

// AddMintDelta adds b onto a, failing when the result does not fit in an int64
func AddMintDelta(id AssetId, a int64, b int64) (int64, error) {
	sum := new(big.Int).Add(big.NewInt(a), big.NewInt(b))
	if !sum.IsInt64() {
		return 0, QuantityExceedsMaximumError{Asset: id.String(), Quantity: sum}
	}
	return sum.Int64(), nil
}

// CheckMintRange verifies that a big integer delta fits the mint quantity width
func CheckMintRange(id AssetId, qty *big.Int) (int64, error) {
	if qty == nil || !qty.IsInt64() {
		return 0, QuantityExceedsMaximumError{Asset: id.String(), Quantity: qty}
	}
	return qty.Int64(), nil
}
