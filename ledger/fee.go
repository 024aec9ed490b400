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
	"math/big"
)

const (
	// Reference scripts are priced per byte in tiers of this size
	RefScriptFeeTierSize = 25600

	// Fixed overhead added to the serialized size of an output for the minimum coin rule
	MinUtxoOverheadBytes = 160
)

// Each reference script fee tier costs this multiple of the previous one
var refScriptFeeTierMultiplier = big.NewRat(6, 5)

// ceilRat returns the smallest integer >= r for non-negative r
func ceilRat(r *big.Rat) *big.Int {
	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// floorRat returns the largest integer <= r for non-negative r
func floorRat(r *big.Rat) *big.Int {
	return new(big.Int).Quo(r.Num(), r.Denom())
}

func bigToUint64(val *big.Int, what string) (uint64, error) {
	if !val.IsUint64() {
		return 0, QuantityExceedsMaximumError{Asset: what, Quantity: val}
	}
	return val.Uint64(), nil
}

// LinearFee is the size-based part of the minimum fee
func LinearFee(pp *ProtocolParameters, txSize uint64) (uint64, error) {
	fee := new(big.Int).SetUint64(pp.MinFeeA)
	fee.Mul(fee, new(big.Int).SetUint64(txSize))
	fee.Add(fee, new(big.Int).SetUint64(pp.MinFeeB))
	return bigToUint64(fee, "fee")
}

// ScriptFee is the cost of the given execution units, rounded up
func ScriptFee(pp *ProtocolParameters, exUnits ExUnits) (uint64, error) {
	if exUnits.Memory == 0 && exUnits.Steps == 0 {
		return 0, nil
	}
	if pp.PriceMem.Rat == nil || pp.PriceSteps.Rat == nil {
		return 0, BadProtocolParametersError{
			Field:  "price_mem/price_step",
			Reason: "missing execution unit prices",
		}
	}
	mem := new(big.Rat).Mul(pp.PriceMem.Rat, new(big.Rat).SetInt(new(big.Int).SetUint64(exUnits.Memory)))
	steps := new(big.Rat).Mul(pp.PriceSteps.Rat, new(big.Rat).SetInt(new(big.Int).SetUint64(exUnits.Steps)))
	return bigToUint64(ceilRat(mem.Add(mem, steps)), "fee")
}

// RefScriptFee is the tiered fee for the total size of scripts provided by
// reference inputs and spent inputs
func RefScriptFee(pp *ProtocolParameters, refScriptSize uint64) (uint64, error) {
	if refScriptSize == 0 || pp.MinFeeRefScriptCostPerByte.Rat == nil {
		return 0, nil
	}
	acc := new(big.Rat)
	price := new(big.Rat).Set(pp.MinFeeRefScriptCostPerByte.Rat)
	tier := new(big.Rat).SetInt64(RefScriptFeeTierSize)
	remaining := refScriptSize
	for remaining >= RefScriptFeeTierSize {
		acc.Add(acc, new(big.Rat).Mul(tier, price))
		price.Mul(price, refScriptFeeTierMultiplier)
		remaining -= RefScriptFeeTierSize
	}
	acc.Add(
		acc,
		new(big.Rat).Mul(
			new(big.Rat).SetInt(new(big.Int).SetUint64(remaining)),
			price,
		),
	)
	return bigToUint64(floorRat(acc), "fee")
}

// MinFee is the minimum fee for a transaction of the given size, total
// execution units and reference script size
func MinFee(
	pp *ProtocolParameters,
	txSize uint64,
	exUnits ExUnits,
	refScriptSize uint64,
) (uint64, error) {
	linear, err := LinearFee(pp, txSize)
	if err != nil {
		return 0, err
	}
	scriptFee, err := ScriptFee(pp, exUnits)
	if err != nil {
		return 0, err
	}
	refFee, err := RefScriptFee(pp, refScriptSize)
	if err != nil {
		return 0, err
	}
	total := new(big.Int).SetUint64(linear)
	total.Add(total, new(big.Int).SetUint64(scriptFee))
	total.Add(total, new(big.Int).SetUint64(refFee))
	return bigToUint64(total, "fee")
}

// MinCoinForOutput returns the minimum lovelace the output must carry. The
// output size depends on its own coin field, so the estimate is repeated until
// it stops changing
func MinCoinForOutput(pp *ProtocolParameters, output TransactionOutput) (uint64, error) {
	tmpOutput := output
	tmpOutput.SetCbor(nil)
	minCoin := uint64(0)
	for range 8 {
		tmpOutput.Amount = output.Amount.Clone()
		tmpOutput.Amount.Coin = max(output.Amount.Coin, minCoin)
		outputCbor, err := tmpOutput.MarshalCBOR()
		if err != nil {
			return 0, err
		}
		required := new(big.Int).SetUint64(pp.CoinsPerUtxoByte)
		required.Mul(
			required,
			big.NewInt(int64(MinUtxoOverheadBytes+len(outputCbor))),
		)
		next, err := bigToUint64(required, "minimum coin")
		if err != nil {
			return 0, err
		}
		if next <= minCoin {
			return minCoin, nil
		}
		minCoin = next
	}
	return minCoin, nil
}
