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
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// BadProtocolParametersError indicates a missing or malformed protocol parameter
type BadProtocolParametersError struct {
	Field  string
	Reason string
}

func (e BadProtocolParametersError) Error() string {
	return fmt.Sprintf("bad protocol parameters: %s: %s", e.Field, e.Reason)
}

// Rational is a non-negative exact fraction such as an execution unit price
type Rational struct {
	*big.Rat
}

func NewRational(num int64, denom int64) Rational {
	return Rational{Rat: big.NewRat(num, denom)}
}

// UnmarshalJSON accepts a JSON number ("0.0577"), a decimal or fraction string
// ("577/10000") or a {"numerator": n, "denominator": d} object
func (r *Rational) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		r.Rat = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var tmp struct {
			Numerator   int64 `json:"numerator"`
			Denominator int64 `json:"denominator"`
		}
		if err := json.Unmarshal(data, &tmp); err != nil {
			return err
		}
		if tmp.Denominator == 0 {
			return fmt.Errorf("rational with zero denominator")
		}
		r.Rat = big.NewRat(tmp.Numerator, tmp.Denominator)
		return nil
	}
	trimmed = strings.Trim(trimmed, `"`)
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return fmt.Errorf("invalid rational: %s", trimmed)
	}
	r.Rat = rat
	return nil
}

func (r Rational) MarshalJSON() ([]byte, error) {
	if r.Rat == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.Rat.RatString())
}

// ProtocolParameters is the subset of ledger protocol parameters needed to
// build and balance transactions
type ProtocolParameters struct {
	MinFeeA                    uint64
	MinFeeB                    uint64
	MaxTxSize                  uint64
	MaxValueSize               uint64
	KeyDeposit                 uint64
	PoolDeposit                uint64
	CoinsPerUtxoByte           uint64
	PriceMem                   Rational
	PriceSteps                 Rational
	MaxTxExUnits               ExUnits
	CollateralPercent          uint64
	MaxCollateralInputs        uint64
	MinFeeRefScriptCostPerByte Rational
	CostModels                 map[Language][]int64
}

// Field names follow the protocol parameters JSON returned by common chain indexers
type protocolParametersJson struct {
	MinFeeA                    json.RawMessage            `json:"min_fee_a"`
	MinFeeB                    json.RawMessage            `json:"min_fee_b"`
	MaxTxSize                  json.RawMessage            `json:"max_tx_size"`
	MaxValueSize               json.RawMessage            `json:"max_val_size"`
	KeyDeposit                 json.RawMessage            `json:"key_deposit"`
	PoolDeposit                json.RawMessage            `json:"pool_deposit"`
	CoinsPerUtxoByte           json.RawMessage            `json:"coins_per_utxo_size"`
	PriceMem                   Rational                   `json:"price_mem"`
	PriceSteps                 Rational                   `json:"price_step"`
	MaxTxExMem                 json.RawMessage            `json:"max_tx_ex_mem"`
	MaxTxExSteps               json.RawMessage            `json:"max_tx_ex_steps"`
	CollateralPercent          json.RawMessage            `json:"collateral_percent"`
	MaxCollateralInputs        json.RawMessage            `json:"max_collateral_inputs"`
	MinFeeRefScriptCostPerByte Rational                   `json:"min_fee_ref_script_cost_per_byte"`
	CostModelsRaw              map[string]json.RawMessage `json:"cost_models_raw"`
	CostModels                 map[string]json.RawMessage `json:"cost_models"`
}

// NewProtocolParametersFromJSON parses and validates protocol parameters
func NewProtocolParametersFromJSON(data []byte) (*ProtocolParameters, error) {
	var ret ProtocolParameters
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (p *ProtocolParameters) UnmarshalJSON(data []byte) error {
	var tmp protocolParametersJson
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	uintFields := []struct {
		name string
		raw  json.RawMessage
		dest *uint64
	}{
		{"min_fee_a", tmp.MinFeeA, &p.MinFeeA},
		{"min_fee_b", tmp.MinFeeB, &p.MinFeeB},
		{"max_tx_size", tmp.MaxTxSize, &p.MaxTxSize},
		{"max_val_size", tmp.MaxValueSize, &p.MaxValueSize},
		{"key_deposit", tmp.KeyDeposit, &p.KeyDeposit},
		{"pool_deposit", tmp.PoolDeposit, &p.PoolDeposit},
		{"coins_per_utxo_size", tmp.CoinsPerUtxoByte, &p.CoinsPerUtxoByte},
		{"max_tx_ex_mem", tmp.MaxTxExMem, &p.MaxTxExUnits.Memory},
		{"max_tx_ex_steps", tmp.MaxTxExSteps, &p.MaxTxExUnits.Steps},
		{"collateral_percent", tmp.CollateralPercent, &p.CollateralPercent},
		{"max_collateral_inputs", tmp.MaxCollateralInputs, &p.MaxCollateralInputs},
	}
	for _, field := range uintFields {
		if len(field.raw) == 0 {
			continue
		}
		val, err := parseJsonUint(field.raw)
		if err != nil {
			return BadProtocolParametersError{Field: field.name, Reason: err.Error()}
		}
		*field.dest = val
	}
	p.PriceMem = tmp.PriceMem
	p.PriceSteps = tmp.PriceSteps
	p.MinFeeRefScriptCostPerByte = tmp.MinFeeRefScriptCostPerByte
	costModels := tmp.CostModelsRaw
	if len(costModels) == 0 {
		costModels = tmp.CostModels
	}
	for name, raw := range costModels {
		lang, err := ParseLanguage(name)
		if err != nil {
			return BadProtocolParametersError{Field: "cost_models", Reason: err.Error()}
		}
		var params []int64
		if err := json.Unmarshal(raw, &params); err != nil {
			// Keyed cost models have no defined order, so only lists are accepted
			return BadProtocolParametersError{
				Field:  "cost_models",
				Reason: fmt.Sprintf("%s: expected a list of integers", name),
			}
		}
		if p.CostModels == nil {
			p.CostModels = map[Language][]int64{}
		}
		p.CostModels[lang] = params
	}
	return nil
}

func (p ProtocolParameters) MarshalJSON() ([]byte, error) {
	tmp := map[string]any{
		"min_fee_a":                        p.MinFeeA,
		"min_fee_b":                        p.MinFeeB,
		"max_tx_size":                      p.MaxTxSize,
		"max_val_size":                     strconv.FormatUint(p.MaxValueSize, 10),
		"key_deposit":                      strconv.FormatUint(p.KeyDeposit, 10),
		"pool_deposit":                     strconv.FormatUint(p.PoolDeposit, 10),
		"coins_per_utxo_size":              strconv.FormatUint(p.CoinsPerUtxoByte, 10),
		"price_mem":                        p.PriceMem,
		"price_step":                       p.PriceSteps,
		"max_tx_ex_mem":                    strconv.FormatUint(p.MaxTxExUnits.Memory, 10),
		"max_tx_ex_steps":                  strconv.FormatUint(p.MaxTxExUnits.Steps, 10),
		"collateral_percent":               p.CollateralPercent,
		"max_collateral_inputs":            p.MaxCollateralInputs,
		"min_fee_ref_script_cost_per_byte": p.MinFeeRefScriptCostPerByte,
	}
	costModels := map[string][]int64{}
	for lang, params := range p.CostModels {
		costModels[lang.String()] = params
	}
	tmp["cost_models_raw"] = costModels
	return json.Marshal(tmp)
}

func parseJsonUint(raw json.RawMessage) (uint64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "null" || s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// Validate checks for parameter combinations that make balancing impossible
func (p *ProtocolParameters) Validate() error {
	if p.CoinsPerUtxoByte == 0 {
		return BadProtocolParametersError{Field: "coins_per_utxo_size", Reason: "must be positive"}
	}
	if p.MaxTxSize == 0 {
		return BadProtocolParametersError{Field: "max_tx_size", Reason: "must be positive"}
	}
	if p.MaxValueSize == 0 {
		return BadProtocolParametersError{Field: "max_val_size", Reason: "must be positive"}
	}
	if p.CollateralPercent == 0 {
		return BadProtocolParametersError{Field: "collateral_percent", Reason: "must be positive"}
	}
	rationals := []struct {
		name     string
		val      Rational
		required bool
	}{
		{"price_mem", p.PriceMem, true},
		{"price_step", p.PriceSteps, true},
		{"min_fee_ref_script_cost_per_byte", p.MinFeeRefScriptCostPerByte, false},
	}
	for _, r := range rationals {
		if r.val.Rat == nil {
			if r.required {
				return BadProtocolParametersError{Field: r.name, Reason: "missing"}
			}
			continue
		}
		if r.val.Sign() < 0 {
			return BadProtocolParametersError{Field: r.name, Reason: "must not be negative"}
		}
	}
	if p.MaxTxExUnits.Memory == 0 || p.MaxTxExUnits.Steps == 0 {
		return BadProtocolParametersError{Field: "max_tx_ex_units", Reason: "must be positive"}
	}
	if p.MaxCollateralInputs == 0 {
		return BadProtocolParametersError{Field: "max_collateral_inputs", Reason: "must be positive"}
	}
	return nil
}

// CostModel returns the cost model for a language, or BadProtocolParametersError if it is missing
func (p *ProtocolParameters) CostModel(lang Language) ([]int64, error) {
	params, ok := p.CostModels[lang]
	if !ok || len(params) == 0 {
		return nil, BadProtocolParametersError{
			Field:  "cost_models",
			Reason: "no cost model for " + lang.String(),
		}
	}
	return params, nil
}
