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

// Package coinselect provides the coin selection strategies used to pick
// inputs that cover a target value.
package coinselect

import (
	"fmt"

	"github.com/blinklabs-io/txbuilder/ledger"
)

// Candidate is a spendable output offered to a selection strategy
type Candidate struct {
	Input  ledger.TransactionInput
	Amount ledger.Value
}

// Strategy chooses a subset of the available candidates whose combined amount
// covers target. Implementations must not modify the available slice
type Strategy interface {
	Select(available []Candidate, target ledger.Value) ([]Candidate, error)
}

// StrategyFunc allows using an ordinary function as a Strategy
type StrategyFunc func(available []Candidate, target ledger.Value) ([]Candidate, error)

func (f StrategyFunc) Select(
	available []Candidate,
	target ledger.Value,
) ([]Candidate, error) {
	return f(available, target)
}

// InsufficientFundsError is returned when the available candidates cannot cover the target
type InsufficientFundsError struct {
	Shortfall ledger.Value
}

func (e InsufficientFundsError) Error() string {
	msg := fmt.Sprintf("insufficient funds: short %d lovelace", e.Shortfall.Coin)
	if ids := e.Shortfall.AssetIds(); len(ids) > 0 {
		msg += fmt.Sprintf(" and %d asset(s)", len(ids))
	}
	return msg
}

// Total returns the combined amount of the candidates
func Total(candidates []Candidate) (ledger.Value, error) {
	ret := ledger.Value{}
	for _, c := range candidates {
		var err error
		ret, err = ret.Add(c.Amount)
		if err != nil {
			return ledger.Value{}, err
		}
	}
	return ret, nil
}

// assetOrder returns the asset classes to satisfy, native assets first and lovelace last
func assetOrder(target ledger.Value) []*ledger.AssetId {
	ret := []*ledger.AssetId{}
	for _, id := range target.AssetIds() {
		ret = append(ret, &id)
	}
	// nil stands for lovelace
	if target.Coin > 0 {
		ret = append(ret, nil)
	}
	return ret
}

func quantityOf(v ledger.Value, id *ledger.AssetId) uint64 {
	if id == nil {
		return v.Coin
	}
	return v.Quantity(id.Policy, id.Name)
}
