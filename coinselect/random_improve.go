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

package coinselect

import (
	"math/rand/v2"

	"github.com/blinklabs-io/txbuilder/ledger"
)

// RandomImprove picks candidates at random until each asset class is covered,
// then tries to add more lovelace so the selection lands near twice the target
// without exceeding three times it. This leaves useful change outputs behind
type RandomImprove struct {
	rng *rand.Rand
}

// NewRandomImprove returns a RandomImprove strategy. The same seed always
// produces the same selections for the same inputs
func NewRandomImprove(seed uint64) *RandomImprove {
	return &RandomImprove{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *RandomImprove) Select(
	available []Candidate,
	target ledger.Value,
) ([]Candidate, error) {
	remaining := make([]Candidate, len(available))
	copy(remaining, available)
	selected := []Candidate{}
	total := ledger.Value{}
	take := func(idx int) error {
		next := remaining[idx]
		remaining[idx] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
		var err error
		total, err = total.Add(next.Amount)
		if err != nil {
			return err
		}
		selected = append(selected, next)
		return nil
	}
	for _, id := range assetOrder(target) {
		want := quantityOf(target, id)
		for quantityOf(total, id) < want {
			holders := []int{}
			for idx, c := range remaining {
				if quantityOf(c.Amount, id) > 0 {
					holders = append(holders, idx)
				}
			}
			if len(holders) == 0 {
				return nil, InsufficientFundsError{Shortfall: total.Shortfall(target)}
			}
			if err := take(holders[r.rng.IntN(len(holders))]); err != nil {
				return nil, err
			}
		}
	}
	// Improvement phase for lovelace only
	if target.Coin > 0 {
		ideal := target.Coin * 2
		upper := target.Coin * 3
		if ideal/2 != target.Coin || upper/3 != target.Coin {
			// Targets this large cannot be improved without overflow
			return selected, nil
		}
		for len(remaining) > 0 {
			idx := r.rng.IntN(len(remaining))
			candidate := remaining[idx]
			newCoin := total.Coin + candidate.Amount.Coin
			if newCoin < total.Coin || newCoin > upper {
				break
			}
			if absDiff(newCoin, ideal) >= absDiff(total.Coin, ideal) {
				break
			}
			if err := take(idx); err != nil {
				return nil, err
			}
		}
	}
	return selected, nil
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
