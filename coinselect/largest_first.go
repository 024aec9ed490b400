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
	"cmp"
	"slices"

	"github.com/blinklabs-io/txbuilder/ledger"
)

// LargestFirst selects, for each asset class in the target and then for
// lovelace, the candidates holding the most of that asset until it is covered.
// Ties keep ledger input order, so the result is deterministic
type LargestFirst struct{}

func (LargestFirst) Select(
	available []Candidate,
	target ledger.Value,
) ([]Candidate, error) {
	remaining := slices.Clone(available)
	selected := []Candidate{}
	total := ledger.Value{}
	for _, id := range assetOrder(target) {
		want := quantityOf(target, id)
		if quantityOf(total, id) >= want {
			continue
		}
		slices.SortStableFunc(remaining, func(a, b Candidate) int {
			if c := cmp.Compare(quantityOf(b.Amount, id), quantityOf(a.Amount, id)); c != 0 {
				return c
			}
			return ledger.CompareInputs(a.Input, b.Input)
		})
		for len(remaining) > 0 && quantityOf(total, id) < want {
			next := remaining[0]
			if quantityOf(next.Amount, id) == 0 {
				break
			}
			remaining = remaining[1:]
			var err error
			total, err = total.Add(next.Amount)
			if err != nil {
				return nil, err
			}
			selected = append(selected, next)
		}
	}
	if !total.Covers(target) {
		return nil, InsufficientFundsError{Shortfall: total.Shortfall(target)}
	}
	return selected, nil
}
