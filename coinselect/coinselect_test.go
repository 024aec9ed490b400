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

package coinselect_test

import (
	"testing"

	"github.com/blinklabs-io/txbuilder/coinselect"
	"github.com/blinklabs-io/txbuilder/internal/test"
	test_ledger "github.com/blinklabs-io/txbuilder/internal/test/ledger"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPolicy = ledger.NewBlake2b224(test.FilledBytes(ledger.Blake2b224Size, 0xaa))
	testToken  = ledger.NewAssetName([]byte("token"))
)

func candidate(txByte byte, amount ledger.Value) coinselect.Candidate {
	return coinselect.Candidate{Input: test_ledger.Input(txByte, 0), Amount: amount}
}

func testCandidates() []coinselect.Candidate {
	return []coinselect.Candidate{
		candidate(0x01, ledger.NewValue(1_000_000)),
		candidate(0x02, ledger.NewValue(5_000_000)),
		candidate(0x03, ledger.NewValue(2_000_000).WithAsset(testPolicy, testToken, 10)),
		candidate(0x04, ledger.NewValue(3_000_000)),
		candidate(0x05, ledger.NewValue(5_000_000)),
	}
}

func inputBytes(selected []coinselect.Candidate) []byte {
	ret := []byte{}
	for _, c := range selected {
		ret = append(ret, c.Input.TxId[0])
	}
	return ret
}

func TestLargestFirst(t *testing.T) {
	testDefs := []struct {
		name     string
		target   ledger.Value
		expected []byte
	}{
		{
			name:     "SingleLargest",
			target:   ledger.NewValue(4_000_000),
			expected: []byte{0x02},
		},
		{
			// Equal amounts are taken in input order
			name:     "TieBreak",
			target:   ledger.NewValue(9_000_000),
			expected: []byte{0x02, 0x05},
		},
		{
			// The asset holder is picked first and its lovelace counts
			name:     "AssetFirst",
			target:   ledger.NewValue(6_000_000).WithAsset(testPolicy, testToken, 5),
			expected: []byte{0x03, 0x02},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			available := testCandidates()
			selected, err := coinselect.LargestFirst{}.Select(available, testDef.target)
			require.NoError(t, err)
			assert.Equal(t, testDef.expected, inputBytes(selected))
			total, err := coinselect.Total(selected)
			require.NoError(t, err)
			assert.True(t, total.Covers(testDef.target))
			// The caller's slice is untouched
			assert.Equal(t, testCandidates(), available)
		})
	}
}

func TestLargestFirstInsufficient(t *testing.T) {
	_, err := coinselect.LargestFirst{}.Select(
		testCandidates(),
		ledger.NewValue(1_000_000).WithAsset(testPolicy, testToken, 11),
	)
	var fundsErr coinselect.InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.Equal(t, uint64(1), fundsErr.Shortfall.Quantity(testPolicy, testToken))
	_, err = coinselect.LargestFirst{}.Select(testCandidates(), ledger.NewValue(17_000_000))
	require.ErrorAs(t, err, &fundsErr)
	assert.Equal(t, uint64(1_000_000), fundsErr.Shortfall.Coin)
}

func TestRandomImprove(t *testing.T) {
	target := ledger.NewValue(3_000_000).WithAsset(testPolicy, testToken, 1)
	first, err := coinselect.NewRandomImprove(42).Select(testCandidates(), target)
	require.NoError(t, err)
	total, err := coinselect.Total(first)
	require.NoError(t, err)
	assert.True(t, total.Covers(target))
	assert.LessOrEqual(t, total.Coin, uint64(3*3_000_000)+5_000_000)
	// Same seed, same selection
	second, err := coinselect.NewRandomImprove(42).Select(testCandidates(), target)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	_, err = coinselect.NewRandomImprove(1).Select(testCandidates(), ledger.NewValue(100_000_000))
	var fundsErr coinselect.InsufficientFundsError
	assert.ErrorAs(t, err, &fundsErr)
}

func TestStrategyFunc(t *testing.T) {
	var strategy coinselect.Strategy = coinselect.StrategyFunc(
		func(available []coinselect.Candidate, _ ledger.Value) ([]coinselect.Candidate, error) {
			return available[:1], nil
		},
	)
	selected, err := strategy.Select(testCandidates(), ledger.NewValue(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, inputBytes(selected))
}
