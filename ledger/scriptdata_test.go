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

package ledger_test

import (
	"encoding/hex"
	"testing"

	"github.com/blinklabs-io/txbuilder/internal/test"
	test_ledger "github.com/blinklabs-io/txbuilder/internal/test/ledger"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testViewV1 = "4100529f1a0003236119032c01011903e819023bff"
	testViewV2 = "01881a0003236119032c01011903e819023b0001"
)

func TestLanguageViews(t *testing.T) {
	pp := test_ledger.ProtocolParameters()
	testDefs := []struct {
		name      string
		languages []ledger.Language
		expected  string
	}{
		{
			name:      "PlutusV2",
			languages: []ledger.Language{ledger.LanguagePlutusV2},
			expected:  "a1" + testViewV2,
		},
		{
			name:      "PlutusV1",
			languages: []ledger.Language{ledger.LanguagePlutusV1},
			expected:  "a1" + testViewV1,
		},
		{
			// Shorter keys sort first, so V2 comes before V1
			name: "Both",
			languages: []ledger.Language{
				ledger.LanguagePlutusV1,
				ledger.LanguagePlutusV2,
				ledger.LanguagePlutusV1,
			},
			expected: "a2" + testViewV2 + testViewV1,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			views, err := ledger.LanguageViews(pp, testDef.languages)
			require.NoError(t, err)
			assert.Equal(t, testDef.expected, hex.EncodeToString(views))
		})
	}
}

func TestLanguageViewsMissingCostModel(t *testing.T) {
	pp := test_ledger.ProtocolParameters()
	delete(pp.CostModels, ledger.LanguagePlutusV3)
	_, err := ledger.LanguageViews(pp, []ledger.Language{ledger.LanguagePlutusV3})
	var ppErr ledger.BadProtocolParametersError
	assert.ErrorAs(t, err, &ppErr)
}

func TestScriptDataHash(t *testing.T) {
	pp := test_ledger.ProtocolParameters()
	t.Run("Empty", func(t *testing.T) {
		hash, err := ledger.ScriptDataHash(pp, nil, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, hash)
	})
	t.Run("DatumsOnly", func(t *testing.T) {
		hash, err := ledger.ScriptDataHash(pp, nil, [][]byte{ledger.UnitDatum}, nil)
		require.NoError(t, err)
		require.NotNil(t, hash)
		expected := ledger.Blake2b256Hash(test.DecodeHexString("a0" + "81d87980" + "a0"))
		assert.Equal(t, expected, *hash)
	})
	t.Run("Redeemers", func(t *testing.T) {
		redeemers := ledger.Redeemers{
			{
				Tag:     ledger.RedeemerTagSpend,
				Index:   0,
				Data:    ledger.UnitDatum,
				ExUnits: ledger.ExUnits{Memory: 1, Steps: 2},
			},
		}
		hash, err := ledger.ScriptDataHash(
			pp,
			redeemers,
			nil,
			[]ledger.Language{ledger.LanguagePlutusV2},
		)
		require.NoError(t, err)
		require.NotNil(t, hash)
		expected := ledger.Blake2b256Hash(
			test.DecodeHexString("a1820000" + "82d87980820102" + "a1" + testViewV2),
		)
		assert.Equal(t, expected, *hash)
	})
}
