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

	test_ledger "github.com/blinklabs-io/txbuilder/internal/test/ledger"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortInputs(t *testing.T) {
	inputs := []ledger.TransactionInput{
		test_ledger.Input(0x02, 0),
		test_ledger.Input(0x01, 3),
		test_ledger.Input(0x01, 1),
		test_ledger.Input(0x02, 0),
	}
	assert.Equal(
		t,
		[]ledger.TransactionInput{
			test_ledger.Input(0x01, 1),
			test_ledger.Input(0x01, 3),
			test_ledger.Input(0x02, 0),
		},
		ledger.SortInputs(inputs),
	)
}

func TestParseTransactionInput(t *testing.T) {
	input := test_ledger.Input(0xab, 7)
	parsed, err := ledger.ParseTransactionInput(input.String())
	require.NoError(t, err)
	assert.Equal(t, input, parsed)
	_, err = ledger.ParseTransactionInput("abcd")
	assert.Error(t, err)
}

func TestRedeemersCbor(t *testing.T) {
	redeemers := ledger.Redeemers{
		{Tag: ledger.RedeemerTagMint, Index: 0, Data: ledger.UnitDatum, ExUnits: ledger.ExUnits{Memory: 3, Steps: 4}},
		{Tag: ledger.RedeemerTagSpend, Index: 1, Data: ledger.UnitDatum, ExUnits: ledger.ExUnits{Memory: 1, Steps: 2}},
	}
	redeemersCbor, err := redeemers.MarshalCBOR()
	require.NoError(t, err)
	assert.Equal(
		t,
		"a2"+"820001"+"82d87980820102"+"820100"+"82d87980820304",
		hex.EncodeToString(redeemersCbor),
	)
	var decoded ledger.Redeemers
	require.NoError(t, decoded.UnmarshalCBOR(redeemersCbor))
	assert.Equal(t, redeemers.Sorted(), decoded)
	total, err := decoded.TotalExUnits()
	require.NoError(t, err)
	assert.Equal(t, ledger.ExUnits{Memory: 4, Steps: 6}, total)
	// Legacy list format
	require.NoError(t, decoded.UnmarshalCBOR(
		mustDecodeHex(t, "81"+"840001"+"d87980"+"820102"),
	))
	require.Len(t, decoded, 1)
	assert.Equal(t, ledger.RedeemerTagSpend, decoded[0].Tag)
	assert.Equal(t, uint32(1), decoded[0].Index)
	// Duplicate purposes are rejected
	_, err = append(redeemers, redeemers[0]).MarshalCBOR()
	assert.Error(t, err)
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	ret, err := hex.DecodeString(s)
	require.NoError(t, err)
	return ret
}

func TestTransactionRoundTrip(t *testing.T) {
	script := test_ledger.PlutusScript(0x01)
	body := ledger.TransactionBody{
		Fee: 200_000,
		Outputs: []ledger.TransactionOutput{
			ledger.NewTransactionOutput(test_ledger.KeyAddress(0x11), ledger.NewValue(1_000_000)),
		},
		Ttl: 1000,
	}
	body.Inputs.Items = []ledger.TransactionInput{test_ledger.Input(0x01, 0)}
	var ws ledger.WitnessSet
	ws.AddScript(script)
	ws.Redeemers = ledger.Redeemers{
		{Tag: ledger.RedeemerTagSpend, Data: ledger.UnitDatum, ExUnits: ledger.ExUnits{Memory: 1, Steps: 2}},
	}
	tx := ledger.NewTransaction(body, ws)
	txCbor, err := tx.Cbor()
	require.NoError(t, err)
	decoded, err := ledger.DecodeTransaction(txCbor)
	require.NoError(t, err)
	assert.True(t, decoded.IsValid)
	assert.Equal(t, uint64(200_000), decoded.Body.Fee)
	assert.Equal(t, uint64(1000), decoded.Body.Ttl)
	assert.Equal(t, body.Inputs.Items, decoded.Body.Inputs.Items)
	require.Len(t, decoded.Body.Outputs, 1)
	assert.True(t, decoded.Body.Outputs[0].Address.Equal(test_ledger.KeyAddress(0x11)))
	assert.Equal(t, [][]byte{script.Bytes}, decoded.WitnessSet.PlutusV2Scripts)
	assert.Equal(t, ws.Redeemers, decoded.WitnessSet.Redeemers)
	origHash, err := tx.Hash()
	require.NoError(t, err)
	decodedHash, err := decoded.Hash()
	require.NoError(t, err)
	assert.Equal(t, origHash, decodedHash)
	reencoded, err := decoded.Cbor()
	require.NoError(t, err)
	assert.Equal(t, txCbor, reencoded)
}

func TestScriptHashAndRef(t *testing.T) {
	script := test_ledger.PlutusScript(0x01)
	expected := ledger.Blake2b224Hash(append([]byte{0x02}, script.Bytes...))
	assert.Equal(t, expected, script.Hash())
	ref := ledger.NewScriptRef(script)
	refCbor, err := ref.MarshalCBOR()
	require.NoError(t, err)
	assert.Equal(t, "d818", hex.EncodeToString(refCbor[:2]))
	var decoded ledger.ScriptRef
	require.NoError(t, decoded.UnmarshalCBOR(refCbor))
	assert.Equal(t, script, decoded.Script)
}
