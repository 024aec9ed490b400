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

package txbuilder_test

import (
	"bytes"
	"context"
	"math"
	"math/big"
	"testing"

	"github.com/blinklabs-io/txbuilder/evaluator"
	test_ledger "github.com/blinklabs-io/txbuilder/internal/test/ledger"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/txbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintDeltasAccumulate(t *testing.T) {
	b := newTestBuilder(t)
	source := txbuilder.NewScriptSource(test_ledger.PlutusScript(0x01))
	policy := source.Hash()
	tokenY := ledger.NewAssetName([]byte("Y"))
	require.NoError(t, b.MintAssets(source, deltas(testTokenX, 5), ledger.UnitDatum))
	require.NoError(t, b.MintAssets(
		source,
		map[ledger.AssetName]*big.Int{testTokenX: big.NewInt(2), tokenY: big.NewInt(-1)},
		ledger.UnitDatum,
	))
	mintDeltas, ok := b.MintDeltas(policy)
	require.True(t, ok)
	assert.Equal(t, map[ledger.AssetName]int64{testTokenX: 7, tokenY: -1}, mintDeltas)
	require.NoError(t, b.MintAssets(source, deltas(tokenY, 1), ledger.UnitDatum))
	mintDeltas, ok = b.MintDeltas(policy)
	require.True(t, ok)
	assert.Equal(t, map[ledger.AssetName]int64{testTokenX: 7}, mintDeltas)
}

func TestMintCancelledPolicy(t *testing.T) {
	b := newTestBuilder(t)
	source := txbuilder.NewScriptSource(test_ledger.PlutusScript(0x01))
	require.NoError(t, b.MintAssets(source, deltas(testTokenX, 5), ledger.UnitDatum))
	require.NoError(t, b.MintAssets(source, deltas(testTokenX, -5), ledger.UnitDatum))
	_, ok := b.MintDeltas(source.Hash())
	assert.False(t, ok)
	require.NoError(t, b.PayToAddress(testPayeeAddr, ledger.NewValue(2_000_000)))
	draft, err := b.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x01, 10_000_000)}, testChangeAddr)
	require.NoError(t, err)
	assert.Empty(t, draft.Transaction().Body.Mint)
	assert.Empty(t, draft.Redeemers())
	_, err = b.Complete([]ledger.Redeemer{{Tag: ledger.RedeemerTagMint, Index: 0}})
	var indexErr txbuilder.UnknownRedeemerIndexError
	require.ErrorAs(t, err, &indexErr)
	assert.Equal(t, ledger.RedeemerTagMint, indexErr.Tag)
}

func TestMintCancelledReferencePolicy(t *testing.T) {
	script := test_ledger.PlutusScript(0x01)
	refUtxo := keyUtxo(0x09, 20_000_000)
	refUtxo.ScriptRef = &script
	source, err := txbuilder.ScriptSourceFromRef(refUtxo)
	require.NoError(t, err)
	b := newTestBuilder(t)
	require.NoError(t, b.MintAssets(source, deltas(testTokenX, 5), ledger.UnitDatum))
	// The reference UTxO is in use while the policy mints
	assert.ErrorAs(t, b.CollectFrom(refUtxo), new(txbuilder.ReferenceInputSpentError))
	require.NoError(t, b.MintAssets(source, deltas(testTokenX, -5), ledger.UnitDatum))
	require.NoError(t, b.PayToAddress(testPayeeAddr, ledger.NewValue(2_000_000)))
	draft, err := b.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x01, 10_000_000)}, testChangeAddr)
	require.NoError(t, err)
	assert.Empty(t, draft.Transaction().Body.ReferenceInputs)
	assert.Empty(t, draft.Redeemers())
	checkBalanced(t, draft)

	plain := newTestBuilder(t)
	require.NoError(t, plain.PayToAddress(testPayeeAddr, ledger.NewValue(2_000_000)))
	expected, err := plain.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x01, 10_000_000)}, testChangeAddr)
	require.NoError(t, err)
	assert.Equal(t, expected.Fee(), draft.Fee())
	assert.Equal(t, expected.Bytes(), draft.Bytes())

	// The UTxO can be spent once nothing references it
	require.NoError(t, b.CollectFrom(refUtxo))
	draft, err = b.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x01, 10_000_000)}, testChangeAddr)
	require.NoError(t, err)
	assert.Contains(t, draft.Inputs(), refUtxo.Input)
	assert.Empty(t, draft.Transaction().Body.ReferenceInputs)
	checkBalanced(t, draft)
}

func TestMintQuantityRange(t *testing.T) {
	b := newTestBuilder(t)
	source := txbuilder.NewScriptSource(test_ledger.PlutusScript(0x01))
	tooLarge := new(big.Int).Add(big.NewInt(math.MaxInt64), big.NewInt(1))
	var qtyErr ledger.QuantityExceedsMaximumError
	err := b.MintAssets(source, map[ledger.AssetName]*big.Int{testTokenX: tooLarge}, ledger.UnitDatum)
	require.ErrorAs(t, err, &qtyErr)
	require.NoError(t, b.MintAssets(source, deltas(testTokenX, math.MaxInt64), ledger.UnitDatum))
	err = b.MintAssets(source, deltas(testTokenX, 1), ledger.UnitDatum)
	require.ErrorAs(t, err, &qtyErr)
	// The failed call left the running total alone
	mintDeltas, ok := b.MintDeltas(source.Hash())
	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), mintDeltas[testTokenX])
}

func TestMintInvalidRedeemer(t *testing.T) {
	b := newTestBuilder(t)
	source := txbuilder.NewScriptSource(test_ledger.PlutusScript(0x01))
	err := b.MintAssets(source, deltas(testTokenX, 1), []byte{0xff})
	var redeemerErr txbuilder.InvalidRedeemerError
	require.ErrorAs(t, err, &redeemerErr)
	_, ok := b.MintDeltas(source.Hash())
	assert.False(t, ok)
	assert.ErrorIs(t, b.MintAssets(nil, deltas(testTokenX, 1), nil), txbuilder.ErrNilScriptSource)
}

func TestMintPlutusAndNative(t *testing.T) {
	b := newTestBuilder(t)
	plutus := txbuilder.NewScriptSource(test_ledger.PlutusScript(0x01))
	native := txbuilder.NewScriptSource(test_ledger.NativeScript(0x31))
	tokenY := ledger.NewAssetName([]byte("Y"))
	require.NoError(t, b.MintAssets(plutus, deltas(testTokenX, 10), ledger.UnitDatum))
	require.NoError(t, b.MintAssets(native, deltas(tokenY, 3), nil))
	draft, err := b.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x01, 10_000_000)}, testChangeAddr)
	require.NoError(t, err)
	// Mint redeemers are indexed among all policies, native ones included
	expectedIndex := uint32(0)
	if bytes.Compare(native.Hash().Bytes(), plutus.Hash().Bytes()) < 0 {
		expectedIndex = 1
	}
	redeemers := draft.Redeemers()
	require.Len(t, redeemers, 1)
	assert.Equal(t, ledger.RedeemerTagMint, redeemers[0].Tag)
	assert.Equal(t, expectedIndex, redeemers[0].Index)
	// Minted tokens land in the change output
	outputs := draft.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, uint64(10), outputs[0].Amount.Quantity(plutus.Hash(), testTokenX))
	assert.Equal(t, uint64(3), outputs[0].Amount.Quantity(native.Hash(), tokenY))
	ws := draft.Transaction().WitnessSet
	assert.Len(t, ws.PlutusV2Scripts, 1)
	assert.Len(t, ws.NativeScripts, 1)
	checkCollateral(t, draft)
	checkBalanced(t, draft)

	// A mint redeemer pointing at the native policy has nothing to apply to
	_, err = b.Complete([]ledger.Redeemer{{Tag: ledger.RedeemerTagMint, Index: 1 - expectedIndex}})
	var indexErr txbuilder.UnknownRedeemerIndexError
	require.ErrorAs(t, err, &indexErr)

	final, err := b.CompleteWith(context.Background(), &test_ledger.MockEvaluator{}, evaluator.SlotConfigPreview)
	require.NoError(t, err)
	redeemers = final.Redeemers()
	require.Len(t, redeemers, 1)
	assert.Equal(t, expectedIndex, redeemers[0].Index)
	assert.Equal(t, test_ledger.DefaultExUnits, redeemers[0].ExUnits)
	checkCollateral(t, final)
	checkBalanced(t, final)
}

func TestReferenceScriptSource(t *testing.T) {
	b := newTestBuilder(t)
	script := test_ledger.PlutusScript(0x01)
	refUtxo := keyUtxo(0x09, 20_000_000)
	refUtxo.ScriptRef = &script
	source, err := txbuilder.ScriptSourceFromRef(refUtxo)
	require.NoError(t, err)
	assert.True(t, source.IsReference())
	assert.Equal(t, script.Hash(), source.Hash())
	require.NoError(t, b.CollectFromScript(
		source,
		[]txbuilder.Utxo{test_ledger.ScriptUtxo(script, test_ledger.Input(0x02, 0), ledger.NewValue(5_000_000))},
		ledger.UnitDatum,
	))
	require.NoError(t, b.PayToAddress(testPayeeAddr, ledger.NewValue(2_000_000)))
	// The reference UTxO cannot also be spent
	assert.ErrorAs(t, b.CollectFrom(refUtxo), new(txbuilder.ReferenceInputSpentError))
	draft, err := b.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x01, 10_000_000), refUtxo}, testChangeAddr)
	require.NoError(t, err)
	body := draft.Transaction().Body
	assert.Equal(t, []ledger.TransactionInput{refUtxo.Input}, body.ReferenceInputs)
	assert.NotContains(t, draft.Inputs(), refUtxo.Input)
	assert.Empty(t, draft.Transaction().WitnessSet.PlutusV2Scripts)
	require.Len(t, draft.Redeemers(), 1)
	checkCollateral(t, draft)

	ev := &test_ledger.MockEvaluator{}
	_, err = b.CompleteWith(context.Background(), ev, evaluator.SlotConfigPreview)
	require.NoError(t, err)
	// Spent input, reference input and collateral
	assert.Len(t, ev.Requests()[0].Utxos, 3)
}

func TestCollectFromScriptChecks(t *testing.T) {
	script := test_ledger.PlutusScript(0x01)
	other := test_ledger.PlutusScript(0x02)
	source := txbuilder.NewScriptSource(script)

	t.Run("HashMismatch", func(t *testing.T) {
		b := newTestBuilder(t)
		err := b.CollectFromScript(
			source,
			[]txbuilder.Utxo{test_ledger.ScriptUtxo(other, test_ledger.Input(0x02, 0), ledger.NewValue(5_000_000))},
			ledger.UnitDatum,
		)
		var mismatchErr txbuilder.ScriptHashMismatchError
		require.ErrorAs(t, err, &mismatchErr)
		assert.Equal(t, script.Hash(), mismatchErr.Expected)
		assert.Equal(t, other.Hash(), mismatchErr.Actual.Hash)
	})

	t.Run("DropsOtherCredentials", func(t *testing.T) {
		b := newTestBuilder(t)
		require.NoError(t, b.CollectFromScript(
			source,
			[]txbuilder.Utxo{
				test_ledger.ScriptUtxo(script, test_ledger.Input(0x02, 0), ledger.NewValue(5_000_000)),
				test_ledger.ScriptUtxo(other, test_ledger.Input(0x03, 0), ledger.NewValue(5_000_000)),
				keyUtxo(0x04, 5_000_000),
			},
			ledger.UnitDatum,
		))
		assert.True(t, b.IsScriptInput(test_ledger.Input(0x02, 0)))
		assert.False(t, b.IsScriptInput(test_ledger.Input(0x03, 0)))
		assert.False(t, b.IsScriptInput(test_ledger.Input(0x04, 0)))
		registered, ok := b.ScriptSourceFor(test_ledger.Input(0x02, 0))
		require.True(t, ok)
		assert.Same(t, source, registered)
	})

	t.Run("Empty", func(t *testing.T) {
		b := newTestBuilder(t)
		assert.ErrorIs(t, b.CollectFromScript(source, nil, ledger.UnitDatum), txbuilder.ErrNoUtxos)
	})

	t.Run("NativeSource", func(t *testing.T) {
		b := newTestBuilder(t)
		native := test_ledger.NativeScript(0x31)
		err := b.CollectFromScript(
			txbuilder.NewScriptSource(native),
			[]txbuilder.Utxo{test_ledger.ScriptUtxo(native, test_ledger.Input(0x02, 0), ledger.NewValue(5_000_000))},
			ledger.UnitDatum,
		)
		assert.Error(t, err)
	})

	t.Run("UnresolvedDatum", func(t *testing.T) {
		b := newTestBuilder(t)
		utxo := test_ledger.ScriptUtxo(script, test_ledger.Input(0x02, 0), ledger.NewValue(5_000_000))
		utxo.Datum = txbuilder.DatumFromHash(ledger.HashDatum(ledger.UnitDatum))
		err := b.CollectFromScript(source, []txbuilder.Utxo{utxo}, ledger.UnitDatum)
		var datumErr txbuilder.DatumNotResolvedError
		require.ErrorAs(t, err, &datumErr)
		assert.Equal(t, utxo.Input, datumErr.Input)
	})
}

func TestResolvedDatumWitness(t *testing.T) {
	b := newTestBuilder(t)
	script := test_ledger.PlutusScript(0x01)
	datum := []byte{0x18, 0x2a}
	utxo := test_ledger.ScriptUtxo(script, test_ledger.Input(0x02, 0), ledger.NewValue(5_000_000))
	utxo.Datum = txbuilder.ResolvedDatum(datum)
	require.NoError(t, b.CollectFromScript(txbuilder.NewScriptSource(script), []txbuilder.Utxo{utxo}, ledger.UnitDatum))
	require.NoError(t, b.PayToAddress(testPayeeAddr, ledger.NewValue(2_000_000)))
	draft, err := b.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x01, 10_000_000)}, testChangeAddr)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{datum}, draft.Transaction().WitnessSet.Datums())
	expectedHash, err := ledger.ScriptDataHash(
		test_ledger.ProtocolParameters(),
		draft.Redeemers(),
		[][]byte{datum},
		[]ledger.Language{ledger.LanguagePlutusV2},
	)
	require.NoError(t, err)
	assert.Equal(t, expectedHash, draft.Transaction().Body.ScriptDataHash)
}
