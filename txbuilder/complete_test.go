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
	"context"
	"testing"

	"github.com/blinklabs-io/txbuilder/evaluator"
	test_ledger "github.com/blinklabs-io/txbuilder/internal/test/ledger"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/txbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newScriptSpend returns a builder spending a 5 ADA UTxO locked by a PlutusV2
// script, paying 2 ADA to testPayeeAddr, and balanced with a single 10 ADA key UTxO
func newScriptSpend(t *testing.T) (*txbuilder.Builder, *txbuilder.Draft) {
	t.Helper()
	b := newTestBuilder(t)
	script := test_ledger.PlutusScript(0x01)
	require.NoError(t, b.CollectFromScript(
		txbuilder.NewScriptSource(script),
		[]txbuilder.Utxo{test_ledger.ScriptUtxo(script, test_ledger.Input(0x02, 0), ledger.NewValue(5_000_000))},
		ledger.UnitDatum,
	))
	require.NoError(t, b.PayToAddress(testPayeeAddr, ledger.NewValue(2_000_000)))
	draft, err := b.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x01, 10_000_000)}, testChangeAddr)
	require.NoError(t, err)
	return b, draft
}

func checkCollateral(t *testing.T, draft *txbuilder.Draft) {
	t.Helper()
	collateral, ok := draft.Collateral()
	require.True(t, ok)
	required, err := txbuilder.RequiredCollateral(test_ledger.ProtocolParameters(), draft.Fee())
	require.NoError(t, err)
	assert.Equal(t, required, collateral.Required)
	body := draft.Transaction().Body
	assert.Equal(t, []ledger.TransactionInput{collateral.Utxo.Input}, body.Collateral)
	assert.Equal(t, required, body.TotalCollateral)
	returned := uint64(0)
	if body.CollateralReturn != nil {
		returned = body.CollateralReturn.Amount.Coin
	}
	assert.Equal(t, collateral.Utxo.Amount.Coin, required+returned)
}

func TestScriptSpendEstimating(t *testing.T) {
	_, draft := newScriptSpend(t)
	assert.Equal(t, txbuilder.PhaseEstimating, draft.Phase())
	redeemers := draft.Redeemers()
	require.Len(t, redeemers, 1)
	assert.Equal(t, ledger.RedeemerTagSpend, redeemers[0].Tag)
	assert.Equal(t, uint32(0), redeemers[0].Index)
	assert.Equal(t, ledger.ExUnits{}, redeemers[0].ExUnits)
	assert.Equal(t, ledger.UnitDatum, redeemers[0].Data)
	ws := draft.Transaction().WitnessSet
	assert.Len(t, ws.PlutusV2Scripts, 1)
	assert.NotNil(t, draft.Transaction().Body.ScriptDataHash)
	// The key UTxO is only needed as collateral
	assert.Equal(t, []ledger.TransactionInput{test_ledger.Input(0x02, 0)}, draft.Inputs())
	checkCollateral(t, draft)
	checkBalanced(t, draft)
}

func TestCompleteWithEvaluator(t *testing.T) {
	b, estimate := newScriptSpend(t)
	ev := &test_ledger.MockEvaluator{}
	final, err := b.CompleteWith(context.Background(), ev, evaluator.SlotConfigPreview)
	require.NoError(t, err)
	assert.Equal(t, txbuilder.PhaseFinalizing, b.Phase())
	assert.Equal(t, txbuilder.PhaseFinalizing, final.Phase())
	assert.Same(t, final, b.PreviousDraft())
	redeemers := final.Redeemers()
	require.Len(t, redeemers, 1)
	assert.Equal(t, test_ledger.DefaultExUnits, redeemers[0].ExUnits)
	assert.Greater(t, final.Fee(), estimate.Fee())
	for _, input := range estimate.Inputs() {
		assert.Contains(t, final.Inputs(), input)
	}
	checkCollateral(t, final)
	checkBalanced(t, final)
	requests := ev.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, estimate.Bytes(), requests[0].Transaction)
	// The script input and the collateral
	assert.Len(t, requests[0].Utxos, 2)
	assert.NotEmpty(t, requests[0].CostModels)
	assert.Equal(t, evaluator.SlotConfigPreview, requests[0].SlotConfig)
	// Rebuilding the finalized transaction is stable
	again, err := b.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x01, 10_000_000)}, testChangeAddr)
	require.NoError(t, err)
	assert.Equal(t, final.Bytes(), again.Bytes())
}

func TestFinalizingRejectsChanges(t *testing.T) {
	b, _ := newScriptSpend(t)
	_, err := b.CompleteWith(context.Background(), &test_ledger.MockEvaluator{}, evaluator.SlotConfigPreview)
	require.NoError(t, err)
	assert.ErrorIs(t, b.PayToAddress(testPayeeAddr, ledger.NewValue(2_000_000)), txbuilder.ErrAlreadyFinalized)
	assert.ErrorIs(t, b.CollectFrom(keyUtxo(0x05, 1_000_000)), txbuilder.ErrAlreadyFinalized)
	assert.ErrorIs(t, b.SetValidityInterval(0, 100), txbuilder.ErrAlreadyFinalized)
	_, err = b.Complete(nil)
	assert.ErrorIs(t, err, txbuilder.ErrAlreadyFinalized)
	_, err = b.CompleteWith(context.Background(), &test_ledger.MockEvaluator{}, evaluator.SlotConfigPreview)
	assert.ErrorIs(t, err, txbuilder.ErrAlreadyFinalized)
}

func TestCompleteNoDraft(t *testing.T) {
	b := newTestBuilder(t)
	_, err := b.Complete(nil)
	assert.ErrorIs(t, err, txbuilder.ErrNoDraft)
	_, err = b.CompleteWith(context.Background(), &test_ledger.MockEvaluator{}, evaluator.SlotConfigPreview)
	assert.ErrorIs(t, err, txbuilder.ErrNoDraft)
}

func TestCompleteSpendIndexes(t *testing.T) {
	b := newTestBuilder(t)
	script := test_ledger.PlutusScript(0x01)
	require.NoError(t, b.CollectFrom(keyUtxo(0x01, 5_000_000)))
	require.NoError(t, b.CollectFromScript(
		txbuilder.NewScriptSource(script),
		[]txbuilder.Utxo{
			test_ledger.ScriptUtxo(script, test_ledger.Input(0x03, 0), ledger.NewValue(5_000_000)),
			test_ledger.ScriptUtxo(script, test_ledger.Input(0x02, 0), ledger.NewValue(5_000_000)),
		},
		ledger.UnitDatum,
	))
	require.NoError(t, b.PayToAddress(testPayeeAddr, ledger.NewValue(2_000_000)))
	draft, err := b.BalanceAndAssemble([]txbuilder.Utxo{keyUtxo(0x04, 10_000_000)}, testChangeAddr)
	require.NoError(t, err)
	redeemers := draft.Redeemers()
	require.Len(t, redeemers, 2)
	assert.Equal(t, uint32(1), redeemers[0].Index)
	assert.Equal(t, uint32(2), redeemers[1].Index)
	assert.Equal(t, test_ledger.Input(0x02, 0), draft.Inputs()[1])

	t.Run("KeyInputIndex", func(t *testing.T) {
		_, err := b.Complete([]ledger.Redeemer{
			{Tag: ledger.RedeemerTagSpend, Index: 0, ExUnits: test_ledger.DefaultExUnits},
		})
		var missingErr txbuilder.MissingScriptForInputError
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, test_ledger.Input(0x01, 0), missingErr.Input)
		assert.Equal(t, txbuilder.PhaseEstimating, b.Phase())
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := b.Complete([]ledger.Redeemer{
			{Tag: ledger.RedeemerTagSpend, Index: 1, ExUnits: test_ledger.DefaultExUnits},
			{Tag: ledger.RedeemerTagSpend, Index: 3, ExUnits: test_ledger.DefaultExUnits},
		})
		var indexErr txbuilder.UnknownRedeemerIndexError
		require.ErrorAs(t, err, &indexErr)
		assert.Equal(t, uint32(3), indexErr.Index)
		// Nothing was applied
		assert.Equal(t, ledger.ExUnits{}, b.PreviousDraft().Redeemers()[0].ExUnits)
	})

	t.Run("UnsupportedTag", func(t *testing.T) {
		_, err := b.Complete([]ledger.Redeemer{
			{Tag: ledger.RedeemerTagReward, Index: 0},
		})
		var indexErr txbuilder.UnknownRedeemerIndexError
		require.ErrorAs(t, err, &indexErr)
		assert.Equal(t, ledger.RedeemerTagReward, indexErr.Tag)
	})

	t.Run("InvalidData", func(t *testing.T) {
		_, err := b.Complete([]ledger.Redeemer{
			{Tag: ledger.RedeemerTagSpend, Index: 1, Data: []byte{0xff}},
		})
		var redeemerErr txbuilder.InvalidRedeemerError
		require.ErrorAs(t, err, &redeemerErr)
	})

	t.Run("Partial", func(t *testing.T) {
		// Only one of the two script inputs is evaluated
		_, err := b.Complete([]ledger.Redeemer{
			{Tag: ledger.RedeemerTagSpend, Index: 2, Data: []byte{0x01}, ExUnits: test_ledger.DefaultExUnits},
		})
		var unevaluatedErr txbuilder.UnevaluatedRedeemerError
		require.ErrorAs(t, err, &unevaluatedErr)
		assert.Equal(t, ledger.RedeemerTagSpend, unevaluatedErr.Tag)
		assert.Equal(t, uint32(1), unevaluatedErr.Index)
		assert.Equal(t, txbuilder.PhaseEstimating, b.Phase())
		assert.Same(t, draft, b.PreviousDraft())
		// Nothing was applied
		redeemers := b.PreviousDraft().Redeemers()
		assert.Equal(t, ledger.ExUnits{}, redeemers[1].ExUnits)
		assert.Equal(t, ledger.UnitDatum, redeemers[1].Data)
	})

	t.Run("All", func(t *testing.T) {
		final, err := b.Complete([]ledger.Redeemer{
			{Tag: ledger.RedeemerTagSpend, Index: 2, Data: []byte{0x01}, ExUnits: test_ledger.DefaultExUnits},
			{Tag: ledger.RedeemerTagSpend, Index: 1, ExUnits: test_ledger.DefaultExUnits},
		})
		require.NoError(t, err)
		assert.Equal(t, txbuilder.PhaseFinalizing, b.Phase())
		redeemers := final.Redeemers()
		require.Len(t, redeemers, 2)
		assert.Equal(t, test_ledger.DefaultExUnits, redeemers[0].ExUnits)
		assert.Equal(t, ledger.UnitDatum, redeemers[0].Data)
		assert.Equal(t, test_ledger.DefaultExUnits, redeemers[1].ExUnits)
		assert.Equal(t, []byte{0x01}, redeemers[1].Data)
		checkCollateral(t, final)
		checkBalanced(t, final)
	})
}

func TestCompleteExUnitsExceeded(t *testing.T) {
	b, _ := newScriptSpend(t)
	ev := &test_ledger.MockEvaluator{
		EvaluateFunc: func(req evaluator.Request) ([]ledger.Redeemer, error) {
			return []ledger.Redeemer{
				{
					Tag:     ledger.RedeemerTagSpend,
					Index:   0,
					ExUnits: ledger.ExUnits{Memory: 20_000_000, Steps: 1},
				},
			}, nil
		},
	}
	_, err := b.CompleteWith(context.Background(), ev, evaluator.SlotConfigPreview)
	var exErr txbuilder.ExUnitsExceededError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, uint64(20_000_000), exErr.Total.Memory)
	assert.Equal(t, txbuilder.PhaseFinalizing, b.Phase())
}

func TestCompleteWithCancelledContext(t *testing.T) {
	b, draft := newScriptSpend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.CompleteWith(ctx, &test_ledger.MockEvaluator{}, evaluator.SlotConfigPreview)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, txbuilder.PhaseEstimating, b.Phase())
	assert.Same(t, draft, b.PreviousDraft())
}
