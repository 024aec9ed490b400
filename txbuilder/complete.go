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

package txbuilder

import (
	"context"
	"slices"

	"github.com/blinklabs-io/txbuilder/evaluator"
	"github.com/blinklabs-io/txbuilder/ledger"
)

type stagedExUnits struct {
	input   *scriptInput
	mint    *mintEntry
	data    []byte
	exUnits ledger.ExUnits
}

// Complete applies evaluated redeemers to the last draft and rebalances with
// the same UTxOs and change address. The evaluated redeemers are matched to
// script inputs and policies by their tag and index in that draft, and every
// script input and Plutus policy must receive one. Nothing is applied unless
// every redeemer matches. After a successful match the builder
// moves to the finalizing phase and no longer accepts changes, even if the
// rebalance fails
func (b *Builder) Complete(evaluated []ledger.Redeemer) (*Draft, error) {
	if b.phase == PhaseFinalizing {
		return nil, ErrAlreadyFinalized
	}
	if b.previousDraft == nil || b.changeAddress == nil {
		return nil, ErrNoDraft
	}
	inputs := b.previousDraft.Inputs()
	policies := b.mintPolicies()
	staged := make([]stagedExUnits, 0, len(evaluated))
	for _, redeemer := range evaluated {
		var tmp stagedExUnits
		switch redeemer.Tag {
		case ledger.RedeemerTagSpend:
			if int(redeemer.Index) >= len(inputs) {
				return nil, UnknownRedeemerIndexError{Tag: redeemer.Tag, Index: redeemer.Index}
			}
			input := inputs[redeemer.Index]
			si, ok := b.scriptInputs[input]
			if !ok {
				return nil, MissingScriptForInputError{Input: input}
			}
			tmp.input = si
		case ledger.RedeemerTagMint:
			if int(redeemer.Index) >= len(policies) {
				return nil, UnknownRedeemerIndexError{Tag: redeemer.Tag, Index: redeemer.Index}
			}
			entry := b.mints[policies[redeemer.Index]]
			if !entry.source.IsPlutus() {
				return nil, UnknownRedeemerIndexError{Tag: redeemer.Tag, Index: redeemer.Index}
			}
			tmp.mint = entry
		default:
			return nil, UnknownRedeemerIndexError{Tag: redeemer.Tag, Index: redeemer.Index}
		}
		if len(redeemer.Data) > 0 {
			if err := ledger.ValidatePlutusData(redeemer.Data); err != nil {
				return nil, InvalidRedeemerError{Err: err}
			}
			tmp.data = slices.Clone(redeemer.Data)
		}
		tmp.exUnits = redeemer.ExUnits
		staged = append(staged, tmp)
	}
	covered := map[any]bool{}
	for _, s := range staged {
		if s.input != nil {
			covered[s.input] = true
		} else {
			covered[s.mint] = true
		}
	}
	for idx, input := range inputs {
		if si, ok := b.scriptInputs[input]; ok && !covered[si] {
			return nil, UnevaluatedRedeemerError{Tag: ledger.RedeemerTagSpend, Index: uint32(idx)}
		}
	}
	for idx, policy := range policies {
		entry := b.mints[policy]
		if entry.source.IsPlutus() && !covered[entry] {
			return nil, UnevaluatedRedeemerError{Tag: ledger.RedeemerTagMint, Index: uint32(idx)}
		}
	}
	for _, s := range staged {
		if s.input != nil {
			s.input.exUnits = s.exUnits
			if s.data != nil {
				s.input.redeemer = s.data
			}
		} else {
			s.mint.exUnits = s.exUnits
			if s.data != nil {
				s.mint.redeemer = s.data
			}
		}
	}
	b.phase = PhaseFinalizing
	b.logger.Debug(
		"Applied evaluated redeemers",
		"count",
		len(staged),
	)
	return b.BalanceAndAssemble(slices.Clone(b.additionalUtxos), *b.changeAddress)
}

// CompleteWith evaluates the last draft with ev and completes the builder with
// the result
func (b *Builder) CompleteWith(
	ctx context.Context,
	ev evaluator.Evaluator,
	slotConfig evaluator.SlotConfig,
) (*Draft, error) {
	if b.phase == PhaseFinalizing {
		return nil, ErrAlreadyFinalized
	}
	if b.previousDraft == nil {
		return nil, ErrNoDraft
	}
	req, err := b.previousDraft.EvaluationRequest(slotConfig)
	if err != nil {
		return nil, err
	}
	evaluated, err := ev.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	return b.Complete(evaluated)
}
