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
	"fmt"
	"slices"

	"github.com/blinklabs-io/txbuilder/ledger"
)

type scriptInput struct {
	utxo     Utxo
	source   *ScriptSource
	redeemer []byte
	exUnits  ledger.ExUnits
}

// CollectFromScript adds script-locked UTxOs as inputs, all unlocked by the
// given script with the same redeemer. The first UTxO must be locked by the
// source's script. Any later UTxO locked by a different credential is dropped
// with a warning
func (b *Builder) CollectFromScript(
	source *ScriptSource,
	utxos []Utxo,
	redeemer []byte,
) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if err := source.validate(); err != nil {
		return err
	}
	if len(utxos) == 0 {
		return ErrNoUtxos
	}
	if err := ledger.ValidatePlutusData(redeemer); err != nil {
		return InvalidRedeemerError{Err: err}
	}
	if !source.IsPlutus() {
		return fmt.Errorf(
			"script %s is not a Plutus script and cannot take a redeemer",
			source.Hash().String(),
		)
	}
	expected, err := ResolveSpendingCredential(utxos[0])
	if err != nil {
		return err
	}
	if !expected.IsScript() || expected.Hash != source.Hash() {
		return ScriptHashMismatchError{
			Input:    utxos[0].Input,
			Expected: source.Hash(),
			Actual:   expected,
		}
	}
	refs := b.referenceUtxos()
	accepted := make([]Utxo, 0, len(utxos))
	for _, utxo := range utxos {
		cred, err := ResolveSpendingCredential(utxo)
		if err != nil || cred != expected {
			b.logger.Warn(
				"Dropping UTxO locked by a different credential",
				"input",
				utxo.Input.String(),
				"script_hash",
				source.Hash().String(),
			)
			continue
		}
		if utxo.Datum.Kind == DatumKindHash {
			return DatumNotResolvedError{Input: utxo.Input, DatumHash: utxo.Datum.Hash}
		}
		if refs.contains(utxo.Input) {
			return ReferenceInputSpentError{Input: utxo.Input}
		}
		accepted = append(accepted, utxo)
	}
	if refUtxo, ok := source.ReferenceUtxo(); ok {
		if b.pendingInputs.contains(refUtxo.Input) ||
			slices.ContainsFunc(accepted, func(u Utxo) bool { return u.Input == refUtxo.Input }) {
			return ReferenceInputSpentError{Input: refUtxo.Input}
		}
	}
	for _, utxo := range accepted {
		b.pendingInputs.add(utxo)
		b.scriptInputs[utxo.Input] = &scriptInput{
			utxo:     utxo,
			source:   source,
			redeemer: slices.Clone(redeemer),
		}
	}
	return nil
}

// AddReferenceInput adds a UTxO as a reference input. Reference inputs are
// visible to scripts and can supply reference scripts, but are not spent
func (b *Builder) AddReferenceInput(utxo Utxo) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if b.pendingInputs.contains(utxo.Input) {
		return ReferenceInputSpentError{Input: utxo.Input}
	}
	b.explicitRefs.add(utxo)
	return nil
}

// referenceUtxos returns the explicit reference inputs plus the UTxOs carrying
// reference scripts for the current script inputs and minting policies. A
// policy whose deltas cancel out no longer contributes its reference
func (b *Builder) referenceUtxos() *utxoSet {
	ret := &utxoSet{}
	for _, utxo := range b.explicitRefs.list() {
		ret.add(utxo)
	}
	for _, entry := range b.scriptInputs {
		if refUtxo, ok := entry.source.ReferenceUtxo(); ok {
			ret.add(refUtxo)
		}
	}
	for _, entry := range b.mints {
		if refUtxo, ok := entry.source.ReferenceUtxo(); ok {
			ret.add(refUtxo)
		}
	}
	return ret
}

// IsScriptInput reports whether the input was registered through CollectFromScript
func (b *Builder) IsScriptInput(input ledger.TransactionInput) bool {
	_, ok := b.scriptInputs[input]
	return ok
}

// ScriptSourceFor returns the script source registered for a script input
func (b *Builder) ScriptSourceFor(input ledger.TransactionInput) (*ScriptSource, bool) {
	si, ok := b.scriptInputs[input]
	if !ok {
		return nil, false
	}
	return si.source, true
}

// spendRedeemers assigns each script input its position in the sorted input list
func (b *Builder) spendRedeemers(sortedInputs []ledger.TransactionInput) ledger.Redeemers {
	ret := ledger.Redeemers{}
	for idx, input := range sortedInputs {
		si, ok := b.scriptInputs[input]
		if !ok {
			continue
		}
		ret = append(ret, ledger.Redeemer{
			Tag:     ledger.RedeemerTagSpend,
			Index:   uint32(idx),
			Data:    slices.Clone(si.redeemer),
			ExUnits: si.exUnits,
		})
	}
	return ret
}
