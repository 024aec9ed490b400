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
	"bytes"
	"errors"
	"maps"
	"slices"

	"github.com/blinklabs-io/txbuilder/cbor"
	"github.com/blinklabs-io/txbuilder/coinselect"
	"github.com/blinklabs-io/txbuilder/ledger"
)

const (
	dummyVkeySize      = 32
	dummySignatureSize = 64
)

// balanceState holds the working selection for one BalanceAndAssemble call
type balanceState struct {
	selected  []Utxo
	remaining []Utxo
	fee       uint64
}

func (s *balanceState) take(inputs []ledger.TransactionInput) {
	picked := map[ledger.TransactionInput]bool{}
	for _, input := range inputs {
		picked[input] = true
	}
	// Keep the strategy's order for the newly picked UTxOs
	for _, input := range inputs {
		idx := slices.IndexFunc(s.remaining, func(u Utxo) bool { return u.Input == input })
		if idx >= 0 {
			s.selected = append(s.selected, s.remaining[idx])
		}
	}
	s.remaining = slices.DeleteFunc(s.remaining, func(u Utxo) bool { return picked[u.Input] })
}

func (s *balanceState) candidates() []coinselect.Candidate {
	ret := make([]coinselect.Candidate, 0, len(s.remaining))
	for _, utxo := range s.remaining {
		ret = append(ret, coinselect.Candidate{Input: utxo.Input, Amount: utxo.Amount})
	}
	return ret
}

func (s *balanceState) selectMore(strategy coinselect.Strategy, target ledger.Value) error {
	picked, err := strategy.Select(s.candidates(), target)
	if err != nil {
		return err
	}
	if len(picked) == 0 {
		return coinselect.InsufficientFundsError{Shortfall: target}
	}
	inputs := make([]ledger.TransactionInput, 0, len(picked))
	for _, c := range picked {
		inputs = append(inputs, c.Input)
	}
	s.take(inputs)
	return nil
}

// BalanceAndAssemble selects inputs from the pending inputs and
// additionalUtxos to cover the outputs, burns and fee, adds collateral and a
// change output to changeAddress, and returns the resulting draft. Inputs
// chosen by an earlier call are kept as long as they are still offered, so
// repeating the call without changes yields an identical draft. A failed call
// leaves the builder unchanged
func (b *Builder) BalanceAndAssemble(
	additionalUtxos []Utxo,
	changeAddress ledger.Address,
) (*Draft, error) {
	if len(changeAddress.Bytes()) == 0 {
		return nil, errors.New("a change address is required")
	}
	if err := b.checkNetwork(changeAddress); err != nil {
		return nil, err
	}
	extra, err := b.extraCandidates(additionalUtxos)
	if err != nil {
		return nil, err
	}
	draft, err := b.balance(extra, changeAddress)
	if err != nil {
		return nil, err
	}
	b.previousDraft = draft
	b.additionalUtxos = slices.Clone(additionalUtxos)
	tmpAddr := changeAddress
	b.changeAddress = &tmpAddr
	return draft, nil
}

// extraCandidates filters the caller's UTxOs down to those that can be added
// as plain key inputs
func (b *Builder) extraCandidates(additionalUtxos []Utxo) ([]Utxo, error) {
	ret := make([]Utxo, 0, len(additionalUtxos))
	seen := map[ledger.TransactionInput]bool{}
	refs := b.referenceUtxos()
	for _, utxo := range additionalUtxos {
		if seen[utxo.Input] ||
			b.pendingInputs.contains(utxo.Input) ||
			refs.contains(utxo.Input) {
			continue
		}
		cred, err := ResolveSpendingCredential(utxo)
		if err != nil {
			return nil, err
		}
		if cred.IsScript() {
			return nil, ScriptLockedInputError{Input: utxo.Input, ScriptHash: cred.Hash}
		}
		seen[utxo.Input] = true
		ret = append(ret, utxo)
	}
	return ret, nil
}

func (b *Builder) hasScripts() bool {
	if len(b.scriptInputs) > 0 {
		return true
	}
	for _, entry := range b.mints {
		if entry.source.IsPlutus() {
			return true
		}
	}
	return false
}

// collateralCandidates lists the key-locked UTxOs that may serve as
// collateral: the caller's UTxOs in the order given, then the pending inputs
func (b *Builder) collateralCandidates(extra []Utxo) []Utxo {
	ret := slices.Clone(extra)
	for _, utxo := range b.pendingInputs.list() {
		if _, ok := b.scriptInputs[utxo.Input]; ok {
			continue
		}
		ret = append(ret, utxo)
	}
	return ret
}

func (b *Builder) balance(extra []Utxo, changeAddress ledger.Address) (*Draft, error) {
	state := &balanceState{
		selected: b.pendingInputs.list(),
		fee:      b.defaultFee,
	}
	pinned := map[ledger.TransactionInput]bool{}
	if b.previousDraft != nil {
		state.fee = b.previousDraft.fee
		for _, utxo := range b.previousDraft.inputs {
			pinned[utxo.Input] = true
		}
	}
	for _, utxo := range extra {
		if pinned[utxo.Input] {
			state.selected = append(state.selected, utxo)
		} else {
			state.remaining = append(state.remaining, utxo)
		}
	}
	outputsTotal := ledger.Value{}
	for _, output := range b.outputs {
		var err error
		outputsTotal, err = outputsTotal.Add(output.Amount)
		if err != nil {
			return nil, err
		}
	}
	mint := b.mintAssets()
	minted := mint.Positive()
	burned := mint.Negative()
	needBase, err := outputsTotal.Add(burned)
	if err != nil {
		return nil, err
	}
	collateralCandidates := b.collateralCandidates(extra)
	// The fee is only ever lowered once. Starting from a previous draft counts
	// as already lowered, so an unchanged builder reproduces that draft
	lowered := b.previousDraft != nil
	measured := b.previousDraft != nil
	// measure replaces the starting estimate with the minimum fee of the
	// current selection, before it causes extra inputs to be picked
	measure := func(available ledger.Value) error {
		var provisional *ledger.TransactionOutput
		if rest, err := available.Subtract(needBase); err == nil && !rest.IsZero() {
			tmpOutput := ledger.NewTransactionOutput(changeAddress, rest)
			provisional = &tmpOutput
		}
		assembled, err := b.assemble(state.selected, provisional, state.fee, nil)
		if err != nil {
			return err
		}
		minFee, err := b.minFee(assembled)
		if err != nil {
			return err
		}
		b.logger.Debug(
			"Replacing fee estimate",
			"estimate",
			state.fee,
			"fee",
			minFee,
		)
		state.fee = minFee
		measured = true
		lowered = true
		return nil
	}
	for iteration := 1; iteration <= b.maxFeeIterations; iteration++ {
		inputTotal := ledger.Value{}
		for _, utxo := range state.selected {
			inputTotal, err = inputTotal.Add(utxo.Amount)
			if err != nil {
				return nil, err
			}
		}
		available, err := inputTotal.Add(minted)
		if err != nil {
			return nil, err
		}
		need, err := needBase.Add(ledger.NewValue(state.fee))
		if err != nil {
			return nil, err
		}
		if shortfall := available.Shortfall(need); !shortfall.IsZero() {
			if !measured && available.Covers(needBase) {
				if err := measure(available); err != nil {
					return nil, err
				}
				continue
			}
			if err := state.selectMore(b.strategy, shortfall); err != nil {
				if measured {
					return nil, InsufficientFundsError{Shortfall: shortfall, Err: err}
				}
				// The fee estimate may be all that is missing. Cover the
				// outputs alone, then measure the real fee
				if err := state.selectMore(b.strategy, available.Shortfall(needBase)); err != nil {
					return nil, InsufficientFundsError{Shortfall: shortfall, Err: err}
				}
			}
			continue
		}
		change, err := available.Subtract(need)
		if err != nil {
			return nil, err
		}
		var changeOutput *ledger.TransactionOutput
		if !change.IsZero() {
			tmpOutput := ledger.NewTransactionOutput(changeAddress, change)
			minCoin, err := ledger.MinCoinForOutput(b.pparams, tmpOutput)
			if err != nil {
				return nil, err
			}
			if change.Coin < minCoin {
				if !measured {
					if err := measure(available); err != nil {
						return nil, err
					}
					continue
				}
				missing := ledger.NewValue(minCoin - change.Coin)
				selErr := state.selectMore(b.strategy, missing)
				if selErr == nil {
					continue
				}
				if change.HasAssets() {
					return nil, InsufficientFundsError{Shortfall: missing, Err: selErr}
				}
				b.logger.Warn(
					"Adding change below minimum coin to fee",
					"change",
					change.Coin,
					"minimum",
					minCoin,
				)
				state.fee += change.Coin
				continue
			}
			changeOutput = &tmpOutput
		}
		var collateral *CollateralSelection
		if b.hasScripts() {
			collateral, err = SelectCollateral(
				b.pparams,
				collateralCandidates,
				state.fee,
				changeAddress,
			)
			if err != nil {
				var collateralErr UnexpectedCollateralAmountError
				if !measured && errors.As(err, &collateralErr) {
					if err := measure(available); err != nil {
						return nil, err
					}
					continue
				}
				return nil, err
			}
		}
		assembled, err := b.assemble(state.selected, changeOutput, state.fee, collateral)
		if err != nil {
			return nil, err
		}
		minFee, err := b.minFee(assembled)
		if err != nil {
			return nil, err
		}
		measured = true
		b.logger.Debug(
			"Fee iteration",
			"iteration",
			iteration,
			"fee",
			state.fee,
			"min_fee",
			minFee,
			"inputs",
			len(state.selected),
		)
		switch {
		case minFee == state.fee:
		case minFee < state.fee && lowered:
			// Overpay rather than cycle between two fees
		case minFee < state.fee:
			state.fee = minFee
			lowered = true
			continue
		default:
			state.fee = minFee
			continue
		}
		if err := b.checkLimits(assembled); err != nil {
			return nil, err
		}
		if collateral != nil {
			b.logger.Debug(
				"Selected collateral",
				"input",
				collateral.Utxo.Input.String(),
				"required",
				collateral.Required,
			)
		}
		return assembled.draft(b, state.fee, collateral), nil
	}
	return nil, FeeDidNotConvergeError{
		Iterations: b.maxFeeIterations,
		LastFee:    state.fee,
	}
}

func (b *Builder) minFee(a *assembledTx) (uint64, error) {
	return ledger.MinFee(
		b.pparams,
		uint64(a.estimatedSize),
		a.exUnits,
		a.refScriptSize,
	)
}

type assembledTx struct {
	tx            *ledger.Transaction
	txCbor        []byte
	inputs        []Utxo
	estimatedSize int
	exUnits       ledger.ExUnits
	refScriptSize uint64
}

func (a *assembledTx) draft(b *Builder, fee uint64, collateral *CollateralSelection) *Draft {
	ret := &Draft{
		tx:              a.tx,
		txCbor:          a.txCbor,
		fee:             fee,
		inputs:          a.inputs,
		referenceInputs: b.sortedReferenceInputs(),
		pparams:         b.pparams,
		phase:           b.phase,
	}
	if collateral != nil {
		tmp := *collateral
		ret.collateral = &tmp
	}
	return ret
}

func (b *Builder) sortedReferenceInputs() []Utxo {
	ret := b.referenceUtxos().list()
	slices.SortFunc(ret, func(x, y Utxo) int {
		return ledger.CompareInputs(x.Input, y.Input)
	})
	return ret
}

func (b *Builder) checkLimits(a *assembledTx) error {
	if uint64(a.estimatedSize) > b.pparams.MaxTxSize {
		return TxSizeExceededError{Size: uint64(a.estimatedSize), Max: b.pparams.MaxTxSize}
	}
	if a.exUnits.Exceeds(b.pparams.MaxTxExUnits) {
		return ExUnitsExceededError{Total: a.exUnits, Max: b.pparams.MaxTxExUnits}
	}
	for idx, output := range a.tx.Body.Outputs {
		valueCbor, err := output.Amount.MarshalCBOR()
		if err != nil {
			return err
		}
		if uint64(len(valueCbor)) > b.pparams.MaxValueSize {
			return ValueSizeExceededError{
				OutputIndex: idx,
				Size:        uint64(len(valueCbor)),
				Max:         b.pparams.MaxValueSize,
			}
		}
	}
	return nil
}

// assemble builds the transaction for the given selection and fee, along with
// the figures needed to compute its minimum fee
func (b *Builder) assemble(
	selected []Utxo,
	changeOutput *ledger.TransactionOutput,
	fee uint64,
	collateral *CollateralSelection,
) (*assembledTx, error) {
	inputs := slices.Clone(selected)
	slices.SortFunc(inputs, func(x, y Utxo) int {
		return ledger.CompareInputs(x.Input, y.Input)
	})
	inputIds := make([]ledger.TransactionInput, 0, len(inputs))
	for _, utxo := range inputs {
		inputIds = append(inputIds, utxo.Input)
	}
	body := ledger.TransactionBody{
		Inputs:                cbor.NewSetType(inputIds, false),
		Fee:                   fee,
		Ttl:                   b.ttl,
		ValidityIntervalStart: b.validityStart,
		Mint:                  b.mintAssets(),
		RequiredSigners:       slices.Clone(b.requiredSigners),
		NetworkId:             b.networkId,
		Outputs:               slices.Clone(b.outputs),
	}
	if changeOutput != nil {
		body.Outputs = append(body.Outputs, *changeOutput)
	}
	if collateral != nil {
		body.Collateral = []ledger.TransactionInput{collateral.Utxo.Input}
		body.TotalCollateral = collateral.Required
		body.CollateralReturn = collateral.Return
	}
	refScriptSize := uint64(0)
	for _, utxo := range b.sortedReferenceInputs() {
		body.ReferenceInputs = append(body.ReferenceInputs, utxo.Input)
		if utxo.ScriptRef != nil {
			refScriptSize += uint64(utxo.ScriptRef.Size())
		}
	}
	for _, utxo := range inputs {
		if utxo.ScriptRef != nil {
			refScriptSize += uint64(utxo.ScriptRef.Size())
		}
	}
	witnessSet, languages, err := b.witnessSet(inputs, inputIds)
	if err != nil {
		return nil, err
	}
	exUnits, err := witnessSet.Redeemers.TotalExUnits()
	if err != nil {
		return nil, err
	}
	body.ScriptDataHash, err = ledger.ScriptDataHash(
		b.pparams,
		witnessSet.Redeemers,
		witnessSet.Datums(),
		languages,
	)
	if err != nil {
		return nil, err
	}
	tx := ledger.NewTransaction(body, witnessSet)
	txCbor, err := tx.Cbor()
	if err != nil {
		return nil, err
	}
	// Size the transaction as it will be once signed
	signers := b.signerCount(inputs, collateral)
	sizingTx := ledger.NewTransaction(body, witnessSet)
	for range signers {
		sizingTx.WitnessSet.VkeyWitnesses = append(
			sizingTx.WitnessSet.VkeyWitnesses,
			ledger.VkeyWitness{
				Vkey:      make([]byte, dummyVkeySize),
				Signature: make([]byte, dummySignatureSize),
			},
		)
	}
	sizingCbor, err := sizingTx.Cbor()
	if err != nil {
		return nil, err
	}
	return &assembledTx{
		tx:            tx,
		txCbor:        txCbor,
		inputs:        inputs,
		estimatedSize: len(sizingCbor),
		exUnits:       exUnits,
		refScriptSize: refScriptSize,
	}, nil
}

// signerCount returns the number of distinct key hashes expected to sign
func (b *Builder) signerCount(inputs []Utxo, collateral *CollateralSelection) int {
	keys := map[ledger.AddrKeyHash]bool{}
	addKey := func(utxo Utxo) {
		cred, err := ResolveSpendingCredential(utxo)
		if err == nil && !cred.IsScript() {
			keys[cred.Hash] = true
		}
	}
	for _, utxo := range inputs {
		addKey(utxo)
	}
	if collateral != nil {
		addKey(collateral.Utxo)
	}
	for _, signer := range b.requiredSigners {
		keys[signer] = true
	}
	return len(keys)
}

// witnessSet builds the redeemers, embedded scripts and datums for the
// selection, and returns the Plutus languages in use
func (b *Builder) witnessSet(
	inputs []Utxo,
	sortedInputIds []ledger.TransactionInput,
) (ledger.WitnessSet, []ledger.Language, error) {
	var ret ledger.WitnessSet
	sources := map[ledger.ScriptHash]*ScriptSource{}
	datums := [][]byte{}
	seenDatums := map[ledger.DatumHash]bool{}
	addDatum := func(datum []byte) {
		hash := ledger.HashDatum(datum)
		if seenDatums[hash] {
			return
		}
		seenDatums[hash] = true
		datums = append(datums, datum)
	}
	for _, utxo := range inputs {
		si, ok := b.scriptInputs[utxo.Input]
		if !ok {
			continue
		}
		sources[si.source.Hash()] = si.source
		switch si.utxo.Datum.Kind {
		case DatumKindResolved:
			addDatum(si.utxo.Datum.Data)
		case DatumKindHash:
			return ledger.WitnessSet{}, nil, DatumNotResolvedError{
				Input:     utxo.Input,
				DatumHash: si.utxo.Datum.Hash,
			}
		}
	}
	for _, policy := range b.mintPolicies() {
		entry := b.mints[policy]
		sources[policy] = entry.source
	}
	for _, datum := range b.outputDatums {
		addDatum(datum)
	}
	languages := []ledger.Language{}
	hashes := slices.Collect(maps.Keys(sources))
	slices.SortFunc(hashes, func(x, y ledger.ScriptHash) int {
		return bytes.Compare(x[:], y[:])
	})
	for _, hash := range hashes {
		source := sources[hash]
		if lang, ok := source.Language(); ok && !slices.Contains(languages, lang) {
			languages = append(languages, lang)
		}
		if source.IsReference() {
			continue
		}
		script, _ := source.Script()
		ret.AddScript(script)
	}
	redeemers := b.spendRedeemers(sortedInputIds)
	redeemers = append(redeemers, b.mintRedeemers()...)
	if len(redeemers) > 0 {
		ret.Redeemers = redeemers.Sorted()
	}
	for _, datum := range datums {
		ret.PlutusData = append(ret.PlutusData, cbor.RawMessage(datum))
	}
	return ret, languages, nil
}
