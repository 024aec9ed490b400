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
	"maps"
	"math/big"
	"slices"

	"github.com/blinklabs-io/txbuilder/ledger"
)

type mintEntry struct {
	source   *ScriptSource
	deltas   map[ledger.AssetName]int64
	redeemer []byte
	exUnits  ledger.ExUnits
}

// MintAssets records signed quantity changes for assets under the source's
// policy. Deltas accumulate across calls, and assets whose running total
// returns to zero are removed along with policies left with no assets.
// Native script policies take no redeemer
func (b *Builder) MintAssets(
	source *ScriptSource,
	deltas map[ledger.AssetName]*big.Int,
	redeemer []byte,
) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if err := source.validate(); err != nil {
		return err
	}
	if source.IsPlutus() {
		if err := ledger.ValidatePlutusData(redeemer); err != nil {
			return InvalidRedeemerError{Err: err}
		}
	}
	policy := source.Hash()
	existing := b.mints[policy]
	// Work on a copy so that a failure leaves the ledger untouched
	updated := map[ledger.AssetName]int64{}
	if existing != nil {
		maps.Copy(updated, existing.deltas)
	}
	for _, name := range sortedAssetNames(deltas) {
		id := ledger.AssetId{Policy: policy, Name: name}
		delta, err := ledger.CheckMintRange(id, deltas[name])
		if err != nil {
			return err
		}
		sum, err := ledger.AddMintDelta(id, updated[name], delta)
		if err != nil {
			return err
		}
		if sum == 0 {
			delete(updated, name)
		} else {
			updated[name] = sum
		}
	}
	if len(updated) == 0 {
		if existing != nil {
			b.logger.Debug(
				"Mint entry cancelled out",
				"policy",
				policy.String(),
			)
		}
		delete(b.mints, policy)
		return nil
	}
	entry := &mintEntry{
		source:   source,
		deltas:   updated,
		redeemer: slices.Clone(redeemer),
	}
	if existing != nil && existing.source.IsReference() && !source.IsReference() {
		// Keep the cheaper reference source for the policy
		entry.source = existing.source
	}
	if refUtxo, ok := entry.source.ReferenceUtxo(); ok {
		if b.pendingInputs.contains(refUtxo.Input) {
			return ReferenceInputSpentError{Input: refUtxo.Input}
		}
	}
	b.mints[policy] = entry
	return nil
}

func sortedAssetNames[T any](m map[ledger.AssetName]T) []ledger.AssetName {
	ret := slices.Collect(maps.Keys(m))
	slices.SortFunc(ret, func(a, b ledger.AssetName) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})
	return ret
}

// mintPolicies returns the policies with a mint entry in ledger order. A
// policy's position in this list is its mint redeemer index
func (b *Builder) mintPolicies() []ledger.PolicyId {
	ret := slices.Collect(maps.Keys(b.mints))
	slices.SortFunc(ret, func(x, y ledger.PolicyId) int {
		return bytes.Compare(x[:], y[:])
	})
	return ret
}

// MintDeltas returns the current net mint for a policy
func (b *Builder) MintDeltas(policy ledger.PolicyId) (map[ledger.AssetName]int64, bool) {
	entry, ok := b.mints[policy]
	if !ok {
		return nil, false
	}
	return maps.Clone(entry.deltas), true
}

func (b *Builder) mintAssets() ledger.MintAssets {
	if len(b.mints) == 0 {
		return nil
	}
	ret := ledger.MintAssets{}
	for policy, entry := range b.mints {
		ret[policy] = maps.Clone(entry.deltas)
	}
	return ret
}

// mintRedeemers builds one redeemer per Plutus policy, indexed by the
// policy's position among all minted policies
func (b *Builder) mintRedeemers() ledger.Redeemers {
	ret := ledger.Redeemers{}
	for idx, policy := range b.mintPolicies() {
		entry := b.mints[policy]
		if !entry.source.IsPlutus() {
			continue
		}
		ret = append(ret, ledger.Redeemer{
			Tag:     ledger.RedeemerTagMint,
			Index:   uint32(idx),
			Data:    slices.Clone(entry.redeemer),
			ExUnits: entry.exUnits,
		})
	}
	return ret
}
