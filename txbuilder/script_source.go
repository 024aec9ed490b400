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

	"github.com/blinklabs-io/txbuilder/ledger"
)

// ScriptSource supplies a script either by embedding its bytes in the
// witness set or by pointing at an on-chain UTxO that carries it as a
// reference script. Sources are shared by pointer between every input and
// mint that uses the same script
type ScriptSource struct {
	hash       ledger.ScriptHash
	scriptType ledger.ScriptType
	size       int
	script     *ledger.Script
	refUtxo    *Utxo
}

// NewScriptSource returns a source that embeds the script in the transaction
func NewScriptSource(script ledger.Script) *ScriptSource {
	tmp := script
	return &ScriptSource{
		hash:       script.Hash(),
		scriptType: script.Type,
		size:       script.Size(),
		script:     &tmp,
	}
}

// ScriptSourceFromRef returns a source that takes the script from the
// reference script attached to the given UTxO
func ScriptSourceFromRef(utxo Utxo) (*ScriptSource, error) {
	if utxo.ScriptRef == nil {
		return nil, fmt.Errorf(
			"UTxO %s does not carry a reference script",
			utxo.Input.String(),
		)
	}
	tmpScript := *utxo.ScriptRef
	tmpUtxo := utxo
	return &ScriptSource{
		hash:       tmpScript.Hash(),
		scriptType: tmpScript.Type,
		size:       tmpScript.Size(),
		script:     &tmpScript,
		refUtxo:    &tmpUtxo,
	}, nil
}

func (s *ScriptSource) Hash() ledger.ScriptHash {
	return s.hash
}

func (s *ScriptSource) Type() ledger.ScriptType {
	return s.scriptType
}

// Language returns the Plutus language of the script, or false for native scripts
func (s *ScriptSource) Language() (ledger.Language, bool) {
	return s.scriptType.Language()
}

func (s *ScriptSource) IsPlutus() bool {
	_, ok := s.Language()
	return ok
}

// IsReference reports whether the script is provided by a reference input
func (s *ScriptSource) IsReference() bool {
	return s.refUtxo != nil
}

// Size returns the script size in bytes
func (s *ScriptSource) Size() int {
	return s.size
}

// ReferenceUtxo returns the UTxO carrying the script for reference sources
func (s *ScriptSource) ReferenceUtxo() (Utxo, bool) {
	if s.refUtxo == nil {
		return Utxo{}, false
	}
	return *s.refUtxo, true
}

// Script returns the cached script, if known
func (s *ScriptSource) Script() (ledger.Script, bool) {
	if s.script == nil {
		return ledger.Script{}, false
	}
	return *s.script, true
}

func (s *ScriptSource) validate() error {
	if s == nil {
		return ErrNilScriptSource
	}
	return nil
}
