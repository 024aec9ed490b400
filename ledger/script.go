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

package ledger

import (
	"fmt"
	"slices"

	"github.com/blinklabs-io/txbuilder/cbor"
)

type ScriptType uint8

const (
	ScriptTypeNative   ScriptType = 0
	ScriptTypePlutusV1 ScriptType = 1
	ScriptTypePlutusV2 ScriptType = 2
	ScriptTypePlutusV3 ScriptType = 3
)

// Language identifies a Plutus language version as used in cost model and
// language view keys
type Language uint8

const (
	LanguagePlutusV1 Language = 0
	LanguagePlutusV2 Language = 1
	LanguagePlutusV3 Language = 2
)

func (l Language) String() string {
	switch l {
	case LanguagePlutusV1:
		return "PlutusV1"
	case LanguagePlutusV2:
		return "PlutusV2"
	case LanguagePlutusV3:
		return "PlutusV3"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(l))
	}
}

func ParseLanguage(name string) (Language, error) {
	switch name {
	case "PlutusV1", "PlutusScriptV1", "plutus:v1":
		return LanguagePlutusV1, nil
	case "PlutusV2", "PlutusScriptV2", "plutus:v2":
		return LanguagePlutusV2, nil
	case "PlutusV3", "PlutusScriptV3", "plutus:v3":
		return LanguagePlutusV3, nil
	default:
		return 0, fmt.Errorf("unknown Plutus language: %s", name)
	}
}

func (l Language) ScriptType() ScriptType {
	return ScriptType(l + 1)
}

// Language returns the Plutus language for the script type, or false for native scripts
func (t ScriptType) Language() (Language, bool) {
	switch t {
	case ScriptTypePlutusV1, ScriptTypePlutusV2, ScriptTypePlutusV3:
		return Language(t - 1), true
	default:
		return 0, false
	}
}

// Script is a native or Plutus script. For Plutus scripts Bytes is the
// serialized script exactly as it appears in the witness set, and for native
// scripts it is the CBOR encoding of the script
type Script struct {
	Type  ScriptType
	Bytes []byte
}

func NewPlutusScript(lang Language, script []byte) Script {
	return Script{
		Type:  lang.ScriptType(),
		Bytes: slices.Clone(script),
	}
}

func NewNativeScript(scriptCbor []byte) Script {
	return Script{
		Type:  ScriptTypeNative,
		Bytes: slices.Clone(scriptCbor),
	}
}

// Hash returns the script hash, which is the Blake2b-224 of the script prefixed with its type tag
func (s Script) Hash() ScriptHash {
	tmp := make([]byte, 0, len(s.Bytes)+1)
	tmp = append(tmp, byte(s.Type))
	tmp = append(tmp, s.Bytes...)
	return Blake2b224Hash(tmp)
}

func (s Script) Size() int {
	return len(s.Bytes)
}

func (s Script) IsPlutus() bool {
	_, ok := s.Type.Language()
	return ok
}

// ScriptRef is a script attached to a transaction output
type ScriptRef struct {
	Script
}

func NewScriptRef(script Script) *ScriptRef {
	return &ScriptRef{Script: script}
}

func (s ScriptRef) MarshalCBOR() ([]byte, error) {
	var content any
	if s.Type == ScriptTypeNative {
		content = cbor.RawMessage(s.Bytes)
	} else {
		content = s.Bytes
	}
	inner, err := cbor.Encode([]any{uint(s.Type), content})
	if err != nil {
		return nil, err
	}
	return cbor.Encode(cbor.WrappedCbor(inner))
}

func (s *ScriptRef) UnmarshalCBOR(data []byte) error {
	var wrapped cbor.WrappedCbor
	if _, err := cbor.Decode(data, &wrapped); err != nil {
		return err
	}
	var tmp struct {
		cbor.StructAsArray
		Type   uint
		Script cbor.RawMessage
	}
	if _, err := cbor.Decode(wrapped.Bytes(), &tmp); err != nil {
		return err
	}
	switch ScriptType(tmp.Type) {
	case ScriptTypeNative:
		s.Script = NewNativeScript(tmp.Script)
	case ScriptTypePlutusV1, ScriptTypePlutusV2, ScriptTypePlutusV3:
		var raw []byte
		if _, err := cbor.Decode(tmp.Script, &raw); err != nil {
			return err
		}
		s.Script = Script{Type: ScriptType(tmp.Type), Bytes: raw}
	default:
		return fmt.Errorf("unknown script type: %d", tmp.Type)
	}
	return nil
}
