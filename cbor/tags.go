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

package cbor

import (
	"reflect"

	_cbor "github.com/fxamacker/cbor/v2"
)

const (
	// Useful tag numbers
	CborTagCbor = 24
	CborTagSet  = 258
)

var customTagSet _cbor.TagSet

func init() {
	customTagSet = _cbor.NewTagSet()
	tagOpts := _cbor.TagOptions{EncTag: _cbor.EncTagRequired, DecTag: _cbor.DecTagRequired}
	// Wrapped CBOR
	if err := customTagSet.Add(
		tagOpts,
		reflect.TypeOf(WrappedCbor{}),
		CborTagCbor,
	); err != nil {
		panic(err)
	}
}

// WrappedCbor corresponds to CBOR tag 24 and is used to encode nested CBOR data
type WrappedCbor []byte

func (w WrappedCbor) Bytes() []byte {
	return w[:]
}

// SetType is a list that may optionally be wrapped in CBOR tag 258. Decoding
// accepts both forms, and encoding writes a plain list unless Tagged is set
type SetType[T any] struct {
	Items  []T
	Tagged bool
}

func NewSetType[T any](items []T, tagged bool) SetType[T] {
	return SetType[T]{Items: items, Tagged: tagged}
}

func (s *SetType[T]) UnmarshalCBOR(data []byte) error {
	if len(data) >= 3 && data[0] == 0xd9 && data[1] == 0x01 && data[2] == 0x02 {
		s.Tagged = true
		data = data[3:]
	}
	var items []T
	if _, err := Decode(data, &items); err != nil {
		return err
	}
	s.Items = items
	return nil
}

func (s SetType[T]) MarshalCBOR() ([]byte, error) {
	items := s.Items
	if items == nil {
		items = []T{}
	}
	if s.Tagged {
		return Encode(&Tag{Number: CborTagSet, Content: items})
	}
	return Encode(&items)
}
