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

package cbor_test

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/blinklabs-io/txbuilder/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testArrayStruct struct {
	cbor.StructAsArray
	Num  uint64
	Name string
}

type testGenericStruct struct {
	cbor.DecodeStoreCbor
	Num  uint64 `cbor:"0,keyasint"`
	Name string `cbor:"1,keyasint,omitempty"`
}

func TestEncodeDeterministicMapOrder(t *testing.T) {
	data := map[uint]string{
		16: "a",
		2:  "b",
		0:  "c",
	}
	first, err := cbor.Encode(data)
	require.NoError(t, err)
	for range 10 {
		again, err := cbor.Encode(data)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "a3006163026162106161", hex.EncodeToString(first))
}

func TestStructAsArrayRoundTrip(t *testing.T) {
	src := testArrayStruct{Num: 7, Name: "abc"}
	data, err := cbor.Encode(&src)
	require.NoError(t, err)
	assert.Equal(t, "820763616263", hex.EncodeToString(data))
	var dest testArrayStruct
	_, err = cbor.Decode(data, &dest)
	require.NoError(t, err)
	assert.Equal(t, src.Num, dest.Num)
	assert.Equal(t, src.Name, dest.Name)
}

func TestDecodeGenericStoresCbor(t *testing.T) {
	src := testGenericStruct{Num: 3, Name: "x"}
	data, err := cbor.EncodeGeneric(&src)
	require.NoError(t, err)
	var dest testGenericStruct
	require.NoError(t, cbor.DecodeGeneric(data, &dest))
	assert.Equal(t, uint64(3), dest.Num)
	assert.Equal(t, "x", dest.Name)
	assert.Equal(t, data, dest.Cbor())
}

func TestListHelpers(t *testing.T) {
	testDefs := []struct {
		name        string
		cborHex     string
		expectedLen int
		expectedId  int
	}{
		{name: "short list", cborHex: "820301", expectedLen: 2, expectedId: 3},
		{name: "large id", cborHex: "82186401", expectedLen: 2, expectedId: 100},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			data, err := hex.DecodeString(testDef.cborHex)
			require.NoError(t, err)
			listLen, err := cbor.ListLength(data)
			require.NoError(t, err)
			assert.Equal(t, testDef.expectedLen, listLen)
			id, err := cbor.DecodeIdFromList(data)
			require.NoError(t, err)
			assert.Equal(t, testDef.expectedId, id)
		})
	}
	_, err := cbor.DecodeIdFromList([]byte{0x80})
	assert.Error(t, err)
}

func TestIndefLengthList(t *testing.T) {
	data, err := cbor.Encode(cbor.IndefLengthList{uint64(1), uint64(2)})
	require.NoError(t, err)
	assert.Equal(t, "9f0102ff", hex.EncodeToString(data))
}

func TestByteString(t *testing.T) {
	bs := cbor.NewByteString([]byte("blinklabs"))
	assert.Equal(t, "626c696e6b6c616273", bs.String())
	assert.Equal(t, 9, bs.Len())
	data, err := cbor.Encode(bs)
	require.NoError(t, err)
	assert.Equal(t, "49626c696e6b6c616273", hex.EncodeToString(data))
	var decoded cbor.ByteString
	_, err = cbor.Decode(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, bs, decoded)
	jsonData, err := json.Marshal(bs)
	require.NoError(t, err)
	assert.Equal(t, `"626c696e6b6c616273"`, string(jsonData))
	var fromJson cbor.ByteString
	require.NoError(t, json.Unmarshal(jsonData, &fromJson))
	assert.Equal(t, bs, fromJson)
	// Usable as a map key
	m := map[cbor.ByteString]int{bs: 1}
	assert.Equal(t, 1, m[cbor.NewByteString([]byte("blinklabs"))])
}

func TestSetType(t *testing.T) {
	tagged, err := hex.DecodeString("d90102820102")
	require.NoError(t, err)
	var s cbor.SetType[uint64]
	_, err = cbor.Decode(tagged, &s)
	require.NoError(t, err)
	assert.True(t, s.Tagged)
	assert.Equal(t, []uint64{1, 2}, s.Items)
	out, err := cbor.Encode(s)
	require.NoError(t, err)
	assert.Equal(t, tagged, out)

	plain, err := cbor.Encode(cbor.NewSetType([]uint64{1, 2}, false))
	require.NoError(t, err)
	assert.Equal(t, "820102", hex.EncodeToString(plain))
}

func TestWrappedCbor(t *testing.T) {
	data, err := cbor.Encode(cbor.WrappedCbor([]byte{0x01}))
	require.NoError(t, err)
	assert.Equal(t, "d8184101", hex.EncodeToString(data))
}
