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
	"bytes"
	"errors"
	"reflect"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"
	"github.com/jinzhu/copier"
)

var (
	cachedEncMode     _cbor.EncMode
	cachedEncModeErr  error
	cachedEncModeOnce sync.Once
)

func getEncMode() (_cbor.EncMode, error) {
	cachedEncModeOnce.Do(func() {
		opts := _cbor.EncOptions{
			// Make sure that maps have ordered keys
			Sort: _cbor.SortCoreDeterministic,
			// Big integers that fit in 64 bits are emitted as plain integers
			BigIntConvert: _cbor.BigIntConvertShortest,
		}
		cachedEncMode, cachedEncModeErr = opts.EncModeWithTags(customTagSet)
	})
	return cachedEncMode, cachedEncModeErr
}

// Encode serializes the provided value to CBOR. Map keys are written in
// core deterministic order so repeated encodings are byte-identical
func Encode(data any) ([]byte, error) {
	em, err := getEncMode()
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(nil)
	enc := em.NewEncoder(buf)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	encodeGenericTypeCache      = map[reflect.Type]reflect.Type{}
	encodeGenericTypeCacheMutex sync.RWMutex
)

// EncodeGeneric encodes the specified object to CBOR without using the source object's
// MarshalCBOR() function
func EncodeGeneric(src any) ([]byte, error) {
	valueSrc := reflect.ValueOf(src)
	if valueSrc.Kind() != reflect.Pointer ||
		valueSrc.Elem().Kind() != reflect.Struct {
		return nil, errors.New("source must be a pointer to a struct")
	}
	typeSrc := valueSrc.Elem().Type()
	encodeGenericTypeCacheMutex.RLock()
	tmpTypeSrc, ok := encodeGenericTypeCache[typeSrc]
	encodeGenericTypeCacheMutex.RUnlock()
	if !ok {
		// Create a duplicate(-ish) struct from the source so that we bypass
		// any custom MarshalCBOR() function on it
		tmpTypeSrc = genericStructType(typeSrc)
		encodeGenericTypeCacheMutex.Lock()
		encodeGenericTypeCache[typeSrc] = tmpTypeSrc
		encodeGenericTypeCacheMutex.Unlock()
	}
	tmpSrc := reflect.New(tmpTypeSrc)
	if err := copier.Copy(tmpSrc.Interface(), src); err != nil {
		return nil, err
	}
	return Encode(tmpSrc.Interface())
}

func genericStructType(t reflect.Type) reflect.Type {
	fields := []reflect.StructField{}
	for i := range t.NumField() {
		tmpField := t.Field(i)
		if tmpField.IsExported() && tmpField.Name != "DecodeStoreCbor" {
			fields = append(fields, tmpField)
		}
	}
	return reflect.StructOf(fields)
}

// IndefLengthList is encoded as an indefinite-length CBOR list
type IndefLengthList []any

func (i IndefLengthList) MarshalCBOR() ([]byte, error) {
	ret := []byte{
		// Start indefinite-length list
		0x9f,
	}
	for _, item := range []any(i) {
		data, err := Encode(&item)
		if err != nil {
			return nil, err
		}
		ret = append(ret, data...)
	}
	// End indefinite-length list
	ret = append(ret, 0xff)
	return ret, nil
}
