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

// Package cbor wraps github.com/fxamacker/cbor/v2 with the encoding
// conventions used for Cardano transactions.
//
// Encoding always uses core deterministic map key ordering, so encoding the
// same value twice yields identical bytes. Types that need their on-wire form
// preserved embed DecodeStoreCbor, and types that are encoded as CBOR arrays
// embed StructAsArray.
//
// EncodeGeneric and DecodeGeneric bypass a type's own MarshalCBOR and
// UnmarshalCBOR methods. They are intended to be called from inside those
// methods after any custom handling has been applied:
//
//	func (o *Output) UnmarshalCBOR(data []byte) error {
//	    type tOutput Output
//	    var tmp tOutput
//	    if err := cbor.DecodeGeneric(data, &tmp); err != nil {
//	        return err
//	    }
//	    *o = Output(tmp)
//	    return nil
//	}
package cbor
