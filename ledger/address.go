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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/blinklabs-io/txbuilder/cbor"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	AddressHeaderTypeMask    = 0xF0
	AddressHeaderNetworkMask = 0x0F
	AddressHashSize          = 28

	AddressNetworkTestnet = 0
	AddressNetworkMainnet = 1

	AddressTypeKeyKey        = 0b0000
	AddressTypeScriptKey     = 0b0001
	AddressTypeKeyScript     = 0b0010
	AddressTypeScriptScript  = 0b0011
	AddressTypeKeyPointer    = 0b0100
	AddressTypeScriptPointer = 0b0101
	AddressTypeKeyNone       = 0b0110
	AddressTypeScriptNone    = 0b0111
	AddressTypeByron         = 0b1000
	AddressTypeNoneKey       = 0b1110
	AddressTypeNoneScript    = 0b1111
)

var (
	ErrByronAddress        = errors.New("byron addresses are not supported")
	ErrNoPaymentCredential = errors.New("address has no payment credential")
)

type CredentialType uint8

const (
	CredentialTypeKeyHash    CredentialType = 0
	CredentialTypeScriptHash CredentialType = 1
)

func (c CredentialType) String() string {
	switch c {
	case CredentialTypeKeyHash:
		return "key"
	case CredentialTypeScriptHash:
		return "script"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Credential identifies what must authorize spending from an address: either
// a verification key hash or a script hash
type Credential struct {
	Type CredentialType
	Hash Blake2b224
}

func (c Credential) IsScript() bool {
	return c.Type == CredentialTypeScriptHash
}

func (c Credential) String() string {
	return c.Type.String() + ":" + c.Hash.String()
}

type Address struct {
	addressType uint8
	networkId   uint8
	payment     *Credential
	staking     *Credential
	// Raw pointer or Byron payload bytes, kept for re-encoding
	extraData []byte
	raw       []byte
}

type byronAddress struct {
	cbor.StructAsArray
	Payload  cbor.WrappedCbor
	Checksum uint32
}

// NewAddress returns an Address based on the provided bech32/base58 address string.
// Mixed case input is assumed to be a base58 encoded Byron address, anything else
// is treated as bech32
func NewAddress(addr string) (Address, error) {
	var decoded []byte
	if strings.ToLower(addr) != addr {
		decoded = base58.Decode(addr)
		if len(decoded) == 0 {
			return Address{}, errors.New("invalid base58 address")
		}
	} else {
		_, data, err := bech32.DecodeNoLimit(addr)
		if err != nil {
			return Address{}, err
		}
		decoded, err = bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return Address{}, err
		}
	}
	return NewAddressFromBytes(decoded)
}

// NewAddressFromBytes returns an Address based on the raw bytes provided
func NewAddressFromBytes(addrBytes []byte) (Address, error) {
	var ret Address
	if err := ret.populateFromBytes(addrBytes); err != nil {
		return Address{}, err
	}
	return ret, nil
}

// NewAddressFromParts returns an Address based on the individual parts of the address that are provided
func NewAddressFromParts(
	addrType uint8,
	networkId uint8,
	paymentAddr []byte,
	stakingAddr []byte,
) (Address, error) {
	if networkId != AddressNetworkTestnet &&
		networkId != AddressNetworkMainnet {
		return Address{}, errors.New("invalid network ID")
	}
	if addrType == AddressTypeByron {
		return Address{}, ErrByronAddress
	}
	buf := bytes.NewBuffer(nil)
	header := (addrType << 4) | (networkId & AddressHeaderNetworkMask)
	buf.WriteByte(header)
	buf.Write(paymentAddr)
	buf.Write(stakingAddr)
	return NewAddressFromBytes(buf.Bytes())
}

func (a *Address) populateFromBytes(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty address")
	}
	a.raw = make([]byte, len(data))
	copy(a.raw, data)
	// Byron addresses are a CBOR array rather than a header byte, and the array
	// marker happens to land in the Byron type nibble
	header := data[0]
	a.addressType = (header & AddressHeaderTypeMask) >> 4
	a.networkId = header & AddressHeaderNetworkMask
	if a.addressType == AddressTypeByron {
		var rawAddr byronAddress
		if _, err := cbor.Decode(data, &rawAddr); err != nil {
			return fmt.Errorf("invalid Byron address data: %w", err)
		}
		if crc32.ChecksumIEEE(rawAddr.Payload) != rawAddr.Checksum {
			return errors.New(
				"invalid Byron address data: checksum does not match",
			)
		}
		a.networkId = AddressNetworkMainnet
		a.extraData = rawAddr.Payload.Bytes()
		return nil
	}
	payload := data[1:]
	switch a.addressType {
	case AddressTypeKeyKey, AddressTypeKeyScript, AddressTypeKeyPointer, AddressTypeKeyNone:
		if len(payload) < AddressHashSize {
			return errors.New("invalid payment payload: key hash too small")
		}
		a.payment = &Credential{
			Type: CredentialTypeKeyHash,
			Hash: NewBlake2b224(payload[:AddressHashSize]),
		}
		payload = payload[AddressHashSize:]
	case AddressTypeScriptKey, AddressTypeScriptScript, AddressTypeScriptPointer, AddressTypeScriptNone:
		if len(payload) < AddressHashSize {
			return errors.New("invalid payment payload: script hash too small")
		}
		a.payment = &Credential{
			Type: CredentialTypeScriptHash,
			Hash: NewBlake2b224(payload[:AddressHashSize]),
		}
		payload = payload[AddressHashSize:]
	case AddressTypeNoneKey, AddressTypeNoneScript:
	default:
		return fmt.Errorf("unknown address type: %d", a.addressType)
	}
	switch a.addressType {
	case AddressTypeKeyKey, AddressTypeScriptKey, AddressTypeNoneKey:
		if len(payload) < AddressHashSize {
			return errors.New("invalid staking payload: key hash too small")
		}
		a.staking = &Credential{
			Type: CredentialTypeKeyHash,
			Hash: NewBlake2b224(payload[:AddressHashSize]),
		}
		payload = payload[AddressHashSize:]
	case AddressTypeKeyScript, AddressTypeScriptScript, AddressTypeNoneScript:
		if len(payload) < AddressHashSize {
			return errors.New("invalid staking payload: script hash too small")
		}
		a.staking = &Credential{
			Type: CredentialTypeScriptHash,
			Hash: NewBlake2b224(payload[:AddressHashSize]),
		}
		payload = payload[AddressHashSize:]
	}
	// Pointer payloads and any trailing data are kept as-is
	if len(payload) > 0 {
		a.extraData = payload
	}
	return nil
}

func (a *Address) UnmarshalCBOR(data []byte) error {
	tmpData := []byte{}
	if _, err := cbor.Decode(data, &tmpData); err != nil {
		return err
	}
	return a.populateFromBytes(tmpData)
}

func (a Address) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(a.Bytes())
}

// Bytes returns the underlying bytes for the address
func (a Address) Bytes() []byte {
	ret := make([]byte, len(a.raw))
	copy(ret, a.raw)
	return ret
}

func (a Address) Type() uint8 {
	return a.addressType
}

func (a Address) NetworkId() uint8 {
	return a.networkId
}

func (a Address) IsByron() bool {
	return a.addressType == AddressTypeByron
}

// PaymentCredential returns the credential that authorizes spending from the address
func (a Address) PaymentCredential() (Credential, error) {
	if a.addressType == AddressTypeByron {
		return Credential{}, ErrByronAddress
	}
	if a.payment == nil {
		return Credential{}, ErrNoPaymentCredential
	}
	return *a.payment, nil
}

// StakeCredential returns the staking credential, or nil for enterprise, pointer and Byron addresses
func (a Address) StakeCredential() *Credential {
	if a.staking == nil {
		return nil
	}
	tmp := *a.staking
	return &tmp
}

func (a Address) Equal(other Address) bool {
	return bytes.Equal(a.raw, other.raw)
}

func (a Address) generateHRP() string {
	var ret string
	if a.addressType == AddressTypeNoneKey ||
		a.addressType == AddressTypeNoneScript {
		ret = "stake"
	} else {
		ret = "addr"
	}
	// Add test_ suffix if not mainnet
	if a.networkId != AddressNetworkMainnet {
		ret += "_test"
	}
	return ret
}

// String returns the bech32 form of the address, or base58 for Byron addresses
func (a Address) String() string {
	if len(a.raw) == 0 {
		return ""
	}
	if a.addressType == AddressTypeByron {
		return base58.Encode(a.raw)
	}
	convData, err := bech32.ConvertBits(a.raw, 8, 5, true)
	if err != nil {
		panic(
			fmt.Sprintf("unexpected error converting data to base32: %s", err),
		)
	}
	encoded, err := bech32.Encode(a.generateHRP(), convData)
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding data as bech32: %s", err))
	}
	return encoded
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var tmp string
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	addr, err := NewAddress(tmp)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
