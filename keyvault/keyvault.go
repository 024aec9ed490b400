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

// Package keyvault stores an extended Ed25519 signing key encrypted under a
// password. The plaintext key is only handed out inside a callback and is
// zeroed as soon as the callback returns.
package keyvault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	// ExtendedKeySize is the size of kL || kR
	ExtendedKeySize = 64
	// ExtendedKeyWithChainCodeSize adds the 32-byte BIP32 chain code
	ExtendedKeyWithChainCodeSize = 96
	VerificationKeySize          = 32
	VerificationKeyHashSize      = 28

	saltSize  = 32
	kdfKeyLen = chacha20poly1305.KeySize

	DefaultScryptN = 1 << 15
	DefaultScryptR = 8
	DefaultScryptP = 1
)

var (
	ErrWrongPassword  = errors.New("wrong password or corrupted vault")
	ErrEmptyPassword  = errors.New("password must not be empty")
	ErrInvalidKeySize = errors.New("signing key must be 64 or 96 bytes")
)

// ScryptParams are the scrypt cost parameters used to derive the encryption key
type ScryptParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

func (p ScryptParams) validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return fmt.Errorf("scrypt N must be a power of two greater than 1: %d", p.N)
	}
	if p.R <= 0 || p.P <= 0 {
		return fmt.Errorf("scrypt r and p must be positive: r=%d p=%d", p.R, p.P)
	}
	return nil
}

type SealOptionFunc func(*ScryptParams)

// WithScryptParams overrides the default scrypt cost
func WithScryptParams(n int, r int, p int) SealOptionFunc {
	return func(s *ScryptParams) {
		s.N = n
		s.R = r
		s.P = p
	}
}

// Vault holds an encrypted signing key
type Vault struct {
	params     ScryptParams
	salt       []byte
	nonce      []byte
	ciphertext []byte
}

// Seal encrypts signingKey under password. The caller keeps ownership of
// signingKey and should zero it afterwards
func Seal(password []byte, signingKey []byte, opts ...SealOptionFunc) (*Vault, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if len(signingKey) != ExtendedKeySize &&
		len(signingKey) != ExtendedKeyWithChainCodeSize {
		return nil, ErrInvalidKeySize
	}
	v := &Vault{
		params: ScryptParams{
			N: DefaultScryptN,
			R: DefaultScryptR,
			P: DefaultScryptP,
		},
		salt:  make([]byte, saltSize),
		nonce: make([]byte, chacha20poly1305.NonceSizeX),
	}
	for _, opt := range opts {
		opt(&v.params)
	}
	if err := v.params.validate(); err != nil {
		return nil, err
	}
	if _, err := rand.Read(v.salt); err != nil {
		return nil, err
	}
	if _, err := rand.Read(v.nonce); err != nil {
		return nil, err
	}
	aead, err := v.cipher(password)
	if err != nil {
		return nil, err
	}
	v.ciphertext = aead.Seal(nil, v.nonce, signingKey, v.salt)
	return v, nil
}

func (v *Vault) cipher(password []byte) (cipher.AEAD, error) {
	derived, err := scrypt.Key(password, v.salt, v.params.N, v.params.R, v.params.P, kdfKeyLen)
	if err != nil {
		return nil, err
	}
	defer zero(derived)
	return chacha20poly1305.NewX(derived)
}

// open decrypts the key. The caller must zero the returned key
func (v *Vault) open(password []byte) (*SigningKey, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	aead, err := v.cipher(password)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, v.nonce, v.ciphertext, v.salt)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return &SigningKey{key: plain}, nil
}

// WithKey decrypts the signing key, passes it to fn and zeroes it once fn
// returns, including when fn panics. The key must not be retained by fn
func (v *Vault) WithKey(password []byte, fn func(*SigningKey) error) error {
	key, err := v.open(password)
	if err != nil {
		return err
	}
	defer key.Zero()
	return fn(key)
}

// VerificationKeyHash decrypts the key just long enough to derive the hash of
// its verification key, which is the payment credential for the key
func (v *Vault) VerificationKeyHash(password []byte) ([VerificationKeyHashSize]byte, error) {
	var ret [VerificationKeyHashSize]byte
	err := v.WithKey(password, func(key *SigningKey) error {
		var err error
		ret, err = key.VerificationKeyHash()
		return err
	})
	return ret, err
}

type vaultJson struct {
	Params     ScryptParams `json:"scrypt"`
	Salt       string       `json:"salt"`
	Nonce      string       `json:"nonce"`
	Ciphertext string       `json:"ciphertext"`
}

func (v *Vault) MarshalJSON() ([]byte, error) {
	return json.Marshal(vaultJson{
		Params:     v.params,
		Salt:       hex.EncodeToString(v.salt),
		Nonce:      hex.EncodeToString(v.nonce),
		Ciphertext: hex.EncodeToString(v.ciphertext),
	})
}

func (v *Vault) UnmarshalJSON(data []byte) error {
	var tmp vaultJson
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if err := tmp.Params.validate(); err != nil {
		return err
	}
	salt, err := hex.DecodeString(tmp.Salt)
	if err != nil {
		return fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := hex.DecodeString(tmp.Nonce)
	if err != nil {
		return fmt.Errorf("decode nonce: %w", err)
	}
	if len(nonce) != chacha20poly1305.NonceSizeX {
		return fmt.Errorf("invalid nonce length: %d", len(nonce))
	}
	ciphertext, err := hex.DecodeString(tmp.Ciphertext)
	if err != nil {
		return fmt.Errorf("decode ciphertext: %w", err)
	}
	v.params = tmp.Params
	v.salt = salt
	v.nonce = nonce
	v.ciphertext = ciphertext
	return nil
}

// SigningKey is a decrypted extended signing key
type SigningKey struct {
	key []byte
}

// Bytes returns the key material. The slice is zeroed along with the key
func (k *SigningKey) Bytes() []byte {
	return k.key
}

// Zero overwrites the key material
func (k *SigningKey) Zero() {
	zero(k.key)
}

// VerificationKey derives the Ed25519 public key from kL
func (k *SigningKey) VerificationKey() ([]byte, error) {
	if len(k.key) < ExtendedKeySize {
		return nil, ErrInvalidKeySize
	}
	// kL is already clamped, so clamping again leaves it unchanged
	scalar, err := edwards25519.NewScalar().SetBytesWithClamping(k.key[:32])
	if err != nil {
		return nil, err
	}
	point := (&edwards25519.Point{}).ScalarBaseMult(scalar)
	return point.Bytes(), nil
}

func (k *SigningKey) VerificationKeyHash() ([VerificationKeyHashSize]byte, error) {
	var ret [VerificationKeyHashSize]byte
	vkey, err := k.VerificationKey()
	if err != nil {
		return ret, err
	}
	hash, err := blake2b.New(VerificationKeyHashSize, nil)
	if err != nil {
		return ret, err
	}
	hash.Write(vkey)
	copy(ret[:], hash.Sum(nil))
	return ret, nil
}

func zero(b []byte) {
	clear(b)
}
