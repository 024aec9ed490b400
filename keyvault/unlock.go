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

package keyvault

type unlockResult struct {
	key *SigningKey
	err error
}

// Pending is an unlock running in the background
type Pending struct {
	resultChan chan unlockResult
	result     *unlockResult
}

// Unlock starts decrypting the key on a separate goroutine, so that the
// caller is not blocked by the key derivation. The returned Pending is
// checked with Poll
func (v *Vault) Unlock(password []byte) *Pending {
	p := &Pending{
		// Buffered so the worker never blocks if the caller stops polling
		resultChan: make(chan unlockResult, 1),
	}
	tmpPassword := make([]byte, len(password))
	copy(tmpPassword, password)
	go func() {
		defer zero(tmpPassword)
		key, err := v.open(tmpPassword)
		p.resultChan <- unlockResult{key: key, err: err}
	}()
	return p
}

// Poll reports whether the unlock has finished. Once done is true, the key
// or the error is returned on every call. The caller owns the key and must
// call Zero on it when finished
func (p *Pending) Poll() (key *SigningKey, done bool, err error) {
	if p.result == nil {
		select {
		case res := <-p.resultChan:
			p.result = &res
		default:
			return nil, false, nil
		}
	}
	return p.result.key, true, p.result.err
}
