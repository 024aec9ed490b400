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
	"errors"
	"fmt"

	"github.com/blinklabs-io/txbuilder/ledger"
)

var (
	// ErrNoDraft is returned by Complete when no draft has been built yet
	ErrNoDraft = errors.New("no draft transaction has been built")
	// ErrAlreadyFinalized is returned when mutating a builder after Complete
	ErrAlreadyFinalized = errors.New("builder is already finalizing")
	ErrNoUtxos          = errors.New("no UTxOs provided")
	ErrNilScriptSource  = errors.New("script source is nil")
)

type (
	BadProtocolParametersError  = ledger.BadProtocolParametersError
	QuantityExceedsMaximumError = ledger.QuantityExceedsMaximumError
)

type CouldNotResolveCredentialError struct {
	Input ledger.TransactionInput
	Err   error
}

func (e CouldNotResolveCredentialError) Error() string {
	return fmt.Sprintf(
		"could not resolve spending credential for %s: %s",
		e.Input.String(),
		e.Err,
	)
}

func (e CouldNotResolveCredentialError) Unwrap() error {
	return e.Err
}

type ByronAddressUnsupportedError struct {
	Input ledger.TransactionInput
}

func (e ByronAddressUnsupportedError) Error() string {
	return fmt.Sprintf(
		"input %s is locked by a Byron address, which is not supported",
		e.Input.String(),
	)
}

func (e ByronAddressUnsupportedError) Unwrap() error {
	return ledger.ErrByronAddress
}

// ScriptLockedInputError is returned when a script-locked UTxO is offered as a plain key input
type ScriptLockedInputError struct {
	Input      ledger.TransactionInput
	ScriptHash ledger.ScriptHash
}

func (e ScriptLockedInputError) Error() string {
	return fmt.Sprintf(
		"input %s is locked by script %s and must be collected with a script source",
		e.Input.String(),
		e.ScriptHash.String(),
	)
}

type ScriptHashMismatchError struct {
	Input    ledger.TransactionInput
	Expected ledger.ScriptHash
	Actual   ledger.Credential
}

func (e ScriptHashMismatchError) Error() string {
	return fmt.Sprintf(
		"input %s is locked by %s, not by script %s",
		e.Input.String(),
		e.Actual.String(),
		e.Expected.String(),
	)
}

type DatumNotResolvedError struct {
	Input     ledger.TransactionInput
	DatumHash ledger.DatumHash
}

func (e DatumNotResolvedError) Error() string {
	return fmt.Sprintf(
		"input %s has datum hash %s but the datum itself was not provided",
		e.Input.String(),
		e.DatumHash.String(),
	)
}

type InvalidRedeemerError struct {
	Err error
}

func (e InvalidRedeemerError) Error() string {
	return fmt.Sprintf("invalid redeemer data: %s", e.Err)
}

func (e InvalidRedeemerError) Unwrap() error {
	return e.Err
}

type UnknownRedeemerIndexError struct {
	Tag   ledger.RedeemerTag
	Index uint32
}

func (e UnknownRedeemerIndexError) Error() string {
	return fmt.Sprintf(
		"no %s script purpose at redeemer index %d",
		e.Tag.String(),
		e.Index,
	)
}

// UnevaluatedRedeemerError is returned by Complete when a script input or
// Plutus policy of the draft received no evaluated redeemer
type UnevaluatedRedeemerError struct {
	Tag   ledger.RedeemerTag
	Index uint32
}

func (e UnevaluatedRedeemerError) Error() string {
	return fmt.Sprintf(
		"no evaluated redeemer for %s script purpose at index %d",
		e.Tag.String(),
		e.Index,
	)
}

type MissingScriptForInputError struct {
	Input ledger.TransactionInput
}

func (e MissingScriptForInputError) Error() string {
	return fmt.Sprintf("no script registered for input %s", e.Input.String())
}

type UnexpectedCollateralAmountError struct {
	Required uint64
}

func (e UnexpectedCollateralAmountError) Error() string {
	return fmt.Sprintf(
		"no available UTxO can cover the required collateral of %d lovelace",
		e.Required,
	)
}

type InsufficientFundsError struct {
	Shortfall ledger.Value
	Err       error
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds to balance transaction: %s", e.Err)
}

func (e InsufficientFundsError) Unwrap() error {
	return e.Err
}

type FeeDidNotConvergeError struct {
	Iterations int
	LastFee    uint64
}

func (e FeeDidNotConvergeError) Error() string {
	return fmt.Sprintf(
		"fee did not converge after %d iterations (last fee %d)",
		e.Iterations,
		e.LastFee,
	)
}

type TxSizeExceededError struct {
	Size uint64
	Max  uint64
}

func (e TxSizeExceededError) Error() string {
	return fmt.Sprintf(
		"transaction size %d exceeds maximum of %d",
		e.Size,
		e.Max,
	)
}

type ValueSizeExceededError struct {
	OutputIndex int
	Size        uint64
	Max         uint64
}

func (e ValueSizeExceededError) Error() string {
	return fmt.Sprintf(
		"value of output %d has size %d, exceeding maximum of %d",
		e.OutputIndex,
		e.Size,
		e.Max,
	)
}

type ExUnitsExceededError struct {
	Total ledger.ExUnits
	Max   ledger.ExUnits
}

func (e ExUnitsExceededError) Error() string {
	return fmt.Sprintf(
		"execution units (mem %d, steps %d) exceed maximum (mem %d, steps %d)",
		e.Total.Memory,
		e.Total.Steps,
		e.Max.Memory,
		e.Max.Steps,
	)
}

type NetworkMismatchError struct {
	Address   ledger.Address
	NetworkId uint8
}

func (e NetworkMismatchError) Error() string {
	return fmt.Sprintf(
		"address %s does not belong to network %d",
		e.Address.String(),
		e.NetworkId,
	)
}

// ReferenceInputSpentError is returned when a UTxO would be both spent and referenced
type ReferenceInputSpentError struct {
	Input ledger.TransactionInput
}

func (e ReferenceInputSpentError) Error() string {
	return fmt.Sprintf(
		"UTxO %s cannot be both spent and used as a reference input",
		e.Input.String(),
	)
}
