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

// Package txbuilder assembles balanced, unsigned Cardano transactions.
//
// A Builder collects inputs, outputs, mints and script witnesses, then
// BalanceAndAssemble selects additional inputs, computes the fee, collateral
// and script data hash and returns a Draft. Transactions that run Plutus
// scripts go through two phases: the first draft carries placeholder
// execution units and is sent to an evaluator, and Complete feeds the
// evaluated redeemers back in and rebuilds the final transaction.
//
// A Builder is not safe for concurrent use.
package txbuilder

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/blinklabs-io/txbuilder/coinselect"
	"github.com/blinklabs-io/txbuilder/ledger"
)

type Phase uint8

const (
	PhaseEstimating Phase = iota
	PhaseFinalizing
)

func (p Phase) String() string {
	switch p {
	case PhaseEstimating:
		return "Estimating"
	case PhaseFinalizing:
		return "Finalizing"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

type Builder struct {
	pparams          *ledger.ProtocolParameters
	logger           *slog.Logger
	strategy         coinselect.Strategy
	networkId        *uint8
	defaultFee       uint64
	maxFeeIterations int
	phase            Phase
	pendingInputs    utxoSet
	scriptInputs     map[ledger.TransactionInput]*scriptInput
	mints            map[ledger.PolicyId]*mintEntry
	outputs          []ledger.TransactionOutput
	outputDatums     [][]byte
	// Reference inputs added through AddReferenceInput. Those required by
	// reference script sources are derived from the registry and mint ledger
	explicitRefs    utxoSet
	requiredSigners []ledger.AddrKeyHash
	validityStart   uint64
	ttl             uint64
	previousDraft   *Draft
	additionalUtxos []Utxo
	changeAddress   *ledger.Address
}

// New creates a Builder for one transaction. The protocol parameters are
// validated up front so that bad parameters fail here rather than while balancing
func New(pparams *ledger.ProtocolParameters, opts ...BuilderOptionFunc) (*Builder, error) {
	if pparams == nil {
		return nil, BadProtocolParametersError{Field: "protocol parameters", Reason: "missing"}
	}
	if err := pparams.Validate(); err != nil {
		return nil, err
	}
	b := &Builder{
		pparams:          pparams,
		defaultFee:       DefaultFeeEstimate,
		maxFeeIterations: DefaultMaxFeeIterations,
		scriptInputs:     map[ledger.TransactionInput]*scriptInput{},
		mints:            map[ledger.PolicyId]*mintEntry{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.strategy == nil {
		b.strategy = coinselect.LargestFirst{}
	}
	if b.maxFeeIterations <= 0 {
		b.maxFeeIterations = DefaultMaxFeeIterations
	}
	return b, nil
}

func (b *Builder) Phase() Phase {
	return b.phase
}

// PreviousDraft returns the most recently built draft, if any
func (b *Builder) PreviousDraft() *Draft {
	return b.previousDraft
}

func (b *Builder) checkMutable() error {
	if b.phase == PhaseFinalizing {
		return ErrAlreadyFinalized
	}
	return nil
}

func (b *Builder) checkNetwork(addr ledger.Address) error {
	if b.networkId == nil || addr.IsByron() {
		return nil
	}
	if addr.NetworkId() != *b.networkId {
		return NetworkMismatchError{Address: addr, NetworkId: *b.networkId}
	}
	return nil
}

// CollectFrom adds plain key-locked UTxOs as inputs. Every UTxO is checked
// before any is added
func (b *Builder) CollectFrom(utxos ...Utxo) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	for _, utxo := range utxos {
		cred, err := ResolveSpendingCredential(utxo)
		if err != nil {
			return err
		}
		if cred.IsScript() {
			return ScriptLockedInputError{Input: utxo.Input, ScriptHash: cred.Hash}
		}
		if b.referenceUtxos().contains(utxo.Input) {
			return ReferenceInputSpentError{Input: utxo.Input}
		}
	}
	for _, utxo := range utxos {
		b.pendingInputs.add(utxo)
	}
	return nil
}

// PayToAddress adds an output. Outputs carrying less than the minimum coin
// for their size are raised to it
func (b *Builder) PayToAddress(addr ledger.Address, amount ledger.Value) error {
	return b.addOutput(addr, amount, nil, nil)
}

// PayToContract adds an output with a datum. When inline is false only the
// datum hash is stored in the output and the datum is added to the witness set
func (b *Builder) PayToContract(
	addr ledger.Address,
	amount ledger.Value,
	datum []byte,
	inline bool,
) error {
	if err := ledger.ValidatePlutusData(datum); err != nil {
		return fmt.Errorf("invalid datum: %w", err)
	}
	var opt *ledger.DatumOption
	var witnessDatum []byte
	if inline {
		opt = ledger.NewDatumOptionInline(datum)
	} else {
		opt = ledger.NewDatumOptionHash(ledger.HashDatum(datum))
		witnessDatum = slices.Clone(datum)
	}
	return b.addOutput(addr, amount, opt, witnessDatum)
}

func (b *Builder) addOutput(
	addr ledger.Address,
	amount ledger.Value,
	datum *ledger.DatumOption,
	witnessDatum []byte,
) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if err := b.checkNetwork(addr); err != nil {
		return err
	}
	output := ledger.NewTransactionOutput(addr, amount.Clone())
	output.DatumOption = datum
	minCoin, err := ledger.MinCoinForOutput(b.pparams, output)
	if err != nil {
		return err
	}
	if output.Amount.Coin < minCoin {
		b.logger.Warn(
			"Raising output to minimum coin",
			"address",
			addr.String(),
			"requested",
			output.Amount.Coin,
			"minimum",
			minCoin,
		)
		output.Amount.Coin = minCoin
	}
	b.outputs = append(b.outputs, output)
	if witnessDatum != nil {
		b.outputDatums = append(b.outputDatums, witnessDatum)
	}
	return nil
}

// SetValidityInterval sets the first slot the transaction is valid in and its
// time to live. Zero leaves the corresponding bound open
func (b *Builder) SetValidityInterval(start uint64, ttl uint64) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if start > 0 && ttl > 0 && ttl <= start {
		return fmt.Errorf("invalid validity interval: ttl %d is not after start %d", ttl, start)
	}
	b.validityStart = start
	b.ttl = ttl
	return nil
}

// AddRequiredSigner adds a key hash that must sign the transaction
func (b *Builder) AddRequiredSigner(keyHash ledger.AddrKeyHash) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if !slices.Contains(b.requiredSigners, keyHash) {
		b.requiredSigners = append(b.requiredSigners, keyHash)
	}
	return nil
}
