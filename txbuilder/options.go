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
	"log/slog"

	"github.com/blinklabs-io/txbuilder/coinselect"
)

const (
	// First-pass fee estimate used when there is no previous draft
	DefaultFeeEstimate uint64 = 2_000_000

	DefaultMaxFeeIterations = 10
)

// BuilderOptionFunc is a type that represents functions that modify the Builder config
type BuilderOptionFunc func(*Builder)

// WithLogger specifies the logger to use. If none is provided, slog.Default() is used
func WithLogger(logger *slog.Logger) BuilderOptionFunc {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithCoinSelection specifies the coin selection strategy. The default is coinselect.LargestFirst
func WithCoinSelection(strategy coinselect.Strategy) BuilderOptionFunc {
	return func(b *Builder) {
		b.strategy = strategy
	}
}

// WithNetworkId sets the network ID written to the transaction body and
// checked against output and change addresses
func WithNetworkId(networkId uint8) BuilderOptionFunc {
	return func(b *Builder) {
		b.networkId = &networkId
	}
}

// WithNetwork is WithNetworkId for one of the predefined networks
func WithNetwork(network Network) BuilderOptionFunc {
	return WithNetworkId(network.Id)
}

// WithDefaultFeeEstimate overrides the first-pass fee estimate
func WithDefaultFeeEstimate(fee uint64) BuilderOptionFunc {
	return func(b *Builder) {
		b.defaultFee = fee
	}
}

// WithMaxFeeIterations limits how many times the fee is recalculated while balancing
func WithMaxFeeIterations(iterations int) BuilderOptionFunc {
	return func(b *Builder) {
		b.maxFeeIterations = iterations
	}
}
