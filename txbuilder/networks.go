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
	"github.com/blinklabs-io/txbuilder/evaluator"
	"github.com/blinklabs-io/txbuilder/ledger"
)

// Network definitions
var (
	NetworkMainnet = Network{
		Id:           ledger.AddressNetworkMainnet,
		Name:         "mainnet",
		NetworkMagic: 764824073,
		SlotConfig:   evaluator.SlotConfigMainnet,
	}
	NetworkPreprod = Network{
		Id:           ledger.AddressNetworkTestnet,
		Name:         "preprod",
		NetworkMagic: 1,
		SlotConfig:   evaluator.SlotConfigPreprod,
	}
	NetworkPreview = Network{
		Id:           ledger.AddressNetworkTestnet,
		Name:         "preview",
		NetworkMagic: 2,
		SlotConfig:   evaluator.SlotConfigPreview,
	}

	NetworkInvalid = Network{
		Id:           0,
		Name:         "invalid",
		NetworkMagic: 0,
	} // NetworkInvalid is used as a return value for lookup functions when a network isn't found
)

// List of valid networks for use in lookup functions
var networks = []Network{
	NetworkMainnet,
	NetworkPreprod,
	NetworkPreview,
}

// NetworkByName returns a predefined network by name
func NetworkByName(name string) Network {
	for _, network := range networks {
		if network.Name == name {
			return network
		}
	}
	return NetworkInvalid
}

// NetworkByNetworkMagic returns a predefined network by network magic
func NetworkByNetworkMagic(networkMagic uint32) Network {
	for _, network := range networks {
		if network.NetworkMagic == networkMagic {
			return network
		}
	}
	return NetworkInvalid
}

// Network represents a Cardano network
type Network struct {
	Id           uint8 // network ID used for addresses and the transaction body
	Name         string
	NetworkMagic uint32
	// Slot timing passed to script evaluation
	SlotConfig evaluator.SlotConfig
}

func (n Network) String() string {
	return n.Name
}
