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

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/txbuilder"
)

type globalFlags struct {
	flagset      *flag.FlagSet
	network      string
	networkMagic int
	pparamsFile  string
	debug        bool
}

func newGlobalFlags() *globalFlags {
	f := &globalFlags{
		flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.network,
		"network",
		"preview",
		"specifies network the transaction is built for",
	)
	f.flagset.IntVar(
		&f.networkMagic,
		"network-magic",
		0,
		"specifies network magic value. this overrides the -network option",
	)
	f.flagset.StringVar(
		&f.pparamsFile,
		"pparams",
		"",
		"path to protocol parameters JSON",
	)
	f.flagset.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return f
}

func main() {
	f := newGlobalFlags()
	err := f.flagset.Parse(os.Args[1:])
	if err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}

	var network txbuilder.Network
	if f.networkMagic != 0 {
		network = txbuilder.NetworkByNetworkMagic(uint32(f.networkMagic)) // #nosec G115 -- network magic values fit in uint32
	} else {
		network = txbuilder.NetworkByName(f.network)
	}
	if network == txbuilder.NetworkInvalid {
		fmt.Printf("Invalid network specified: %s\n", f.network)
		os.Exit(1)
	}

	if len(f.flagset.Args()) > 0 {
		switch f.flagset.Arg(0) {
		case "send":
			runSend(f, network)
		case "seal-key":
			runSealKey(f)
		case "key-hash":
			runKeyHash(f)
		default:
			fmt.Printf("Unknown subcommand: %s\n", f.flagset.Arg(0))
			os.Exit(1)
		}
	} else {
		fmt.Printf("You must specify a subcommand (send, seal-key or key-hash)\n")
		os.Exit(1)
	}
}

func newLogger(f *globalFlags) *slog.Logger {
	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
}

func loadProtocolParameters(f *globalFlags) *ledger.ProtocolParameters {
	if f.pparamsFile == "" {
		fmt.Printf("ERROR: the -pparams option is required\n")
		os.Exit(1)
	}
	data, err := os.ReadFile(f.pparamsFile)
	if err != nil {
		fmt.Printf("ERROR: failed to read protocol parameters: %s\n", err)
		os.Exit(1)
	}
	pparams, err := ledger.NewProtocolParametersFromJSON(data)
	if err != nil {
		fmt.Printf("ERROR: failed to load protocol parameters: %s\n", err)
		os.Exit(1)
	}
	return pparams
}
