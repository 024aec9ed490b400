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
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/txbuilder"
)

type sendFlags struct {
	flagset   *flag.FlagSet
	utxosFile string
	to        string
	amount    uint64
	change    string
	json      bool
}

func newSendFlags() *sendFlags {
	f := &sendFlags{
		flagset: flag.NewFlagSet("send", flag.ExitOnError),
	}
	f.flagset.StringVar(&f.utxosFile, "utxos", "", "path to JSON list of UTxOs to spend from")
	f.flagset.StringVar(&f.to, "to", "", "destination address")
	f.flagset.Uint64Var(&f.amount, "amount", 0, "lovelace to send")
	f.flagset.StringVar(&f.change, "change", "", "change address")
	f.flagset.BoolVar(&f.json, "json", false, "print the transaction as JSON instead of CBOR hex")
	return f
}

// utxoJson is one entry of the -utxos file
type utxoJson struct {
	Input    string `json:"input"`
	Address  string `json:"address"`
	Lovelace uint64 `json:"lovelace"`
}

func (u utxoJson) utxo() (txbuilder.Utxo, error) {
	input, err := ledger.ParseTransactionInput(u.Input)
	if err != nil {
		return txbuilder.Utxo{}, err
	}
	addr, err := ledger.NewAddress(u.Address)
	if err != nil {
		return txbuilder.Utxo{}, fmt.Errorf("UTxO %s: %w", u.Input, err)
	}
	return txbuilder.Utxo{
		Input:   input,
		Address: addr,
		Amount:  ledger.NewValue(u.Lovelace),
	}, nil
}

func loadUtxos(path string) ([]txbuilder.Utxo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []utxoJson
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	ret := make([]txbuilder.Utxo, 0, len(entries))
	for _, entry := range entries {
		utxo, err := entry.utxo()
		if err != nil {
			return nil, err
		}
		ret = append(ret, utxo)
	}
	return ret, nil
}

func runSend(f *globalFlags, network txbuilder.Network) {
	sendFlags := newSendFlags()
	err := sendFlags.flagset.Parse(f.flagset.Args()[1:])
	if err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	if sendFlags.utxosFile == "" || sendFlags.to == "" || sendFlags.change == "" {
		fmt.Printf("ERROR: the -utxos, -to and -change options are required\n")
		os.Exit(1)
	}
	logger := newLogger(f)
	b, err := txbuilder.New(
		loadProtocolParameters(f),
		txbuilder.WithLogger(logger),
		txbuilder.WithNetwork(network),
	)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	utxos, err := loadUtxos(sendFlags.utxosFile)
	if err != nil {
		fmt.Printf("ERROR: failed to load UTxOs: %s\n", err)
		os.Exit(1)
	}
	to, err := ledger.NewAddress(sendFlags.to)
	if err != nil {
		fmt.Printf("ERROR: invalid destination address: %s\n", err)
		os.Exit(1)
	}
	change, err := ledger.NewAddress(sendFlags.change)
	if err != nil {
		fmt.Printf("ERROR: invalid change address: %s\n", err)
		os.Exit(1)
	}
	if err := b.PayToAddress(to, ledger.NewValue(sendFlags.amount)); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	draft, err := b.BalanceAndAssemble(utxos, change)
	if err != nil {
		fmt.Printf("ERROR: failed to balance transaction: %s\n", err)
		os.Exit(1)
	}
	txId, err := draft.Hash()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	logger.Info(
		"built transaction",
		"tx_id",
		txId.String(),
		"fee",
		draft.Fee(),
		"inputs",
		len(draft.Inputs()),
	)
	if sendFlags.json {
		out, err := json.MarshalIndent(draft, "", "  ")
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}
	fmt.Println(hex.EncodeToString(draft.Bytes()))
}
