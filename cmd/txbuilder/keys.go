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

	"github.com/blinklabs-io/txbuilder/keyvault"
)

// Passwords are read from the environment so that they stay out of shell history
const passwordEnvVar = "TXBUILDER_PASSWORD"

type keyFlags struct {
	flagset   *flag.FlagSet
	vaultFile string
	keyHex    string
}

func newKeyFlags(name string) *keyFlags {
	f := &keyFlags{
		flagset: flag.NewFlagSet(name, flag.ExitOnError),
	}
	f.flagset.StringVar(&f.vaultFile, "vault", "", "path to the sealed key file")
	f.flagset.StringVar(&f.keyHex, "key", "", "hex encoded extended signing key to seal")
	return f
}

func parseKeyFlags(f *globalFlags) *keyFlags {
	keyFlags := newKeyFlags(f.flagset.Arg(0))
	err := keyFlags.flagset.Parse(f.flagset.Args()[1:])
	if err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	if keyFlags.vaultFile == "" {
		fmt.Printf("ERROR: the -vault option is required\n")
		os.Exit(1)
	}
	return keyFlags
}

func password() []byte {
	ret := os.Getenv(passwordEnvVar)
	if ret == "" {
		fmt.Printf("ERROR: %s must be set\n", passwordEnvVar)
		os.Exit(1)
	}
	return []byte(ret)
}

func runSealKey(f *globalFlags) {
	keyFlags := parseKeyFlags(f)
	signingKey, err := hex.DecodeString(keyFlags.keyHex)
	if err != nil {
		fmt.Printf("ERROR: invalid signing key: %s\n", err)
		os.Exit(1)
	}
	vault, err := keyvault.Seal(password(), signingKey)
	if err != nil {
		fmt.Printf("ERROR: failed to seal key: %s\n", err)
		os.Exit(1)
	}
	data, err := json.Marshal(vault)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(keyFlags.vaultFile, data, 0o600); err != nil {
		fmt.Printf("ERROR: failed to write vault: %s\n", err)
		os.Exit(1)
	}
}

func runKeyHash(f *globalFlags) {
	keyFlags := parseKeyFlags(f)
	data, err := os.ReadFile(keyFlags.vaultFile)
	if err != nil {
		fmt.Printf("ERROR: failed to read vault: %s\n", err)
		os.Exit(1)
	}
	var vault keyvault.Vault
	if err := json.Unmarshal(data, &vault); err != nil {
		fmt.Printf("ERROR: failed to load vault: %s\n", err)
		os.Exit(1)
	}
	keyHash, err := vault.VerificationKeyHash(password())
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	fmt.Println(hex.EncodeToString(keyHash[:]))
}
