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
	"math/big"

	"github.com/blinklabs-io/txbuilder/ledger"
)

// CollateralSelection is the collateral chosen for a transaction
type CollateralSelection struct {
	Utxo Utxo
	// Total collateral declared in the transaction body
	Required uint64
	// Output returning the excess, nil when the UTxO matches the requirement exactly
	Return *ledger.TransactionOutput
}

// RequiredCollateral returns ceil(fee * (collateralPercent + 99) / 100)
func RequiredCollateral(pparams *ledger.ProtocolParameters, fee uint64) (uint64, error) {
	tmp := new(big.Int).SetUint64(fee)
	tmp.Mul(tmp, new(big.Int).SetUint64(pparams.CollateralPercent+99))
	q, m := new(big.Int).QuoRem(tmp, big.NewInt(100), new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsUint64() {
		return 0, QuantityExceedsMaximumError{Asset: "collateral", Quantity: q}
	}
	return q.Uint64(), nil
}

// SelectCollateral picks the first key-locked candidate, in the order given,
// that covers the required collateral for the fee. A candidate holding exactly
// the required lovelace and nothing else needs no return output. Any other
// candidate must leave enough behind for a return output to changeAddress
// that meets the minimum coin rule
func SelectCollateral(
	pparams *ledger.ProtocolParameters,
	candidates []Utxo,
	fee uint64,
	changeAddress ledger.Address,
) (*CollateralSelection, error) {
	required, err := RequiredCollateral(pparams, fee)
	if err != nil {
		return nil, err
	}
	for _, utxo := range candidates {
		cred, err := ResolveSpendingCredential(utxo)
		if err != nil || cred.IsScript() {
			continue
		}
		if utxo.Amount.Coin < required {
			continue
		}
		if utxo.Amount.Coin == required && !utxo.Amount.HasAssets() {
			return &CollateralSelection{Utxo: utxo, Required: required}, nil
		}
		returnValue := utxo.Amount.Clone()
		returnValue.Coin -= required
		returnOutput := ledger.NewTransactionOutput(changeAddress, returnValue)
		minCoin, err := ledger.MinCoinForOutput(pparams, returnOutput)
		if err != nil {
			return nil, err
		}
		if returnValue.Coin < minCoin {
			continue
		}
		return &CollateralSelection{
			Utxo:     utxo,
			Required: required,
			Return:   &returnOutput,
		}, nil
	}
	return nil, UnexpectedCollateralAmountError{Required: required}
}
