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

// Package evaluator defines the contract between the transaction builder and
// an external phase-two script evaluator.
//
// The builder produces a Request holding the draft transaction, the resolved
// outputs for every input it consumes, the cost model table, the execution
// budget ceiling and the slot configuration. An Evaluator turns that into the
// list of redeemers with their measured execution units.
package evaluator

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/blinklabs-io/txbuilder/cbor"
	"github.com/blinklabs-io/txbuilder/ledger"
)

// SlotConfig converts between POSIX time and slots for validity interval checks
type SlotConfig struct {
	// Milliseconds since the epoch at ZeroSlot
	ZeroTime uint64
	ZeroSlot uint64
	// Slot length in milliseconds
	SlotLength uint32
}

var (
	SlotConfigMainnet = SlotConfig{ZeroTime: 1596059091000, ZeroSlot: 4492800, SlotLength: 1000}
	SlotConfigPreprod = SlotConfig{ZeroTime: 1655769600000, ZeroSlot: 86400, SlotLength: 1000}
	SlotConfigPreview = SlotConfig{ZeroTime: 1666656000000, ZeroSlot: 0, SlotLength: 1000}
)

// SlotToTime returns the POSIX time in milliseconds at the start of a slot
func (s SlotConfig) SlotToTime(slot uint64) uint64 {
	if slot < s.ZeroSlot {
		return s.ZeroTime
	}
	return s.ZeroTime + (slot-s.ZeroSlot)*uint64(s.SlotLength)
}

// ResolvedUtxo is one consumed input with the output it refers to, both CBOR encoded
type ResolvedUtxo struct {
	Input  []byte
	Output []byte
}

type Request struct {
	Transaction []byte
	Utxos       []ResolvedUtxo
	CostModels  []byte
	MaxExUnits  ledger.ExUnits
	SlotConfig  SlotConfig
}

// NewResolvedUtxo encodes an input and its output for a Request
func NewResolvedUtxo(
	input ledger.TransactionInput,
	output ledger.TransactionOutput,
) (ResolvedUtxo, error) {
	inputCbor, err := cbor.Encode(&input)
	if err != nil {
		return ResolvedUtxo{}, fmt.Errorf("encode input %s: %w", input.String(), err)
	}
	outputCbor, err := output.MarshalCBOR()
	if err != nil {
		return ResolvedUtxo{}, fmt.Errorf("encode output for %s: %w", input.String(), err)
	}
	return ResolvedUtxo{Input: inputCbor, Output: outputCbor}, nil
}

// UtxoTable serializes the resolved UTxOs as a little-endian count followed by
// length-prefixed input and output pairs
func (r Request) UtxoTable() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(r.Utxos)))
	for _, utxo := range r.Utxos {
		_ = binary.Write(&buf, binary.LittleEndian, uint64(len(utxo.Input)))
		buf.Write(utxo.Input)
		_ = binary.Write(&buf, binary.LittleEndian, uint64(len(utxo.Output)))
		buf.Write(utxo.Output)
	}
	return buf.Bytes()
}

// DecodeUtxoTable reverses UtxoTable
func DecodeUtxoTable(data []byte) ([]ResolvedUtxo, error) {
	rd := bytes.NewReader(data)
	var count uint64
	if err := binary.Read(rd, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read UTxO count: %w", err)
	}
	readChunk := func() ([]byte, error) {
		var size uint64
		if err := binary.Read(rd, binary.LittleEndian, &size); err != nil {
			return nil, err
		}
		if size > uint64(rd.Len()) {
			return nil, fmt.Errorf("UTxO table entry length %d exceeds remaining data", size)
		}
		chunk := make([]byte, size)
		if _, err := rd.Read(chunk); err != nil {
			return nil, err
		}
		return chunk, nil
	}
	ret := []ResolvedUtxo{}
	for i := range count {
		input, err := readChunk()
		if err != nil {
			return nil, fmt.Errorf("read input %d: %w", i, err)
		}
		output, err := readChunk()
		if err != nil {
			return nil, fmt.Errorf("read output %d: %w", i, err)
		}
		ret = append(ret, ResolvedUtxo{Input: input, Output: output})
	}
	return ret, nil
}

// EncodeCostModels serializes the cost model table as a map from language to parameter list
func EncodeCostModels(pp *ledger.ProtocolParameters) ([]byte, error) {
	tmp := map[uint][]int64{}
	for lang, params := range pp.CostModels {
		tmp[uint(lang)] = slices.Clone(params)
	}
	return cbor.Encode(tmp)
}

// Evaluator runs the scripts in a request and reports the execution units of each redeemer
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) ([]ledger.Redeemer, error)
}

// Func allows using an ordinary function as an Evaluator
type Func func(ctx context.Context, req Request) ([]ledger.Redeemer, error)

func (f Func) Evaluate(ctx context.Context, req Request) ([]ledger.Redeemer, error) {
	return f(ctx, req)
}

type Budget struct {
	Mem uint64 `cbor:"mem"`
	CPU uint64 `cbor:"cpu"`
}

type EvalError struct {
	ErrorType  string   `cbor:"error_type"`
	Budget     Budget   `cbor:"budget"`
	DebugTrace []string `cbor:"debug_trace"`
}

// EvaluationError is a script failure reported by the evaluator
type EvaluationError struct {
	EvalError EvalError
}

func (e *EvaluationError) Error() string {
	msg := "evaluation failed: " + e.EvalError.ErrorType
	if len(e.EvalError.DebugTrace) > 0 {
		msg += " (" + strings.Join(e.EvalError.DebugTrace, "; ") + ")"
	}
	return msg
}

type encodedRedeemer struct {
	cbor.StructAsArray
	Tag     uint8
	Index   uint32
	Data    cbor.RawMessage
	ExUnits ledger.ExUnits
}

// DecodeRedeemer parses one evaluated redeemer in [tag, index, data, [mem, steps]] form
func DecodeRedeemer(data []byte) (ledger.Redeemer, error) {
	var tmp encodedRedeemer
	if _, err := cbor.Decode(data, &tmp); err != nil {
		return ledger.Redeemer{}, fmt.Errorf("decode redeemer: %w", err)
	}
	return ledger.Redeemer{
		Tag:     ledger.RedeemerTag(tmp.Tag),
		Index:   tmp.Index,
		Data:    slices.Clone([]byte(tmp.Data)),
		ExUnits: tmp.ExUnits,
	}, nil
}

// EncodeRedeemer is the inverse of DecodeRedeemer
func EncodeRedeemer(r ledger.Redeemer) ([]byte, error) {
	return cbor.Encode(&encodedRedeemer{
		Tag:     uint8(r.Tag),
		Index:   r.Index,
		Data:    cbor.RawMessage(r.Data),
		ExUnits: r.ExUnits,
	})
}

// DecodeResult parses a raw evaluator response. A leading zero byte marks
// success and is followed by a list of encoded redeemers, anything else is
// followed by an encoded EvalError
func DecodeResult(result []byte) ([]ledger.Redeemer, error) {
	if len(result) == 0 {
		return nil, fmt.Errorf("empty evaluator result")
	}
	if result[0] != 0 {
		var evalErr EvalError
		if _, err := cbor.Decode(result[1:], &evalErr); err != nil {
			return nil, fmt.Errorf("decode evaluation error: %w", err)
		}
		return nil, &EvaluationError{EvalError: evalErr}
	}
	var encoded [][]byte
	if _, err := cbor.Decode(result[1:], &encoded); err != nil {
		return nil, fmt.Errorf("decode evaluator result: %w", err)
	}
	ret := make([]ledger.Redeemer, 0, len(encoded))
	for _, item := range encoded {
		redeemer, err := DecodeRedeemer(item)
		if err != nil {
			return nil, err
		}
		ret = append(ret, redeemer)
	}
	return ret, nil
}

// EncodeResult builds a raw evaluator response. It is mainly useful for tests
// and for adapting in-process evaluators
func EncodeResult(redeemers []ledger.Redeemer, evalErr *EvalError) ([]byte, error) {
	if evalErr != nil {
		data, err := cbor.Encode(evalErr)
		if err != nil {
			return nil, err
		}
		return append([]byte{1}, data...), nil
	}
	encoded := make([][]byte, 0, len(redeemers))
	for _, r := range redeemers {
		item, err := EncodeRedeemer(r)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, item)
	}
	data, err := cbor.Encode(encoded)
	if err != nil {
		return nil, err
	}
	return append([]byte{0}, data...), nil
}
