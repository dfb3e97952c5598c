//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"errors"
	"fmt"

	"github.com/oblivc/yao2pc/aeshash"
	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/circuit"
)

// ErrDecodeMismatch is returned by Decode when the evaluator's
// output-label ids do not line up one-to-one with the garbler's
// decoding info -- always a protocol bug or an actively malicious
// peer, never a recoverable condition.
var ErrDecodeMismatch = errors.New("garble: output label/decode-info id mismatch")

// Evaluator holds the per-session tweak counter that must track the
// garbler's counter gate for gate, so both sides derive identical
// tccr_hash tweaks.
type Evaluator struct {
	counter uint64
}

// NewEvaluator creates an Evaluator with its tweak counter at zero,
// matching a freshly constructed Garbler.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

func (e *Evaluator) nextTweak() block.Block {
	t := block.Block{Lo: e.counter}
	e.counter++
	return t
}

// andGate evaluates one AND gate given the two input value-labels and
// its table row.
func (e *Evaluator) andGate(x, y block.Block, row [2]block.Block) block.Block {
	sa := boolIdx(x.LSB())
	sb := boolIdx(y.LSB())

	i := e.nextTweak()
	j := e.nextTweak()

	hx := aeshash.TCCRHash(i, x)
	hy := aeshash.TCCRHash(j, y)

	wG := hx.Xor(block.SelectMask[sa].And(row[0]))
	wE := hy.Xor(block.SelectMask[sb].And(row[1].Xor(x)))

	return wG.Xor(wE)
}

func (e *Evaluator) xorGate(x, y block.Block) block.Block {
	return x.Xor(y)
}

func (e *Evaluator) invGate(x, publicOneLabel block.Block) block.Block {
	return x.Xor(publicOneLabel)
}

// evalCore walks circ's gate list, evaluating every gate and returning
// the output wires' value-labels. When indicator is non-nil, every
// input-value label is placed at indicator[srcID] instead of srcID
// directly -- indicator must cover all of circ's input wires, not just
// the ones fed from a previous circuit's outputs; a fresh input simply
// maps to itself.
func (e *Evaluator) evalCore(circ *circuit.Circuit, table GarbledTable,
	inputValueLabels []WireLabel, indicator map[int]int) ([]WireLabel, error) {

	if len(inputValueLabels) != circ.Inputs.Size() {
		return nil, fmt.Errorf(
			"garble: got %d input labels, want %d", len(inputValueLabels),
			circ.Inputs.Size())
	}

	wires := make([]*block.Block, circ.NumWires)
	for _, l := range inputValueLabels {
		id := l.ID
		if indicator != nil {
			mapped, ok := indicator[l.ID]
			if !ok {
				return nil, fmt.Errorf("garble: no indicator entry for wire %d", l.ID)
			}
			id = mapped
		}
		label := l.Label
		wires[id] = &label
	}

	var andIdx int

	for gi := range circ.Gates {
		gate := &circ.Gates[gi]

		switch gate.Op {
		case circuit.INV:
			x := wires[gate.Input0]
			if x == nil {
				return nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input0)
			}
			z := e.invGate(*x, table.PublicOneLabel)
			wires[gate.Output] = &z

		case circuit.XOR:
			x := wires[gate.Input0]
			y := wires[gate.Input1]
			if x == nil {
				return nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input0)
			}
			if y == nil {
				return nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input1)
			}
			z := e.xorGate(*x, *y)
			wires[gate.Output] = &z

		case circuit.AND:
			x := wires[gate.Input0]
			y := wires[gate.Input1]
			if x == nil {
				return nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input0)
			}
			if y == nil {
				return nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input1)
			}
			if andIdx >= len(table.Table) {
				return nil, fmt.Errorf("garble: table exhausted at AND gate %d", gi)
			}
			z := e.andGate(*x, *y, table.Table[andIdx])
			andIdx++
			wires[gate.Output] = &z

		default:
			return nil, fmt.Errorf("garble: unsupported operation %s", gate.Op)
		}
	}

	base := circ.NumWires - circ.Outputs.Size()
	out := make([]WireLabel, circ.Outputs.Size())
	for i := range out {
		id := base + i
		w := wires[id]
		if w == nil {
			return nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, id)
		}
		out[i] = WireLabel{ID: id, Label: *w}
	}

	return out, nil
}

// Eval evaluates circ from scratch given its garbled table and the
// evaluator's input value-labels (its own OT-received labels plus the
// garbler's sent labels, in input order).
func (e *Evaluator) Eval(circ *circuit.Circuit, table GarbledTable,
	inputValueLabels []WireLabel) ([]WireLabel, error) {
	return e.evalCore(circ, table, inputValueLabels, nil)
}

// Compose evaluates circ whose input value-labels are a previous
// circuit's output value-labels, remapped through indicator (source
// wire id -> this circuit's input wire id).
func (e *Evaluator) Compose(circ *circuit.Circuit, table GarbledTable,
	outputValueLabels []WireLabel, indicator map[int]int) ([]WireLabel, error) {
	return e.evalCore(circ, table, outputValueLabels, indicator)
}

// Finalize recovers the plaintext output bits from the evaluator's
// output value-labels and the garbler's decoding info.
func (e *Evaluator) Finalize(outLabels []WireLabel, decodeInfo []OutputDecodeInfo) ([]bool, error) {
	return Decode(outLabels, decodeInfo)
}

// Decode pairs each value-label with its decoding info by position and
// XORs the label's LSB with the decode bit to recover the plaintext.
// Both slices must be ordered identically and carry matching ids.
func Decode(labels []WireLabel, decodeInfo []OutputDecodeInfo) ([]bool, error) {
	if len(labels) != len(decodeInfo) {
		return nil, fmt.Errorf("garble: got %d labels for %d decode entries",
			len(labels), len(decodeInfo))
	}
	out := make([]bool, len(labels))
	for i := range labels {
		if labels[i].ID != decodeInfo[i].ID {
			return nil, ErrDecodeMismatch
		}
		out[i] = labels[i].Label.LSB() != decodeInfo[i].DecodeInfo
	}
	return out, nil
}
