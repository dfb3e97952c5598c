//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package garble implements the half-gates garbled-circuit generator
// and evaluator with free-XOR, composition across sequential
// garblings, and the mask-and-send auxiliary side channel.
package garble

import (
	"errors"
	"fmt"
	"io"

	"github.com/oblivc/yao2pc/aeshash"
	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/circuit"
)

// WireLabel is a label tagged with the wire id it belongs to. Plain
// evaluation keeps labels implicitly indexed by position, but
// composition needs the id explicitly so a later circuit's input
// labels can be looked up by the wire id an earlier circuit's outputs
// were tagged with.
type WireLabel struct {
	ID    int
	Label block.Block
}

// OutputDecodeInfo carries, per output wire, the bit that the
// evaluator must XOR with the LSB of its output value-label to recover
// the plaintext bit.
type OutputDecodeInfo struct {
	ID         int
	DecodeInfo bool
}

// GarbledTable is the garbler's wire-independent output: one
// two-ciphertext row per AND gate, in gate order, plus the public
// label realizing the constant-1 wire for INV gates.
type GarbledTable struct {
	Table          [][2]block.Block
	PublicOneLabel block.Block
}

// GarbledCircuit is the full output of one garbling: the table the
// garbler ships to the evaluator, plus the zero-labels of the output
// wires, which the garbler retains until Finalize.
type GarbledCircuit struct {
	Table            GarbledTable
	OutputZeroLabels []WireLabel
}

// ErrUninitializedLabel is returned when a gate reads a wire that has
// not been assigned a label yet -- a malformed or out-of-order
// circuit.
var ErrUninitializedLabel = errors.New("garble: uninitialized wire label")

// Garbler holds the per-session secret state shared by every garbling
// and composition step in one 2PC session: the free-XOR offset Δ and
// the tweak counter that the generator and evaluator must keep in
// lockstep.
type Garbler struct {
	counter uint64
	delta   block.Block
}

// NewGarbler creates a Garbler with free-XOR offset delta, which must
// have its LSB set (the pointer bit).
func NewGarbler(delta block.Block) *Garbler {
	return &Garbler{delta: delta}
}

// Delta returns the session's free-XOR offset.
func (g *Garbler) Delta() block.Block {
	return g.delta
}

func (g *Garbler) nextTweak() block.Block {
	t := block.Block{Lo: g.counter}
	g.counter++
	return t
}

// andGate garbles one AND gate given its two input label pairs
// (zero-label, one-label), returning the output label pair and the
// two-ciphertext table row.
func (g *Garbler) andGate(x, y [2]block.Block) (z [2]block.Block, row [2]block.Block) {
	pa := boolIdx(x[0].LSB())
	pb := boolIdx(y[0].LSB())

	i := g.nextTweak()
	j := g.nextTweak()

	hx0 := aeshash.TCCRHash(i, x[0])
	hy0 := aeshash.TCCRHash(j, y[0])

	tG := hx0.Xor(aeshash.TCCRHash(i, x[1])).Xor(block.SelectMask[pb].And(g.delta))
	wG := hx0.Xor(block.SelectMask[pa].And(tG))

	tE := hy0.Xor(aeshash.TCCRHash(j, y[1])).Xor(x[0])
	wE := hy0.Xor(block.SelectMask[pb].And(tE.Xor(x[0])))

	z0 := wG.Xor(wE)
	z = [2]block.Block{z0, z0.Xor(g.delta)}
	row = [2]block.Block{tG, tE}
	return z, row
}

// xorGate garbles XOR for free: the output offset is still Δ, so no
// ciphertext is produced.
func (g *Garbler) xorGate(x, y [2]block.Block) [2]block.Block {
	z0 := x[0].Xor(y[0])
	return [2]block.Block{z0, z0.Xor(g.delta)}
}

// invGate realizes NOT as XOR with the public constant-1 label.
func (g *Garbler) invGate(x [2]block.Block, publicOneLabel block.Block) [2]block.Block {
	return g.xorGate(x, [2]block.Block{publicOneLabel.Xor(g.delta), publicOneLabel})
}

// genCore walks circ's gate list, garbling every gate and returning
// the AND-gate table plus the output wires' zero-labels. It is shared
// by Garble (fresh input labels) and Compose (input labels remapped
// from a previous circuit's outputs).
func (g *Garbler) genCore(circ *circuit.Circuit, inputZeroLabels []WireLabel,
	publicOneLabel block.Block) ([][2]block.Block, []WireLabel, error) {

	if len(inputZeroLabels) != circ.Inputs.Size() {
		return nil, nil, fmt.Errorf(
			"garble: got %d input labels, want %d", len(inputZeroLabels),
			circ.Inputs.Size())
	}

	wires := make([]*[2]block.Block, circ.NumWires)
	for _, l := range inputZeroLabels {
		pair := [2]block.Block{l.Label, l.Label.Xor(g.delta)}
		wires[l.ID] = &pair
	}

	var table [][2]block.Block

	for gi := range circ.Gates {
		gate := &circ.Gates[gi]

		switch gate.Op {
		case circuit.INV:
			x := wires[gate.Input0]
			if x == nil {
				return nil, nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input0)
			}
			z := g.invGate(*x, publicOneLabel)
			wires[gate.Output] = &z

		case circuit.XOR:
			x := wires[gate.Input0]
			y := wires[gate.Input1]
			if x == nil {
				return nil, nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input0)
			}
			if y == nil {
				return nil, nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input1)
			}
			z := g.xorGate(*x, *y)
			wires[gate.Output] = &z

		case circuit.AND:
			x := wires[gate.Input0]
			y := wires[gate.Input1]
			if x == nil {
				return nil, nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input0)
			}
			if y == nil {
				return nil, nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, gate.Input1)
			}
			z, row := g.andGate(*x, *y)
			table = append(table, row)
			wires[gate.Output] = &z

		default:
			return nil, nil, fmt.Errorf("garble: unsupported operation %s", gate.Op)
		}
	}

	base := circ.NumWires - circ.Outputs.Size()
	outputZeroLabels := make([]WireLabel, circ.Outputs.Size())
	for i := range outputZeroLabels {
		id := base + i
		w := wires[id]
		if w == nil {
			return nil, nil, fmt.Errorf("%w: %d", ErrUninitializedLabel, id)
		}
		outputZeroLabels[i] = WireLabel{ID: id, Label: w[0]}
	}

	return table, outputZeroLabels, nil
}

// Garble garbles circ from scratch: it samples a fresh public_one_label
// and runs genCore over the given (fresh) input zero-labels.
func (g *Garbler) Garble(rand io.Reader, circ *circuit.Circuit,
	inputZeroLabels []WireLabel) (*GarbledCircuit, error) {

	seed, err := block.Random(rand)
	if err != nil {
		return nil, err
	}
	publicOneLabel := seed.Xor(g.delta)

	table, outputZeroLabels, err := g.genCore(circ, inputZeroLabels, publicOneLabel)
	if err != nil {
		return nil, err
	}

	return &GarbledCircuit{
		Table: GarbledTable{
			Table:          table,
			PublicOneLabel: publicOneLabel,
		},
		OutputZeroLabels: outputZeroLabels,
	}, nil
}

// Compose garbles circ whose input zero-labels are the (possibly
// remapped) output zero-labels of an earlier garbling, continuing
// with the same Δ, the same public_one_label, and the running tweak
// counter -- required for free-XOR identities to hold across the
// junction. Callers remap wire ids through the session's composition
// indicator before calling Compose; the evaluator applies the same
// indicator in Evaluator.Compose.
func (g *Garbler) Compose(circ *circuit.Circuit, outputZeroLabels []WireLabel,
	publicOneLabel block.Block) (*GarbledCircuit, error) {

	table, newOutputZeroLabels, err := g.genCore(circ, outputZeroLabels, publicOneLabel)
	if err != nil {
		return nil, err
	}

	return &GarbledCircuit{
		Table: GarbledTable{
			Table:          table,
			PublicOneLabel: publicOneLabel,
		},
		OutputZeroLabels: newOutputZeroLabels,
	}, nil
}

// Finalize computes the decoding info the evaluator needs to recover
// plaintext output bits from its value-labels.
func (g *Garbler) Finalize(outputZeroLabels []WireLabel) []OutputDecodeInfo {
	return DecodeInfo(outputZeroLabels)
}

// Encode selects, for each input wire's zero-label and plaintext bit,
// the label that encodes that bit: the zero-label itself when the bit
// is 0, or the zero-label XOR Δ (the one-label) when it is 1.
func Encode(zeroLabels []WireLabel, inputs []bool, delta block.Block) ([]WireLabel, error) {
	if len(zeroLabels) != len(inputs) {
		return nil, fmt.Errorf("garble: got %d labels for %d input bits",
			len(zeroLabels), len(inputs))
	}
	out := make([]WireLabel, len(zeroLabels))
	for i, l := range zeroLabels {
		label := l.Label
		if inputs[i] {
			label = label.Xor(delta)
		}
		out[i] = WireLabel{ID: l.ID, Label: label}
	}
	return out, nil
}

// DecodeInfo derives the output decoding info from a set of output
// zero-labels: the LSB of each zero-label is the bit the evaluator
// must XOR into its corresponding value-label's LSB.
func DecodeInfo(zeroLabels []WireLabel) []OutputDecodeInfo {
	out := make([]OutputDecodeInfo, len(zeroLabels))
	for i, l := range zeroLabels {
		out[i] = OutputDecodeInfo{ID: l.ID, DecodeInfo: l.Label.LSB()}
	}
	return out
}

func boolIdx(b bool) int {
	if b {
		return 1
	}
	return 0
}
