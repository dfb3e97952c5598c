//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"fmt"

	"github.com/oblivc/yao2pc/aeshash"
	"github.com/oblivc/yao2pc/block"
)

// maskHash blinds an output wire label for the mask-and-send side
// channel. It reuses the same correlation-robust hash family as the
// rest of the garbler, via CRHash, which ignores its tweak argument:
// the zero tweak passed here gives no separation from the AND-gate
// hashes, whose first tweak is also zero.
func maskHash(label block.Block) block.Block {
	return aeshash.CRHash(block.Zero, label)
}

// MaskSend blinds one pair of caller-supplied payloads per output
// wire, (D0, D1), with the hashes of that wire's zero- and one-labels
// respectively. aux must have exactly one entry per output wire, in
// output order. The core treats the payloads as opaque; callers use
// this, for example, to have the evaluator walk away with a commitment
// to the circuit's plaintext output without an extra round trip.
func MaskSend(outputZeroLabels []WireLabel, delta block.Block,
	aux [][2]block.Block) ([][2]block.Block, error) {

	if len(aux) != len(outputZeroLabels) {
		return nil, fmt.Errorf(
			"garble: got %d aux pairs for %d output wires", len(aux),
			len(outputZeroLabels))
	}

	masked := make([][2]block.Block, len(aux))
	for i, l := range outputZeroLabels {
		zero := l.Label
		one := zero.Xor(delta)
		masked[i] = [2]block.Block{
			aux[i][0].Xor(maskHash(zero)),
			aux[i][1].Xor(maskHash(one)),
		}
	}
	return masked, nil
}

// Unmask recovers the single payload matching each output wire's
// actual value-label, given the already-decoded plaintext output bits
// (Decode must run first -- which payload half matches is exactly the
// information decoding reveals).
func Unmask(outputValueLabels []WireLabel, decoded []bool,
	masked [][2]block.Block) ([]block.Block, error) {

	if len(masked) != len(outputValueLabels) || len(decoded) != len(outputValueLabels) {
		return nil, fmt.Errorf(
			"garble: mismatched lengths: %d labels, %d bits, %d masked pairs",
			len(outputValueLabels), len(decoded), len(masked))
	}

	out := make([]block.Block, len(masked))
	for i, l := range outputValueLabels {
		sel := boolIdx(decoded[i])
		out[i] = masked[i][sel].Xor(maskHash(l.Label))
	}
	return out, nil
}
