//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"crypto/rand"
	"math/big"
	"strings"
	"testing"

	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/circuit"
)

// Same 4-bit ripple-carry adder used to validate the plaintext
// evaluator; reused here so the garbled and plaintext paths can be
// checked against each other directly.
const adder4Bristol = `14 22
2 4 4
1 4
2 1 0 4 8 AND
2 1 1 5 9 XOR
2 1 9 8 10 AND
2 1 1 5 11 AND
2 1 10 11 12 XOR
2 1 2 6 13 XOR
2 1 13 12 14 AND
2 1 2 6 15 AND
2 1 14 15 16 XOR
2 1 3 7 17 XOR
2 1 0 4 18 XOR
2 1 9 8 19 XOR
2 1 13 12 20 XOR
2 1 17 16 21 XOR
`

func loadAdder4(t *testing.T) *circuit.Circuit {
	t.Helper()
	c, err := circuit.ParseBristol(strings.NewReader(adder4Bristol))
	if err != nil {
		t.Fatalf("ParseBristol: %v", err)
	}
	return c
}

// spNetworkBristol is the same two-round substitution-permutation toy
// cipher circuit.Circuit tests exercise on the plaintext path; reused
// here because its 8 AND gates (against adder4Bristol's 5) make it a
// denser half-gates AND-ciphertext workout than the adder alone.
const spNetworkBristol = `24 32
2 4 4
1 4
2 1 0 4 8 XOR
2 1 1 5 9 XOR
2 1 2 6 10 XOR
2 1 3 7 11 XOR
2 1 9 10 12 AND
2 1 8 12 13 XOR
2 1 10 11 14 AND
2 1 9 14 15 XOR
2 1 11 8 16 AND
2 1 10 16 17 XOR
2 1 8 9 18 AND
2 1 11 18 19 XOR
2 1 15 4 20 XOR
2 1 17 5 21 XOR
2 1 19 6 22 XOR
2 1 13 7 23 XOR
2 1 21 22 24 AND
2 1 22 23 25 AND
2 1 23 20 26 AND
2 1 20 21 27 AND
2 1 20 24 28 XOR
2 1 21 25 29 XOR
2 1 22 26 30 XOR
2 1 23 27 31 XOR
`

func loadSPNetwork(t *testing.T) *circuit.Circuit {
	t.Helper()
	c, err := circuit.ParseBristol(strings.NewReader(spNetworkBristol))
	if err != nil {
		t.Fatalf("ParseBristol: %v", err)
	}
	return c
}

// freshDelta draws a random Block and forces its LSB to 1, the
// garbler's free-XOR offset invariant.
func freshDelta(t *testing.T) block.Block {
	t.Helper()
	d, err := block.Random(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return d.SetLSB(true)
}

func freshZeroLabels(t *testing.T, ids []int) []WireLabel {
	t.Helper()
	out := make([]WireLabel, len(ids))
	for i, id := range ids {
		l, err := block.Random(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = WireLabel{ID: id, Label: l}
	}
	return out
}

func bitsOf(v int, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = (v>>uint(i))&1 == 1
	}
	return out
}

func bitsToInt(bits []bool) int64 {
	var v int64
	for i, b := range bits {
		if b {
			v |= 1 << uint(i)
		}
	}
	return v
}

// runAdder garbles and evaluates the adder circuit end-to-end in
// memory for operands a, b, returning the decoded plaintext sum.
func runAdder(t *testing.T, a, b int) int64 {
	t.Helper()
	c := loadAdder4(t)
	delta := freshDelta(t)

	inputIDs := make([]int, c.Inputs.Size())
	for i := range inputIDs {
		inputIDs[i] = i
	}
	zeroLabels := freshZeroLabels(t, inputIDs)

	garbler := NewGarbler(delta)
	gc, err := garbler.Garble(rand.Reader, c, zeroLabels)
	if err != nil {
		t.Fatalf("Garble: %v", err)
	}

	bits := append(bitsOf(a, 4), bitsOf(b, 4)...)
	valueLabels, err := Encode(zeroLabels, bits, delta)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	evaluator := NewEvaluator()
	outLabels, err := evaluator.Eval(c, gc.Table, valueLabels)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}

	decodeInfo := garbler.Finalize(gc.OutputZeroLabels)
	decoded, err := evaluator.Finalize(outLabels, decodeInfo)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	return bitsToInt(decoded)
}

func TestGarbledEvalMatchesPlaintext(t *testing.T) {
	c := loadAdder4(t)

	for a := 0; a < 16; a += 3 {
		for b := 0; b < 16; b += 5 {
			got := runAdder(t, a, b)

			in := big.NewInt(int64(a) | int64(b)<<4)
			want, err := c.Evaluate(in)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != want.Int64() {
				t.Fatalf("garbled eval(%d,%d) = %d, want %d (plaintext)",
					a, b, got, want.Int64())
			}
		}
	}
}

// runSPNetwork garbles and evaluates the toy cipher end-to-end for
// plaintext p and key k, returning the decoded ciphertext.
func runSPNetwork(t *testing.T, p, k int) int64 {
	t.Helper()
	c := loadSPNetwork(t)
	delta := freshDelta(t)

	inputIDs := make([]int, c.Inputs.Size())
	for i := range inputIDs {
		inputIDs[i] = i
	}
	zeroLabels := freshZeroLabels(t, inputIDs)

	garbler := NewGarbler(delta)
	gc, err := garbler.Garble(rand.Reader, c, zeroLabels)
	if err != nil {
		t.Fatalf("Garble: %v", err)
	}

	bits := append(bitsOf(p, 4), bitsOf(k, 4)...)
	valueLabels, err := Encode(zeroLabels, bits, delta)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	evaluator := NewEvaluator()
	outLabels, err := evaluator.Eval(c, gc.Table, valueLabels)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}

	decodeInfo := garbler.Finalize(gc.OutputZeroLabels)
	decoded, err := evaluator.Finalize(outLabels, decodeInfo)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	return bitsToInt(decoded)
}

func TestGarbledSPNetworkMatchesPlaintext(t *testing.T) {
	c := loadSPNetwork(t)

	for p := 0; p < 16; p++ {
		for k := 0; k < 16; k += 3 {
			got := runSPNetwork(t, p, k)

			in := big.NewInt(int64(p) | int64(k)<<4)
			want, err := c.Evaluate(in)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != want.Int64() {
				t.Fatalf("garbled eval(p=%d,k=%d) = %d, want %d (plaintext)",
					p, k, got, want.Int64())
			}
		}
	}
}

// TestSPNetworkComposition chains the toy cipher into itself -- the
// first pass's ciphertext feeds the second pass's plaintext input,
// with a fresh key -- exercising Compose against an AND-heavy circuit
// rather than the adder TestComposition already covers.
func TestSPNetworkComposition(t *testing.T) {
	c1 := loadSPNetwork(t)
	c2 := loadSPNetwork(t)
	delta := freshDelta(t)

	inputIDs := make([]int, c1.Inputs.Size())
	for i := range inputIDs {
		inputIDs[i] = i
	}
	zeroLabels := freshZeroLabels(t, inputIDs)

	garbler := NewGarbler(delta)
	gc1, err := garbler.Garble(rand.Reader, c1, zeroLabels)
	if err != nil {
		t.Fatalf("Garble c1: %v", err)
	}

	p, k1, k2 := 5, 3, 9

	bits1 := append(bitsOf(p, 4), bitsOf(k1, 4)...)
	valueLabels1, err := Encode(zeroLabels, bits1, delta)
	if err != nil {
		t.Fatalf("Encode c1: %v", err)
	}

	evaluator := NewEvaluator()
	outLabels1, err := evaluator.Eval(c1, gc1.Table, valueLabels1)
	if err != nil {
		t.Fatalf("Eval c1: %v", err)
	}

	// c1's 4-bit ciphertext feeds c2's plaintext input wires 0..3; c2's
	// key wires 4..7 are a fresh, garbler-chosen operand.
	base1 := c1.NumWires - c1.Outputs.Size()
	indicator := make(map[int]int)
	for i := 0; i < 4; i++ {
		indicator[base1+i] = i
	}
	for i := 4; i < 8; i++ {
		indicator[i] = i
	}

	k2IDs := []int{4, 5, 6, 7}
	k2ZeroLabels := freshZeroLabels(t, k2IDs)

	c2InputZeroLabels := make([]WireLabel, 0, 8)
	for _, l := range gc1.OutputZeroLabels {
		c2InputZeroLabels = append(c2InputZeroLabels,
			WireLabel{ID: indicator[l.ID], Label: l.Label})
	}
	c2InputZeroLabels = append(c2InputZeroLabels, k2ZeroLabels...)

	gc2, err := garbler.Compose(c2, c2InputZeroLabels, gc1.Table.PublicOneLabel)
	if err != nil {
		t.Fatalf("Compose (garbler): %v", err)
	}

	k2Bits := bitsOf(k2, 4)
	k2ValueLabels, err := Encode(k2ZeroLabels, k2Bits, delta)
	if err != nil {
		t.Fatalf("Encode k2: %v", err)
	}

	c2InputValueLabels := make([]WireLabel, 0, 8)
	c2InputValueLabels = append(c2InputValueLabels, outLabels1...)
	c2InputValueLabels = append(c2InputValueLabels, k2ValueLabels...)

	outLabels2, err := evaluator.Compose(c2, gc2.Table, c2InputValueLabels, indicator)
	if err != nil {
		t.Fatalf("Compose (evaluator): %v", err)
	}

	decodeInfo := garbler.Finalize(gc2.OutputZeroLabels)
	decoded, err := evaluator.Finalize(outLabels2, decodeInfo)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	got := bitsToInt(decoded)

	firstPass, err := c1.Evaluate(big.NewInt(int64(p) | int64(k1)<<4))
	if err != nil {
		t.Fatalf("Evaluate c1: %v", err)
	}
	want, err := c2.Evaluate(big.NewInt(firstPass.Int64() | int64(k2)<<4))
	if err != nil {
		t.Fatalf("Evaluate c2: %v", err)
	}
	if got != want.Int64() {
		t.Fatalf("composed result = %d, want %d", got, want.Int64())
	}
}

func TestComposition(t *testing.T) {
	// Compose adder4 with itself: feed the first adder's 4-bit sum
	// back in as the "a" operand of a second adder4, alongside a fresh
	// "b" operand, and check the result against adding all three
	// plaintext values mod 16.
	c1 := loadAdder4(t)
	c2 := loadAdder4(t)
	delta := freshDelta(t)

	inputIDs := make([]int, c1.Inputs.Size())
	for i := range inputIDs {
		inputIDs[i] = i
	}
	zeroLabels := freshZeroLabels(t, inputIDs)

	garbler := NewGarbler(delta)
	gc1, err := garbler.Garble(rand.Reader, c1, zeroLabels)
	if err != nil {
		t.Fatalf("Garble c1: %v", err)
	}

	a, b, bPrime := 6, 9, 3

	bits1 := append(bitsOf(a, 4), bitsOf(b, 4)...)
	valueLabels1, err := Encode(zeroLabels, bits1, delta)
	if err != nil {
		t.Fatalf("Encode c1: %v", err)
	}

	evaluator := NewEvaluator()
	outLabels1, err := evaluator.Eval(c1, gc1.Table, valueLabels1)
	if err != nil {
		t.Fatalf("Eval c1: %v", err)
	}

	// indicator covers every one of c2's input wires: c1's 4 output
	// wires (base1..base1+3) feed c2's "a" input wires (0..3); c2's
	// "b" input wires (4..7) are fresh, garbler-chosen inputs mapped
	// to themselves.
	base1 := c1.NumWires - c1.Outputs.Size()
	indicator := make(map[int]int)
	for i := 0; i < 4; i++ {
		indicator[base1+i] = i
	}
	for i := 4; i < 8; i++ {
		indicator[i] = i
	}

	bPrimeIDs := []int{4, 5, 6, 7}
	bPrimeZeroLabels := freshZeroLabels(t, bPrimeIDs)

	// Remap c1's output zero-labels (garbler side) the same way and
	// merge with the fresh b' zero-labels to form c2's full input
	// zero-label set, in wire-id order.
	c2InputZeroLabels := make([]WireLabel, 0, 8)
	for _, l := range gc1.OutputZeroLabels {
		c2InputZeroLabels = append(c2InputZeroLabels,
			WireLabel{ID: indicator[l.ID], Label: l.Label})
	}
	c2InputZeroLabels = append(c2InputZeroLabels, bPrimeZeroLabels...)

	gc2, err := garbler.Compose(c2, c2InputZeroLabels, gc1.Table.PublicOneLabel)
	if err != nil {
		t.Fatalf("Compose (garbler): %v", err)
	}

	bPrimeBits := bitsOf(bPrime, 4)
	bPrimeValueLabels, err := Encode(bPrimeZeroLabels, bPrimeBits, delta)
	if err != nil {
		t.Fatalf("Encode b': %v", err)
	}

	c2InputValueLabels := make([]WireLabel, 0, 8)
	c2InputValueLabels = append(c2InputValueLabels, outLabels1...)
	c2InputValueLabels = append(c2InputValueLabels, bPrimeValueLabels...)

	outLabels2, err := evaluator.Compose(c2, gc2.Table, c2InputValueLabels, indicator)
	if err != nil {
		t.Fatalf("Compose (evaluator): %v", err)
	}

	decodeInfo := garbler.Finalize(gc2.OutputZeroLabels)
	decoded, err := evaluator.Finalize(outLabels2, decodeInfo)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	got := bitsToInt(decoded)
	want := int64((a + b + bPrime) & 0xf)
	if got != want {
		t.Fatalf("composed result = %d, want %d", got, want)
	}
}

func TestMaskAndSendRoundTrip(t *testing.T) {
	c := loadAdder4(t)
	delta := freshDelta(t)

	inputIDs := make([]int, c.Inputs.Size())
	for i := range inputIDs {
		inputIDs[i] = i
	}
	zeroLabels := freshZeroLabels(t, inputIDs)

	garbler := NewGarbler(delta)
	gc, err := garbler.Garble(rand.Reader, c, zeroLabels)
	if err != nil {
		t.Fatalf("Garble: %v", err)
	}

	aux := make([][2]block.Block, len(gc.OutputZeroLabels))
	for i := range aux {
		d0, _ := block.Random(rand.Reader)
		d1, _ := block.Random(rand.Reader)
		aux[i] = [2]block.Block{d0, d1}
	}

	masked, err := MaskSend(gc.OutputZeroLabels, delta, aux)
	if err != nil {
		t.Fatalf("MaskSend: %v", err)
	}

	bits := append(bitsOf(5, 4), bitsOf(10, 4)...)
	valueLabels, err := Encode(zeroLabels, bits, delta)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	evaluator := NewEvaluator()
	outLabels, err := evaluator.Eval(c, gc.Table, valueLabels)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}

	decodeInfo := garbler.Finalize(gc.OutputZeroLabels)
	decoded, err := evaluator.Finalize(outLabels, decodeInfo)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	recovered, err := Unmask(outLabels, decoded, masked)
	if err != nil {
		t.Fatalf("Unmask: %v", err)
	}

	for i, bit := range decoded {
		want := aux[i][boolIdx(bit)]
		if !recovered[i].Equal(want) {
			t.Fatalf("wire %d: recovered %v, want %v", i, recovered[i], want)
		}
	}
}
