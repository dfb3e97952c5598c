//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package block

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestXorSelfInverse(t *testing.T) {
	a, err := Random(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Random(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Xor(b).Xor(b); !got.Equal(a) {
		t.Fatalf("(a^b)^b = %v, want %v", got, a)
	}
}

func TestAndAllOnes(t *testing.T) {
	a, err := Random(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.And(AllOnes); !got.Equal(a) {
		t.Fatalf("a & all-ones = %v, want %v", got, a)
	}
}

func TestSetLSB(t *testing.T) {
	a := Block{Hi: 0xffffffffffffffff, Lo: 0xfffffffffffffffe}
	if a.LSB() {
		t.Fatal("expected LSB=0 before SetLSB")
	}
	b := a.SetLSB(true)
	if !b.LSB() {
		t.Fatal("SetLSB(true) did not set LSB")
	}
	c := b.SetLSB(false)
	if c.LSB() {
		t.Fatal("SetLSB(false) did not clear LSB")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	a, err := Random(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	buf := a.Bytes()
	got := FromBytes(buf[:])
	if !got.Equal(a) {
		t.Fatalf("round trip failed: got %v, want %v", got, a)
	}
}

func TestZeroBytes(t *testing.T) {
	buf := Zero.Bytes()
	if !bytes.Equal(buf[:], make([]byte, 16)) {
		t.Fatal("zero block did not encode to all-zero bytes")
	}
}

func TestCLMulDistributesOverXor(t *testing.T) {
	a, _ := Random(rand.Reader)
	b, _ := Random(rand.Reader)
	c, _ := Random(rand.Reader)

	lo1, hi1 := CLMul(a, b.Xor(c))
	lo2, hi2 := CLMul(a, b)
	lo3, hi3 := CLMul(a, c)

	if !lo1.Equal(lo2.Xor(lo3)) || !hi1.Equal(hi2.Xor(hi3)) {
		t.Fatal("CLMul(a, b^c) != CLMul(a,b) ^ CLMul(a,c)")
	}
}

func TestCLMulZero(t *testing.T) {
	a, _ := Random(rand.Reader)
	lo, hi := CLMul(a, Zero)
	if !lo.Equal(Zero) || !hi.Equal(Zero) {
		t.Fatal("CLMul(a, 0) != 0")
	}
}

func TestCLMulOne(t *testing.T) {
	a, _ := Random(rand.Reader)
	one := Block{Lo: 1}
	lo, hi := CLMul(a, one)
	if !lo.Equal(a) || !hi.Equal(Zero) {
		t.Fatalf("CLMul(a, 1) = (%v, %v), want (%v, %v)", lo, hi, a, Zero)
	}
}
