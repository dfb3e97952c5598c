//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aeshash

import (
	"crypto/rand"
	"testing"

	"github.com/oblivc/yao2pc/block"
)

func randBlock(t *testing.T) block.Block {
	t.Helper()
	b, err := block.Random(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHashesDeterministic(t *testing.T) {
	i := randBlock(t)
	x := randBlock(t)

	if !CRHash(i, x).Equal(CRHash(i, x)) {
		t.Fatal("CRHash not deterministic")
	}
	if !CCRHash(i, x).Equal(CCRHash(i, x)) {
		t.Fatal("CCRHash not deterministic")
	}
	if !TCCRHash(i, x).Equal(TCCRHash(i, x)) {
		t.Fatal("TCCRHash not deterministic")
	}
}

func TestTCCRHashTweakSensitive(t *testing.T) {
	x := randBlock(t)
	i0 := block.Block{Lo: 0}
	i1 := block.Block{Lo: 1}

	if TCCRHash(i0, x).Equal(TCCRHash(i1, x)) {
		t.Fatal("TCCRHash should depend on the tweak")
	}
}

func TestCRHashDistinctFromIdentity(t *testing.T) {
	x := randBlock(t)
	i := randBlock(t)
	if CRHash(i, x).Equal(x) {
		t.Fatal("CRHash(i, x) == x, PRP appears to be identity")
	}
}

func TestAesRngDeterministic(t *testing.T) {
	seed := randBlock(t)
	a := NewAesRng(seed).Blocks(8)
	b := NewAesRng(seed).Blocks(8)
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("stream %d: %v != %v for same seed", i, a[i], b[i])
		}
	}
}

func TestAesRngDifferentSeeds(t *testing.T) {
	a := NewAesRng(block.Block{Lo: 1}).Blocks(64)
	b := NewAesRng(block.Block{Lo: 2}).Blocks(64)
	same := 0
	for i := range a {
		if a[i].Equal(b[i]) {
			same++
		}
	}
	if same > 0 {
		t.Fatalf("%d/64 blocks collided across distinct seeds", same)
	}
}

func TestAesRngFork(t *testing.T) {
	parent := NewAesRng(randBlock(t))
	child1 := parent.Fork()
	// Forking again from the (now-advanced) parent must give a
	// different child.
	child2 := parent.Fork()

	b1 := child1.NextBlock()
	b2 := child2.NextBlock()
	if b1.Equal(b2) {
		t.Fatal("two forks produced identical streams")
	}
}
