//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package commitment

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/channel"
)

func TestCommitCheckRoundTrip(t *testing.T) {
	input := make([]byte, 64)
	for i := range input {
		input[i] = 2
	}
	r := make([]byte, 16)
	for i := range r {
		r[i] = 1
	}

	com := Commit(input, r)
	if !Check(input, r, com) {
		t.Fatal("Check failed on a valid opening")
	}
}

func TestCheckRejectsTamperedInput(t *testing.T) {
	input := []byte("the seed")
	r := []byte("0123456789abcdef")
	com := Commit(input, r)

	if Check([]byte("not the seed...."), r, com) {
		t.Fatal("Check accepted a tampered input")
	}
}

func TestCoinTossAgreement(t *testing.T) {
	a, b := channel.Pipe()
	defer a.Close()
	defer b.Close()

	type result struct {
		val block.Block
		err error
	}
	ch := make(chan result, 1)

	go func() {
		v, err := Toss(a, rand.Reader)
		ch <- result{v, err}
	}()

	v2, err := TossReceive(b, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	r1 := <-ch
	if r1.err != nil {
		t.Fatal(r1.err)
	}

	if !r1.val.Equal(v2) {
		t.Fatalf("sender and receiver disagree: %v != %v", r1.val, v2)
	}
}

func TestCoinTossRejectsTamperedOpening(t *testing.T) {
	a, b := channel.Pipe()
	defer a.Close()
	defer b.Close()

	type result struct {
		val block.Block
		err error
	}
	ch := make(chan result, 1)

	go func() {
		v, err := Toss(a, rand.Reader)
		ch <- result{v, err}
	}()

	// Play the receiver side by hand, committing honestly but then
	// opening to a different seed than the one committed to.
	if _, err := b.ReceiveData(); err != nil {
		t.Fatal(err)
	}

	mySeed, _ := block.Random(rand.Reader)
	myR, _ := block.Random(rand.Reader)
	mySeedBytes := mySeed.Bytes()
	myRBytes := myR.Bytes()
	com := Commit(mySeedBytes[:], myRBytes[:])
	if err := b.SendData(com[:]); err != nil {
		t.Fatal(err)
	}

	otherSeed, _ := block.Random(rand.Reader)
	otherSeedBytes := otherSeed.Bytes()
	bogusOpening := append(append([]byte{}, otherSeedBytes[:]...), myRBytes[:]...)
	if err := b.SendData(bogusOpening); err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}

	res := <-ch
	if !errors.Is(res.err, ErrCommitmentMismatch) {
		t.Fatalf("Toss returned %v, want ErrCommitmentMismatch", res.err)
	}
}

func TestExpandVecDeterministic(t *testing.T) {
	seed, _ := block.Random(rand.Reader)
	a := ExpandVec(seed, 16)
	b := ExpandVec(seed, 16)
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("block %d differs across calls with same seed", i)
		}
	}
}

func TestExpandVecHKDFDeterministic(t *testing.T) {
	seed, _ := block.Random(rand.Reader)
	a, err := ExpandVecHKDF(seed, []byte("kos-chi"), 16)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ExpandVecHKDF(seed, []byte("kos-chi"), 16)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("block %d differs across calls with same seed", i)
		}
	}
}

func TestExpandVecHKDFDistinctFromAesRng(t *testing.T) {
	seed, _ := block.Random(rand.Reader)
	a := ExpandVec(seed, 4)
	b, err := ExpandVecHKDF(seed, []byte("kos-chi"), 4)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range a {
		if !a[i].Equal(b[i]) {
			same = false
		}
	}
	if same {
		t.Fatal("AesRng and HKDF derivation paths produced identical output")
	}
}
