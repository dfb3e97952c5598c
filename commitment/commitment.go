//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package commitment implements a SHA-256 hash commitment scheme and
// the commit-then-open coin-toss protocol built on top of it, used
// whenever two parties must agree on a public random value (KOS15's χ
// vector, session seeds) without either side being able to bias the
// result by choosing its contribution last.
package commitment

import (
	"crypto/sha256"
	"errors"

	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/channel"
)

// ErrCommitmentMismatch is returned by Send and Receive (and so by
// Toss and TossReceive) when a peer's opening
// does not match the commitment it sent earlier. This always means
// the peer is faulty or actively cheating; there is no retry.
var ErrCommitmentMismatch = errors.New("commitment: opening does not match commitment")

// Commit computes a binding, hiding commitment to input under the
// random opening r: SHA-256(input || r).
func Commit(input, r []byte) [32]byte {
	h := sha256.New()
	h.Write(input)
	h.Write(r)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Check verifies that (input, r) opens commitment com.
func Check(input, r []byte, com [32]byte) bool {
	return Commit(input, r) == com
}

// Send runs the sending half of the coin-toss protocol over conn,
// contributing seed as this party's share of the final random value.
// It returns the agreed Block, equal to seed XOR the peer's seed, or
// ErrCommitmentMismatch if the peer's opening fails to check.
func Send(conn *channel.Conn, seed, r block.Block) (block.Block, error) {
	seedBytes := seed.Bytes()
	rBytes := r.Bytes()

	com := Commit(seedBytes[:], rBytes[:])
	if err := conn.SendData(com[:]); err != nil {
		return block.Zero, err
	}
	if err := conn.Flush(); err != nil {
		return block.Zero, err
	}

	peerCom, err := conn.ReceiveData()
	if err != nil {
		return block.Zero, err
	}
	peerOpening, err := conn.ReceiveData()
	if err != nil {
		return block.Zero, err
	}
	if len(peerOpening) != 32 {
		return block.Zero, errors.New("commitment: malformed opening")
	}
	peerSeed := block.FromBytes(peerOpening[0:16])
	peerR := peerOpening[16:32]

	var peerComFixed [32]byte
	copy(peerComFixed[:], peerCom)
	if !Check(peerOpening[0:16], peerR, peerComFixed) {
		return block.Zero, ErrCommitmentMismatch
	}

	opening := append(append([]byte{}, seedBytes[:]...), rBytes[:]...)
	if err := conn.SendData(opening); err != nil {
		return block.Zero, err
	}
	if err := conn.Flush(); err != nil {
		return block.Zero, err
	}

	return seed.Xor(peerSeed), nil
}

// Receive runs the receiving half of the coin-toss protocol over
// conn, contributing seed as this party's share. It returns the
// agreed Block, equal to seed XOR the peer's seed, or
// ErrCommitmentMismatch if the peer's opening fails to check.
func Receive(conn *channel.Conn, seed, r block.Block) (block.Block, error) {
	peerCom, err := conn.ReceiveData()
	if err != nil {
		return block.Zero, err
	}

	seedBytes := seed.Bytes()
	rBytes := r.Bytes()

	com := Commit(seedBytes[:], rBytes[:])
	if err := conn.SendData(com[:]); err != nil {
		return block.Zero, err
	}

	opening := append(append([]byte{}, seedBytes[:]...), rBytes[:]...)
	if err := conn.SendData(opening); err != nil {
		return block.Zero, err
	}
	if err := conn.Flush(); err != nil {
		return block.Zero, err
	}

	peerOpening, err := conn.ReceiveData()
	if err != nil {
		return block.Zero, err
	}
	if len(peerOpening) != 32 {
		return block.Zero, errors.New("commitment: malformed opening")
	}
	peerSeed := block.FromBytes(peerOpening[0:16])
	peerR := peerOpening[16:32]

	var peerComFixed [32]byte
	copy(peerComFixed[:], peerCom)
	if !Check(peerOpening[0:16], peerR, peerComFixed) {
		return block.Zero, ErrCommitmentMismatch
	}

	return seed.Xor(peerSeed), nil
}
