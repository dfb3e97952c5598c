//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package otext

import (
	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/channel"
)

// sum256 accumulates the GF(2^128) inner product of rows and chi
// without reducing modulo the field polynomial, returning the raw
// 256-bit (lo, hi) result. Comparing two such unreduced sums for
// equality is exactly as sound as comparing their reductions: the
// reduction map is GF(2)-linear, so a random chi that would make two
// distinct reduced values collide would equally make the unreduced
// sums collide, and vice versa. Skipping the reduction saves every
// caller from needing a GF(2^128) reduction step at all.
func sum256(rows, chi []block.Block) (lo, hi block.Block) {
	for j := range rows {
		l, h := block.CLMul(chi[j], rows[j])
		lo = lo.Xor(l)
		hi = hi.Xor(h)
	}
	return lo, hi
}

// checkSender runs the sender's half of the KOS consistency check: it
// receives the receiver's (x, t) claim, recomputes q from its own
// rows and chi, and verifies t == q XOR (x * s) over the unreduced
// 256-bit representation. A receiver that answered the K base OTs
// with a choice-bit-dependent x fails this check, except with
// probability bounded by 2^-sigma over the random chi -- the sigma
// extra padding columns in otext.go's width are exactly what drives
// that forgery probability down to the malicious-receiver bound KOS
// requires.
func checkSender(conn *channel.Conn, q, chi []block.Block, s block.Block) error {
	x, err := conn.ReceiveBlock()
	if err != nil {
		return err
	}
	tLo, err := conn.ReceiveBlock()
	if err != nil {
		return err
	}
	tHi, err := conn.ReceiveBlock()
	if err != nil {
		return err
	}

	qLo, qHi := sum256(q, chi)
	xsLo, xsHi := block.CLMul(x, s)

	wantLo := qLo.Xor(xsLo)
	wantHi := qHi.Xor(xsHi)

	if !tLo.Equal(wantLo) || !tHi.Equal(wantHi) {
		return ErrConsistencyCheck
	}
	return nil
}

// checkReceiver runs the receiver's half: it computes x = sum of chi_j
// over rows where r_j is set, and t = the unreduced GF(2^128) inner
// product of its rows with chi, then sends (x, t) to the sender.
func checkReceiver(conn *channel.Conn, rows, chi []block.Block, r []bool) error {
	var x block.Block
	for j, bit := range r {
		if bit {
			x = x.Xor(chi[j])
		}
	}
	tLo, tHi := sum256(rows, chi)

	if err := conn.SendBlock(x); err != nil {
		return err
	}
	if err := conn.SendBlock(tLo); err != nil {
		return err
	}
	if err := conn.SendBlock(tHi); err != nil {
		return err
	}
	return conn.Flush()
}
