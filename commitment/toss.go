//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package commitment

import (
	"io"

	"github.com/oblivc/yao2pc/aeshash"
	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/channel"
	"golang.org/x/crypto/hkdf"
	"crypto/sha256"
)

// Toss draws fresh randomness from rand and runs the sending half of
// the coin-toss protocol, the common case where the caller has no
// pre-existing seed to contribute.
func Toss(conn *channel.Conn, rand io.Reader) (block.Block, error) {
	seed, err := block.Random(rand)
	if err != nil {
		return block.Zero, err
	}
	r, err := block.Random(rand)
	if err != nil {
		return block.Zero, err
	}
	return Send(conn, seed, r)
}

// TossReceive is the receiver-side counterpart of Toss.
func TossReceive(conn *channel.Conn, rand io.Reader) (block.Block, error) {
	seed, err := block.Random(rand)
	if err != nil {
		return block.Zero, err
	}
	r, err := block.Random(rand)
	if err != nil {
		return block.Zero, err
	}
	return Receive(conn, seed, r)
}

// ExpandVec expands a coin-tossed seed Block into n pseudorandom
// Blocks using an AesRng stream keyed by seed. This is the primary
// derivation path for vectors that must be agreed by both parties
// from a single tossed seed, such as KOS15's χ correlation-check
// vector.
func ExpandVec(seed block.Block, n int) []block.Block {
	return aeshash.NewAesRng(seed).Blocks(n)
}

// ExpandVecHKDF is a secondary, standards-based derivation path for
// the same purpose as ExpandVec, built on HKDF-SHA256 instead of the
// fixed-key-AES stream construction. It exists so that a deployment
// preferring a NIST/RFC-5869 KDF over the AES-CTR-based AesRng has a
// drop-in alternative that derives from the same tossed seed.
func ExpandVecHKDF(seed block.Block, info []byte, n int) ([]block.Block, error) {
	seedBytes := seed.Bytes()
	r := hkdf.New(sha256.New, seedBytes[:], nil, info)

	out := make([]block.Block, n)
	for i := range out {
		var buf [16]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		out[i] = block.FromBytes(buf[:])
	}
	return out, nil
}
