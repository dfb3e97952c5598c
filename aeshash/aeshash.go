//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package aeshash implements fixed-key AES used as a pseudorandom
// permutation, and the correlation-robust hash family built on top of
// it (cf. https://eprint.iacr.org/2019/074, §7).
package aeshash

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/oblivc/yao2pc/block"
)

// PRP is a keyed 128-bit pseudorandom permutation backed by AES128.
// A PRP is immutable after construction and safe for concurrent use
// by multiple goroutines, the same way a single session shares one
// fixed-key AES instance across its garbler and evaluator halves.
type PRP struct {
	cipher cipher.Block
}

// NewPRP creates a PRP keyed with key.
func NewPRP(key block.Block) *PRP {
	k := key.Bytes()
	c, err := aes.NewCipher(k[:])
	if err != nil {
		// aes.NewCipher only fails on bad key length, and our key is
		// always exactly 16 bytes.
		panic(err)
	}
	return &PRP{cipher: c}
}

// Encrypt evaluates π(x).
func (p *PRP) Encrypt(x block.Block) block.Block {
	var buf [16]byte
	x.PutBytes(buf[:])
	p.cipher.Encrypt(buf[:], buf[:])
	return block.FromBytes(buf[:])
}

// Fixed is the process-wide fixed-key AES instance, keyed with the
// public constant zero block. All parties in a session use this same
// instance so their hash tweaks line up without any key exchange.
var Fixed = NewPRP(block.Zero)

// CRHash is the correlation-robust hash cr_hash(i, x) = π(x) ⊕ x. The
// tweak i is unused by this variant; it is accepted so callers can
// use CRHash, CCRHash and TCCRHash interchangeably.
func CRHash(i, x block.Block) block.Block {
	return Fixed.crHash(x)
}

func (p *PRP) crHash(x block.Block) block.Block {
	return p.Encrypt(x).Xor(x)
}

// sigma implements σ(x0‖x1) = (x0 ⊕ x1)‖x1.
func sigma(x block.Block) block.Block {
	return block.Block{Hi: x.Hi ^ x.Lo, Lo: x.Lo}
}

// CCRHash is the circular correlation-robust hash
// ccr_hash(i, x) = cr_hash(i, σ(x)).
func CCRHash(i, x block.Block) block.Block {
	return Fixed.crHash(sigma(x))
}

// TCCRHash is the tweakable circular correlation-robust hash used by
// half-gates, tccr_hash(i, x) = π(π(x) ⊕ i) ⊕ π(x). Every AND gate
// uses a fresh tweak i so the two encryptions underneath can share
// this one keyed PRP without a per-gate key schedule.
func TCCRHash(i, x block.Block) block.Block {
	return Fixed.tccrHash(i, x)
}

func (p *PRP) tccrHash(i, x block.Block) block.Block {
	y := p.Encrypt(x)
	z := p.Encrypt(y.Xor(i))
	return y.Xor(z)
}
