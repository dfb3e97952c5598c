//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aeshash

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/oblivc/yao2pc/block"
)

// AesRng is a counter-mode-AES pseudorandom generator, seeded by a
// single 128-bit Block. It implements io.Reader and is forkable: a
// child RNG can be derived from a block drawn from the parent.
type AesRng struct {
	stream cipher.Stream
}

// NewAesRng creates an AesRng seeded with seed.
func NewAesRng(seed block.Block) *AesRng {
	key := seed.Bytes()
	c, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}
	var iv [16]byte
	return &AesRng{stream: cipher.NewCTR(c, iv[:])}
}

// NewAesRngFromReader creates an AesRng seeded with a fresh random
// block drawn from r.
func NewAesRngFromReader(r io.Reader) (*AesRng, error) {
	seed, err := block.Random(r)
	if err != nil {
		return nil, err
	}
	return NewAesRng(seed), nil
}

// NewSeededAesRng is a convenience constructor drawing its seed from
// crypto/rand.
func NewSeededAesRng() (*AesRng, error) {
	return NewAesRngFromReader(rand.Reader)
}

// Read fills p with pseudorandom bytes. It always returns len(p), nil.
func (r *AesRng) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.stream.XORKeyStream(p, p)
	return len(p), nil
}

// NextBlock draws the next pseudorandom Block from the stream.
func (r *AesRng) NextBlock() block.Block {
	var buf [16]byte
	r.Read(buf[:])
	return block.FromBytes(buf[:])
}

// Fork derives a fresh, independent child RNG seeded from a block
// drawn from r.
func (r *AesRng) Fork() *AesRng {
	return NewAesRng(r.NextBlock())
}

// Blocks draws n pseudorandom blocks from the stream.
func (r *AesRng) Blocks(n int) []block.Block {
	out := make([]block.Block, n)
	for i := range out {
		out[i] = r.NextBlock()
	}
	return out
}
