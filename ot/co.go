//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package ot

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/channel"
)

// curve is the prime-order group the base OT runs over. P-256 is a
// stdlib-supported NIST curve with a point count that is itself
// prime, so every point returned by UnmarshalCompressed and every
// point produced by curve arithmetic already lies in the full group
// -- there is no cofactor to clear and no small subgroup to land in
// by accident.
var curve = elliptic.P256()

// ErrInvalidPoint is returned when a peer sends a curve point that
// fails to decode or is the point at infinity. The base OT never
// proceeds with an unvalidated point: every point read off the wire
// is checked before it enters the scalar arithmetic below.
var ErrInvalidPoint = errors.New("ot: invalid or out-of-subgroup curve point")

// point is a pair of affine coordinates on curve.
type point struct {
	x, y *big.Int
}

// isInfinity reports whether p is the point at infinity, which Go's
// elliptic package represents as (0, 0).
func (p point) isInfinity() bool {
	return p.x.Sign() == 0 && p.y.Sign() == 0
}

func marshalPoint(p point) []byte {
	return elliptic.MarshalCompressed(curve, p.x, p.y)
}

// unmarshalPoint decodes a compressed point and rejects anything that
// does not land on curve, including the point at infinity -- the
// subgroup-membership check a Chou-Orlandi receiver and sender must
// both apply to every point the peer sends.
func unmarshalPoint(data []byte) (point, error) {
	x, y := elliptic.UnmarshalCompressed(curve, data)
	if x == nil {
		return point{}, ErrInvalidPoint
	}
	p := point{x: x, y: y}
	if p.isInfinity() {
		return point{}, ErrInvalidPoint
	}
	return p, nil
}

func scalarMult(p point, k []byte) point {
	x, y := curve.ScalarMult(p.x, p.y, k)
	return point{x: x, y: y}
}

func baseMult(k []byte) point {
	x, y := curve.ScalarBaseMult(k)
	return point{x: x, y: y}
}

func addPoints(a, b point) point {
	x, y := curve.Add(a.x, a.y, b.x, b.y)
	return point{x: x, y: y}
}

// negate returns -p, the reflection of p across the x-axis.
func negate(p point) point {
	if p.isInfinity() {
		return p
	}
	return point{x: p.x, y: new(big.Int).Sub(curve.Params().P, p.y)}
}

func randScalar() ([]byte, error) {
	k, err := rand.Int(rand.Reader, curve.Params().N)
	if err != nil {
		return nil, err
	}
	return k.Bytes(), nil
}

// tweakHash derives a domain-separated mask from a monotone 128-bit
// tweak and a curve point, by hashing the tweak's big-endian encoding
// together with the point's compressed form and truncating the digest
// to a Block. Sender and receiver must call this with matching
// tweaks, two per OT index (one per message slot), for the two sides'
// masks to agree.
func tweakHash(tweak block.Block, p point) block.Block {
	tb := tweak.Bytes()
	h := sha256.New()
	h.Write(tb[:])
	h.Write(marshalPoint(p))
	digest := h.Sum(nil)
	return block.FromBytes(digest[:16])
}

// CO is a Chou-Orlandi base OT endpoint. A single CO value plays
// either the sender or the receiver role for one session, set up by
// calling exactly one of InitSender or InitReceiver. Its tweak counter
// starts at zero and advances by two per OT index, so a sender and
// receiver that process the same number of OTs in the same order
// derive matching masks without any extra coordination.
type CO struct {
	conn  *channel.Conn
	tweak uint64
	y     []byte // sender's scalar, set by InitSender
	bigS  point  // sender's S = yB, cached for Send
	bigT  point  // sender's T = yS, cached for Send
}

// NewCO creates a CO endpoint bound to conn. Exactly one of
// InitSender or InitReceiver must be called on it before Send or
// Receive.
func NewCO(conn *channel.Conn) *CO {
	return &CO{conn: conn}
}

func (co *CO) nextTweak() block.Block {
	t := block.Block{Lo: co.tweak}
	co.tweak++
	return t
}

// InitSender samples the sender's secret scalar y, computes S = yB
// over the curve's base point B, and sends S to the receiver.
func (co *CO) InitSender() error {
	y, err := randScalar()
	if err != nil {
		return err
	}
	co.y = y
	co.bigS = baseMult(y)
	co.bigT = scalarMult(co.bigS, y)

	if err := co.conn.SendData(marshalPoint(co.bigS)); err != nil {
		return err
	}
	return co.conn.Flush()
}

// InitReceiver receives the sender's S = yB and validates that it
// lies on the curve and is not the point at infinity.
func (co *CO) InitReceiver() (point, error) {
	data, err := co.conn.ReceiveData()
	if err != nil {
		return point{}, err
	}
	return unmarshalPoint(data)
}

// Send runs the batched sender side of the protocol for every message
// pair in messages: for each index i it receives R_i, derives the two
// masks k0 = H(i, yR_i) and k1 = H(i, yR_i - T), and sends back the
// masked message pair.
func (co *CO) Send(messages [][2]block.Block) error {
	if co.y == nil {
		return fmt.Errorf("ot: Send called before InitSender")
	}

	rs := make([]point, len(messages))
	for i := range rs {
		data, err := co.conn.ReceiveData()
		if err != nil {
			return err
		}
		p, err := unmarshalPoint(data)
		if err != nil {
			return err
		}
		rs[i] = p
	}

	negT := negate(co.bigT)

	for i, msg := range messages {
		yR := scalarMult(rs[i], co.y)

		tweak0 := co.nextTweak()
		tweak1 := co.nextTweak()

		k0 := tweakHash(tweak0, yR)
		k1 := tweakHash(tweak1, addPoints(yR, negT))

		c0 := msg[0].Xor(k0)
		c1 := msg[1].Xor(k1)

		if err := co.conn.SendBlock(c0); err != nil {
			return err
		}
		if err := co.conn.SendBlock(c1); err != nil {
			return err
		}
	}

	return co.conn.Flush()
}

// Receive runs the batched receiver side of the protocol: it first
// receives the sender's S (via InitReceiver, which the caller must
// have already run), then for each choice bit samples a fresh scalar
// x_i, sends R_i = (choice ? S : O) + x_iB, and finally unmasks the
// message selected by each choice bit from the sender's reply.
func (co *CO) Receive(bigS point, choices []bool) ([]block.Block, error) {
	xs := make([][]byte, len(choices))
	for i, choice := range choices {
		x, err := randScalar()
		if err != nil {
			return nil, err
		}
		xs[i] = x

		r := baseMult(x)
		if choice {
			r = addPoints(r, bigS)
		}
		if err := co.conn.SendData(marshalPoint(r)); err != nil {
			return nil, err
		}
	}
	if err := co.conn.Flush(); err != nil {
		return nil, err
	}

	out := make([]block.Block, len(choices))
	for i, choice := range choices {
		xS := scalarMult(bigS, xs[i])

		tweak0 := co.nextTweak()
		tweak1 := co.nextTweak()

		var k block.Block
		if choice {
			k = tweakHash(tweak1, xS)
		} else {
			k = tweakHash(tweak0, xS)
		}

		c0, err := co.conn.ReceiveBlock()
		if err != nil {
			return nil, err
		}
		c1, err := co.conn.ReceiveBlock()
		if err != nil {
			return nil, err
		}

		if choice {
			out[i] = c1.Xor(k)
		} else {
			out[i] = c0.Xor(k)
		}
	}

	return out, nil
}
