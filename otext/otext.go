//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package otext implements the KOS15 oblivious transfer extension:
// Keller, Orsini and Scholl's malicious-receiver-secure strengthening
// of the IKNP matrix-transpose construction. It turns a handful of
// base OTs (package ot) into as many chosen-message OTs as a 2PC
// session's input phase needs, at the cost of one extra consistency
// check round that catches a receiver who answered the base OTs with
// inconsistent choice bits.
package otext

import (
	"errors"
	"fmt"
	"io"

	"github.com/oblivc/yao2pc/aeshash"
	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/channel"
	"github.com/oblivc/yao2pc/commitment"
	"github.com/oblivc/yao2pc/ot"
)

// K is the extension's security parameter: the number of base OTs run
// once per session, and the bit width of every row/column in the
// IKNP matrix. It is fixed at 128 so each matrix row is exactly one
// block.Block, and so the sender's global correlation vector s can
// itself be represented as a single Block.
const K = 128

// checkRows is the fixed-128 term of the extension's column count: the
// extra, caller-invisible matrix columns the KOS consistency check
// itself consumes, independent of the statistical security margin
// below.
const checkRows = 128

// sigma is the statistical security parameter added on top of
// checkRows: with only checkRows padding columns, a cheating receiver
// who guesses the coin-tossed χ vector gets a non-negligible forgery
// chance, so KOS pads the column count by an extra sigma bits to drive
// that forgery probability down to 2^-sigma. Each extension run
// transposes K x (align8(m)+checkRows+sigma) bits regardless of how
// many real instances m the caller asked for.
const sigma = 40

// align8 rounds n up to the next multiple of 8, so the real instances'
// share of the column count always starts the check/statistical
// padding on a byte boundary.
func align8(n int) int {
	return (n + 7) &^ 7
}

// ErrConsistencyCheck is returned by Sender.Extend when the KOS
// correlation check fails -- the check's arithmetic runs on the
// sender's side (see checkSender); the receiver detects the failure
// only indirectly, by the sender aborting the session.
var ErrConsistencyCheck = errors.New("otext: KOS consistency check failed")

// Sender is the extension-sender endpoint: it holds message pairs it
// is willing to transfer and learns nothing about the receiver's
// choices. One Sender is good for exactly one Extend/Send call: each
// call restarts its per-column PRG streams from the same base-OT
// seeds, so a second call would repeat the first call's pads.
type Sender struct {
	conn  *channel.Conn
	s     block.Block // sender's global correlation vector
	seeds []block.Block
}

// Receiver is the extension-receiver endpoint, holding the real
// choice bits it wants to extend. Like Sender, one Receiver serves
// exactly one Extend/Receive call.
type Receiver struct {
	conn  *channel.Conn
	seed0 []block.Block
	seed1 []block.Block
}

// NewSender runs the K base OTs that bootstrap a sender endpoint:
// it samples a fresh 128-bit correlation vector s and receives, via
// base OT, one seed per bit of s.
func NewSender(conn *channel.Conn, rnd io.Reader) (*Sender, error) {
	s, err := block.Random(rnd)
	if err != nil {
		return nil, err
	}
	choices := blockBits(s)

	base := ot.NewCO(conn)
	bigS, err := base.InitReceiver()
	if err != nil {
		return nil, fmt.Errorf("otext: base OT setup: %w", err)
	}
	seeds, err := base.Receive(bigS, choices)
	if err != nil {
		return nil, fmt.Errorf("otext: base OT: %w", err)
	}

	return &Sender{conn: conn, s: s, seeds: seeds}, nil
}

// NewReceiver runs the K base OTs that bootstrap a receiver endpoint:
// it samples K random seed pairs and sends them, via base OT, to the
// sender.
func NewReceiver(conn *channel.Conn, rnd io.Reader) (*Receiver, error) {
	seed0 := make([]block.Block, K)
	seed1 := make([]block.Block, K)
	pairs := make([][2]block.Block, K)
	for i := 0; i < K; i++ {
		a, err := block.Random(rnd)
		if err != nil {
			return nil, err
		}
		b, err := block.Random(rnd)
		if err != nil {
			return nil, err
		}
		seed0[i], seed1[i] = a, b
		pairs[i] = [2]block.Block{a, b}
	}

	base := ot.NewCO(conn)
	if err := base.InitSender(); err != nil {
		return nil, fmt.Errorf("otext: base OT setup: %w", err)
	}
	if err := base.Send(pairs); err != nil {
		return nil, fmt.Errorf("otext: base OT: %w", err)
	}

	return &Receiver{conn: conn, seed0: seed0, seed1: seed1}, nil
}

// Extend runs the sender side of the matrix transpose and the KOS
// check for m extended instances, returning, for each instance j, the
// pair of keys (K_j^0, K_j^1) that mask the two messages a caller
// wants transferred at index j.
func (s *Sender) Extend(rnd io.Reader, m int) ([][2]block.Block, error) {
	width := align8(m) + checkRows + sigma

	u, err := receiveMatrix(s.conn, K, rowBytes(width))
	if err != nil {
		return nil, err
	}

	columns := make([][]byte, K)
	sBits := blockBits(s.s)
	for i := 0; i < K; i++ {
		rng := aeshash.NewAesRng(s.seeds[i])
		row := make([]byte, rowBytes(width))
		rng.Read(row)
		if sBits[i] {
			xorBytes(row, u[i])
		}
		columns[i] = row
	}

	q := buildRows(columns, width)

	seed, err := commitment.Toss(s.conn, rnd)
	if err != nil {
		return nil, fmt.Errorf("otext: coin toss: %w", err)
	}
	chi := commitment.ExpandVec(seed, width)

	if err := checkSender(s.conn, q, chi, s.s); err != nil {
		return nil, err
	}

	out := make([][2]block.Block, m)
	for j := 0; j < m; j++ {
		k0 := aeshash.TCCRHash(block.Block{Lo: uint64(j)}, q[j])
		k1 := aeshash.TCCRHash(block.Block{Lo: uint64(j)}, q[j].Xor(s.s))
		out[j] = [2]block.Block{k0, k1}
	}
	return out, nil
}

// Extend runs the receiver side of the matrix transpose and the KOS
// check for the given choice bits, returning, per instance, the
// single key K_j = K_j^{choices[j]} the sender derived for that
// instance.
func (r *Receiver) Extend(rnd io.Reader, choices []bool) ([]block.Block, error) {
	m := len(choices)
	width := align8(m) + checkRows + sigma

	rPacked := make([]bool, width)
	copy(rPacked, choices)
	for j := m; j < width; j++ {
		bit, err := block.Random(rnd)
		if err != nil {
			return nil, err
		}
		rPacked[j] = bit.LSB()
	}
	rBytes := packBits(rPacked)

	columns0 := make([][]byte, K)
	u := make([][]byte, K)
	for i := 0; i < K; i++ {
		rng0 := aeshash.NewAesRng(r.seed0[i])
		rng1 := aeshash.NewAesRng(r.seed1[i])
		t0 := make([]byte, rowBytes(width))
		t1 := make([]byte, rowBytes(width))
		rng0.Read(t0)
		rng1.Read(t1)

		ui := make([]byte, rowBytes(width))
		copy(ui, t0)
		xorBytes(ui, t1)
		xorBytes(ui, rBytes)

		columns0[i] = t0
		u[i] = ui
	}

	if err := sendMatrix(r.conn, u); err != nil {
		return nil, err
	}

	t := buildRows(columns0, width)

	seed, err := commitment.TossReceive(r.conn, rnd)
	if err != nil {
		return nil, fmt.Errorf("otext: coin toss: %w", err)
	}
	chi := commitment.ExpandVec(seed, width)

	if err := checkReceiver(r.conn, t, chi, rPacked); err != nil {
		return nil, err
	}

	out := make([]block.Block, m)
	for j := 0; j < m; j++ {
		out[j] = aeshash.TCCRHash(block.Block{Lo: uint64(j)}, t[j])
	}
	return out, nil
}

// Send extends and transfers messages: it derives a key pair per
// message and sends each message pair masked by its keys.
func (s *Sender) Send(rnd io.Reader, messages [][2]block.Block) error {
	keys, err := s.Extend(rnd, len(messages))
	if err != nil {
		return err
	}
	for j, msg := range messages {
		if err := s.conn.SendBlock(msg[0].Xor(keys[j][0])); err != nil {
			return err
		}
		if err := s.conn.SendBlock(msg[1].Xor(keys[j][1])); err != nil {
			return err
		}
	}
	return s.conn.Flush()
}

// Receive extends and completes the transfer for the given choice
// bits, returning message[choices[j]] for each index j.
func (r *Receiver) Receive(rnd io.Reader, choices []bool) ([]block.Block, error) {
	keys, err := r.Extend(rnd, choices)
	if err != nil {
		return nil, err
	}
	out := make([]block.Block, len(choices))
	for j, choice := range choices {
		c0, err := r.conn.ReceiveBlock()
		if err != nil {
			return nil, err
		}
		c1, err := r.conn.ReceiveBlock()
		if err != nil {
			return nil, err
		}
		if choice {
			out[j] = c1.Xor(keys[j])
		} else {
			out[j] = c0.Xor(keys[j])
		}
	}
	return out, nil
}

func rowBytes(width int) int {
	return (width + 7) / 8
}

func blockBits(b block.Block) []bool {
	out := make([]bool, K)
	for i := 0; i < 64; i++ {
		out[i] = (b.Lo>>uint(i))&1 == 1
		out[64+i] = (b.Hi>>uint(i))&1 == 1
	}
	return out
}

func packBits(bits []bool) []byte {
	out := make([]byte, rowBytes(len(bits)))
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func xorBytes(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// sendMatrix writes rows as a single length-prefixed blob, row after
// row, so a K-row matrix costs one round trip regardless of K.
func sendMatrix(conn *channel.Conn, rows [][]byte) error {
	var buf []byte
	for _, row := range rows {
		buf = append(buf, row...)
	}
	if err := conn.SendData(buf); err != nil {
		return err
	}
	return conn.Flush()
}

// receiveMatrix reads a matrix written by sendMatrix, given the
// number of rows and the expected row width in bytes (both sides
// derive these from the extension width agreed on out of band).
func receiveMatrix(conn *channel.Conn, rows, width int) ([][]byte, error) {
	buf, err := conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	if len(buf) != rows*width {
		return nil, fmt.Errorf("otext: matrix size %d, want %d", len(buf), rows*width)
	}
	out := make([][]byte, rows)
	for i := range out {
		out[i] = buf[i*width : (i+1)*width]
	}
	return out, nil
}
