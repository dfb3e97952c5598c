//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package twopc drives a two-party Yao computation end to end: the
// OT-extension input phase, half-gates garbling and evaluation, output
// decoding, and sequential composition, all over one channel.Conn.
// It is the glue layer that turns the lower packages (ot, otext,
// garble, commitment) into the three operations a caller actually
// wants -- Compute, Finalize, Compose -- without exposing any of their
// internals.
package twopc

import (
	"errors"
	"fmt"
	"io"

	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/commitment"
	"github.com/oblivc/yao2pc/garble"
	"github.com/oblivc/yao2pc/ot"
	"github.com/oblivc/yao2pc/otext"

	"github.com/oblivc/yao2pc/channel"
)

// Role identifies which side of the computation a Session plays.
type Role int

const (
	// Garbler generates the garbled circuit and holds Δ.
	Garbler Role = iota
	// Evaluator receives input labels (by OT and directly) and walks
	// the garbled circuit.
	Evaluator
)

func (r Role) String() string {
	if r == Garbler {
		return "garbler"
	}
	return "evaluator"
}

// State tracks where a Session is in its lifecycle. Compute,
// Finalize, and Compose each check and advance it, so calling them out
// of order is a programming error caught immediately rather than a
// protocol desync discovered later.
type State int

const (
	// Fresh is a Session that has not computed anything yet.
	Fresh State = iota
	// Garbled is a Session that has just finished a Compute call: the
	// garbler holds output zero-labels, the evaluator holds output
	// value-labels, and Finalize or Compose may run next.
	Garbled
	// Decoded is a Session whose plaintext output has been recovered
	// by Finalize. A Decoded session is terminal.
	Decoded
)

// Compose does not introduce a separate state: a session that feeds
// its previous output labels into another garbling via Compose ends
// up back in Garbled, ready for the next Finalize or Compose against
// the new circuit.

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Garbled:
		return "garbled"
	case Decoded:
		return "decoded"
	default:
		return fmt.Sprintf("{State %d}", int(s))
	}
}

// Typed session errors, one per failure the core refuses to recover
// from locally -- every one of them aborts the session outright; there
// is no retry path inside this package.
var (
	ErrOtConsistencyCheckFailed = fmt.Errorf("twopc: OT consistency check failed: %w", otext.ErrConsistencyCheck)
	ErrCommitCheckFailed        = fmt.Errorf("twopc: coin-toss commitment check failed: %w", commitment.ErrCommitmentMismatch)
	ErrInvalidCurvePoint        = fmt.Errorf("twopc: invalid curve point: %w", ot.ErrInvalidPoint)
	ErrLengthMismatch           = errors.New("twopc: length mismatch")
	ErrUnexpectedState          = errors.New("twopc: operation not valid in current session state")
)

// wrapChannelErr tags a transport-level error with a "channel I/O"
// prefix while preserving it for errors.Is/Unwrap; there is no
// dedicated sentinel for transport errors.
func wrapChannelErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("twopc: channel I/O: %w", err)
}

// classify maps an error surfaced by a lower package to the typed
// session error a caller should match against, leaving errors this
// package does not recognize untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, otext.ErrConsistencyCheck):
		return fmt.Errorf("%w", ErrOtConsistencyCheckFailed)
	case errors.Is(err, commitment.ErrCommitmentMismatch):
		return fmt.Errorf("%w", ErrCommitCheckFailed)
	case errors.Is(err, ot.ErrInvalidPoint):
		return fmt.Errorf("%w", ErrInvalidCurvePoint)
	default:
		return err
	}
}

// Session holds the per-computation state shared by Compute, Finalize
// and Compose: the transport, this party's role, the free-XOR offset
// (garbler only), the running garble/eval engines, the public label
// realizing the constant-1 wire, and whatever intermediate labels the
// last Compute call produced for the next Finalize or Compose.
//
// Input-wire convention: for a circuit with a garbler-supplied operand
// and an evaluator-supplied operand, Compute assigns wire ids
// 0..len(garblerBits)-1 to the garbler's bits and the following
// len(evaluatorBits) ids to the evaluator's, matching the order
// Bristol Fashion circuits list their input arguments in. Callers pass
// plaintext bits already split per IOArg; Session does not infer the
// split from circuit.IO itself, since a single session might compute
// over several circuits with different argument shapes across a
// Compose chain.
type Session struct {
	conn  *channel.Conn
	role  Role
	rand  io.Reader
	delta block.Block

	garbler   *garble.Garbler
	evaluator *garble.Evaluator

	publicOneLabel block.Block
	state          State

	// outputZeroLabels is the garbler's retained half of the last
	// Compute/Compose result; nil on the evaluator side.
	outputZeroLabels []garble.WireLabel
	// outputValueLabels is the evaluator's retained half; nil on the
	// garbler side.
	outputValueLabels []garble.WireLabel

	// maskedAux, if set by a caller via StoreMaskedAux, is carried
	// across to Finalize so the evaluator can unmask it once decoding
	// is complete.
	maskedAux    [][2]block.Block
	recoveredAux []block.Block

	stats channel.IOStats
}

// NewGarblerSession creates a Session playing the garbler role. It
// samples a fresh free-XOR offset Δ (LSB forced to 1, the pointer-bit
// invariant every wire label pair must satisfy) and is ready for its
// first Compute call.
func NewGarblerSession(conn *channel.Conn, rand io.Reader) (*Session, error) {
	delta, err := block.Random(rand)
	if err != nil {
		return nil, err
	}
	delta = delta.SetLSB(true)

	return &Session{
		conn:    conn,
		role:    Garbler,
		rand:    rand,
		delta:   delta,
		garbler: garble.NewGarbler(delta),
		state:   Fresh,
		stats:   conn.Stats,
	}, nil
}

// NewEvaluatorSession creates a Session playing the evaluator role.
func NewEvaluatorSession(conn *channel.Conn, rand io.Reader) *Session {
	return &Session{
		conn:      conn,
		role:      Evaluator,
		rand:      rand,
		evaluator: garble.NewEvaluator(),
		state:     Fresh,
		stats:     conn.Stats,
	}
}

// Role reports which side of the computation this session plays.
func (s *Session) Role() Role {
	return s.role
}

// State reports the session's current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Stats returns the channel bytes moved since the session was
// created.
func (s *Session) Stats() channel.IOStats {
	return s.conn.Stats.Sub(s.stats)
}

func (s *Session) requireState(want State) error {
	if s.state != want {
		return fmt.Errorf("%w: have %s, want %s", ErrUnexpectedState, s.state, want)
	}
	return nil
}
