//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package twopc

import (
	"io"

	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/channel"
	"github.com/oblivc/yao2pc/circuit"
	"github.com/oblivc/yao2pc/garble"
	"github.com/oblivc/yao2pc/otext"
)

// Compute runs the input phase and garbling/evaluation of circ: bits
// is this party's plaintext operand, in the same bit order circ.Inputs
// expects it. The garbler does not learn the evaluator's operand, and
// the evaluator does not learn the garbler's -- nor does either side
// learn the circuit's output yet; that is Finalize's job.
//
// Compute moves the session from Fresh to Garbled. A session that has
// already computed one circuit continues with Compose, not a second
// Compute call.
func (s *Session) Compute(circ *circuit.Circuit, bits []bool) error {
	if err := s.requireState(Fresh); err != nil {
		return err
	}

	var err error
	switch s.role {
	case Garbler:
		err = s.computeGarbler(circ, bits)
	case Evaluator:
		err = s.computeEvaluator(circ, bits)
	}
	if err != nil {
		return classify(err)
	}

	s.state = Garbled
	return nil
}

// computeGarbler runs the garbler's half: it OT-sends label pairs for
// every evaluator-input wire, sends its own input's value-labels
// directly, garbles the circuit, and ships the table.
func (s *Session) computeGarbler(circ *circuit.Circuit, myBits []bool) error {
	total := circ.Inputs.Size()
	evalCount := total - len(myBits)
	if evalCount < 0 {
		return ErrLengthMismatch
	}

	myZeroLabels, err := freshZeroLabels(s.rand, idRange(0, len(myBits)))
	if err != nil {
		return err
	}
	evalZeroLabels, err := freshZeroLabels(s.rand, idRange(len(myBits), evalCount))
	if err != nil {
		return err
	}

	otSender, err := otext.NewSender(s.conn, s.rand)
	if err != nil {
		return err
	}
	otMessages := make([][2]block.Block, evalCount)
	for i, l := range evalZeroLabels {
		otMessages[i] = [2]block.Block{l.Label, l.Label.Xor(s.delta)}
	}
	if err := otSender.Send(s.rand, otMessages); err != nil {
		return err
	}

	myValueLabels, err := garble.Encode(myZeroLabels, myBits, s.delta)
	if err != nil {
		return err
	}
	if err := sendWireLabels(s.conn, myValueLabels); err != nil {
		return err
	}
	if err := s.conn.Flush(); err != nil {
		return wrapChannelErr(err)
	}

	allZeroLabels := append(append([]garble.WireLabel{}, myZeroLabels...), evalZeroLabels...)
	gc, err := s.garbler.Garble(s.rand, circ, allZeroLabels)
	if err != nil {
		return err
	}

	if err := sendTable(s.conn, gc.Table); err != nil {
		return err
	}

	s.publicOneLabel = gc.Table.PublicOneLabel
	s.outputZeroLabels = gc.OutputZeroLabels
	return nil
}

// computeEvaluator runs the evaluator's half: it OT-receives its own
// input's value-labels, receives the garbler's input value-labels and
// garbled table directly, and evaluates.
func (s *Session) computeEvaluator(circ *circuit.Circuit, myBits []bool) error {
	total := circ.Inputs.Size()
	garblerCount := total - len(myBits)
	if garblerCount < 0 {
		return ErrLengthMismatch
	}

	otReceiver, err := otext.NewReceiver(s.conn, s.rand)
	if err != nil {
		return err
	}
	myLabels, err := otReceiver.Receive(s.rand, myBits)
	if err != nil {
		return err
	}
	myValueLabels := make([]garble.WireLabel, len(myLabels))
	for i, l := range myLabels {
		myValueLabels[i] = garble.WireLabel{ID: garblerCount + i, Label: l}
	}

	garblerValueLabels, err := receiveWireLabels(s.conn, garblerCount)
	if err != nil {
		return err
	}

	table, err := receiveTable(s.conn)
	if err != nil {
		return err
	}

	allValueLabels := append(append([]garble.WireLabel{}, garblerValueLabels...), myValueLabels...)
	outLabels, err := s.evaluator.Eval(circ, table, allValueLabels)
	if err != nil {
		return err
	}

	s.publicOneLabel = table.PublicOneLabel
	s.outputValueLabels = outLabels
	return nil
}

func idRange(base, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = base + i
	}
	return ids
}

func freshZeroLabels(rand io.Reader, ids []int) ([]garble.WireLabel, error) {
	out := make([]garble.WireLabel, len(ids))
	for i, id := range ids {
		l, err := block.Random(rand)
		if err != nil {
			return nil, err
		}
		out[i] = garble.WireLabel{ID: id, Label: l}
	}
	return out, nil
}

// sendWireLabels writes each label's id (8 LE bytes) then its 16-byte
// Block, in order -- the wire-id/label framing of the garbler's
// direct-send input labels.
func sendWireLabels(conn *channel.Conn, labels []garble.WireLabel) error {
	for _, l := range labels {
		if err := conn.SendID(l.ID); err != nil {
			return wrapChannelErr(err)
		}
		if err := conn.SendBlock(l.Label); err != nil {
			return wrapChannelErr(err)
		}
	}
	return nil
}

func receiveWireLabels(conn *channel.Conn, n int) ([]garble.WireLabel, error) {
	out := make([]garble.WireLabel, n)
	for i := range out {
		id, err := conn.ReceiveID()
		if err != nil {
			return nil, wrapChannelErr(err)
		}
		label, err := conn.ReceiveBlock()
		if err != nil {
			return nil, wrapChannelErr(err)
		}
		out[i] = garble.WireLabel{ID: id, Label: label}
	}
	return out, nil
}

// sendTable ships one garbled circuit's wire-independent output: the
// AND-gate row count, the rows themselves, and the public label that
// realizes the constant-1 wire for INV gates.
func sendTable(conn *channel.Conn, table garble.GarbledTable) error {
	if err := conn.SendUint32(len(table.Table)); err != nil {
		return wrapChannelErr(err)
	}
	for _, row := range table.Table {
		if err := conn.SendBlock(row[0]); err != nil {
			return wrapChannelErr(err)
		}
		if err := conn.SendBlock(row[1]); err != nil {
			return wrapChannelErr(err)
		}
	}
	if err := conn.SendBlock(table.PublicOneLabel); err != nil {
		return wrapChannelErr(err)
	}
	return wrapChannelErr(conn.Flush())
}

func receiveTable(conn *channel.Conn) (garble.GarbledTable, error) {
	n, err := conn.ReceiveUint32()
	if err != nil {
		return garble.GarbledTable{}, wrapChannelErr(err)
	}
	rows := make([][2]block.Block, n)
	for i := range rows {
		a, err := conn.ReceiveBlock()
		if err != nil {
			return garble.GarbledTable{}, wrapChannelErr(err)
		}
		b, err := conn.ReceiveBlock()
		if err != nil {
			return garble.GarbledTable{}, wrapChannelErr(err)
		}
		rows[i] = [2]block.Block{a, b}
	}
	publicOneLabel, err := conn.ReceiveBlock()
	if err != nil {
		return garble.GarbledTable{}, wrapChannelErr(err)
	}
	return garble.GarbledTable{Table: rows, PublicOneLabel: publicOneLabel}, nil
}
