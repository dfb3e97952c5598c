//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package twopc

import (
	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/circuit"
	"github.com/oblivc/yao2pc/garble"
	"github.com/oblivc/yao2pc/otext"
)

// Compose feeds a prior Compute (or Compose) result into another
// circuit without a second OT round for the carried wires: indicator
// maps each of the previous circuit's output wire ids to one of circ's
// input wire ids, covering exactly the first carryCount of them.
// circ's remaining input ids, [carryCount, circ.Inputs.Size()), are
// fresh: myBits supplies this party's share of them, in increasing id
// order, with the garbler's share first and the evaluator's following,
// the same split Compute uses.
//
// Compose continues the session's Δ, public_one_label and tweak
// counter, so free-XOR identities established by the first garbling
// still hold across the junction. It must be called from Garbled, and
// leaves the session in Garbled again -- for the new circuit.
func (s *Session) Compose(circ *circuit.Circuit, indicator map[int]int,
	carryCount int, myBits []bool) error {

	if err := s.requireState(Garbled); err != nil {
		return err
	}

	var err error
	switch s.role {
	case Garbler:
		err = s.composeGarbler(circ, indicator, carryCount, myBits)
	case Evaluator:
		err = s.composeEvaluator(circ, indicator, carryCount, myBits)
	}
	if err != nil {
		return classify(err)
	}

	return nil
}

func (s *Session) composeGarbler(circ *circuit.Circuit, indicator map[int]int,
	carryCount int, myBits []bool) error {

	total := circ.Inputs.Size()
	newCount := total - carryCount
	evalCount := newCount - len(myBits)
	if newCount < 0 || evalCount < 0 {
		return ErrLengthMismatch
	}

	remapped := make([]garble.WireLabel, len(s.outputZeroLabels))
	for i, l := range s.outputZeroLabels {
		target, ok := indicator[l.ID]
		if !ok {
			return ErrLengthMismatch
		}
		remapped[i] = garble.WireLabel{ID: target, Label: l.Label}
	}

	myZeroLabels, err := freshZeroLabels(s.rand, idRange(carryCount, len(myBits)))
	if err != nil {
		return err
	}
	evalZeroLabels, err := freshZeroLabels(s.rand, idRange(carryCount+len(myBits), evalCount))
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

	merged := append(append(append([]garble.WireLabel{}, remapped...), myZeroLabels...), evalZeroLabels...)
	gc, err := s.garbler.Compose(circ, merged, s.publicOneLabel)
	if err != nil {
		return err
	}

	if err := sendTable(s.conn, gc.Table); err != nil {
		return err
	}

	s.outputZeroLabels = gc.OutputZeroLabels
	return nil
}

func (s *Session) composeEvaluator(circ *circuit.Circuit, indicator map[int]int,
	carryCount int, myBits []bool) error {

	total := circ.Inputs.Size()
	newCount := total - carryCount
	garblerCount := newCount - len(myBits)
	if newCount < 0 || garblerCount < 0 {
		return ErrLengthMismatch
	}

	fullIndicator := make(map[int]int, len(indicator)+newCount)
	for k, v := range indicator {
		fullIndicator[k] = v
	}
	for i := carryCount; i < total; i++ {
		fullIndicator[i] = i
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
		myValueLabels[i] = garble.WireLabel{ID: carryCount + garblerCount + i, Label: l}
	}

	garblerValueLabels, err := receiveWireLabels(s.conn, garblerCount)
	if err != nil {
		return err
	}

	table, err := receiveTable(s.conn)
	if err != nil {
		return err
	}

	merged := append(append(append([]garble.WireLabel{}, s.outputValueLabels...),
		garblerValueLabels...), myValueLabels...)
	outLabels, err := s.evaluator.Compose(circ, table, merged, fullIndicator)
	if err != nil {
		return err
	}

	s.publicOneLabel = table.PublicOneLabel
	s.outputValueLabels = outLabels
	return nil
}
