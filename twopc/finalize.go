//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package twopc

import (
	"github.com/oblivc/yao2pc/block"
	"github.com/oblivc/yao2pc/garble"
)

// Finalize recovers the plaintext circuit output: the garbler sends
// its decoding info and the evaluator XORs it into the LSBs of its
// output value-labels. The garbler's return value is always nil:
// decoding info flows only from garbler to evaluator, and nothing in
// this package sends the decoded output back to the garbler.
//
// Finalize moves the session from Garbled to Decoded.
func (s *Session) Finalize() ([]bool, error) {
	if err := s.requireState(Garbled); err != nil {
		return nil, err
	}

	var (
		decoded []bool
		err     error
	)
	switch s.role {
	case Garbler:
		err = s.finalizeGarbler()
	case Evaluator:
		decoded, err = s.finalizeEvaluator()
	}
	if err != nil {
		return nil, classify(err)
	}

	s.state = Decoded
	return decoded, nil
}

// finalizeGarbler sends, per output wire, its id (8 LE bytes) followed
// by its decode bit as a single byte; the decode bits are not packed.
func (s *Session) finalizeGarbler() error {
	info := s.garbler.Finalize(s.outputZeroLabels)
	for _, d := range info {
		if err := s.conn.SendID(d.ID); err != nil {
			return wrapChannelErr(err)
		}
		if err := s.conn.SendBool(d.DecodeInfo); err != nil {
			return wrapChannelErr(err)
		}
	}
	return wrapChannelErr(s.conn.Flush())
}

func (s *Session) finalizeEvaluator() ([]bool, error) {
	info := make([]garble.OutputDecodeInfo, len(s.outputValueLabels))
	for i := range info {
		id, err := s.conn.ReceiveID()
		if err != nil {
			return nil, wrapChannelErr(err)
		}
		bit, err := s.conn.ReceiveBool()
		if err != nil {
			return nil, wrapChannelErr(err)
		}
		info[i] = garble.OutputDecodeInfo{ID: id, DecodeInfo: bit}
	}

	decoded, err := s.evaluator.Finalize(s.outputValueLabels, info)
	if err != nil {
		return nil, err
	}

	if s.maskedAux != nil {
		aux, err := garble.Unmask(s.outputValueLabels, decoded, s.maskedAux)
		if err != nil {
			return nil, err
		}
		s.recoveredAux = aux
	}

	return decoded, nil
}

// StoreMaskedAux hands the session the garbler's mask-and-send payload
// (see garble.MaskSend) so Finalize unmasks it automatically once
// decoding succeeds. It must be called before Finalize, on the
// evaluator side only; the garbler generates masked directly from
// garble.MaskSend and ships it over its own channel to the evaluator.
func (s *Session) StoreMaskedAux(masked [][2]block.Block) {
	s.maskedAux = masked
}

// RecoverMaskedAux returns the payload StoreMaskedAux's masked pairs
// decrypted to, once Finalize has run. It is nil until then, and nil
// forever if StoreMaskedAux was never called.
func (s *Session) RecoverMaskedAux() []block.Block {
	return s.recoveredAux
}
