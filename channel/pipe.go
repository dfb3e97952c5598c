//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package channel

import (
	"io"
)

// Pipe creates a pair of in-process, connected Conns: anything sent on
// one can be received from the other. It is the channel used by unit
// tests and by single-process demos to run both halves of a 2PC
// session without any real network transport.
func Pipe() (*Conn, *Conn) {
	var p0, p1 pipe

	p0.r, p1.w = io.Pipe()
	p1.r, p0.w = io.Pipe()

	return NewConn(&p0), NewConn(&p1)
}

type pipe struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipe) Close() error {
	if err := p.r.Close(); err != nil {
		return err
	}
	return p.w.Close()
}

func (p *pipe) Read(data []byte) (n int, err error) {
	return p.r.Read(data)
}

func (p *pipe) Write(data []byte) (n int, err error) {
	return p.w.Write(data)
}
