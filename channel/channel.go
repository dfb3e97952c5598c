//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package channel implements the transport-agnostic binary channel
// that the OT, OT extension, and 2PC driver layers send
// their messages over. It is intentionally ignorant of sockets: a
// Conn wraps any io.ReadWriter, so the same protocol code runs over an
// in-process Pipe in tests and over a real network connection in a
// caller-supplied transport.
package channel

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/oblivc/yao2pc/block"
)

// Conn is a buffered binary connection. Byte strings and Block runs
// are length-prefixed; single Blocks, bools and ids are written
// unframed. All Send* calls are buffered; callers must call Flush to
// push pending writes to the underlying transport.
type Conn struct {
	closer io.Closer
	io     *bufio.ReadWriter
	Stats  IOStats
}

// IOStats tracks bytes sent and received over a Conn, for reporting
// communication cost alongside gate counts and timings.
type IOStats struct {
	Sent  uint64
	Recvd uint64
}

// Sub returns stats-o, field by field. Useful for measuring the
// traffic generated by a single phase of a protocol.
func (stats IOStats) Sub(o IOStats) IOStats {
	return IOStats{
		Sent:  stats.Sent - o.Sent,
		Recvd: stats.Recvd - o.Recvd,
	}
}

// Sum returns the total bytes moved in either direction.
func (stats IOStats) Sum() uint64 {
	return stats.Sent + stats.Recvd
}

// NewConn wraps conn in a buffered Conn. If conn also implements
// io.Closer, Close propagates to it.
func NewConn(conn io.ReadWriter) *Conn {
	closer, _ := conn.(io.Closer)

	return &Conn{
		closer: closer,
		io: bufio.NewReadWriter(bufio.NewReader(conn),
			bufio.NewWriter(conn)),
	}
}

// Flush pushes all buffered writes to the underlying transport.
func (c *Conn) Flush() error {
	return c.io.Flush()
}

// Close flushes and closes the underlying transport, if closeable.
func (c *Conn) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// SendUint32 writes a 4-byte big-endian length or count field.
func (c *Conn) SendUint32(val int) error {
	err := binary.Write(c.io, binary.BigEndian, uint32(val))
	if err != nil {
		return err
	}
	c.Stats.Sent += 4
	return nil
}

// SendData writes a length-prefixed byte string.
func (c *Conn) SendData(val []byte) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	if _, err := c.io.Write(val); err != nil {
		return err
	}
	c.Stats.Sent += uint64(len(val))
	return nil
}

// ReceiveUint32 reads a 4-byte big-endian length or count field.
func (c *Conn) ReceiveUint32() (int, error) {
	var buf [4]byte

	if _, err := io.ReadFull(c.io, buf[:]); err != nil {
		return 0, err
	}
	c.Stats.Recvd += 4

	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// ReceiveData reads a length-prefixed byte string written by SendData.
func (c *Conn) ReceiveData() ([]byte, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}

	result := make([]byte, n)
	if _, err := io.ReadFull(c.io, result); err != nil {
		return nil, err
	}
	c.Stats.Recvd += uint64(n)

	return result, nil
}

// SendBlock writes a Block as its raw, unframed 16-byte encoding.
// Blocks flow in bulk (garbled tables, OT batches) where a per-value
// length prefix would be pure overhead.
func (c *Conn) SendBlock(b block.Block) error {
	buf := b.Bytes()
	if _, err := c.io.Write(buf[:]); err != nil {
		return err
	}
	c.Stats.Sent += 16
	return nil
}

// ReceiveBlock reads a Block written by SendBlock.
func (c *Conn) ReceiveBlock() (block.Block, error) {
	var buf [16]byte
	if _, err := io.ReadFull(c.io, buf[:]); err != nil {
		return block.Zero, err
	}
	c.Stats.Recvd += 16
	return block.FromBytes(buf[:]), nil
}

// SendBlocks writes a count-prefixed run of Blocks.
func (c *Conn) SendBlocks(blocks []block.Block) error {
	if err := c.SendUint32(len(blocks)); err != nil {
		return err
	}
	for _, b := range blocks {
		if err := c.SendBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveBlocks reads a run of Blocks written by SendBlocks.
func (c *Conn) ReceiveBlocks() ([]block.Block, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	result := make([]block.Block, n)
	for i := range result {
		result[i], err = c.ReceiveBlock()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// SendBool writes a single boolean as one byte. Used for sparse,
// latency-sensitive bits (decode outputs, protocol acks); bulk bit
// vectors should use SendBits instead.
func (c *Conn) SendBool(v bool) error {
	var b [1]byte
	if v {
		b[0] = 1
	}
	if _, err := c.io.Write(b[:]); err != nil {
		return err
	}
	c.Stats.Sent++
	return nil
}

// ReceiveBool reads a boolean written by SendBool.
func (c *Conn) ReceiveBool() (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(c.io, b[:]); err != nil {
		return false, err
	}
	c.Stats.Recvd++
	return b[0] != 0, nil
}

// SendID writes a wire/instance id as 8 raw little-endian bytes, the
// encoding the 2PC driver uses for wire ids alongside big-endian
// Blocks -- an intentional asymmetry carried over from the wire
// format the garbler and evaluator agree on for input-label messages.
func (c *Conn) SendID(id int) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	if _, err := c.io.Write(buf[:]); err != nil {
		return err
	}
	c.Stats.Sent += 8
	return nil
}

// ReceiveID reads an id written by SendID.
func (c *Conn) ReceiveID() (int, error) {
	var buf [8]byte
	if _, err := io.ReadFull(c.io, buf[:]); err != nil {
		return 0, err
	}
	c.Stats.Recvd += 8
	return int(binary.LittleEndian.Uint64(buf[:])), nil
}

// SendBits packs a slice of bits LSB-first into bytes and writes them
// prefixed by the bit count, as a length-prefixed byte string.
func (c *Conn) SendBits(bits []bool) error {
	packed := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	if err := c.SendUint32(len(bits)); err != nil {
		return err
	}
	return c.SendData(packed)
}

// ReceiveBits reads a bit vector written by SendBits.
func (c *Conn) ReceiveBits() ([]bool, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	packed, err := c.ReceiveData()
	if err != nil {
		return nil, err
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = packed[i/8]&(1<<uint(i%8)) != 0
	}
	return bits, nil
}
