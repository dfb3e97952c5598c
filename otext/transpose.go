//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package otext

import "github.com/oblivc/yao2pc/block"

// buildRows transposes a K x width bit matrix, given column-major as
// K byte slices of rowBytes(width) bytes each, into width row-major
// 128-bit Blocks: row j's bit i is column i's bit j. This is the
// transpose step at the heart of every IKNP-style OT extension --
// each base OT contributes one column of correlated randomness, and
// each row becomes one extended OT instance's correlation value.
func buildRows(columns [][]byte, width int) []block.Block {
	rows := make([]block.Block, width)
	for i, col := range columns {
		for j := 0; j < width; j++ {
			bit := (col[j/8] >> uint(j%8)) & 1
			if bit == 1 {
				setBit(&rows[j], i)
			}
		}
	}
	return rows
}

// setBit sets bit i (0 <= i < 128) of b, with bit 0 the LSB of Lo and
// bit 127 the MSB of Hi.
func setBit(b *block.Block, i int) {
	if i < 64 {
		b.Lo |= 1 << uint(i)
	} else {
		b.Hi |= 1 << uint(i-64)
	}
}
