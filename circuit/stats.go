//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"io"
	"strconv"

	"github.com/markkurossi/tabulate"
)

// PrintStats renders a one-row gate-count table for this circuit to
// w: XOR/AND/INV counts, total gates, and total wires. It is the
// circuit-level half of the same reporting the 2PC session driver
// uses for its end-to-end byte-transfer summary.
func (c *Circuit) PrintStats(w io.Writer, name string) {
	tab := tabulate.New(tabulate.Github)
	tab.Header("Circuit")
	tab.Header("XOR").SetAlign(tabulate.MR)
	tab.Header("AND").SetAlign(tabulate.MR)
	tab.Header("INV").SetAlign(tabulate.MR)
	tab.Header("Gates").SetAlign(tabulate.MR)
	tab.Header("Wires").SetAlign(tabulate.MR)

	row := tab.Row()
	row.Column(name)
	row.Column(strconv.Itoa(c.Stats[XOR]))
	row.Column(strconv.Itoa(c.Stats[AND]))
	row.Column(strconv.Itoa(c.Stats[INV]))
	row.Column(strconv.Itoa(c.NumGates))
	row.Column(strconv.Itoa(c.NumWires))

	tab.Print(w)
}
