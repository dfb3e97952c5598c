//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package twopc

import (
	"io"
	"strconv"

	"github.com/markkurossi/tabulate"
)

// PrintStats renders a one-row summary of this session's communication
// cost to w: bytes sent, bytes received, and the role that generated
// the row. It is the session-level counterpart of
// circuit.Circuit.PrintStats, sharing its table style so a caller can
// print gate counts and transfer counts side by side.
func (s *Session) PrintStats(w io.Writer, name string) {
	stats := s.Stats()

	tab := tabulate.New(tabulate.Github)
	tab.Header("Session")
	tab.Header("Role")
	tab.Header("Sent").SetAlign(tabulate.MR)
	tab.Header("Recvd").SetAlign(tabulate.MR)
	tab.Header("Total").SetAlign(tabulate.MR)

	row := tab.Row()
	row.Column(name)
	row.Column(s.role.String())
	row.Column(strconv.FormatUint(stats.Sent, 10))
	row.Column(strconv.FormatUint(stats.Recvd, 10))
	row.Column(strconv.FormatUint(stats.Sum(), 10))

	tab.Print(w)
}
