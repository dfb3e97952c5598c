//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Command yao2pcdemo runs a single two-party computation end to end,
// in process, over a channel.Pipe: one goroutine plays the garbler,
// one plays the evaluator, and the evaluator's decoded output is
// printed. It exists to exercise the twopc package's Compute/Finalize
// path with a real circuit file instead of an in-package test
// fixture; it is not a network client and does not listen on a port.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/oblivc/yao2pc/channel"
	"github.com/oblivc/yao2pc/circuit"
	"github.com/oblivc/yao2pc/twopc"
)

func main() {
	file := flag.String("c", "", "Bristol Fashion circuit file")
	a := flag.Int("a", 0, "Garbler's input value")
	b := flag.Int("b", 0, "Evaluator's input value")
	flag.Parse()

	if len(*file) == 0 {
		fmt.Fprintln(os.Stderr, "circuit file not specified (-c)")
		os.Exit(1)
	}

	circ, err := circuit.Parse(*file)
	if err != nil {
		log.Fatalf("failed to parse circuit %q: %s", *file, err)
	}
	fmt.Printf("circuit: %s\n", circ)

	total := circ.Inputs.Size()
	aBits := bitsOf(*a, total/2)
	bBits := bitsOf(*b, total-len(aBits))

	gConn, eConn := channel.Pipe()
	defer gConn.Close()
	defer eConn.Close()

	errCh := make(chan error, 2)

	go func() {
		session, err := twopc.NewGarblerSession(gConn, rand.Reader)
		if err != nil {
			errCh <- err
			return
		}
		if err := session.Compute(circ, aBits); err != nil {
			errCh <- fmt.Errorf("garbler compute: %w", err)
			return
		}
		if _, err := session.Finalize(); err != nil {
			errCh <- fmt.Errorf("garbler finalize: %w", err)
			return
		}
		errCh <- nil
	}()

	var result []bool
	go func() {
		session := twopc.NewEvaluatorSession(eConn, rand.Reader)
		if err := session.Compute(circ, bBits); err != nil {
			errCh <- fmt.Errorf("evaluator compute: %w", err)
			return
		}
		out, err := session.Finalize()
		if err != nil {
			errCh <- fmt.Errorf("evaluator finalize: %w", err)
			return
		}
		result = out
		errCh <- nil
	}()

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("result: %s\n", bitsToInt(result))
}

func bitsOf(v, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = (v>>uint(i))&1 == 1
	}
	return out
}

func bitsToInt(bits []bool) *big.Int {
	out := new(big.Int)
	for i, b := range bits {
		if b {
			out.SetBit(out, i, 1)
		}
	}
	return out
}
