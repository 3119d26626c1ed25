// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"
	"strings"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/proxqp/inp"
	"github.com/cpmech/proxqp/qp"
)

// exit codes
const (
	exitSolved            = 0
	exitMaxIter           = 1
	exitDimensionMismatch = 2
	exitNotPSD            = 3
)

func main() {

	// options
	verbose := flag.Bool("v", false, "show the iteration table")
	identity := flag.Bool("noscale", false, "skip Ruiz equilibration")
	stats := flag.Bool("stats", true, "print solver statistics")
	rndN := flag.Int("rand", 0, "solve a random problem of this size instead of reading a file")
	rndNeq := flag.Int("neq", 0, "number of equality constraints of the random problem")
	rndNin := flag.Int("nin", 0, "number of inequality constraints of the random problem")
	rndSparse := flag.Bool("sparse", false, "use the sparse backend for the random problem")
	seed := flag.Int("seed", 0, "seed of the random problem")
	flag.Parse()

	// message
	io.PfWhite("\nProxqp -- proximal augmented-Lagrangian QP solver\n\n")

	// problem
	var p *inp.Prob
	var err error
	if *rndN > 0 {
		p = inp.NewRandomProb(*rndN, *rndNeq, *rndNin, *rndSparse, *seed)
	} else {
		if len(flag.Args()) < 1 {
			io.PfRed("please provide a problem filename. Ex.: problem.qp\n")
			os.Exit(exitDimensionMismatch)
		}
		fnamepath := flag.Arg(0)
		if io.FnExt(fnamepath) == "" {
			fnamepath += ".qp"
		}
		p, err = inp.ReadProb(fnamepath)
		if err != nil {
			io.PfRed("ERROR: %v\n", err)
			os.Exit(exitDimensionMismatch)
		}
	}

	// settings
	set := new(inp.Settings)
	set.SetDefaults()
	set.Verbose = *verbose

	// solver
	solver := qp.New(p.Ndim, p.Neq, p.Nin)
	pmode := qp.PrecondExecute
	if *identity {
		pmode = qp.PrecondIdentity
	}
	err = solver.Setup(p, set, pmode)
	if err != nil {
		io.PfRed("ERROR: %v\n", err)
		os.Exit(exitcode(err))
	}
	err = solver.Solve()
	if err != nil {
		io.PfRed("ERROR: %v\n", err)
		os.Exit(exitcode(err))
	}

	// report
	if *stats {
		solver.Info.Print()
	}
	if solver.Info.Status == qp.Solved {
		os.Exit(exitSolved)
	}
	os.Exit(exitMaxIter)
}

// exitcode classifies an error into a CLI exit code
func exitcode(err error) int {
	msg := err.Error()
	if strings.Contains(msg, "dimension mismatch") {
		return exitDimensionMismatch
	}
	if strings.Contains(msg, "positive semidefinite") {
		return exitNotPSD
	}
	return exitMaxIter
}
