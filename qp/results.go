// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"time"

	"github.com/cpmech/gosl/io"
)

// Status indicates the outcome of a solve
type Status int

const (
	Solved  Status = iota // both KKT residuals within tolerance
	MaxIter               // iteration cap reached; last iterate stored
	Failed                // non-finite residuals or factorization breakdown
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case Solved:
		return "Solved"
	case MaxIter:
		return "MaxIter"
	}
	return "Failed"
}

// Results holds the primal and dual solution in the original (unscaled)
// space
type Results struct {
	X []float64 // primal variables
	Y []float64 // equality multipliers
	Z []float64 // inequality multipliers
}

// Info holds counters, timers and the final accuracies of one solve
type Info struct {
	Status      Status        // outcome
	Iterations  int           // outer (BCL) iterations
	InnerIters  int           // total inner iterations
	MuUpdates   int           // number of penalty updates
	PrimalResid float64       // final primal feasibility (unscaled)
	DualResid   float64       // final dual feasibility (unscaled)
	SetupTime   time.Duration // time spent in Setup
	SolveTime   time.Duration // time spent in Solve
}

// Print shows the solver statistics
func (o *Info) Print() {
	io.Pf("------ SOLVER STATISTICS --------\n")
	io.Pf("status          = %v\n", o.Status)
	io.Pf("outer iterations= %d\n", o.Iterations)
	io.Pf("inner iterations= %d\n", o.InnerIters)
	io.Pf("mu updates      = %d\n", o.MuUpdates)
	io.Pf("primal residual = %g\n", o.PrimalResid)
	io.Pf("dual residual   = %g\n", o.DualResid)
	io.Pf("setup time      = %v\n", o.SetupTime)
	io.Pf("solve time      = %v\n", o.SolveTime)
}
