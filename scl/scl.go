// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package scl implements the preconditioners applied to the QP before
// solving: iterative Ruiz row/column equilibration and the identity
// (no-op) preconditioner.
package scl

import "github.com/cpmech/proxqp/mtx"

// Preconditioner defines the scaling operators required by the solver.
// ScaleProb computes fresh equilibration parameters and scales the problem
// in place; ApplyStored reuses the parameters of a previous ScaleProb.
// Scale followed by the corresponding Unscale is the identity up to
// floating-point roundoff.
type Preconditioner interface {
	ScaleProb(H, A, C mtx.Matrix, g, b, l, u []float64)
	ApplyStored(H, A, C mtx.Matrix, g, b, l, u []float64)

	ScalePrimal(x []float64)
	UnscalePrimal(x []float64)
	ScaleDualEq(y []float64)
	UnscaleDualEq(y []float64)
	ScaleDualIn(z []float64)
	UnscaleDualIn(z []float64)

	ScalePrimalResidEq(r []float64)
	UnscalePrimalResidEq(r []float64)
	ScalePrimalResidIn(r []float64)
	UnscalePrimalResidIn(r []float64)
	ScaleDualResid(r []float64)
	UnscaleDualResid(r []float64)
}

// Identity implements Preconditioner with no-op scalings
type Identity struct{}

func (o *Identity) ScaleProb(H, A, C mtx.Matrix, g, b, l, u []float64)   {}
func (o *Identity) ApplyStored(H, A, C mtx.Matrix, g, b, l, u []float64) {}
func (o *Identity) ScalePrimal(x []float64)                              {}
func (o *Identity) UnscalePrimal(x []float64)                            {}
func (o *Identity) ScaleDualEq(y []float64)                              {}
func (o *Identity) UnscaleDualEq(y []float64)                            {}
func (o *Identity) ScaleDualIn(z []float64)                              {}
func (o *Identity) UnscaleDualIn(z []float64)                            {}
func (o *Identity) ScalePrimalResidEq(r []float64)                       {}
func (o *Identity) UnscalePrimalResidEq(r []float64)                     {}
func (o *Identity) ScalePrimalResidIn(r []float64)                       {}
func (o *Identity) UnscalePrimalResidIn(r []float64)                     {}
func (o *Identity) ScaleDualResid(r []float64)                           {}
func (o *Identity) UnscaleDualResid(r []float64)                         {}
