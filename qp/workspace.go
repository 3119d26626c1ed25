// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import "github.com/cpmech/gosl/la"

// Workspace holds all vectors used during a solve. It is allocated once in
// Setup and reset between solves; nothing is allocated inside the outer
// loop.
type Workspace struct {

	// size ntot = n + neq + nin
	dwAug []float64 // Newton step (augmented)
	rhs   []float64 // right-hand side of the KKT solves
	errv  []float64 // iterative refinement residual

	// size n
	dualResid  []float64 // dual residual (scaled space)
	dualTmp    []float64 // scratch for unscaled norms
	dDualForEq []float64 // directional change of the dual residual
	tmp1       []float64 // H·x
	tmp2       []float64 // Aᵀ·y
	tmp3       []float64 // Cᵀ·z
	gradn      []float64 // proximal gradient (correction mode)
	auxU       []float64 // line-search scratch
	lsDde      []float64 // copy of dDualForEq consumed by localSaddlePoint
	lsDe       []float64 // copy of dualResid consumed by localSaddlePoint
	row        []float64 // one row of A or C
	xe         []float64 // proximal reference point
	hdx        []float64 // H·dx

	// size neq
	primEq  []float64 // equality residual (various shifts, see inner solver)
	dPrimEq []float64 // directional change of the equality residual
	ye      []float64 // proximal reference multipliers
	adx     []float64 // A·dx

	// size nin
	primInU []float64 // upper inequality residual (various shifts)
	primInL []float64 // lower inequality residual
	ze      []float64 // proximal reference multipliers
	zeTmp   []float64 // unscaled copy of ze
	activeZ []float64 // permuted inequality part of the Newton step
	cdx     []float64 // C·dx
	alphas  []float64 // line-search node list
	activeU []bool    // upper active flags
	activeL []bool    // lower active flags
	active  []bool    // union of the active flags
	bijNew  []int     // transition bijection
}

// NewWorkspace allocates all arenas
func NewWorkspace(n, neq, nin int) (o *Workspace) {
	o = new(Workspace)
	nt := n + neq + nin
	o.dwAug = make([]float64, nt)
	o.rhs = make([]float64, nt)
	o.errv = make([]float64, nt)

	o.dualResid = make([]float64, n)
	o.dualTmp = make([]float64, n)
	o.dDualForEq = make([]float64, n)
	o.tmp1 = make([]float64, n)
	o.tmp2 = make([]float64, n)
	o.tmp3 = make([]float64, n)
	o.gradn = make([]float64, n)
	o.auxU = make([]float64, n)
	o.lsDde = make([]float64, n)
	o.lsDe = make([]float64, n)
	o.row = make([]float64, n)
	o.xe = make([]float64, n)
	o.hdx = make([]float64, n)

	o.primEq = make([]float64, neq)
	o.dPrimEq = make([]float64, neq)
	o.ye = make([]float64, neq)
	o.adx = make([]float64, neq)

	o.primInU = make([]float64, nin)
	o.primInL = make([]float64, nin)
	o.ze = make([]float64, nin)
	o.zeTmp = make([]float64, nin)
	o.activeZ = make([]float64, nin)
	o.cdx = make([]float64, nin)
	o.alphas = make([]float64, 0, 3*nin)
	o.activeU = make([]bool, nin)
	o.activeL = make([]bool, nin)
	o.active = make([]bool, nin)
	o.bijNew = make([]int, nin)
	return
}

// Reset zeroes the vectors that carry state between phases
func (o *Workspace) Reset() {
	la.VecFill(o.dwAug, 0)
	la.VecFill(o.rhs, 0)
	la.VecFill(o.errv, 0)
	o.alphas = o.alphas[:0]
}
