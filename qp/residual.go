// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

// globalPrimalResidual evaluates the primal feasibility in the unscaled
// space. On return:
//
//	primEq         holds A·x − b in the SCALED space (consumed by the
//	               inner phases as right-hand side material)
//	primInU/primInL hold the positive/negative parts of C·x − u and
//	               C·x − l in the UNSCALED space
//
// and the returned norms are all unscaled: lhs is the feasibility, eqRhs0
// and inRhs0 the reference magnitudes ‖A·x‖ and ‖C·x‖.
func (o *Solver) globalPrimalResidual() (lhs, eqRhs0, inRhs0 float64) {
	w := o.w
	if o.neq > 0 {
		o.as.MatVecMul(w.primEq, 1, o.x)
		copy(w.dPrimEq, w.primEq)
		o.precond.UnscalePrimalResidEq(w.dPrimEq)
		eqRhs0 = infnorm(w.dPrimEq)
	}
	if o.nin > 0 {
		o.cs.MatVecMul(w.primInU, 1, o.x)
		copy(w.primInL, w.primInU)
		copy(w.cdx, w.primInU)
		o.precond.UnscalePrimalResidIn(w.cdx)
		inRhs0 = infnorm(w.cdx)
	}
	la.VecAdd(w.primEq, -1, o.bs)
	la.VecAdd(w.primInU, -1, o.us)
	la.VecAdd(w.primInL, -1, o.ls)
	for k := 0; k < o.nin; k++ {
		w.primInU[k] = utl.Max(w.primInU[k], 0)
		w.primInL[k] = utl.Min(w.primInL[k], 0)
	}
	o.precond.UnscalePrimalResidIn(w.primInU)
	o.precond.UnscalePrimalResidIn(w.primInL)
	copy(w.dPrimEq, w.primEq)
	o.precond.UnscalePrimalResidEq(w.dPrimEq)
	eqLhs := infnorm(w.dPrimEq)
	inLhs := utl.Max(infnorm(w.primInU), infnorm(w.primInL))
	lhs = utl.Max(eqLhs, inLhs)
	return
}

// globalDualResidual evaluates the dual feasibility in the unscaled
// space. On return dualResid holds H·x + g + Aᵀ·y + Cᵀ·z in the SCALED
// space; the returned norms are unscaled: lhs is the feasibility, and
// rhs0, rhs1, rhs3 the reference magnitudes ‖H·x‖, ‖Aᵀ·y‖ and ‖Cᵀ·z‖.
func (o *Solver) globalDualResidual() (lhs, rhs0, rhs1, rhs3 float64) {
	w := o.w
	copy(w.dualResid, o.gs)

	o.hs.MatVecMul(w.dualTmp, 1, o.x)
	la.VecAdd(w.dualResid, 1, w.dualTmp)
	o.precond.UnscaleDualResid(w.dualTmp)
	rhs0 = infnorm(w.dualTmp)

	la.VecFill(w.dualTmp, 0)
	if o.neq > 0 {
		o.as.MatTrVecMulAdd(w.dualTmp, 1, o.y)
	}
	la.VecAdd(w.dualResid, 1, w.dualTmp)
	o.precond.UnscaleDualResid(w.dualTmp)
	rhs1 = infnorm(w.dualTmp)

	la.VecFill(w.dualTmp, 0)
	if o.nin > 0 {
		o.cs.MatTrVecMulAdd(w.dualTmp, 1, o.z)
	}
	la.VecAdd(w.dualResid, 1, w.dualTmp)
	o.precond.UnscaleDualResid(w.dualTmp)
	rhs3 = infnorm(w.dualTmp)

	copy(w.dualTmp, w.dualResid)
	o.precond.UnscaleDualResid(w.dualTmp)
	lhs = infnorm(w.dualTmp)
	return
}
