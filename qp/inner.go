// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

// The inner proximal solver runs in one of two modes per outer iteration.
// The initial-guess mode performs a single Newton solve against the active
// set inferred from the current multipliers and residuals, followed by the
// exact piecewise-quadratic line search. The correction-guess mode
// iterates Newton steps with the active set recomputed from the sign of
// the shifted inequality residuals, each followed by the root-finding line
// search on the augmented-Lagrangian derivative.

// saddlePoint evaluates the proximal saddle-point error after the
// initial-guess step (all quantities in the scaled space)
func (o *Solver) saddlePoint() (err float64) {
	w := o.w
	la.VecAdd(w.primInU, -o.muInInv, o.z)
	la.VecAdd(w.primInL, -o.muInInv, o.z)
	primEqE := infnorm(w.primEq)
	if o.nin > 0 {
		o.cs.MatTrVecMulAdd(w.dualResid, 1, o.z)
	}
	dualE := infnorm(w.dualResid)
	err = utl.Max(primEqE, dualE)
	for i := 0; i < o.nin; i++ {
		switch {
		case o.z[i] > 0:
			err = utl.Max(err, math.Abs(w.primInU[i]))
		case o.z[i] < 0:
			err = utl.Max(err, math.Abs(w.primInL[i]))
		default:
			err = utl.Max(err, utl.Max(w.primInU[i], 0))
			err = utl.Max(err, math.Abs(utl.Min(w.primInL[i], 0)))
		}
	}
	return
}

// initialGuessPhase performs the initial-guess inner step and returns the
// saddle-point error. On entry primEq holds the scaled equality residual
// and dualResid the scaled dual residual of the current iterate.
func (o *Solver) initialGuessPhase(epsInt float64) (errSaddle float64, err error) {
	n, neq, nin := o.n, o.neq, o.nin
	w := o.w

	// activity from the unscaled shifted residuals
	if nin > 0 {
		o.cs.MatVecMul(w.primInU, 1, o.x)
	}
	copy(w.primInL, w.primInU)
	la.VecAdd(w.primInU, -1, o.us)
	la.VecAdd(w.primInL, -1, o.ls)
	o.precond.UnscalePrimalResidIn(w.primInU)
	o.precond.UnscalePrimalResidIn(w.primInL)
	copy(w.zeTmp, w.ze)
	o.precond.UnscaleDualIn(w.zeTmp)
	la.VecAdd(w.primInU, o.muInInv, w.zeTmp)
	la.VecAdd(w.primInL, o.muInInv, w.zeTmp)
	numActive := 0
	for i := 0; i < nin; i++ {
		w.activeU[i] = w.primInU[i] >= 0
		w.activeL[i] = w.primInL[i] <= 0
		w.active[i] = w.activeU[i] || w.activeL[i]
		if w.active[i] {
			numActive++
		}
	}
	la.VecAdd(w.primInU, -o.muInInv, w.zeTmp)
	la.VecAdd(w.primInL, -o.muInInv, w.zeTmp)
	o.precond.ScalePrimalResidIn(w.primInU)
	o.precond.ScalePrimalResidIn(w.primInL)
	innerDim := n + neq + numActive

	// factorization follows the new active set
	la.VecFill(w.rhs, 0)
	la.VecFill(w.activeZ, 0)
	err = o.activeSetChange(w.active)
	if err != nil {
		return
	}

	// right-hand side
	for i := 0; i < n; i++ {
		w.rhs[i] = -w.dualResid[i]
	}
	for k := 0; k < neq; k++ {
		w.rhs[n+k] = -w.primEq[k]
	}
	for i := 0; i < nin; i++ {
		j := o.bij[i]
		if j < o.nc {
			if w.activeU[i] {
				w.rhs[n+neq+j] = -w.primInU[i]
			} else if w.activeL[i] {
				w.rhs[n+neq+j] = -w.primInL[i]
			}
		} else {
			o.cs.CopyRow(w.row, i)
			la.VecAdd(w.rhs[:n], o.z[i], w.row)
		}
	}
	err = o.iterativeSolve(innerDim, epsInt)
	if err != nil {
		return
	}

	// permute the inequality part of the step back to original indices
	for j := 0; j < nin; j++ {
		if i := o.bij[j]; i < o.nc {
			w.activeZ[j] = w.dwAug[n+neq+i]
		} else {
			w.activeZ[j] = -o.z[j]
		}
	}
	copy(w.dwAug[n+neq:], w.activeZ)

	// shifted residuals in the scaled space
	la.VecAdd(w.primInU, o.muInInv, w.ze)
	la.VecAdd(w.primInL, o.muInInv, w.ze)

	// directional quantities for the line search
	dx := w.dwAug[:n]
	dy := w.dwAug[n : n+neq]
	if neq > 0 {
		o.as.MatVecMul(w.dPrimEq, 1, dx)
		la.VecAdd(w.dPrimEq, -o.muEqInv, dy)
	}
	o.hs.MatVecMul(w.dDualForEq, 1, dx)
	if neq > 0 {
		o.as.MatTrVecMulAdd(w.dDualForEq, 1, dy)
	}
	la.VecAdd(w.dDualForEq, o.rho, dx)
	if nin > 0 {
		o.cs.MatVecMul(w.cdx, 1, dx)
		o.cs.MatTrVecMulAdd(w.dualResid, -1, w.ze)
	}

	α := o.initialGuessLS()
	if o.Set.Verbose {
		io.Pf("initial guess: alpha = %g\n", α)
	}

	// take the step
	la.VecAdd(w.primInU, α, w.cdx)
	la.VecAdd(w.primInL, α, w.cdx)
	for i := 0; i < nin; i++ {
		w.activeU[i] = w.primInU[i] >= 0
		w.activeL[i] = w.primInL[i] <= 0
		w.active[i] = w.activeU[i] || w.activeL[i]
	}
	la.VecAdd(o.x, α, dx)
	la.VecAdd(o.y, α, dy)
	for i := 0; i < nin; i++ {
		dzi := w.dwAug[n+neq+i]
		switch {
		case w.activeU[i]:
			o.z[i] = utl.Max(o.z[i]+α*dzi, 0)
		case w.activeL[i]:
			o.z[i] = utl.Min(o.z[i]+α*dzi, 0)
		default:
			o.z[i] += α * dzi
		}
	}
	la.VecAdd(w.primEq, α, w.dPrimEq)
	la.VecAdd(w.dualResid, α, w.dDualForEq)
	la.VecFill(w.dwAug, 0)

	errSaddle = o.saddlePoint()
	return
}

// newtonStep assembles and solves the KKT system of the correction mode
// for the current shifted residuals
func (o *Solver) newtonStep(epsInt float64) (err error) {
	n, neq, nin := o.n, o.neq, o.nin
	w := o.w
	numActive := 0
	for i := 0; i < nin; i++ {
		w.activeU[i] = w.primInU[i] > 0
		w.activeL[i] = w.primInL[i] < 0
		w.active[i] = w.activeU[i] || w.activeL[i]
		if w.active[i] {
			numActive++
		}
	}
	innerDim := n + neq + numActive
	la.VecFill(w.rhs, 0)
	la.VecFill(w.dwAug, 0)
	for i := 0; i < n; i++ {
		w.rhs[i] = -w.dualResid[i]
	}
	for j := 0; j < nin; j++ {
		coef := o.muIn * (utl.Max(w.primInU[j], 0) + utl.Min(w.primInL[j], 0))
		if coef != 0 {
			o.cs.CopyRow(w.row, j)
			la.VecAdd(w.rhs[:n], -coef, w.row)
		}
	}
	err = o.activeSetChange(w.active)
	if err != nil {
		return
	}
	return o.iterativeSolve(innerDim, epsInt)
}

// correctionGuessPhase iterates Newton steps plus line searches until the
// proximal gradient is small enough; it returns the final gradient norm.
// On entry primEq holds A·x − b + y_e/μ_eq, primInU/L the
// shifted inequality residuals and dualResid the dual residual of the
// proximal subproblem (all scaled); see the outer loop for the exact
// preparation in each mode.
func (o *Solver) correctionGuessPhase(epsInt float64) (errIn float64, err error) {
	n, neq, nin := o.n, o.neq, o.nin
	w := o.w
	dx := w.dwAug[:n]
	errIn = 1e6
	for iter := 0; ; iter++ {
		if iter == o.Set.MaxIterIn {
			o.Info.InnerIters += o.Set.MaxIterIn
			break
		}
		err = o.newtonStep(epsInt)
		if err != nil {
			return
		}
		o.hs.MatVecMul(w.hdx, 1, dx)
		if neq > 0 {
			o.as.MatVecMul(w.adx, 1, dx)
		}
		if nin > 0 {
			o.cs.MatVecMul(w.cdx, 1, dx)
		}
		α := 1.0
		if nin > 0 {
			α = o.correctionGuessLS()
		}
		if math.Abs(α)*infnorm(dx) < 1e-11 {
			o.Info.InnerIters += iter + 1
			break
		}

		// take the step and update the residuals along the direction
		la.VecAdd(o.x, α, dx)
		la.VecAdd(w.primInU, α, w.cdx)
		la.VecAdd(w.primInL, α, w.cdx)
		la.VecAdd(w.primEq, α, w.adx)
		la.VecCopy(o.y, o.muEq, w.primEq)
		la.VecAdd(w.dualResid, α*o.rho, dx)
		la.VecAdd(w.dualResid, α, w.hdx)
		if neq > 0 {
			o.as.MatTrVecMulAdd(w.dualResid, α*o.muEq, w.adx)
		}
		for j := 0; j < nin; j++ {
			o.z[j] = o.muIn * (utl.Max(w.primInU[j], 0) + utl.Min(w.primInL[j], 0))
		}

		// proximal gradient
		o.hs.MatVecMul(w.tmp1, 1, o.x)
		la.VecFill(w.tmp2, 0)
		if neq > 0 {
			o.as.MatTrVecMulAdd(w.tmp2, 1, o.y)
		}
		la.VecFill(w.tmp3, 0)
		if nin > 0 {
			o.cs.MatTrVecMulAdd(w.tmp3, 1, o.z)
		}
		for i := 0; i < n; i++ {
			w.gradn[i] = w.tmp1[i] + w.tmp2[i] + w.tmp3[i] + o.gs[i] + o.rho*(o.x[i]-w.xe[i])
		}
		errIn = infnorm(w.gradn)
		rhsN := 1 + utl.Max(utl.Max(infnorm(w.tmp1), infnorm(w.tmp2)), utl.Max(infnorm(w.tmp3), infnorm(o.gs)))
		if o.Set.Verbose {
			io.Pf("%4d%4s%23.15e%23.15e\n", iter, "in", errIn, α)
		}
		if errIn <= epsInt*rhsN {
			o.Info.InnerIters += iter + 1
			break
		}
	}
	return
}
