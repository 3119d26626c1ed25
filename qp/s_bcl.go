// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

// Solve runs the outer BCL loop until both KKT residuals (measured in the
// unscaled space) are within tolerance or the iteration cap is reached.
// The solution is stored unscaled in Res; Info carries counters, timers
// and the final accuracies. Partial results are well formed at any
// iteration: on MaxIter the iterate of the last outer iteration is
// reported; the best iterate seen during the run is not tracked.
func (o *Solver) Solve() (err error) {
	if !o.ready {
		return chk.Err("Solve called before Setup")
	}
	t0 := time.Now()
	s := o.Set
	w := o.w
	n, neq, nin := o.n, o.neq, o.nin
	mceps := math.Nextafter(1, 2) - 1

	// reset counters, parameters and factorization so that repeated
	// solves with identical inputs produce identical iterates
	o.Info.Iterations, o.Info.InnerIters, o.Info.MuUpdates = 0, 0, 0
	w.Reset()
	o.rho, o.muEq, o.muIn = o.rhoStart, o.muEqStart, o.muInStart
	o.muEqInv, o.muInInv = 1.0/o.muEq, 1.0/o.muIn
	o.resetActiveSet()
	err = o.factorBase()
	if err != nil {
		o.Info.Status = Failed
		return
	}

	// BCL state
	etaExtInit := math.Pow(0.1, s.AlphaBcl)
	etaExt := etaExtInit
	etaIn := 1.0

	// starting point
	if o.warm {
		copy(o.x, o.Res.X)
		copy(o.y, o.Res.Y)
		copy(o.z, o.Res.Z)
		o.precond.ScalePrimal(o.x)
		o.precond.ScaleDualEq(o.y)
		o.precond.ScaleDualIn(o.z)
	} else {
		la.VecFill(o.z, 0)
		la.VecFill(w.rhs, 0)
		for i := 0; i < n; i++ {
			w.rhs[i] = -o.gs[i]
		}
		for k := 0; k < neq; k++ {
			w.rhs[n+k] = o.bs[k]
		}
		err = o.iterativeSolve(n+neq, etaIn)
		if err != nil {
			o.Info.Status = Failed
			return
		}
		copy(o.x, w.dwAug[:n])
		copy(o.y, w.dwAug[n:n+neq])
		la.VecFill(w.dwAug, 0)
	}

	if s.Verbose {
		io.Pf("%6s%23s%23s%12s%12s\n", "it", "primal", "dual", "mu_eq", "mu_in")
	}

	var primalLhs, dualLhs float64
	o.Info.Status = MaxIter
	for iter := 0; iter < s.MaxIter; iter++ {
		o.Info.Iterations = iter + 1

		// global residuals and termination test
		var eqRhs0, inRhs0, dRhs0, dRhs1, dRhs3 float64
		primalLhs, eqRhs0, inRhs0 = o.globalPrimalResidual()
		dualLhs, dRhs0, dRhs1, dRhs3 = o.globalDualResidual()
		if !isfinite(primalLhs) || !isfinite(dualLhs) {
			o.Info.Status = Failed
			o.storeResults(primalLhs, dualLhs, t0)
			return chk.Err("non-finite residuals at iteration %d: primal=%v dual=%v", iter, primalLhs, dualLhs)
		}
		if s.Verbose {
			io.Pf("%6d%23.15e%23.15e%12.3e%12.3e\n", iter, primalLhs, dualLhs, o.muEq, o.muIn)
		}
		primalFeas := primalLhs <= s.EpsAbs+s.EpsRel*utl.Max(
			utl.Max(eqRhs0, inRhs0),
			utl.Max(utl.Max(o.normB, o.normU), o.normL))
		dualFeas := dualLhs <= s.EpsAbs+s.EpsRel*utl.Max(
			utl.Max(dRhs3, dRhs0),
			utl.Max(dRhs1, o.normG))
		if primalFeas {
			if dualLhs >= s.RefactorDualThreshold && o.rho != s.RefactorRhoThreshold {
				err = o.refactorize(s.RefactorRhoThreshold, o.rho)
				if err != nil {
					o.Info.Status = Failed
					return
				}
			}
			if dualFeas {
				o.Info.Status = Solved
				break
			}
		}

		// snapshot of the proximal reference point
		copy(w.xe, o.x)
		copy(w.ye, o.y)
		copy(w.ze, o.z)

		// inner phase selection
		doInitial := primalLhs < s.EpsIG || nin == 0
		errIn := 0.0
		if doInitial {
			errIn, err = o.initialGuessPhase(etaIn)
			if err != nil {
				o.Info.Status = Failed
				return
			}
			o.Info.InnerIters++
		}
		doCorrection := (!doInitial && nin != 0) || (doInitial && errIn >= etaIn && nin != 0)

		// residual preparation for the correction mode
		if doInitial && errIn >= etaIn && nin != 0 {
			o.cs.MatTrVecMulAdd(w.dualResid, -1, o.z)
			if neq > 0 {
				o.as.MatTrVecMulAdd(w.dualResid, o.muEq, w.primEq)
			}
			la.VecAdd(w.primEq, o.muEqInv, o.y)
			la.VecAdd(w.primInU, o.muInInv, o.z)
			la.VecAdd(w.primInL, o.muInInv, o.z)
		}
		if !doInitial && nin != 0 {
			la.VecAdd(w.primEq, o.muEqInv, w.ye)
			la.VecAdd(w.primEq, -o.muEqInv, o.y)
			o.cs.MatVecMul(w.primInU, 1, o.x)
			la.VecAdd(w.primInU, o.muInInv, w.ze)
			copy(w.primInL, w.primInU)
			la.VecAdd(w.primInU, -1, o.us)
			la.VecAdd(w.primInL, -1, o.ls)
			o.cs.MatTrVecMulAdd(w.dualResid, -1, o.z)
			if neq > 0 {
				o.as.MatTrVecMulAdd(w.dualResid, o.muEq, w.primEq)
			}
			la.VecAdd(w.primEq, o.muEqInv, o.y)
		}

		if doCorrection {
			errIn, err = o.correctionGuessPhase(etaIn)
			if err != nil {
				o.Info.Status = Failed
				return
			}
			if s.Verbose {
				io.Pf("correction guess error: %g\n", errIn)
			}
		}

		// BCL update on the fresh primal residual
		primalLhsNew, _, _ := o.globalPrimalResidual()
		o.bclUpdate(primalLhsNew, &etaExt, &etaIn, etaExtInit)

		// cold restart when both residuals stopped decreasing under a
		// large inequality penalty
		dualLhsNew, _, _, _ := o.globalDualResidual()
		if primalLhsNew/utl.Max(primalLhs, mceps) >= 1 &&
			dualLhsNew/utl.Max(dualLhs, mceps) >= 1 && o.muIn >= 1e5 {
			if s.Verbose {
				io.Pfyel("cold restart\n")
			}
			o.muUpdateFactors(1.0/s.ColdResetMuEq, 1.0/s.ColdResetMuIn)
			o.muEq, o.muIn = s.ColdResetMuEq, s.ColdResetMuIn
			o.muEqInv, o.muInInv = 1.0/s.ColdResetMuEq, 1.0/s.ColdResetMuIn
		}
	}

	// on MaxIter, measure the residuals of the iterate being reported
	if o.Info.Status == MaxIter {
		primalLhs, _, _ = o.globalPrimalResidual()
		dualLhs, _, _, _ = o.globalDualResidual()
	}
	o.storeResults(primalLhs, dualLhs, t0)
	return
}

// bclUpdate tightens the targets after a good outer step or restores the
// multipliers and increases the penalties after a bad one
func (o *Solver) bclUpdate(primalLhsNew float64, etaExt, etaIn *float64, etaExtInit float64) {
	s := o.Set
	if primalLhsNew <= *etaExt {
		*etaExt *= math.Pow(o.muInInv, s.BetaBcl)
		*etaIn = utl.Max(*etaIn*o.muInInv, s.EpsInMin)
		return
	}
	copy(o.y, o.w.ye)
	copy(o.z, o.w.ze)
	newMuEq := utl.Min(o.muEq/s.MuUpdateFactor, s.MuMaxEq)
	newMuIn := utl.Min(o.muIn/s.MuUpdateFactor, s.MuMaxIn)
	newMuEqInv := utl.Max(o.muEqInv*s.MuUpdateFactor, 1.0/s.MuMaxEq)
	newMuInInv := utl.Max(o.muInInv*s.MuUpdateFactor, 1.0/s.MuMaxIn)
	if newMuEq != o.muEq || newMuIn != o.muIn {
		o.Info.MuUpdates++
	}
	o.muUpdateFactors(newMuEqInv, newMuInInv)
	o.muEq, o.muIn = newMuEq, newMuIn
	o.muEqInv, o.muInInv = newMuEqInv, newMuInInv
	*etaExt = etaExtInit * math.Pow(o.muInInv, s.AlphaBcl)
	*etaIn = utl.Max(o.muInInv, s.EpsInMin)
}

// storeResults unscales the working iterate into Res and stamps Info
func (o *Solver) storeResults(primalLhs, dualLhs float64, t0 time.Time) {
	copy(o.Res.X, o.x)
	copy(o.Res.Y, o.y)
	copy(o.Res.Z, o.z)
	o.precond.UnscalePrimal(o.Res.X)
	o.precond.UnscaleDualEq(o.Res.Y)
	o.precond.UnscaleDualIn(o.Res.Z)
	o.Info.PrimalResid = primalLhs
	o.Info.DualResid = dualLhs
	o.Info.SolveTime = time.Since(t0)
}

// isfinite tells whether v is neither NaN nor infinite
func isfinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
