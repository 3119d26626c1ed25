// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/num"
	"github.com/cpmech/gosl/rnd"
	"github.com/cpmech/gosl/utl"
	"github.com/cpmech/proxqp/inp"
)

// lsFixture prepares a solver whose workspace holds a consistent
// line-search state at a random iterate along a random direction
func lsFixture(tst *testing.T, seed int) (o *Solver) {
	p := inp.NewRandomProb(6, 2, 4, false, seed)
	o = New(6, 2, 4)
	set := new(inp.Settings)
	set.SetDefaults()
	err := o.Setup(p, set, PrecondExecute)
	if err != nil {
		tst.Fatalf("Setup failed:\n%v", err)
	}

	// moderate penalties keep the merit magnitudes friendly to the
	// numerical derivative cross-check
	o.muEq, o.muEqInv = 10, 0.1
	o.muIn, o.muInInv = 1, 1

	w := o.w
	rnd.Init(seed)
	rnd.Float64s(o.x, -1, 1)
	rnd.Float64s(w.xe, -1, 1)
	rnd.Float64s(w.ye, -1, 1)
	rnd.Float64s(w.ze, -1, 1)
	rnd.Float64s(w.dwAug, -1, 1)

	dx := w.dwAug[:o.n]
	dy := w.dwAug[o.n : o.n+o.neq]
	o.hs.MatVecMul(w.hdx, 1, dx)
	o.as.MatVecMul(w.adx, 1, dx)
	o.cs.MatVecMul(w.cdx, 1, dx)

	// residual_in_y = A x − b + ye/mu_eq
	o.as.MatVecMul(w.primEq, 1, o.x)
	la.VecAdd(w.primEq, -1, o.bs)
	la.VecAdd(w.primEq, o.muEqInv, w.ye)

	// shifted inequality residuals
	o.cs.MatVecMul(w.primInU, 1, o.x)
	copy(w.primInL, w.primInU)
	la.VecAdd(w.primInU, -1, o.us)
	la.VecAdd(w.primInL, -1, o.ls)
	la.VecAdd(w.primInU, o.muInInv, w.ze)
	la.VecAdd(w.primInL, o.muInInv, w.ze)

	// dual residual of the proximal subproblem and its derivative
	o.hs.MatVecMul(w.dualResid, 1, o.x)
	la.VecAdd(w.dualResid, 1, o.gs)
	for i := 0; i < o.n; i++ {
		w.dualResid[i] += o.rho * (o.x[i] - w.xe[i])
	}
	o.as.MatTrVecMulAdd(w.dualResid, 1, w.ye)
	o.hs.MatVecMul(w.dDualForEq, 1, dx)
	o.as.MatTrVecMulAdd(w.dDualForEq, 1, dy)
	la.VecAdd(w.dDualForEq, o.rho, dx)
	o.as.MatVecMul(w.dPrimEq, 1, dx)
	la.VecAdd(w.dPrimEq, -o.muEqInv, dy)
	return
}

// psi evaluates the proximal augmented Lagrangian of the correction-guess
// subproblem at x + α·dx (constant terms omitted)
func psi(o *Solver, α float64) (res float64) {
	w := o.w
	n := o.n
	xa := make([]float64, n)
	for i := 0; i < n; i++ {
		xa[i] = o.x[i] + α*w.dwAug[i]
	}
	hx := make([]float64, n)
	o.hs.MatVecMul(hx, 1, xa)
	res = 0.5*la.VecDot(xa, hx) + la.VecDot(o.gs, xa)
	for i := 0; i < n; i++ {
		d := xa[i] - w.xe[i]
		res += 0.5 * o.rho * d * d
	}
	req := make([]float64, o.neq)
	o.as.MatVecMul(req, 1, xa)
	la.VecAdd(req, -1, o.bs)
	la.VecAdd(req, o.muEqInv, w.ye)
	res += 0.5 * o.muEq * sqnorm(req)
	rin := make([]float64, o.nin)
	o.cs.MatVecMul(rin, 1, xa)
	for k := 0; k < o.nin; k++ {
		up := rin[k] - o.us[k] + o.muInInv*w.ze[k]
		lo := rin[k] - o.ls[k] + o.muInInv*w.ze[k]
		res += 0.5 * o.muIn * (utl.Max(up, 0)*utl.Max(up, 0) + utl.Min(lo, 0)*utl.Min(lo, 0))
	}
	return
}

func Test_ls01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ls01. correction derivative matches the merit")

	for seed := 1; seed <= 5; seed++ {
		o := lsFixture(tst, seed)

		// within one interval of constant activity psi is an exact
		// quadratic, so the central difference is exact; probe away
		// from the breakpoints
		nodes := []float64{}
		for i := 0; i < o.nin; i++ {
			if o.w.cdx[i] != 0 {
				nodes = append(nodes, -o.w.primInU[i]/o.w.cdx[i], -o.w.primInL[i]/o.w.cdx[i])
			}
		}
		for _, α := range []float64{0.05, 0.31, 0.77, 1.3} {
			close_ := false
			for _, nd := range nodes {
				if math.Abs(α-nd) < 0.02 {
					close_ = true
					break
				}
			}
			if close_ {
				continue
			}
			ana := o.lsPsiDeriv(α)
			dnum := num.DerivCen(func(a float64, args ...interface{}) float64 {
				return psi(o, a)
			}, α)
			chk.AnaNum(tst, "psi'", 1e-5, ana, dnum, chk.Verbose)
		}
	}
}

func Test_ls02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ls02. correction root has zero derivative")

	for seed := 1; seed <= 5; seed++ {
		o := lsFixture(tst, seed)
		if o.lsPsiDeriv(0) >= 0 {
			// not a descent direction of this random fixture; skip
			continue
		}
		α := o.correctionGuessLS()
		if α <= 0 {
			tst.Errorf("seed %d: nonpositive step %v", seed, α)
			return
		}
		chk.Scalar(tst, "psi'(alpha*)", 1e-8, o.lsPsiDeriv(α), 0)
	}
}

func Test_ls03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ls03. initial-guess search minimizes the merit")

	for seed := 1; seed <= 5; seed++ {
		o := lsFixture(tst, seed)
		α := o.initialGuessLS()
		φα := o.lsGradientNorm(α)
		φ0 := o.lsGradientNorm(0)
		φ1 := o.lsGradientNorm(1)
		if φα > φ0+1e-9 || φα > φ1+1e-9 {
			tst.Errorf("seed %d: merit not minimized: φ(%v)=%v φ(0)=%v φ(1)=%v", seed, α, φα, φ0, φ1)
			return
		}
	}
}
