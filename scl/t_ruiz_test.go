// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scl

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/rnd"
	"github.com/cpmech/proxqp/mtx"
)

func init() {
	io.Verbose = false
}

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// badly scaled problem data
func badlyScaled(n, neq, nin int) (H, A, C mtx.Matrix, g, b, l, u []float64) {
	rnd.Init(7)
	Hd := mtx.NewDense(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := rnd.Float64(-1, 1) * math.Pow(10, float64(i-j))
			Hd.A[i][j] = v
			Hd.A[j][i] = v
		}
		Hd.A[i][i] += 1e3
	}
	Ad := mtx.NewDense(neq, n)
	for k := 0; k < neq; k++ {
		rnd.Float64s(Ad.A[k], -1, 1)
		la.VecCopy(Ad.A[k], math.Pow(10, float64(k-2)), Ad.A[k])
	}
	Cd := mtx.NewDense(nin, n)
	for k := 0; k < nin; k++ {
		rnd.Float64s(Cd.A[k], -1000, 1000)
	}
	g = make([]float64, n)
	b = make([]float64, neq)
	l = make([]float64, nin)
	u = make([]float64, nin)
	rnd.Float64s(g, -100, 100)
	rnd.Float64s(b, -1, 1)
	rnd.Float64s(l, -2, -1)
	rnd.Float64s(u, 1, 2)
	return Hd, Ad, Cd, g, b, l, u
}

func Test_ruiz01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ruiz01. equilibration flattens the norms")

	n, neq, nin := 6, 3, 4
	H, A, C, g, b, l, u := badlyScaled(n, neq, nin)
	o := NewRuiz(n, neq, nin)
	o.ScaleProb(H, A, C, g, b, l, u)

	if o.C <= 0 {
		tst.Errorf("cost scaling must be positive: c=%v", o.C)
		return
	}

	// row norms of the scaled constraints are near one
	ra := make([]float64, neq)
	rc := make([]float64, nin)
	A.RowInfNorms(ra)
	C.RowInfNorms(rc)
	for k := 0; k < neq; k++ {
		chk.Scalar(tst, io.Sf("‖A[%d,:]‖", k), 0.5, ra[k], 1)
	}
	for k := 0; k < nin; k++ {
		chk.Scalar(tst, io.Sf("‖C[%d,:]‖", k), 0.5, rc[k], 1)
	}
}

func Test_ruiz02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ruiz02. scale then unscale is the identity")

	n, neq, nin := 5, 2, 3
	H, A, C, g, b, l, u := badlyScaled(n, neq, nin)
	o := NewRuiz(n, neq, nin)
	o.ScaleProb(H, A, C, g, b, l, u)

	tol := 4 * (math.Nextafter(1, 2) - 1) * 1e3
	check := func(msg string, m int, scale, unscale func([]float64)) {
		v := make([]float64, m)
		rnd.Float64s(v, -10, 10)
		w := la.VecClone(v)
		scale(v)
		unscale(v)
		chk.Vector(tst, msg, tol, v, w)
	}
	check("primal", n, o.ScalePrimal, o.UnscalePrimal)
	check("dual eq", neq, o.ScaleDualEq, o.UnscaleDualEq)
	check("dual in", nin, o.ScaleDualIn, o.UnscaleDualIn)
	check("primal resid eq", neq, o.ScalePrimalResidEq, o.UnscalePrimalResidEq)
	check("primal resid in", nin, o.ScalePrimalResidIn, o.UnscalePrimalResidIn)
	check("dual resid", n, o.ScaleDualResid, o.UnscaleDualResid)
}

func Test_ruiz03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ruiz03. ApplyStored reproduces ScaleProb")

	n, neq, nin := 5, 2, 3
	H1, A1, C1, g1, b1, l1, u1 := badlyScaled(n, neq, nin)
	H2 := H1.Clone()
	A2 := A1.Clone()
	C2 := C1.Clone()
	g2 := la.VecClone(g1)
	b2 := la.VecClone(b1)
	l2 := la.VecClone(l1)
	u2 := la.VecClone(u1)

	o := NewRuiz(n, neq, nin)
	o.ScaleProb(H1, A1, C1, g1, b1, l1, u1)
	o.ApplyStored(H2, A2, C2, g2, b2, l2, u2)

	D1 := la.MatAlloc(n, n)
	D2 := la.MatAlloc(n, n)
	H1.ToDense(D1)
	H2.ToDense(D2)
	chk.Matrix(tst, "H", 1e-11, D2, D1)
	chk.Vector(tst, "g", 1e-11, g2, g1)
	chk.Vector(tst, "b", 1e-12, b2, b1)
	chk.Vector(tst, "l", 1e-12, l2, l1)
	chk.Vector(tst, "u", 1e-12, u2, u1)
}
