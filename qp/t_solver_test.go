// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
	"github.com/cpmech/proxqp/ana"
	"github.com/cpmech/proxqp/inp"
)

func init() {
	io.Verbose = false
}

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// kktResiduals evaluates the unscaled KKT residuals of a solution against
// the original problem data
func kktResiduals(tst *testing.T, p *inp.Prob, res *Results) (dual, primEq, primInLo, primInUp float64) {
	H, err := p.Hmat()
	if err != nil {
		tst.Fatalf("Hmat failed:\n%v", err)
	}
	A, _ := p.Amat()
	C, _ := p.Cmat()
	n := p.Ndim

	d := make([]float64, n)
	H.MatVecMul(d, 1, res.X)
	la.VecAdd(d, 1, p.Gvec())
	if p.Neq > 0 {
		A.MatTrVecMulAdd(d, 1, res.Y)
	}
	if p.Nin > 0 {
		C.MatTrVecMulAdd(d, 1, res.Z)
	}
	for i := 0; i < n; i++ {
		dual = utl.Max(dual, math.Abs(d[i]))
	}

	if p.Neq > 0 {
		r := make([]float64, p.Neq)
		A.MatVecMul(r, 1, res.X)
		la.VecAdd(r, -1, p.Bvec())
		for k := 0; k < p.Neq; k++ {
			primEq = utl.Max(primEq, math.Abs(r[k]))
		}
	}

	if p.Nin > 0 {
		cx := make([]float64, p.Nin)
		C.MatVecMul(cx, 1, res.X)
		l, u := p.Lvec(), p.Uvec()
		for k := 0; k < p.Nin; k++ {
			primInLo = utl.Min(primInLo, cx[k]-l[k]) // most negative slack below
			primInUp = utl.Max(primInUp, cx[k]-u[k]) // most positive slack above
		}
	}
	return
}

// solveProb runs Setup+Solve with default settings
func solveProb(tst *testing.T, p *inp.Prob) (o *Solver) {
	o = New(p.Ndim, p.Neq, p.Nin)
	set := new(inp.Settings)
	set.SetDefaults()
	set.Verbose = chk.Verbose
	err := o.Setup(p, set, PrecondExecute)
	if err != nil {
		tst.Fatalf("Setup failed:\n%v", err)
	}
	err = o.Solve()
	if err != nil {
		tst.Fatalf("Solve failed:\n%v", err)
	}
	return
}

// denseToSparse rebuilds the same problem with triplet storage
func denseToSparse(p *inp.Prob) (s *inp.Prob) {
	s = &inp.Prob{
		Desc: p.Desc, Ndim: p.Ndim, Neq: p.Neq, Nin: p.Nin, Sparse: true,
		G: p.Gvec(), B: p.Bvec(), L: p.Lvec(), U: p.Uvec(),
	}
	s.Hs = new(inp.TripletData)
	for i := 0; i < p.Ndim; i++ {
		for j := i; j < p.Ndim; j++ {
			s.Hs.I = append(s.Hs.I, i)
			s.Hs.J = append(s.Hs.J, j)
			s.Hs.X = append(s.Hs.X, p.H[i][j])
		}
	}
	full := func(a [][]float64) *inp.TripletData {
		t := new(inp.TripletData)
		for i := 0; i < len(a); i++ {
			for j := 0; j < p.Ndim; j++ {
				t.I = append(t.I, i)
				t.J = append(t.J, j)
				t.X = append(t.X, a[i][j])
			}
		}
		return t
	}
	if p.Neq > 0 {
		s.As = full(p.A)
	}
	if p.Nin > 0 {
		s.Cs = full(p.C)
	}
	return
}

func Test_solve01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solve01. unconstrained problems")

	// sparse backend
	p := inp.NewRandomProb(50, 0, 0, true, 0)
	o := solveProb(tst, p)
	if o.Info.Status != Solved {
		tst.Errorf("status = %v", o.Info.Status)
		return
	}
	if o.Info.Iterations > 10 {
		tst.Errorf("too many outer iterations: %d", o.Info.Iterations)
		return
	}
	dual, _, _, _ := kktResiduals(tst, p, &o.Res)
	if dual > 1e-9 {
		tst.Errorf("‖Hx+g‖ = %g > 1e-9", dual)
		return
	}

	// dense backend against the closed form
	pd := inp.NewRandomProb(20, 0, 0, false, 1)
	od := solveProb(tst, pd)
	xref, err := ana.Unconstrained(pd.H, pd.G)
	if err != nil {
		tst.Errorf("closed form failed:\n%v", err)
		return
	}
	chk.Vector(tst, "x", 1e-6, od.Res.X, xref)
}

func Test_solve02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solve02. equality constrained")

	p := inp.NewRandomProb(50, 25, 0, false, 0)
	o := solveProb(tst, p)
	if o.Info.Status != Solved {
		tst.Errorf("status = %v", o.Info.Status)
		return
	}
	dual, primEq, _, _ := kktResiduals(tst, p, &o.Res)
	if primEq > 1e-9 {
		tst.Errorf("‖Ax−b‖ = %g > 1e-9", primEq)
		return
	}
	if dual > 1e-9 {
		tst.Errorf("‖Hx+g+Aᵀy‖ = %g > 1e-9", dual)
		return
	}

	// closed form
	xref, yref, err := ana.EqConstrained(p.H, p.G, p.A, p.B)
	if err != nil {
		tst.Errorf("closed form failed:\n%v", err)
		return
	}
	chk.Vector(tst, "x", 1e-6, o.Res.X, xref)
	chk.Vector(tst, "y", 1e-6, o.Res.Y, yref)
}

func Test_solve03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solve03. inequality constrained, tight box")

	p := inp.NewRandomProb(50, 0, 25, false, 0)
	for k := 0; k < p.Nin; k++ {
		p.U[k] = p.L[k] + 1
	}
	o := solveProb(tst, p)
	if o.Info.Status != Solved {
		tst.Errorf("status = %v", o.Info.Status)
		return
	}
	_, _, lo, up := kktResiduals(tst, p, &o.Res)
	if lo < -1e-9 {
		tst.Errorf("lower bound violated by %g", lo)
		return
	}
	if up > 1e-9 {
		tst.Errorf("upper bound violated by %g", up)
		return
	}
}

func Test_solve04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solve04. dense and sparse backends agree")

	p := inp.NewRandomProb(50, 10, 25, false, 0)
	ps := denseToSparse(p)

	od := solveProb(tst, p)
	os_ := solveProb(tst, ps)
	if od.Info.Status != Solved || os_.Info.Status != Solved {
		tst.Errorf("status: dense=%v sparse=%v", od.Info.Status, os_.Info.Status)
		return
	}
	chk.Vector(tst, "x dense == x sparse", 1e-6, od.Res.X, os_.Res.X)

	// both satisfy the KKT conditions
	for _, o := range []*Solver{od, os_} {
		dual, primEq, lo, up := kktResiduals(tst, p, &o.Res)
		if dual > 1e-8 || primEq > 1e-8 || lo < -1e-8 || up > 1e-8 {
			tst.Errorf("KKT residuals: dual=%g eq=%g lo=%g up=%g", dual, primEq, lo, up)
			return
		}
	}
}

func Test_solve05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solve05. warm start halves the outer iterations")

	p := inp.NewRandomProb(30, 10, 20, false, 3)
	o := solveProb(tst, p)
	if o.Info.Status != Solved {
		tst.Errorf("status = %v", o.Info.Status)
		return
	}
	xp, yp, zp := la.VecClone(o.Res.X), la.VecClone(o.Res.Y), la.VecClone(o.Res.Z)

	// perturb the cost
	p2 := &inp.Prob{Ndim: p.Ndim, Neq: p.Neq, Nin: p.Nin, G: la.VecClone(p.G)}
	for i := 0; i < p.Ndim; i++ {
		p2.G[i] += 1e-3
	}

	// cold-start reference on the perturbed problem
	pc := inp.NewRandomProb(30, 10, 20, false, 3)
	for i := 0; i < pc.Ndim; i++ {
		pc.G[i] += 1e-3
	}
	oc := solveProb(tst, pc)
	cold := oc.Info.Iterations

	// warm-started solve
	err := o.Update(p2)
	if err != nil {
		tst.Errorf("Update failed:\n%v", err)
		return
	}
	err = o.WarmStart(xp, yp, zp)
	if err != nil {
		tst.Errorf("WarmStart failed:\n%v", err)
		return
	}
	err = o.Solve()
	if err != nil {
		tst.Errorf("Solve failed:\n%v", err)
		return
	}
	if o.Info.Status != Solved {
		tst.Errorf("status = %v", o.Info.Status)
		return
	}
	warm := o.Info.Iterations
	io.Pforan("cold = %d, warm = %d\n", cold, warm)
	if 2*warm > cold+1 {
		tst.Errorf("warm start did not help: warm=%d cold=%d", warm, cold)
		return
	}
}

func Test_solve06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solve06. proximal retune keeps the factors consistent")

	p := inp.NewRandomProb(20, 5, 10, false, 5)
	o := solveProb(tst, p)
	if o.Info.Status != Solved {
		tst.Errorf("status = %v", o.Info.Status)
		return
	}

	// retune mu_eq by 10x: the rank-one updates must leave the factors
	// matching the rebuilt KKT matrix
	err := o.UpdateProximal(0, o.muEq*10, 0)
	if err != nil {
		tst.Errorf("UpdateProximal failed:\n%v", err)
		return
	}
	K := o.buildFullKKT()
	R := o.ldl.ReconstructedMatrix()
	chk.Matrix(tst, "LDLt == KKT after retune", 1e-10, R, K)

	// and solving again still reaches the tolerances
	o.Cleanup()
	err = o.Solve()
	if err != nil {
		tst.Errorf("Solve failed:\n%v", err)
		return
	}
	dual, primEq, lo, up := kktResiduals(tst, p, &o.Res)
	if dual > 1e-8 || primEq > 1e-8 || lo < -1e-8 || up > 1e-8 {
		tst.Errorf("KKT residuals: dual=%g eq=%g lo=%g up=%g", dual, primEq, lo, up)
		return
	}
}

func Test_solve07(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solve07. repeated solves are bitwise identical")

	p := inp.NewRandomProb(15, 5, 8, false, 9)
	o := solveProb(tst, p)
	x1, y1, z1 := la.VecClone(o.Res.X), la.VecClone(o.Res.Y), la.VecClone(o.Res.Z)

	o.Cleanup()
	err := o.Solve()
	if err != nil {
		tst.Errorf("second Solve failed:\n%v", err)
		return
	}
	for i := range x1 {
		if o.Res.X[i] != x1[i] {
			tst.Errorf("x[%d] differs: %v != %v", i, o.Res.X[i], x1[i])
			return
		}
	}
	for k := range y1 {
		if o.Res.Y[k] != y1[k] {
			tst.Errorf("y[%d] differs", k)
			return
		}
	}
	for k := range z1 {
		if o.Res.Z[k] != z1[k] {
			tst.Errorf("z[%d] differs", k)
			return
		}
	}
}

func Test_solve08(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solve08. degenerate bounds l == u")

	p := inp.NewRandomProb(20, 0, 10, false, 11)
	for _, k := range []int{2, 7} {
		mid := 0.5 * (p.L[k] + p.U[k])
		p.L[k] = mid
		p.U[k] = mid
	}
	o := solveProb(tst, p)
	if o.Info.Status != Solved {
		tst.Errorf("status = %v", o.Info.Status)
		return
	}
	_, _, lo, up := kktResiduals(tst, p, &o.Res)
	if lo < -1e-8 || up > 1e-8 {
		tst.Errorf("bounds violated: lo=%g up=%g", lo, up)
		return
	}
}

func Test_update01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("update01. value updates and structural guards")

	p := inp.NewRandomProb(10, 3, 5, true, 13)
	o := New(10, 3, 5)
	set := new(inp.Settings)
	set.SetDefaults()
	err := o.Setup(p, set, PrecondExecute)
	if err != nil {
		tst.Errorf("Setup failed:\n%v", err)
		return
	}

	// dimension mismatch is rejected before any mutation
	bad := inp.NewRandomProb(11, 3, 5, true, 13)
	if err = o.Update(bad); err == nil {
		tst.Errorf("mismatched update accepted")
		return
	}

	// vector-only update always applies
	g2 := make([]float64, 10)
	for i := range g2 {
		g2[i] = float64(i)
	}
	err = o.Update(&inp.Prob{Ndim: 10, Neq: 3, Nin: 5, G: g2})
	if err != nil {
		tst.Errorf("vector update failed:\n%v", err)
		return
	}
	chk.Vector(tst, "g updated", 1e-17, o.g0, g2)

	// a different H structure leaves the stored matrix unchanged
	before := o.h0.Clone()
	err = o.Update(&inp.Prob{
		Ndim: 10, Neq: 3, Nin: 5,
		Hs: &inp.TripletData{I: []int{0}, J: []int{9}, X: []float64{123}},
	})
	if err != nil {
		tst.Errorf("structural-mismatch update failed:\n%v", err)
		return
	}
	Da := la.MatAlloc(10, 10)
	Db := la.MatAlloc(10, 10)
	o.h0.ToDense(Da)
	before.ToDense(Db)
	chk.Matrix(tst, "H unchanged", 1e-17, Da, Db)

	// the updated problem still solves
	err = o.Solve()
	if err != nil {
		tst.Errorf("Solve failed:\n%v", err)
		return
	}
}
