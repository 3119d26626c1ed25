// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package qp implements the ProxQP solver for convex quadratic programs
//
//	minimize    ½ xᵀ H x + gᵀ x
//	subject to  A x = b
//	            l ≤ C x ≤ u
//
// with H symmetric positive semidefinite. An augmented-Lagrangian (BCL)
// outer loop drives a proximal inner loop whose iterates are Newton steps
// computed from an LDLᵀ factorization of a regularized KKT matrix that is
// updated in place under active-set changes.
package qp

import (
	"math"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
	"github.com/cpmech/proxqp/inp"
	"github.com/cpmech/proxqp/ldl"
	"github.com/cpmech/proxqp/mtx"
	"github.com/cpmech/proxqp/scl"
)

// PrecondMode selects how the problem is preconditioned during Setup
type PrecondMode int

const (
	PrecondExecute  PrecondMode = iota // run Ruiz equilibration
	PrecondIdentity                    // no scaling
	PrecondKeep                        // reuse the scalings of a previous Setup
)

// Solver holds the problem, its scaled copy, the factorization, the
// active-set state and all workspaces. One instance serves one problem at
// a time; it is not safe for concurrent calls but distinct instances are
// independent.
type Solver struct {

	// configuration
	Set *inp.Settings // solver settings

	// dimensions
	n, neq, nin, ntot int

	// original model (immutable between Setup/Update calls)
	h0, a0, c0     mtx.Matrix
	g0, b0, l0, u0 []float64
	sparse         bool

	// scaled model
	hs, as, cs     mtx.Matrix
	gs, bs, ls, us []float64
	precond        scl.Preconditioner
	pmode          PrecondMode

	// unscaled reference magnitudes
	normB, normL, normU, normG float64

	// results
	Res  Results // solution in the unscaled space
	Info Info    // counters, timers, status
	warm bool    // Res holds a warm start provided by the caller

	// proximal parameters: start values for the next solve and current
	// values of the live factorization
	rhoStart, muEqStart, muInStart float64
	rho, muEq, muIn                float64
	muEqInv, muInInv               float64

	// active-set state
	bij []int // bijection between inequality indices and LDLᵀ rows
	nc  int   // number of active inequalities

	// factorization
	ldl *ldl.LDLT
	kkt [][]float64 // (n+neq) base block of the KKT matrix

	// workspace and working (scaled) iterates
	w       *Workspace
	x, y, z []float64

	ready bool // Setup completed
}

// New returns a new solver for the given dimensions
func New(ndim, neq, nin int) (o *Solver) {
	o = new(Solver)
	o.n, o.neq, o.nin = ndim, neq, nin
	o.ntot = ndim + neq + nin
	o.bij = make([]int, nin)
	o.x = make([]float64, ndim)
	o.y = make([]float64, neq)
	o.z = make([]float64, nin)
	o.Res.X = make([]float64, ndim)
	o.Res.Y = make([]float64, neq)
	o.Res.Z = make([]float64, nin)
	return
}

// Setup stores the problem, scales it, allocates the workspace and
// factors the initial KKT matrix. Missing matrices/vectors in p are
// treated as zero of the declared shape. It fails with a dimension
// mismatch error before any state mutation if shapes are inconsistent.
func (o *Solver) Setup(p *inp.Prob, s *inp.Settings, pmode PrecondMode) (err error) {
	t0 := time.Now()
	if p.Ndim != o.n || p.Neq != o.neq || p.Nin != o.nin {
		return chk.Err("dimension mismatch: problem is (%d,%d,%d); solver is (%d,%d,%d)",
			p.Ndim, p.Neq, p.Nin, o.n, o.neq, o.nin)
	}
	err = p.Validate()
	if err != nil {
		return
	}
	if s == nil {
		s = new(inp.Settings)
	}
	s.SetDefaults()

	// views over the original model
	h, err := p.Hmat()
	if err != nil {
		return
	}
	a, err := p.Amat()
	if err != nil {
		return
	}
	c, err := p.Cmat()
	if err != nil {
		return
	}

	// no state mutation above this point
	o.Set = s
	o.sparse = p.Sparse
	o.h0, o.a0, o.c0 = h, a, c
	o.g0, o.b0 = p.Gvec(), p.Bvec()
	o.l0, o.u0 = p.Lvec(), p.Uvec()
	o.normB = infnorm(o.b0)
	o.normL = infnorm(o.l0)
	o.normU = infnorm(o.u0)
	o.normG = infnorm(o.g0)

	// preconditioner
	switch pmode {
	case PrecondIdentity:
		o.precond = new(scl.Identity)
	case PrecondKeep:
		if o.precond == nil {
			o.precond = scl.NewRuiz(o.n, o.neq, o.nin)
		}
	default:
		o.precond = scl.NewRuiz(o.n, o.neq, o.nin)
	}
	o.pmode = pmode

	// scaled model
	o.scaleModel(pmode)

	// proximal parameters
	o.rhoStart = s.Rho0
	o.muEqStart = s.MuEq0
	o.muInStart = s.MuIn0

	// factorization engine and workspace
	o.ldl = ldl.New(o.ntot)
	o.kkt = la.MatAlloc(o.n+o.neq, o.n+o.neq)
	o.w = NewWorkspace(o.n, o.neq, o.nin)

	// initial factorization
	o.rho, o.muEq, o.muIn = o.rhoStart, o.muEqStart, o.muInStart
	o.muEqInv, o.muInInv = 1.0/o.muEq, 1.0/o.muIn
	o.resetActiveSet()
	err = o.factorBase()
	if err != nil {
		return
	}

	o.warm = false
	o.ready = true
	o.Info.SetupTime = time.Since(t0)
	return
}

// scaleModel builds the scaled copies of the model
func (o *Solver) scaleModel(pmode PrecondMode) {
	o.hs = o.h0.Clone()
	o.as = o.a0.Clone()
	o.cs = o.c0.Clone()
	o.gs = cloneVec(o.g0)
	o.bs = cloneVec(o.b0)
	o.ls = cloneVec(o.l0)
	o.us = cloneVec(o.u0)
	if pmode == PrecondKeep {
		o.precond.ApplyStored(o.hs, o.as, o.cs, o.gs, o.bs, o.ls, o.us)
		return
	}
	o.precond.ScaleProb(o.hs, o.as, o.cs, o.gs, o.bs, o.ls, o.us)
}

// Update replaces numeric values of the stored problem. Vectors are always
// updated. A matrix is updated in place only if its nonzero structure
// matches the one given at Setup; otherwise the stored matrix is left
// unchanged and a warning is printed. The structural-match rule is applied
// independently to H, A and C, so any combination of present/absent
// matrices is handled by the same table.
func (o *Solver) Update(p *inp.Prob) (err error) {
	if !o.ready {
		return chk.Err("Update called before Setup")
	}
	if p.Ndim != o.n || p.Neq != o.neq || p.Nin != o.nin {
		return chk.Err("dimension mismatch: problem is (%d,%d,%d); solver is (%d,%d,%d)",
			p.Ndim, p.Neq, p.Nin, o.n, o.neq, o.nin)
	}
	err = p.Validate()
	if err != nil {
		return
	}

	// vectors are always updated
	if p.G != nil {
		copy(o.g0, p.G)
	}
	if p.B != nil {
		copy(o.b0, p.B)
	}
	if p.L != nil {
		copy(o.l0, p.L)
	}
	if p.U != nil {
		copy(o.u0, p.U)
	}
	o.normB = infnorm(o.b0)
	o.normL = infnorm(o.l0)
	o.normU = infnorm(o.u0)
	o.normG = infnorm(o.g0)

	// matrices only on structural match
	o.updateMatrix("H", o.h0, p.H, p.Hs)
	o.updateMatrix("A", o.a0, p.A, p.As)
	o.updateMatrix("C", o.c0, p.C, p.Cs)

	// refresh the scaled model and the factorization
	o.scaleModel(o.pmode)
	o.resetActiveSet()
	return o.factorBase()
}

// updateMatrix overwrites the values of one stored matrix if the incoming
// structure matches; absent matrices leave the stored one untouched
func (o *Solver) updateMatrix(name string, dst mtx.Matrix, dense [][]float64, tri *inp.TripletData) {
	if o.sparse {
		if tri == nil {
			return
		}
		sp := dst.(*mtx.Sparse)
		if !sp.SameStructure(tri.I, tri.J) {
			io.Pfred("update: nonzero structure of %s changed; matrix left unchanged\n", name)
			return
		}
		sp.SetValues(tri.I, tri.J, tri.X)
		return
	}
	if dense == nil {
		return
	}
	d := dst.(*mtx.Dense)
	for i := 0; i < d.M; i++ {
		copy(d.A[i], dense[i])
	}
}

// UpdateProximal changes the proximal parameters of the live factorization
// atomically: penalty changes are applied as diagonal rank-one updates and
// a rho change triggers a refactorization. Non-positive arguments keep the
// corresponding parameter.
func (o *Solver) UpdateProximal(rho, muEq, muIn float64) (err error) {
	if !o.ready {
		return chk.Err("UpdateProximal called before Setup")
	}
	if muEq > 0 || muIn > 0 {
		newEq, newIn := o.muEq, o.muIn
		if muEq > 0 {
			newEq = muEq
		}
		if muIn > 0 {
			newIn = muIn
		}
		o.muUpdateFactors(1.0/newEq, 1.0/newIn)
		o.muEq, o.muIn = newEq, newIn
		o.muEqInv, o.muInInv = 1.0/newEq, 1.0/newIn
		o.muEqStart, o.muInStart = newEq, newIn
	}
	if rho > 0 && rho != o.rho {
		err = o.refactorize(rho, o.rho)
		if err != nil {
			return
		}
		o.rho = rho
		o.rhoStart = rho
	}
	return
}

// WarmStart sets the initial primal/dual point of the next solve; nil
// arguments keep the stored values
func (o *Solver) WarmStart(x, y, z []float64) (err error) {
	if x != nil {
		if len(x) != o.n {
			return chk.Err("dimension mismatch: x has length %d; want %d", len(x), o.n)
		}
		copy(o.Res.X, x)
	}
	if y != nil {
		if len(y) != o.neq {
			return chk.Err("dimension mismatch: y has length %d; want %d", len(y), o.neq)
		}
		copy(o.Res.Y, y)
	}
	if z != nil {
		if len(z) != o.nin {
			return chk.Err("dimension mismatch: z has length %d; want %d", len(z), o.nin)
		}
		copy(o.Res.Z, z)
	}
	o.warm = true
	return
}

// Cleanup resets results and counters while retaining the factorization
// structure, so that a subsequent Solve starts cold
func (o *Solver) Cleanup() {
	la.VecFill(o.Res.X, 0)
	la.VecFill(o.Res.Y, 0)
	la.VecFill(o.Res.Z, 0)
	o.Info = Info{SetupTime: o.Info.SetupTime}
	o.warm = false
}

// resetActiveSet clears the bijection: all inequalities inactive
func (o *Solver) resetActiveSet() {
	for i := 0; i < o.nin; i++ {
		o.bij[i] = i
	}
	o.nc = 0
}

// cloneVec returns a copy of v
func cloneVec(v []float64) (r []float64) {
	r = make([]float64, len(v))
	copy(r, v)
	return
}

// infnorm returns the infinity norm; zero for empty vectors
func infnorm(v []float64) (res float64) {
	for _, x := range v {
		res = utl.Max(res, math.Abs(x))
	}
	return
}
