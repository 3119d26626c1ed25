// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

// The regularized KKT matrix has the block structure
//
//	[ Ĥ + ρ I    Âᵀ            Ĉ_Aᵀ       ]
//	[ Â         −(1/μ_eq) I    0          ]
//	[ Ĉ_A       0              −(1/μ_in) I ]
//
// where Ĉ_A holds the active rows of Ĉ in the order induced by the
// bijection. The (n+neq) base block is kept assembled in o.kkt; active
// rows live only inside the LDLᵀ factors and are maintained by insertions
// and deletions.

// assembleBase builds the (n+neq) base block from the scaled model
func (o *Solver) assembleBase() {
	n, neq := o.n, o.neq
	for i := 0; i < n+neq; i++ {
		la.VecFill(o.kkt[i], 0)
	}
	o.hs.ToDense(o.kkt)
	for i := 0; i < n; i++ {
		o.kkt[i][i] += o.rho
	}
	for k := 0; k < neq; k++ {
		o.as.CopyRow(o.w.row, k)
		for j := 0; j < n; j++ {
			o.kkt[n+k][j] = o.w.row[j]
			o.kkt[j][n+k] = o.w.row[j]
		}
		o.kkt[n+k][n+k] = -o.muEqInv
	}
}

// factorizeAll factors the base block and reinserts the active rows of Ĉ
// in bijection order
func (o *Solver) factorizeAll() (err error) {
	n, neq := o.n, o.neq
	err = o.ldl.Factorize(o.kkt, n+neq)
	if err != nil {
		return
	}
	dw := o.w.dwAug
	for j := 0; j < o.nc; j++ {
		for i := 0; i < o.nin; i++ {
			if o.bij[i] == j {
				la.VecFill(dw[:n+neq+j+1], 0)
				o.cs.CopyRow(dw[:n], i)
				dw[n+neq+j] = -o.muInInv
				err = o.ldl.InsertAt(n+neq+j, dw[:n+neq+j+1])
				dw[n+neq+j] = 0
				if err != nil {
					return
				}
			}
		}
	}
	la.VecFill(dw, 0)
	return
}

// factorWithRecovery runs factorizeAll, bumping rho by ×10 on pivot
// failures; after 3 attempts the problem is reported as not PSD
func (o *Solver) factorWithRecovery() (err error) {
	for try := 0; ; try++ {
		err = o.factorizeAll()
		if err == nil {
			return
		}
		if try == 2 {
			return chk.Err("cannot factorize KKT matrix; Hessian may not be positive semidefinite:\n%v", err)
		}
		rhoNew := o.rho * 10
		if o.Set.Verbose {
			io.Pfred("pivot failure: bumping rho from %g to %g\n", o.rho, rhoNew)
		}
		for i := 0; i < o.n; i++ {
			o.kkt[i][i] += rhoNew - o.rho
		}
		o.rho = rhoNew
	}
}

// factorBase assembles and factors the KKT matrix for the current
// parameters and active set
func (o *Solver) factorBase() (err error) {
	o.assembleBase()
	return o.factorWithRecovery()
}

// refactorize rebuilds the factors after a change of rho, refreshing the
// equality block diagonal and reinserting all active rows
func (o *Solver) refactorize(rhoNew, rhoOld float64) (err error) {
	n, neq := o.n, o.neq
	for i := 0; i < n; i++ {
		o.kkt[i][i] += rhoNew - rhoOld
	}
	for k := 0; k < neq; k++ {
		o.kkt[n+k][n+k] = -o.muEqInv
	}
	o.rho = rhoNew
	return o.factorWithRecovery()
}

// muUpdateFactors retunes the constraint-block diagonals of the live
// factors by rank-one updates, moving the stored inverse penalties from
// their current values to the given ones
func (o *Solver) muUpdateFactors(muEqInvNew, muInInvNew float64) {
	n, neq := o.n, o.neq
	nt := n + neq + o.nc
	dw := o.w.dwAug
	la.VecFill(dw[:nt], 0)
	if neq > 0 && muEqInvNew != o.muEqInv {
		diff := o.muEqInv - muEqInvNew
		for i := 0; i < neq; i++ {
			dw[n+i] = 1
			o.ldl.RankOneUpdate(dw[:nt], diff)
			dw[n+i] = 0
		}
		for k := 0; k < neq; k++ {
			o.kkt[n+k][n+k] = -muEqInvNew
		}
	}
	if o.nc > 0 && muInInvNew != o.muInInv {
		diff := o.muInInv - muInInvNew
		for i := 0; i < o.nc; i++ {
			dw[n+neq+i] = 1
			o.ldl.RankOneUpdate(dw[:nt], diff)
			dw[n+neq+i] = 0
		}
	}
}

// buildFullKKT materializes the full (n+neq+nc) KKT matrix from the
// scaled model, the active set and the proximal parameters (debug)
func (o *Solver) buildFullKKT() (K [][]float64) {
	n, neq := o.n, o.neq
	nt := n + neq + o.nc
	K = la.MatAlloc(nt, nt)
	for i := 0; i < n+neq; i++ {
		copy(K[i][:n+neq], o.kkt[i])
	}
	for i := 0; i < o.nin; i++ {
		j := o.bij[i]
		if j < o.nc {
			o.cs.CopyRow(o.w.row, i)
			for k := 0; k < n; k++ {
				K[n+neq+j][k] = o.w.row[k]
				K[k][n+neq+j] = o.w.row[k]
			}
			K[n+neq+j][n+neq+j] = -o.muInInv
		}
	}
	return
}

// iterativeResidual computes errv := rhs − K·dwAug using the explicit
// block form of the KKT matrix, respecting the bijection for the
// inequality rows
func (o *Solver) iterativeResidual(innerDim int) {
	n, neq := o.n, o.neq
	w := o.w
	copy(w.errv[:innerDim], w.rhs[:innerDim])
	o.hs.MatVecMulAdd(w.errv[:n], -1, w.dwAug[:n])
	la.VecAdd(w.errv[:n], -o.rho, w.dwAug[:n])
	if neq > 0 {
		o.as.MatTrVecMulAdd(w.errv[:n], -1, w.dwAug[n:n+neq])
	}
	for i := 0; i < o.nin; i++ {
		j := o.bij[i]
		if j < o.nc {
			o.cs.CopyRow(w.row, i)
			la.VecAdd(w.errv[:n], -w.dwAug[n+neq+j], w.row)
			w.errv[n+neq+j] -= la.VecDot(w.row, w.dwAug[:n]) - w.dwAug[n+neq+j]*o.muInInv
		}
	}
	if neq > 0 {
		o.as.MatVecMulAdd(w.errv[n:n+neq], -1, w.dwAug[:n])
		la.VecAdd(w.errv[n:n+neq], o.muEqInv, w.dwAug[n:n+neq])
	}
}

// refineLoop runs the triangular solve plus iterative refinement on the
// current rhs, leaving the step in dwAug and the final residual in errv
func (o *Solver) refineLoop(innerDim int, eps float64) {
	w := o.w
	copy(w.dwAug[:innerDim], w.rhs[:innerDim])
	o.ldl.SolveInPlace(w.dwAug[:innerDim])
	o.iterativeResidual(innerDim)
	it := 1
	for infnorm(w.errv[:innerDim]) >= eps && it < o.Set.NbIterRefine {
		it++
		o.ldl.SolveInPlace(w.errv[:innerDim])
		la.VecAdd(w.dwAug[:innerDim], 1, w.errv[:innerDim])
		o.iterativeResidual(innerDim)
	}
}

// iterativeSolve solves K·dw = rhs with iterative refinement. If the
// residual stays above max(eps, EpsRefact) after the refinement cap, the
// KKT matrix is refactorized and refinement restarts; a persisting stall
// triggers one automatic retry with a bumped rho.
func (o *Solver) iterativeSolve(innerDim int, eps float64) (err error) {
	w := o.w
	o.refineLoop(innerDim, eps)
	bad := utl.Max(eps, o.Set.EpsRefact)
	if infnorm(w.errv[:innerDim]) >= bad {
		err = o.refactorize(o.rho, o.rho)
		if err != nil {
			return
		}
		o.refineLoop(innerDim, eps)
		if infnorm(w.errv[:innerDim]) >= bad {
			if o.Set.Verbose {
				io.Pfred("refinement stall: retrying with bumped rho\n")
			}
			err = o.refactorize(o.rho*10, o.rho)
			if err != nil {
				return
			}
			o.refineLoop(innerDim, eps)
		}
	}
	la.VecFill(w.rhs[:innerDim], 0)
	return
}
