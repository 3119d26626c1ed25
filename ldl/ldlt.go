// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ldl implements an updatable LDLᵀ factorization of symmetric
// (possibly indefinite) matrices. The factors live in a preallocated arena
// and are maintained under row/column insertions, deletions and diagonal
// rank-one updates without refactoring from scratch.
package ldl

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// default pivot threshold; pivots with smaller magnitude are clamped to a
// signed value so that triangular solves stay finite
const pivTolDefault = 1e-13

// LDLT holds the factors of K = L·D·Lᵀ with L unit lower triangular and D
// diagonal. The backing arena is allocated once for the maximum order; the
// current order grows and shrinks with InsertAt/DeleteAt.
type LDLT struct {

	// configuration
	Nmax   int     // capacity (maximum order)
	PivTol float64 // pivot threshold for signed regularization

	// factors
	n int         // current order
	l [][]float64 // unit lower triangular factors (strict lower part used)
	d []float64   // diagonal of D

	// scratch
	w []float64 // rank-one update workspace
}

// New returns a new engine with capacity nmax
func New(nmax int) (o *LDLT) {
	o = new(LDLT)
	o.Nmax = nmax
	o.PivTol = pivTolDefault
	o.l = la.MatAlloc(nmax, nmax)
	o.d = make([]float64, nmax)
	o.w = make([]float64, nmax)
	return
}

// N returns the current order
func (o *LDLT) N() int { return o.n }

// regpiv applies signed regularization to a pivot candidate. An exactly
// zero pivot cannot be signed and is reported as an error.
func (o *LDLT) regpiv(d float64) (float64, error) {
	if math.Abs(d) >= o.PivTol {
		return d, nil
	}
	if d > 0 {
		return o.PivTol, nil
	}
	if d < 0 {
		return -o.PivTol, nil
	}
	return 0, chk.Err("ldl: zero pivot encountered")
}

// Factorize computes the factors of the n×n matrix K in place over the
// arena. Only the lower triangle of K is accessed.
func (o *LDLT) Factorize(K [][]float64, n int) (err error) {
	if n > o.Nmax {
		chk.Panic("ldl: order %d exceeds capacity %d", n, o.Nmax)
	}
	o.n = n
	for j := 0; j < n; j++ {
		dj := K[j][j]
		for k := 0; k < j; k++ {
			dj -= o.l[j][k] * o.l[j][k] * o.d[k]
		}
		dj, err = o.regpiv(dj)
		if err != nil {
			return chk.Err("factorization failed at pivot %d:\n%v", j, err)
		}
		o.d[j] = dj
		for i := j + 1; i < n; i++ {
			s := K[i][j]
			for k := 0; k < j; k++ {
				s -= o.l[i][k] * o.d[k] * o.l[j][k]
			}
			o.l[i][j] = s / dj
		}
	}
	return
}

// SolveInPlace solves K·w = v and overwrites v with w. Only v[:N()] is used.
func (o *LDLT) SolveInPlace(v []float64) {
	n := o.n
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			v[i] -= o.l[i][j] * v[j]
		}
	}
	for i := 0; i < n; i++ {
		v[i] /= o.d[i]
	}
	for i := n - 1; i >= 0; i-- {
		for j := i + 1; j < n; j++ {
			v[i] -= o.l[j][i] * v[j]
		}
	}
}

// rankOneFrom updates the trailing factorization (rows/cols ≥ start) for
// K ← K + σ·w·wᵀ where w is zero below index start. w is destroyed.
func (o *LDLT) rankOneFrom(start int, w []float64, σ float64) {
	for j := start; j < o.n; j++ {
		p := w[j]
		dj := o.d[j] + σ*p*p
		if math.Abs(dj) < o.PivTol {
			if dj >= 0 {
				dj = o.PivTol
			} else {
				dj = -o.PivTol
			}
		}
		β := σ * p / dj
		σ = σ * o.d[j] / dj
		o.d[j] = dj
		for i := j + 1; i < o.n; i++ {
			w[i] -= p * o.l[i][j]
			o.l[i][j] += β * w[i]
		}
	}
}

// RankOneUpdate updates the factors for K ← K + σ·v·vᵀ
func (o *LDLT) RankOneUpdate(v []float64, σ float64) {
	copy(o.w[:o.n], v[:o.n])
	o.rankOneFrom(0, o.w, σ)
}

// InsertAt augments K by a new row and column at position idx. col must
// have length N()+1 and contain the new column of the augmented matrix,
// with its diagonal entry at position idx. The order of the other rows is
// preserved.
func (o *LDLT) InsertAt(idx int, col []float64) (err error) {
	n := o.n
	if n+1 > o.Nmax {
		chk.Panic("ldl: capacity %d exhausted", o.Nmax)
	}
	if idx < 0 || idx > n {
		chk.Panic("ldl: insertion index %d out of range [0,%d]", idx, n)
	}

	// shift rows and columns after idx
	for i := n; i > idx; i-- {
		li, lim := o.l[i], o.l[i-1]
		for j := i - 1; j > idx; j-- {
			li[j] = lim[j-1]
		}
		for j := 0; j < idx; j++ {
			li[j] = lim[j]
		}
		o.d[i] = o.d[i-1]
	}
	o.n = n + 1

	// new row idx by forward substitution
	lp := o.l[idx]
	for j := 0; j < idx; j++ {
		s := col[j]
		for k := 0; k < j; k++ {
			s -= lp[k] * o.d[k] * o.l[j][k]
		}
		lp[j] = s / o.d[j]
	}

	// new pivot
	dp := col[idx]
	for k := 0; k < idx; k++ {
		dp -= lp[k] * lp[k] * o.d[k]
	}
	dp, err = o.regpiv(dp)
	if err != nil {
		o.n = n // only rows before idx are intact; caller must refactor
		return chk.Err("insertion at %d failed:\n%v", idx, err)
	}
	o.d[idx] = dp

	// new column below idx and downdate of the trailing block
	la.VecFill(o.w[:o.n], 0)
	for i := idx + 1; i < o.n; i++ {
		s := col[i]
		for k := 0; k < idx; k++ {
			s -= o.l[i][k] * o.d[k] * lp[k]
		}
		o.l[i][idx] = s / dp
		o.w[i] = o.l[i][idx]
	}
	o.rankOneFrom(idx+1, o.w, -dp)
	return
}

// DeleteAt removes the row and column at position idx; the order of the
// other rows is preserved.
func (o *LDLT) DeleteAt(idx int) {
	n := o.n
	if idx < 0 || idx >= n {
		chk.Panic("ldl: deletion index %d out of range [0,%d)", idx, n)
	}
	dp := o.d[idx]

	// save the column below the pivot, already shifted to its new position
	la.VecFill(o.w[:n], 0)
	for i := idx + 1; i < n; i++ {
		o.w[i-1] = o.l[i][idx]
	}

	// shift rows and columns after idx
	for i := idx; i < n-1; i++ {
		li, lip := o.l[i], o.l[i+1]
		for j := 0; j < idx; j++ {
			li[j] = lip[j]
		}
		for j := idx; j < i; j++ {
			li[j] = lip[j+1]
		}
		o.d[i] = o.d[i+1]
	}
	o.n = n - 1

	// restore the trailing block
	o.rankOneFrom(idx, o.w, dp)
}

// DeleteMany removes a batch of rows/columns. Indices refer to the current
// factorization; internally the largest index is deleted first so that the
// remaining indices stay valid.
func (o *LDLT) DeleteMany(indices []int) {
	idx := make([]int, len(indices))
	copy(idx, indices)
	sort.Sort(sort.Reverse(sort.IntSlice(idx)))
	for _, i := range idx {
		o.DeleteAt(i)
	}
}

// ReconstructedMatrix materializes L·D·Lᵀ (debug)
func (o *LDLT) ReconstructedMatrix() (K [][]float64) {
	n := o.n
	K = la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			s := 0.0
			for k := 0; k <= j; k++ {
				li := 1.0
				if k < i {
					li = o.l[i][k]
				}
				lj := 1.0
				if k < j {
					lj = o.l[j][k]
				}
				s += li * o.d[k] * lj
			}
			K[i][j] = s
			K[j][i] = s
		}
	}
	return
}
