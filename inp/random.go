// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/rnd"
)

// NewRandomProb generates a random feasible convex QP
//  Input:
//   n, neq, nin -- dimensions
//   sparse      -- build triplet (banded / filtered) matrices instead of dense
//   seed        -- seed for the random number generator
//  Output:
//   a problem with PSD Hessian, full-row-rank A (with high probability) and
//   bounds straddling C·x0 for a random interior point x0
func NewRandomProb(n, neq, nin int, sparse bool, seed int) (o *Prob) {
	rnd.Init(seed)
	o = new(Prob)
	o.Desc = "random feasible QP"
	o.Ndim, o.Neq, o.Nin = n, neq, nin
	o.Sparse = sparse

	// interior point and cost
	x0 := make([]float64, n)
	rnd.Float64s(x0, -1, 1)
	o.G = make([]float64, n)
	rnd.Float64s(o.G, -1, 1)

	if sparse {

		// banded diagonally-dominant Hessian (upper triangle)
		o.Hs = new(TripletData)
		band := 3
		dia := make([]float64, n)
		type entry struct {
			i, j int
			x    float64
		}
		var off []entry
		for i := 0; i < n; i++ {
			for j := i + 1; j < n && j <= i+band; j++ {
				v := rnd.Float64(-1, 1)
				off = append(off, entry{i, j, v})
				dia[i] += math.Abs(v)
				dia[j] += math.Abs(v)
			}
		}
		for i := 0; i < n; i++ {
			o.Hs.I = append(o.Hs.I, i)
			o.Hs.J = append(o.Hs.J, i)
			o.Hs.X = append(o.Hs.X, dia[i]+1)
		}
		for _, e := range off {
			o.Hs.I = append(o.Hs.I, e.i)
			o.Hs.J = append(o.Hs.J, e.j)
			o.Hs.X = append(o.Hs.X, e.x)
		}

		// constraints with one guaranteed entry per row
		o.As = randomRect(neq, n)
		o.Cs = randomRect(nin, n)
		o.B = tripletMulVec(o.As, neq, x0)
		d := tripletMulVec(o.Cs, nin, x0)
		o.L, o.U = bounds(d)
		return
	}

	// dense PSD Hessian: H = MᵀM/n + 0.01 I
	M := la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		rnd.Float64s(M[i], -1, 1)
	}
	o.H = la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := 0.0
			for k := 0; k < n; k++ {
				s += M[k][i] * M[k][j]
			}
			o.H[i][j] = s / float64(n)
		}
		o.H[i][i] += 0.01
	}

	// constraints
	o.A = la.MatAlloc(neq, n)
	for k := 0; k < neq; k++ {
		rnd.Float64s(o.A[k], -1, 1)
	}
	o.C = la.MatAlloc(nin, n)
	for k := 0; k < nin; k++ {
		rnd.Float64s(o.C[k], -1, 1)
	}
	o.B = make([]float64, neq)
	la.MatVecMul(o.B, 1, o.A, x0)
	d := make([]float64, nin)
	la.MatVecMul(d, 1, o.C, x0)
	o.L, o.U = bounds(d)
	return
}

// randomRect builds a random rectangular triplet with roughly 30% fill and
// at least one entry per row
func randomRect(m, n int) (t *TripletData) {
	t = new(TripletData)
	for i := 0; i < m; i++ {
		nrow := 0
		for j := 0; j < n; j++ {
			if rnd.Float64(0, 1) < 0.3 {
				t.I = append(t.I, i)
				t.J = append(t.J, j)
				t.X = append(t.X, rnd.Float64(-1, 1))
				nrow++
			}
		}
		if nrow == 0 {
			t.I = append(t.I, i)
			t.J = append(t.J, i%n)
			t.X = append(t.X, rnd.Float64(0.5, 1))
		}
	}
	return
}

func tripletMulVec(t *TripletData, m int, x []float64) (v []float64) {
	v = make([]float64, m)
	for k := 0; k < len(t.X); k++ {
		v[t.I[k]] += t.X[k] * x[t.J[k]]
	}
	return
}

func bounds(d []float64) (l, u []float64) {
	nin := len(d)
	l = make([]float64, nin)
	u = make([]float64, nin)
	for k := 0; k < nin; k++ {
		l[k] = d[k] - rnd.Float64(0.1, 1)
		u[k] = d[k] + rnd.Float64(0.1, 1)
	}
	return
}
