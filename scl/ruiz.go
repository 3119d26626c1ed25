// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scl

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
	"github.com/cpmech/proxqp/mtx"
)

// Ruiz implements iterative row/column equilibration. The cumulative
// scalings S (length n+n_eq+n_in) and the cost scalar C are stored so that
// primal/dual quantities and residuals can be moved between the scaled and
// the original space at any time.
type Ruiz struct {

	// configuration
	N, Neq, Nin int     // dimensions
	Eps         float64 // stop when ‖1 − δ‖_∞ ≤ Eps
	MaxIter     int     // maximum number of equilibration sweeps

	// results
	S []float64 // cumulative diagonal scaling
	C float64   // cumulative cost scaling

	// scratch
	δ                []float64 // per-sweep scaling
	nrmH, nrmA, nrmC []float64 // column norms w.r.t the primal variables
	nrmAr, nrmCr     []float64 // row norms of A and C
}

// NewRuiz returns a new equilibrator with default parameters
// (ε = 1e-3, 10 sweeps)
func NewRuiz(n, neq, nin int) (o *Ruiz) {
	o = new(Ruiz)
	o.N, o.Neq, o.Nin = n, neq, nin
	o.Eps = 1e-3
	o.MaxIter = 10
	nt := n + neq + nin
	o.S = make([]float64, nt)
	o.δ = make([]float64, nt)
	o.nrmH = make([]float64, n)
	o.nrmA = make([]float64, n)
	o.nrmC = make([]float64, n)
	o.nrmAr = make([]float64, neq)
	o.nrmCr = make([]float64, nin)
	la.VecFill(o.S, 1)
	o.C = 1
	return
}

// ScaleProb computes fresh equilibration parameters and scales the problem
// in place. The matrices/vectors must be working copies; the caller keeps
// the originals.
func (o *Ruiz) ScaleProb(H, A, C mtx.Matrix, g, b, l, u []float64) {
	mcheps := math.Nextafter(1, 2) - 1
	la.VecFill(o.S, 1)
	la.VecFill(o.δ, 0)
	o.C = 1
	n, neq, nin := o.N, o.Neq, o.Nin
	for it := 1; ; it++ {
		errδ := 0.0
		for i := 0; i < len(o.δ); i++ {
			errδ = utl.Max(errδ, math.Abs(1-o.δ[i]))
		}
		if errδ <= o.Eps || it > o.MaxIter {
			break
		}

		// normalization vector
		H.ColInfNorms(o.nrmH)
		if neq > 0 {
			A.ColInfNorms(o.nrmA)
			A.RowInfNorms(o.nrmAr)
		} else {
			la.VecFill(o.nrmA, 0)
		}
		if nin > 0 {
			C.ColInfNorms(o.nrmC)
			C.RowInfNorms(o.nrmCr)
		} else {
			la.VecFill(o.nrmC, 0)
		}
		for k := 0; k < n; k++ {
			o.δ[k] = 1.0 / (math.Sqrt(utl.Max(o.nrmH[k], utl.Max(o.nrmA[k], o.nrmC[k]))) + mcheps)
		}
		for k := 0; k < neq; k++ {
			o.δ[n+k] = 1.0 / (math.Sqrt(o.nrmAr[k]) + mcheps)
		}
		for k := 0; k < nin; k++ {
			o.δ[n+neq+k] = 1.0 / (math.Sqrt(o.nrmCr[k]) + mcheps)
		}

		// normalize matrices and vectors
		dh := o.δ[:n]
		de := o.δ[n : n+neq]
		di := o.δ[n+neq:]
		H.ScaleDiag(dh, dh)
		if neq > 0 {
			A.ScaleDiag(de, dh)
		}
		if nin > 0 {
			C.ScaleDiag(di, dh)
		}
		for i := 0; i < n; i++ {
			g[i] *= dh[i]
		}
		for k := 0; k < neq; k++ {
			b[k] *= de[k]
		}
		for k := 0; k < nin; k++ {
			l[k] *= di[k]
			u[k] *= di[k]
		}

		// additional normalization of the cost
		H.ColInfNorms(o.nrmH)
		mean := 0.0
		for k := 0; k < n; k++ {
			mean += o.nrmH[k]
		}
		if n > 0 {
			mean /= float64(n)
		}
		ginf := 0.0
		for i := 0; i < n; i++ {
			ginf = utl.Max(ginf, math.Abs(g[i]))
		}
		γ := 1.0 / utl.Max(mean, utl.Max(ginf, 1))
		for i := 0; i < n; i++ {
			g[i] *= γ
		}
		H.Scale(γ)

		// accumulate
		for i := 0; i < len(o.S); i++ {
			o.S[i] *= o.δ[i]
		}
		o.C *= γ
	}
}

// ApplyStored scales the problem in place reusing the parameters of a
// previous ScaleProb call
func (o *Ruiz) ApplyStored(H, A, C mtx.Matrix, g, b, l, u []float64) {
	n, neq, nin := o.N, o.Neq, o.Nin
	dh := o.S[:n]
	de := o.S[n : n+neq]
	di := o.S[n+neq:]
	H.ScaleDiag(dh, dh)
	H.Scale(o.C)
	if neq > 0 {
		A.ScaleDiag(de, dh)
	}
	if nin > 0 {
		C.ScaleDiag(di, dh)
	}
	for i := 0; i < n; i++ {
		g[i] *= dh[i] * o.C
	}
	for k := 0; k < neq; k++ {
		b[k] *= de[k]
	}
	for k := 0; k < nin; k++ {
		l[k] *= di[k]
		u[k] *= di[k]
	}
}

// ScalePrimal computes x̂ := D⁻¹ x
func (o *Ruiz) ScalePrimal(x []float64) {
	for i := 0; i < o.N; i++ {
		x[i] /= o.S[i]
	}
}

// UnscalePrimal computes x := D x̂
func (o *Ruiz) UnscalePrimal(x []float64) {
	for i := 0; i < o.N; i++ {
		x[i] *= o.S[i]
	}
}

// ScaleDualEq computes ŷ := c E_eq⁻¹ y
func (o *Ruiz) ScaleDualEq(y []float64) {
	for k := 0; k < o.Neq; k++ {
		y[k] = y[k] / o.S[o.N+k] * o.C
	}
}

// UnscaleDualEq computes y := E_eq ŷ / c
func (o *Ruiz) UnscaleDualEq(y []float64) {
	for k := 0; k < o.Neq; k++ {
		y[k] = y[k] * o.S[o.N+k] / o.C
	}
}

// ScaleDualIn computes ẑ := c E_in⁻¹ z
func (o *Ruiz) ScaleDualIn(z []float64) {
	for k := 0; k < o.Nin; k++ {
		z[k] = z[k] / o.S[o.N+o.Neq+k] * o.C
	}
}

// UnscaleDualIn computes z := E_in ẑ / c
func (o *Ruiz) UnscaleDualIn(z []float64) {
	for k := 0; k < o.Nin; k++ {
		z[k] = z[k] * o.S[o.N+o.Neq+k] / o.C
	}
}

// ScalePrimalResidEq moves an equality residual into the scaled space
func (o *Ruiz) ScalePrimalResidEq(r []float64) {
	for k := 0; k < o.Neq; k++ {
		r[k] *= o.S[o.N+k]
	}
}

// UnscalePrimalResidEq moves an equality residual into the original space
func (o *Ruiz) UnscalePrimalResidEq(r []float64) {
	for k := 0; k < o.Neq; k++ {
		r[k] /= o.S[o.N+k]
	}
}

// ScalePrimalResidIn moves an inequality residual into the scaled space
func (o *Ruiz) ScalePrimalResidIn(r []float64) {
	for k := 0; k < o.Nin; k++ {
		r[k] *= o.S[o.N+o.Neq+k]
	}
}

// UnscalePrimalResidIn moves an inequality residual into the original space
func (o *Ruiz) UnscalePrimalResidIn(r []float64) {
	for k := 0; k < o.Nin; k++ {
		r[k] /= o.S[o.N+o.Neq+k]
	}
}

// ScaleDualResid moves a dual residual into the scaled space
func (o *Ruiz) ScaleDualResid(r []float64) {
	for i := 0; i < o.N; i++ {
		r[i] *= o.S[i] * o.C
	}
}

// UnscaleDualResid moves a dual residual into the original space
func (o *Ruiz) UnscaleDualResid(r []float64) {
	for i := 0; i < o.N; i++ {
		r[i] /= o.S[i] * o.C
	}
}
