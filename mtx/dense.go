// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtx

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

// Dense implements Matrix with full row-major storage. Symmetric matrices
// are stored in full; the kernels need no special handling.
type Dense struct {
	M, N int         // dimensions
	A    [][]float64 // components
}

// NewDense returns a new zeroed dense view
func NewDense(m, n int) (o *Dense) {
	o = new(Dense)
	o.M, o.N = m, n
	o.A = la.MatAlloc(m, n)
	return
}

// NewDenseMat wraps an existing matrix; the data is NOT copied
func NewDenseMat(a [][]float64) (o *Dense) {
	o = new(Dense)
	o.M = len(a)
	if o.M > 0 {
		o.N = len(a[0])
	}
	o.A = a
	return
}

// Dims returns the dimensions
func (o *Dense) Dims() (m, n int) { return o.M, o.N }

// MatVecMul computes v := α * M * u
func (o *Dense) MatVecMul(v []float64, α float64, u []float64) {
	la.MatVecMul(v, α, o.A, u)
}

// MatVecMulAdd computes v += α * M * u
func (o *Dense) MatVecMulAdd(v []float64, α float64, u []float64) {
	la.MatVecMulAdd(v, α, o.A, u)
}

// MatTrVecMulAdd computes v += α * transpose(M) * u
func (o *Dense) MatTrVecMulAdd(v []float64, α float64, u []float64) {
	la.MatTrVecMulAdd(v, α, o.A, u)
}

// RowInfNorms computes the infinity norm of each row
func (o *Dense) RowInfNorms(dst []float64) {
	for i := 0; i < o.M; i++ {
		dst[i] = 0
		for j := 0; j < o.N; j++ {
			dst[i] = utl.Max(dst[i], math.Abs(o.A[i][j]))
		}
	}
}

// ColInfNorms computes the infinity norm of each column
func (o *Dense) ColInfNorms(dst []float64) {
	la.VecFill(dst, 0)
	for i := 0; i < o.M; i++ {
		for j := 0; j < o.N; j++ {
			dst[j] = utl.Max(dst[j], math.Abs(o.A[i][j]))
		}
	}
}

// ScaleDiag computes M := diag(dl) * M * diag(dr)
func (o *Dense) ScaleDiag(dl, dr []float64) {
	for i := 0; i < o.M; i++ {
		for j := 0; j < o.N; j++ {
			o.A[i][j] *= dl[i] * dr[j]
		}
	}
}

// Scale computes M := γ * M
func (o *Dense) Scale(γ float64) {
	la.MatCopy(o.A, γ, o.A)
}

// CopyRow copies row i into dst
func (o *Dense) CopyRow(dst []float64, i int) {
	copy(dst[:o.N], o.A[i])
}

// ToDense copies the matrix into dst
func (o *Dense) ToDense(dst [][]float64) {
	for i := 0; i < o.M; i++ {
		copy(dst[i][:o.N], o.A[i])
	}
}

// Clone returns a deep copy
func (o *Dense) Clone() Matrix {
	r := NewDense(o.M, o.N)
	la.MatCopy(r.A, 1, o.A)
	return r
}
