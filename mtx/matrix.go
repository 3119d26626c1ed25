// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mtx implements the matrix views and kernels used by the QP solver.
// Two storages are available: Dense (full, row-major) and Sparse (compressed
// rows, optionally holding only the upper triangle of a symmetric matrix).
// Both expose the same kernel set so that the solver core never knows which
// backend it is running on.
package mtx

// Matrix defines the kernels required from a matrix view
//  Notes: for a symmetric matrix stored as upper triangle (Sparse with Sym
//  set), the product kernels expand the mirrored entries and the norm
//  kernels combine row and column contributions of the triangular view
type Matrix interface {
	Dims() (m, n int)                                   // dimensions
	MatVecMul(v []float64, α float64, u []float64)      // v := α * M * u
	MatVecMulAdd(v []float64, α float64, u []float64)   // v += α * M * u
	MatTrVecMulAdd(v []float64, α float64, u []float64) // v += α * transpose(M) * u
	RowInfNorms(dst []float64)                          // dst[i] := ‖M[i,:]‖_∞
	ColInfNorms(dst []float64)                          // dst[j] := ‖M[:,j]‖_∞
	ScaleDiag(dl, dr []float64)                         // M := diag(dl) * M * diag(dr)
	Scale(γ float64)                                    // M := γ * M
	CopyRow(dst []float64, i int)                       // dst := M[i,:] (dst is zeroed first)
	ToDense(dst [][]float64)                            // dst := M as a full matrix
	Clone() Matrix                                      // deep copy
}
