// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtx

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

// Sparse implements Matrix with compressed-row storage. With Sym set, only
// the upper triangle (j ≥ i) is stored and the kernels expand the mirrored
// entries on the fly.
type Sparse struct {
	M, N int       // dimensions
	Sym  bool      // symmetric with upper-triangle storage
	Ap   []int     // row pointers (len = M+1)
	Aj   []int     // column indices
	Ax   []float64 // values
}

// NewSparse builds a compressed-row view from triplet data
//  Input:
//   m, n    -- dimensions
//   i, j, x -- triplet entries; duplicates are not allowed
//   sym     -- symmetric matrix given by its upper triangle; requires j ≥ i
//              for all entries and m == n
func NewSparse(m, n int, i, j []int, x []float64, sym bool) (o *Sparse, err error) {
	if len(i) != len(j) || len(i) != len(x) {
		return nil, chk.Err("triplet arrays have inconsistent lengths: %d, %d, %d", len(i), len(j), len(x))
	}
	if sym && m != n {
		return nil, chk.Err("symmetric sparse matrix must be square: m=%d n=%d", m, n)
	}
	o = new(Sparse)
	o.M, o.N, o.Sym = m, n, sym
	nnz := len(x)
	o.Ap = make([]int, m+1)
	o.Aj = make([]int, nnz)
	o.Ax = make([]float64, nnz)
	for k := 0; k < nnz; k++ {
		if i[k] < 0 || i[k] >= m || j[k] < 0 || j[k] >= n {
			return nil, chk.Err("triplet entry %d is out of range: (%d,%d) not in %d×%d", k, i[k], j[k], m, n)
		}
		if sym && j[k] < i[k] {
			return nil, chk.Err("symmetric sparse matrix requires upper-triangle entries: got (%d,%d)", i[k], j[k])
		}
		o.Ap[i[k]+1]++
	}
	for r := 0; r < m; r++ {
		o.Ap[r+1] += o.Ap[r]
	}
	pos := make([]int, m)
	copy(pos, o.Ap[:m])
	for k := 0; k < nnz; k++ {
		p := pos[i[k]]
		o.Aj[p] = j[k]
		o.Ax[p] = x[k]
		pos[i[k]]++
	}
	return
}

// SameStructure tells whether another triplet pattern matches this one.
// The comparison checks the number of entries of every row and that each
// (row, col) pair is present in the stored pattern, which is enough to
// decide whether values can be overwritten in place.
func (o *Sparse) SameStructure(i, j []int) bool {
	if len(i) != len(o.Ax) {
		return false
	}
	cnt := make([]int, o.M+1)
	for k := 0; k < len(i); k++ {
		if i[k] < 0 || i[k] >= o.M || j[k] < 0 || j[k] >= o.N {
			return false
		}
		cnt[i[k]+1]++
	}
	for r := 0; r < o.M; r++ {
		cnt[r+1] += cnt[r]
		if cnt[r+1] != o.Ap[r+1] {
			return false
		}
	}
	for k := 0; k < len(i); k++ {
		found := false
		for q := o.Ap[i[k]]; q < o.Ap[i[k]+1]; q++ {
			if o.Aj[q] == j[k] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SetValues overwrites the stored values from triplet data with the same
// structure used at construction time
func (o *Sparse) SetValues(i, j []int, x []float64) {
	for k := 0; k < len(x); k++ {
		for q := o.Ap[i[k]]; q < o.Ap[i[k]+1]; q++ {
			if o.Aj[q] == j[k] {
				o.Ax[q] = x[k]
				break
			}
		}
	}
}

// Dims returns the dimensions
func (o *Sparse) Dims() (m, n int) { return o.M, o.N }

// MatVecMul computes v := α * M * u
func (o *Sparse) MatVecMul(v []float64, α float64, u []float64) {
	la.VecFill(v[:o.M], 0)
	o.MatVecMulAdd(v, α, u)
}

// MatVecMulAdd computes v += α * M * u
func (o *Sparse) MatVecMulAdd(v []float64, α float64, u []float64) {
	for i := 0; i < o.M; i++ {
		for q := o.Ap[i]; q < o.Ap[i+1]; q++ {
			j := o.Aj[q]
			v[i] += α * o.Ax[q] * u[j]
			if o.Sym && j != i {
				v[j] += α * o.Ax[q] * u[i]
			}
		}
	}
}

// MatTrVecMulAdd computes v += α * transpose(M) * u
func (o *Sparse) MatTrVecMulAdd(v []float64, α float64, u []float64) {
	if o.Sym {
		o.MatVecMulAdd(v, α, u)
		return
	}
	for i := 0; i < o.M; i++ {
		for q := o.Ap[i]; q < o.Ap[i+1]; q++ {
			v[o.Aj[q]] += α * o.Ax[q] * u[i]
		}
	}
}

// RowInfNorms computes the infinity norm of each row; with Sym set, the
// norms combine row and column contributions of the triangular view
func (o *Sparse) RowInfNorms(dst []float64) {
	la.VecFill(dst[:o.M], 0)
	for i := 0; i < o.M; i++ {
		for q := o.Ap[i]; q < o.Ap[i+1]; q++ {
			a := math.Abs(o.Ax[q])
			dst[i] = utl.Max(dst[i], a)
			if o.Sym && o.Aj[q] != i {
				dst[o.Aj[q]] = utl.Max(dst[o.Aj[q]], a)
			}
		}
	}
}

// ColInfNorms computes the infinity norm of each column; with Sym set, the
// norms combine row and column contributions of the triangular view
func (o *Sparse) ColInfNorms(dst []float64) {
	la.VecFill(dst[:o.N], 0)
	for i := 0; i < o.M; i++ {
		for q := o.Ap[i]; q < o.Ap[i+1]; q++ {
			j := o.Aj[q]
			a := math.Abs(o.Ax[q])
			dst[j] = utl.Max(dst[j], a)
			if o.Sym && j != i {
				dst[i] = utl.Max(dst[i], a)
			}
		}
	}
}

// ScaleDiag computes M := diag(dl) * M * diag(dr)
func (o *Sparse) ScaleDiag(dl, dr []float64) {
	for i := 0; i < o.M; i++ {
		for q := o.Ap[i]; q < o.Ap[i+1]; q++ {
			o.Ax[q] *= dl[i] * dr[o.Aj[q]]
		}
	}
}

// Scale computes M := γ * M
func (o *Sparse) Scale(γ float64) {
	for q := 0; q < len(o.Ax); q++ {
		o.Ax[q] *= γ
	}
}

// CopyRow copies row i into dst; dst is zeroed first
func (o *Sparse) CopyRow(dst []float64, i int) {
	la.VecFill(dst[:o.N], 0)
	for q := o.Ap[i]; q < o.Ap[i+1]; q++ {
		dst[o.Aj[q]] = o.Ax[q]
	}
	if o.Sym {
		for r := 0; r < i; r++ {
			for q := o.Ap[r]; q < o.Ap[r+1]; q++ {
				if o.Aj[q] == i {
					dst[r] = o.Ax[q]
				}
			}
		}
	}
}

// ToDense copies the matrix into dst; with Sym set, both triangles are filled
func (o *Sparse) ToDense(dst [][]float64) {
	for i := 0; i < o.M; i++ {
		la.VecFill(dst[i][:o.N], 0)
	}
	for i := 0; i < o.M; i++ {
		for q := o.Ap[i]; q < o.Ap[i+1]; q++ {
			j := o.Aj[q]
			dst[i][j] = o.Ax[q]
			if o.Sym && j != i {
				dst[j][i] = o.Ax[q]
			}
		}
	}
}

// Clone returns a deep copy
func (o *Sparse) Clone() Matrix {
	r := new(Sparse)
	r.M, r.N, r.Sym = o.M, o.N, o.Sym
	r.Ap = make([]int, len(o.Ap))
	r.Aj = make([]int, len(o.Aj))
	r.Ax = make([]float64, len(o.Ax))
	copy(r.Ap, o.Ap)
	copy(r.Aj, o.Aj)
	copy(r.Ax, o.Ax)
	return r
}
