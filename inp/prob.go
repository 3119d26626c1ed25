// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data of a quadratic program, read from
// a (.qp) JSON file or assembled programmatically, together with the
// solver settings
package inp

import (
	"encoding/json"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/proxqp/mtx"
)

// TripletData holds sparse matrix data in triplet (coordinate) format
type TripletData struct {
	I []int     `json:"i"` // row indices
	J []int     `json:"j"` // column indices
	X []float64 `json:"x"` // values
}

// Prob defines the quadratic program
//
//	minimize    ½ xᵀ H x + gᵀ x
//	subject to  A x = b
//	            l ≤ C x ≤ u
//
// Matrices are given either in dense form (H, A, C) or as upper-triangle /
// rectangular triplets (Hs, As, Cs) when Sparse is set. Missing matrices
// are treated as zero of the declared shape; missing vectors as zero.
type Prob struct {

	// global information
	Desc string `json:"desc"` // description of problem

	// dimensions
	Ndim int `json:"ndim"` // number of primal variables
	Neq  int `json:"neq"`  // number of equality constraints
	Nin  int `json:"nin"`  // number of inequality constraints

	// storage selection
	Sparse bool `json:"sparse"` // use the sparse backend

	// dense matrices
	H [][]float64 `json:"H"` // Hessian (full storage)
	A [][]float64 `json:"A"` // equality constraints matrix
	C [][]float64 `json:"C"` // inequality constraints matrix

	// sparse matrices
	Hs *TripletData `json:"Hs"` // Hessian (upper triangle)
	As *TripletData `json:"As"` // equality constraints matrix
	Cs *TripletData `json:"Cs"` // inequality constraints matrix

	// vectors
	G []float64 `json:"g"` // linear cost
	B []float64 `json:"b"` // equality right-hand side
	L []float64 `json:"l"` // lower bounds
	U []float64 `json:"u"` // upper bounds
}

// ReadProb reads a problem from a (.qp) JSON file
func ReadProb(filename string) (o *Prob, err error) {
	buf, err := io.ReadFile(filename)
	if err != nil {
		return nil, chk.Err("cannot read problem file %q:\n%v", filename, err)
	}
	o = new(Prob)
	err = json.Unmarshal(buf, o)
	if err != nil {
		return nil, chk.Err("cannot parse problem file %q:\n%v", filename, err)
	}
	err = o.Validate()
	if err != nil {
		return nil, err
	}
	return
}

// Validate checks all shapes against the declared dimensions. It returns
// a non-nil error on the first inconsistency, before any state mutation.
func (o *Prob) Validate() (err error) {
	if o.Ndim < 1 || o.Neq < 0 || o.Nin < 0 {
		return chk.Err("dimension mismatch: invalid dimensions: ndim=%d neq=%d nin=%d", o.Ndim, o.Neq, o.Nin)
	}
	checkmat := func(name string, a [][]float64, m, n int) error {
		if a == nil {
			return nil
		}
		if len(a) != m {
			return chk.Err("dimension mismatch: %s has %d rows; want %d", name, len(a), m)
		}
		for i := 0; i < m; i++ {
			if len(a[i]) != n {
				return chk.Err("dimension mismatch: %s row %d has %d columns; want %d", name, i, len(a[i]), n)
			}
		}
		return nil
	}
	checkvec := func(name string, v []float64, n int) error {
		if v != nil && len(v) != n {
			return chk.Err("dimension mismatch: %s has length %d; want %d", name, len(v), n)
		}
		return nil
	}
	checktri := func(name string, t *TripletData, m, n int) error {
		if t == nil {
			return nil
		}
		if len(t.I) != len(t.J) || len(t.I) != len(t.X) {
			return chk.Err("dimension mismatch: %s triplet arrays have lengths %d, %d, %d", name, len(t.I), len(t.J), len(t.X))
		}
		for k := 0; k < len(t.I); k++ {
			if t.I[k] < 0 || t.I[k] >= m || t.J[k] < 0 || t.J[k] >= n {
				return chk.Err("dimension mismatch: %s triplet entry %d = (%d,%d) not in %d×%d", name, k, t.I[k], t.J[k], m, n)
			}
		}
		return nil
	}
	for _, e := range []error{
		checkmat("H", o.H, o.Ndim, o.Ndim),
		checkmat("A", o.A, o.Neq, o.Ndim),
		checkmat("C", o.C, o.Nin, o.Ndim),
		checktri("Hs", o.Hs, o.Ndim, o.Ndim),
		checktri("As", o.As, o.Neq, o.Ndim),
		checktri("Cs", o.Cs, o.Nin, o.Ndim),
		checkvec("g", o.G, o.Ndim),
		checkvec("b", o.B, o.Neq),
		checkvec("l", o.L, o.Nin),
		checkvec("u", o.U, o.Nin),
	} {
		if e != nil {
			return e
		}
	}
	for k := 0; k < o.Nin; k++ {
		if o.L != nil && o.U != nil && o.L[k] > o.U[k] {
			return chk.Err("inconsistent bounds: l[%d]=%g > u[%d]=%g", k, o.L[k], k, o.U[k])
		}
	}
	return
}

// Hmat returns the Hessian view in the selected storage. A nil input
// matrix produces an explicit zero matrix of the declared shape.
func (o *Prob) Hmat() (m mtx.Matrix, err error) {
	return o.matrix(o.H, o.Hs, o.Ndim, o.Ndim, true)
}

// Amat returns the equality constraints view in the selected storage
func (o *Prob) Amat() (m mtx.Matrix, err error) {
	return o.matrix(o.A, o.As, o.Neq, o.Ndim, false)
}

// Cmat returns the inequality constraints view in the selected storage
func (o *Prob) Cmat() (m mtx.Matrix, err error) {
	return o.matrix(o.C, o.Cs, o.Nin, o.Ndim, false)
}

func (o *Prob) matrix(dense [][]float64, tri *TripletData, m, n int, sym bool) (mtx.Matrix, error) {
	if o.Sparse {
		if tri == nil {
			return mtx.NewSparse(m, n, nil, nil, nil, sym)
		}
		return mtx.NewSparse(m, n, tri.I, tri.J, tri.X, sym)
	}
	if dense == nil {
		return mtx.NewDense(m, n), nil
	}
	d := mtx.NewDense(m, n)
	for i := 0; i < m; i++ {
		copy(d.A[i], dense[i])
	}
	return d, nil
}

// Gvec, Bvec, Lvec and Uvec return copies of the vectors, materializing
// zeros for missing ones
func (o *Prob) Gvec() []float64 { return cpvec(o.G, o.Ndim) }
func (o *Prob) Bvec() []float64 { return cpvec(o.B, o.Neq) }
func (o *Prob) Lvec() []float64 { return cpvec(o.L, o.Nin) }
func (o *Prob) Uvec() []float64 { return cpvec(o.U, o.Nin) }

func cpvec(v []float64, n int) (r []float64) {
	r = make([]float64, n)
	copy(r, v)
	return
}
