// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ldl

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/rnd"
)

func init() {
	io.Verbose = false
}

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// randSymIndef builds a random symmetric matrix with the saddle-point
// structure of the solver's KKT matrices: positive top-left block and
// negative constraint diagonal
func randSymIndef(n, m int) (K [][]float64) {
	nt := n + m
	K = la.MatAlloc(nt, nt)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := rnd.Float64(-1, 1)
			K[i][j] = v
			K[j][i] = v
		}
		K[i][i] += float64(n) // diagonally dominant
	}
	for k := 0; k < m; k++ {
		for j := 0; j < n; j++ {
			v := rnd.Float64(-1, 1)
			K[n+k][j] = v
			K[j][n+k] = v
		}
		K[n+k][n+k] = -1
	}
	return
}

func Test_ldlt01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ldlt01. factorize and solve")

	rnd.Init(123)
	n, m := 7, 3
	K := randSymIndef(n, m)
	o := New(n + m)
	err := o.Factorize(K, n+m)
	if err != nil {
		tst.Errorf("Factorize failed:\n%v", err)
		return
	}

	// reconstruction
	R := o.ReconstructedMatrix()
	chk.Matrix(tst, "LDLt == K", 1e-10, R, K)

	// solve
	v := make([]float64, n+m)
	rnd.Float64s(v, -1, 1)
	rhs := la.VecClone(v)
	o.SolveInPlace(v)
	Kv := make([]float64, n+m)
	la.MatVecMul(Kv, 1, K, v)
	chk.Vector(tst, "K w == v", 1e-10, Kv, rhs)
}

func Test_ldlt02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ldlt02. insert then delete is the identity")

	rnd.Init(456)
	n, m := 6, 2
	nt := n + m
	K := randSymIndef(n, m)
	o := New(nt + 1)
	err := o.Factorize(K, nt)
	if err != nil {
		tst.Errorf("Factorize failed:\n%v", err)
		return
	}

	// insert a row/column in the middle and at the end
	for _, idx := range []int{3, nt} {
		col := make([]float64, nt+1)
		rnd.Float64s(col, -1, 1)
		col[idx] = -2 // safely nonzero pivot
		err = o.InsertAt(idx, col)
		if err != nil {
			tst.Errorf("InsertAt failed:\n%v", err)
			return
		}
		chk.IntAssert(o.N(), nt+1)

		// reconstruction must equal the augmented matrix
		R := o.ReconstructedMatrix()
		for i := 0; i <= nt; i++ {
			for j := 0; j <= nt; j++ {
				ii, jj := i, j
				var want float64
				switch {
				case i == idx && j == idx:
					want = col[idx]
				case i == idx:
					want = col[j]
				case j == idx:
					want = col[i]
				default:
					if ii > idx {
						ii--
					}
					if jj > idx {
						jj--
					}
					want = K[ii][jj]
				}
				chk.Scalar(tst, io.Sf("R[%d][%d]", i, j), 1e-9, R[i][j], want)
			}
		}

		// deleting the same index restores the original matrix
		o.DeleteAt(idx)
		chk.IntAssert(o.N(), nt)
		R = o.ReconstructedMatrix()
		chk.Matrix(tst, "delete(insert) == original", 1e-9, R, K)
	}
}

func Test_ldlt03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ldlt03. rank-one update")

	rnd.Init(789)
	n, m := 8, 3
	nt := n + m
	K := randSymIndef(n, m)
	o := New(nt)
	err := o.Factorize(K, nt)
	if err != nil {
		tst.Errorf("Factorize failed:\n%v", err)
		return
	}

	// K + sigma v vt, with the diagonal retune pattern of the solver
	v := make([]float64, nt)
	v[n+1] = 1
	sigma := 0.5
	o.RankOneUpdate(v, sigma)
	K[n+1][n+1] += sigma

	R := o.ReconstructedMatrix()
	chk.Matrix(tst, "updated LDLt", 1e-10, R, K)

	// dense vector update
	rnd.Float64s(v, -1, 1)
	w := la.VecClone(v)
	sigma = -0.25
	o.RankOneUpdate(v, sigma)
	for i := 0; i < nt; i++ {
		for j := 0; j < nt; j++ {
			K[i][j] += sigma * w[i] * w[j]
		}
	}
	R = o.ReconstructedMatrix()
	chk.Matrix(tst, "updated LDLt (dense v)", 1e-9, R, K)
}

func Test_ldlt04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ldlt04. batch deletion")

	rnd.Init(321)
	n, m := 5, 4
	nt := n + m
	K := randSymIndef(n, m)
	o := New(nt)
	err := o.Factorize(K, nt)
	if err != nil {
		tst.Errorf("Factorize failed:\n%v", err)
		return
	}

	// delete rows n+1 and n+3 (in increasing order on purpose: DeleteMany
	// must internally process the largest first)
	o.DeleteMany([]int{n + 1, n + 3})
	chk.IntAssert(o.N(), nt-2)

	keep := []int{0, 1, 2, 3, 4, n, n + 2}
	S := la.MatAlloc(nt-2, nt-2)
	for i, ii := range keep {
		for j, jj := range keep {
			S[i][j] = K[ii][jj]
		}
	}
	R := o.ReconstructedMatrix()
	chk.Matrix(tst, "batch deletion", 1e-9, R, S)
}
