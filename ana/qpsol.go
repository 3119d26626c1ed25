// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ana provides closed-form solutions of small quadratic programs;
// they are the references checked by the solver tests
package ana

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Unconstrained solves min ½ xᵀHx + gᵀx with H positive definite;
// the minimizer satisfies H·x = −g
func Unconstrained(H [][]float64, g []float64) (x []float64, err error) {
	n := len(g)
	Hi := la.MatAlloc(n, n)
	err = la.MatInvG(Hi, H, 1e-13)
	if err != nil {
		return nil, chk.Err("cannot invert Hessian:\n%v", err)
	}
	x = make([]float64, n)
	la.MatVecMul(x, -1, Hi, g)
	return
}

// EqConstrained solves min ½ xᵀHx + gᵀx subject to A·x = b by inverting
// the KKT matrix [H Aᵀ; A 0]
func EqConstrained(H [][]float64, g []float64, A [][]float64, b []float64) (x, y []float64, err error) {
	n, m := len(g), len(b)
	K := la.MatAlloc(n+m, n+m)
	for i := 0; i < n; i++ {
		copy(K[i][:n], H[i])
	}
	for k := 0; k < m; k++ {
		for j := 0; j < n; j++ {
			K[n+k][j] = A[k][j]
			K[j][n+k] = A[k][j]
		}
	}
	Ki := la.MatAlloc(n+m, n+m)
	err = la.MatInvG(Ki, K, 1e-13)
	if err != nil {
		return nil, nil, chk.Err("cannot invert KKT matrix:\n%v", err)
	}
	rhs := make([]float64, n+m)
	for i := 0; i < n; i++ {
		rhs[i] = -g[i]
	}
	copy(rhs[n:], b)
	w := make([]float64, n+m)
	la.MatVecMul(w, 1, Ki, rhs)
	x = make([]float64, n)
	y = make([]float64, m)
	copy(x, w[:n])
	copy(y, w[n:])
	return
}
