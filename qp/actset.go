// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import "github.com/cpmech/gosl/la"

// activeSetChange transforms the bijection and the LDLᵀ factors so that
// the factorized matrix matches the rows flagged in newActive.
//
// The bijection maps each original inequality index to its row inside the
// inequality block of the factorization: bij[i] < nc means row i of Ĉ is
// active and sits at factor row n+neq+bij[i]. After the transition the
// active entries of bij form a bijection onto [0, nc) and the factors hold
// exactly the active rows in that order.
//
// Deletions are processed before insertions so that the factor order never
// exceeds its previous maximum plus one during the update.
func (o *Solver) activeSetChange(newActive []bool) (err error) {
	n, neq, nin := o.n, o.neq, o.nin
	w := o.w
	dw := w.dwAug
	la.VecFill(dw, 0)

	ncf := o.nc
	copy(w.bijNew, o.bij)

	// drop rows that left the active set
	for i := 0; i < nin; i++ {
		if o.bij[i] < o.nc && !newActive[i] {
			o.ldl.DeleteAt(w.bijNew[i] + n + neq)
			for j := 0; j < nin; j++ {
				if w.bijNew[j] > w.bijNew[i] {
					w.bijNew[j]--
				}
			}
			ncf--
			w.bijNew[i] = nin - 1
		}
	}

	// append rows that entered the active set; after a failed insertion
	// the remaining rows only update the bijection
	failed := false
	for i := 0; i < nin; i++ {
		if newActive[i] && w.bijNew[i] >= ncf {
			if !failed {
				la.VecFill(dw[:n+neq+ncf+1], 0)
				o.cs.CopyRow(dw[:n], i)
				dw[n+neq+ncf] = -o.muInInv
				failed = o.ldl.InsertAt(n+neq+ncf, dw[:n+neq+ncf+1]) != nil
			}
			for j := 0; j < nin; j++ {
				if w.bijNew[j] < w.bijNew[i] && w.bijNew[j] >= ncf {
					w.bijNew[j]++
				}
			}
			w.bijNew[i] = ncf
			ncf++
		}
	}
	o.nc = ncf
	copy(o.bij, w.bijNew)
	la.VecFill(dw, 0)
	if failed {
		// commit the whole transition and rebuild with recovery
		return o.factorWithRecovery()
	}
	return
}
