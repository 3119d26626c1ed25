// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/la"
)

// Correction-guess line search over the proximal augmented Lagrangian
//
//	ψ(α) = f(x + α·dx) + ρ/2·‖x + α·dx − x_e‖²
//	     + μ_eq/2·(‖A(x+α·dx) − b + y_e/μ_eq‖² − ‖y_e/μ_eq‖²)
//	     + μ_in/2·(‖[C(x+α·dx) − u + z_e/μ_in]₊‖²
//	              + ‖[C(x+α·dx) − l + z_e/μ_in]₋‖² − ‖z_e/μ_in‖²)
//
// ψ'(α) is piecewise linear, nondecreasing, and negative at α = 0 along a
// Newton direction; its unique positive root is bracketed by scanning the
// sorted breakpoints and then computed exactly by linear interpolation,
// following qpalm (algorithm 2 of https://arxiv.org/pdf/1911.02934.pdf).

// lsPsiDeriv evaluates ψ'(α): on the interval of constant activity
// containing α the derivative is the affine function a·α + b whose
// coefficients come from the expanded squared norms
func (o *Solver) lsPsiDeriv(α float64) float64 {
	w := o.w
	dx := w.dwAug[:o.n]
	var au2, al2, aub, alb float64
	for i := 0; i < o.nin; i++ {
		tu := w.primInU[i] + α*w.cdx[i]
		tl := w.primInL[i] + α*w.cdx[i]
		if tu > 0 {
			au2 += w.cdx[i] * w.cdx[i]
			aub += w.cdx[i] * w.primInU[i]
		}
		if tl < 0 {
			al2 += w.cdx[i] * w.cdx[i]
			alb += w.cdx[i] * w.primInL[i]
		}
	}
	a := la.VecDot(dx, w.hdx) + o.muEq*sqnorm(w.adx) + o.muIn*(au2+al2) + o.rho*sqnorm(dx)
	for i := 0; i < o.n; i++ {
		w.auxU[i] = o.rho*(o.x[i]-w.xe[i]) + o.gs[i]
	}
	b := la.VecDot(o.x, w.hdx) + la.VecDot(w.auxU, dx) + o.muIn*(aub+alb)
	if o.neq > 0 {
		b += o.muEq * la.VecDot(w.adx, w.primEq)
	}
	return a*α + b
}

// correctionGuessLS returns the positive root of ψ'. With an empty node
// list the Newton step is taken in full (α = 1).
func (o *Solver) correctionGuessLS() (α float64) {
	w := o.w
	mceps := math.Nextafter(1, 2) - 1
	α = 1

	// breakpoints of the shifted inequality residuals
	w.alphas = w.alphas[:0]
	for i := 0; i < o.nin; i++ {
		if w.cdx[i] != 0 {
			w.alphas = append(w.alphas, -w.primInU[i]/(w.cdx[i]+mceps))
			w.alphas = append(w.alphas, -w.primInL[i]/(w.cdx[i]+mceps))
		}
	}
	if len(w.alphas) == 0 {
		return
	}
	sort.Float64s(w.alphas)
	w.alphas = dedupe(w.alphas)

	// bracket the root: scan increasing positive nodes until the
	// derivative changes sign
	var lastNeg, αLastNeg, firstPos, αFirstPos float64
	found := false
	for _, a := range w.alphas {
		if a > mceps {
			gr := o.lsPsiDeriv(a)
			if gr < 0 {
				αLastNeg, lastNeg = a, gr
			} else {
				αFirstPos, firstPos = a, gr
				found = true
				break
			}
		}
	}

	// the first positive node may already be past the root
	if lastNeg == 0 {
		αLastNeg = 0
		lastNeg = o.lsPsiDeriv(0)
	}

	// all nodes negative: ψ' is affine past the last breakpoint
	if !found {
		a2 := αLastNeg + 1
		g2 := o.lsPsiDeriv(a2)
		if g2 > lastNeg {
			return αLastNeg - lastNeg*(a2-αLastNeg)/(g2-lastNeg)
		}
		return 1
	}

	// exact root by linear interpolation within the bracket
	return αLastNeg - lastNeg*(αFirstPos-αLastNeg)/(firstPos-lastNeg)
}
