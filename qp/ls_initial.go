// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/la"
)

// Initial-guess line search: exact minimization of the squared norm of the
// stacked saddle-point residual
//
//	F(α) = [ dual-stationarity residual + Ĉ_activeᵀ·z(α)
//	         equality residual − (y − y_e)/μ_eq
//	         (C·x − u)_i + α·C_i·dx − (z_i(α) − z_e,i)/μ_in   (upper-active)
//	         (C·x − l)_i + α·C_i·dx − (z_i(α) − z_e,i)/μ_in   (lower-active)
//	         z_i(α)                                            (inactive) ]
//
// where the activity of row i at α is decided by the sign of the shifted
// residuals and z(α) clamps z_e + α·dz to the matching half-line. F is
// piecewise quadratic in α: the breakpoints ("nodes") are the α that flip
// one activity flag or one clamp; within an interval the squared norm is
// an exact quadratic minimized in closed form.

// lsGradientNorm evaluates ‖F(α)‖² at one node
func (o *Solver) lsGradientNorm(α float64) (sum float64) {
	n, neq, nin := o.n, o.neq, o.nin
	w := o.w
	dz := w.dwAug[n+neq : n+neq+nin]
	for i := 0; i < n; i++ {
		w.auxU[i] = w.dualResid[i] + α*w.dDualForEq[i]
	}
	for i := 0; i < nin; i++ {
		tu := w.primInU[i] + α*w.cdx[i]
		tl := w.primInL[i] + α*w.cdx[i]
		au := tu >= 0
		al := tl <= 0
		zi := w.ze[i] + α*dz[i]
		if au && zi < 0 {
			zi = 0
		}
		if al && zi > 0 {
			zi = 0
		}
		if au || al {
			cnt := 0.0
			if au {
				v := tu - zi*o.muInInv
				sum += v * v
				cnt++
			}
			if al {
				v := tl - zi*o.muInInv
				sum += v * v
				cnt++
			}
			o.cs.CopyRow(w.row, i)
			la.VecAdd(w.auxU, cnt*zi, w.row)
		} else {
			sum += zi * zi
		}
	}
	for i := 0; i < n; i++ {
		sum += w.auxU[i] * w.auxU[i]
	}
	for k := 0; k < neq; k++ {
		v := w.primEq[k] + α*w.dPrimEq[k]
		sum += v * v
	}
	return
}

// lsLocalSaddlePoint derives the exact quadratic a·α² + 2·b·α + c of
// ‖F‖² on the interval containing αProbe (the active set and the clamps
// are frozen at αProbe) and minimizes it in closed form. It returns the
// minimum value and its argmin.
func (o *Solver) lsLocalSaddlePoint(αProbe float64) (res, αMin float64) {
	n, neq, nin := o.n, o.neq, o.nin
	w := o.w
	dz := w.dwAug[n+neq : n+neq+nin]
	copy(w.lsDde, w.dDualForEq)
	copy(w.lsDe, w.dualResid)
	var a0s, b0s, c0s float64
	for i := 0; i < nin; i++ {
		tu := w.primInU[i] + αProbe*w.cdx[i]
		tl := w.primInL[i] + αProbe*w.cdx[i]
		au := tu >= 0
		al := tl <= 0
		zp, dzp := w.ze[i], dz[i]
		zi := w.ze[i] + αProbe*dz[i]
		if au && zi < 0 {
			zp, dzp = 0, 0
		}
		if al && zi > 0 {
			zp, dzp = 0, 0
		}
		if au || al {
			cnt := 0.0
			if au {
				d2 := w.cdx[i] - dzp*o.muInInv
				t2 := w.primInU[i] - zp*o.muInInv
				a0s += d2 * d2
				b0s += d2 * t2
				c0s += t2 * t2
				cnt++
			}
			if al {
				d2 := w.cdx[i] - dzp*o.muInInv
				t2 := w.primInL[i] - zp*o.muInInv
				a0s += d2 * d2
				b0s += d2 * t2
				c0s += t2 * t2
				cnt++
			}
			o.cs.CopyRow(w.row, i)
			la.VecAdd(w.lsDde, cnt*dzp, w.row)
			la.VecAdd(w.lsDe, cnt*zp, w.row)
		} else {
			a0s += dzp * dzp
			b0s += dzp * zp
			c0s += zp * zp
		}
	}
	a0 := a0s + sqnorm(w.lsDde) + sqnorm(w.dPrimEq)
	b0 := b0s + la.VecDot(w.lsDde, w.lsDe) + dotOrZero(w.primEq, w.dPrimEq)
	c0 := c0s + sqnorm(w.lsDe) + sqnorm(w.primEq)
	switch {
	case a0 != 0:
		αMin = -b0 / a0
		res = αMin*(a0*αMin+2*b0) + c0
	case b0 != 0:
		αMin = -c0 / b0
		res = b0*αMin + c0
	default:
		αMin = 0
		res = c0
	}
	return
}

// initialGuessLS returns the step length minimizing ‖F(α)‖² over all
// nodes and all per-interval closed-form minima. With an empty node list
// the Newton step is taken in full (α = 1).
func (o *Solver) initialGuessLS() (α float64) {
	n, neq, nin := o.n, o.neq, o.nin
	w := o.w
	dz := w.dwAug[n+neq : n+neq+nin]
	mceps := math.Nextafter(1, 2) - 1
	α = 1

	// nodes
	w.alphas = w.alphas[:0]
	for i := 0; i < nin; i++ {
		if w.ze[i] != 0 {
			a := -w.ze[i] / (dz[i] + mceps)
			if math.Abs(a) < o.Set.R {
				w.alphas = append(w.alphas, a)
			}
		}
	}
	for i := 0; i < nin; i++ {
		if w.cdx[i] != 0 {
			a := -w.primInU[i] / (w.cdx[i] + mceps)
			if math.Abs(a) < o.Set.R {
				w.alphas = append(w.alphas, a)
			}
			a = -w.primInL[i] / (w.cdx[i] + mceps)
			if math.Abs(a) < o.Set.R {
				w.alphas = append(w.alphas, a)
			}
		}
	}
	if len(w.alphas) == 0 {
		return
	}
	sort.Float64s(w.alphas)
	w.alphas = dedupe(w.alphas)
	na := len(w.alphas)

	// evaluate the merit at every node
	αNode, grNode := 1.0, math.Inf(1)
	for _, a := range w.alphas {
		if math.Abs(a) < 1e6 {
			gr := o.lsGradientNorm(a)
			if gr < grNode {
				αNode, grNode = a, gr
			}
		}
	}

	// minimize over each interval of constant activity
	var αInt, grInt float64
	first := true
	for i := -1; i < na; i++ {
		var probe float64
		switch {
		case i == -1:
			probe = w.alphas[0] - 0.5
		case i == na-1:
			probe = w.alphas[na-1] + 0.5
		default:
			probe = (w.alphas[i] + w.alphas[i+1]) * 0.5
		}
		res, am := o.lsLocalSaddlePoint(probe)
		inside := false
		switch {
		case i == -1:
			inside = am <= w.alphas[0]
		case i == na-1:
			inside = am >= w.alphas[na-1]
		default:
			inside = w.alphas[i] <= am && am <= w.alphas[i+1]
		}
		if inside {
			if first || res < grInt {
				αInt, grInt = am, res
				first = false
			}
		}
	}

	if !first && grInt <= grNode {
		return αInt
	}
	return αNode
}

// sqnorm returns the squared Euclidean norm
func sqnorm(v []float64) (res float64) {
	for _, x := range v {
		res += x * x
	}
	return
}

// dotOrZero returns the dot product, accepting empty vectors
func dotOrZero(u, v []float64) float64 {
	if len(u) == 0 {
		return 0
	}
	return la.VecDot(u, v)
}

// dedupe removes consecutive duplicates from a sorted slice, in place
func dedupe(a []float64) []float64 {
	k := 0
	for i := 0; i < len(a); i++ {
		if i == 0 || a[i] != a[k-1] {
			a[k] = a[i]
			k++
		}
	}
	return a[:k]
}
