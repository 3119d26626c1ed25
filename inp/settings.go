// Copyright 2017 The Proxqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"encoding/json"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

// Settings holds the solver configuration
type Settings struct {

	// tolerances
	EpsAbs    float64 `json:"epsabs"`    // absolute accuracy on the KKT residuals
	EpsRel    float64 `json:"epsrel"`    // relative accuracy on the KKT residuals
	EpsIG     float64 `json:"epsig"`     // primal accuracy below which the initial-guess phase is used
	EpsRefact float64 `json:"epsrefact"` // refinement accuracy past which the KKT is refactorized

	// iteration caps
	MaxIter      int `json:"maxiter"`      // maximum number of outer iterations
	MaxIterIn    int `json:"maxiterin"`    // maximum number of inner iterations
	NbIterRefine int `json:"nbiterrefine"` // maximum number of iterative refinement steps

	// proximal schedule
	AlphaBcl       float64 `json:"alphabcl"`       // BCL exponent after a bad outer step
	BetaBcl        float64 `json:"betabcl"`        // BCL exponent after a good outer step
	MuUpdateFactor float64 `json:"muupdatefactor"` // multiplier of the stored inverse penalties
	MuMaxEq        float64 `json:"mumaxeq"`        // cap of the equality penalty
	MuMaxIn        float64 `json:"mumaxin"`        // cap of the inequality penalty

	// refactorization and cold restart
	RefactorDualThreshold float64 `json:"refactordualthreshold"` // dual accuracy past which rho is retuned
	RefactorRhoThreshold  float64 `json:"refactorrhothreshold"`  // target rho of the retuning
	ColdResetMuEq         float64 `json:"coldresetmueq"`         // equality penalty after a cold restart
	ColdResetMuIn         float64 `json:"coldresetmuin"`         // inequality penalty after a cold restart

	// line search
	R float64 `json:"r"` // node filter: nodes with |α| ≥ R are rejected

	// initial proximal parameters
	Rho0  float64 `json:"rho0"`  // initial primal proximal parameter
	MuEq0 float64 `json:"mueq0"` // initial equality penalty
	MuIn0 float64 `json:"muin0"` // initial inequality penalty

	// output
	Verbose bool `json:"verbose"` // print the iteration table

	// derived
	EpsInMin float64 // smallest inner tolerance
}

// SetDefaults fills the settings with default values and computes the
// derived quantities. Zero-valued fields are overwritten.
func (o *Settings) SetDefaults() {
	if o.EpsAbs == 0 {
		o.EpsAbs = 1e-9
	}
	if o.EpsIG == 0 {
		o.EpsIG = 1e-2
	}
	if o.EpsRefact == 0 {
		o.EpsRefact = 1e-6
	}
	if o.MaxIter == 0 {
		o.MaxIter = 1000
	}
	if o.MaxIterIn == 0 {
		o.MaxIterIn = 1500
	}
	if o.NbIterRefine == 0 {
		o.NbIterRefine = 10
	}
	if o.AlphaBcl == 0 {
		o.AlphaBcl = 0.1
	}
	if o.BetaBcl == 0 {
		o.BetaBcl = 0.9
	}
	if o.MuUpdateFactor == 0 {
		o.MuUpdateFactor = 0.1
	}
	if o.MuMaxEq == 0 {
		o.MuMaxEq = 1e9
	}
	if o.MuMaxIn == 0 {
		o.MuMaxIn = 1e8
	}
	if o.RefactorDualThreshold == 0 {
		o.RefactorDualThreshold = 1e-2
	}
	if o.RefactorRhoThreshold == 0 {
		o.RefactorRhoThreshold = 1e-7
	}
	if o.ColdResetMuEq == 0 {
		o.ColdResetMuEq = 1.1
	}
	if o.ColdResetMuIn == 0 {
		o.ColdResetMuIn = 1.1
	}
	if o.R == 0 {
		o.R = 1e6
	}
	if o.Rho0 == 0 {
		o.Rho0 = 1e-6
	}
	if o.MuEq0 == 0 {
		o.MuEq0 = 1e3
	}
	if o.MuIn0 == 0 {
		o.MuIn0 = 1e1
	}
	o.EpsInMin = utl.Min(o.EpsAbs, 1e-9)
}

// ReadSettings reads settings from a JSON file and fills defaults
func ReadSettings(filename string) (o *Settings, err error) {
	buf, err := io.ReadFile(filename)
	if err != nil {
		return nil, chk.Err("cannot read settings file %q:\n%v", filename, err)
	}
	o = new(Settings)
	err = json.Unmarshal(buf, o)
	if err != nil {
		return nil, chk.Err("cannot parse settings file %q:\n%v", filename, err)
	}
	o.SetDefaults()
	return
}
