package models

import "time"

// CurvePoint is one knot of a piecewise-linear multiplier curve. X is the
// rate ratio, Y the probability multiplier applied at that ratio.
type CurvePoint struct {
	X float64 `json:"x" validate:"required,gt=0"`
	Y float64 `json:"y" validate:"required,gt=0"`
}

// CalibrationParams are the tunable coefficients of an empirical
// calibration, fitted offline against settled results and fetched from the
// tuning service. Params are immutable once constructed; a refresh swaps
// the whole value.
type CalibrationParams struct {
	Version       string       `json:"version" validate:"required"`
	WeakerCurve   []CurvePoint `json:"weaker_curve,omitempty"`
	StrongerCurve []CurvePoint `json:"stronger_curve,omitempty"`

	// Logit coefficients, used by logit-family calibrations instead of
	// the multiplier curves.
	LogitA float64 `json:"logit_a,omitempty"`
	LogitB float64 `json:"logit_b,omitempty"`

	FittedAt time.Time `json:"fitted_at,omitempty"`
}

// HasCurves reports whether the params carry multiplier curves
func (c *CalibrationParams) HasCurves() bool {
	return c != nil && len(c.WeakerCurve) > 0 && len(c.StrongerCurve) > 0
}

// HasLogit reports whether the params carry logit coefficients
func (c *CalibrationParams) HasLogit() bool {
	return c != nil && c.LogitB != 0
}
