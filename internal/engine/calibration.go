package engine

import (
	"fmt"
	"math"

	"github.com/yourusername/oneup/internal/models"
)

// Calibration versions accepted in configuration.
const (
	CalibrationRatioV2 = "ratio-v2"
	CalibrationRatioV1 = "ratio-v1"
	CalibrationLogitV1 = "logit-v1"
)

const probClampEps = 1e-6

// Calibration applies an empirically fitted correction to raw lead
// probabilities before they become odds. Exactly one version is active
// per engine, chosen by name at construction; superseded fits stay
// available as inert alternatives for regression pinning, never as
// silent overrides of each other.
type Calibration interface {
	Name() string
	Apply(pHome, pAway, rateHome, rateAway float64) (float64, float64)
}

// NewCalibration returns the builtin calibration registered under name.
func NewCalibration(name string) (Calibration, error) {
	switch name {
	case CalibrationRatioV2, "":
		return RatioV2(), nil
	case CalibrationRatioV1:
		return RatioV1(), nil
	case CalibrationLogitV1:
		return LogitV1(), nil
	default:
		return nil, fmt.Errorf("unknown calibration version: %s", name)
	}
}

// FromParams builds a calibration from externally fitted coefficients, so
// the tuning service can ship a retuned fit without a redeploy. The
// params version becomes the calibration name and flows into the engine
// version of every record priced under it.
func FromParams(params models.CalibrationParams) (Calibration, error) {
	switch {
	case params.HasCurves():
		return &curveCalibration{
			name:     params.Version,
			weaker:   params.WeakerCurve,
			stronger: params.StrongerCurve,
		}, nil
	case params.HasLogit():
		return &logitCalibration{name: params.Version, a: params.LogitA, b: params.LogitB}, nil
	default:
		return nil, fmt.Errorf("calibration params %q carry neither curves nor logit coefficients", params.Version)
	}
}

// RatioV2 is the production fit. Settled-match analysis showed the
// independent-Poisson model overprices the weaker side's lead chance as
// the rate gap widens and slightly overprices the stronger side too, so
// the weaker curve falls steeply past a ratio of two while the stronger
// curve drifts down gently. No correction inside the balanced band.
func RatioV2() Calibration {
	return &curveCalibration{
		name: CalibrationRatioV2,
		weaker: []models.CurvePoint{
			{X: 1.15, Y: 1.00},
			{X: 1.5, Y: 0.97},
			{X: 2.0, Y: 0.92},
			{X: 3.0, Y: 0.82},
			{X: 5.0, Y: 0.75},
		},
		stronger: []models.CurvePoint{
			{X: 1.15, Y: 1.00},
			{X: 2.0, Y: 0.97},
			{X: 4.0, Y: 0.90},
		},
	}
}

// RatioV1 is the superseded gentler fit. It underpriced extreme
// mismatches; kept selectable for regression comparison only.
func RatioV1() Calibration {
	return &curveCalibration{
		name: CalibrationRatioV1,
		weaker: []models.CurvePoint{
			{X: 1.10, Y: 1.00},
			{X: 2.0, Y: 0.95},
			{X: 3.0, Y: 0.92},
			{X: 5.0, Y: 0.90},
		},
		stronger: []models.CurvePoint{
			{X: 1.10, Y: 1.00},
			{X: 1.25, Y: 0.97},
		},
	}
}

// LogitV1 is the global logit-linear fit that shipped with the first
// deterministic strategy. It ignores the rate ratio entirely; kept
// selectable for regression comparison only.
func LogitV1() Calibration {
	return &logitCalibration{
		name: CalibrationLogitV1,
		a:    0.17721692133648134,
		b:    1.1581541486316087,
	}
}

// curveCalibration scales each side by a piecewise-linear multiplier of
// the rate ratio, one curve per side of the mismatch.
type curveCalibration struct {
	name     string
	weaker   []models.CurvePoint
	stronger []models.CurvePoint
}

func (c *curveCalibration) Name() string { return c.name }

// Apply corrects both sides. Near-equal or uninformative rates leave the
// probabilities untouched apart from the validity clamp.
func (c *curveCalibration) Apply(pHome, pAway, rateHome, rateAway float64) (float64, float64) {
	est := models.RateEstimate{Home: rateHome, Away: rateAway, Total: rateHome + rateAway}
	ratio := est.Ratio()
	if ratio <= 1 {
		return clampProb(pHome), clampProb(pAway)
	}

	weakMult := interpolateCurve(c.weaker, ratio)
	strongMult := interpolateCurve(c.stronger, ratio)

	if est.HomeIsWeaker() {
		return clampProb(pHome * weakMult), clampProb(pAway * strongMult)
	}
	return clampProb(pHome * strongMult), clampProb(pAway * weakMult)
}

// logitCalibration maps both sides through a fitted logit-linear
// transform; the fit was global across imbalance buckets, so the rate
// pair is ignored.
type logitCalibration struct {
	name string
	a, b float64
}

func (c *logitCalibration) Name() string { return c.name }

func (c *logitCalibration) Apply(pHome, pAway, rateHome, rateAway float64) (float64, float64) {
	return c.transform(pHome), c.transform(pAway)
}

func (c *logitCalibration) transform(p float64) float64 {
	if p <= probClampEps || p >= 1-probClampEps {
		return clampProb(p)
	}
	return clampProb(invLogit(c.a + c.b*logit(p)))
}

// interpolateCurve evaluates a piecewise-linear multiplier curve at x,
// holding flat beyond the end knots.
func interpolateCurve(points []models.CurvePoint, x float64) float64 {
	if len(points) == 0 {
		return 1.0
	}
	if x <= points[0].X {
		return points[0].Y
	}
	last := points[len(points)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 1; i < len(points); i++ {
		if x <= points[i].X {
			prev := points[i-1]
			span := points[i].X - prev.X
			if span <= 0 {
				return points[i].Y
			}
			frac := (x - prev.X) / span
			return prev.Y + frac*(points[i].Y-prev.Y)
		}
	}
	return last.Y
}

func clampProb(p float64) float64 {
	return clamp(p, probClampEps, 1-probClampEps)
}

func logit(p float64) float64 {
	p = clamp(p, 1e-9, 1-1e-9)
	return math.Log(p / (1 - p))
}

func invLogit(x float64) float64 {
	x = clamp(x, -20, 20)
	return 1.0 / (1.0 + math.Exp(-x))
}
