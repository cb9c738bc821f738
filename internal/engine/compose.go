package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourusername/oneup/internal/models"
)

const defaultOddsPrecision = 2

// Margins holds the margin fractions applied when shading fair odds. A
// positive side value overrides the default for that side.
type Margins struct {
	Default float64
	Home    float64
	Away    float64
}

// HomeFraction returns the margin fraction applied to the home side.
func (m Margins) HomeFraction() float64 {
	if m.Home > 0 {
		return m.Home
	}
	return m.Default
}

// AwayFraction returns the margin fraction applied to the away side.
func (m Margins) AwayFraction() float64 {
	if m.Away > 0 {
		return m.Away
	}
	return m.Default
}

// PriceComposer converts probabilities into quoted decimal odds, rounded
// to a fixed precision at the output boundary.
type PriceComposer struct {
	precision int32
}

// NewPriceComposer creates a composer quoting odds to the given number of
// decimal places.
func NewPriceComposer(precision int32) *PriceComposer {
	if precision <= 0 {
		precision = defaultOddsPrecision
	}
	return &PriceComposer{precision: precision}
}

// Compose converts one probability into a fair/margin odds pair. The
// probability must be strictly positive; upstream clamping guarantees
// that, so a violation here is an internal bug.
func (c *PriceComposer) Compose(p, marginFraction float64) (models.PriceQuote, error) {
	if p <= 0 {
		return models.PriceQuote{}, fmt.Errorf("cannot compose odds for probability %g: %w", p, models.ErrDegenerateProb)
	}
	fair := 1.0 / p
	margin := fair * (1.0 - marginFraction)
	return models.PriceQuote{
		Fair:   c.round(fair),
		Margin: c.round(margin),
	}, nil
}

func (c *PriceComposer) round(odds float64) float64 {
	f, _ := decimal.NewFromFloat(odds).Round(c.precision).Float64()
	return f
}
