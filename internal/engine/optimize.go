package engine

import (
	"fmt"
	"math"
)

// Objective is a one-dimensional function to minimize over a closed
// interval.
type Objective func(x float64) float64

// Minimizer finds a minimum of an objective on [lo, hi]. The second return
// reports convergence; callers fall back to a grid scan when it is false.
type Minimizer interface {
	Minimize(f Objective, lo, hi float64) (float64, bool)
}

// Minimizer strategy names accepted in configuration.
const (
	MinimizerGolden = "golden"
	MinimizerGrid   = "grid"
)

// NewMinimizer builds the minimizer strategy selected by name. Selection
// happens once at configuration time, never by runtime capability probing.
func NewMinimizer(name string) (Minimizer, error) {
	switch name {
	case MinimizerGolden, "":
		return GoldenSection{}, nil
	case MinimizerGrid:
		return GridSearch{}, nil
	default:
		return nil, fmt.Errorf("unknown minimizer strategy: %s", name)
	}
}

// GoldenSection is a bounded scalar minimizer. It assumes a unimodal
// objective; on a flat or multimodal loss it still terminates but may
// report non-convergence when the iteration budget runs out.
type GoldenSection struct {
	Tol     float64
	MaxIter int
}

const invPhi = 0.6180339887498949

// Minimize narrows [lo, hi] by golden-section steps until the bracket is
// below tolerance or the iteration budget is spent.
func (g GoldenSection) Minimize(f Objective, lo, hi float64) (float64, bool) {
	tol := g.Tol
	if tol <= 0 {
		tol = 1e-6
	}
	maxIter := g.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	if hi <= lo {
		return lo, false
	}

	a, b := lo, hi
	c := b - (b-a)*invPhi
	d := a + (b-a)*invPhi
	fc := f(c)
	fd := f(d)

	for i := 0; i < maxIter; i++ {
		if b-a < tol {
			return (a + b) / 2, true
		}
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - (b-a)*invPhi
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + (b-a)*invPhi
			fd = f(d)
		}
	}
	return (a + b) / 2, false
}

// GridSearch scans evenly spaced points across the interval. It always
// terminates and always converges, which makes it the fallback strategy
// for every bounded minimization in the engine.
type GridSearch struct {
	Points int
}

// Minimize evaluates the objective at every grid point and returns the
// best one.
func (g GridSearch) Minimize(f Objective, lo, hi float64) (float64, bool) {
	points := g.Points
	if points < 2 {
		points = 201
	}
	if hi <= lo {
		return lo, false
	}

	best := lo
	bestVal := math.Inf(1)
	step := (hi - lo) / float64(points-1)
	for i := 0; i < points; i++ {
		x := lo + float64(i)*step
		if v := f(x); v < bestVal {
			bestVal = v
			best = x
		}
	}
	return best, true
}

// minimizeBounded runs the configured minimizer and falls back to a dense
// grid of the given resolution when it does not converge. The fallback is
// silent apart from a counter; both paths terminate by construction.
func minimizeBounded(m Minimizer, f Objective, lo, hi float64, gridPoints int, stage string) float64 {
	if m != nil {
		if x, ok := m.Minimize(f, lo, hi); ok {
			return x
		}
		optimizerFallbackTotal.WithLabelValues(stage).Inc()
	}
	x, _ := GridSearch{Points: gridPoints}.Minimize(f, lo, hi)
	return x
}
