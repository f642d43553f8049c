package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/encodeous/dvhop/state"
)

var (
	ErrInsufficientBeacons = errors.New("fewer than three beacons available")
	ErrTooManyBeacons      = errors.New("estimator takes exactly three beacons")
	ErrDuplicateBeacon     = errors.New("beacons must be distinct")
	ErrDegenerateGeometry  = errors.New("beacons are collinear, position is not unique")
	ErrInvalidHopDistance  = errors.New("hop distance must be positive and finite")
	ErrInvalidTolerance    = errors.New("tolerance must be a non-negative number")
)

// Estimator turns hop counts to three beacons into a position via multilateration.
type Estimator struct {
	hopDistance float64
	tolerance   float64
}

type EstimatorOption func(e *Estimator)

// WithTolerance sets how close to collinear (as the sine of the angle between the beacons)
// a triple may be before the linear system is treated as singular.
func WithTolerance(tol float64) EstimatorOption {
	return func(e *Estimator) {
		e.tolerance = tol
	}
}

func NewEstimator(hopDistance float64, opts ...EstimatorOption) (*Estimator, error) {
	if !(hopDistance > 0) || math.IsInf(hopDistance, 0) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidHopDistance, hopDistance)
	}
	e := &Estimator{
		hopDistance: hopDistance,
		tolerance:   state.SingularityTolerance,
	}
	for _, opt := range opts {
		opt(e)
	}
	if !(e.tolerance >= 0) || math.IsInf(e.tolerance, 0) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidTolerance, e.tolerance)
	}
	return e, nil
}

func (e *Estimator) HopDistance() float64 {
	return e.hopDistance
}

/*
Estimate solves for the point (x, y) at distance r_i = hops_i * hopDistance from each beacon i.

Subtracting the circle equation of beacon 0 from those of beacons 1 and 2 leaves the linear system

	a*x + b*y = c/2
	d*x + e*y = f/2

which is solved with Cramer's rule.
*/
func (e *Estimator) Estimate(records []state.BeaconRecord) (state.Position, error) {
	if len(records) < 3 {
		return state.Position{}, fmt.Errorf("%w: got %d", ErrInsufficientBeacons, len(records))
	}
	if len(records) > 3 {
		return state.Position{}, fmt.Errorf("%w: got %d", ErrTooManyBeacons, len(records))
	}
	if records[0].Id == records[1].Id || records[0].Id == records[2].Id || records[1].Id == records[2].Id {
		return state.Position{}, ErrDuplicateBeacon
	}

	var xs, ys, rs [3]float64
	for i, rec := range records {
		if !rec.Position.IsFinite() {
			return state.Position{}, fmt.Errorf("%w: beacon %s is at %s", ErrDegenerateGeometry, rec.Id, rec.Position)
		}
		xs[i] = rec.Position.X
		ys[i] = rec.Position.Y
		rs[i] = float64(rec.Hops) * e.hopDistance
	}

	a := xs[0] - xs[1]
	b := ys[0] - ys[1]
	d := xs[0] - xs[2]
	ee := ys[0] - ys[2]

	t := rs[0]*rs[0] - xs[0]*xs[0] - ys[0]*ys[0]
	c := (rs[1]*rs[1] - xs[1]*xs[1] - ys[1]*ys[1]) - t
	f := (rs[2]*rs[2] - xs[2]*xs[2] - ys[2]*ys[2]) - t

	// m is |u||v|sin(θ) for u = (a, b) and v = (d, ee), so the ratio is the sine of the
	// angle the three beacons make
	m := a*ee - d*b
	scale := math.Hypot(a, b) * math.Hypot(d, ee)
	if scale == 0 || math.Abs(m) <= e.tolerance*scale {
		return state.Position{}, ErrDegenerateGeometry
	}

	pos := state.Position{
		X: (c*ee - b*f) / (2 * m),
		Y: (a*f - d*c) / (2 * m),
	}
	if !pos.IsFinite() {
		return state.Position{}, fmt.Errorf("%w: solution %s overflowed", ErrDegenerateGeometry, pos)
	}
	return pos, nil
}
