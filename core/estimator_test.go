package core

import (
	"math"
	"testing"

	"github.com/encodeous/dvhop/state"
	"github.com/stretchr/testify/assert"
)

func rec(id state.NodeId, hops uint16, x, y float64) state.BeaconRecord {
	return state.BeaconRecord{
		Id:       id,
		Hops:     hops,
		Position: state.Position{X: x, Y: y},
	}
}

func TestNewEstimator_InvalidHopDistance(t *testing.T) {
	for _, hd := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewEstimator(hd)
		assert.ErrorIs(t, err, ErrInvalidHopDistance, "hop distance %g", hd)
	}
	e, err := NewEstimator(36.21)
	assert.NoError(t, err)
	assert.Equal(t, 36.21, e.HopDistance())
}

func TestEstimate_ExactRecovery(t *testing.T) {
	// the target is at (20, 0), hop counts are true distance / k
	cases := []struct {
		k      float64
		hops   [3]uint16
		target state.Position
	}{
		{10, [3]uint16{2, 1, 5}, state.Position{X: 20, Y: 0}},
		{5, [3]uint16{4, 2, 10}, state.Position{X: 20, Y: 0}},
		{2.5, [3]uint16{8, 4, 20}, state.Position{X: 20, Y: 0}},
		{30, [3]uint16{2, 1, 1}, state.Position{X: 60, Y: 0}},
	}
	for _, c := range cases {
		e, err := NewEstimator(c.k)
		assert.NoError(t, err)
		pos, err := e.Estimate([]state.BeaconRecord{
			rec("a", c.hops[0], 0, 0),
			rec("b", c.hops[1], 30, 0),
			rec("c", c.hops[2], 60, -30),
		})
		assert.NoError(t, err)
		assert.InDelta(t, c.target.X, pos.X, 1e-6, "k=%g", c.k)
		assert.InDelta(t, c.target.Y, pos.Y, 1e-6, "k=%g", c.k)
	}
}

func TestEstimate_OrderIndependent(t *testing.T) {
	e, _ := NewEstimator(10)
	recs := []state.BeaconRecord{
		rec("a", 2, 0, 0),
		rec("b", 1, 30, 0),
		rec("c", 5, 60, -30),
	}
	perms := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range perms {
		pos, err := e.Estimate([]state.BeaconRecord{recs[p[0]], recs[p[1]], recs[p[2]]})
		assert.NoError(t, err)
		assert.InDelta(t, 20, pos.X, 1e-6)
		assert.InDelta(t, 0, pos.Y, 1e-6)
	}
}

func TestEstimate_Cardinality(t *testing.T) {
	e, _ := NewEstimator(10)

	_, err := e.Estimate(nil)
	assert.ErrorIs(t, err, ErrInsufficientBeacons)
	_, err = e.Estimate([]state.BeaconRecord{rec("a", 2, 0, 0), rec("b", 1, 30, 0)})
	assert.ErrorIs(t, err, ErrInsufficientBeacons)

	_, err = e.Estimate([]state.BeaconRecord{
		rec("a", 2, 0, 0),
		rec("b", 1, 30, 0),
		rec("c", 5, 60, -30),
		rec("d", 5, 0, 50),
	})
	assert.ErrorIs(t, err, ErrTooManyBeacons)
}

func TestEstimate_Duplicate(t *testing.T) {
	e, _ := NewEstimator(10)
	_, err := e.Estimate([]state.BeaconRecord{
		rec("a", 2, 0, 0),
		rec("b", 1, 30, 0),
		rec("a", 2, 0, 0),
	})
	assert.ErrorIs(t, err, ErrDuplicateBeacon)
}

func TestEstimate_Collinear(t *testing.T) {
	e, _ := NewEstimator(10)
	_, err := e.Estimate([]state.BeaconRecord{
		rec("a", 1, 0, 0),
		rec("b", 1, 10, 0),
		rec("c", 1, 20, 0),
	})
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	// diagonal line
	_, err = e.Estimate([]state.BeaconRecord{
		rec("a", 1, 1, 1),
		rec("b", 2, 2, 2),
		rec("c", 3, 3, 3),
	})
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	// coincident positions under different ids
	_, err = e.Estimate([]state.BeaconRecord{
		rec("a", 1, 5, 5),
		rec("b", 2, 5, 5),
		rec("c", 3, 9, 0),
	})
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestEstimate_Tolerance(t *testing.T) {
	recs := []state.BeaconRecord{
		rec("a", 1, 0, 0),
		rec("b", 1, 10, 0),
		rec("c", 1, 20, 0.001),
	}
	e, _ := NewEstimator(10)
	_, err := e.Estimate(recs)
	assert.NoError(t, err)

	e, _ = NewEstimator(10, WithTolerance(0.01))
	_, err = e.Estimate(recs)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestNewEstimator_InvalidTolerance(t *testing.T) {
	for _, tol := range []float64{-1e-9, math.NaN(), math.Inf(1)} {
		_, err := NewEstimator(10, WithTolerance(tol))
		assert.ErrorIs(t, err, ErrInvalidTolerance, "tolerance %g", tol)
	}
	e, err := NewEstimator(10, WithTolerance(0))
	assert.NoError(t, err)

	// a zero tolerance still rejects an exactly collinear triple
	_, err = e.Estimate([]state.BeaconRecord{
		rec("a", 1, 0, 0),
		rec("b", 1, 10, 0),
		rec("c", 1, 20, 0),
	})
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestEstimate_NonFinite(t *testing.T) {
	e, _ := NewEstimator(10)
	for _, bad := range []state.Position{
		{X: math.NaN()},
		{Y: math.Inf(-1)},
	} {
		_, err := e.Estimate([]state.BeaconRecord{
			rec("a", 1, 0, 0),
			{Id: "b", Hops: 1, Position: bad},
			rec("c", 5, 60, -30),
		})
		assert.ErrorIs(t, err, ErrDegenerateGeometry, "beacon at %s", bad)
	}

	// finite inputs whose solution overflows
	_, err := e.Estimate([]state.BeaconRecord{
		rec("a", 1, -math.MaxFloat64, 0),
		rec("b", 1, math.MaxFloat64, 0),
		rec("c", 1, 0, math.MaxFloat64),
	})
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}
