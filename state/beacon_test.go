package state

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPosition(t *testing.T) {
	a := Position{X: 0, Y: 0}
	b := Position{X: 3, Y: -4}
	assert.Equal(t, 5.0, a.DistanceTo(b))
	assert.Equal(t, 5.0, b.DistanceTo(a))
	assert.Equal(t, "(3,-4)", b.String())
	assert.True(t, b.IsFinite())
	assert.False(t, Position{X: math.NaN()}.IsFinite())
	assert.False(t, Position{Y: math.Inf(1)}.IsFinite())
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(epoch)
	assert.Equal(t, epoch, c.Now())
	assert.Equal(t, epoch.Add(time.Second), c.Advance(time.Second))
	assert.Equal(t, epoch.Add(time.Second), c.Advance(-time.Hour))
	assert.Equal(t, epoch.Add(time.Second), c.Now())

	var _ Clock = SystemClock{}
}
