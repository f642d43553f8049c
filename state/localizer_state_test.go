package state

import (
	"testing"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/stretchr/testify/assert"
)

func TestLocalizerState_Sources(t *testing.T) {
	ls := NewLocalizerState("n", nil, DefaultMaxHops, 20*time.Millisecond)
	assert.False(t, ls.IsBeacon())

	_, ok := ls.GetSource("a")
	assert.False(t, ok)

	ls.Sources.Set("a", Source{Seqno: 3, Hops: 2}, ttlcache.DefaultTTL)
	src, ok := ls.GetSource("a")
	assert.True(t, ok)
	assert.Equal(t, Source{Seqno: 3, Hops: 2}, src)

	time.Sleep(40 * time.Millisecond)
	_, ok = ls.GetSource("a")
	assert.False(t, ok)
	ls.Sources.DeleteExpired()
	assert.Equal(t, 0, ls.Sources.Len())
}

func TestLocalizerState_Beacon(t *testing.T) {
	ls := NewLocalizerState("b", &Position{X: 1, Y: 1}, 8, time.Second)
	assert.True(t, ls.IsBeacon())
	assert.Equal(t, uint16(8), ls.MaxHops)
	assert.Equal(t, 0, ls.Table.Len())
}
