package state

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Source is the freshest advertisement round accepted for a beacon.
type Source struct {
	Seqno uint16
	Hops  uint16
}

// LocalizerState is the protocol state of a single node. Like RouterState, it has no
// knowledge of the environment, so the algorithm can be driven directly in tests.
type LocalizerState struct {
	Id      NodeId
	Beacon  *Position // non-nil if this node is a beacon
	Seqno   uint16    // our own advertisement round, beacons only
	MaxHops uint16
	Table   *DistanceTable
	// Sources remembers the latest accepted round per beacon. Entries expire so that a
	// restarted beacon, whose seqno starts over, is heard again.
	Sources *ttlcache.Cache[NodeId, Source]
	// HopDistances holds the calibration advertised by each beacon.
	HopDistances map[NodeId]float64
	// OwnHopDistance is our own calibration, beacons only.
	OwnHopDistance float64
	Estimate       *Estimate
}

func NewLocalizerState(id NodeId, beacon *Position, maxHops uint16, sourceExpiry time.Duration) *LocalizerState {
	return &LocalizerState{
		Id:      id,
		Beacon:  beacon,
		MaxHops: maxHops,
		Table:   NewDistanceTable(),
		Sources: ttlcache.New[NodeId, Source](
			ttlcache.WithTTL[NodeId, Source](sourceExpiry),
			ttlcache.WithDisableTouchOnHit[NodeId, Source](),
		),
		HopDistances: make(map[NodeId]float64),
	}
}

func (ls *LocalizerState) IsBeacon() bool {
	return ls.Beacon != nil
}

func (ls *LocalizerState) GetSource(beacon NodeId) (Source, bool) {
	item := ls.Sources.Get(beacon)
	if item == nil {
		return Source{}, false
	}
	return item.Value(), true
}
