package state

import (
	"time"
)

// TableSnapshot is the offline YAML form of a DistanceTable, used by diagnostics tooling.
type TableSnapshot struct {
	HopDistance float64          `yaml:"hop_distance,omitempty"`
	Beacons     []BeaconSnapshot `yaml:"beacons"`
}

type BeaconSnapshot struct {
	Id       NodeId    `yaml:"id"`
	Hops     uint16    `yaml:"hops"`
	Position Position  `yaml:"position"`
	Updated  time.Time `yaml:"updated,omitempty"`
}

func (t *DistanceTable) Snapshot() TableSnapshot {
	snap := TableSnapshot{Beacons: make([]BeaconSnapshot, 0, t.Len())}
	for _, rec := range t.Records() {
		snap.Beacons = append(snap.Beacons, BeaconSnapshot{
			Id:       rec.Id,
			Hops:     rec.Hops,
			Position: rec.Position,
			Updated:  rec.LastUpdated,
		})
	}
	return snap
}

// Table replays the snapshot into a fresh table, in file order. Entries without a
// timestamp are stamped with now.
func (s TableSnapshot) Table(now time.Time) *DistanceTable {
	t := NewDistanceTable()
	for _, b := range s.Beacons {
		ts := b.Updated
		if ts.IsZero() {
			ts = now
		}
		t.AddOrUpdateBeacon(b.Id, b.Hops, b.Position, ts)
	}
	return t
}
