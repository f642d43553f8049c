package state

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"
)

// DistanceTable tracks the hop distance to every beacon a node has heard of.
// Entries are never removed. The table is owned by a single State and must only be
// touched from that node's main loop.
type DistanceTable struct {
	beacons map[NodeId]*BeaconRecord
}

func NewDistanceTable() *DistanceTable {
	return &DistanceTable{
		beacons: make(map[NodeId]*BeaconRecord),
	}
}

// AddOrUpdateBeacon inserts a record for an unknown beacon. For a known beacon, the hop
// count is replaced and the position learned first is kept. The timestamp is replaced
// too, except that a now earlier than the stored LastUpdated leaves it unchanged, so
// LastUpdated never moves backwards.
func (t *DistanceTable) AddOrUpdateBeacon(id NodeId, hops uint16, pos Position, now time.Time) {
	rec, ok := t.beacons[id]
	if !ok {
		t.beacons[id] = &BeaconRecord{
			Id:          id,
			Hops:        hops,
			Position:    pos,
			LastUpdated: now,
		}
		return
	}
	rec.Hops = hops
	if now.After(rec.LastUpdated) {
		rec.LastUpdated = now
	}
}

func (t *DistanceTable) Get(id NodeId) (BeaconRecord, bool) {
	rec, ok := t.beacons[id]
	if !ok {
		return BeaconRecord{}, false
	}
	return *rec, true
}

func (t *DistanceTable) HopCount(id NodeId) (uint16, bool) {
	rec, ok := t.beacons[id]
	if !ok {
		return 0, false
	}
	return rec.Hops, true
}

func (t *DistanceTable) Position(id NodeId) (Position, bool) {
	rec, ok := t.beacons[id]
	if !ok {
		return Position{}, false
	}
	return rec.Position, true
}

func (t *DistanceTable) LastUpdated(id NodeId) (time.Time, bool) {
	rec, ok := t.beacons[id]
	if !ok {
		return time.Time{}, false
	}
	return rec.LastUpdated, true
}

// KnownBeacons returns every tracked beacon id. Callers must not depend on the order.
func (t *DistanceTable) KnownBeacons() []NodeId {
	return slices.Collect(maps.Keys(t.beacons))
}

// Records returns a copy of every record, sorted by beacon id.
func (t *DistanceTable) Records() []BeaconRecord {
	recs := make([]BeaconRecord, 0, len(t.beacons))
	for _, rec := range t.beacons {
		recs = append(recs, *rec)
	}
	slices.SortFunc(recs, func(a, b BeaconRecord) int {
		return strings.Compare(string(a.Id), string(b.Id))
	})
	return recs
}

func (t *DistanceTable) Len() int {
	return len(t.beacons)
}

// Age returns how long ago the beacon was last refreshed.
func (t *DistanceTable) Age(id NodeId, now time.Time) (time.Duration, bool) {
	rec, ok := t.beacons[id]
	if !ok {
		return 0, false
	}
	return max(now.Sub(rec.LastUpdated), 0), true
}

// IsStale reports whether the beacon has not been refreshed within maxAge. A maxAge of 0
// disables staleness. Unknown beacons are not stale, they are absent.
func (t *DistanceTable) IsStale(id NodeId, now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	age, ok := t.Age(id, now)
	return ok && age > maxAge
}

// Render writes a human-readable dump of the table.
func (t *DistanceTable) Render(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d entries\n", len(t.beacons))
	if err != nil {
		return err
	}
	for _, rec := range t.Records() {
		_, err = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", rec.Id, rec.Hops, rec.Position, rec.LastUpdated.Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *DistanceTable) String() string {
	sb := strings.Builder{}
	_ = t.Render(&sb)
	return sb.String()
}
