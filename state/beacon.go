package state

import (
	"fmt"
	"math"
	"time"
)

type NodeId string

// Position is a planar coordinate in metres.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Position) DistanceTo(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

func (p Position) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func (p Position) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// BeaconRecord is what a node knows about a single beacon.
type BeaconRecord struct {
	Id          NodeId
	Hops        uint16
	Position    Position
	LastUpdated time.Time
}

func (r BeaconRecord) String() string {
	return fmt.Sprintf("(beacon: %s, hops: %d, pos: %s)", r.Id, r.Hops, r.Position)
}

// Advertisement is a decoded hop-count advertisement for one beacon, as received from a neighbour.
type Advertisement struct {
	Beacon   NodeId
	Seqno    uint16
	Hops     uint16
	Position Position
	// HopDistance is the beacon's own calibration in metres per hop, 0 if it has none yet.
	HopDistance float64
}

func (a Advertisement) String() string {
	return fmt.Sprintf("(beacon: %s, seqno: %d, hops: %d, pos: %s, hopdist: %g)", a.Beacon, a.Seqno, a.Hops, a.Position, a.HopDistance)
}

// Estimate is a position estimate produced by a node for itself.
type Estimate struct {
	Position    Position
	At          time.Time
	Beacons     []NodeId
	HopDistance float64
}
