package core

// The flooding rules here follow the DV-Hop scheme: beacons flood their position with a
// hop count that every relay increments. Rounds are told apart with sequence numbers,
// compared the same way RFC 8966 compares seqnos.

import (
	"errors"
	"math"
	"time"

	"github.com/encodeous/dvhop/state"
	"github.com/jellydator/ttlcache/v3"
)

type LocalizerEvent int

// trace events

const (
	BeaconLearned LocalizerEvent = iota
	BeaconRefreshed
	AdvertisementIgnored
	PositionEstimated
	EstimateWithheld
)

// warn events

const (
	PositionConflict LocalizerEvent = iota + 1000
	DegenerateBeacons
	TransportFailure
)

func (e LocalizerEvent) String() string {
	switch e {
	case BeaconLearned:
		return "BeaconLearned"
	case BeaconRefreshed:
		return "BeaconRefreshed"
	case AdvertisementIgnored:
		return "AdvertisementIgnored"
	case PositionEstimated:
		return "PositionEstimated"
	case EstimateWithheld:
		return "EstimateWithheld"
	case PositionConflict:
		return "PositionConflict"
	case DegenerateBeacons:
		return "DegenerateBeacons"
	case TransportFailure:
		return "TransportFailure"
	}
	return "Unknown"
}

func (e LocalizerEvent) IsWarning() bool {
	return e >= 1000
}

// Flooder is the side-effect surface of the localization algorithm
type Flooder interface {
	BroadcastAdvertisement(adv state.Advertisement)
	Log(event LocalizerEvent, desc string, args ...any)
}

// OriginateAdvertisement starts a new advertisement round. Only beacons originate.
func OriginateAdvertisement(ls *state.LocalizerState, f Flooder) {
	if !ls.IsBeacon() {
		return
	}
	ls.Seqno++
	if hd, ok := Calibrate(*ls.Beacon, ls.Table); ok {
		ls.OwnHopDistance = hd
	}
	f.BroadcastAdvertisement(state.Advertisement{
		Beacon:      ls.Id,
		Seqno:       ls.Seqno,
		Hops:        0,
		Position:    *ls.Beacon,
		HopDistance: ls.OwnHopDistance,
	})
}

func checkFreshness(ls *state.LocalizerState, adv state.Advertisement, hops uint16) bool {
	// An advertisement is accepted when it starts a newer round than the one we hold,
	// or belongs to the same round and took a strictly shorter path.
	src, ok := ls.GetSource(adv.Beacon)
	if !ok || SeqnoGt(adv.Seqno, src.Seqno) {
		return true
	}
	return src.Seqno == adv.Seqno && hops < src.Hops
}

// HandleAdvertisement processes an advertisement heard from a neighbour and returns the
// event it resulted in: BeaconLearned, BeaconRefreshed or AdvertisementIgnored.
func HandleAdvertisement(ls *state.LocalizerState, f Flooder, from state.NodeId, adv state.Advertisement, now time.Time) LocalizerEvent {
	if adv.Beacon == ls.Id {
		// our own round echoed back by a neighbour
		return AdvertisementIgnored
	}
	if !adv.Position.IsFinite() {
		f.Log(AdvertisementIgnored, "advertised position is not a finite coordinate", "from", from, "adv", adv)
		return AdvertisementIgnored
	}
	hops := AddHop(adv.Hops)
	if hops > ls.MaxHops {
		f.Log(AdvertisementIgnored, "advertisement exceeded max hops", "from", from, "adv", adv)
		return AdvertisementIgnored
	}
	if !checkFreshness(ls, adv, hops) {
		f.Log(AdvertisementIgnored, "advertisement is not fresher", "from", from, "adv", adv)
		return AdvertisementIgnored
	}

	pos, known := ls.Table.Position(adv.Beacon)
	if known && pos != adv.Position {
		// the first position heard for a beacon is authoritative
		f.Log(PositionConflict, "beacon advertised a different position, keeping the first", "beacon", adv.Beacon, "kept", pos, "advertised", adv.Position)
	}
	ls.Table.AddOrUpdateBeacon(adv.Beacon, hops, adv.Position, now)
	ls.Sources.Set(adv.Beacon, state.Source{Seqno: adv.Seqno, Hops: hops}, ttlcache.DefaultTTL)
	if adv.HopDistance > 0 && !math.IsInf(adv.HopDistance, 0) {
		ls.HopDistances[adv.Beacon] = adv.HopDistance
	}

	rec, _ := ls.Table.Get(adv.Beacon)
	f.BroadcastAdvertisement(state.Advertisement{
		Beacon:      rec.Id,
		Seqno:       adv.Seqno,
		Hops:        rec.Hops,
		Position:    rec.Position,
		HopDistance: adv.HopDistance,
	})

	if known {
		f.Log(BeaconRefreshed, "beacon refreshed", "from", from, "beacon", rec)
		return BeaconRefreshed
	}
	f.Log(BeaconLearned, "beacon learned", "from", from, "beacon", rec)
	return BeaconLearned
}

// EstimatePosition estimates our position from the distance table. On failure the
// previous estimate is kept and the reason is returned.
func EstimatePosition(ls *state.LocalizerState, f Flooder, cfg state.NodeCfg, now time.Time) (*state.Estimate, error) {
	est, err := NewEstimator(HopDistanceFor(ls, cfg))
	if err != nil {
		return nil, err
	}
	pos, triple, err := EstimateFromTable(est, ls.Table, now, cfg.StaleAfter)
	if err != nil {
		if errors.Is(err, ErrDegenerateGeometry) {
			f.Log(DegenerateBeacons, "every beacon triple is collinear", "known", ls.Table.Len())
		} else {
			f.Log(EstimateWithheld, "position estimate withheld", "reason", err)
		}
		return nil, err
	}
	beacons := make([]state.NodeId, 0, len(triple))
	for _, rec := range triple {
		beacons = append(beacons, rec.Id)
	}
	ls.Estimate = &state.Estimate{
		Position:    pos,
		At:          now,
		Beacons:     beacons,
		HopDistance: est.HopDistance(),
	}
	f.Log(PositionEstimated, "position estimated", "pos", pos, "beacons", beacons, "hopdist", est.HopDistance())
	return ls.Estimate, nil
}
