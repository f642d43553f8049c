package core

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/encodeous/dvhop/state"
)

// SelectBeacons ranks the usable beacons of a table: the most recently refreshed first, then
// the closest, then by id. Recency is compared in whole advertisement rounds, so beacons
// refreshed by the same round rank by hop count. Beacons older than maxAge are skipped
// (0 keeps everything).
func SelectBeacons(t *state.DistanceTable, now time.Time, maxAge time.Duration) ([]state.BeaconRecord, error) {
	recs := make([]state.BeaconRecord, 0, t.Len())
	for _, rec := range t.Records() {
		if t.IsStale(rec.Id, now, maxAge) {
			continue
		}
		recs = append(recs, rec)
	}
	if len(recs) < 3 {
		return nil, fmt.Errorf("%w: %d usable of %d known", ErrInsufficientBeacons, len(recs), t.Len())
	}
	slices.SortStableFunc(recs, func(a, b state.BeaconRecord) int {
		if c := cmp.Compare(roundsAgo(a, now), roundsAgo(b, now)); c != 0 {
			return c
		}
		if a.Hops != b.Hops {
			return int(a.Hops) - int(b.Hops)
		}
		return strings.Compare(string(a.Id), string(b.Id))
	})
	return recs, nil
}

func roundsAgo(rec state.BeaconRecord, now time.Time) int64 {
	if state.AdvertiseDelay <= 0 {
		return 0
	}
	return int64(max(now.Sub(rec.LastUpdated), 0) / state.AdvertiseDelay)
}

// EstimateFromTable estimates a position from the best non-degenerate triple of ranked
// beacons. It returns the triple that was used.
func EstimateFromTable(est *Estimator, t *state.DistanceTable, now time.Time, maxAge time.Duration) (state.Position, []state.BeaconRecord, error) {
	ranked, err := SelectBeacons(t, now, maxAge)
	if err != nil {
		return state.Position{}, nil, err
	}
	ranked = ranked[:min(len(ranked), max(state.MaxCandidates, 3))]
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			for k := j + 1; k < len(ranked); k++ {
				triple := []state.BeaconRecord{ranked[i], ranked[j], ranked[k]}
				pos, err := est.Estimate(triple)
				if errors.Is(err, ErrDegenerateGeometry) {
					continue
				}
				if err != nil {
					return state.Position{}, nil, err
				}
				return pos, triple, nil
			}
		}
	}
	return state.Position{}, nil, ErrDegenerateGeometry
}
