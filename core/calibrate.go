package core

import (
	"slices"
	"strings"

	"github.com/encodeous/dvhop/state"
)

// Calibrate computes a beacon's average hop distance: the summed distance to every other
// known beacon divided by the summed hop counts to them.
func Calibrate(self state.Position, t *state.DistanceTable) (float64, bool) {
	dist := 0.0
	hops := 0
	for _, rec := range t.Records() {
		if rec.Hops == 0 {
			continue
		}
		dist += self.DistanceTo(rec.Position)
		hops += int(rec.Hops)
	}
	if hops == 0 || dist == 0 {
		return 0, false
	}
	return dist / float64(hops), true
}

// HopDistanceFor picks the calibration used for the next estimate. With auto-calibration,
// the calibration advertised by the nearest beacon wins; otherwise the configured constant
// is used.
func HopDistanceFor(ls *state.LocalizerState, cfg state.NodeCfg) float64 {
	if !cfg.AutoCalibrate {
		return cfg.GetHopDistance()
	}
	if ls.IsBeacon() && ls.OwnHopDistance > 0 {
		return ls.OwnHopDistance
	}
	candidates := make([]state.BeaconRecord, 0)
	for _, rec := range ls.Table.Records() {
		if ls.HopDistances[rec.Id] > 0 {
			candidates = append(candidates, rec)
		}
	}
	if len(candidates) == 0 {
		return cfg.GetHopDistance()
	}
	nearest := slices.MinFunc(candidates, func(a, b state.BeaconRecord) int {
		if a.Hops != b.Hops {
			return int(a.Hops) - int(b.Hops)
		}
		return strings.Compare(string(a.Id), string(b.Id))
	})
	return ls.HopDistances[nearest.Id]
}
