package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/encodeous/dvhop/state"
)

// Inspect renders a human-readable summary of a node. It must be called on the main loop.
func Inspect(s *state.State) string {
	l := Get[*Localizer](s)
	ls := l.LS
	sb := strings.Builder{}

	if ls.IsBeacon() {
		sb.WriteString(fmt.Sprintf("Node %s (beacon at %s, seqno %d)\n", ls.Id, *ls.Beacon, ls.Seqno))
		if ls.OwnHopDistance > 0 {
			sb.WriteString(fmt.Sprintf("Calibrated hop distance: %.3f\n", ls.OwnHopDistance))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Node %s\n", ls.Id))
	}
	sb.WriteString(fmt.Sprintf("Hop distance in use: %.3f\n", HopDistanceFor(ls, s.NodeCfg)))

	if len(ls.HopDistances) > 0 {
		sb.WriteString("\nAdvertised Calibration:\n")
		rt := make([]string, 0)
		for _, beacon := range slices.Sorted(maps.Keys(ls.HopDistances)) {
			rt = append(rt, fmt.Sprintf(" - %s: %.3f", beacon, ls.HopDistances[beacon]))
		}
		sb.WriteString(strings.Join(rt, "\n") + "\n")
	}

	if !ls.IsBeacon() {
		sb.WriteString("\nEstimate:\n")
		if ls.Estimate == nil {
			sb.WriteString(" - none\n")
		} else {
			est := ls.Estimate
			sb.WriteString(fmt.Sprintf(" - %s from %v at %s\n", est.Position, est.Beacons, est.At.Format("15:04:05.000")))
			if s.Truth != nil {
				sb.WriteString(fmt.Sprintf(" - error %.3f\n", est.Position.DistanceTo(*s.Truth)))
			}
		}
	}

	sb.WriteString("\nDistance Table: ")
	sb.WriteString(ls.Table.String())
	return sb.String()
}
