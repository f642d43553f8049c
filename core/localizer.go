package core

import (
	"fmt"
	"time"

	"github.com/encodeous/dvhop/perf"
	"github.com/encodeous/dvhop/state"
)

// Localizer runs the DV-Hop protocol for a node: it floods beacon advertisements, keeps
// the distance table up to date and periodically estimates the node's position.
type Localizer struct {
	*state.State
	LS *state.LocalizerState

	firstEstimatePending bool
}

func (l *Localizer) Init(s *state.State) error {
	l.State = s
	l.LS = state.NewLocalizerState(s.NodeCfg.Id, s.NodeCfg.Beacon, s.GetMaxHops(), state.SourceExpiryTime)
	s.Log.Debug("init localizer", "beacon", l.LS.IsBeacon(), "hopdist", s.GetHopDistance(), "auto_calibrate", s.AutoCalibrate)

	s.Transport.Register(l.LS.Id, func(from state.NodeId, adv state.Advertisement) {
		s.Dispatch(func(s *state.State) error {
			return l.receive(from, adv)
		})
	})

	if l.LS.IsBeacon() {
		s.RepeatTask(advertise, state.AdvertiseDelay)
	} else {
		s.RepeatTask(estimate, state.EstimateDelay)
	}
	s.RepeatTask(localizerGc, state.GcDelay)
	return nil
}

func (l *Localizer) Cleanup(s *state.State) error {
	s.Transport.Unregister(l.LS.Id)
	l.LS.Sources.DeleteAll()
	return nil
}

func (l *Localizer) receive(from state.NodeId, adv state.Advertisement) error {
	perf.AdvertsReceived.Add(1)
	ev := HandleAdvertisement(l.LS, l, from, adv, l.Clock.Now())
	if ev == BeaconLearned && !l.LS.IsBeacon() && l.LS.Estimate == nil && l.LS.Table.Len() >= 3 && !l.firstEstimatePending {
		// don't wait for the next estimate tick to get a first estimate
		l.firstEstimatePending = true
		l.ScheduleTask(firstEstimate, state.FirstEstimateDelay)
	}
	return nil
}

func (l *Localizer) BroadcastAdvertisement(adv state.Advertisement) {
	err := l.Transport.Broadcast(l.LS.Id, adv)
	if err != nil {
		l.Log(TransportFailure, "failed to broadcast advertisement", "adv", adv, "error", err)
		return
	}
	perf.AdvertsForwarded.Add(1)
}

func (l *Localizer) Log(event LocalizerEvent, desc string, args ...any) {
	if event.IsWarning() {
		l.Env.Log.Warn(fmt.Sprintf("%s %s", event.String(), desc), args...)
		return
	}
	l.Env.Log.Debug(fmt.Sprintf("%s %s", event.String(), desc), args...)
}

func advertise(s *state.State) error {
	l := Get[*Localizer](s)
	OriginateAdvertisement(l.LS, l)
	return nil
}

func estimate(s *state.State) error {
	l := Get[*Localizer](s)
	start := time.Now()
	est, err := EstimatePosition(l.LS, l, s.NodeCfg, s.Clock.Now())
	perf.EstimateLatency.Add(float64(time.Since(start).Microseconds()))
	if err != nil {
		// a withheld estimate is an expected condition, not a node failure
		perf.EstimatesWithheld.Add(1)
		return nil
	}
	perf.EstimatesPerSecond.Add(1)
	Get[*Trace](s).TrySubmit(EstimateEvent{
		Node:     l.LS.Id,
		Estimate: *est,
	})
	return nil
}

func firstEstimate(s *state.State) error {
	Get[*Localizer](s).firstEstimatePending = false
	return estimate(s)
}

func localizerGc(s *state.State) error {
	Get[*Localizer](s).LS.Sources.DeleteExpired()
	return nil
}
