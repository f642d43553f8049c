//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/encodeous/dvhop/core"
	"github.com/encodeous/dvhop/mock"
	"github.com/encodeous/dvhop/state"
)

func ConfigureConstants() {
	state.AdvertiseDelay = 50 * time.Millisecond
	state.EstimateDelay = 20 * time.Millisecond
	state.FirstEstimateDelay = 10 * time.Millisecond
	state.SourceExpiryTime = 10 * state.AdvertiseDelay
	state.GcDelay = 100 * time.Millisecond
}

type VirtualHarness struct {
	Cfg     state.NetworkCfg
	Context context.Context
	Cancel  context.CancelCauseFunc
	Net     *mock.Network
	Level   slog.Level

	mu     sync.Mutex
	states map[state.NodeId]*state.State
	wg     sync.WaitGroup
}

func NewHarness(cfg state.NetworkCfg) *VirtualHarness {
	ConfigureConstants()
	return &VirtualHarness{
		Cfg:    cfg,
		Level:  slog.LevelInfo,
		states: make(map[state.NodeId]*state.State),
	}
}

// Start runs every node of the network and waits until all of them are initialized.
func (v *VirtualHarness) Start() (chan error, error) {
	ctx, cancel := context.WithCancelCause(context.Background())
	v.Context = ctx
	v.Cancel = cancel
	errChan := make(chan error, len(v.Cfg.Nodes))

	net, err := mock.NewNetworkFromConfig(&v.Cfg)
	if err != nil {
		return nil, err
	}
	v.Net = net

	ready := make(chan struct{}, len(v.Cfg.Nodes))
	for _, ncfg := range v.Cfg.Nodes {
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			labels := pprof.Labels("dvhop node", string(ncfg.Id))
			pprof.Do(ctx, labels, func(ctx context.Context) {
				err := core.Start(ctx, ncfg, v.Level, core.Runtime{
					Transport: net,
					Ready: func(s *state.State) {
						v.mu.Lock()
						v.states[ncfg.Id] = s
						v.mu.Unlock()
						ready <- struct{}{}
					},
				})
				if err != nil {
					errChan <- fmt.Errorf("%s: %w", ncfg.Id, err)
				}
			})
		}()
	}
	for range v.Cfg.Nodes {
		select {
		case <-ready:
		case err := <-errChan:
			v.Stop()
			return nil, err
		case <-time.After(5 * time.Second):
			v.Stop()
			return nil, errors.New("timed out starting nodes")
		}
	}
	return errChan, nil
}

func (v *VirtualHarness) Stop() {
	v.Cancel(errors.New("stopping harness"))
	v.wg.Wait()
	v.Net.Stop()
}

func (v *VirtualHarness) State(id state.NodeId) *state.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.states[id]
}

func (v *VirtualHarness) Estimate(id state.NodeId) (*state.Estimate, error) {
	res, err := v.State(id).DispatchWait(func(s *state.State) (any, error) {
		est := core.Get[*core.Localizer](s).LS.Estimate
		if est == nil {
			return (*state.Estimate)(nil), nil
		}
		cp := *est
		return &cp, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*state.Estimate), nil
}

func (v *VirtualHarness) HopCount(id, beacon state.NodeId) (uint16, bool) {
	res, err := v.State(id).DispatchWait(func(s *state.State) (any, error) {
		hops, ok := core.Get[*core.Localizer](s).LS.Table.HopCount(beacon)
		return state.Pair[uint16, bool]{V1: hops, V2: ok}, nil
	})
	if err != nil {
		return 0, false
	}
	p := res.(state.Pair[uint16, bool])
	return p.V1, p.V2
}

// WaitFor polls cond until it holds, a node fails or the timeout expires.
func (v *VirtualHarness) WaitFor(errChan chan error, timeout time.Duration, cond func() bool) error {
	deadline := time.After(timeout)
	for !cond() {
		select {
		case err := <-errChan:
			return err
		case <-deadline:
			return errors.New("timed out waiting for condition")
		case <-time.After(20 * time.Millisecond):
		}
	}
	return nil
}
