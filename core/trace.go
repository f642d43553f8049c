package core

import (
	"github.com/dustin/go-broadcast"
	"github.com/encodeous/dvhop/state"
)

// EstimateEvent is published on the trace every time a node estimates its position.
type EstimateEvent struct {
	Node state.NodeId
	state.Estimate
}

type Trace struct {
	broadcast.Broadcaster
}

func (n *Trace) Init(s *state.State) error {
	n.Broadcaster = broadcast.NewBroadcaster(state.TraceBuffer)
	return nil
}

func (n *Trace) Cleanup(s *state.State) error {
	return n.Broadcaster.Close()
}
