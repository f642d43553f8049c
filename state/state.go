package state

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type NyModule interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on a single Goroutine
type State struct {
	*Env
	Modules map[string]NyModule
	// ModuleOrder is the order modules were initialized in, they are cleaned up in reverse.
	ModuleOrder []string
}

// Env can be read from any Goroutine
type Env struct {
	DispatchChannel chan func(s *State) error
	NodeCfg
	Context   context.Context
	Cancel    context.CancelCauseFunc
	Log       *slog.Logger
	Clock     Clock
	Transport Transport

	Started  atomic.Bool
	Stopping atomic.Bool
}

// Transport carries advertisements between radio neighbours. Handlers may be invoked from
// any goroutine.
type Transport interface {
	Register(node NodeId, handler func(from NodeId, adv Advertisement))
	Unregister(node NodeId)
	// Broadcast delivers adv to every current neighbour of from.
	Broadcast(from NodeId, adv Advertisement) error
}
