package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"reflect"
	"runtime"
	"slices"
	"time"

	"github.com/encodeous/dvhop/perf"
	"github.com/encodeous/dvhop/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

// Runtime holds what a node needs from its host.
type Runtime struct {
	Transport state.Transport
	// Clock defaults to the system clock
	Clock state.Clock
	// Publisher overrides the MQTT publisher built from the node config
	Publisher Publisher
	// LogWriter defaults to stderr
	LogWriter io.Writer
	// Ready is called on the caller's goroutine once every module is initialized, before
	// the main loop starts.
	Ready func(s *state.State)
}

func newLogger(ncfg state.NodeCfg, logLevel slog.Level, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(w, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: string(ncfg.Id),
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	if ncfg.LogPath != "" {
		err := os.MkdirAll(path.Dir(ncfg.LogPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(ncfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}
	return slog.New(slogmulti.Fanout(handlers...)), nil
}

// Start runs a single node until ctx is cancelled or a dispatched task fails.
func Start(ctx context.Context, ncfg state.NodeCfg, logLevel slog.Level, rt Runtime) error {
	if rt.Transport == nil {
		return errors.New("node has no transport")
	}
	if rt.Clock == nil {
		rt.Clock = state.SystemClock{}
	}
	logger, err := newLogger(ncfg, logLevel, rt.LogWriter)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	dispatch := make(chan func(env *state.State) error, state.DispatchBuffer)

	s := state.State{
		Modules: make(map[string]state.NyModule),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			NodeCfg:         ncfg,
			Log:             logger,
			Clock:           rt.Clock,
			Transport:       rt.Transport,
		},
	}

	s.Log.Debug("init modules")
	err = initModules(&s, rt)
	if err != nil {
		Stop(&s)
		return err
	}
	s.Log.Debug("init modules complete")
	if rt.Ready != nil {
		rt.Ready(&s)
	}

	MainLoop(&s, dispatch)

	cause := context.Cause(ctx)
	if errors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}

func initModules(s *state.State, rt Runtime) error {
	var modules []state.NyModule
	modules = append(modules, &Trace{})
	modules = append(modules, &Localizer{})
	modules = append(modules, &Telemetry{Publisher: rt.Publisher})

	for _, module := range modules {
		name := reflect.TypeOf(module).String()
		s.Modules[name] = module
		s.ModuleOrder = append(s.ModuleOrder, name)
		if err := module.Init(s); err != nil {
			return fmt.Errorf("failed to init %s: %w", name, err)
		}
	}
	return nil
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	for {
		select {
		case fun := <-dispatch:
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch: ", "error", err)
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > state.SlowDispatchWarn {
				s.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed, "len", len(dispatch))
			}
		case <-s.Context.Done():
			s.Log.Debug("stopped main loop", "reason", context.Cause(s.Context).Error())
			Stop(s)
			return
		}
	}
}

func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	s.Log.Debug("cleaning up modules")
	for _, moduleName := range slices.Backward(s.ModuleOrder) {
		err := s.Modules[moduleName].Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during Stop: ", "module", moduleName, "error", err)
		}
	}
	s.Log.Debug("stopped")
}
