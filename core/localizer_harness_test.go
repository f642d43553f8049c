package core

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/encodeous/dvhop/state"
	"github.com/google/go-cmp/cmp"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

// LocalizerHarness records everything the localization algorithm asks of its environment.
type LocalizerHarness struct {
	actions []HarnessEvent
}

func (h *LocalizerHarness) BroadcastAdvertisement(adv state.Advertisement) {
	h.actions = append(h.actions, MakeEvent("BROADCAST", adv))
}

func (h *LocalizerHarness) Log(event LocalizerEvent, desc string, args ...any) {
	x := make([]any, 0)
	x = append(x, event)
	x = append(x, desc)
	x = append(x, args...)
	h.actions = append(h.actions, MakeEvent("LOG", x...))
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions returns and clears every recorded broadcast.
func (h *LocalizerHarness) GetActions() HarnessEvents {
	return h.take(func(e HarnessEvent) bool { return e.Message != "LOG" })
}

// GetLogs returns and clears every recorded log event.
func (h *LocalizerHarness) GetLogs() HarnessEvents {
	return h.take(func(e HarnessEvent) bool { return e.Message == "LOG" })
}

func (h *LocalizerHarness) take(keep func(e HarnessEvent) bool) HarnessEvents {
	x := make([]HarnessEvent, 0)
	rest := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if keep(action) {
			x = append(x, action)
		} else {
			rest = append(rest, action)
		}
	}
	h.actions = rest
	return x
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message != msg || len(event.Args) < len(args) {
			continue
		}
		match := true
		for i, arg := range args {
			if !cmp.Equal(event.Args[i], arg) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

func NewNode(id state.NodeId, beacon *state.Position) *state.LocalizerState {
	return state.NewLocalizerState(id, beacon, state.DefaultMaxHops, time.Hour)
}

func MakeAdv(beacon state.NodeId, seqno, hops uint16, x, y float64) state.Advertisement {
	return state.Advertisement{
		Beacon:   beacon,
		Seqno:    seqno,
		Hops:     hops,
		Position: state.Position{X: x, Y: y},
	}
}

func (h *LocalizerHarness) Hear(ls *state.LocalizerState, from state.NodeId, adv state.Advertisement) LocalizerEvent {
	return HandleAdvertisement(ls, h, from, adv, epoch)
}
