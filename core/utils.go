package core

import (
	"reflect"

	"github.com/encodeous/dvhop/state"
)

// AddHop extends a hop count by one link, saturating at MaxHopCount.
func AddHop(hops uint16) uint16 {
	if hops == state.MaxHopCount {
		return hops
	}
	return hops + 1
}

// Sequence numbers wrap around, so they are compared modulo 2^16.

func SeqnoLt(a, b uint16) bool {
	x := b - a
	return 0 < x && x < 32768
}

func SeqnoLe(a, b uint16) bool {
	return a == b || SeqnoLt(a, b)
}
func SeqnoGt(a, b uint16) bool {
	return !SeqnoLe(a, b)
}

func Get[T state.NyModule](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}
