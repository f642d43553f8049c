package mock

import (
	"fmt"

	"github.com/encodeous/dvhop/state"
)

// MockCfg is a small named network with three beacons on a 30m grid.
//
//	bob(0,0) --- jeb --- kat(60,0)
//	              |       |
//	             eve --- ada --- zed(60,-60)
func MockCfg() state.NetworkCfg {
	cfg := state.NetworkCfg{
		HopDistance: 30,
		Nodes: []state.NodeCfg{
			{Id: "bob", Beacon: &state.Position{X: 0, Y: 0}},
			{Id: "jeb", Truth: &state.Position{X: 30, Y: 0}},
			{Id: "kat", Beacon: &state.Position{X: 60, Y: 0}},
			{Id: "eve", Truth: &state.Position{X: 30, Y: -30}},
			{Id: "ada", Truth: &state.Position{X: 60, Y: -30}},
			{Id: "zed", Beacon: &state.Position{X: 60, Y: -60}},
		},
		Graph: []string{
			"bob, jeb",
			"jeb, kat",
			"jeb, eve",
			"kat, ada",
			"eve, ada",
			"ada, zed",
		},
	}
	cfg.Expand()
	return cfg
}

// GridCfg lays out n nodes on a row-major grid of the given width, linking each node to its
// horizontal and vertical neighbours. beacons maps a node index to its beacon position.
func GridCfg(n, width int, step float64, beacons map[int]state.Position) state.NetworkCfg {
	cfg := state.NetworkCfg{
		HopDistance: step,
	}
	name := func(i int) string {
		return fmt.Sprintf("node%d", i)
	}
	for i := range n {
		pos := state.Position{X: float64(i%width) * step, Y: -float64(i/width) * step}
		node := state.NodeCfg{Id: state.NodeId(name(i))}
		if b, ok := beacons[i]; ok {
			node.Beacon = &b
		} else {
			node.Truth = &pos
		}
		cfg.Nodes = append(cfg.Nodes, node)
		if i%width != width-1 && i+1 < n {
			cfg.Graph = append(cfg.Graph, fmt.Sprintf("%s, %s", name(i), name(i+1)))
		}
		if i+width < n {
			cfg.Graph = append(cfg.Graph, fmt.Sprintf("%s, %s", name(i), name(i+width)))
		}
	}
	cfg.Expand()
	return cfg
}
