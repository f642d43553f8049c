package state

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// NodeCfg represents local node-level configuration
type NodeCfg struct {
	Id NodeId
	// Beacon is the node's true position. Setting it makes the node a beacon.
	Beacon *Position `yaml:",omitempty"`
	// Truth is the node's real position, only used to report localization error.
	Truth         *Position     `yaml:",omitempty"`
	HopDistance   float64       `yaml:"hop_distance,omitempty"`   // metres per hop, DefaultHopDistance if 0
	AutoCalibrate bool          `yaml:"auto_calibrate,omitempty"` // prefer the nearest beacon's advertised hop distance
	StaleAfter    time.Duration `yaml:"stale_after,omitempty"`    // beacons not refreshed within this window are not used for estimates, 0 disables
	MaxHops       uint16        `yaml:"max_hops,omitempty"`       // advertisements further than this are dropped, DefaultMaxHops if 0
	LogPath       string        `yaml:"log_path,omitempty"`       // if not empty, the node will also log to this file
	Mqtt          *MqttCfg      `yaml:",omitempty"`               // publish estimates to an MQTT broker
}

type MqttCfg struct {
	Broker   string
	Topic    string
	ClientId string `yaml:"client_id,omitempty"`
}

// NetworkCfg describes a set of nodes and their radio neighbourhoods.
type NetworkCfg struct {
	HopDistance float64 `yaml:"hop_distance,omitempty"` // default for nodes that do not set their own
	Nodes       []NodeCfg
	Graph       []string
}

func (c NodeCfg) IsBeacon() bool {
	return c.Beacon != nil
}

func (c NodeCfg) GetHopDistance() float64 {
	if c.HopDistance > 0 {
		return c.HopDistance
	}
	return DefaultHopDistance
}

func (c NodeCfg) GetMaxHops() uint16 {
	if c.MaxHops > 0 {
		return c.MaxHops
	}
	return DefaultMaxHops
}

func (n *NetworkCfg) NodeIds() []string {
	ids := make([]string, 0, len(n.Nodes))
	for _, node := range n.Nodes {
		ids = append(ids, string(node.Id))
	}
	return ids
}

func (n *NetworkCfg) TryGetNode(id NodeId) *NodeCfg {
	idx := slices.IndexFunc(n.Nodes, func(cfg NodeCfg) bool {
		return cfg.Id == id
	})
	if idx == -1 {
		return nil
	}
	return &n.Nodes[idx]
}

// Expand fills per-node defaults inherited from the network.
func (n *NetworkCfg) Expand() {
	for idx := range n.Nodes {
		if n.Nodes[idx].HopDistance == 0 {
			n.Nodes[idx].HopDistance = n.HopDistance
		}
	}
}

// Edges returns every radio link of the network.
func (n *NetworkCfg) Edges() ([]Pair[NodeId, NodeId], error) {
	return ParseGraph(n.Graph, n.NodeIds())
}

func (n *NetworkCfg) Beacons() []NodeCfg {
	beacons := make([]NodeCfg, 0)
	for _, node := range n.Nodes {
		if node.IsBeacon() {
			beacons = append(beacons, node)
		}
	}
	return beacons
}

func parseSymbolList(s string, validSymbols []string) ([]string, error) {
	line := make([]string, 0)
	for _, sym := range strings.Split(strings.TrimSpace(s), ",") {
		x := strings.TrimSpace(sym)
		if x == "" {
			continue
		}
		if !slices.Contains(validSymbols, x) {
			return nil, fmt.Errorf(`%s is not a valid node/group`, x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf(`node/group list must not be empty`)
	}
	slices.Sort(line)
	return line, nil
}

/*
ParseGraph turns a list of graph statements into radio links:

	Group1 = node1, node2, node3
	Group2 = node4, Group1
	Group1, Group2, node8 // every member of each term is linked to every member of the other terms
	Group1, Group1        // every node of Group1 is linked to every other node of Group1
	node8, node9          // a single link

nodes is the set of terminal nodes the graph evaluates down to. Each link is returned once,
as a sorted pair.
*/
func ParseGraph(graph []string, nodes []string) ([]Pair[NodeId, NodeId], error) {
	symbols := slices.Clone(nodes)
	groups := make(map[string]bool)

	// pass 0, collect group names
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if !strings.Contains(line, "=") {
			continue
		}
		spl := strings.Split(line, "=")
		if len(spl) != 2 {
			return nil, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
		}
		grp := strings.TrimSpace(spl[0])
		if slices.Contains(nodes, grp) {
			return nil, fmt.Errorf("group name must not be a node name: %s", grp)
		}
		symbols = append(symbols, grp)
	}
	slices.Sort(symbols)
	symbols = slices.Compact(symbols)

	// group -> groups it still depends on
	deps := make(map[string][]string)
	// group -> nodes it expands to
	expansion := make(map[string][]string)
	terms := make([]Pair[string, string], 0)

	// pass 1, parse statements
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			spl := strings.Split(line, "=")
			grp := strings.TrimSpace(spl[0])
			if groups[grp] {
				return nil, fmt.Errorf("duplicate group name: %s", grp)
			}
			groups[grp] = true
			members, err := parseSymbolList(spl[1], symbols)
			if err != nil {
				return nil, err
			}
			grpDeps := make([]string, 0)
			for _, m := range members {
				if slices.Contains(nodes, m) {
					expansion[grp] = append(expansion[grp], m)
				} else {
					grpDeps = append(grpDeps, m)
				}
			}
			slices.Sort(grpDeps)
			deps[grp] = slices.Compact(grpDeps)
			continue
		}
		names, err := parseSymbolList(line, symbols)
		if err != nil {
			return nil, err
		}
		if len(names) < 2 {
			return nil, fmt.Errorf("invalid pairing, %v", names)
		}
		for i := range names {
			for j := i + 1; j < len(names); j++ {
				terms = append(terms, MakeSortedPair(names[i], names[j]))
			}
		}
	}
	SortPairs(terms)
	terms = slices.Compact(terms)

	// pass 2, expand groups in topological order
	for len(deps) > 0 {
		var free string
		for grp, d := range deps {
			if len(d) == 0 {
				free = grp
				break
			}
		}
		if free == "" {
			cycle := make([]string, 0, len(deps))
			for grp := range deps {
				cycle = append(cycle, grp)
			}
			slices.Sort(cycle)
			return nil, fmt.Errorf("cycle detected in graph: %v", cycle)
		}
		delete(deps, free)
		for grp, d := range deps {
			if !slices.Contains(d, free) {
				continue
			}
			expansion[grp] = append(expansion[grp], expansion[free]...)
			slices.Sort(expansion[grp])
			expansion[grp] = slices.Compact(expansion[grp])
			deps[grp] = slices.DeleteFunc(d, func(x string) bool {
				return x == free
			})
		}
	}

	resolve := func(sym string) []string {
		if slices.Contains(nodes, sym) {
			return []string{sym}
		}
		return expansion[sym]
	}

	// pass 3, rewrite terms into node links
	links := make([]Pair[NodeId, NodeId], 0)
	for _, term := range terms {
		for _, x := range resolve(term.V1) {
			for _, y := range resolve(term.V2) {
				if x != y {
					links = append(links, MakeSortedPair(NodeId(x), NodeId(y)))
				}
			}
		}
	}
	SortPairs(links)
	return slices.Compact(links), nil
}
