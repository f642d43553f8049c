package mock

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/encodeous/dvhop/state"
)

type delivery struct {
	from state.NodeId
	adv  state.Advertisement
}

type mailbox struct {
	ch      chan delivery
	done    chan struct{}
	stopped sync.WaitGroup
}

// Network is an in-memory broadcast medium. Every registered node gets a bounded mailbox
// drained by its own goroutine, so a slow node never blocks its neighbours. Deliveries to a
// full mailbox are dropped and counted.
type Network struct {
	mu        sync.RWMutex
	links     map[state.NodeId]map[state.NodeId]struct{}
	nodes     map[state.NodeId]*mailbox
	Delivered atomic.Uint64
	Dropped   atomic.Uint64
}

func NewNetwork(links []state.Pair[state.NodeId, state.NodeId]) *Network {
	n := &Network{
		links: make(map[state.NodeId]map[state.NodeId]struct{}),
		nodes: make(map[state.NodeId]*mailbox),
	}
	for _, l := range links {
		n.Link(l.V1, l.V2)
	}
	return n
}

// NewNetworkFromConfig links nodes according to the graph of cfg.
func NewNetworkFromConfig(cfg *state.NetworkCfg) (*Network, error) {
	edges, err := cfg.Edges()
	if err != nil {
		return nil, err
	}
	return NewNetwork(edges), nil
}

// Link connects a and b in both directions. Self links are ignored.
func (n *Network) Link(a, b state.NodeId) {
	if a == b {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.addHalf(a, b)
	n.addHalf(b, a)
}

func (n *Network) addHalf(a, b state.NodeId) {
	if n.links[a] == nil {
		n.links[a] = make(map[state.NodeId]struct{})
	}
	n.links[a][b] = struct{}{}
}

func (n *Network) Unlink(a, b state.NodeId) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.links[a], b)
	delete(n.links[b], a)
}

// Neighbours returns the sorted neighbours of id.
func (n *Network) Neighbours(id state.NodeId) []state.NodeId {
	n.mu.RLock()
	defer n.mu.RUnlock()
	nbrs := make([]state.NodeId, 0, len(n.links[id]))
	for nbr := range n.links[id] {
		nbrs = append(nbrs, nbr)
	}
	slices.Sort(nbrs)
	return nbrs
}

func (n *Network) Register(node state.NodeId, handler func(from state.NodeId, adv state.Advertisement)) {
	n.Unregister(node)

	mb := &mailbox{
		ch:   make(chan delivery, state.MailboxSize),
		done: make(chan struct{}),
	}
	mb.stopped.Add(1)
	go func() {
		defer mb.stopped.Done()
		for {
			select {
			case <-mb.done:
				return
			case d := <-mb.ch:
				handler(d.from, d.adv)
			}
		}
	}()

	n.mu.Lock()
	n.nodes[node] = mb
	n.mu.Unlock()
}

// Unregister detaches node and waits for its handler to return.
func (n *Network) Unregister(node state.NodeId) {
	n.mu.Lock()
	mb, ok := n.nodes[node]
	delete(n.nodes, node)
	n.mu.Unlock()
	if !ok {
		return
	}
	close(mb.done)
	mb.stopped.Wait()
}

func (n *Network) Broadcast(from state.NodeId, adv state.Advertisement) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for nbr := range n.links[from] {
		mb, ok := n.nodes[nbr]
		if !ok {
			continue
		}
		select {
		case mb.ch <- delivery{from: from, adv: adv}:
			n.Delivered.Add(1)
		default:
			n.Dropped.Add(1)
		}
	}
	return nil
}

// Stop unregisters every node.
func (n *Network) Stop() {
	n.mu.RLock()
	ids := make([]state.NodeId, 0, len(n.nodes))
	for id := range n.nodes {
		ids = append(ids, id)
	}
	n.mu.RUnlock()
	for _, id := range ids {
		n.Unregister(id)
	}
}
