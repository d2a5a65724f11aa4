package crdt

import "maelstrom-workloads/internal/base"

// GCounter is the grow-only counter: state is a map of per-node
// counters, merge takes the per-node maximum. It is a vector clock's
// combine rule with a single scalar per node instead of a
// causal-history counter.
type GCounter struct {
	counters map[base.NodeID]uint64
}

// NewGCounter returns a G-Counter with no observed nodes.
func NewGCounter() *GCounter {
	return &GCounter{counters: make(map[base.NodeID]uint64)}
}

// GCounterAdd is the add operation's wire payload: {"delta": n}.
type GCounterAdd struct {
	Delta uint64 `json:"delta"`
}

// GCounterState is the per-node counter map.
type GCounterState struct {
	Counters map[base.NodeID]uint64 `json:"counters"`
}

// GCounterQuery is the summed total.
type GCounterQuery struct {
	Value uint64 `json:"value"`
}

var _ Crdt[GCounterAdd, GCounterState, GCounterQuery] = (*GCounter)(nil)

// Add accumulates delta onto the sender's own counter.
func (c *GCounter) Add(sender base.NodeID, add GCounterAdd) {
	c.counters[sender] += add.Delta
}

// Merge takes the per-node maximum, the idempotent/commutative/
// associative combine rule every join-semilattice counter needs.
func (c *GCounter) Merge(other GCounterState) {
	for node, value := range other.Counters {
		if value > c.counters[node] {
			c.counters[node] = value
		}
	}
}

// State returns a snapshot of the per-node counters.
func (c *GCounter) State() GCounterState {
	return GCounterState{Counters: c.snapshot()}
}

// Query sums every node's counter.
func (c *GCounter) Query() GCounterQuery {
	var total uint64
	for _, v := range c.counters {
		total += v
	}
	return GCounterQuery{Value: total}
}

func (c *GCounter) snapshot() map[base.NodeID]uint64 {
	clone := make(map[base.NodeID]uint64, len(c.counters))
	for k, v := range c.counters {
		clone[k] = v
	}
	return clone
}
