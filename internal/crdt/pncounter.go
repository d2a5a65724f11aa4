package crdt

import "maelstrom-workloads/internal/base"

// PNCounter is the positive/negative counter: each node accumulates
// its own running positive and negative totals, and merge takes the
// per-node max of positives and min of negatives. Both directions grow
// monotonically in their own sign, which is what keeps merge a lattice
// join.
type PNCounter struct {
	counters map[base.NodeID]pnPair
}

type pnPair struct {
	positive int64
	negative int64
}

// NewPNCounter returns a PN-Counter with no observed nodes.
func NewPNCounter() *PNCounter {
	return &PNCounter{counters: make(map[base.NodeID]pnPair)}
}

// PNCounterAdd is the add operation's wire payload: {"delta": n}. A
// positive delta accumulates into the sender's positive total, a
// negative delta into its negative total (in its own sign); zero is a
// no-op.
type PNCounterAdd struct {
	Delta int64 `json:"delta"`
}

// PNCounterState is the per-node (positive, negative) pair, wire
// encoded as a two-element array.
type PNCounterState struct {
	Counters map[base.NodeID][2]int64 `json:"counters"`
}

// PNCounterQuery is positive+negative summed across every node.
type PNCounterQuery struct {
	Value int64 `json:"value"`
}

var _ Crdt[PNCounterAdd, PNCounterState, PNCounterQuery] = (*PNCounter)(nil)

// Add accumulates delta into the sender's positive or negative total.
func (c *PNCounter) Add(sender base.NodeID, add PNCounterAdd) {
	if add.Delta == 0 {
		return
	}
	pair := c.counters[sender]
	if add.Delta > 0 {
		pair.positive += add.Delta
	} else {
		pair.negative += add.Delta
	}
	c.counters[sender] = pair
}

// Merge takes the per-node max of positives and min of negatives.
func (c *PNCounter) Merge(other PNCounterState) {
	for node, pn := range other.Counters {
		otherPos, otherNeg := pn[0], pn[1]
		pair, ok := c.counters[node]
		if !ok {
			c.counters[node] = pnPair{positive: otherPos, negative: otherNeg}
			continue
		}
		if otherPos > pair.positive {
			pair.positive = otherPos
		}
		if otherNeg < pair.negative {
			pair.negative = otherNeg
		}
		c.counters[node] = pair
	}
}

// State returns a snapshot of the per-node pairs.
func (c *PNCounter) State() PNCounterState {
	clone := make(map[base.NodeID][2]int64, len(c.counters))
	for node, pair := range c.counters {
		clone[node] = [2]int64{pair.positive, pair.negative}
	}
	return PNCounterState{Counters: clone}
}

// Query sums positive+negative across every node.
func (c *PNCounter) Query() PNCounterQuery {
	var total int64
	for _, pair := range c.counters {
		total += pair.positive + pair.negative
	}
	return PNCounterQuery{Value: total}
}
