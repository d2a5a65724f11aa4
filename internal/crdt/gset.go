package crdt

import (
	"encoding/json"
	"sort"

	"maelstrom-workloads/internal/base"
)

// GSet is the grow-only set CRDT: state is a set of 64-bit integers,
// add inserts, merge is set union.
type GSet struct {
	value map[uint64]struct{}
}

// NewGSet returns an empty G-Set.
func NewGSet() *GSet {
	return &GSet{value: make(map[uint64]struct{})}
}

// GSetAdd is the add operation's wire payload: {"element": n}.
type GSetAdd struct {
	Element uint64 `json:"element"`
}

// GSetState is both the state and the query for a G-Set: the set
// itself, wire-encoded as a JSON array under "value".
type GSetState struct {
	Value map[uint64]struct{}
}

type gsetStateWire struct {
	Value []uint64 `json:"value"`
}

// MarshalJSON emits the set as a sorted array for deterministic output.
func (s GSetState) MarshalJSON() ([]byte, error) {
	elems := make([]uint64, 0, len(s.Value))
	for e := range s.Value {
		elems = append(elems, e)
	}
	sort.Slice(elems, func(i, j int) bool { return elems[i] < elems[j] })
	return json.Marshal(gsetStateWire{Value: elems})
}

// UnmarshalJSON reads the array form back into a set.
func (s *GSetState) UnmarshalJSON(data []byte) error {
	var wire gsetStateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.Value = make(map[uint64]struct{}, len(wire.Value))
	for _, e := range wire.Value {
		s.Value[e] = struct{}{}
	}
	return nil
}

var _ Crdt[GSetAdd, GSetState, GSetState] = (*GSet)(nil)

// Add inserts add.Element. The sender is irrelevant to a G-Set.
func (g *GSet) Add(_ base.NodeID, add GSetAdd) {
	g.value[add.Element] = struct{}{}
}

// Merge is set union.
func (g *GSet) Merge(other GSetState) {
	for e := range other.Value {
		g.value[e] = struct{}{}
	}
}

// State returns a snapshot of the set.
func (g *GSet) State() GSetState {
	return g.snapshot()
}

// Query is identical to State for a G-Set.
func (g *GSet) Query() GSetState {
	return g.snapshot()
}

func (g *GSet) snapshot() GSetState {
	clone := make(map[uint64]struct{}, len(g.value))
	for e := range g.value {
		clone[e] = struct{}{}
	}
	return GSetState{Value: clone}
}
