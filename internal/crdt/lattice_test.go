package crdt

import (
	"encoding/json"
	"reflect"
	"testing"

	"maelstrom-workloads/internal/base"
)

func TestGSetAddAndMerge(t *testing.T) {
	a := NewGSet()
	a.Add("n0", GSetAdd{Element: 1})
	a.Add("n0", GSetAdd{Element: 2})

	b := NewGSet()
	b.Add("n1", GSetAdd{Element: 2})
	b.Add("n1", GSetAdd{Element: 3})

	// Union in both directions, then re-merge to check idempotence.
	a.Merge(b.State())
	b.Merge(a.State())
	a.Merge(b.State())

	want := map[uint64]struct{}{1: {}, 2: {}, 3: {}}
	if !reflect.DeepEqual(a.Query().Value, want) {
		t.Fatalf("a = %v, want %v", a.Query().Value, want)
	}
	if !reflect.DeepEqual(b.Query().Value, want) {
		t.Fatalf("b = %v, want %v", b.Query().Value, want)
	}
}

func TestGSetStateWireForm(t *testing.T) {
	s := GSetState{Value: map[uint64]struct{}{3: {}, 1: {}, 2: {}}}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"value":[1,2,3]}` {
		t.Fatalf("wire form = %s", data)
	}

	var back GSetState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back.Value, s.Value) {
		t.Fatalf("round trip = %v, want %v", back.Value, s.Value)
	}
}

func TestGCounterConvergesAcrossNodes(t *testing.T) {
	n0 := NewGCounter()
	n0.Add("n0", GCounterAdd{Delta: 3})
	n0.Add("n0", GCounterAdd{Delta: 5})

	n1 := NewGCounter()
	n1.Add("n1", GCounterAdd{Delta: 4})

	n0.Merge(n1.State())
	n1.Merge(n0.State())
	n0.Merge(n1.State()) // idempotent: a second exchange changes nothing

	if got := n0.Query().Value; got != 12 {
		t.Fatalf("n0 query = %d, want 12", got)
	}
	if got := n1.Query().Value; got != 12 {
		t.Fatalf("n1 query = %d, want 12", got)
	}
}

func TestGCounterMergeTakesPerNodeMax(t *testing.T) {
	c := NewGCounter()
	c.Add("n0", GCounterAdd{Delta: 10})

	// A stale snapshot of our own counter must never roll it back.
	c.Merge(GCounterState{Counters: map[base.NodeID]uint64{}})
	c.Merge(GCounterState{Counters: map[base.NodeID]uint64{"n0": 4}})
	if got := c.Query().Value; got != 10 {
		t.Fatalf("query = %d, want 10", got)
	}

	c.Merge(GCounterState{Counters: map[base.NodeID]uint64{"n1": 7}})
	if got := c.Query().Value; got != 17 {
		t.Fatalf("query = %d, want 17", got)
	}
}

func TestPNCounterSignedAccumulation(t *testing.T) {
	c := NewPNCounter()
	c.Add("n0", PNCounterAdd{Delta: -2})
	c.Add("n0", PNCounterAdd{Delta: 5})
	c.Add("n0", PNCounterAdd{Delta: 0}) // no-op

	if got := c.Query().Value; got != 3 {
		t.Fatalf("query = %d, want 3", got)
	}

	state := c.State()
	if pair := state.Counters["n0"]; pair != [2]int64{5, -2} {
		t.Fatalf("n0 state = %v, want [5 -2]", pair)
	}
}

func TestPNCounterMergeMaxPosMinNeg(t *testing.T) {
	a := NewPNCounter()
	a.Add("n0", PNCounterAdd{Delta: 5})
	a.Add("n0", PNCounterAdd{Delta: -1})

	b := NewPNCounter()
	b.Merge(a.State())
	b.Add("n1", PNCounterAdd{Delta: -3})

	a.Merge(b.State())
	b.Merge(a.State())
	a.Merge(b.State())

	if got, want := a.Query().Value, int64(1); got != want {
		t.Fatalf("a query = %d, want %d", got, want)
	}
	if got, want := b.Query().Value, int64(1); got != want {
		t.Fatalf("b query = %d, want %d", got, want)
	}
}
