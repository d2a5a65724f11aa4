package broadcast

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"maelstrom-workloads/internal/base"
)

func TestTopologyMissingSelfFails(t *testing.T) {
	node := base.NewNode("n0", []base.NodeID{"n0", "n1"})
	tr := base.NewTransport(bytes.NewReader(nil), &bytes.Buffer{})
	svc := NewService(node, tr)

	_, err := svc.Handle(context.Background(), "c0", "topology",
		json.RawMessage(`{"type":"topology","topology":{"n1":["n0"]}}`))
	if !errors.Is(err, ErrMissingSelfTopology) {
		t.Fatalf("err = %v, want ErrMissingSelfTopology", err)
	}
}

func TestTopologyStoresNeighborsExcludingSelf(t *testing.T) {
	node := base.NewNode("n0", []base.NodeID{"n0", "n1", "n2"})
	tr := base.NewTransport(bytes.NewReader(nil), &bytes.Buffer{})
	svc := NewService(node, tr)

	reply, err := svc.Handle(context.Background(), "c0", "topology",
		json.RawMessage(`{"type":"topology","topology":{"n0":["n0","n1","n2"]}}`))
	if err != nil {
		t.Fatalf("topology: %v", err)
	}
	if got, _ := json.Marshal(reply); string(got) != `{"type":"topology_ok"}` {
		t.Fatalf("reply = %s", got)
	}
	if len(svc.neighbors) != 2 {
		t.Fatalf("neighbors = %v, want n1 and n2 only", svc.neighbors)
	}
}

func TestBroadcastDeduplicatesAndReads(t *testing.T) {
	node := base.NewNode("n0", []base.NodeID{"n0"})
	tr := base.NewTransport(bytes.NewReader(nil), &bytes.Buffer{})
	svc := NewService(node, tr)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		reply, err := svc.Handle(ctx, "c0", "broadcast", json.RawMessage(`{"type":"broadcast","message":7}`))
		if err != nil {
			t.Fatalf("broadcast: %v", err)
		}
		if got, _ := json.Marshal(reply); string(got) != `{"type":"broadcast_ok"}` {
			t.Fatalf("reply = %s", got)
		}
	}

	reply, err := svc.Handle(ctx, "c0", "read", json.RawMessage(`{"type":"read"}`))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got, _ := json.Marshal(reply); string(got) != `{"type":"read_ok","messages":[7]}` {
		t.Fatalf("read reply = %s", got)
	}
}

func TestBroadcastRelaysToNeighborsExceptSender(t *testing.T) {
	outR, outW := io.Pipe()
	tr := base.NewTransport(bytes.NewReader(nil), outW)
	node := base.NewNode("n0", []base.NodeID{"n0", "n1", "n2"})
	svc := NewService(node, tr)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		outR.Close()
	})

	if _, err := svc.Handle(ctx, "c0", "topology",
		json.RawMessage(`{"type":"topology","topology":{"n0":["n1"]}}`)); err != nil {
		t.Fatalf("topology: %v", err)
	}

	// The broadcast arrives from n1 itself: the only neighbor is the
	// sender, so nothing must go back out.
	if _, err := svc.Handle(ctx, "n1", "broadcast", json.RawMessage(`{"type":"broadcast","message":1}`)); err != nil {
		t.Fatalf("broadcast from neighbor: %v", err)
	}

	// A client broadcast must be relayed to n1.
	if _, err := svc.Handle(ctx, "c0", "broadcast", json.RawMessage(`{"type":"broadcast","message":7}`)); err != nil {
		t.Fatalf("broadcast from client: %v", err)
	}

	line, err := bufio.NewReader(outR).ReadString('\n')
	if err != nil {
		t.Fatalf("reading relayed frame: %v", err)
	}
	var frame struct {
		Dest base.NodeID `json:"dest"`
		Body struct {
			Type    string `json:"type"`
			Message uint64 `json:"message"`
		} `json:"body"`
	}
	if err := json.Unmarshal([]byte(line), &frame); err != nil {
		t.Fatalf("decoding relayed frame: %v", err)
	}
	if frame.Dest != "n1" || frame.Body.Type != "broadcast" || frame.Body.Message != 7 {
		t.Fatalf("relayed frame = %s", line)
	}
}
