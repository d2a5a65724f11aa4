package linkv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"maelstrom-workloads/internal/base"
)

// scriptedPeer answers every request frame with the body produced by
// answer, wired back with the request's msg_id.
func scriptedPeer(t *testing.T, answer func(reqBody map[string]any) map[string]any) *Client[string, int] {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	t.Cleanup(func() {
		inW.Close()
		outW.Close()
	})

	tr := base.NewTransport(inR, outW)
	node := base.NewNode("n0", []base.NodeID{"n0"})
	client := New[string, int](node, tr)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		scanner := bufio.NewScanner(outR)
		for scanner.Scan() {
			var frame struct {
				Src  base.NodeID    `json:"src"`
				Body map[string]any `json:"body"`
			}
			if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
				return
			}
			body := answer(frame.Body)
			body["in_reply_to"] = frame.Body["msg_id"]
			reply, err := json.Marshal(map[string]any{"src": base.LinKV, "dest": frame.Src, "body": body})
			if err != nil {
				return
			}
			if _, err := inW.Write(append(reply, '\n')); err != nil {
				return
			}
		}
	}()
	go base.Serve(ctx, tr.Recv(ctx), client.Handler())
	return client
}

func TestReadReturnsValue(t *testing.T) {
	client := scriptedPeer(t, func(req map[string]any) map[string]any {
		if req["type"] != "read" || req["key"] != "answer" {
			return map[string]any{"type": "error", "code": 13, "text": fmt.Sprintf("bad request %v", req)}
		}
		return map[string]any{"type": "read_ok", "value": 42}
	})

	value, ok, err := client.Read(context.Background(), "answer")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ok || value != 42 {
		t.Fatalf("Read = (%d, %v), want (42, true)", value, ok)
	}
}

func TestReadMissingKeyIsAbsentNotError(t *testing.T) {
	client := scriptedPeer(t, func(map[string]any) map[string]any {
		return map[string]any{"type": "error", "code": 20, "text": "key does not exist"}
	})

	_, ok, err := client.Read(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ok {
		t.Fatal("a missing key should report absent, not a value")
	}
}

func TestWriteSucceedsOnWriteOk(t *testing.T) {
	client := scriptedPeer(t, func(req map[string]any) map[string]any {
		if req["type"] != "write" || req["value"] != float64(9) {
			return map[string]any{"type": "error", "code": 13, "text": "bad write"}
		}
		return map[string]any{"type": "write_ok"}
	})

	if err := client.Write(context.Background(), "k", 9); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestCASMissReturnsFalse(t *testing.T) {
	client := scriptedPeer(t, func(map[string]any) map[string]any {
		return map[string]any{"type": "error", "code": 22, "text": "precondition failed"}
	})

	ok, err := client.CAS(context.Background(), "k", 1, 2, false)
	if err != nil {
		t.Fatalf("CAS: %v", err)
	}
	if ok {
		t.Fatal("a failed precondition should report false, not success")
	}
}

func TestUnexpectedErrorCodePropagates(t *testing.T) {
	client := scriptedPeer(t, func(map[string]any) map[string]any {
		return map[string]any{"type": "error", "code": 13, "text": "node crashed"}
	})

	_, err := client.CAS(context.Background(), "k", 1, 2, false)
	if !errors.Is(err, base.ErrUnexpectedResponse) {
		t.Fatalf("err = %v, want ErrUnexpectedResponse", err)
	}
	if !IsUnexpectedResponse(err) {
		t.Fatal("IsUnexpectedResponse should recognize its own error kind")
	}
}
