package base

import (
	"encoding/json"
	"fmt"
)

type initRequest struct {
	Type    string   `json:"type"`
	NodeID  NodeID   `json:"node_id"`
	NodeIDs []NodeID `json:"node_ids"`
}

type initResponse struct {
	Type string `json:"type"`
}

// Init performs the one-shot bootstrap handshake every Maelstrom node
// starts with: it consumes exactly one message off recv (which the
// caller must have already started via Transport.Recv), validates it is
// an "init" request addressed to itself, and replies "init_ok". recv
// must go on to be handed to Serve for the rest of the process's
// lifetime — Init never creates its own reader, since stdin can only
// have one.
func Init(recv <-chan Received, transport *Transport) (*Node, error) {
	received, ok := <-recv
	if !ok {
		return nil, fmt.Errorf("%w: stdin closed before init", ErrInitFailed)
	}
	if received.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitFailed, received.Err)
	}

	raw := received.Envelope
	if raw.Type != "init" {
		return nil, fmt.Errorf("%w: expected \"init\", got %q", ErrInitFailed, raw.Type)
	}

	var req initRequest
	if err := json.Unmarshal(raw.Body, &req); err != nil {
		return nil, fmt.Errorf("%w: decoding init body: %v", ErrInitFailed, err)
	}
	if raw.Dest != req.NodeID {
		return nil, fmt.Errorf("%w: dest %q does not match node_id %q", ErrInitFailed, raw.Dest, req.NodeID)
	}

	node := NewNode(req.NodeID, req.NodeIDs)
	reply, _ := BuildMessage(node, raw.Src, raw.MsgID, initResponse{Type: "init_ok"})
	if err := transport.Send(reply); err != nil {
		return nil, fmt.Errorf("%w: sending init_ok: %v", ErrInitFailed, err)
	}
	return node, nil
}
