// Package broadcast implements the single-message broadcast workload:
// every node floods a newly-seen value to its topology-assigned
// neighbors, retrying each until acknowledged or until maxAttempts
// attempts have gone unanswered, after which the relay is dropped.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"maelstrom-workloads/internal/base"
)

// maxAttempts bounds send_with_retry for a single neighbor relay.
const maxAttempts = 10

const (
	typeTopology    = "topology"
	typeBroadcast   = "broadcast"
	typeRead        = "read"
	typeTopologyOk  = "topology_ok"
	typeBroadcastOk = "broadcast_ok"
	typeReadOk      = "read_ok"
)

// ErrMissingSelfTopology reports a topology request that carries no
// neighbor list for this node.
var ErrMissingSelfTopology = errors.New("topology missing entry for self")

type topologyRequest struct {
	Topology map[base.NodeID][]base.NodeID `json:"topology"`
}

type topologyOkResponse struct {
	Type string `json:"type"`
}

// broadcastMessage is both the inbound request shape (decoded by
// Service) and the outbound shape this package's own Client sends to
// neighbors.
type broadcastMessage struct {
	Type    string `json:"type"`
	Message uint64 `json:"message"`
}

type broadcastOkResponse struct {
	Type string `json:"type"`
}

type readOkResponse struct {
	Type     string   `json:"type"`
	Messages []uint64 `json:"messages"`
}

// Service holds the observed-message set and the neighbor list, and
// answers topology/broadcast/read requests.
type Service struct {
	mu        sync.Mutex
	neighbors []base.NodeID
	messages  map[uint64]struct{}

	node   *base.Node
	client *base.Client[broadcastMessage, broadcastOkResponse]
}

// NewService builds a broadcast Service bound to node, relaying
// neighbor broadcasts over transport.
func NewService(node *base.Node, transport *base.Transport) *Service {
	return &Service{
		messages: make(map[uint64]struct{}),
		node:     node,
		client:   base.NewClient[broadcastMessage, broadcastOkResponse](node, transport),
	}
}

// Handler exposes the relay Client as a base.Handler so the server loop
// routes broadcast_ok replies back to pending retries.
func (s *Service) Handler() base.Handler { return s.client }

// RequestTypes implements base.RequestHandler.
func (s *Service) RequestTypes() []string {
	return []string{typeTopology, typeBroadcast, typeRead}
}

// Handle implements base.RequestHandler.
func (s *Service) Handle(ctx context.Context, from base.NodeID, typ string, body json.RawMessage) (any, error) {
	switch typ {
	case typeTopology:
		var req topologyRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("broadcast: decoding topology: %w", err)
		}
		if err := s.setTopology(req.Topology); err != nil {
			return nil, err
		}
		return topologyOkResponse{Type: typeTopologyOk}, nil

	case typeBroadcast:
		var req broadcastMessage
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("broadcast: decoding broadcast: %w", err)
		}
		s.accept(ctx, from, req.Message)
		return broadcastOkResponse{Type: typeBroadcastOk}, nil

	case typeRead:
		return readOkResponse{Type: typeReadOk, Messages: s.snapshot()}, nil

	default:
		return nil, fmt.Errorf("broadcast: unhandled request type %q", typ)
	}
}

// setTopology records this node's neighbors, excluding itself. A
// topology missing an entry for this node is a configuration error.
func (s *Service) setTopology(topology map[base.NodeID][]base.NodeID) error {
	neighbors, ok := topology[s.node.ID()]
	if !ok {
		return fmt.Errorf("broadcast: %w: %q", ErrMissingSelfTopology, s.node.ID())
	}
	filtered := make([]base.NodeID, 0, len(neighbors))
	for _, n := range neighbors {
		if n != s.node.ID() {
			filtered = append(filtered, n)
		}
	}

	s.mu.Lock()
	s.neighbors = filtered
	s.mu.Unlock()
	return nil
}

// accept records message if new and, only then, spawns a
// retry-broadcast to every neighbor except the sender. Already-seen
// messages are a no-op: the caller still replies broadcast_ok.
func (s *Service) accept(ctx context.Context, from base.NodeID, message uint64) {
	s.mu.Lock()
	if _, seen := s.messages[message]; seen {
		s.mu.Unlock()
		return
	}
	s.messages[message] = struct{}{}
	targets := make([]base.NodeID, 0, len(s.neighbors))
	for _, n := range s.neighbors {
		if n != from {
			targets = append(targets, n)
		}
	}
	s.mu.Unlock()

	for _, target := range targets {
		go s.relay(ctx, target, message)
	}
}

func (s *Service) relay(ctx context.Context, target base.NodeID, message uint64) {
	_, err := s.client.SendWithRetry(ctx, maxAttempts, target, broadcastMessage{Type: typeBroadcast, Message: message})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"target": target, "message": message}).
			Warn("broadcast: failed to relay message, dropping")
		return
	}
	logrus.WithFields(logrus.Fields{"target": target, "message": message}).Debug("broadcast: relayed message")
}

func (s *Service) snapshot() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, 0, len(s.messages))
	for m := range s.messages {
		out = append(out, m)
	}
	return out
}
