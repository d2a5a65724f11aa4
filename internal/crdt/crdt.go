// Package crdt implements a state-based CRDT runtime: a generic
// Service wraps any join-semilattice CRDT behind add/read/replicate
// requests and gossips its state to every peer on a fixed interval.
// Concrete lattices (G-Set, G-Counter, PN-Counter) live in sibling
// files.
package crdt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"weak"

	"github.com/sirupsen/logrus"

	"maelstrom-workloads/internal/base"
)

// ReplicationInterval is how often the service gossips its current
// state to every other node.
const ReplicationInterval = 5 * time.Second

// Crdt is a join-semilattice: Merge must be commutative, associative
// and idempotent. The runtime guarantees nothing else about State's
// shape.
type Crdt[Add, State, Query any] interface {
	Add(sender base.NodeID, add Add)
	Merge(other State)
	State() State
	Query() Query
}

const (
	typeAdd       = "add"
	typeRead      = "read"
	typeReplicate = "replicate"
	typeAddOk     = "add_ok"
	typeReadOk    = "read_ok"
)

type addOk struct {
	Type string `json:"type"`
}

// Service is the generic request handler: it owns the CRDT under a
// mutex, answers add/read synchronously, and merges replicate payloads
// with no reply. It also owns the periodic replicator goroutine.
type Service[Add, State, Query any] struct {
	mu   sync.Mutex
	crdt Crdt[Add, State, Query]

	node      *base.Node
	transport *base.Transport
	client    *base.Client[base.Tagged[State], struct{}]

	cancelReplicator context.CancelFunc
}

// NewService builds a Service around crdt and starts its replicator.
// The returned Service is the sole strong owner the caller must keep
// alive (by registering it with base.NewService and retaining the
// pointer for the life of the process); the replicator itself holds
// only a weak reference, so it exits cleanly without ever pinning the
// service alive on its own.
func NewService[Add, State, Query any](ctx context.Context, node *base.Node, transport *base.Transport, c Crdt[Add, State, Query]) *Service[Add, State, Query] {
	s := &Service[Add, State, Query]{
		crdt:      c,
		node:      node,
		transport: transport,
		client:    base.NewClient[base.Tagged[State], struct{}](node, transport),
	}
	replicatorCtx, cancel := context.WithCancel(ctx)
	s.cancelReplicator = cancel
	startReplicator(replicatorCtx, weak.Make(s))
	return s
}

// RequestTypes implements base.RequestHandler.
func (s *Service[Add, State, Query]) RequestTypes() []string {
	return []string{typeAdd, typeRead, typeReplicate}
}

// Handle implements base.RequestHandler.
func (s *Service[Add, State, Query]) Handle(_ context.Context, sender base.NodeID, typ string, body json.RawMessage) (any, error) {
	switch typ {
	case typeAdd:
		var add Add
		if err := json.Unmarshal(body, &add); err != nil {
			return nil, fmt.Errorf("crdt: decoding add: %w", err)
		}
		s.mu.Lock()
		s.crdt.Add(sender, add)
		s.mu.Unlock()
		return addOk{Type: typeAddOk}, nil

	case typeRead:
		s.mu.Lock()
		query := s.crdt.Query()
		s.mu.Unlock()
		return base.Tagged[Query]{Type: typeReadOk, Payload: query}, nil

	case typeReplicate:
		var tagged base.Tagged[State]
		if err := json.Unmarshal(body, &tagged); err != nil {
			return nil, fmt.Errorf("crdt: decoding replicate state: %w", err)
		}
		s.mu.Lock()
		s.crdt.Merge(tagged.Payload)
		s.mu.Unlock()
		return nil, nil

	default:
		return nil, fmt.Errorf("crdt: unhandled request type %q", typ)
	}
}

func (s *Service[Add, State, Query]) replicate(ctx context.Context) {
	s.mu.Lock()
	state := s.crdt.State()
	s.mu.Unlock()

	for _, peer := range s.node.AllNodeIDs() {
		if peer == s.node.ID() {
			continue
		}
		if err := s.client.SendNoReply(peer, base.Tagged[State]{Type: typeReplicate, Payload: state}); err != nil {
			logrus.WithError(err).WithField("peer", peer).Warn("crdt: failed to gossip state")
		}
	}
}

// startReplicator runs the periodic gossip tick: a fixed interval with
// no immediate first fire (time.Ticker never ticks at t=0), holding
// only a weak handle to the service so a dropped service lets the
// goroutine exit on its next tick instead of being kept alive by it.
func startReplicator[Add, State, Query any](ctx context.Context, weakSvc weak.Pointer[Service[Add, State, Query]]) {
	go func() {
		ticker := time.NewTicker(ReplicationInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				svc := weakSvc.Value()
				if svc == nil {
					return
				}
				svc.replicate(ctx)
			}
		}
	}()
}

// Close stops the replicator. Dropping the last strong reference to
// the Service without calling Close still terminates it, once the
// service is garbage collected and the next tick finds the weak handle
// empty; Close just makes shutdown deterministic for tests.
func (s *Service[Add, State, Query]) Close() {
	s.cancelReplicator()
}
