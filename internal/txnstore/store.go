package txnstore

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"maelstrom-workloads/internal/base"
	"maelstrom-workloads/internal/linkv"
)

// Tree is the root key/value map kept in lin-kv under rootKey.
type Tree map[Key]Value

// rootKey is the fixed lin-kv key the whole tree is stored under.
const rootKey uint32 = 0

// maxAttempts bounds how many times a txn runs against a fresh read of
// the root before giving up with a txn-conflict error.
const maxAttempts = 3

// Store executes txn batches against the tree kept in lin-kv.
type Store struct {
	linkv *linkv.Client[uint32, Tree]
}

// NewStore builds a Store bound to node, talking to lin-kv over
// transport.
func NewStore(node *base.Node, transport *base.Transport) *Store {
	return &Store{linkv: linkv.New[uint32, Tree](node, transport)}
}

// Handler exposes the underlying lin-kv client as a base.Handler so the
// server loop can route lin-kv responses back to pending CAS/read
// calls.
func (s *Store) Handler() base.Handler { return s.linkv.Handler() }

// attempt runs the triples once against a freshly read tree and
// attempts to CAS the result in. It returns the filled-in triples and
// whether the CAS succeeded.
func (s *Store) attempt(ctx context.Context, triples []Triple) ([]Triple, bool, error) {
	prevRoot, ok, err := s.linkv.Read(ctx, rootKey)
	if err != nil {
		return nil, false, fmt.Errorf("txnstore: reading root: %w", err)
	}
	if !ok {
		prevRoot = Tree{}
	}

	root := make(Tree, len(prevRoot))
	maps.Copy(root, prevRoot)

	result := make([]Triple, len(triples))
	for i, t := range triples {
		switch t.Op {
		case OpRead:
			var value *Value
			if v, ok := root[t.Key]; ok {
				value = &v
			}
			result[i] = Triple{Op: OpRead, Key: t.Key, Value: value}

		case OpAppend:
			if t.Value == nil {
				return nil, false, fmt.Errorf("txnstore: append op missing value for key %d", t.Key)
			}
			current, ok := root[t.Key]
			if !ok {
				current = EmptyValue()
			}
			root[t.Key] = current.Append(*t.Value)
			result[i] = t

		default:
			return nil, false, fmt.Errorf("txnstore: unknown op %q", t.Op)
		}
	}

	committed, err := s.linkv.CAS(ctx, rootKey, prevRoot, root, true)
	if err != nil {
		// An unexpected CAS error propagates; only PreconditionFailed
		// counts as a retryable conflict.
		return nil, false, fmt.Errorf("txnstore: cas root: %w", err)
	}
	return result, committed, nil
}

// Execute runs triples to completion, running them up to maxAttempts
// times in total while the CAS keeps conflicting. ok is false only once every attempt has lost the
// race; the caller then replies with TxnConflict.
func (s *Store) Execute(ctx context.Context, triples []Triple) (result []Triple, ok bool, err error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, ok, err = s.attempt(ctx, triples)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return result, true, nil
		}
	}
	return nil, false, nil
}

const (
	typeTxn         = "txn"
	typeTxnOk       = "txn_ok"
	typeError       = "error"
	codeTxnConflict = 30
)

type txnRequest struct {
	Txn []Triple `json:"txn"`
}

type txnOkResponse struct {
	Type string   `json:"type"`
	Txn  []Triple `json:"txn"`
}

type errorResponse struct {
	Type string `json:"type"`
	Code int    `json:"code"`
	Text string `json:"text"`
}

// Service adapts Store to base.RequestHandler.
type Service struct {
	store *Store
}

// NewService wraps store as a request handler for the "txn" type.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// RequestTypes implements base.RequestHandler.
func (s *Service) RequestTypes() []string { return []string{typeTxn} }

// Handle implements base.RequestHandler.
func (s *Service) Handle(ctx context.Context, _ base.NodeID, typ string, body json.RawMessage) (any, error) {
	if typ != typeTxn {
		return nil, fmt.Errorf("txnstore: unhandled request type %q", typ)
	}
	var req txnRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("txnstore: decoding txn: %w", err)
	}

	result, ok, err := s.store.Execute(ctx, req.Txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return errorResponse{Type: typeError, Code: codeTxnConflict, Text: "txn conflict"}, nil
	}
	return txnOkResponse{Type: typeTxnOk, Txn: result}, nil
}
