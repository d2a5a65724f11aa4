// Package linkv is a typed wrapper over the external linearizable
// key/value service the Maelstrom harness provides, reachable as a
// peer under the well-known node id "lin-kv".
package linkv

import (
	"context"
	"errors"
	"fmt"

	"maelstrom-workloads/internal/base"
)

// Error codes lin-kv is known to return.
const (
	codeKeyDoesNotExist  = 20
	codePreconditionFail = 22
)

type request[K, V any] struct {
	Type              string `json:"type"`
	Key               K      `json:"key"`
	Value             *V     `json:"value,omitempty"`
	From              *V     `json:"from,omitempty"`
	To                *V     `json:"to,omitempty"`
	CreateIfNotExists *bool  `json:"create_if_not_exists,omitempty"`
}

type response[V any] struct {
	Type  string `json:"type"`
	Value V      `json:"value"`
	Code  int    `json:"code,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Client wraps a base.Client targeted at lin-kv with key type K and
// value type V.
type Client[K, V any] struct {
	inner *base.Client[request[K, V], response[V]]
}

// New builds a lin-kv client bound to node, sending over transport.
func New[K, V any](node *base.Node, transport *base.Transport) *Client[K, V] {
	return &Client[K, V]{inner: base.NewClient[request[K, V], response[V]](node, transport)}
}

// Handler exposes the underlying base.Client as a base.Handler so the
// server loop can route lin-kv responses (read_ok, write_ok, cas_ok,
// error) back to whichever call is waiting on them.
func (c *Client[K, V]) Handler() base.Handler { return c.inner }

// Read returns the value stored at key, or ok=false if lin-kv reports
// KeyDoesNotExist.
func (c *Client[K, V]) Read(ctx context.Context, key K) (value V, ok bool, err error) {
	res, err := c.inner.Send(ctx, base.LinKV, request[K, V]{Type: "read", Key: key})
	if err != nil {
		return value, false, err
	}
	switch res.Type {
	case "read_ok":
		return res.Value, true, nil
	case "error":
		if res.Code == codeKeyDoesNotExist {
			return value, false, nil
		}
		return value, false, fmt.Errorf("%w: lin-kv read: code=%d %s", base.ErrUnexpectedResponse, res.Code, res.Text)
	default:
		return value, false, fmt.Errorf("%w: lin-kv read: unexpected type %q", base.ErrUnexpectedResponse, res.Type)
	}
}

// Write sets key to value, succeeding on write_ok.
func (c *Client[K, V]) Write(ctx context.Context, key K, value V) error {
	res, err := c.inner.Send(ctx, base.LinKV, request[K, V]{Type: "write", Key: key, Value: &value})
	if err != nil {
		return err
	}
	if res.Type != "write_ok" {
		return fmt.Errorf("%w: lin-kv write: unexpected type %q", base.ErrUnexpectedResponse, res.Type)
	}
	return nil
}

// CAS compares-and-swaps key from `from` to `to`, returning false (not
// an error) if lin-kv reports PreconditionFailed. Any other error
// response propagates: only PreconditionFailed is a normal CAS-miss
// outcome, everything else indicates a protocol or programming error
// the caller must not paper over with a retry.
func (c *Client[K, V]) CAS(ctx context.Context, key K, from, to V, createIfNotExists bool) (bool, error) {
	res, err := c.inner.Send(ctx, base.LinKV, request[K, V]{
		Type:              "cas",
		Key:               key,
		From:              &from,
		To:                &to,
		CreateIfNotExists: &createIfNotExists,
	})
	if err != nil {
		return false, err
	}
	switch res.Type {
	case "cas_ok":
		return true, nil
	case "error":
		if res.Code == codePreconditionFail {
			return false, nil
		}
		return false, fmt.Errorf("%w: lin-kv cas: code=%d %s", base.ErrUnexpectedResponse, res.Code, res.Text)
	default:
		return false, fmt.Errorf("%w: lin-kv cas: unexpected type %q", base.ErrUnexpectedResponse, res.Type)
	}
}

// IsUnexpectedResponse reports whether err is (or wraps) a protocol
// error from an unrecognized lin-kv response.
func IsUnexpectedResponse(err error) bool {
	return errors.Is(err, base.ErrUnexpectedResponse)
}
