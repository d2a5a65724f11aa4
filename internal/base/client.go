package base

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// Client issues correlated requests of type Req to other nodes and
// matches their replies, typed as Res, by message id. Req and Res must
// each carry their own "type" discriminator field; Client never
// inspects it. A correlated reply that does not decode as Res is
// logged, and its waiter receives the zero Res with no error.
type Client[Req, Res any] struct {
	node      *Node
	transport *Transport
	outgoing  *Outgoing[Res]
}

// NewClient builds a client bound to node's identity and counter,
// sending over transport, with its own correlation table.
func NewClient[Req, Res any](node *Node, transport *Transport) *Client[Req, Res] {
	return &Client[Req, Res]{
		node:      node,
		transport: transport,
		outgoing:  NewOutgoing[Res](RequestTTL),
	}
}

// Send issues req to dest and blocks until the correlated reply arrives
// or the TTL/ctx elapses.
func (c *Client[Req, Res]) Send(ctx context.Context, dest NodeID, req Req) (Res, error) {
	var zero Res
	if dest == c.node.ID() {
		return zero, ErrSendToSelf
	}
	msg, id := BuildMessage(c.node, dest, nil, req)
	pending := c.outgoing.Push(id)
	if err := c.transport.Send(msg); err != nil {
		return zero, err
	}
	res, ok := pending.Wait(ctx)
	if !ok {
		return zero, ErrTimeout
	}
	return res, nil
}

// SendNoReply issues req to dest without registering a correlation
// entry; no reply is expected or waited for.
func (c *Client[Req, Res]) SendNoReply(dest NodeID, req Req) error {
	msg, _ := BuildMessage(c.node, dest, nil, req)
	return c.transport.Send(msg)
}

// SendWithRetry sends req to dest under the same message id on every
// attempt, waiting up to RequestTTL for a reply and pausing RetryDelay
// between attempts, until maxAttempts is exhausted.
func (c *Client[Req, Res]) SendWithRetry(ctx context.Context, maxAttempts int, dest NodeID, req Req) (Res, error) {
	var zero Res
	msg, id := BuildMessage(c.node, dest, nil, req)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		pending := c.outgoing.Push(id)
		if err := c.transport.Send(msg); err != nil {
			return zero, err
		}
		if res, ok := pending.Wait(ctx); ok {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(RetryDelay):
		}
	}
	return zero, ErrRetriesExhausted
}

// Handle implements Handler: it claims raw if raw's in_reply_to is
// registered in this client's own outgoing table, and delivers the
// decoded payload to the waiting caller. It returns false, leaving raw
// untouched, for any message it does not own so the server can try the
// next registered handler.
func (c *Client[Req, Res]) Handle(ctx context.Context, raw RawEnvelope) bool {
	if raw.InReplyTo == nil || !c.outgoing.Has(*raw.InReplyTo) {
		return false
	}
	var res Res
	if err := json.Unmarshal(raw.Body, &res); err != nil {
		logrus.WithError(err).Warn("base: client failed to decode correlated response")
		var zero Res
		c.outgoing.Complete(*raw.InReplyTo, zero)
		return true
	}
	c.outgoing.Complete(*raw.InReplyTo, res)
	return true
}
