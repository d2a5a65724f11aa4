package base

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Handler is anything that can claim and process one raw inbound
// envelope. It returns true if it recognized the message (whether or
// not processing it produced a reply), false if the message is not its
// concern and the next handler in the composition should be tried.
//
// A Client claims responses by checking in_reply_to against its own
// outgoing table, a Service claims requests by checking the wire
// "type" discriminator against the set it was built to answer.
// Composition is a slice of Handler tried in order, first claim wins.
type Handler interface {
	Handle(ctx context.Context, raw RawEnvelope) bool
}

// Serve drains recv, dispatching every envelope to the first handler
// that claims it. An envelope no handler claims is logged and dropped.
// Handler errors never reach here directly — they are a Service's
// concern to log and swallow — so Serve itself cannot fail except by
// recv closing, which happens cleanly on stdin EOF.
func Serve(ctx context.Context, recv <-chan Received, handlers ...Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case received, ok := <-recv:
			if !ok {
				return
			}
			if received.Err != nil {
				logrus.WithError(received.Err).Warn("base: dropping unparseable line")
				continue
			}
			dispatch(ctx, received.Envelope, handlers)
		}
	}
}

func dispatch(ctx context.Context, raw RawEnvelope, handlers []Handler) {
	for _, h := range handlers {
		if h.Handle(ctx, raw) {
			return
		}
	}
	if raw.InReplyTo != nil {
		// Typically a reply that arrived after its entry was evicted.
		logrus.WithError(ErrUnknownCorrelation).
			WithField("in_reply_to", *raw.InReplyTo).
			Warn("base: dropping late response")
		return
	}
	logrus.WithField("type", raw.Type).Warn("base: no handler claimed message")
}

// RequestHandler answers a fixed set of request types, identified by
// the wire "type" discriminator. Handle returns the reply payload to
// send back (already carrying its own "type" field), or nil if the
// request type (e.g. a CRDT "replicate") expects no reply.
type RequestHandler interface {
	RequestTypes() []string
	Handle(ctx context.Context, from NodeID, typ string, body json.RawMessage) (reply any, err error)
}

// Service adapts a RequestHandler into a Handler: it claims messages
// whose type the handler answers, rejects any that carry in_reply_to
// (a request must not be a correlated reply), spawns the handler so
// the server loop never blocks, and, if the handler returns a reply,
// sends it back with in_reply_to set to the request's msg_id. Handler
// errors are logged; no error reply is sent. Workloads needing error
// replies encode them in their own response type, as the transactional
// store does.
type Service struct {
	node      *Node
	transport *Transport
	handler   RequestHandler
	types     map[string]struct{}
}

// NewService builds a Service dispatching to handler over transport,
// replying as node.
func NewService(node *Node, transport *Transport, handler RequestHandler) *Service {
	types := make(map[string]struct{}, len(handler.RequestTypes()))
	for _, t := range handler.RequestTypes() {
		types[t] = struct{}{}
	}
	return &Service{node: node, transport: transport, handler: handler, types: types}
}

// Handle implements Handler.
func (s *Service) Handle(ctx context.Context, raw RawEnvelope) bool {
	if _, ok := s.types[raw.Type]; !ok {
		return false
	}
	if raw.InReplyTo != nil {
		logrus.WithField("type", raw.Type).Warn("base: service request carries in_reply_to, dropping")
		return true
	}

	from, typ, body, msgID := raw.Src, raw.Type, raw.Body, raw.MsgID
	go func() {
		reply, err := s.handler.Handle(ctx, from, typ, body)
		if err != nil {
			logrus.WithError(err).WithField("type", typ).Warn("base: service handler error")
			return
		}
		if reply == nil {
			return
		}
		msg, _ := BuildMessage(s.node, from, msgID, reply)
		if err := s.transport.Send(msg); err != nil {
			logrus.WithError(err).Warn("base: service failed to send reply")
		}
	}()
	return true
}
