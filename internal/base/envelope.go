package base

import (
	"encoding/json"
	"fmt"
)

// Envelope is a Maelstrom message with a generic payload type. The wire
// form flattens msg_id/in_reply_to alongside the payload's own fields
// inside "body"; callers never see the flattening, they just set Body
// to a plain struct with its own "type" field.
type Envelope[B any] struct {
	Src       NodeID
	Dest      NodeID
	MsgID     *MessageID
	InReplyTo *MessageID
	Type      string
	Body      B
}

// RawEnvelope is an envelope whose body has not yet been decoded into a
// concrete payload type. The server loop routes on Type/InReplyTo before
// any handler sees the message.
type RawEnvelope = Envelope[json.RawMessage]

type wireEnvelope struct {
	Src  NodeID          `json:"src"`
	Dest NodeID          `json:"dest"`
	Body json.RawMessage `json:"body"`
}

type bodyHeader struct {
	MsgID     *MessageID `json:"msg_id,omitempty"`
	InReplyTo *MessageID `json:"in_reply_to,omitempty"`
	Type      string     `json:"type"`
}

// MarshalJSON flattens msg_id/in_reply_to into the same JSON object as
// the payload's own fields.
func (e Envelope[B]) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %v", ErrSerializationFailed, err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	if e.MsgID != nil {
		b, _ := json.Marshal(*e.MsgID)
		fields["msg_id"] = b
	}
	if e.InReplyTo != nil {
		b, _ := json.Marshal(*e.InReplyTo)
		fields["in_reply_to"] = b
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return json.Marshal(wireEnvelope{Src: e.Src, Dest: e.Dest, Body: body})
}

// UnmarshalJSON splits the flattened body back into its header and the
// raw payload bytes, which are then unmarshaled into B.
func (e *Envelope[B]) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	var h bodyHeader
	if err := json.Unmarshal(w.Body, &h); err != nil {
		return fmt.Errorf("%w: body header: %v", ErrDeserializationFailed, err)
	}
	e.Src, e.Dest = w.Src, w.Dest
	e.MsgID, e.InReplyTo, e.Type = h.MsgID, h.InReplyTo, h.Type
	if err := json.Unmarshal(w.Body, &e.Body); err != nil {
		return fmt.Errorf("%w: body payload: %v", ErrDeserializationFailed, err)
	}
	return nil
}

// BuildMessage allocates a message id from node and returns the envelope
// ready to send. inReplyTo is nil for a fresh request.
func BuildMessage[B any](node *Node, dest NodeID, inReplyTo *MessageID, payload B) (Envelope[B], MessageID) {
	id := node.NextMessageID()
	return Envelope[B]{
		Src:       node.ID(),
		Dest:      dest,
		MsgID:     &id,
		InReplyTo: inReplyTo,
		Body:      payload,
	}, id
}
