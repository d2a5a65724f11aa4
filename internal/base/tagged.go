package base

import "encoding/json"

// Tagged wraps a payload P that must appear on the wire as a JSON
// object carrying P's own fields plus a "type" discriminator merged in
// at the same level, e.g. {"type":"replicate","value":[1,2,3]}. It is
// the same flattening Envelope applies to its body, reused for payloads
// that are themselves generic over a parameter (CRDT state, lin-kv
// values) rather than over the envelope as a whole.
type Tagged[P any] struct {
	Type    string
	Payload P
}

// MarshalJSON merges Payload's fields with the "type" tag.
func (t Tagged[P]) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(t.Payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		fields = map[string]json.RawMessage{}
	}
	typeBytes, err := json.Marshal(t.Type)
	if err != nil {
		return nil, err
	}
	fields["type"] = typeBytes
	return json.Marshal(fields)
}

// UnmarshalJSON reads the "type" tag and decodes the rest of the object
// into Payload, letting Payload's own json tags pick out its fields.
func (t *Tagged[P]) UnmarshalJSON(data []byte) error {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return err
	}
	t.Type = header.Type
	return json.Unmarshal(data, &t.Payload)
}
