package txnstore

import (
	"encoding/json"
	"fmt"
)

// Op is a transaction operation kind.
type Op string

// The two operations a txn may carry.
const (
	OpRead   Op = "r"
	OpAppend Op = "append"
)

// Triple is one [op, key, value] entry in a txn request/response.
// value is null for a read request; for a read reply it holds the
// value observed (or null if the key was absent); for append it holds
// the operand to append.
type Triple struct {
	Op    Op
	Key   Key
	Value *Value
}

// MarshalJSON writes the [op, key, value] wire tuple.
func (t Triple) MarshalJSON() ([]byte, error) {
	opBytes, err := json.Marshal(t.Op)
	if err != nil {
		return nil, err
	}
	keyBytes, err := json.Marshal(t.Key)
	if err != nil {
		return nil, err
	}
	valueBytes := []byte("null")
	if t.Value != nil {
		valueBytes, err = json.Marshal(*t.Value)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal([3]json.RawMessage{opBytes, keyBytes, valueBytes})
}

// UnmarshalJSON reads the [op, key, value] wire tuple.
func (t *Triple) UnmarshalJSON(data []byte) error {
	var raw [3]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("txnstore: txn entry is not a 3-tuple: %w", err)
	}
	if err := json.Unmarshal(raw[0], &t.Op); err != nil {
		return fmt.Errorf("txnstore: decoding op: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.Key); err != nil {
		return fmt.Errorf("txnstore: decoding key: %w", err)
	}
	if string(raw[2]) == "null" {
		t.Value = nil
		return nil
	}
	var v Value
	if err := json.Unmarshal(raw[2], &v); err != nil {
		return fmt.Errorf("txnstore: decoding value: %w", err)
	}
	t.Value = &v
	return nil
}
