// Package txnstore implements the transactional key-value workload: a
// batch of read/append operations executed atomically against a root
// map kept in lin-kv, via compare-and-swap with retry.
package txnstore

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Key is a transaction key. It accepts either a JSON integer or a
// decimal string on the wire (some lin-kv implementations round-trip
// numeric keys as strings) but always marshals as a plain integer.
type Key uint64

// MarshalJSON always emits a bare integer.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(k))
}

// UnmarshalJSON accepts either a JSON number or a decimal string.
func (k *Key) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*k = Key(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("txnstore: key is neither an integer nor a string: %s", data)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("txnstore: invalid decimal key %q: %w", s, err)
	}
	*k = Key(n)
	return nil
}

// Value is either a single integer or a list of integers. Append
// promotes an integer operand to a singleton list as needed.
type Value struct {
	Int  *uint64
	List []uint64
}

// IntValue wraps a bare integer value.
func IntValue(n uint64) Value { return Value{Int: &n} }

// EmptyValue is the value of a key that has never been written:
// an empty list.
func EmptyValue() Value { return Value{List: []uint64{}} }

// AsList returns v's contents as a list, promoting a bare integer to a
// singleton list.
func (v Value) AsList() []uint64 {
	if v.List != nil {
		return v.List
	}
	if v.Int != nil {
		return []uint64{*v.Int}
	}
	return nil
}

// Append concatenates v with other, promoting either side from a bare
// integer to a singleton list as needed. The result is always a list.
func (v Value) Append(other Value) Value {
	combined := make([]uint64, 0, len(v.AsList())+len(other.AsList()))
	combined = append(combined, v.AsList()...)
	combined = append(combined, other.AsList()...)
	return Value{List: combined}
}

// MarshalJSON emits the list form if set, else the bare integer, else
// an empty list.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.List != nil {
		return json.Marshal(v.List)
	}
	if v.Int != nil {
		return json.Marshal(*v.Int)
	}
	return json.Marshal([]uint64{})
}

// UnmarshalJSON accepts either a JSON array or a bare integer.
func (v *Value) UnmarshalJSON(data []byte) error {
	var list []uint64
	if err := json.Unmarshal(data, &list); err == nil {
		v.List, v.Int = list, nil
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("txnstore: value is neither an integer nor a list: %s", data)
	}
	v.Int, v.List = &n, nil
	return nil
}
