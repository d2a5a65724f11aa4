package base

import "errors"

// Sentinel errors for the messaging runtime. Callers compare with
// errors.Is; every wrap in this package uses %w so these survive
// fmt.Errorf chains.
var (
	ErrInitFailed            = errors.New("init handshake failed")
	ErrSerializationFailed   = errors.New("message serialization failed")
	ErrDeserializationFailed = errors.New("message deserialization failed")
	ErrSendToSelf            = errors.New("cannot send a correlated message to self")
	ErrTimeout               = errors.New("request timed out")
	ErrRetriesExhausted      = errors.New("retries exhausted without a reply")
	ErrUnknownCorrelation    = errors.New("response matches no pending request")
	ErrUnexpectedResponse    = errors.New("unexpected response payload")
)
