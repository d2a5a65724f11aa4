package base

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Transport is the newline-delimited JSON boundary of the Maelstrom
// protocol: one JSON object per line in, one JSON object per line
// out. Reading happens on a dedicated goroutine feeding a bounded
// channel so the rest of the process never blocks on stdin directly;
// writing is serialized with a mutex since multiple goroutines (spawned
// request handlers, the replicator, the server loop itself) may send
// concurrently.
type Transport struct {
	r     *bufio.Reader
	out   io.Writer
	outMu sync.Mutex
}

// NewTransport wraps in/out, typically os.Stdin and os.Stdout.
func NewTransport(in io.Reader, out io.Writer) *Transport {
	return &Transport{r: bufio.NewReaderSize(in, 1<<20), out: out}
}

// Send marshals msg and writes it as a single newline-terminated line.
func (t *Transport) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	data = append(data, '\n')

	t.outMu.Lock()
	defer t.outMu.Unlock()
	if _, err := t.out.Write(data); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

// readLine returns the next newline-delimited line with the trailing
// newline stripped. A final line with content but no trailing newline
// is still returned; the next call then reports the underlying error
// (typically io.EOF).
func (t *Transport) readLine() (string, error) {
	line, err := t.r.ReadString('\n')
	trimmed := strings.TrimRight(line, "\n")
	if trimmed != "" {
		return trimmed, nil
	}
	return "", err
}

// Received is one item off the Recv channel: either a decoded envelope
// or a decode error for that single line.
type Received struct {
	Envelope RawEnvelope
	Err      error
}

// Recv starts the read loop and returns a channel of depth 1. The
// reading goroutine blocks on stdin so nothing else has to; the
// channel closes when the input reaches EOF or ctx is canceled.
func (t *Transport) Recv(ctx context.Context) <-chan Received {
	ch := make(chan Received, 1)
	go func() {
		defer close(ch)
		for {
			line, err := t.readLine()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					select {
					case ch <- Received{Err: fmt.Errorf("%w: %v", ErrDeserializationFailed, err)}:
					case <-ctx.Done():
					}
				}
				return
			}

			var env RawEnvelope
			if perr := json.Unmarshal([]byte(line), &env); perr != nil {
				select {
				case ch <- Received{Err: fmt.Errorf("%w: %q: %v", ErrDeserializationFailed, line, perr)}:
				case <-ctx.Done():
					return
				}
				continue
			}

			select {
			case ch <- Received{Envelope: env}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
