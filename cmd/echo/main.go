// Command echo is the trivial round-trip workload: every echo request
// gets back the same echo payload. It exercises the init handshake and
// the service adapter with no state of its own.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"maelstrom-workloads/internal/base"
	"maelstrom-workloads/internal/obslog"
)

type echoRequest struct {
	Echo string `json:"echo"`
}

type echoResponse struct {
	Type string `json:"type"`
	Echo string `json:"echo"`
}

type echoHandler struct{}

func (echoHandler) RequestTypes() []string { return []string{"echo"} }

func (echoHandler) Handle(_ context.Context, _ base.NodeID, typ string, body json.RawMessage) (any, error) {
	if typ != "echo" {
		return nil, fmt.Errorf("echo: unhandled request type %q", typ)
	}
	var req echoRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("echo: decoding echo: %w", err)
	}
	return echoResponse{Type: "echo_ok", Echo: req.Echo}, nil
}

func main() {
	obslog.Init()

	transport := base.NewTransport(os.Stdin, os.Stdout)
	ctx := context.Background()
	recv := transport.Recv(ctx)

	node, err := base.Init(recv, transport)
	if err != nil {
		logrus.WithError(err).Fatal("echo: init handshake failed")
	}

	service := base.NewService(node, transport, echoHandler{})
	base.Serve(ctx, recv, service)
}
