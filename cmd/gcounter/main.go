// Command gcounter runs the grow-only counter CRDT workload.
package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"maelstrom-workloads/internal/base"
	"maelstrom-workloads/internal/crdt"
	"maelstrom-workloads/internal/obslog"
)

func main() {
	obslog.Init()

	transport := base.NewTransport(os.Stdin, os.Stdout)
	ctx := context.Background()
	recv := transport.Recv(ctx)

	node, err := base.Init(recv, transport)
	if err != nil {
		logrus.WithError(err).Fatal("gcounter: init handshake failed")
	}

	svc := crdt.NewService[crdt.GCounterAdd, crdt.GCounterState, crdt.GCounterQuery](ctx, node, transport, crdt.NewGCounter())
	defer svc.Close()

	service := base.NewService(node, transport, svc)
	base.Serve(ctx, recv, service)
}
