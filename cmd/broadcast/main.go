// Command broadcast runs the single-message broadcast workload.
package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"maelstrom-workloads/internal/base"
	"maelstrom-workloads/internal/broadcast"
	"maelstrom-workloads/internal/obslog"
)

func main() {
	obslog.Init()

	transport := base.NewTransport(os.Stdin, os.Stdout)
	ctx := context.Background()
	recv := transport.Recv(ctx)

	node, err := base.Init(recv, transport)
	if err != nil {
		logrus.WithError(err).Fatal("broadcast: init handshake failed")
	}

	svc := broadcast.NewService(node, transport)
	service := base.NewService(node, transport, svc)
	base.Serve(ctx, recv, service, svc.Handler())
}
