// Command txnstore runs the transactional key-value workload, layered
// over the external linearizable lin-kv service.
package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"maelstrom-workloads/internal/base"
	"maelstrom-workloads/internal/obslog"
	"maelstrom-workloads/internal/txnstore"
)

func main() {
	obslog.Init()

	transport := base.NewTransport(os.Stdin, os.Stdout)
	ctx := context.Background()
	recv := transport.Recv(ctx)

	node, err := base.Init(recv, transport)
	if err != nil {
		logrus.WithError(err).Fatal("txnstore: init handshake failed")
	}

	store := txnstore.NewStore(node, transport)
	service := base.NewService(node, transport, txnstore.NewService(store))
	base.Serve(ctx, recv, service, store.Handler())
}
