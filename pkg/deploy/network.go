package deploy

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/counter"
	"github.com/chainsafe/counter-devnet/pkg/deploystore"
	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
	"github.com/chainsafe/counter-devnet/pkg/ethereum"
	"github.com/chainsafe/counter-devnet/pkg/network"
)

// NewEnv builds the deploy environment of an open network
func NewEnv(ctx context.Context, n *network.Network, store deploystore.Store, logger *zap.Logger, out io.Writer, opts ...ethereum.Option) (*Env, error) {
	client, err := ethereum.NewClient(ctx, n.Eth, logger, opts...)
	if err != nil {
		return nil, err
	}
	return &Env{
		Network:       n.Name,
		Client:        client,
		Accounts:      n.Accounts,
		NamedAccounts: n.NamedAccounts,
		Artifacts:     native.NewRegistry(counter.Artifact()),
		Store:         store,
		Logger:        logger,
		Out:           out,
	}, nil
}
