// Package network connects tools to a configured network: an ephemeral
// in-process devnet for "hardhat", or a JSON-RPC endpoint for anything else.
package network

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/accounts"
	"github.com/chainsafe/counter-devnet/pkg/auth"
	"github.com/chainsafe/counter-devnet/pkg/config"
	"github.com/chainsafe/counter-devnet/pkg/counter"
	"github.com/chainsafe/counter-devnet/pkg/devnet"
	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
	"github.com/chainsafe/counter-devnet/pkg/ethrpc"
	"github.com/chainsafe/counter-devnet/pkg/networkhelpers"
	"github.com/chainsafe/counter-devnet/pkg/units"
)

// Network is an open connection to a named network
type Network struct {
	Name    string
	ChainID uint64

	RPC     *rpc.Client
	Eth     *ethclient.Client
	Helpers *networkhelpers.Client

	// Accounts are the signing accounts derived from the configured mnemonic
	Accounts      []accounts.Account
	NamedAccounts map[string]int

	// Chain is set only for the in-process network
	Chain *devnet.Chain

	server *ethrpc.Server
}

// NewChain creates a devnet from configuration, funding every account
func NewChain(cfg config.DevnetConfig, accts []accounts.Account, logger *zap.Logger) (*devnet.Chain, error) {
	balance, err := units.ParseEther(cfg.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid initial balance: %w", err)
	}
	baseFee, ok := new(big.Int).SetString(cfg.BaseFeeWei, 10)
	if !ok {
		return nil, fmt.Errorf("invalid base fee %q", cfg.BaseFeeWei)
	}

	genesis := make([]devnet.GenesisAccount, len(accts))
	for i, a := range accts {
		genesis[i] = devnet.GenesisAccount{Key: a.Key, Balance: new(big.Int).Set(balance)}
	}

	chainCfg := devnet.Config{
		ChainID:          cfg.ChainID,
		GasLimit:         cfg.GasLimit,
		BaseFee:          baseFee,
		Automine:         cfg.Automine,
		GenesisTimestamp: cfg.GenesisTimestamp,
		Accounts:         genesis,
	}
	if cfg.Coinbase != "" {
		chainCfg.Coinbase = common.HexToAddress(cfg.Coinbase)
	}

	return devnet.New(chainCfg, native.NewRegistry(counter.Artifact()), logger)
}

// Open connects to the network called name, or the default network when
// name is empty
func Open(ctx context.Context, cfg *config.Config, name string, logger *zap.Logger) (*Network, error) {
	name, netCfg, err := cfg.Network(name)
	if err != nil {
		return nil, err
	}
	accts, err := accounts.Derive(cfg.Devnet.Mnemonic, cfg.Devnet.AccountCount)
	if err != nil {
		return nil, fmt.Errorf("failed to derive accounts: %w", err)
	}

	var n *Network
	if name == config.HardhatNetwork {
		devnetCfg := cfg.Devnet
		devnetCfg.ChainID = netCfg.ChainID
		chain, err := NewChain(devnetCfg, accts, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create devnet: %w", err)
		}
		n, err = InProcess(name, chain, accts, cfg.NamedAccounts, logger)
		if err != nil {
			return nil, err
		}
	} else {
		var opts []rpc.ClientOption
		if v := auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer); v.IsConfigured() {
			opts = append(opts, rpc.WithHTTPAuth(v.HTTPAuth("counterctl")))
		}
		client, err := rpc.DialOptions(ctx, netCfg.URL, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", name, err)
		}
		n = newNetwork(name, client, accts, cfg.NamedAccounts, logger)
	}

	chainID, err := n.Eth.ChainID(ctx)
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("failed to get chain id of %s: %w", name, err)
	}
	if chainID.Uint64() != netCfg.ChainID {
		n.Close()
		return nil, fmt.Errorf("network %s reports chain id %s, configured %d", name, chainID, netCfg.ChainID)
	}
	n.ChainID = netCfg.ChainID

	logger.Info("Connected to network",
		zap.String("network", name),
		zap.Uint64("chain_id", netCfg.ChainID),
		zap.Bool("in_process", n.Chain != nil))

	return n, nil
}

// InProcess serves chain over an in-process JSON-RPC server
func InProcess(name string, chain *devnet.Chain, accts []accounts.Account, named map[string]int, logger *zap.Logger) (*Network, error) {
	server, err := ethrpc.NewServer(chain, logger)
	if err != nil {
		return nil, err
	}
	n := newNetwork(name, server.DialInProc(), accts, named, logger)
	n.ChainID = chain.ChainID().Uint64()
	n.Chain = chain
	n.server = server
	return n, nil
}

func newNetwork(name string, client *rpc.Client, accts []accounts.Account, named map[string]int, logger *zap.Logger) *Network {
	eth := ethclient.NewClient(client)
	return &Network{
		Name:          name,
		RPC:           client,
		Eth:           eth,
		Helpers:       networkhelpers.New(client, logger),
		Accounts:      accts,
		NamedAccounts: named,
	}
}

// Handler returns the JSON-RPC HTTP handler of an in-process network, or
// nil for a remote one
func (n *Network) Handler() http.Handler {
	if n.server == nil {
		return nil
	}
	return n.server
}

// Account resolves a named account such as "deployer"
func (n *Network) Account(name string) (accounts.Account, error) {
	return accounts.Named(n.Accounts, n.NamedAccounts, name)
}

// Close releases the connection and stops the in-process server
func (n *Network) Close() {
	if n.RPC != nil {
		n.RPC.Close()
	}
	if n.server != nil {
		n.server.Stop()
	}
}
