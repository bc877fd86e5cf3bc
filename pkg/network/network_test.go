package network

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/accounts"
	"github.com/chainsafe/counter-devnet/pkg/auth"
	"github.com/chainsafe/counter-devnet/pkg/config"
	"github.com/chainsafe/counter-devnet/pkg/ethrpc"
	"github.com/chainsafe/counter-devnet/pkg/units"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Devnet.AccountCount = 3
	return cfg
}

func TestOpen_Hardhat(t *testing.T) {
	ctx := context.Background()
	n, err := Open(ctx, testConfig(), "", zap.NewNop())
	require.NoError(t, err)
	defer n.Close()

	assert.Equal(t, config.HardhatNetwork, n.Name)
	require.NotNil(t, n.Chain)
	assert.Len(t, n.Accounts, 3)

	chainID, err := n.Eth.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), chainID.Uint64())

	deployer, err := n.Account("deployer")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), deployer.Address)

	balance, err := n.Eth.BalanceAt(ctx, deployer.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, "10000.0", units.FormatEther(balance))
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open(context.Background(), testConfig(), "goerli", zap.NewNop())
	assert.True(t, errors.Is(err, config.ErrUnknownNetwork))
}

func newRemote(t *testing.T, cfg *config.Config, secret string) string {
	t.Helper()
	accts, err := accounts.Derive(cfg.Devnet.Mnemonic, 1)
	require.NoError(t, err)
	chain, err := NewChain(cfg.Devnet, accts, zap.NewNop())
	require.NoError(t, err)
	server, err := ethrpc.NewServer(chain, zap.NewNop())
	require.NoError(t, err)

	handler := auth.Middleware(auth.NewJWTValidator(secret, ""), zap.NewNop())(server)
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		ts.Close()
		server.Stop()
	})
	return ts.URL
}

func TestOpen_Remote(t *testing.T) {
	cfg := testConfig()
	cfg.Networks["local"] = config.NetworkConfig{ChainID: 31337, URL: newRemote(t, cfg, "")}

	n, err := Open(context.Background(), cfg, "local", zap.NewNop())
	require.NoError(t, err)
	defer n.Close()

	assert.Nil(t, n.Chain)
	block, err := n.Eth.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), block)
}

func TestOpen_RemoteWithAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Networks["local"] = config.NetworkConfig{ChainID: 31337, URL: newRemote(t, cfg, "shared-secret")}

	// without the secret the endpoint refuses the chain id query
	_, err := Open(context.Background(), cfg, "local", zap.NewNop())
	require.Error(t, err)

	cfg.Auth.JWTSecret = "shared-secret"
	n, err := Open(context.Background(), cfg, "local", zap.NewNop())
	require.NoError(t, err)
	n.Close()
}

func TestOpen_ChainIDMismatch(t *testing.T) {
	cfg := testConfig()
	cfg.Networks["mainnet"] = config.NetworkConfig{ChainID: 1, URL: newRemote(t, cfg, "")}

	_, err := Open(context.Background(), cfg, "mainnet", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reports chain id 31337")
}

func TestNewChain_InvalidBalance(t *testing.T) {
	cfg := config.Default().Devnet
	cfg.InitialBalance = "lots"
	_, err := NewChain(cfg, nil, zap.NewNop())
	require.Error(t, err)
}
