package networkhelpers

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/counter"
	"github.com/chainsafe/counter-devnet/pkg/devnet"
	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
	"github.com/chainsafe/counter-devnet/pkg/ethrpc"
)

var (
	deployerKey, _ = crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	deployerAddr   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	wethAddr       = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

const genesisTime = uint64(1700000000)

type testNode struct {
	helpers *Client
	chain   *devnet.Chain
	eth     *ethclient.Client
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()
	chain, err := devnet.New(devnet.Config{
		Automine:         true,
		GenesisTimestamp: genesisTime,
		Accounts: []devnet.GenesisAccount{
			{Key: deployerKey, Balance: new(big.Int).Mul(big.NewInt(10000), big.NewInt(params.Ether))},
		},
	}, native.NewRegistry(counter.Artifact()), zap.NewNop())
	if err != nil {
		t.Fatalf("devnet.New() failed: %v", err)
	}
	server, err := ethrpc.NewServer(chain, zap.NewNop())
	if err != nil {
		t.Fatalf("ethrpc.NewServer() failed: %v", err)
	}
	client := server.DialInProc()
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})

	return &testNode{
		helpers: New(client, zap.NewNop()),
		chain:   chain,
		eth:     ethclient.NewClient(client),
	}
}

func TestMine(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()

	require.NoError(t, node.helpers.Mine(ctx, 1))
	assert.Equal(t, uint64(1), node.chain.BlockNumber())

	require.NoError(t, node.helpers.Mine(ctx, 100))
	assert.Equal(t, uint64(101), node.chain.BlockNumber())

	require.NoError(t, node.helpers.Mine(ctx, 2, WithInterval(60)))
	b102, _ := node.chain.BlockByNumber(102)
	b103, _ := node.chain.BlockByNumber(103)
	assert.Equal(t, b102.Time()+60, b103.Time())

	err := node.helpers.Mine(ctx, 0)
	assert.True(t, errors.Is(err, ErrInvalidBlockCount))
}

func TestMineUpTo(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()

	require.NoError(t, node.helpers.MineUpTo(ctx, 100))
	latest, err := node.helpers.Time.LatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), latest)

	err = node.helpers.MineUpTo(ctx, 100)
	assert.True(t, errors.Is(err, ErrBlockInPast))
	err = node.helpers.MineUpTo(ctx, 50)
	assert.True(t, errors.Is(err, ErrBlockInPast))
}

func TestStateManipulation(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()

	five := new(big.Int).Mul(big.NewInt(5), big.NewInt(params.Ether))
	require.NoError(t, node.helpers.SetBalance(ctx, deployerAddr, five))
	balance, err := node.eth.BalanceAt(ctx, deployerAddr, nil)
	require.NoError(t, err)
	assert.Equal(t, five, balance)

	code := []byte{0x60, 0x80, 0x60, 0x40}
	require.NoError(t, node.helpers.SetCode(ctx, deployerAddr, code))
	got, err := node.eth.CodeAt(ctx, deployerAddr, nil)
	require.NoError(t, err)
	assert.Equal(t, code, got)

	require.NoError(t, node.helpers.SetNonce(ctx, deployerAddr, 500))
	nonce, err := node.eth.NonceAt(ctx, deployerAddr, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), nonce)

	word := common.HexToHash("0x2a")
	require.NoError(t, node.helpers.SetStorageAt(ctx, wethAddr, big.NewInt(7), word))
	stored, err := node.eth.StorageAt(ctx, wethAddr, common.BigToHash(big.NewInt(7)), nil)
	require.NoError(t, err)
	assert.Equal(t, word.Bytes(), stored)
}

func TestImpersonation(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()

	require.NoError(t, node.helpers.ImpersonateAccount(ctx, wethAddr))
	assert.True(t, node.chain.IsImpersonated(wethAddr))

	require.NoError(t, node.helpers.StopImpersonatingAccount(ctx, wethAddr))
	assert.False(t, node.chain.IsImpersonated(wethAddr))

	// stopping twice reports false from the node
	require.Error(t, node.helpers.StopImpersonatingAccount(ctx, wethAddr))
}

func TestDropTransaction(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()
	node.chain.SetAutomine(false)

	signer := types.LatestSignerForChainID(node.chain.ChainID())
	tx := types.MustSignNewTx(deployerKey, signer, &types.DynamicFeeTx{
		ChainID:   node.chain.ChainID(),
		Nonce:     0,
		GasTipCap: big.NewInt(params.GWei),
		GasFeeCap: big.NewInt(2 * params.GWei),
		Gas:       21000,
		To:        &wethAddr,
		Value:     big.NewInt(1),
	})
	require.NoError(t, node.eth.SendTransaction(ctx, tx))

	dropped, err := node.helpers.DropTransaction(ctx, tx.Hash())
	require.NoError(t, err)
	assert.True(t, dropped)

	dropped, err = node.helpers.DropTransaction(ctx, tx.Hash())
	require.NoError(t, err)
	assert.False(t, dropped)
}

func TestTime(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()

	require.NoError(t, node.helpers.Mine(ctx, 1))
	latest, err := node.helpers.Time.Latest(ctx)
	require.NoError(t, err)

	target, err := node.helpers.Time.Increase(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, latest+500, target)

	now, err := node.helpers.Time.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, target, now)
	block, err := node.helpers.Time.LatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), block)

	require.NoError(t, node.helpers.Time.IncreaseTo(ctx, now+3600))
	now, err = node.helpers.Time.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, target+3600, now)

	require.NoError(t, node.helpers.Time.SetNextBlockTimestamp(ctx, now+10))
	require.NoError(t, node.helpers.Mine(ctx, 1))
	head := node.chain.LatestBlock()
	assert.Equal(t, now+10, head.Time())

	_, err = node.helpers.Time.Increase(ctx, 0)
	assert.True(t, errors.Is(err, ErrInvalidSeconds))
	err = node.helpers.Time.IncreaseTo(ctx, head.Time())
	assert.True(t, errors.Is(err, ErrTimestampNotIncreasing))
	err = node.helpers.Time.SetNextBlockTimestamp(ctx, head.Time()-1)
	assert.True(t, errors.Is(err, ErrTimestampNotIncreasing))
}

func TestSnapshot_RestoreTwice(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()

	snapshot, err := node.helpers.TakeSnapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, node.helpers.Mine(ctx, 10))
	require.NoError(t, snapshot.Restore(ctx))
	assert.Equal(t, uint64(0), node.chain.BlockNumber())

	require.NoError(t, node.helpers.Mine(ctx, 3))
	require.NoError(t, snapshot.Restore(ctx))
	assert.Equal(t, uint64(0), node.chain.BlockNumber())
}

func TestSnapshot_Invalid(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()

	first, err := node.helpers.TakeSnapshot(ctx)
	require.NoError(t, err)
	second, err := node.helpers.TakeSnapshot(ctx)
	require.NoError(t, err)

	// restoring the earlier snapshot discards the later one on the node
	require.NoError(t, first.Restore(ctx))
	err = second.Restore(ctx)
	assert.True(t, errors.Is(err, ErrInvalidSnapshot))
}
