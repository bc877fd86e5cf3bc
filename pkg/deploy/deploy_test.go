package deploy

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/accounts"
	"github.com/chainsafe/counter-devnet/pkg/config"
	"github.com/chainsafe/counter-devnet/pkg/counter"
	"github.com/chainsafe/counter-devnet/pkg/deploystore"
	"github.com/chainsafe/counter-devnet/pkg/ethereum"
	"github.com/chainsafe/counter-devnet/pkg/network"
)

var firstContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

type testEnv struct {
	*Env
	net *network.Network
	out *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	cfg.Devnet.AccountCount = 2

	n, err := network.Open(ctx, cfg, "", zap.NewNop())
	if err != nil {
		t.Fatalf("network.Open() failed: %v", err)
	}
	t.Cleanup(n.Close)

	out := &bytes.Buffer{}
	env, err := NewEnv(ctx, n, deploystore.NewMemoryStore(), zap.NewNop(), out, ethereum.WithPollInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewEnv() failed: %v", err)
	}
	return &testEnv{Env: env, net: n, out: out}
}

func counterConfig(args ...int64) config.CounterDeployConfig {
	return config.CounterDeployConfig{Args: args, WaitConfirmations: 1}
}

func TestDeployCounter_DefaultArgsFail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	runner, err := NewRunner(zap.NewNop(), Funcs(config.Default().Deploy)...)
	require.NoError(t, err)

	ran, err := runner.Run(ctx, env.Env, TagAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"deployCounter"}, ran)

	assert.Contains(t, env.out.String(), "Deploying Counter contract.......\n")
	assert.NotContains(t, env.out.String(), "contract deployed successfully")

	deployments, err := env.Store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, deployments)
	assert.Equal(t, uint64(0), env.net.Chain.BlockNumber())
}

func TestDeployCounter_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fn := DeployCounter(counterConfig(10, 5, 100000))

	require.NoError(t, fn.Run(ctx, env.Env))

	d, err := env.Store.Get(ctx, config.HardhatNetwork, counter.ContractName)
	require.NoError(t, err)
	assert.Equal(t, firstContract, d.Address)
	assert.Equal(t, []string{"10", "5", "100000"}, d.Args)
	assert.Equal(t, uint64(1), d.BlockNumber)

	deployer, err := env.NamedAccount("deployer")
	require.NoError(t, err)
	assert.Equal(t, deployer.Address, d.Deployer)

	assert.Contains(t, env.out.String(),
		"contract deployed successfully. Transaction hash is "+d.TxHash.Hex()+", address is "+firstContract.Hex()+"\n------------------------\n")

	value, err := env.Client.Counter(d.Address).GetCounter(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), value.Int64())

	// a second run reuses the recorded deployment
	env.out.Reset()
	require.NoError(t, fn.Run(ctx, env.Env))
	assert.Contains(t, env.out.String(), `reusing "Counter" at `+firstContract.Hex())
	assert.Equal(t, uint64(1), env.net.Chain.BlockNumber())

	again, err := env.Store.Get(ctx, config.HardhatNetwork, counter.ContractName)
	require.NoError(t, err)
	assert.Equal(t, d.ID, again.ID)
}

func TestEnv_DeployRedeploysOnNewArgs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.Deploy(ctx, "Counter", DeployOptions{
		From: "deployer",
		Args: []*big.Int{big.NewInt(10), big.NewInt(5), big.NewInt(100000)},
	})
	require.NoError(t, err)
	assert.True(t, first.Newly)

	second, err := env.Deploy(ctx, "Counter", DeployOptions{
		From: "deployer",
		Args: []*big.Int{big.NewInt(7), big.NewInt(5), big.NewInt(100000)},
	})
	require.NoError(t, err)
	assert.True(t, second.Newly)
	assert.NotEqual(t, first.Address, second.Address)
	assert.Equal(t, first.ID, second.ID)

	// nothing printed without Log
	assert.Empty(t, env.out.String())
}

func TestEnv_DeployWaitsForConfirmations(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = env.net.Helpers.Mine(ctx, 1)
			}
		}
	}()

	res, err := env.Deploy(ctx, "Counter", DeployOptions{
		From:              "deployer",
		Args:              []*big.Int{big.NewInt(10), big.NewInt(5), big.NewInt(100000)},
		WaitConfirmations: 3,
	})
	close(done)
	wg.Wait()
	require.NoError(t, err)

	latest, err := env.Client.GetLatestBlockNumber(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, latest, res.BlockNumber+2)
}

func TestEnv_DeployErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Deploy(ctx, "Token", DeployOptions{From: "deployer"})
	assert.ErrorContains(t, err, "no artifact named Token")

	_, err = env.Deploy(ctx, "Counter", DeployOptions{
		From: "owner",
		Args: []*big.Int{big.NewInt(10), big.NewInt(5), big.NewInt(100000)},
	})
	assert.True(t, errors.Is(err, accounts.ErrUnknownNamedAccount))

	_, err = env.Deploy(ctx, "Counter", DeployOptions{
		From: "deployer",
		Args: []*big.Int{big.NewInt(5), big.NewInt(1000000), big.NewInt(10)},
	})
	require.Error(t, err)
}

func TestRunner(t *testing.T) {
	ctx := context.Background()
	env := &Env{Network: "test"}

	var calls []string
	record := func(name string, tags ...string) Func {
		return Func{Name: name, Tags: tags, Run: func(context.Context, *Env) error {
			calls = append(calls, name)
			return nil
		}}
	}

	runner, err := NewRunner(zap.NewNop(),
		record("first", TagAll, "a"),
		record("second", TagAll, "b"),
		record("third", "a"),
	)
	require.NoError(t, err)

	ran, err := runner.Run(ctx, env, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "third"}, ran)

	calls = nil
	ran, err = runner.Run(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, ran)
	assert.Equal(t, ran, calls)

	ran, err = runner.Run(ctx, env, "missing")
	require.NoError(t, err)
	assert.Empty(t, ran)

	err = runner.Register(record("first"))
	assert.True(t, errors.Is(err, ErrDuplicateFunc))
	assert.Len(t, runner.Funcs(), 3)
}

func TestRunner_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	runner, err := NewRunner(zap.NewNop(),
		Func{Name: "broken", Run: func(context.Context, *Env) error { return boom }},
		Func{Name: "never", Run: func(context.Context, *Env) error {
			t.Fatalf("ran after a failure")
			return nil
		}},
	)
	require.NoError(t, err)

	ran, err := runner.Run(context.Background(), &Env{})
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, ran)
}
