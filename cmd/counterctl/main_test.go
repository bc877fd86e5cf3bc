package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsafe/counter-devnet/pkg/auth"
	"github.com/chainsafe/counter-devnet/pkg/counter"
)

const workingConfig = `
devnet:
  account_count: 3
deploy:
  counter:
    args: [10, 5, 100000]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	err := newApp(out).Run(append([]string{"counterctl"}, args...))
	return out.String(), err
}

func TestPrintAccount(t *testing.T) {
	out, err := run(t, "print-account")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 20)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", lines[0])
}

func TestNetworks(t *testing.T) {
	out, err := run(t, "networks")
	require.NoError(t, err)
	assert.Contains(t, out, "* hardhat")
	assert.Contains(t, out, "http://127.0.0.1:8545")
}

func TestUnknownNetwork(t *testing.T) {
	_, err := run(t, "--network", "goerli", "print-account")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown network")
}

func TestDemoMineUpTo(t *testing.T) {
	out, err := run(t, "demo", "mine-up-to", "--increment", "10")
	require.NoError(t, err)
	assert.Equal(t, "Starting with block number: 0\nMining stopped at block number: 10\n------------\n", out)
}

func TestDemoMine(t *testing.T) {
	out, err := run(t, "demo", "mine")
	require.NoError(t, err)
	assert.Equal(t, "Starting mining...current block number is 0\nmining completed. current block number is 10\n", out)
}

func TestDemoSetNonce(t *testing.T) {
	out, err := run(t, "demo", "set-nonce")
	require.NoError(t, err)
	assert.Equal(t, "Nonce before setNonce() 0\nNonce after setNonce() 500\n", out)
}

func TestDeploy_DefaultArgsAreReported(t *testing.T) {
	out, err := run(t, "deploy")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Deploying Counter contract......."))
	assert.NotContains(t, out, "contract deployed successfully")
}

func TestDeploy_UnknownTag(t *testing.T) {
	_, err := run(t, "deploy", "--tags", "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no deploy function matches tags token")
}

func TestCounterGet(t *testing.T) {
	cfg := writeConfig(t, workingConfig)

	out, err := run(t, "--config", cfg, "counter", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "contract deployed successfully")
	assert.Contains(t, out, "counter 0x5FbDB2315678afecb367f032d93F642f64180aa3 value 10 range [5, 100000] owner 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
}

func TestCounterIncrement(t *testing.T) {
	cfg := writeConfig(t, workingConfig)

	out, err := run(t, "--config", cfg, "counter", "increment", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Increment amount 3, counter is 13 (tx: 0x")
}

func TestCounterDecrementEvenReverts(t *testing.T) {
	cfg := writeConfig(t, workingConfig)

	_, err := run(t, "--config", cfg, "counter", "decrement", "2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, counter.ErrUnspecifiedFailure), "got %v", err)
}

func TestCounterSetOutOfRange(t *testing.T) {
	cfg := writeConfig(t, workingConfig)

	_, err := run(t, "--config", cfg, "counter", "set", "100001")
	require.Error(t, err)
	var rangeErr *counter.OutOfRangeError
	require.True(t, errors.As(err, &rangeErr), "got %v", err)
	assert.Equal(t, int64(100001), rangeErr.Value)
}

func TestCounterNotOwner(t *testing.T) {
	cfg := writeConfig(t, workingConfig+"named_accounts:\n  deployer: 0\n  user: 1\n")

	_, err := run(t, "--config", cfg, "counter", "--from", "user", "reset")
	require.Error(t, err)
	var notOwner *counter.NotOwnerError
	assert.True(t, errors.As(err, &notOwner), "got %v", err)
}

func TestCounter_DefaultArgsCannotDeploy(t *testing.T) {
	_, err := run(t, "counter", "get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not be deployed")
}

func TestCounter_InvalidArgument(t *testing.T) {
	cfg := writeConfig(t, workingConfig)

	_, err := run(t, "--config", cfg, "counter", "increment")
	require.Error(t, err)
	_, err = run(t, "--config", cfg, "counter", "increment", "three")
	require.Error(t, err)
	_, err = run(t, "--config", cfg, "counter", "--address", "0x123", "get")
	require.Error(t, err)
}

func TestToken(t *testing.T) {
	_, err := run(t, "token")
	require.ErrorIs(t, err, auth.ErrNotConfigured)

	cfg := writeConfig(t, "auth:\n  jwt_secret: devnet-secret\n  jwt_issuer: counter-devnet\n")
	out, err := run(t, "--config", cfg, "token", "--subject", "alice")
	require.NoError(t, err)

	claims, err := auth.NewJWTValidator("devnet-secret", "counter-devnet").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}
