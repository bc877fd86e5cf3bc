package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/internal/metrics"
	"github.com/chainsafe/counter-devnet/pkg/accounts"
	"github.com/chainsafe/counter-devnet/pkg/deployment"
	"github.com/chainsafe/counter-devnet/pkg/deploystore"
	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
	"github.com/chainsafe/counter-devnet/pkg/ethereum"
)

// Env is what a deploy function sees of the network it deploys to
type Env struct {
	Network       string
	Client        *ethereum.Client
	Accounts      []accounts.Account
	NamedAccounts map[string]int
	Artifacts     *native.Registry
	Store         deploystore.Store
	Logger        *zap.Logger
	Out           io.Writer
}

// DeployOptions describes a single contract deployment
type DeployOptions struct {
	// From is a named account
	From string
	// Contract is the artifact name; defaults to the deployment name
	Contract string
	Args     []*big.Int
	// Log prints progress to Out
	Log               bool
	WaitConfirmations uint64
}

// Result is a deployment together with whether it was created by this call
type Result struct {
	*deployment.Deployment
	Newly bool
}

// NamedAccount resolves a named account such as "deployer"
func (e *Env) NamedAccount(name string) (accounts.Account, error) {
	return accounts.Named(e.Accounts, e.NamedAccounts, name)
}

// Log prints a line to the deploy output
func (e *Env) Log(format string, args ...interface{}) {
	if e.Out == nil {
		return
	}
	fmt.Fprintf(e.Out, format+"\n", args...)
}

// Deploy deploys a contract under name unless the store already holds a
// deployment of it on this network with the same args whose address still
// carries code.
func (e *Env) Deploy(ctx context.Context, name string, opts DeployOptions) (res *Result, err error) {
	start := time.Now()
	defer func() {
		status := "failed"
		switch {
		case err == nil && res.Newly:
			status = "deployed"
			metrics.DeployDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		case err == nil:
			status = "reused"
		}
		metrics.Deployments.WithLabelValues(name, status).Inc()
	}()

	contract := opts.Contract
	if contract == "" {
		contract = name
	}
	artifact, ok := e.Artifacts.Artifact(contract)
	if !ok {
		return nil, fmt.Errorf("no artifact named %s", contract)
	}
	from, err := e.NamedAccount(opts.From)
	if err != nil {
		return nil, err
	}
	args := deployment.FormatArgs(opts.Args)

	existing, err := e.Store.Get(ctx, e.Network, name)
	switch {
	case err == nil && existing.SameArgs(args):
		hasCode, err := e.Client.HasCode(ctx, existing.Address)
		if err != nil {
			return nil, err
		}
		if hasCode {
			if opts.Log {
				e.Log("reusing %q at %s", name, existing.Address.Hex())
			}
			return &Result{Deployment: existing}, nil
		}
		e.Logger.Info("Recorded deployment has no code, redeploying",
			zap.String("name", name),
			zap.String("address", existing.Address.Hex()))
	case err != nil && !errors.Is(err, deploystore.ErrDeploymentNotFound):
		return nil, fmt.Errorf("failed to look up deployment %s: %w", name, err)
	}

	params := make([]interface{}, len(opts.Args))
	for i, a := range opts.Args {
		params[i] = a
	}
	address, tx, err := e.Client.DeployContract(ctx, from.Key, artifact.ABI, artifact.Bytecode, params...)
	if err != nil {
		return nil, err
	}
	if opts.Log {
		e.Log("deploying %q (tx: %s)...", name, tx.Hash().Hex())
	}

	receipt, err := e.Client.WaitMined(ctx, tx, opts.WaitConfirmations)
	if err != nil {
		return nil, err
	}

	d := deployment.New(e.Network, name, address, tx.Hash(), receipt.BlockNumber.Uint64(), from.Address, args)
	if err := e.Store.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to record deployment %s: %w", name, err)
	}

	if opts.Log {
		e.Log("deployed at %s with %d gas", address.Hex(), receipt.GasUsed)
	}
	e.Logger.Info("Contract deployed",
		zap.String("name", name),
		zap.String("network", e.Network),
		zap.String("address", address.Hex()),
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("block", d.BlockNumber))

	return &Result{Deployment: d, Newly: true}, nil
}
