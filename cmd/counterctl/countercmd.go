package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/chainsafe/counter-devnet/pkg/counter"
	"github.com/chainsafe/counter-devnet/pkg/deploy"
	"github.com/chainsafe/counter-devnet/pkg/deploystore"
	"github.com/chainsafe/counter-devnet/pkg/ethereum"
)

// counterGasLimit skips estimation so reverts come back from the node with
// their data
const counterGasLimit = 500_000

var (
	addressFlag = &cli.StringFlag{
		Name:  "address",
		Usage: "Counter address (the recorded deployment when empty)",
	}
	fromFlag = &cli.StringFlag{
		Name:  "from",
		Value: "deployer",
		Usage: "Named account that signs transactions",
	}
	fromBlockFlag = &cli.Uint64Flag{
		Name:  "from-block",
		Usage: "First block to watch (the next block when zero)",
	}
)

var counterCommand = &cli.Command{
	Name:  "counter",
	Usage: "Reads and drives a deployed Counter",
	Flags: []cli.Flag{addressFlag, fromFlag},
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Usage: "Prints the value, bounds and owner",
			Action: withCounter(func(c *cli.Context, k *counterCmd) error {
				return k.print(c)
			}),
		},
		{
			Name:      "increment",
			Usage:     "Adds a positive amount",
			ArgsUsage: "<amount>",
			Action: withCounter(func(c *cli.Context, k *counterCmd) error {
				amount, err := bigArg(c)
				if err != nil {
					return err
				}
				return k.transact(c, func(opts *bind.TransactOpts) (*types.Transaction, error) {
					return k.binding.Increment(opts, amount)
				})
			}),
		},
		{
			Name:      "decrement",
			Usage:     "Subtracts a positive odd amount",
			ArgsUsage: "<amount>",
			Action: withCounter(func(c *cli.Context, k *counterCmd) error {
				amount, err := bigArg(c)
				if err != nil {
					return err
				}
				return k.transact(c, func(opts *bind.TransactOpts) (*types.Transaction, error) {
					return k.binding.Decrement(opts, amount)
				})
			}),
		},
		{
			Name:      "set",
			Usage:     "Sets the value within the bounds",
			ArgsUsage: "<value>",
			Action: withCounter(func(c *cli.Context, k *counterCmd) error {
				value, err := bigArg(c)
				if err != nil {
					return err
				}
				return k.transact(c, func(opts *bind.TransactOpts) (*types.Transaction, error) {
					return k.binding.SetCounter(opts, value)
				})
			}),
		},
		{
			Name:  "reset",
			Usage: "Restores the initial value",
			Action: withCounter(func(c *cli.Context, k *counterCmd) error {
				return k.transact(c, k.binding.ResetCounter)
			}),
		},
		{
			Name:  "watch",
			Usage: "Prints counter events until interrupted",
			Flags: []cli.Flag{fromBlockFlag},
			Action: withCounter(func(c *cli.Context, k *counterCmd) error {
				from := c.Uint64(fromBlockFlag.Name)
				if from == 0 {
					latest, err := k.client.GetLatestBlockNumber(c.Context)
					if err != nil {
						return err
					}
					from = latest + 1
				}
				err := k.client.WatchCounterEvents(c.Context, k.binding.Address(), from, func(ev counter.Event, l types.Log) error {
					fmt.Fprintf(k.s.out, "block %d: %s\n", l.BlockNumber, formatEvent(ev))
					return nil
				})
				if errors.Is(err, c.Context.Err()) {
					return nil
				}
				return err
			}),
		},
	},
}

type counterCmd struct {
	s       *session
	client  *ethereum.Client
	binding *counter.Binding
}

func withCounter(action func(*cli.Context, *counterCmd) error) cli.ActionFunc {
	return withSession(func(c *cli.Context, s *session) error {
		env, err := s.env(c, ethereum.WithGasLimit(counterGasLimit))
		if err != nil {
			return err
		}
		address, err := resolveCounter(c, s, env)
		if err != nil {
			return err
		}
		return action(c, &counterCmd{s: s, client: env.Client, binding: env.Client.Counter(address)})
	})
}

// resolveCounter returns the --address flag, else the recorded deployment.
// An in-process network starts empty, so the Counter is deployed first.
func resolveCounter(c *cli.Context, s *session, env *deploy.Env) (common.Address, error) {
	if addr := c.String(addressFlag.Name); addr != "" {
		if !common.IsHexAddress(addr) {
			return common.Address{}, fmt.Errorf("invalid address %q", addr)
		}
		return common.HexToAddress(addr), nil
	}

	d, err := s.store.Get(c.Context, s.net.Name, counter.ContractName)
	if err == nil {
		return d.Address, nil
	}
	if !errors.Is(err, deploystore.ErrDeploymentNotFound) || s.net.Chain == nil {
		return common.Address{}, fmt.Errorf("no %s deployment on %s (pass --address or run deploy): %w", counter.ContractName, s.net.Name, err)
	}

	runner, err := deploy.NewRunner(s.logger, deploy.DeployCounter(s.cfg.Deploy.Counter))
	if err != nil {
		return common.Address{}, err
	}
	if _, err := runner.Run(c.Context, env, deploy.TagCounter); err != nil {
		return common.Address{}, err
	}
	d, err = s.store.Get(c.Context, s.net.Name, counter.ContractName)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s could not be deployed with args %v: %w", counter.ContractName, s.cfg.Deploy.Counter.Args, err)
	}
	return d.Address, nil
}

func (k *counterCmd) key(c *cli.Context) (*bind.TransactOpts, error) {
	account, err := k.s.net.Account(c.String(fromFlag.Name))
	if err != nil {
		return nil, err
	}
	return k.client.GetTransactor(c.Context, account.Key)
}

func (k *counterCmd) transact(c *cli.Context, send func(*bind.TransactOpts) (*types.Transaction, error)) error {
	opts, err := k.key(c)
	if err != nil {
		return err
	}

	tx, err := send(opts)
	if err != nil {
		if reason, ok := counter.UnpackError(err); ok {
			return fmt.Errorf("counter reverted: %w", reason)
		}
		return err
	}

	receipt, err := k.client.WaitMined(c.Context, tx, 1)
	if err != nil {
		return err
	}
	events, err := k.binding.Events(receipt)
	if err != nil {
		return err
	}
	for _, ev := range events {
		fmt.Fprintf(k.s.out, "%s (tx: %s)\n", formatEvent(ev), tx.Hash().Hex())
	}
	return nil
}

func (k *counterCmd) print(c *cli.Context) error {
	opts := &bind.CallOpts{Context: c.Context}
	value, err := k.binding.GetCounter(opts)
	if err != nil {
		return err
	}
	minValue, err := k.binding.Min(opts)
	if err != nil {
		return err
	}
	maxValue, err := k.binding.Max(opts)
	if err != nil {
		return err
	}
	owner, err := k.binding.Owner(opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(k.s.out, "counter %s value %s range [%s, %s] owner %s\n",
		k.binding.Address().Hex(), value, minValue, maxValue, owner.Hex())
	return nil
}

func formatEvent(ev counter.Event) string {
	switch ev.Kind {
	case counter.EventIncrement, counter.EventDecrement:
		return fmt.Sprintf("%s amount %d, counter is %d", ev.Kind, ev.Amount, ev.NewValue)
	case counter.EventSetCounter:
		return fmt.Sprintf("%s counter is %d", ev.Kind, ev.NewValue)
	default:
		return ev.Kind.String()
	}
}

func bigArg(c *cli.Context) (*big.Int, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one argument, got %d", c.NArg())
	}
	v, ok := new(big.Int).SetString(c.Args().First(), 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", c.Args().First())
	}
	return v, nil
}
