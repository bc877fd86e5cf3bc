package main

import (
	"github.com/urfave/cli/v2"

	"github.com/chainsafe/counter-devnet/pkg/demo"
)

var demoCommand = &cli.Command{
	Name:  "demo",
	Usage: "Walks through the network helpers",
	Subcommands: []*cli.Command{
		{
			Name:  "mining",
			Usage: "Mines 1 block, 100 blocks, then 2 blocks a second apart",
			Action: withDemo(func(c *cli.Context, d *demo.Demo) error {
				return d.Mining(c.Context)
			}),
		},
		{
			Name:  "mine",
			Usage: "Mines --blocks blocks and prints the block number before and after",
			Flags: []cli.Flag{
				&cli.Uint64Flag{Name: "blocks", Value: 10, Usage: "Blocks to mine"},
			},
			Action: withDemo(func(c *cli.Context, d *demo.Demo) error {
				return d.MineBlocks(c.Context, c.Uint64("blocks"))
			}),
		},
		{
			Name:  "mine-up-to",
			Usage: "Mines until the chain is --increment blocks ahead",
			Flags: []cli.Flag{
				&cli.Uint64Flag{Name: "increment", Value: 100, Usage: "Blocks to move forward"},
			},
			Action: withDemo(func(c *cli.Context, d *demo.Demo) error {
				return d.MineUpTo(c.Context, c.Uint64("increment"))
			}),
		},
		{
			Name:  "set-balance",
			Usage: "Forces the balance of account 0",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "ether", Value: "5", Usage: "New balance in ether"},
			},
			Action: withDemo(func(c *cli.Context, d *demo.Demo) error {
				return d.SetBalance(c.Context, c.String("ether"))
			}),
		},
		{
			Name:  "set-code",
			Usage: "Copies the WETH code onto account 0",
			Action: withDemo(func(c *cli.Context, d *demo.Demo) error {
				return d.SetCode(c.Context)
			}),
		},
		{
			Name:  "set-nonce",
			Usage: "Moves the nonce of account 0",
			Flags: []cli.Flag{
				&cli.Uint64Flag{Name: "nonce", Value: demo.DefaultNonce, Usage: "New nonce"},
			},
			Action: withDemo(func(c *cli.Context, d *demo.Demo) error {
				return d.SetNonce(c.Context, c.Uint64("nonce"))
			}),
		},
		{
			Name:  "impersonate",
			Usage: "Impersonates the WETH address and prints its balance",
			Action: withDemo(func(c *cli.Context, d *demo.Demo) error {
				return d.Impersonate(c.Context)
			}),
		},
		{
			Name:  "increase-time",
			Usage: "Moves time forward and prints the block timestamps",
			Flags: []cli.Flag{
				&cli.Uint64Flag{Name: "seconds", Value: 500, Usage: "Seconds to move forward"},
			},
			Action: withDemo(func(c *cli.Context, d *demo.Demo) error {
				return d.IncreaseTime(c.Context, c.Uint64("seconds"))
			}),
		},
	},
}

func withDemo(action func(*cli.Context, *demo.Demo) error) cli.ActionFunc {
	return withSession(func(c *cli.Context, s *session) error {
		return action(c, demo.New(s.net, s.out))
	})
}
