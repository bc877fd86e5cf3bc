package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/chainsafe/counter-devnet/pkg/demo"
	"github.com/chainsafe/counter-devnet/pkg/deploy"
)

var (
	tagsFlag = &cli.StringSliceFlag{
		Name:  "tags",
		Usage: "Deploy function tags to run (deploy.tags from config when empty)",
	}

	printAccountCommand = &cli.Command{
		Name:    "print-account",
		Aliases: []string{"accounts"},
		Usage:   "Prints list of accounts",
		Action: withSession(func(c *cli.Context, s *session) error {
			return demo.New(s.net, s.out).PrintAccounts(c.Context)
		}),
	}
	networksCommand = &cli.Command{
		Name:  "networks",
		Usage: "Lists the configured networks",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			for _, name := range cfg.NetworkNames() {
				n := cfg.Networks[name]
				marker := " "
				if name == cfg.DefaultNetwork {
					marker = "*"
				}
				url := n.URL
				if url == "" {
					url = "in-process"
				}
				fmt.Fprintf(c.App.Writer, "%s %-10s chain %-6d %s\n", marker, name, n.ChainID, url)
			}
			return nil
		},
	}
	deployCommand = &cli.Command{
		Name:  "deploy",
		Usage: "Runs the deploy functions matching tags",
		Flags: []cli.Flag{tagsFlag},
		Action: withSession(func(c *cli.Context, s *session) error {
			tags := c.StringSlice(tagsFlag.Name)
			if len(tags) == 0 {
				tags = s.cfg.Deploy.Tags
			}

			env, err := s.env(c)
			if err != nil {
				return err
			}
			runner, err := deploy.NewRunner(s.logger, deploy.Funcs(s.cfg.Deploy)...)
			if err != nil {
				return err
			}
			ran, err := runner.Run(c.Context, env, tags...)
			if err != nil {
				return err
			}
			if len(ran) == 0 {
				return fmt.Errorf("no deploy function matches tags %s", strings.Join(tags, ","))
			}
			return nil
		}),
	}
	deploymentsCommand = &cli.Command{
		Name:  "deployments",
		Usage: "Lists the recorded deployments of the network",
		Action: withSession(func(c *cli.Context, s *session) error {
			deployments, err := s.store.List(c.Context, s.net.Name)
			if err != nil {
				return err
			}
			if len(deployments) == 0 {
				fmt.Fprintf(s.out, "no deployments on %s\n", s.net.Name)
				return nil
			}
			for _, d := range deployments {
				fmt.Fprintf(s.out, "%s %s block %d tx %s args [%s]\n",
					d.Name, d.Address.Hex(), d.BlockNumber, d.TxHash.Hex(), strings.Join(d.Args, ", "))
			}
			return nil
		}),
	}
)
