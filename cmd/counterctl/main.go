package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file (defaults apply when empty)",
		EnvVars: []string{"COUNTER_CONFIG"},
	}
	networkFlag = &cli.StringFlag{
		Name:    "network",
		Aliases: []string{"n"},
		Usage:   "Network to connect to (default_network when empty)",
		EnvVars: []string{"COUNTER_NETWORK"},
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Log at the configured level instead of warn",
	}
)

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:                 "counterctl",
		Usage:                "Deploy, inspect and drive the Counter contract on a devnet",
		Writer:               out,
		ErrWriter:            os.Stderr,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			configFlag,
			networkFlag,
			verboseFlag,
		},
		Commands: []*cli.Command{
			printAccountCommand,
			networksCommand,
			deployCommand,
			deploymentsCommand,
			demoCommand,
			counterCommand,
			tokenCommand,
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
