package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/chainsafe/counter-devnet/pkg/auth"
)

var tokenCommand = &cli.Command{
	Name:  "token",
	Usage: "Issues a bearer token for a devnet started with auth.jwt_secret",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "subject", Value: "counterctl", Usage: "Token subject"},
		&cli.DurationFlag{Name: "ttl", Value: auth.DefaultTokenTTL, Usage: "Token lifetime"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		token, err := auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).
			IssueToken(c.String("subject"), c.Duration("ttl"))
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(c.App.Writer, token)
		return nil
	},
}
