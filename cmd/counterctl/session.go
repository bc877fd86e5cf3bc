package main

import (
	"fmt"
	"io"

	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/config"
	"github.com/chainsafe/counter-devnet/pkg/deploy"
	"github.com/chainsafe/counter-devnet/pkg/deploystore"
	"github.com/chainsafe/counter-devnet/pkg/ethereum"
	"github.com/chainsafe/counter-devnet/pkg/network"
	"github.com/chainsafe/counter-devnet/pkg/pgutil"
)

// session is everything a command needs to talk to one network
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	net    *network.Network
	store  deploystore.Store
	out    io.Writer

	db *bun.DB
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(configFlag.Name)
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	// stdout belongs to command output
	logCfg := cfg.Logging
	logCfg.OutputPath = "stderr"
	logCfg.Format = "console"
	if !c.Bool(verboseFlag.Name) {
		logCfg.Level = "warn"
	}
	logger, err := config.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	n, err := network.Open(c.Context, cfg, c.String(networkFlag.Name), logger)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger, net: n, out: c.App.Writer}
	if cfg.Database.Enabled {
		db, err := pgutil.ConnectDB(c.Context, &cfg.Database, logger)
		if err != nil {
			s.close()
			return nil, err
		}
		s.db = db
		s.store = deploystore.NewStore(db)
	} else {
		s.store = deploystore.NewMemoryStore()
	}
	return s, nil
}

func (s *session) close() {
	s.net.Close()
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = s.logger.Sync()
}

func (s *session) env(c *cli.Context, opts ...ethereum.Option) (*deploy.Env, error) {
	return deploy.NewEnv(c.Context, s.net, s.store, s.logger, s.out, opts...)
}

// withSession opens a session around action
func withSession(action func(*cli.Context, *session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.close()
		return action(c, s)
	}
}
