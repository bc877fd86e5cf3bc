// Package devnet implements app.Runner for the devnet node process.
package devnet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/accounts"
	apphttp "github.com/chainsafe/counter-devnet/pkg/app/http"
	"github.com/chainsafe/counter-devnet/pkg/auth"
	"github.com/chainsafe/counter-devnet/pkg/config"
	"github.com/chainsafe/counter-devnet/pkg/deploy"
	"github.com/chainsafe/counter-devnet/pkg/deploy/service"
	"github.com/chainsafe/counter-devnet/pkg/deploystore"
	"github.com/chainsafe/counter-devnet/pkg/network"
	"github.com/chainsafe/counter-devnet/pkg/pgutil"
	"github.com/chainsafe/counter-devnet/pkg/units"
)

// Server holds configuration for the devnet process.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new devnet Server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run starts the in-process chain and serves it over HTTP.
// It blocks until an OS shutdown signal is received or a fatal server error occurs.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("nil config")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting counter devnet",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	node, err := NewNode(ctx, cfg, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer node.Close()

	node.PrintAccounts()
	if cfg.Deploy.RunOnStart {
		node.DeployOnStart(ctx)
	}

	fmt.Fprintf(node.out, "Started HTTP JSON-RPC server at http://%s/\n\n", cfg.Server.Address())
	return apphttp.ServeAndWait(ctx, node.Router(), logger, &cfg.Server)
}

// Node is a running devnet with its deploy service
type Node struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer

	Network *network.Network
	Service service.Service

	db *bun.DB
}

// NewNode creates the chain, opens the deployment store and wires the deploy
// service. Close releases everything it opened.
func NewNode(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) (*Node, error) {
	accts, err := accounts.Derive(cfg.Devnet.Mnemonic, cfg.Devnet.AccountCount)
	if err != nil {
		return nil, fmt.Errorf("derive accounts: %w", err)
	}
	chain, err := network.NewChain(cfg.Devnet, accts, logger)
	if err != nil {
		return nil, fmt.Errorf("create devnet: %w", err)
	}
	n, err := network.InProcess(config.HardhatNetwork, chain, accts, cfg.NamedAccounts, logger)
	if err != nil {
		return nil, fmt.Errorf("start json-rpc server: %w", err)
	}

	node := &Node{cfg: cfg, logger: logger, out: out, Network: n}

	store, err := node.openStore(ctx)
	if err != nil {
		node.Close()
		return nil, err
	}

	env, err := deploy.NewEnv(ctx, n, store, logger, out)
	if err != nil {
		node.Close()
		return nil, fmt.Errorf("create deploy env: %w", err)
	}
	runner, err := deploy.NewRunner(logger, deploy.Funcs(cfg.Deploy)...)
	if err != nil {
		node.Close()
		return nil, fmt.Errorf("register deploy functions: %w", err)
	}
	node.Service = service.NewLog(service.NewService(runner, env, store, n.Eth, logger), logger)

	return node, nil
}

func (n *Node) openStore(ctx context.Context) (deploystore.Store, error) {
	if !n.cfg.Database.Enabled {
		n.logger.Info("Keeping deployments in memory")
		return deploystore.NewMemoryStore(), nil
	}
	db, err := pgutil.ConnectDB(ctx, &n.cfg.Database, n.logger)
	if err != nil {
		return nil, fmt.Errorf("connect deployment db: %w", err)
	}
	n.db = db
	return deploystore.NewStore(db), nil
}

// PrintAccounts lists the funded accounts and their keys
func (n *Node) PrintAccounts() {
	fmt.Fprint(n.out, "Accounts\n========\n\n")
	for _, a := range n.Network.Accounts {
		balance := units.FormatEther(n.Network.Chain.Balance(a.Address))
		fmt.Fprintf(n.out, "Account #%d: %s (%s ETH)\n", a.Index, a.Address.Hex(), balance)
		fmt.Fprintf(n.out, "Private Key: %s\n\n", a.PrivateKeyHex())
	}
}

// DeployOnStart runs the configured deploy tags. A failed run is logged and
// the node keeps serving.
func (n *Node) DeployOnStart(ctx context.Context) {
	if _, err := n.Service.Deploy(ctx, n.cfg.Deploy.Tags); err != nil {
		n.logger.Warn("Deploy on start failed", zap.Strings("tags", n.cfg.Deploy.Tags), zap.Error(err))
	}
}

// Ready reports whether the node can serve requests
func (n *Node) Ready(ctx context.Context) error {
	if n.db != nil {
		if err := n.db.PingContext(ctx); err != nil {
			return fmt.Errorf("deployment db: %w", err)
		}
	}
	return nil
}

// Close stops the JSON-RPC server and closes the deployment db
func (n *Node) Close() {
	n.Network.Close()
	if n.db != nil {
		_ = n.db.Close()
	}
}

// Router returns the HTTP handler serving JSON-RPC, the deploy API and the
// operational endpoints.
func (n *Node) Router() http.Handler {
	cfg := n.cfg
	logger := n.logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	// NOTE: chi's middleware.Logger logs to stdlib.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := n.Ready(req.Context()); err != nil {
			logger.Warn("Readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled", zap.String("path", "/metrics"))
	}

	guard := auth.Middleware(auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(guard)
		service.RegisterRoutes(r, n.Service, logger)
	})

	r.With(guard).Handle("/", n.Network.Handler())

	return r
}
