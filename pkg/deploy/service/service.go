package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/counter-devnet/pkg/app/errors"
	"github.com/chainsafe/counter-devnet/pkg/deploy"
	"github.com/chainsafe/counter-devnet/pkg/deployment"
	"github.com/chainsafe/counter-devnet/pkg/deploystore"
	"github.com/chainsafe/counter-devnet/pkg/units"
)

// ErrNoMatchingFunc is returned when no deploy function carries a requested tag
var ErrNoMatchingFunc = errors.New("no deploy function matches the tags")

// Store is the narrow data-access interface of the deploy service
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	Get(ctx context.Context, network, name string) (*deployment.Deployment, error)
	List(ctx context.Context, network string) ([]*deployment.Deployment, error)
}

// BalanceReader reads account balances from the network
//
//go:generate mockery --name BalanceReader --output mocks --outpkg mocks --filename mock_balance_reader.go --with-expecter
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Service defines the deployment operations exposed over REST
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	Deploy(ctx context.Context, tags []string) (*DeployResult, error)
	ListDeployments(ctx context.Context, network string) ([]*deployment.Deployment, error)
	GetDeployment(ctx context.Context, network, name string) (*deployment.Deployment, error)
	Accounts(ctx context.Context) ([]*Account, error)
}

// DeployResult lists the functions a deploy run executed and the deployments
// of the network afterwards
type DeployResult struct {
	Network     string                   `json:"network"`
	Ran         []string                 `json:"ran"`
	Deployments []*deployment.Deployment `json:"deployments"`
}

// Account is a signing account of the network
type Account struct {
	Index   int            `json:"index"`
	Name    string         `json:"name,omitempty"`
	Address common.Address `json:"address"`
	// Balance is in ether
	Balance string `json:"balance"`
}

type deployService struct {
	mu       sync.Mutex
	runner   *deploy.Runner
	env      *deploy.Env
	store    Store
	balances BalanceReader
	logger   *zap.Logger
}

// NewService creates a new deploy service running runner against env
func NewService(runner *deploy.Runner, env *deploy.Env, store Store, balances BalanceReader, logger *zap.Logger) Service {
	return &deployService{
		runner:   runner,
		env:      env,
		store:    store,
		balances: balances,
		logger:   logger,
	}
}

// Deploy runs the deploy functions matching tags. Runs are serialized.
func (s *deployService) Deploy(ctx context.Context, tags []string) (*DeployResult, error) {
	matched := false
	for _, f := range s.runner.Funcs() {
		if f.Matches(tags...) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, apperrors.BadRequestError(ErrNoMatchingFunc, fmt.Sprintf("no deploy function matches tags %v", tags))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ran, err := s.runner.Run(ctx, s.env, tags...)
	if err != nil {
		return nil, apperrors.DependencyError(err, "deployment failed")
	}

	deployments, err := s.store.List(ctx, s.env.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	return &DeployResult{
		Network:     s.env.Network,
		Ran:         ran,
		Deployments: deployments,
	}, nil
}

// ListDeployments lists the deployments of network, or of every network
// when it is empty
func (s *deployService) ListDeployments(ctx context.Context, network string) ([]*deployment.Deployment, error) {
	deployments, err := s.store.List(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	return deployments, nil
}

// GetDeployment returns the deployment called name on network
func (s *deployService) GetDeployment(ctx context.Context, network, name string) (*deployment.Deployment, error) {
	if network == "" || name == "" {
		return nil, apperrors.BadRequestError(nil, "network and name are required")
	}

	d, err := s.store.Get(ctx, network, name)
	if err != nil {
		if errors.Is(err, deploystore.ErrDeploymentNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "deployment not found")
		}
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}
	return d, nil
}

// Accounts returns every signing account with its current balance
func (s *deployService) Accounts(ctx context.Context) ([]*Account, error) {
	names := make(map[int]string, len(s.env.NamedAccounts))
	for name, idx := range s.env.NamedAccounts {
		names[idx] = name
	}

	out := make([]*Account, 0, len(s.env.Accounts))
	for _, a := range s.env.Accounts {
		balance, err := s.balances.BalanceAt(ctx, a.Address, nil)
		if err != nil {
			return nil, apperrors.DependencyError(err, "failed to read balance")
		}
		out = append(out, &Account{
			Index:   a.Index,
			Name:    names[a.Index],
			Address: a.Address,
			Balance: units.FormatEther(balance),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}
