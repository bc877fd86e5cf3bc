package deploystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/chainsafe/counter-devnet/pkg/deployment"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the deployment store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Save(ctx context.Context, d *deployment.Deployment) error {
	dao := toDeploymentDao(d)

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (network, name) DO UPDATE").
		Set("address = EXCLUDED.address").
		Set("tx_hash = EXCLUDED.tx_hash").
		Set("block_number = EXCLUDED.block_number").
		Set("deployer = EXCLUDED.deployer").
		Set("args = EXCLUDED.args").
		Set("created_at = EXCLUDED.created_at").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save deployment: %w", err)
	}

	// a replaced record keeps its original id
	d.ID = dao.ID
	return nil
}

func (s *pgStore) Get(ctx context.Context, network, name string) (*deployment.Deployment, error) {
	dao := new(DeploymentDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("network = ?", network).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeploymentNotFound
		}
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}
	return toDeployment(dao), nil
}

func (s *pgStore) List(ctx context.Context, network string) ([]*deployment.Deployment, error) {
	var daos []DeploymentDao
	query := s.db.NewSelect().Model(&daos)
	if network != "" {
		query = query.Where("network = ?", network)
	}
	if err := query.OrderExpr("created_at ASC, name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	deployments := make([]*deployment.Deployment, len(daos))
	for i := range daos {
		deployments[i] = toDeployment(&daos[i])
	}
	return deployments, nil
}
