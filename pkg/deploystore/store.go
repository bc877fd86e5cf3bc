// Package deploystore persists deployment records
package deploystore

import (
	"context"
	"errors"

	"github.com/chainsafe/counter-devnet/pkg/deployment"
)

// ErrDeploymentNotFound is returned when no deployment matches a lookup
var ErrDeploymentNotFound = errors.New("deployment not found")

// Store defines deployment persistence. A deployment is keyed by network and
// name; saving an existing key replaces the record.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	Save(ctx context.Context, d *deployment.Deployment) error
	Get(ctx context.Context, network, name string) (*deployment.Deployment, error)
	// List returns deployments ordered by creation time. An empty network
	// lists every network.
	List(ctx context.Context, network string) ([]*deployment.Deployment, error)
}
