package deploystore

import (
	"context"
	"sort"
	"sync"

	"github.com/chainsafe/counter-devnet/pkg/deployment"
)

type key struct {
	network string
	name    string
}

type memoryStore struct {
	mu          sync.RWMutex
	deployments map[key]*deployment.Deployment
}

// NewMemoryStore creates a store that lives as long as the process
func NewMemoryStore() Store {
	return &memoryStore{deployments: make(map[key]*deployment.Deployment)}
}

func (s *memoryStore) Save(_ context.Context, d *deployment.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{d.Network, d.Name}
	if existing, ok := s.deployments[k]; ok {
		// a replaced record keeps its original id
		d.ID = existing.ID
	}
	cp := *d
	cp.Args = append([]string(nil), d.Args...)
	s.deployments[k] = &cp
	return nil
}

func (s *memoryStore) Get(_ context.Context, network, name string) (*deployment.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deployments[key{network, name}]
	if !ok {
		return nil, ErrDeploymentNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *memoryStore) List(_ context.Context, network string) ([]*deployment.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*deployment.Deployment, 0, len(s.deployments))
	for k, d := range s.deployments {
		if network != "" && k.network != network {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
