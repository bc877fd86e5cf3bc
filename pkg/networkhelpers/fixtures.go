package networkhelpers

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrAnonymousFixture is returned by LoadFixture when no fixture name is given
var ErrAnonymousFixture = errors.New("fixtures must be named")

// FixtureFunc sets up state on the node and returns whatever the test needs
type FixtureFunc[T any] func(ctx context.Context) (T, error)

type fixture struct {
	name     string
	snapshot *Snapshot
	data     any
}

// Fixtures caches fixture results together with a snapshot of the node state
// they produced
type Fixtures struct {
	c *Client

	mu       sync.Mutex
	fixtures []*fixture
}

// NewFixtures creates an empty fixture cache
func (c *Client) NewFixtures() *Fixtures {
	return &Fixtures{c: c}
}

// LoadFixture runs fn the first time name is loaded and snapshots the
// resulting state. Later loads restore that snapshot and return the cached
// result. Fixtures loaded after the restored one are forgotten, since their
// snapshots no longer exist on the node.
func LoadFixture[T any](ctx context.Context, f *Fixtures, name string, fn FixtureFunc[T]) (T, error) {
	var zero T
	if name == "" {
		return zero, ErrAnonymousFixture
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i, fx := range f.fixtures {
		if fx.name != name {
			continue
		}
		if err := fx.snapshot.Restore(ctx); err != nil {
			return zero, fmt.Errorf("restore fixture %s: %w", name, err)
		}
		f.fixtures = f.fixtures[:i+1]

		data, ok := fx.data.(T)
		if !ok {
			return zero, fmt.Errorf("fixture %s holds %T", name, fx.data)
		}
		return data, nil
	}

	data, err := fn(ctx)
	if err != nil {
		return zero, fmt.Errorf("run fixture %s: %w", name, err)
	}
	snapshot, err := f.c.TakeSnapshot(ctx)
	if err != nil {
		return zero, err
	}
	f.fixtures = append(f.fixtures, &fixture{name: name, snapshot: snapshot, data: data})
	return data, nil
}

// Reset forgets every cached fixture
func (f *Fixtures) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixtures = nil
}
