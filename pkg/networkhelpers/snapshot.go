package networkhelpers

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Snapshot is a restorable point in the node's state
type Snapshot struct {
	c  *Client
	id hexutil.Uint64
}

// TakeSnapshot captures the current node state
func (c *Client) TakeSnapshot(ctx context.Context) (*Snapshot, error) {
	s := &Snapshot{c: c}
	if err := s.take(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the node-side id of the snapshot
func (s *Snapshot) ID() uint64 {
	return uint64(s.id)
}

// Restore reverts the node to the snapshot. The snapshot is retaken right
// away, so it can be restored again later.
func (s *Snapshot) Restore(ctx context.Context) error {
	var reverted bool
	if err := s.c.rpc.CallContext(ctx, &reverted, "evm_revert", s.id); err != nil {
		return fmt.Errorf("evm_revert: %w", err)
	}
	if !reverted {
		return fmt.Errorf("%w: %d", ErrInvalidSnapshot, s.id)
	}
	s.c.logger.Debug("Snapshot restored", zap.Uint64("id", uint64(s.id)))
	return s.take(ctx)
}

func (s *Snapshot) take(ctx context.Context) error {
	var id hexutil.Uint64
	if err := s.c.rpc.CallContext(ctx, &id, "evm_snapshot"); err != nil {
		return fmt.Errorf("evm_snapshot: %w", err)
	}
	s.id = id
	return nil
}
