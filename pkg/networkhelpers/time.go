package networkhelpers

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Time reads and moves the block clock of the node
type Time struct {
	c *Client
}

// Latest returns the timestamp of the latest block
func (t *Time) Latest(ctx context.Context) (uint64, error) {
	var head struct {
		Timestamp hexutil.Uint64 `json:"timestamp"`
	}
	if err := t.c.rpc.CallContext(ctx, &head, "eth_getBlockByNumber", "latest", false); err != nil {
		return 0, fmt.Errorf("eth_getBlockByNumber: %w", err)
	}
	return uint64(head.Timestamp), nil
}

// LatestBlock returns the latest block number
func (t *Time) LatestBlock(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := t.c.rpc.CallContext(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return uint64(n), nil
}

// Increase mines a block seconds after the latest one and returns its timestamp
func (t *Time) Increase(ctx context.Context, seconds uint64) (uint64, error) {
	if seconds == 0 {
		return 0, ErrInvalidSeconds
	}
	latest, err := t.Latest(ctx)
	if err != nil {
		return 0, err
	}
	target := latest + seconds
	if err := t.setNext(ctx, target); err != nil {
		return 0, err
	}
	if err := t.c.Mine(ctx, 1); err != nil {
		return 0, err
	}
	return target, nil
}

// IncreaseTo mines a block with the given timestamp
func (t *Time) IncreaseTo(ctx context.Context, timestamp uint64) error {
	if err := t.SetNextBlockTimestamp(ctx, timestamp); err != nil {
		return err
	}
	return t.c.Mine(ctx, 1)
}

// SetNextBlockTimestamp fixes the timestamp of the next block without mining it
func (t *Time) SetNextBlockTimestamp(ctx context.Context, timestamp uint64) error {
	latest, err := t.Latest(ctx)
	if err != nil {
		return err
	}
	if timestamp <= latest {
		return fmt.Errorf("%w: %d <= %d", ErrTimestampNotIncreasing, timestamp, latest)
	}
	return t.setNext(ctx, timestamp)
}

func (t *Time) setNext(ctx context.Context, timestamp uint64) error {
	return t.c.call(ctx, nil, "evm_setNextBlockTimestamp", hexutil.Uint64(timestamp))
}
