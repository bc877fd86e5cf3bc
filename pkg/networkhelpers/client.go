// Package networkhelpers drives a development node through its hardhat_* and
// evm_* JSON-RPC methods.
package networkhelpers

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

var (
	// ErrInvalidBlockCount is returned when asked to mine zero blocks
	ErrInvalidBlockCount = errors.New("number of blocks must be greater than 0")
	// ErrBlockInPast is returned by MineUpTo for targets at or below the latest block
	ErrBlockInPast = errors.New("the block number must be greater than the current block number")
	// ErrTimestampNotIncreasing is returned for timestamps at or below the latest block's
	ErrTimestampNotIncreasing = errors.New("timestamp must be greater than the latest block timestamp")
	// ErrInvalidSeconds is returned when time is moved by zero seconds
	ErrInvalidSeconds = errors.New("amount of seconds must be greater than 0")
	// ErrInvalidSnapshot is returned when a snapshot can no longer be restored
	ErrInvalidSnapshot = errors.New("trying to restore an invalid snapshot")
)

// Client wraps an RPC connection to a development node
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger

	// Time manipulates the block clock
	Time *Time
}

// New creates a helper client over an existing RPC connection
func New(client *rpc.Client, logger *zap.Logger) *Client {
	c := &Client{rpc: client, logger: logger}
	c.Time = &Time{c: c}
	return c
}

// RPC returns the underlying connection
func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

type mineOptions struct {
	interval uint64
}

// MineOption configures Mine
type MineOption func(*mineOptions)

// WithInterval sets the seconds between consecutive mined blocks
func WithInterval(seconds uint64) MineOption {
	return func(o *mineOptions) {
		o.interval = seconds
	}
}

// Mine mines blocks blocks, one second apart unless WithInterval says otherwise
func (c *Client) Mine(ctx context.Context, blocks uint64, opts ...MineOption) error {
	if blocks == 0 {
		return ErrInvalidBlockCount
	}
	o := mineOptions{interval: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if err := c.call(ctx, nil, "hardhat_mine", hexutil.Uint64(blocks), hexutil.Uint64(o.interval)); err != nil {
		return err
	}
	c.logger.Debug("Mined blocks",
		zap.Uint64("blocks", blocks),
		zap.Uint64("interval", o.interval))
	return nil
}

// MineUpTo mines until the latest block number equals target
func (c *Client) MineUpTo(ctx context.Context, target uint64) error {
	latest, err := c.Time.LatestBlock(ctx)
	if err != nil {
		return err
	}
	if target <= latest {
		return fmt.Errorf("%w: %d <= %d", ErrBlockInPast, target, latest)
	}
	return c.call(ctx, nil, "hardhat_mine", hexutil.Uint64(target-latest))
}

// SetBalance overwrites the balance of addr in wei
func (c *Client) SetBalance(ctx context.Context, addr common.Address, balance *big.Int) error {
	return c.call(ctx, nil, "hardhat_setBalance", addr, (*hexutil.Big)(balance))
}

// SetCode replaces the code stored at addr
func (c *Client) SetCode(ctx context.Context, addr common.Address, code []byte) error {
	return c.call(ctx, nil, "hardhat_setCode", addr, hexutil.Bytes(code))
}

// SetNonce sets the nonce of addr
func (c *Client) SetNonce(ctx context.Context, addr common.Address, nonce uint64) error {
	return c.call(ctx, nil, "hardhat_setNonce", addr, hexutil.Uint64(nonce))
}

// SetStorageAt writes a 32-byte word to a storage slot of addr
func (c *Client) SetStorageAt(ctx context.Context, addr common.Address, slot *big.Int, value common.Hash) error {
	return c.call(ctx, nil, "hardhat_setStorageAt", addr, (*hexutil.Big)(slot), hexutil.Bytes(value.Bytes()))
}

// ImpersonateAccount lets the node send transactions from addr without its key
func (c *Client) ImpersonateAccount(ctx context.Context, addr common.Address) error {
	return c.call(ctx, nil, "hardhat_impersonateAccount", addr)
}

// StopImpersonatingAccount undoes ImpersonateAccount
func (c *Client) StopImpersonatingAccount(ctx context.Context, addr common.Address) error {
	return c.call(ctx, nil, "hardhat_stopImpersonatingAccount", addr)
}

// DropTransaction removes a pending transaction from the mempool. It reports
// whether the transaction was known.
func (c *Client) DropTransaction(ctx context.Context, hash common.Hash) (bool, error) {
	var dropped bool
	if err := c.rpc.CallContext(ctx, &dropped, "hardhat_dropTransaction", hash); err != nil {
		return false, fmt.Errorf("hardhat_dropTransaction: %w", err)
	}
	return dropped, nil
}

// call invokes method and, when result is nil, expects the node to report success
func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if result != nil {
		if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		return nil
	}

	var ok bool
	if err := c.rpc.CallContext(ctx, &ok, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if !ok {
		return fmt.Errorf("%s: node returned false", method)
	}
	return nil
}
