// Package ethereum signs and tracks transactions against a JSON-RPC node
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/counter"
)

// DefaultPollInterval is how often confirmations and events are polled
const DefaultPollInterval = 500 * time.Millisecond

// ErrTransactionFailed is returned when a mined transaction has status 0
var ErrTransactionFailed = errors.New("transaction failed")

// Backend is the node surface used to deploy and call contracts.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Client represents an Ethereum client
type Client struct {
	backend Backend
	chainID *big.Int
	logger  *zap.Logger

	gasLimit     uint64
	maxGasPrice  *big.Int
	pollInterval time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithGasLimit fixes the gas limit of every transaction instead of estimating it
func WithGasLimit(limit uint64) Option {
	return func(c *Client) { c.gasLimit = limit }
}

// WithMaxGasPrice caps the suggested gas price
func WithMaxGasPrice(price *big.Int) Option {
	return func(c *Client) { c.maxGasPrice = price }
}

// WithPollInterval sets the polling interval used while waiting
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// NewClient creates a new Ethereum client over backend
func NewClient(ctx context.Context, backend Backend, logger *zap.Logger, opts ...Option) (*Client, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	c := &Client{
		backend:      backend,
		chainID:      chainID,
		logger:       logger,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Backend returns the underlying node connection
func (c *Client) Backend() Backend {
	return c.backend
}

// ChainID returns the chain id reported by the node
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// GetTransactor returns a transaction signer for key
func (c *Client) GetTransactor(ctx context.Context, key *ecdsa.PrivateKey) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	nonce, err := c.backend.PendingNonceAt(ctx, crypto.PubkeyToAddress(key.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.GasLimit = c.gasLimit

	if c.maxGasPrice != nil {
		gasPrice, err := c.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas price: %w", err)
		}

		if gasPrice.Cmp(c.maxGasPrice) > 0 {
			c.logger.Warn("Suggested gas price exceeds maximum",
				zap.String("suggested", gasPrice.String()),
				zap.String("max", c.maxGasPrice.String()))
			auth.GasPrice = new(big.Int).Set(c.maxGasPrice)
		} else {
			auth.GasPrice = gasPrice
		}
	}

	return auth, nil
}

// GetLatestBlockNumber gets the latest block number
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	number, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return number, nil
}

// HasCode reports whether address carries contract code
func (c *Client) HasCode(ctx context.Context, address common.Address) (bool, error) {
	code, err := c.backend.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("failed to get code at %s: %w", address.Hex(), err)
	}
	return len(code) > 0, nil
}

// DeployContract signs and sends a creation transaction for a contract
func (c *Client) DeployContract(ctx context.Context, key *ecdsa.PrivateKey, contractABI abi.ABI, bytecode []byte, params ...interface{}) (common.Address, *types.Transaction, error) {
	auth, err := c.GetTransactor(ctx, key)
	if err != nil {
		return common.Address{}, nil, err
	}

	address, tx, _, err := bind.DeployContract(auth, contractABI, bytecode, c.backend, params...)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to submit deployment transaction: %w", err)
	}

	c.logger.Info("Deployment transaction submitted",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.String("address", address.Hex()),
		zap.Uint64("nonce", tx.Nonce()))

	return address, tx, nil
}

// WaitMined waits for tx to be mined and for confirmations blocks to exist
// on top of and including its block. A failed transaction returns its
// receipt together with ErrTransactionFailed.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction, confirmations uint64) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrTransactionFailed, tx.Hash().Hex())
	}
	if confirmations <= 1 {
		return receipt, nil
	}

	target := receipt.BlockNumber.Uint64() + confirmations - 1
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		latest, err := c.GetLatestBlockNumber(ctx)
		if err != nil {
			return nil, err
		}
		if latest >= target {
			return receipt, nil
		}

		c.logger.Debug("Waiting for confirmations",
			zap.String("tx_hash", tx.Hash().Hex()),
			zap.Uint64("latest", latest),
			zap.Uint64("target", target))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Counter binds the Counter deployed at address
func (c *Client) Counter(address common.Address) *counter.Binding {
	return counter.NewBinding(address, c.backend)
}

// WatchCounterEvents polls for events of the Counter at address (uses
// polling for HTTP RPC compatibility). It returns when ctx is done.
func (c *Client) WatchCounterEvents(ctx context.Context, address common.Address, fromBlock uint64, handler func(counter.Event, types.Log) error) error {
	c.logger.Info("Starting counter event poller",
		zap.String("address", address.Hex()),
		zap.Uint64("from_block", fromBlock))

	next := fromBlock
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			latestBlock, err := c.GetLatestBlockNumber(ctx)
			if err != nil {
				c.logger.Warn("Failed to get latest block", zap.Error(err))
				continue
			}
			if latestBlock < next {
				continue
			}

			logs, err := c.backend.FilterLogs(ctx, ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(next),
				ToBlock:   new(big.Int).SetUint64(latestBlock),
				Addresses: []common.Address{address},
			})
			if err != nil {
				c.logger.Warn("Failed to filter counter events", zap.Error(err))
				continue
			}

			for _, l := range logs {
				ev, err := counter.ParseEvent(&l)
				if err != nil {
					c.logger.Warn("Skipping unknown log",
						zap.Error(err),
						zap.String("tx_hash", l.TxHash.Hex()))
					continue
				}
				if err := handler(ev, l); err != nil {
					c.logger.Error("Failed to handle counter event",
						zap.Error(err),
						zap.String("tx_hash", l.TxHash.Hex()))
				}
			}

			next = latestBlock + 1
		}
	}
}
