// Package devnet implements an in-memory development chain in the spirit of
// the Hardhat network: instant automining, time travel, snapshots and
// arbitrary state manipulation. Contracts are native Go implementations
// registered as artifacts instead of EVM bytecode.
package devnet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/internal/metrics"
	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
)

// Chain is a single-node development chain. It is safe for concurrent use.
type Chain struct {
	mu sync.RWMutex

	cfg      Config
	logger   *zap.Logger
	clock    Clock
	registry *native.Registry
	signer   types.Signer

	keys        map[common.Address]*ecdsa.PrivateKey
	devAccounts []common.Address

	w            *world
	impersonated map[common.Address]struct{}
	automine     bool

	snapshots    map[uint64]*world
	nextSnapshot uint64
}

// Transaction is a submitted transaction with its inclusion data. The block
// fields are nil while the transaction is pending.
type Transaction struct {
	Tx          *types.Transaction
	Hash        common.Hash
	From        common.Address
	BlockHash   *common.Hash
	BlockNumber *uint64
	Index       *uint
}

// New creates a chain with a genesis block funding cfg.Accounts.
func New(cfg Config, registry *native.Registry, logger *zap.Logger, opts ...Option) (*Chain, error) {
	cfg.setDefaults()
	if registry == nil {
		registry = native.NewRegistry()
	}

	c := &Chain{
		cfg:          cfg,
		logger:       logger,
		clock:        systemClock{},
		registry:     registry,
		signer:       types.LatestSignerForChainID(new(big.Int).SetUint64(cfg.ChainID)),
		keys:         make(map[common.Address]*ecdsa.PrivateKey),
		w:            newWorld(),
		impersonated: make(map[common.Address]struct{}),
		automine:     cfg.Automine,
		snapshots:    make(map[uint64]*world),
		nextSnapshot: 1,
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, ga := range cfg.Accounts {
		addr := ga.Address
		if ga.Key != nil {
			keyAddr := crypto.PubkeyToAddress(ga.Key.PublicKey)
			if addr != (common.Address{}) && addr != keyAddr {
				return nil, fmt.Errorf("genesis account %s does not match its key", addr.Hex())
			}
			addr = keyAddr
			c.keys[addr] = ga.Key
		}
		acc := c.w.account(addr)
		if ga.Balance != nil {
			acc.balance.Set(ga.Balance)
		}
		c.devAccounts = append(c.devAccounts, addr)
	}

	ts := cfg.GenesisTimestamp
	if ts == 0 {
		ts = uint64(c.clock.Now().Unix())
	}
	genesis := c.sealBlock(common.Hash{}, 0, ts, nil, nil)
	c.w.blocks = append(c.w.blocks, genesis)
	c.w.blockByHash[genesis.Hash] = genesis
	metrics.LatestBlock.Set(0)

	logger.Info("Devnet initialized",
		zap.Uint64("chain_id", cfg.ChainID),
		zap.Int("accounts", len(c.devAccounts)),
		zap.Bool("automine", c.automine),
		zap.String("genesis_hash", genesis.Hash.Hex()))

	return c, nil
}

// ChainID returns the EIP-155 chain id.
func (c *Chain) ChainID() *big.Int {
	return new(big.Int).SetUint64(c.cfg.ChainID)
}

// GasLimit returns the block gas limit.
func (c *Chain) GasLimit() uint64 { return c.cfg.GasLimit }

// BaseFee returns the constant base fee.
func (c *Chain) BaseFee() *big.Int { return new(big.Int).Set(c.cfg.BaseFee) }

// GasPrice returns the suggested legacy gas price.
func (c *Chain) GasPrice() *big.Int {
	return new(big.Int).Add(c.cfg.BaseFee, DefaultPriorityFee)
}

// Registry returns the artifacts this chain can deploy.
func (c *Chain) Registry() *native.Registry { return c.registry }

// Accounts returns the unlocked development accounts in derivation order.
func (c *Chain) Accounts() []common.Address {
	return append([]common.Address(nil), c.devAccounts...)
}

// BlockNumber returns the latest block number.
func (c *Chain) BlockNumber() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.w.latest().Number()
}

// LatestBlock returns the head block.
func (c *Chain) LatestBlock() *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.w.latest()
}

// BlockByNumber returns the block at height n.
func (c *Chain) BlockByNumber(n uint64) (*Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n >= uint64(len(c.w.blocks)) {
		return nil, false
	}
	return c.w.blocks[n], true
}

// BlockByHash returns the block with the given hash.
func (c *Chain) BlockByHash(hash common.Hash) (*Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.w.blockByHash[hash]
	return b, ok
}

// Balance returns the balance of addr.
func (c *Chain) Balance(addr common.Address) *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if acc, ok := c.w.accounts[addr]; ok {
		return new(big.Int).Set(acc.balance)
	}
	return new(big.Int)
}

// Nonce returns the confirmed nonce of addr.
func (c *Chain) Nonce(addr common.Address) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if acc, ok := c.w.accounts[addr]; ok {
		return acc.nonce
	}
	return 0
}

// PendingNonce returns the nonce the next transaction from addr must use.
func (c *Chain) PendingNonce(addr common.Address) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pendingNonce(addr)
}

// pendingNonce is the first nonce from the account nonce upwards that no
// queued transaction of addr holds, so a dropped transaction leaves a gap the
// next one fills.
func (c *Chain) pendingNonce(addr common.Address) uint64 {
	var nonce uint64
	if acc, ok := c.w.accounts[addr]; ok {
		nonce = acc.nonce
	}
	queued := make(map[uint64]struct{})
	for _, h := range c.w.pending {
		if rec := c.w.txs[h]; rec.from == addr {
			queued[rec.tx.Nonce()] = struct{}{}
		}
	}
	for {
		if _, ok := queued[nonce]; !ok {
			return nonce
		}
		nonce++
	}
}

// Code returns the code at addr.
func (c *Chain) Code(addr common.Address) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if acc, ok := c.w.accounts[addr]; ok {
		return common.CopyBytes(acc.code)
	}
	return nil
}

// StorageAt returns the value of a storage slot.
func (c *Chain) StorageAt(addr common.Address, slot common.Hash) common.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if acc, ok := c.w.accounts[addr]; ok {
		return acc.storage[slot]
	}
	return common.Hash{}
}

// Transaction looks up a pending or mined transaction.
func (c *Chain) Transaction(hash common.Hash) (*Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.w.txs[hash]
	if !ok {
		return nil, false
	}
	return rec.export(), true
}

// PendingTransactions returns the mempool in submission order.
func (c *Chain) PendingTransactions() []*Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Transaction, 0, len(c.w.pending))
	for _, h := range c.w.pending {
		out = append(out, c.w.txs[h].export())
	}
	return out
}

// Receipt returns the receipt of a mined transaction.
func (c *Chain) Receipt(hash common.Hash) (*types.Receipt, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.w.receipts[hash]
	return r, ok
}

// RevertData returns the revert data of a failed mined transaction.
func (c *Chain) RevertData(hash common.Hash) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.w.txs[hash]
	if !ok || !rec.mined {
		return nil, false
	}
	var rerr *native.RevertError
	if !errors.As(rec.err, &rerr) {
		return nil, false
	}
	return common.CopyBytes(rerr.Data), true
}

func (r *txRecord) export() *Transaction {
	t := &Transaction{Tx: r.tx, Hash: r.hash, From: r.from}
	if r.mined {
		bh, bn, idx := r.blockHash, r.blockNumber, r.index
		t.BlockHash, t.BlockNumber, t.Index = &bh, &bn, &idx
	}
	return t
}
