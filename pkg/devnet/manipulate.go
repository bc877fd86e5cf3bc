package devnet

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/internal/metrics"
)

// SetBalance overwrites the balance of addr.
func (c *Chain) SetBalance(addr common.Address, balance *big.Int) error {
	if balance == nil || balance.Sign() < 0 {
		return fmt.Errorf("invalid balance %v", balance)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.account(addr).balance.Set(balance)
	metrics.StateOperations.WithLabelValues("set_balance").Inc()
	return nil
}

// SetCode replaces the code at addr. Any native contract bound to the address
// is unbound unless the code is unchanged.
func (c *Chain) SetCode(addr common.Address, code []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	acc := c.w.account(addr)
	if !bytes.Equal(acc.code, code) {
		delete(c.w.contracts, addr)
	}
	acc.code = common.CopyBytes(code)
	metrics.StateOperations.WithLabelValues("set_code").Inc()
}

// SetNonce raises the nonce of an account without pending transactions.
func (c *Chain) SetNonce(addr common.Address, nonce uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w.pendingFrom(addr) > 0 {
		return ErrNonceWithPending
	}
	acc := c.w.account(addr)
	if nonce < acc.nonce {
		return fmt.Errorf("%w: %d < %d", ErrNonceDecrease, nonce, acc.nonce)
	}
	acc.nonce = nonce
	metrics.StateOperations.WithLabelValues("set_nonce").Inc()
	return nil
}

// SetStorageAt writes a storage slot.
func (c *Chain) SetStorageAt(addr common.Address, slot, value common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()

	acc := c.w.account(addr)
	if value == (common.Hash{}) {
		delete(acc.storage, slot)
	} else {
		acc.storage[slot] = value
	}
	metrics.StateOperations.WithLabelValues("set_storage_at").Inc()
}

// ImpersonateAccount lets SendMessage send from addr without its key.
func (c *Chain) ImpersonateAccount(addr common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.impersonated[addr] = struct{}{}
	metrics.StateOperations.WithLabelValues("impersonate").Inc()
}

// StopImpersonatingAccount reverses ImpersonateAccount. It reports whether
// addr was impersonated.
func (c *Chain) StopImpersonatingAccount(addr common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.impersonated[addr]
	delete(c.impersonated, addr)
	return ok
}

// IsImpersonated reports whether addr is impersonated.
func (c *Chain) IsImpersonated(addr common.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.impersonated[addr]
	return ok
}

// DropTransaction removes a pending transaction. It reports false for unknown
// hashes and fails for mined transactions.
func (c *Chain) DropTransaction(hash common.Hash) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.w.txs[hash]
	if !ok {
		return false, nil
	}
	if rec.mined {
		return false, fmt.Errorf("%w: %s", ErrTxAlreadyMined, hash.Hex())
	}
	c.w.removePending(hash)
	delete(c.w.txs, hash)
	metrics.PendingTransactions.Set(float64(len(c.w.pending)))
	metrics.StateOperations.WithLabelValues("drop_transaction").Inc()
	return true, nil
}

// Snapshot captures the full chain state and returns its id. Ids start at 1
// and increase.
func (c *Chain) Snapshot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSnapshot
	c.nextSnapshot++
	c.snapshots[id] = c.w.copy()
	metrics.StateOperations.WithLabelValues("snapshot").Inc()

	c.logger.Debug("Snapshot taken",
		zap.Uint64("id", id),
		zap.Uint64("block", c.w.latest().Number()))
	return id
}

// Revert restores the state captured by snapshot id. The id and every later
// one become invalid. It returns false for unknown ids.
func (c *Chain) Revert(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[id]
	if !ok {
		return false
	}
	for sid := range c.snapshots {
		if sid >= id {
			delete(c.snapshots, sid)
		}
	}
	c.w = snap
	metrics.StateOperations.WithLabelValues("revert").Inc()
	metrics.LatestBlock.Set(float64(c.w.latest().Number()))
	metrics.PendingTransactions.Set(float64(len(c.w.pending)))

	c.logger.Debug("Reverted to snapshot",
		zap.Uint64("id", id),
		zap.Uint64("block", c.w.latest().Number()))
	return true
}
