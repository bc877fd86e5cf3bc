package devnet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/internal/metrics"
	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
)

// MaxMineBlocks bounds a single Mine call.
const MaxMineBlocks = 100_000

// Mine mines blocks blocks and returns the new head. The first block uses the
// regular next timestamp; each following block is interval seconds after its
// parent. Pending transactions are included as long as they fit the block gas
// limit.
func (c *Chain) Mine(blocks, interval uint64) (*Block, error) {
	if blocks == 0 {
		return nil, ErrInvalidBlockCount
	}
	if blocks > MaxMineBlocks {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyBlocks, blocks, MaxMineBlocks)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var head *Block
	ts := c.nextTimestamp()
	for i := uint64(0); i < blocks; i++ {
		if i > 0 {
			ts += interval
		}
		head = c.mineBlock(ts)
	}
	if blocks > 1 {
		c.w.timeOffset = int64(ts) - c.clock.Now().Unix()
	}
	return head, nil
}

// MineUpTo mines until the latest block number is n.
func (c *Chain) MineUpTo(n uint64) (*Block, error) {
	latest := c.BlockNumber()
	if n <= latest {
		return nil, fmt.Errorf("%w: %d <= %d", ErrBlockInPast, n, latest)
	}
	return c.Mine(n-latest, 1)
}

// MineAt mines one block. A non-nil timestamp must be after the latest block
// and moves the chain clock to it.
func (c *Chain) MineAt(timestamp *uint64) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timestamp == nil {
		return c.mineBlock(c.nextTimestamp()), nil
	}
	if latest := c.w.latest().Time(); *timestamp <= latest {
		return nil, fmt.Errorf("%w: %d <= %d", ErrTimestampTooLow, *timestamp, latest)
	}
	c.w.nextTimestamp = nil
	c.w.timeOffset = int64(*timestamp) - c.clock.Now().Unix()
	return c.mineBlock(*timestamp), nil
}

// IncreaseTime moves the chain clock forward and returns the total offset
// from wall-clock time in seconds.
func (c *Chain) IncreaseTime(seconds uint64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.w.timeOffset += int64(seconds)
	metrics.StateOperations.WithLabelValues("increase_time").Inc()
	return c.w.timeOffset
}

// TimeOffset returns the offset from wall-clock time in seconds.
func (c *Chain) TimeOffset() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.w.timeOffset
}

// SetNextBlockTimestamp pins the timestamp of the next mined block.
func (c *Chain) SetNextBlockTimestamp(ts uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if latest := c.w.latest().Time(); ts <= latest {
		return fmt.Errorf("%w: %d <= %d", ErrTimestampTooLow, ts, latest)
	}
	c.w.nextTimestamp = &ts
	metrics.StateOperations.WithLabelValues("set_next_block_timestamp").Inc()
	return nil
}

// Automine reports whether every transaction is mined on submission.
func (c *Chain) Automine() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.automine
}

// SetAutomine toggles automining. Turning it on does not mine the mempool.
func (c *Chain) SetAutomine(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.automine = enabled
}

// nextTimestamp consumes a pinned timestamp or derives one from the clock.
func (c *Chain) nextTimestamp() uint64 {
	ts := c.peekTimestamp()
	if c.w.nextTimestamp != nil {
		c.w.nextTimestamp = nil
		c.w.timeOffset = int64(ts) - c.clock.Now().Unix()
	}
	return ts
}

// mineBlock seals one block at ts from the mempool. Callers hold c.mu.
func (c *Chain) mineBlock(ts uint64) *Block {
	parent := c.w.latest()
	number := parent.Number() + 1
	env := native.CallContext{BlockNumber: number, Timestamp: ts}

	var (
		included  []*txRecord
		txs       types.Transactions
		receipts  types.Receipts
		remaining []common.Hash
		gasUsed   uint64
		logIndex  uint
	)
	// A queued transaction waiting on an earlier nonce can become applicable
	// within the same block, so sweep until a pass includes nothing.
	queue := c.w.pending
	for progress := true; progress && len(queue) > 0; {
		progress = false
		var waiting []common.Hash
		for _, h := range queue {
			rec := c.w.txs[h]
			if gasUsed+rec.tx.Gas() > c.cfg.GasLimit {
				remaining = append(remaining, h)
				continue
			}
			ex, err := c.apply(rec, env)
			if errors.Is(err, ErrNonceTooHigh) {
				waiting = append(waiting, h)
				continue
			}
			if err != nil {
				delete(c.w.txs, h)
				metrics.RejectedTransactions.WithLabelValues("stale").Inc()
				c.logger.Warn("Dropping transaction that no longer applies",
					zap.String("hash", h.Hex()),
					zap.String("from", rec.from.Hex()),
					zap.Error(err))
				continue
			}
			progress = true

			gasUsed += ex.gasUsed
			index := uint(len(included))
			receipt := &types.Receipt{
				Type:              rec.tx.Type(),
				Status:            types.ReceiptStatusSuccessful,
				CumulativeGasUsed: gasUsed,
				Logs:              []*types.Log{},
				TxHash:            h,
				GasUsed:           ex.gasUsed,
				EffectiveGasPrice: ex.price,
				BlockNumber:       new(big.Int).SetUint64(number),
				TransactionIndex:  index,
			}
			status := "success"
			if ex.err != nil {
				receipt.Status = types.ReceiptStatusFailed
				status = "reverted"
			}
			if ex.contract != nil {
				receipt.ContractAddress = *ex.contract
			}
			for _, l := range ex.logs {
				l.BlockNumber = number
				l.TxHash = h
				l.TxIndex = index
				l.Index = logIndex
				logIndex++
				receipt.Logs = append(receipt.Logs, l)
			}
			receipt.Bloom = types.CreateBloom(receipt)

			rec.mined = true
			rec.blockNumber = number
			rec.index = index
			rec.err = ex.err

			included = append(included, rec)
			txs = append(txs, rec.tx)
			receipts = append(receipts, receipt)

			metrics.Transactions.WithLabelValues(ex.kind, status).Inc()
			metrics.GasUsed.WithLabelValues(ex.kind).Observe(float64(ex.gasUsed))
		}
		queue = waiting
	}
	remaining = append(remaining, queue...)
	c.w.pending = remaining

	block := c.sealBlock(parent.Hash, number, ts, txs, receipts)
	for i, rec := range included {
		rec.blockHash = block.Hash
		block.Transactions = append(block.Transactions, rec.hash)
		receipts[i].BlockHash = block.Hash
		for _, l := range receipts[i].Logs {
			l.BlockHash = block.Hash
		}
		c.w.receipts[rec.hash] = receipts[i]
	}
	c.w.blocks = append(c.w.blocks, block)
	c.w.blockByHash[block.Hash] = block

	metrics.BlocksMined.Inc()
	metrics.LatestBlock.Set(float64(number))
	metrics.PendingTransactions.Set(float64(len(c.w.pending)))

	c.logger.Debug("Mined block",
		zap.Uint64("number", number),
		zap.String("hash", block.Hash.Hex()),
		zap.Uint64("timestamp", ts),
		zap.Int("txs", len(included)),
		zap.Uint64("gas_used", gasUsed))

	return block
}

func (c *Chain) sealBlock(parent common.Hash, number, ts uint64, txs types.Transactions, receipts types.Receipts) *Block {
	header := &types.Header{
		ParentHash:  parent,
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    c.cfg.Coinbase,
		Root:        types.EmptyRootHash,
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  new(big.Int),
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    c.cfg.GasLimit,
		Time:        ts,
		Extra:       []byte{},
		BaseFee:     new(big.Int).Set(c.cfg.BaseFee),
	}
	if len(txs) > 0 {
		header.TxHash = types.DeriveSha(txs, trie.NewStackTrie(nil))
		header.ReceiptHash = types.DeriveSha(receipts, trie.NewStackTrie(nil))
	}
	for _, r := range receipts {
		header.GasUsed = r.CumulativeGasUsed
		for i := range header.Bloom {
			header.Bloom[i] |= r.Bloom[i]
		}
	}
	return &Block{Header: header, Hash: header.Hash()}
}
