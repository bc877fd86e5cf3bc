package devnet

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FilterLogs returns the logs matching q. A nil FromBlock means genesis and a
// nil ToBlock means the latest block; both must be non-negative.
func (c *Chain) FilterLogs(q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var blocks []*Block
	if q.BlockHash != nil {
		b, ok := c.w.blockByHash[*q.BlockHash]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, q.BlockHash.Hex())
		}
		blocks = []*Block{b}
	} else {
		latest := c.w.latest().Number()
		from, to := uint64(0), latest
		if q.FromBlock != nil {
			if q.FromBlock.Sign() < 0 {
				return nil, fmt.Errorf("invalid from block %s", q.FromBlock)
			}
			from = q.FromBlock.Uint64()
		}
		if q.ToBlock != nil {
			if q.ToBlock.Sign() < 0 {
				return nil, fmt.Errorf("invalid to block %s", q.ToBlock)
			}
			to = min(q.ToBlock.Uint64(), latest)
		}
		if from > to {
			return []types.Log{}, nil
		}
		blocks = c.w.blocks[from : to+1]
	}

	logs := []types.Log{}
	for _, b := range blocks {
		for _, h := range b.Transactions {
			for _, l := range c.w.receipts[h].Logs {
				if matchLog(l, q.Addresses, q.Topics) {
					logs = append(logs, *l)
				}
			}
		}
	}
	return logs, nil
}

func matchLog(l *types.Log, addresses []common.Address, topics [][]common.Hash) bool {
	if len(addresses) > 0 && !slices.Contains(addresses, l.Address) {
		return false
	}
	for i, set := range topics {
		if len(set) == 0 {
			continue
		}
		if i >= len(l.Topics) || !slices.Contains(set, l.Topics[i]) {
			return false
		}
	}
	return true
}
