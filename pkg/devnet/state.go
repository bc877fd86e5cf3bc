package devnet

import (
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
)

type account struct {
	balance *big.Int
	nonce   uint64
	code    []byte
	storage map[common.Hash]common.Hash
}

func (a *account) copy() *account {
	return &account{
		balance: new(big.Int).Set(a.balance),
		nonce:   a.nonce,
		code:    a.code,
		storage: maps.Clone(a.storage),
	}
}

// txRecord tracks a submitted transaction. The block fields are set once the
// transaction is mined.
type txRecord struct {
	tx   *types.Transaction
	hash common.Hash
	from common.Address

	mined       bool
	blockHash   common.Hash
	blockNumber uint64
	index       uint
	// err is the execution failure of a mined transaction, nil on success.
	err error
}

// Block is a mined block.
type Block struct {
	Header       *types.Header
	Hash         common.Hash
	Transactions []common.Hash
}

// Number returns the block number.
func (b *Block) Number() uint64 { return b.Header.Number.Uint64() }

// Time returns the block timestamp.
func (b *Block) Time() uint64 { return b.Header.Time }

// world is everything a snapshot captures.
type world struct {
	accounts  map[common.Address]*account
	contracts map[common.Address]native.Contract

	blocks      []*Block
	blockByHash map[common.Hash]*Block
	txs         map[common.Hash]*txRecord
	receipts    map[common.Hash]*types.Receipt
	pending     []common.Hash

	timeOffset    int64
	nextTimestamp *uint64
}

func newWorld() *world {
	return &world{
		accounts:    make(map[common.Address]*account),
		contracts:   make(map[common.Address]native.Contract),
		blockByHash: make(map[common.Hash]*Block),
		txs:         make(map[common.Hash]*txRecord),
		receipts:    make(map[common.Hash]*types.Receipt),
	}
}

// copy returns a deep copy. Mined blocks and receipts are immutable and shared.
func (w *world) copy() *world {
	cp := &world{
		accounts:    make(map[common.Address]*account, len(w.accounts)),
		contracts:   make(map[common.Address]native.Contract, len(w.contracts)),
		blocks:      append([]*Block(nil), w.blocks...),
		blockByHash: maps.Clone(w.blockByHash),
		txs:         make(map[common.Hash]*txRecord, len(w.txs)),
		receipts:    maps.Clone(w.receipts),
		pending:     append([]common.Hash(nil), w.pending...),
		timeOffset:  w.timeOffset,
	}
	for addr, acc := range w.accounts {
		cp.accounts[addr] = acc.copy()
	}
	for addr, c := range w.contracts {
		cp.contracts[addr] = c.Copy()
	}
	for h, rec := range w.txs {
		r := *rec
		cp.txs[h] = &r
	}
	if w.nextTimestamp != nil {
		ts := *w.nextTimestamp
		cp.nextTimestamp = &ts
	}
	return cp
}

// account returns the account at addr, creating an empty one if needed.
func (w *world) account(addr common.Address) *account {
	acc, ok := w.accounts[addr]
	if !ok {
		acc = &account{balance: new(big.Int), storage: make(map[common.Hash]common.Hash)}
		w.accounts[addr] = acc
	}
	return acc
}

func (w *world) latest() *Block {
	return w.blocks[len(w.blocks)-1]
}

func (w *world) pendingFrom(addr common.Address) uint64 {
	var n uint64
	for _, h := range w.pending {
		if w.txs[h].from == addr {
			n++
		}
	}
	return n
}

func (w *world) removePending(hash common.Hash) bool {
	for i, h := range w.pending {
		if h == hash {
			w.pending = append(w.pending[:i], w.pending[i+1:]...)
			return true
		}
	}
	return false
}
