package ethrpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/devnet"
)

// EthAPI implements the eth_* JSON-RPC namespace
type EthAPI struct {
	server *Server
}

// NewEthAPI creates a new EthAPI instance
func NewEthAPI(server *Server) *EthAPI {
	return &EthAPI{server: server}
}

// ChainId returns the chain ID (EIP-155)
func (api *EthAPI) ChainId() *hexutil.Big {
	return (*hexutil.Big)(api.server.chain.ChainID())
}

// BlockNumber returns the latest block number
func (api *EthAPI) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(api.server.chain.BlockNumber())
}

// Accounts returns the unlocked development accounts
func (api *EthAPI) Accounts() []common.Address {
	return api.server.chain.Accounts()
}

// GasPrice returns the current gas price
func (api *EthAPI) GasPrice() *hexutil.Big {
	return (*hexutil.Big)(api.server.chain.GasPrice())
}

// MaxPriorityFeePerGas returns the suggested priority fee (EIP-1559)
func (api *EthAPI) MaxPriorityFeePerGas() *hexutil.Big {
	return (*hexutil.Big)(new(big.Int).Set(devnet.DefaultPriorityFee))
}

// Syncing returns false (always synced)
func (api *EthAPI) Syncing() (interface{}, error) {
	return false, nil
}

// GetBalance returns the balance of an address
func (api *EthAPI) GetBalance(ctx context.Context, address common.Address, blockNrOrHash *rpc.BlockNumberOrHash) (*hexutil.Big, error) {
	if err := api.checkState(blockNrOrHash); err != nil {
		return nil, err
	}
	return (*hexutil.Big)(api.server.chain.Balance(address)), nil
}

// GetTransactionCount returns the nonce for an address. The pending tag
// includes queued transactions.
func (api *EthAPI) GetTransactionCount(ctx context.Context, address common.Address, blockNrOrHash *rpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	if blockNrOrHash != nil {
		if n, ok := blockNrOrHash.Number(); ok && n == rpc.PendingBlockNumber {
			return hexutil.Uint64(api.server.chain.PendingNonce(address)), nil
		}
	}
	if err := api.checkState(blockNrOrHash); err != nil {
		return 0, err
	}
	return hexutil.Uint64(api.server.chain.Nonce(address)), nil
}

// GetCode returns the code at an address
func (api *EthAPI) GetCode(ctx context.Context, address common.Address, blockNrOrHash *rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	if err := api.checkState(blockNrOrHash); err != nil {
		return nil, err
	}
	code := api.server.chain.Code(address)
	if code == nil {
		code = []byte{}
	}
	return code, nil
}

// GetStorageAt returns a storage slot of an address
func (api *EthAPI) GetStorageAt(ctx context.Context, address common.Address, slot Quantity, blockNrOrHash *rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	if err := api.checkState(blockNrOrHash); err != nil {
		return nil, err
	}
	key := common.BigToHash(slot.ToInt())
	value := api.server.chain.StorageAt(address, key)
	return value.Bytes(), nil
}

// GetBlockByNumber returns a block by number, or null when it does not exist
func (api *EthAPI) GetBlockByNumber(ctx context.Context, number rpc.BlockNumber, fullTx bool) (*RPCBlock, error) {
	b, ok := api.server.chain.BlockByNumber(api.resolveNumber(number))
	if !ok {
		return nil, nil
	}
	return api.renderBlock(b, fullTx), nil
}

// GetBlockByHash returns a block by hash, or null when it does not exist
func (api *EthAPI) GetBlockByHash(ctx context.Context, hash common.Hash, fullTx bool) (*RPCBlock, error) {
	b, ok := api.server.chain.BlockByHash(hash)
	if !ok {
		return nil, nil
	}
	return api.renderBlock(b, fullTx), nil
}

// SendTransaction sends a transaction from an unlocked or impersonated account
func (api *EthAPI) SendTransaction(ctx context.Context, args CallArgs) (common.Hash, error) {
	if args.From == nil {
		return common.Hash{}, invalidParams("missing from address")
	}

	hash, err := api.server.chain.SendMessage(args.toMessage())
	if err != nil {
		api.server.logger.Warn("Transaction failed",
			zap.String("from", args.From.Hex()),
			zap.String("hash", hash.Hex()),
			zap.Error(err))
		return common.Hash{}, err
	}

	api.server.logger.Info("Transaction submitted",
		zap.String("hash", hash.Hex()),
		zap.String("from", args.From.Hex()))
	return hash, nil
}

// SendRawTransaction submits a signed transaction
func (api *EthAPI) SendRawTransaction(ctx context.Context, data hexutil.Bytes) (common.Hash, error) {
	hash, err := api.server.chain.SendRawTransaction(data)
	if err != nil {
		api.server.logger.Warn("Raw transaction failed",
			zap.String("hash", hash.Hex()),
			zap.Error(err))
		return common.Hash{}, err
	}

	api.server.logger.Info("Transaction submitted", zap.String("hash", hash.Hex()))
	return hash, nil
}

// Call executes a call without creating a transaction
func (api *EthAPI) Call(ctx context.Context, args CallArgs, blockNrOrHash *rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	if err := api.checkState(blockNrOrHash); err != nil {
		return nil, err
	}
	return api.server.chain.Call(args.toMessage())
}

// EstimateGas estimates gas for a transaction
func (api *EthAPI) EstimateGas(ctx context.Context, args CallArgs, blockNrOrHash *rpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	if err := api.checkState(blockNrOrHash); err != nil {
		return 0, err
	}
	gas, err := api.server.chain.EstimateGas(args.toMessage())
	if err != nil {
		return 0, err
	}
	return hexutil.Uint64(gas), nil
}

// GetTransactionReceipt returns the receipt for a transaction
func (api *EthAPI) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*RPCReceipt, error) {
	tx, ok := api.server.chain.Transaction(hash)
	if !ok {
		return nil, nil
	}
	receipt, ok := api.server.chain.Receipt(hash)
	if !ok {
		return nil, nil
	}

	result := &RPCReceipt{
		TransactionHash:   hash,
		TransactionIndex:  hexutil.Uint(receipt.TransactionIndex),
		BlockHash:         receipt.BlockHash,
		BlockNumber:       hexutil.Uint64(receipt.BlockNumber.Uint64()),
		From:              tx.From,
		To:                tx.Tx.To(),
		CumulativeGasUsed: hexutil.Uint64(receipt.CumulativeGasUsed),
		GasUsed:           hexutil.Uint64(receipt.GasUsed),
		Logs:              receipt.Logs,
		LogsBloom:         receipt.Bloom,
		Status:            hexutil.Uint64(receipt.Status),
		EffectiveGasPrice: (*hexutil.Big)(receipt.EffectiveGasPrice),
		Type:              hexutil.Uint64(receipt.Type),
	}
	if receipt.ContractAddress != (common.Address{}) {
		addr := receipt.ContractAddress
		result.ContractAddress = &addr
	}
	return result, nil
}

// GetTransactionByHash returns a transaction by hash
func (api *EthAPI) GetTransactionByHash(ctx context.Context, hash common.Hash) (*RPCTransaction, error) {
	tx, ok := api.server.chain.Transaction(hash)
	if !ok {
		return nil, nil
	}
	return api.renderTransaction(tx), nil
}

// GetLogs returns logs matching the filter criteria
func (api *EthAPI) GetLogs(ctx context.Context, query FilterQuery) ([]types.Log, error) {
	q := ethereum.FilterQuery{
		BlockHash: query.BlockHash,
		Addresses: query.Addresses,
		Topics:    query.Topics,
	}
	if query.FromBlock != nil {
		q.FromBlock = new(big.Int).SetUint64(api.resolveNumber(*query.FromBlock))
	}
	if query.ToBlock != nil {
		q.ToBlock = new(big.Int).SetUint64(api.resolveNumber(*query.ToBlock))
	}
	return api.server.chain.FilterLogs(q)
}

// resolveNumber maps block tags onto heights
func (api *EthAPI) resolveNumber(number rpc.BlockNumber) uint64 {
	switch number {
	case rpc.EarliestBlockNumber:
		return 0
	case rpc.LatestBlockNumber, rpc.PendingBlockNumber, rpc.SafeBlockNumber, rpc.FinalizedBlockNumber:
		return api.server.chain.BlockNumber()
	}
	if number < 0 {
		return api.server.chain.BlockNumber()
	}
	return uint64(number)
}

// checkState rejects queries for any state but the latest
func (api *EthAPI) checkState(blockNrOrHash *rpc.BlockNumberOrHash) error {
	if blockNrOrHash == nil {
		return nil
	}
	latest := api.server.chain.LatestBlock()
	if number, ok := blockNrOrHash.Number(); ok {
		if api.resolveNumber(number) == latest.Number() {
			return nil
		}
		return fmt.Errorf("historical state is not available: block %d, latest %d", api.resolveNumber(number), latest.Number())
	}
	if hash, ok := blockNrOrHash.Hash(); ok && hash != latest.Hash {
		return fmt.Errorf("historical state is not available: block %s", hash.Hex())
	}
	return nil
}

func (api *EthAPI) renderBlock(b *devnet.Block, fullTx bool) *RPCBlock {
	h := b.Header
	txs := make([]interface{}, 0, len(b.Transactions))
	for _, hash := range b.Transactions {
		if !fullTx {
			txs = append(txs, hash)
			continue
		}
		if tx, ok := api.server.chain.Transaction(hash); ok {
			txs = append(txs, api.renderTransaction(tx))
		}
	}

	return &RPCBlock{
		Number:           hexutil.Uint64(h.Number.Uint64()),
		Hash:             b.Hash,
		ParentHash:       h.ParentHash,
		Nonce:            h.Nonce,
		MixHash:          h.MixDigest,
		Sha3Uncles:       h.UncleHash,
		LogsBloom:        h.Bloom,
		TransactionsRoot: h.TxHash,
		StateRoot:        h.Root,
		ReceiptsRoot:     h.ReceiptHash,
		Miner:            h.Coinbase,
		Difficulty:       (*hexutil.Big)(h.Difficulty),
		TotalDifficulty:  (*hexutil.Big)(big.NewInt(0)),
		ExtraData:        h.Extra,
		Size:             hexutil.Uint64(uint64(h.Size())),
		GasLimit:         hexutil.Uint64(h.GasLimit),
		GasUsed:          hexutil.Uint64(h.GasUsed),
		Timestamp:        hexutil.Uint64(h.Time),
		Transactions:     txs,
		Uncles:           []common.Hash{},
		BaseFeePerGas:    (*hexutil.Big)(h.BaseFee),
	}
}

func (api *EthAPI) renderTransaction(t *devnet.Transaction) *RPCTransaction {
	tx := t.Tx
	v, r, s := tx.RawSignatureValues()
	result := &RPCTransaction{
		Hash:             t.Hash,
		Nonce:            hexutil.Uint64(tx.Nonce()),
		BlockHash:        t.BlockHash,
		BlockNumber:      (*hexutil.Uint64)(t.BlockNumber),
		TransactionIndex: (*hexutil.Uint)(t.Index),
		From:             t.From,
		To:               tx.To(),
		Value:            (*hexutil.Big)(tx.Value()),
		GasPrice:         (*hexutil.Big)(tx.GasPrice()),
		Gas:              hexutil.Uint64(tx.Gas()),
		Input:            tx.Data(),
		V:                (*hexutil.Big)(orZero(v)),
		R:                (*hexutil.Big)(orZero(r)),
		S:                (*hexutil.Big)(orZero(s)),
		Type:             hexutil.Uint64(tx.Type()),
	}
	if tx.Type() != types.LegacyTxType {
		accessList := tx.AccessList()
		if accessList == nil {
			accessList = types.AccessList{}
		}
		result.ChainID = (*hexutil.Big)(api.server.chain.ChainID())
		result.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		result.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
		result.AccessList = &accessList
		if receipt, ok := api.server.chain.Receipt(t.Hash); ok {
			result.GasPrice = (*hexutil.Big)(receipt.EffectiveGasPrice)
		}
	}
	return result
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
