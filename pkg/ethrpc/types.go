package ethrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/chainsafe/counter-devnet/pkg/devnet"
)

// CallArgs represents the arguments to eth_call, eth_estimateGas and
// eth_sendTransaction
type CallArgs struct {
	From                 *common.Address `json:"from"`
	To                   *common.Address `json:"to"`
	Gas                  *hexutil.Uint64 `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                *hexutil.Uint64 `json:"nonce"`
	Data                 *hexutil.Bytes  `json:"data"`
	Input                *hexutil.Bytes  `json:"input"`
}

// GetData returns the input data, preferring 'input' over 'data' per EIP-2929
func (args *CallArgs) GetData() []byte {
	if args.Input != nil {
		return *args.Input
	}
	if args.Data != nil {
		return *args.Data
	}
	return nil
}

// toMessage converts the arguments into a devnet message
func (args *CallArgs) toMessage() devnet.Message {
	msg := devnet.Message{
		To:   args.To,
		Data: args.GetData(),
	}
	if args.From != nil {
		msg.From = *args.From
	}
	if args.Gas != nil {
		msg.Gas = uint64(*args.Gas)
	}
	if args.GasPrice != nil {
		msg.GasPrice = args.GasPrice.ToInt()
	}
	if args.MaxFeePerGas != nil {
		msg.GasFeeCap = args.MaxFeePerGas.ToInt()
	}
	if args.MaxPriorityFeePerGas != nil {
		msg.GasTipCap = args.MaxPriorityFeePerGas.ToInt()
	}
	if args.Value != nil {
		msg.Value = args.Value.ToInt()
	}
	if args.Nonce != nil {
		nonce := uint64(*args.Nonce)
		msg.Nonce = &nonce
	}
	return msg
}

// Quantity is a non-negative integer parameter. Unlike hexutil.Big it accepts
// JSON numbers, decimal strings and hex strings with leading zeros, which is
// what the hardhat_ and evm_ callers send.
type Quantity big.Int

// UnmarshalJSON implements json.Unmarshaler
func (q *Quantity) UnmarshalJSON(data []byte) error {
	text := string(bytes.TrimSpace(data))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = s
	}

	v := new(big.Int)
	var ok bool
	switch {
	case strings.HasPrefix(text, "0x"), strings.HasPrefix(text, "0X"):
		digits := text[2:]
		if digits == "" {
			digits = "0"
		}
		_, ok = v.SetString(digits, 16)
	default:
		_, ok = v.SetString(text, 10)
	}
	if !ok {
		return fmt.Errorf("invalid quantity %q", text)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("negative quantity %q", text)
	}
	*q = Quantity(*v)
	return nil
}

// MarshalJSON encodes the quantity as a hex string
func (q Quantity) MarshalJSON() ([]byte, error) {
	b := big.Int(q)
	return json.Marshal(hexutil.EncodeBig(&b))
}

// ToInt returns the quantity as a big integer
func (q *Quantity) ToInt() *big.Int {
	return (*big.Int)(q)
}

// Uint64 returns the quantity if it fits in 64 bits
func (q *Quantity) Uint64() (uint64, error) {
	v := q.ToInt()
	if !v.IsUint64() {
		return 0, fmt.Errorf("quantity %s exceeds 64 bits", v)
	}
	return v.Uint64(), nil
}

// RPCReceipt represents a transaction receipt in JSON-RPC format
type RPCReceipt struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	TransactionIndex  hexutil.Uint    `json:"transactionIndex"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	ContractAddress   *common.Address `json:"contractAddress"`
	Logs              []*types.Log    `json:"logs"`
	LogsBloom         types.Bloom     `json:"logsBloom"`
	Status            hexutil.Uint64  `json:"status"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
	Type              hexutil.Uint64  `json:"type"`
}

// RPCTransaction represents a transaction in JSON-RPC format
type RPCTransaction struct {
	Hash                 common.Hash       `json:"hash"`
	Nonce                hexutil.Uint64    `json:"nonce"`
	BlockHash            *common.Hash      `json:"blockHash"`
	BlockNumber          *hexutil.Uint64   `json:"blockNumber"`
	TransactionIndex     *hexutil.Uint     `json:"transactionIndex"`
	From                 common.Address    `json:"from"`
	To                   *common.Address   `json:"to"`
	Value                *hexutil.Big      `json:"value"`
	GasPrice             *hexutil.Big      `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big      `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big      `json:"maxPriorityFeePerGas,omitempty"`
	Gas                  hexutil.Uint64    `json:"gas"`
	Input                hexutil.Bytes     `json:"input"`
	V                    *hexutil.Big      `json:"v"`
	R                    *hexutil.Big      `json:"r"`
	S                    *hexutil.Big      `json:"s"`
	Type                 hexutil.Uint64    `json:"type"`
	ChainID              *hexutil.Big      `json:"chainId,omitempty"`
	AccessList           *types.AccessList `json:"accessList,omitempty"`
}

// RPCBlock represents a block in JSON-RPC format
type RPCBlock struct {
	Number           hexutil.Uint64   `json:"number"`
	Hash             common.Hash      `json:"hash"`
	ParentHash       common.Hash      `json:"parentHash"`
	Nonce            types.BlockNonce `json:"nonce"`
	MixHash          common.Hash      `json:"mixHash"`
	Sha3Uncles       common.Hash      `json:"sha3Uncles"`
	LogsBloom        types.Bloom      `json:"logsBloom"`
	TransactionsRoot common.Hash      `json:"transactionsRoot"`
	StateRoot        common.Hash      `json:"stateRoot"`
	ReceiptsRoot     common.Hash      `json:"receiptsRoot"`
	Miner            common.Address   `json:"miner"`
	Difficulty       *hexutil.Big     `json:"difficulty"`
	TotalDifficulty  *hexutil.Big     `json:"totalDifficulty"`
	ExtraData        hexutil.Bytes    `json:"extraData"`
	Size             hexutil.Uint64   `json:"size"`
	GasLimit         hexutil.Uint64   `json:"gasLimit"`
	GasUsed          hexutil.Uint64   `json:"gasUsed"`
	Timestamp        hexutil.Uint64   `json:"timestamp"`
	Transactions     []interface{}    `json:"transactions"`
	Uncles           []common.Hash    `json:"uncles"`
	BaseFeePerGas    *hexutil.Big     `json:"baseFeePerGas,omitempty"`
}

// FilterQuery represents the filter for eth_getLogs
type FilterQuery struct {
	BlockHash *common.Hash
	FromBlock *rpc.BlockNumber
	ToBlock   *rpc.BlockNumber
	Addresses []common.Address
	Topics    [][]common.Hash
}

// UnmarshalJSON accepts a single address or a list, and topic positions that
// are null, a single hash or a list of alternatives.
func (q *FilterQuery) UnmarshalJSON(data []byte) error {
	var raw struct {
		BlockHash *common.Hash      `json:"blockHash"`
		FromBlock *rpc.BlockNumber  `json:"fromBlock"`
		ToBlock   *rpc.BlockNumber  `json:"toBlock"`
		Address   json.RawMessage   `json:"address"`
		Topics    []json.RawMessage `json:"topics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.BlockHash != nil && (raw.FromBlock != nil || raw.ToBlock != nil) {
		return fmt.Errorf("cannot specify both blockHash and fromBlock/toBlock")
	}
	q.BlockHash, q.FromBlock, q.ToBlock = raw.BlockHash, raw.FromBlock, raw.ToBlock

	if len(raw.Address) > 0 && !isNull(raw.Address) {
		var single common.Address
		if err := json.Unmarshal(raw.Address, &single); err == nil {
			q.Addresses = []common.Address{single}
		} else if err := json.Unmarshal(raw.Address, &q.Addresses); err != nil {
			return fmt.Errorf("invalid address filter: %w", err)
		}
	}

	q.Topics = make([][]common.Hash, len(raw.Topics))
	for i, t := range raw.Topics {
		if isNull(t) {
			continue
		}
		var single common.Hash
		if err := json.Unmarshal(t, &single); err == nil {
			q.Topics[i] = []common.Hash{single}
			continue
		}
		var alternatives []*common.Hash
		if err := json.Unmarshal(t, &alternatives); err != nil {
			return fmt.Errorf("invalid topic %d: %w", i, err)
		}
		for _, h := range alternatives {
			if h == nil {
				// a null alternative matches anything
				q.Topics[i] = nil
				break
			}
			q.Topics[i] = append(q.Topics[i], *h)
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
