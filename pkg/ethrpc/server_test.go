package ethrpc

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/counter"
	"github.com/chainsafe/counter-devnet/pkg/devnet"
	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
)

var (
	testKey, _   = crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	testAddr     = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	strangerAddr = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

const testGenesisTime = uint64(1700000000)

type testEnv struct {
	server *Server
	chain  *devnet.Chain
	rpc    *rpc.Client
	eth    *ethclient.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	chain, err := devnet.New(devnet.Config{
		Automine:         true,
		GenesisTimestamp: testGenesisTime,
		Accounts: []devnet.GenesisAccount{
			{Key: testKey, Balance: new(big.Int).Mul(big.NewInt(10000), big.NewInt(params.Ether))},
		},
	}, native.NewRegistry(counter.Artifact()), zap.NewNop())
	if err != nil {
		t.Fatalf("devnet.New() failed: %v", err)
	}

	server, err := NewServer(chain, zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	client := server.DialInProc()
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})

	return &testEnv{server: server, chain: chain, rpc: client, eth: ethclient.NewClient(client)}
}

func (e *testEnv) deploy(t *testing.T) common.Address {
	t.Helper()
	ctx := context.Background()

	code, err := counter.Artifact().CreationCode(big.NewInt(10), big.NewInt(5), big.NewInt(100000))
	require.NoError(t, err)

	nonce, err := e.eth.PendingNonceAt(ctx, testAddr)
	require.NoError(t, err)
	chainID, err := e.eth.ChainID(ctx)
	require.NoError(t, err)

	tx, err := types.SignNewTx(testKey, types.LatestSignerForChainID(chainID), &types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: big.NewInt(params.GWei),
		GasFeeCap: big.NewInt(2 * params.GWei),
		Gas:       1_000_000,
		Data:      code,
	})
	require.NoError(t, err)
	require.NoError(t, e.eth.SendTransaction(ctx, tx))

	receipt, err := e.eth.TransactionReceipt(ctx, tx.Hash())
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	return receipt.ContractAddress
}

func (e *testEnv) getCounter(t *testing.T, addr common.Address) int64 {
	t.Helper()
	abi := counter.ABI()
	data, err := abi.Pack("getCounter")
	require.NoError(t, err)
	out, err := e.eth.CallContract(context.Background(), ethereum.CallMsg{To: &addr, Data: data}, nil)
	require.NoError(t, err)
	values, err := abi.Unpack("getCounter", out)
	require.NoError(t, err)
	return values[0].(*big.Int).Int64()
}

func TestEthAPI_ChainInfo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	chainID, err := env.eth.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(devnet.DefaultChainID), chainID)

	number, err := env.eth.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), number)

	var accounts []common.Address
	require.NoError(t, env.rpc.Call(&accounts, "eth_accounts"))
	assert.Equal(t, []common.Address{testAddr}, accounts)

	var version string
	require.NoError(t, env.rpc.Call(&version, "net_version"))
	assert.Equal(t, "31337", version)

	var clientVersion string
	require.NoError(t, env.rpc.Call(&clientVersion, "web3_clientVersion"))
	assert.Equal(t, ClientVersion, clientVersion)

	header, err := env.eth.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, testGenesisTime, header.Time)
	assert.Equal(t, env.chain.LatestBlock().Hash, header.Hash())

	tip, err := env.eth.SuggestGasTipCap(ctx)
	require.NoError(t, err)
	assert.Equal(t, devnet.DefaultPriorityFee, tip)
}

func TestEthAPI_DeployAndCall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	addr := env.deploy(t)

	assert.Equal(t, crypto.CreateAddress(testAddr, 0), addr)
	code, err := env.eth.CodeAt(ctx, addr, nil)
	require.NoError(t, err)
	assert.Equal(t, counter.Artifact().DeployedBytecode, code)
	assert.Equal(t, int64(10), env.getCounter(t, addr))

	block, err := env.eth.BlockByNumber(ctx, big.NewInt(1))
	require.NoError(t, err)
	require.Len(t, block.Transactions(), 1)

	tx, pending, err := env.eth.TransactionByHash(ctx, block.Transactions()[0].Hash())
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
}

func TestEthAPI_SendTransactionRevert(t *testing.T) {
	env := newTestEnv(t)
	addr := env.deploy(t)

	abi := counter.ABI()
	data, err := abi.Pack("setCounter", big.NewInt(3))
	require.NoError(t, err)

	var hash common.Hash
	err = env.rpc.Call(&hash, "eth_sendTransaction", map[string]any{
		"from": testAddr,
		"to":   addr,
		"data": hexutil.Bytes(data),
	})
	require.Error(t, err)

	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, 3, rpcErr.ErrorCode())

	var dataErr rpc.DataError
	require.True(t, errors.As(err, &dataErr))
	revert, err := hexutil.Decode(dataErr.ErrorData().(string))
	require.NoError(t, err)

	var outOfRange *counter.OutOfRangeError
	require.True(t, errors.As(counter.DecodeRevert(revert), &outOfRange))
	assert.Equal(t, int64(3), outOfRange.Value)

	// the failed transaction is still mined
	assert.Equal(t, uint64(2), env.chain.BlockNumber())
	assert.Equal(t, int64(10), env.getCounter(t, addr))
}

func TestEthAPI_SendTransactionRequiresFrom(t *testing.T) {
	env := newTestEnv(t)

	var hash common.Hash
	err := env.rpc.Call(&hash, "eth_sendTransaction", map[string]any{"to": strangerAddr})

	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32602, rpcErr.ErrorCode())
}

func TestEthAPI_GetLogs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	addr := env.deploy(t)

	abi := counter.ABI()
	data, err := abi.Pack("increment", big.NewInt(10))
	require.NoError(t, err)

	var hash common.Hash
	require.NoError(t, env.rpc.Call(&hash, "eth_sendTransaction", map[string]any{
		"from": testAddr,
		"to":   addr,
		"data": hexutil.Bytes(data),
	}))

	receipt, err := env.eth.TransactionReceipt(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	require.Len(t, receipt.Logs, 1)

	logs, err := env.eth.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{addr},
		Topics:    [][]common.Hash{{abi.Events["Increment"].ID}},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, hash, logs[0].TxHash)

	ev, err := counter.ParseEvent(&logs[0])
	require.NoError(t, err)
	assert.Equal(t, counter.EventIncrement, ev.Kind)
	assert.Equal(t, int64(20), ev.NewValue)

	none, err := env.eth.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{addr},
		Topics:    [][]common.Hash{{abi.Events["Decrement"].ID}},
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEthAPI_HistoricalStateRejected(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)

	_, err := env.eth.BalanceAt(context.Background(), testAddr, big.NewInt(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "historical state")

	_, err = env.eth.BalanceAt(context.Background(), testAddr, big.NewInt(1))
	require.NoError(t, err)
}

func TestEthAPI_UnknownLookups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.eth.TransactionReceipt(ctx, common.HexToHash("0x01"))
	assert.ErrorIs(t, err, ethereum.NotFound)

	_, err = env.eth.HeaderByNumber(ctx, big.NewInt(42))
	assert.ErrorIs(t, err, ethereum.NotFound)
}

func TestHardhatAPI_Mine(t *testing.T) {
	env := newTestEnv(t)

	var ok bool
	require.NoError(t, env.rpc.Call(&ok, "hardhat_mine"))
	assert.True(t, ok)
	assert.Equal(t, uint64(1), env.chain.BlockNumber())

	require.NoError(t, env.rpc.Call(&ok, "hardhat_mine", "0x64", "0x0a"))
	assert.Equal(t, uint64(101), env.chain.BlockNumber())

	first, _ := env.chain.BlockByNumber(2)
	last, _ := env.chain.BlockByNumber(101)
	assert.Equal(t, first.Time()+99*10, last.Time())

	err := env.rpc.Call(&ok, "hardhat_mine", "0x3fffffffffffffff")
	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr), "got %v", err)
	assert.Equal(t, -32602, rpcErr.ErrorCode())
	assert.Equal(t, uint64(101), env.chain.BlockNumber())
}

func TestHardhatAPI_StateManipulation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ok bool
	require.NoError(t, env.rpc.Call(&ok, "hardhat_setBalance", strangerAddr, "0x3635C9ADC5DEA00000"))
	balance, err := env.eth.BalanceAt(ctx, strangerAddr, nil)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(1000), big.NewInt(params.Ether)), balance)

	require.NoError(t, env.rpc.Call(&ok, "hardhat_setNonce", strangerAddr, 500))
	nonce, err := env.eth.NonceAt(ctx, strangerAddr, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), nonce)

	require.NoError(t, env.rpc.Call(&ok, "hardhat_setCode", strangerAddr, "0xdeadbeef"))
	code, err := env.eth.CodeAt(ctx, strangerAddr, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, code)

	value := common.HexToHash("0x2a")
	require.NoError(t, env.rpc.Call(&ok, "hardhat_setStorageAt", strangerAddr, "0x0", value))
	stored, err := env.eth.StorageAt(ctx, strangerAddr, common.Hash{}, nil)
	require.NoError(t, err)
	assert.Equal(t, value.Bytes(), stored)

	err = env.rpc.Call(&ok, "hardhat_setStorageAt", strangerAddr, "0x0", "0x2a")
	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32602, rpcErr.ErrorCode())

	err = env.rpc.Call(&ok, "hardhat_setNonce", strangerAddr, 1)
	require.Error(t, err)
}

func TestHardhatAPI_Impersonation(t *testing.T) {
	env := newTestEnv(t)

	var ok bool
	require.NoError(t, env.rpc.Call(&ok, "hardhat_setBalance", strangerAddr, "0xde0b6b3a7640000"))
	require.NoError(t, env.rpc.Call(&ok, "hardhat_impersonateAccount", strangerAddr))

	var hash common.Hash
	require.NoError(t, env.rpc.Call(&hash, "eth_sendTransaction", map[string]any{
		"from":  strangerAddr,
		"to":    testAddr,
		"value": "0x1",
	}))

	tx, _, err := env.eth.TransactionByHash(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), tx.Value())

	require.NoError(t, env.rpc.Call(&ok, "hardhat_stopImpersonatingAccount", strangerAddr))
	assert.True(t, ok)

	err = env.rpc.Call(&hash, "eth_sendTransaction", map[string]any{"from": strangerAddr, "to": testAddr})
	require.Error(t, err)
}

func TestHardhatAPI_DropTransaction(t *testing.T) {
	env := newTestEnv(t)

	var ok bool
	require.NoError(t, env.rpc.Call(&ok, "evm_setAutomine", false))

	var automine bool
	require.NoError(t, env.rpc.Call(&automine, "hardhat_getAutomine"))
	assert.False(t, automine)

	var hash common.Hash
	require.NoError(t, env.rpc.Call(&hash, "eth_sendTransaction", map[string]any{
		"from":  testAddr,
		"to":    strangerAddr,
		"value": "0x1",
	}))
	pendingNonce, err := env.eth.PendingNonceAt(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pendingNonce)

	require.NoError(t, env.rpc.Call(&ok, "hardhat_dropTransaction", hash))
	assert.True(t, ok)
	require.NoError(t, env.rpc.Call(&ok, "hardhat_dropTransaction", hash))
	assert.False(t, ok)
}

func TestEvmAPI_SnapshotRevert(t *testing.T) {
	env := newTestEnv(t)

	var id hexutil.Uint64
	require.NoError(t, env.rpc.Call(&id, "evm_snapshot"))
	assert.Equal(t, hexutil.Uint64(1), id)

	addr := env.deploy(t)
	assert.Equal(t, int64(10), env.getCounter(t, addr))

	var ok bool
	require.NoError(t, env.rpc.Call(&ok, "evm_revert", id))
	assert.True(t, ok)
	assert.Equal(t, uint64(0), env.chain.BlockNumber())
	assert.Empty(t, env.chain.Code(addr))

	require.NoError(t, env.rpc.Call(&ok, "evm_revert", id))
	assert.False(t, ok)
}

func TestEvmAPI_Time(t *testing.T) {
	env := newTestEnv(t)

	var ok bool
	next := testGenesisTime + 1000
	require.NoError(t, env.rpc.Call(&ok, "evm_setNextBlockTimestamp", next))

	var result string
	require.NoError(t, env.rpc.Call(&result, "evm_mine"))
	assert.Equal(t, "0x0", result)
	assert.Equal(t, next, env.chain.LatestBlock().Time())

	err := env.rpc.Call(&ok, "evm_setNextBlockTimestamp", next)
	require.Error(t, err)

	var offset int64
	require.NoError(t, env.rpc.Call(&offset, "evm_increaseTime", 3600))
	assert.Equal(t, env.chain.TimeOffset(), offset)

	require.NoError(t, env.rpc.Call(&result, "evm_mine", next+5000))
	assert.Equal(t, next+5000, env.chain.LatestBlock().Time())
}

func TestServeHTTP(t *testing.T) {
	env := newTestEnv(t)

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("json-rpc", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"eth_chainId","params":[]}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Result string `json:"result"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "0x7a69", resp.Result)
	})
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: `100`, want: 100},
		{input: `"100"`, want: 100},
		{input: `"0x64"`, want: 100},
		{input: `"0x0064"`, want: 100},
		{input: `"0x"`, want: 0},
		{input: `"-1"`, wantErr: true},
		{input: `"0xzz"`, wantErr: true},
		{input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var q Quantity
			err := json.Unmarshal([]byte(tt.input), &q)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.ToInt().Int64() != tt.want {
				t.Fatalf("got %s, want %d", q.ToInt(), tt.want)
			}
		})
	}
}

func TestFilterQuery_UnmarshalJSON(t *testing.T) {
	topic := common.HexToHash("0x01")
	other := common.HexToHash("0x02")

	var q FilterQuery
	input := `{"address":"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266","fromBlock":"0x1","toBlock":"latest",` +
		`"topics":[null,"` + topic.Hex() + `",["` + topic.Hex() + `","` + other.Hex() + `"]]}`
	require.NoError(t, json.Unmarshal([]byte(input), &q))

	assert.Equal(t, []common.Address{testAddr}, q.Addresses)
	require.NotNil(t, q.FromBlock)
	assert.Equal(t, rpc.BlockNumber(1), *q.FromBlock)
	assert.Equal(t, rpc.LatestBlockNumber, *q.ToBlock)
	assert.Equal(t, [][]common.Hash{nil, {topic}, {topic, other}}, q.Topics)

	err := json.Unmarshal([]byte(`{"blockHash":"`+topic.Hex()+`","fromBlock":"0x1"}`), &q)
	require.Error(t, err)
}
