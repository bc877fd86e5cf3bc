package devnet

import (
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// Defaults used when the corresponding Config field is zero.
const (
	DefaultChainID  = 31337
	DefaultGasLimit = 30_000_000
)

var (
	// DefaultBaseFee is the constant base fee of every block.
	DefaultBaseFee = big.NewInt(params.GWei)
	// DefaultCoinbase receives priority fees.
	DefaultCoinbase = common.HexToAddress("0xc014ba5ec014ba5ec014ba5ec014ba5ec014ba5e")
	// DefaultPriorityFee is added to the base fee when suggesting a gas price.
	DefaultPriorityFee = big.NewInt(params.GWei)
)

// Config describes the genesis and block parameters of a Chain.
type Config struct {
	ChainID  uint64
	GasLimit uint64
	BaseFee  *big.Int
	Coinbase common.Address
	Automine bool
	// GenesisTimestamp is the timestamp of block 0; zero means the clock.
	GenesisTimestamp uint64
	Accounts         []GenesisAccount
}

// GenesisAccount is a funded account present at block 0. Accounts with a Key
// are unlocked: eth_sendTransaction signs on their behalf.
type GenesisAccount struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
	Balance *big.Int
}

func (c *Config) setDefaults() {
	if c.ChainID == 0 {
		c.ChainID = DefaultChainID
	}
	if c.GasLimit == 0 {
		c.GasLimit = DefaultGasLimit
	}
	if c.BaseFee == nil {
		c.BaseFee = new(big.Int).Set(DefaultBaseFee)
	}
	if c.Coinbase == (common.Address{}) {
		c.Coinbase = DefaultCoinbase
	}
}

// Clock supplies wall-clock time for block timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Chain.
type Option func(*Chain)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(c *Chain) {
		c.clock = clock
	}
}
