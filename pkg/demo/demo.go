// Package demo walks through the network helpers against a live network and
// prints what changes.
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/chainsafe/counter-devnet/pkg/network"
	"github.com/chainsafe/counter-devnet/pkg/networkhelpers"
	"github.com/chainsafe/counter-devnet/pkg/units"
)

// WETHAddress is the mainnet WETH contract used by the code and impersonation demos
var WETHAddress = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

// DefaultNonce is what the set-nonce demo moves account 0 to
const DefaultNonce = 500

// ErrNoAccounts is returned when the node exposes no accounts
var ErrNoAccounts = errors.New("node exposes no accounts")

const separator = "------------"

// Demo runs helper walkthroughs and prints to out
type Demo struct {
	rpc     *rpc.Client
	eth     *ethclient.Client
	helpers *networkhelpers.Client
	out     io.Writer
}

// New creates a Demo over an open network
func New(n *network.Network, out io.Writer) *Demo {
	return &Demo{
		rpc:     n.RPC,
		eth:     n.Eth,
		helpers: n.Helpers,
		out:     out,
	}
}

func (d *Demo) println(args ...interface{}) {
	fmt.Fprintln(d.out, args...)
}

func (d *Demo) printf(format string, args ...interface{}) {
	fmt.Fprintf(d.out, format+"\n", args...)
}

// Accounts returns the addresses the node exposes through eth_accounts
func (d *Demo) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := d.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (d *Demo) firstAccount(ctx context.Context) (common.Address, error) {
	accounts, err := d.Accounts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		return common.Address{}, ErrNoAccounts
	}
	return accounts[0], nil
}

// PrintAccounts prints every account address, one per line
func (d *Demo) PrintAccounts(ctx context.Context) error {
	accounts, err := d.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		d.println(a.Hex())
	}
	return nil
}

// Mining mines 1 block, then 100, then 2 blocks one second apart
func (d *Demo) Mining(ctx context.Context) error {
	for _, blocks := range []uint64{1, 100} {
		before, err := d.eth.BlockNumber(ctx)
		if err != nil {
			return err
		}
		if blocks == 1 {
			d.printf("Starting mining using mine()...current block number is %d", before)
		} else {
			d.printf("Starting mining using mine(%d)...current block number is %d", blocks, before)
		}

		if err := d.helpers.Mine(ctx, blocks); err != nil {
			return err
		}

		after, err := d.eth.BlockNumber(ctx)
		if err != nil {
			return err
		}
		d.printf("mining completed. block number shifts to %d", after)
		d.println(separator)
	}

	if err := d.helpers.Mine(ctx, 2, networkhelpers.WithInterval(1)); err != nil {
		return err
	}

	block0, err := d.eth.HeaderByNumber(ctx, big.NewInt(0))
	if err != nil {
		return err
	}
	block1, err := d.eth.HeaderByNumber(ctx, big.NewInt(1))
	if err != nil {
		return err
	}

	d.println("Timestamps between both blocks should be separated by 1 second")
	d.printf("timestamps for block 0: %d, block 1: %d", block0.Time, block1.Time)
	return nil
}

// MineBlocks mines blocks blocks and prints the block number before and after
func (d *Demo) MineBlocks(ctx context.Context, blocks uint64) error {
	before, err := d.eth.BlockNumber(ctx)
	if err != nil {
		return err
	}
	d.printf("Starting mining...current block number is %d", before)

	if err := d.helpers.Mine(ctx, blocks); err != nil {
		return err
	}

	after, err := d.eth.BlockNumber(ctx)
	if err != nil {
		return err
	}
	d.printf("mining completed. current block number is %d", after)
	return nil
}

// MineUpTo mines until the chain is increment blocks ahead of where it started
func (d *Demo) MineUpTo(ctx context.Context, increment uint64) error {
	current, err := d.eth.BlockNumber(ctx)
	if err != nil {
		return err
	}
	d.println("Starting with block number:", current)

	if err := d.helpers.MineUpTo(ctx, current+increment); err != nil {
		return err
	}

	last, err := d.eth.BlockNumber(ctx)
	if err != nil {
		return err
	}
	d.println("Mining stopped at block number:", last)
	d.println(separator)
	return nil
}

// SetBalance forces the balance of account 0 to ether
func (d *Demo) SetBalance(ctx context.Context, ether string) error {
	amount, err := units.ParseEther(ether)
	if err != nil {
		return err
	}
	account, err := d.firstAccount(ctx)
	if err != nil {
		return err
	}

	if err := d.printBalance(ctx, "Actual wallet balance is %s ETH", account); err != nil {
		return err
	}
	if err := d.helpers.SetBalance(ctx, account, amount); err != nil {
		return err
	}
	return d.printBalance(ctx, "Manipulated wallet balance is %s ETH", account)
}

func (d *Demo) printBalance(ctx context.Context, format string, account common.Address) error {
	balance, err := d.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return err
	}
	formatted, err := units.FormatUnits(balance, "ether")
	if err != nil {
		return err
	}
	d.printf(format, formatted)
	return nil
}

// SetCode copies the code of the WETH address onto account 0
func (d *Demo) SetCode(ctx context.Context) error {
	account, err := d.firstAccount(ctx)
	if err != nil {
		return err
	}

	before, err := d.eth.CodeAt(ctx, account, nil)
	if err != nil {
		return err
	}
	wethCode, err := d.eth.CodeAt(ctx, WETHAddress, nil)
	if err != nil {
		return err
	}
	d.println("weth contract", hexutil.Encode(wethCode))

	if err := d.helpers.SetCode(ctx, account, wethCode); err != nil {
		return err
	}

	after, err := d.eth.CodeAt(ctx, account, nil)
	if err != nil {
		return err
	}
	d.println("contract code before setCode()", hexutil.Encode(before))
	d.println("contract code after setCode()", hexutil.Encode(after))
	return nil
}

// SetNonce moves the nonce of account 0 to nonce
func (d *Demo) SetNonce(ctx context.Context, nonce uint64) error {
	account, err := d.firstAccount(ctx)
	if err != nil {
		return err
	}

	before, err := d.eth.NonceAt(ctx, account, nil)
	if err != nil {
		return err
	}
	d.println("Nonce before setNonce()", before)

	if err := d.helpers.SetNonce(ctx, account, nonce); err != nil {
		return err
	}

	after, err := d.eth.NonceAt(ctx, account, nil)
	if err != nil {
		return err
	}
	d.println("Nonce after setNonce()", after)
	return nil
}

// Impersonate lets the node sign for the WETH address and prints its balance
func (d *Demo) Impersonate(ctx context.Context) error {
	if err := d.helpers.ImpersonateAccount(ctx, WETHAddress); err != nil {
		return err
	}

	balance, err := d.eth.BalanceAt(ctx, WETHAddress, nil)
	if err != nil {
		return err
	}
	d.println("impersonated account", WETHAddress.Hex())
	d.println("impersonated account balance", units.FormatEther(balance))
	return nil
}

// IncreaseTime mines a block, then moves time forward by secs and mines again
func (d *Demo) IncreaseTime(ctx context.Context, secs uint64) error {
	if err := d.helpers.Mine(ctx, 1); err != nil {
		return err
	}
	if err := d.printLatest(ctx); err != nil {
		return err
	}

	if _, err := d.helpers.Time.Increase(ctx, secs); err != nil {
		return err
	}
	return d.printLatest(ctx)
}

func (d *Demo) printLatest(ctx context.Context) error {
	number, err := d.helpers.Time.LatestBlock(ctx)
	if err != nil {
		return err
	}
	timestamp, err := d.helpers.Time.Latest(ctx)
	if err != nil {
		return err
	}
	d.printf("Timestamp of block number %d is %d", number, timestamp)
	return nil
}
