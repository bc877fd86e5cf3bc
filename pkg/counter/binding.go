package counter

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// Binding calls a deployed Counter through a JSON-RPC backend
type Binding struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewBinding binds the Counter deployed at address
func NewBinding(address common.Address, backend bind.ContractBackend) *Binding {
	return &Binding{
		address:  address,
		contract: bind.NewBoundContract(address, parsedABI, backend, backend, backend),
	}
}

// DeployBinding sends a creation transaction for a new Counter
func DeployBinding(opts *bind.TransactOpts, backend bind.ContractBackend, initialValue, min, max *big.Int) (common.Address, *types.Transaction, *Binding, error) {
	address, tx, contract, err := bind.DeployContract(opts, parsedABI, creationCode, backend, initialValue, min, max)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &Binding{address: address, contract: contract}, nil
}

// Address returns the bound contract address
func (b *Binding) Address() common.Address {
	return b.address
}

// GetCounter reads the current value
func (b *Binding) GetCounter(opts *bind.CallOpts) (*big.Int, error) {
	return b.callInt(opts, "getCounter")
}

// Min reads the lower bound
func (b *Binding) Min(opts *bind.CallOpts) (*big.Int, error) {
	return b.callInt(opts, "min")
}

// Max reads the upper bound
func (b *Binding) Max(opts *bind.CallOpts) (*big.Int, error) {
	return b.callInt(opts, "max")
}

// Owner reads the address allowed to mutate the counter
func (b *Binding) Owner(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	if err := b.contract.Call(opts, &out, "owner"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Increment sends increment(amount)
func (b *Binding) Increment(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return b.contract.Transact(opts, "increment", amount)
}

// Decrement sends decrement(amount)
func (b *Binding) Decrement(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return b.contract.Transact(opts, "decrement", amount)
}

// SetCounter sends setCounter(newValue)
func (b *Binding) SetCounter(opts *bind.TransactOpts, newValue *big.Int) (*types.Transaction, error) {
	return b.contract.Transact(opts, "setCounter", newValue)
}

// ResetCounter sends resetCounter()
func (b *Binding) ResetCounter(opts *bind.TransactOpts) (*types.Transaction, error) {
	return b.contract.Transact(opts, "resetCounter")
}

// Events decodes the Counter events in a receipt
func (b *Binding) Events(receipt *types.Receipt) ([]Event, error) {
	var events []Event
	for _, l := range receipt.Logs {
		if l.Address != b.address {
			continue
		}
		ev, err := ParseEvent(l)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (b *Binding) callInt(opts *bind.CallOpts, method string) (*big.Int, error) {
	var out []interface{}
	if err := b.contract.Call(opts, &out, method); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// UnpackError recovers the Counter failure carried by a JSON-RPC error.
// ok is false when err carries no revert data.
func UnpackError(err error) (reason error, ok bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}
	s, isString := dataErr.ErrorData().(string)
	if !isString {
		return nil, false
	}
	data, decodeErr := hexutil.Decode(s)
	if decodeErr != nil {
		return fmt.Errorf("decode revert data: %w", decodeErr), true
	}
	return DecodeRevert(data), true
}
