package counter

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chainsafe/counter-devnet/internal/metrics"
	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
)

// ContractName is the artifact name the Counter is deployed under.
const ContractName = "Counter"

// CompilerVersion is the solc version the artifact metadata claims.
const CompilerVersion = "0.8.9"

// evmPreamble is the free-memory-pointer setup every solc output starts with.
var evmPreamble = []byte{0x60, 0x80, 0x60, 0x40, 0x52}

var (
	creationCode = append(append([]byte{}, evmPreamble...), crypto.Keccak256([]byte("Counter.creation"))...)
	runtimeCode  = append(append([]byte{}, evmPreamble...), crypto.Keccak256([]byte("Counter.runtime"))...)
)

// Artifact returns the Counter artifact for deployment on the devnet.
func Artifact() *native.Artifact {
	return &native.Artifact{
		Name:             ContractName,
		Compiler:         CompilerVersion,
		ABI:              parsedABI,
		Bytecode:         creationCode,
		DeployedBytecode: runtimeCode,
		Deploy:           deploy,
	}
}

func deploy(ctx native.CallContext, args []byte) (native.Contract, error) {
	if ctx.Value != nil && ctx.Value.Sign() > 0 {
		return nil, native.Revert(nil)
	}
	values, err := parsedABI.Constructor.Inputs.Unpack(args)
	if err != nil {
		return nil, native.Revert(nil)
	}

	initial, min, max := values[0].(*big.Int), values[1].(*big.Int), values[2].(*big.Int)
	if !initial.IsInt64() || !min.IsInt64() || !max.IsInt64() {
		data, _ := encodeCustomError(errInvalidRange, initial, min, max)
		return nil, native.Revert(data)
	}

	c, err := New(ctx.Sender, initial.Int64(), min.Int64(), max.Int64())
	if err != nil {
		return nil, revert(err)
	}
	return newContract(c), nil
}

// contract adapts a Counter to the native contract interface, translating
// ABI calls into operations and events into logs.
type contract struct {
	counter *Counter
	events  chan Event
}

func newContract(c *Counter) *contract {
	k := &contract{
		counter: c,
		events:  make(chan Event, 1),
	}
	c.Subscribe(k.events)
	return k
}

func (k *contract) Copy() native.Contract {
	c, err := Restore(k.counter.State())
	if err != nil {
		// State() always satisfies the invariant Restore checks.
		panic(fmt.Sprintf("restore counter: %v", err))
	}
	return newContract(c)
}

func (k *contract) Call(ctx native.CallContext, input []byte) ([]byte, []*types.Log, error) {
	if len(input) < 4 {
		return nil, nil, native.Revert(nil)
	}
	method, err := parsedABI.MethodById(input[:4])
	if err != nil {
		return nil, nil, native.Revert(nil)
	}
	if ctx.Value != nil && ctx.Value.Sign() > 0 {
		return nil, nil, native.Revert(nil)
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, nil, native.Revert(nil)
	}

	switch method.Name {
	case "getCounter":
		return k.output(method.Name, big.NewInt(k.counter.Value()))
	case "min":
		return k.output(method.Name, big.NewInt(k.counter.Min()))
	case "max":
		return k.output(method.Name, big.NewInt(k.counter.Max()))
	case "owner":
		return k.output(method.Name, k.counter.Owner())
	}

	var opErr error
	switch method.Name {
	case "increment":
		opErr = k.increment(ctx.Sender, args[0].(*big.Int))
	case "decrement":
		opErr = k.decrement(ctx.Sender, args[0].(*big.Int))
	case "setCounter":
		opErr = k.setCounter(ctx.Sender, args[0].(*big.Int))
	case "resetCounter":
		opErr = k.counter.ResetCounter(ctx.Sender)
	default:
		return nil, nil, native.Revert(nil)
	}
	if opErr != nil {
		metrics.CounterOperations.WithLabelValues(method.Name, "reverted").Inc()
		return nil, nil, revert(opErr)
	}
	metrics.CounterOperations.WithLabelValues(method.Name, "success").Inc()

	logs, err := k.drain(ctx.Address)
	if err != nil {
		return nil, nil, err
	}
	return []byte{}, logs, nil
}

// increment handles int256 amounts and sums that do not fit the counter's
// int64 domain, so the revert carries the exact attempted value.
func (k *contract) increment(caller common.Address, amount *big.Int) error {
	next := new(big.Int).Add(big.NewInt(k.counter.Value()), amount)
	if amount.IsInt64() && next.IsInt64() {
		return k.counter.Increment(caller, amount.Int64())
	}
	if err := k.counter.checkOwner(caller); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return &InvalidArgumentError{Reason: "increment has to be positive"}
	}
	return k.outOfRange(next)
}

func (k *contract) decrement(caller common.Address, amount *big.Int) error {
	next := new(big.Int).Sub(big.NewInt(k.counter.Value()), amount)
	if amount.IsInt64() && next.IsInt64() {
		return k.counter.Decrement(caller, amount.Int64())
	}
	if err := k.counter.checkOwner(caller); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return &InvalidArgumentError{Reason: "decrement has to be positive"}
	}
	if amount.Bit(0) == 0 {
		return ErrUnspecifiedFailure
	}
	return k.outOfRange(next)
}

func (k *contract) setCounter(caller common.Address, newValue *big.Int) error {
	if newValue.IsInt64() {
		return k.counter.SetCounter(caller, newValue.Int64())
	}
	if err := k.counter.checkOwner(caller); err != nil {
		return err
	}
	return k.outOfRange(newValue)
}

// outOfRange builds the revert for an attempted value beyond int64.
func (k *contract) outOfRange(attempted *big.Int) error {
	data, _ := encodeCustomError(errOutOfRange, big.NewInt(k.counter.Min()), big.NewInt(k.counter.Max()), attempted)
	return native.Revert(data)
}

func (k *contract) output(method string, values ...any) ([]byte, []*types.Log, error) {
	out, err := parsedABI.Methods[method].Outputs.Pack(values...)
	if err != nil {
		return nil, nil, fmt.Errorf("pack %s output: %w", method, err)
	}
	return out, nil, nil
}

// drain collects the events the last operation emitted.
func (k *contract) drain(addr common.Address) ([]*types.Log, error) {
	var logs []*types.Log
	for {
		select {
		case ev := <-k.events:
			log, err := EventLog(addr, ev)
			if err != nil {
				return nil, err
			}
			logs = append(logs, log)
		default:
			return logs, nil
		}
	}
}

func revert(err error) error {
	if _, ok := err.(*native.RevertError); ok {
		return err
	}
	data, ok := RevertData(err)
	if !ok {
		return err
	}
	return native.Revert(data)
}
