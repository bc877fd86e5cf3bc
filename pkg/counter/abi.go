package counter

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ABIJSON is the contract interface of the Counter.
const ABIJSON = `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"initialValue","type":"int256"},{"name":"min","type":"int256"},{"name":"max","type":"int256"}]},
	{"type":"function","name":"increment","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"int256"}],"outputs":[]},
	{"type":"function","name":"decrement","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"int256"}],"outputs":[]},
	{"type":"function","name":"setCounter","stateMutability":"nonpayable","inputs":[{"name":"newValue","type":"int256"}],"outputs":[]},
	{"type":"function","name":"resetCounter","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"getCounter","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int256"}]},
	{"type":"function","name":"min","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int256"}]},
	{"type":"function","name":"max","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int256"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"event","name":"Increment","anonymous":false,"inputs":[{"name":"amount","type":"int256","indexed":false},{"name":"newValue","type":"int256","indexed":false}]},
	{"type":"event","name":"Decrement","anonymous":false,"inputs":[{"name":"amount","type":"int256","indexed":false},{"name":"newValue","type":"int256","indexed":false}]},
	{"type":"event","name":"SetCounter","anonymous":false,"inputs":[{"name":"newValue","type":"int256","indexed":false}]},
	{"type":"event","name":"ResetCounter","anonymous":false,"inputs":[]},
	{"type":"error","name":"Counter__OutofRange","inputs":[{"name":"min","type":"int256"},{"name":"max","type":"int256"},{"name":"value","type":"int256"}]},
	{"type":"error","name":"Counter__InvalidRange","inputs":[{"name":"initialValue","type":"int256"},{"name":"min","type":"int256"},{"name":"max","type":"int256"}]},
	{"type":"error","name":"Counter__NotOwner","inputs":[{"name":"caller","type":"address"}]}
]`

const (
	errOutOfRange   = "Counter__OutofRange"
	errInvalidRange = "Counter__InvalidRange"
	errNotOwner     = "Counter__NotOwner"
)

// revertSelector is the selector of Error(string).
var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

var parsedABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("failed to parse Counter ABI: %v", err))
	}
	return parsed
}

// ABI returns the parsed Counter ABI.
func ABI() abi.ABI {
	return parsedABI
}

// RevertData encodes a counter error as revert data. ok is false for errors
// that are not counter failures.
func RevertData(err error) (data []byte, ok bool) {
	var (
		argErr   *InvalidArgumentError
		rangeErr *OutOfRangeError
		ctorErr  *ConstructionError
		ownerErr *NotOwnerError
	)
	switch {
	case errors.Is(err, ErrUnspecifiedFailure):
		return []byte{}, true
	case errors.As(err, &argErr):
		return encodeReason(argErr.Reason)
	case errors.As(err, &rangeErr):
		return encodeCustomError(errOutOfRange, big.NewInt(rangeErr.Min), big.NewInt(rangeErr.Max), big.NewInt(rangeErr.Value))
	case errors.As(err, &ctorErr):
		return encodeCustomError(errInvalidRange, big.NewInt(ctorErr.InitialValue), big.NewInt(ctorErr.Min), big.NewInt(ctorErr.Max))
	case errors.As(err, &ownerErr):
		return encodeCustomError(errNotOwner, ownerErr.Caller)
	}
	return nil, false
}

// DecodeRevert maps revert data produced by the Counter back to its error.
// Unknown payloads are returned as a generic error.
func DecodeRevert(data []byte) error {
	if len(data) == 0 {
		return ErrUnspecifiedFailure
	}
	if len(data) < 4 {
		return fmt.Errorf("malformed revert data %x", data)
	}
	if bytes.Equal(data[:4], revertSelector) {
		reason, err := abi.UnpackRevert(data)
		if err != nil {
			return fmt.Errorf("decode revert reason: %w", err)
		}
		return &InvalidArgumentError{Reason: reason}
	}

	var id [4]byte
	copy(id[:], data[:4])
	abiErr, err := parsedABI.ErrorByID(id)
	if err != nil {
		return fmt.Errorf("unknown revert selector %x", id)
	}
	values, err := abiErr.Inputs.Unpack(data[4:])
	if err != nil {
		return fmt.Errorf("decode %s: %w", abiErr.Name, err)
	}

	switch abiErr.Name {
	case errOutOfRange:
		return &OutOfRangeError{Min: toInt64(values[0]), Max: toInt64(values[1]), Value: toInt64(values[2])}
	case errInvalidRange:
		return &ConstructionError{InitialValue: toInt64(values[0]), Min: toInt64(values[1]), Max: toInt64(values[2])}
	case errNotOwner:
		caller, _ := values[0].(common.Address)
		return &NotOwnerError{Caller: caller}
	}
	return fmt.Errorf("unhandled revert %s", abiErr.Name)
}

// EventLog encodes ev as a log emitted by the contract at addr.
func EventLog(addr common.Address, ev Event) (*types.Log, error) {
	abiEvent, ok := parsedABI.Events[ev.Kind.String()]
	if !ok {
		return nil, fmt.Errorf("unknown event kind %d", ev.Kind)
	}

	var args []any
	switch ev.Kind {
	case EventIncrement, EventDecrement:
		args = []any{big.NewInt(ev.Amount), big.NewInt(ev.NewValue)}
	case EventSetCounter:
		args = []any{big.NewInt(ev.NewValue)}
	}

	data, err := abiEvent.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s event: %w", abiEvent.Name, err)
	}
	return &types.Log{
		Address: addr,
		Topics:  []common.Hash{abiEvent.ID},
		Data:    data,
	}, nil
}

// ParseEvent decodes a Counter log. ResetCounter carries no payload, so its
// NewValue is left zero.
func ParseEvent(log *types.Log) (Event, error) {
	if len(log.Topics) == 0 {
		return Event{}, errors.New("log has no topics")
	}
	abiEvent, err := parsedABI.EventByID(log.Topics[0])
	if err != nil {
		return Event{}, fmt.Errorf("unknown event topic %s", log.Topics[0].Hex())
	}
	values, err := abiEvent.Inputs.Unpack(log.Data)
	if err != nil {
		return Event{}, fmt.Errorf("unpack %s: %w", abiEvent.Name, err)
	}

	switch abiEvent.Name {
	case "Increment":
		return Event{Kind: EventIncrement, Amount: toInt64(values[0]), NewValue: toInt64(values[1])}, nil
	case "Decrement":
		return Event{Kind: EventDecrement, Amount: toInt64(values[0]), NewValue: toInt64(values[1])}, nil
	case "SetCounter":
		return Event{Kind: EventSetCounter, NewValue: toInt64(values[0])}, nil
	default:
		return Event{Kind: EventResetCounter}, nil
	}
}

func encodeReason(reason string) ([]byte, bool) {
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		return nil, false
	}
	return append(append([]byte{}, revertSelector...), packed...), true
}

func encodeCustomError(name string, args ...any) ([]byte, bool) {
	abiErr := parsedABI.Errors[name]
	packed, err := abiErr.Inputs.Pack(args...)
	if err != nil {
		return nil, false
	}
	return append(append([]byte{}, abiErr.ID[:4]...), packed...), true
}

func toInt64(v any) int64 {
	if b, ok := v.(*big.Int); ok && b.IsInt64() {
		return b.Int64()
	}
	return 0
}
