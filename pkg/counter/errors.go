package counter

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrConstruction    = errors.New("invalid counter range")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfRange      = errors.New("counter out of range")
	ErrNotOwner        = errors.New("caller is not the owner")

	// ErrUnspecifiedFailure is the reason-less failure of an even decrement.
	ErrUnspecifiedFailure = errors.New("execution reverted")
)

// ConstructionError reports an initial value outside [min, max] or min >= max.
type ConstructionError struct {
	InitialValue int64
	Min          int64
	Max          int64
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("invalid counter range: initial value %d, min %d, max %d", e.InitialValue, e.Min, e.Max)
}

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

// InvalidArgumentError carries a textual revert reason.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string { return e.Reason }

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// OutOfRangeError is returned when an operation would leave [Min, Max].
// Value is the rejected value, saturated at the int64 bounds when the
// attempted sum overflows.
type OutOfRangeError struct {
	Min   int64
	Max   int64
	Value int64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("counter out of range: %d not in [%d, %d]", e.Value, e.Min, e.Max)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// NotOwnerError is returned for mutating calls from anyone but the owner.
type NotOwnerError struct {
	Caller common.Address
	Owner  common.Address
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("caller %s is not the owner", e.Caller.Hex())
}

func (e *NotOwnerError) Is(target error) bool { return target == ErrNotOwner }
