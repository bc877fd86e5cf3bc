package devnet

import "errors"

// Transaction admission errors. Messages follow the ones go-ethereum returns so
// clients pattern-matching on them keep working.
var (
	ErrNonceTooLow       = errors.New("nonce too low")
	ErrNonceTooHigh      = errors.New("nonce too high")
	ErrIntrinsicGas      = errors.New("intrinsic gas too low")
	ErrGasLimit          = errors.New("exceeds block gas limit")
	ErrFeeCapTooLow      = errors.New("max fee per gas less than block base fee")
	ErrTipAboveFeeCap    = errors.New("max priority fee per gas higher than max fee per gas")
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")
	ErrAlreadyKnown      = errors.New("already known")
	ErrInvalidSender     = errors.New("invalid sender")
	ErrUnknownAccount    = errors.New("unknown account")
)

// State manipulation errors.
var (
	ErrInvalidBlockCount = errors.New("number of blocks must be greater than 0")
	ErrTooManyBlocks     = errors.New("too many blocks to mine at once")
	ErrBlockInPast       = errors.New("block number must be greater than the latest block")
	ErrTimestampTooLow   = errors.New("timestamp must be greater than the latest block timestamp")
	ErrNonceDecrease     = errors.New("nonce cannot be decreased")
	ErrNonceWithPending  = errors.New("cannot set nonce of an account with pending transactions")
	ErrTxAlreadyMined    = errors.New("transaction has already been mined")
	ErrUnknownBlock      = errors.New("unknown block")
	ErrNoNativeContract  = errors.New("creation code does not match any registered artifact")
	ErrContractCollision = errors.New("contract address collision")
	ErrOutOfGas          = errors.New("out of gas")
)
