package devnet

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
)

// Call executes msg against a copy of the latest state and returns the
// output. Nothing it does is persisted.
func (c *Chain) Call(msg Message) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.call(msg)
}

// EstimateGas returns the gas msg would use when sent as a transaction. A
// reverting msg returns its *native.RevertError.
func (c *Chain) EstimateGas(msg Message) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if msg.Value != nil && msg.Value.Sign() > 0 {
		balance := new(big.Int)
		if acc, ok := c.w.accounts[msg.From]; ok {
			balance = acc.balance
		}
		if balance.Cmp(msg.Value) < 0 {
			return 0, fmt.Errorf("%w: address %s have %s want %s", ErrInsufficientFunds, msg.From.Hex(), balance, msg.Value)
		}
	}

	gas := IntrinsicGas(msg.Data, msg.To == nil)
	switch {
	case msg.To == nil:
		gas += NativeCreateGas
	default:
		if _, ok := c.w.contracts[*msg.To]; ok {
			gas += NativeCallGas
		}
	}
	if _, err := c.call(msg); err != nil {
		return 0, err
	}
	if gas > c.cfg.GasLimit {
		return 0, fmt.Errorf("%w: %d > %d", ErrGasLimit, gas, c.cfg.GasLimit)
	}
	return gas, nil
}

func (c *Chain) call(msg Message) ([]byte, error) {
	latest := c.w.latest()
	env := native.CallContext{
		Sender:      msg.From,
		Value:       msg.Value,
		BlockNumber: latest.Number() + 1,
		Timestamp:   c.peekTimestamp(),
	}

	if msg.To == nil {
		env.Address = crypto.CreateAddress(msg.From, c.pendingNonce(msg.From))
		art, args, ok := c.registry.Match(msg.Data)
		if !ok {
			return nil, ErrNoNativeContract
		}
		if _, err := art.Deploy(env, args); err != nil {
			return nil, err
		}
		return append([]byte(nil), art.DeployedBytecode...), nil
	}

	env.Address = *msg.To
	k, ok := c.w.contracts[*msg.To]
	if !ok {
		return []byte{}, nil
	}
	out, _, err := k.Copy().Call(env, msg.Data)
	return out, err
}

// peekTimestamp is nextTimestamp without consuming a pinned value.
func (c *Chain) peekTimestamp() uint64 {
	if c.w.nextTimestamp != nil {
		return *c.w.nextTimestamp
	}
	prev := c.w.latest().Time()
	now := c.clock.Now().Unix() + c.w.timeOffset
	if now <= int64(prev) {
		return prev + 1
	}
	return uint64(now)
}
