package devnet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/internal/metrics"
	"github.com/chainsafe/counter-devnet/pkg/devnet/native"
)

// Gas charged for native execution on top of the intrinsic gas.
const (
	NativeCallGas   = 30_000
	NativeCreateGas = 150_000
)

// Message is an unsigned transaction or call request. Zero and nil fields are
// filled with chain defaults.
type Message struct {
	From      common.Address
	To        *common.Address
	Gas       uint64
	GasPrice  *big.Int
	GasFeeCap *big.Int
	GasTipCap *big.Int
	Value     *big.Int
	Data      []byte
	Nonce     *uint64
}

// IntrinsicGas returns the gas a transaction pays before execution.
func IntrinsicGas(data []byte, create bool) uint64 {
	gas := uint64(params.TxGas)
	if create {
		gas = params.TxGasContractCreation
	}
	for _, b := range data {
		if b == 0 {
			gas += params.TxDataZeroGas
		} else {
			gas += params.TxDataNonZeroGasEIP2028
		}
	}
	return gas
}

// SendRawTransaction decodes and submits a signed transaction.
func (c *Chain) SendRawTransaction(raw []byte) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, fmt.Errorf("invalid transaction: %w", err)
	}
	return c.SendTransaction(tx)
}

// SendTransaction submits a signed transaction. With automine on the
// transaction is mined before returning; if it reverted the returned error is
// a *native.RevertError and the hash is still valid.
func (c *Chain) SendTransaction(tx *types.Transaction) (common.Hash, error) {
	from, err := types.Sender(c.signer, tx)
	if err != nil {
		metrics.RejectedTransactions.WithLabelValues("invalid_sender").Inc()
		return common.Hash{}, fmt.Errorf("%w: %v", ErrInvalidSender, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submit(tx, tx.Hash(), from)
}

// SendMessage submits a transaction on behalf of an unlocked or impersonated
// account. Unlocked accounts sign with their key; impersonated ones produce an
// unsigned transaction whose hash also commits to the sender.
func (c *Chain) SendMessage(msg Message) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, unlocked := c.keys[msg.From]
	_, impersonated := c.impersonated[msg.From]
	if !unlocked && !impersonated {
		metrics.RejectedTransactions.WithLabelValues("unknown_account").Inc()
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownAccount, msg.From.Hex())
	}

	tx := c.buildTx(msg)
	if unlocked && !impersonated {
		signed, err := types.SignTx(tx, c.signer, key)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
		}
		return c.submit(signed, signed.Hash(), msg.From)
	}
	return c.submit(tx, crypto.Keccak256Hash(tx.Hash().Bytes(), msg.From.Bytes()), msg.From)
}

func (c *Chain) buildTx(msg Message) *types.Transaction {
	nonce := c.pendingNonce(msg.From)
	if msg.Nonce != nil {
		nonce = *msg.Nonce
	}
	gas := msg.Gas
	if gas == 0 {
		gas = c.cfg.GasLimit
	}
	value := new(big.Int)
	if msg.Value != nil {
		value.Set(msg.Value)
	}

	if msg.GasFeeCap != nil || msg.GasTipCap != nil {
		tip := msg.GasTipCap
		if tip == nil {
			tip = DefaultPriorityFee
		}
		feeCap := msg.GasFeeCap
		if feeCap == nil {
			feeCap = new(big.Int).Add(new(big.Int).Mul(c.cfg.BaseFee, big.NewInt(2)), tip)
		}
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   c.ChainID(),
			Nonce:     nonce,
			GasTipCap: new(big.Int).Set(tip),
			GasFeeCap: new(big.Int).Set(feeCap),
			Gas:       gas,
			To:        msg.To,
			Value:     value,
			Data:      common.CopyBytes(msg.Data),
		})
	}

	price := msg.GasPrice
	if price == nil {
		price = c.GasPrice()
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: new(big.Int).Set(price),
		Gas:      gas,
		To:       msg.To,
		Value:    value,
		Data:     common.CopyBytes(msg.Data),
	})
}

// submit validates and queues tx. Callers hold c.mu.
func (c *Chain) submit(tx *types.Transaction, hash common.Hash, from common.Address) (common.Hash, error) {
	if _, ok := c.w.txs[hash]; ok {
		metrics.RejectedTransactions.WithLabelValues("already_known").Inc()
		return common.Hash{}, ErrAlreadyKnown
	}
	if err := c.validate(tx, from); err != nil {
		metrics.RejectedTransactions.WithLabelValues(rejectReason(err)).Inc()
		c.logger.Debug("Transaction rejected",
			zap.String("hash", hash.Hex()),
			zap.String("from", from.Hex()),
			zap.Error(err))
		return common.Hash{}, err
	}

	c.w.txs[hash] = &txRecord{tx: tx, hash: hash, from: from}
	c.w.pending = append(c.w.pending, hash)
	metrics.PendingTransactions.Set(float64(len(c.w.pending)))

	c.logger.Debug("Transaction queued",
		zap.String("hash", hash.Hex()),
		zap.String("from", from.Hex()),
		zap.Uint64("nonce", tx.Nonce()))

	if !c.automine {
		return hash, nil
	}
	for {
		rec, ok := c.w.txs[hash]
		if !ok {
			return common.Hash{}, fmt.Errorf("transaction %s dropped during mining", hash.Hex())
		}
		if rec.mined {
			return hash, rec.err
		}
		// stays queued behind a nonce gap
		if block := c.mineBlock(c.nextTimestamp()); len(block.Transactions) == 0 {
			return hash, nil
		}
	}
}

func (c *Chain) validate(tx *types.Transaction, from common.Address) error {
	expected := c.pendingNonce(from)
	switch {
	case tx.Nonce() < expected:
		return fmt.Errorf("%w: address %s, tx: %d state: %d", ErrNonceTooLow, from.Hex(), tx.Nonce(), expected)
	case tx.Nonce() > expected:
		return fmt.Errorf("%w: address %s, tx: %d state: %d", ErrNonceTooHigh, from.Hex(), tx.Nonce(), expected)
	}
	if tx.Gas() > c.cfg.GasLimit {
		return fmt.Errorf("%w: %d > %d", ErrGasLimit, tx.Gas(), c.cfg.GasLimit)
	}
	if intrinsic := IntrinsicGas(tx.Data(), tx.To() == nil); tx.Gas() < intrinsic {
		return fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, tx.Gas(), intrinsic)
	}
	if tx.GasTipCap().Cmp(tx.GasFeeCap()) > 0 {
		return ErrTipAboveFeeCap
	}
	if tx.GasFeeCap().Cmp(c.cfg.BaseFee) < 0 {
		return fmt.Errorf("%w: address %s, maxFeePerGas: %s, baseFee: %s", ErrFeeCapTooLow, from.Hex(), tx.GasFeeCap(), c.cfg.BaseFee)
	}

	balance := new(big.Int)
	if acc, ok := c.w.accounts[from]; ok {
		balance = acc.balance
	}
	if cost := tx.Cost(); balance.Cmp(cost) < 0 {
		return fmt.Errorf("%w: address %s have %s want %s", ErrInsufficientFunds, from.Hex(), balance, cost)
	}
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNonceTooLow), errors.Is(err, ErrNonceTooHigh):
		return "nonce"
	case errors.Is(err, ErrGasLimit), errors.Is(err, ErrIntrinsicGas):
		return "gas"
	case errors.Is(err, ErrFeeCapTooLow), errors.Is(err, ErrTipAboveFeeCap):
		return "fee"
	case errors.Is(err, ErrInsufficientFunds):
		return "funds"
	}
	return "other"
}

// effectiveGasPrice is baseFee + min(tip, feeCap-baseFee). For legacy
// transactions tip and fee cap are both the gas price.
func effectiveGasPrice(tx *types.Transaction, baseFee *big.Int) *big.Int {
	tip := new(big.Int).Sub(tx.GasFeeCap(), baseFee)
	if tx.GasTipCap().Cmp(tip) < 0 {
		tip.Set(tx.GasTipCap())
	}
	return tip.Add(tip, baseFee)
}

// execution is the outcome of applying one transaction.
type execution struct {
	gasUsed  uint64
	price    *big.Int
	logs     []*types.Log
	contract *common.Address
	kind     string
	err      error
}

// apply executes rec against the current world. A nonce above the account's
// leaves the transaction waiting with ErrNonceTooHigh; a stale nonce or a
// drained balance means it can no longer be included. Callers hold c.mu.
func (c *Chain) apply(rec *txRecord, env native.CallContext) (*execution, error) {
	tx := rec.tx
	acc := c.w.account(rec.from)
	switch {
	case tx.Nonce() > acc.nonce:
		return nil, ErrNonceTooHigh
	case tx.Nonce() < acc.nonce:
		return nil, ErrNonceTooLow
	case acc.balance.Cmp(tx.Cost()) < 0:
		return nil, ErrInsufficientFunds
	}

	ex := &execution{
		gasUsed: IntrinsicGas(tx.Data(), tx.To() == nil),
		price:   effectiveGasPrice(tx, c.cfg.BaseFee),
		kind:    "transfer",
	}
	acc.nonce++

	env.Sender = rec.from
	env.Value = tx.Value()

	if tx.To() == nil {
		ex.kind = "create"
		addr := crypto.CreateAddress(rec.from, tx.Nonce())
		env.Address = addr
		ex.gasUsed += NativeCreateGas
		if tx.Gas() < ex.gasUsed {
			ex.gasUsed, ex.err = tx.Gas(), ErrOutOfGas
		} else if ex.err = c.create(env, tx.Data()); ex.err == nil {
			ex.contract = &addr
		}
	} else {
		to := *tx.To()
		env.Address = to
		if k, ok := c.w.contracts[to]; ok {
			ex.kind = "call"
			ex.gasUsed += NativeCallGas
			if tx.Gas() < ex.gasUsed {
				ex.gasUsed, ex.err = tx.Gas(), ErrOutOfGas
			} else {
				_, ex.logs, ex.err = k.Call(env, tx.Data())
			}
		}
		if ex.err == nil {
			c.transfer(rec.from, to, tx.Value())
		}
	}
	if ex.err != nil {
		ex.logs = nil
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(ex.gasUsed), ex.price)
	acc.balance.Sub(acc.balance, fee)
	tip := new(big.Int).Sub(ex.price, c.cfg.BaseFee)
	tip.Mul(tip, new(big.Int).SetUint64(ex.gasUsed))
	coinbase := c.w.account(c.cfg.Coinbase)
	coinbase.balance.Add(coinbase.balance, tip)

	return ex, nil
}

func (c *Chain) create(env native.CallContext, data []byte) error {
	if target, ok := c.w.accounts[env.Address]; ok && (len(target.code) > 0 || target.nonce > 0) {
		return ErrContractCollision
	}
	art, args, ok := c.registry.Match(data)
	if !ok {
		return ErrNoNativeContract
	}
	k, err := art.Deploy(env, args)
	if err != nil {
		return err
	}
	target := c.w.account(env.Address)
	target.code = common.CopyBytes(art.DeployedBytecode)
	target.nonce = 1
	c.w.contracts[env.Address] = k
	c.transfer(env.Sender, env.Address, env.Value)
	return nil
}

func (c *Chain) transfer(from, to common.Address, value *big.Int) {
	if value == nil || value.Sign() == 0 {
		return
	}
	src, dst := c.w.account(from), c.w.account(to)
	src.balance.Sub(src.balance, value)
	dst.balance.Add(dst.balance, value)
}
