package ethrpc

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/devnet"
)

// HardhatAPI implements the hardhat_* JSON-RPC namespace
type HardhatAPI struct {
	server *Server
}

// NewHardhatAPI creates a new HardhatAPI instance
func NewHardhatAPI(server *Server) *HardhatAPI {
	return &HardhatAPI{server: server}
}

// Mine mines blocks blocks (default 1) spaced interval seconds apart (default 1)
func (api *HardhatAPI) Mine(blocks *Quantity, interval *Quantity) (bool, error) {
	count, step := uint64(1), uint64(1)
	var err error
	if blocks != nil {
		if count, err = blocks.Uint64(); err != nil {
			return false, invalidParams("invalid block count: %v", err)
		}
	}
	if interval != nil {
		if step, err = interval.Uint64(); err != nil {
			return false, invalidParams("invalid interval: %v", err)
		}
	}
	if count == 0 {
		return true, nil
	}

	head, err := api.server.chain.Mine(count, step)
	if errors.Is(err, devnet.ErrTooManyBlocks) {
		return false, invalidParams("%v", err)
	}
	if err != nil {
		return false, err
	}
	api.server.logger.Debug("Mined blocks",
		zap.Uint64("blocks", count),
		zap.Uint64("interval", step),
		zap.Uint64("latest", head.Number()))
	return true, nil
}

// SetBalance overwrites the balance of an address
func (api *HardhatAPI) SetBalance(address common.Address, balance Quantity) (bool, error) {
	if err := api.server.chain.SetBalance(address, balance.ToInt()); err != nil {
		return false, invalidParams("%v", err)
	}
	return true, nil
}

// SetCode replaces the code of an address
func (api *HardhatAPI) SetCode(address common.Address, code hexutil.Bytes) bool {
	api.server.chain.SetCode(address, code)
	return true
}

// SetNonce sets the nonce of an address
func (api *HardhatAPI) SetNonce(address common.Address, nonce Quantity) (bool, error) {
	n, err := nonce.Uint64()
	if err != nil {
		return false, invalidParams("invalid nonce: %v", err)
	}
	if err := api.server.chain.SetNonce(address, n); err != nil {
		return false, invalidParams("%v", err)
	}
	return true, nil
}

// SetStorageAt writes a 32-byte value into a storage slot
func (api *HardhatAPI) SetStorageAt(address common.Address, slot Quantity, value hexutil.Bytes) (bool, error) {
	if len(value) != common.HashLength {
		return false, invalidParams("storage value must be exactly 32 bytes, got %d", len(value))
	}
	api.server.chain.SetStorageAt(address, common.BigToHash(slot.ToInt()), common.BytesToHash(value))
	return true, nil
}

// ImpersonateAccount allows sending transactions from address without its key
func (api *HardhatAPI) ImpersonateAccount(address common.Address) bool {
	api.server.chain.ImpersonateAccount(address)
	api.server.logger.Info("Impersonating account", zap.String("address", address.Hex()))
	return true
}

// StopImpersonatingAccount reverses ImpersonateAccount
func (api *HardhatAPI) StopImpersonatingAccount(address common.Address) bool {
	return api.server.chain.StopImpersonatingAccount(address)
}

// DropTransaction removes a transaction from the mempool
func (api *HardhatAPI) DropTransaction(hash common.Hash) (bool, error) {
	return api.server.chain.DropTransaction(hash)
}

// GetAutomine reports whether automining is enabled
func (api *HardhatAPI) GetAutomine() bool {
	return api.server.chain.Automine()
}
