package ethrpc

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// EvmAPI implements the evm_* JSON-RPC namespace
type EvmAPI struct {
	server *Server
}

// NewEvmAPI creates a new EvmAPI instance
func NewEvmAPI(server *Server) *EvmAPI {
	return &EvmAPI{server: server}
}

// Mine mines a single block, optionally at the given timestamp
func (api *EvmAPI) Mine(timestamp *Quantity) (string, error) {
	var ts *uint64
	if timestamp != nil {
		v, err := timestamp.Uint64()
		if err != nil {
			return "", invalidParams("invalid timestamp: %v", err)
		}
		ts = &v
	}
	if _, err := api.server.chain.MineAt(ts); err != nil {
		return "", invalidParams("%v", err)
	}
	return "0x0", nil
}

// Snapshot captures the chain state and returns its id
func (api *EvmAPI) Snapshot() hexutil.Uint64 {
	id := api.server.chain.Snapshot()
	api.server.logger.Debug("Snapshot taken", zap.Uint64("id", id))
	return hexutil.Uint64(id)
}

// Revert restores a snapshot. It returns false for unknown or used ids.
func (api *EvmAPI) Revert(id Quantity) (bool, error) {
	n, err := id.Uint64()
	if err != nil {
		return false, invalidParams("invalid snapshot id: %v", err)
	}
	return api.server.chain.Revert(n), nil
}

// IncreaseTime moves the clock forward and returns the total offset in seconds
func (api *EvmAPI) IncreaseTime(seconds Quantity) (int64, error) {
	n, err := seconds.Uint64()
	if err != nil {
		return 0, invalidParams("invalid seconds: %v", err)
	}
	return api.server.chain.IncreaseTime(n), nil
}

// SetNextBlockTimestamp pins the timestamp of the next block
func (api *EvmAPI) SetNextBlockTimestamp(timestamp Quantity) (bool, error) {
	ts, err := timestamp.Uint64()
	if err != nil {
		return false, invalidParams("invalid timestamp: %v", err)
	}
	if err := api.server.chain.SetNextBlockTimestamp(ts); err != nil {
		return false, invalidParams("%v", err)
	}
	return true, nil
}

// SetAutomine toggles automining
func (api *EvmAPI) SetAutomine(enabled bool) bool {
	api.server.chain.SetAutomine(enabled)
	return true
}
