// Package deployment holds the record of a contract deployed to a network
package deployment

import (
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Deployment represents a contract deployed by a deploy function
type Deployment struct {
	ID          uuid.UUID      `json:"id"`
	Network     string         `json:"network"`
	Name        string         `json:"name"`
	Address     common.Address `json:"address"`
	TxHash      common.Hash    `json:"transaction_hash"`
	BlockNumber uint64         `json:"block_number"`
	Deployer    common.Address `json:"deployer"`
	// Args are the constructor arguments in decimal
	Args      []string  `json:"args"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a Deployment with a fresh id
func New(network, name string, address common.Address, txHash common.Hash, blockNumber uint64, deployer common.Address, args []string) *Deployment {
	return &Deployment{
		ID:          uuid.New(),
		Network:     network,
		Name:        name,
		Address:     address,
		TxHash:      txHash,
		BlockNumber: blockNumber,
		Deployer:    deployer,
		Args:        args,
		CreatedAt:   time.Now().UTC(),
	}
}

// FormatArgs renders constructor arguments for storage and comparison
func FormatArgs(args []*big.Int) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.String()
	}
	return out
}

// SameArgs reports whether the deployment was made with args
func (d *Deployment) SameArgs(args []string) bool {
	return slices.Equal(d.Args, args)
}
