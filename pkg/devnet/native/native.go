// Package native defines contracts implemented in Go and hosted by the devnet
// in place of EVM bytecode.
package native

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// CallContext describes the message a contract is executing.
type CallContext struct {
	Sender      common.Address
	Address     common.Address
	Value       *big.Int
	BlockNumber uint64
	Timestamp   uint64
}

// Contract is a deployed contract instance. Logs returned from Call only need
// Address, Topics and Data; the chain fills in the block fields.
type Contract interface {
	Call(ctx CallContext, input []byte) ([]byte, []*types.Log, error)
	// Copy returns an independent instance with the same state.
	Copy() Contract
}

// Artifact is the compiled form of a contract: ABI, creation and runtime code,
// and the Go constructor that stands in for the creation code.
type Artifact struct {
	Name             string
	Compiler         string
	ABI              abi.ABI
	Bytecode         []byte
	DeployedBytecode []byte
	Deploy           func(ctx CallContext, args []byte) (Contract, error)
}

// CreationCode returns Bytecode followed by the ABI-encoded constructor args.
func (a *Artifact) CreationCode(args ...any) ([]byte, error) {
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s constructor args: %w", a.Name, err)
	}
	code := make([]byte, 0, len(a.Bytecode)+len(packed))
	code = append(code, a.Bytecode...)
	return append(code, packed...), nil
}

// Registry holds the artifacts a chain can deploy.
type Registry struct {
	mu        sync.RWMutex
	artifacts map[string]*Artifact
}

// NewRegistry creates a registry holding artifacts.
func NewRegistry(artifacts ...*Artifact) *Registry {
	r := &Registry{artifacts: make(map[string]*Artifact)}
	for _, a := range artifacts {
		r.Register(a)
	}
	return r
}

// Register adds or replaces an artifact by name.
func (r *Registry) Register(a *Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[a.Name] = a
}

// Artifact looks an artifact up by name.
func (r *Registry) Artifact(name string) (*Artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.artifacts[name]
	return a, ok
}

// Names returns the registered artifact names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.artifacts))
	for name := range r.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Match finds the artifact whose creation bytecode prefixes code and returns
// the remaining constructor arguments.
func (r *Registry) Match(code []byte) (*Artifact, []byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Artifact
	for _, a := range r.artifacts {
		if len(a.Bytecode) == 0 || !bytes.HasPrefix(code, a.Bytecode) {
			continue
		}
		if best == nil || len(a.Bytecode) > len(best.Bytecode) {
			best = a
		}
	}
	if best == nil {
		return nil, nil, false
	}
	return best, code[len(best.Bytecode):], true
}

// RevertError is a contract-level failure carrying ABI-encoded revert data.
// It satisfies the go-ethereum rpc error interfaces so the data reaches
// JSON-RPC clients unchanged.
type RevertError struct {
	Data []byte
}

// Revert wraps revert data in a RevertError.
func Revert(data []byte) *RevertError {
	return &RevertError{Data: common.CopyBytes(data)}
}

func (e *RevertError) Error() string {
	if reason, ok := e.Reason(); ok {
		return "execution reverted: " + reason
	}
	return "execution reverted"
}

// Reason decodes an Error(string) payload.
func (e *RevertError) Reason() (string, bool) {
	reason, err := abi.UnpackRevert(e.Data)
	if err != nil {
		return "", false
	}
	return reason, true
}

// ErrorCode is the JSON-RPC error code geth uses for reverts.
func (e *RevertError) ErrorCode() int { return 3 }

// ErrorData is the hex encoded revert data.
func (e *RevertError) ErrorData() interface{} { return hexutil.Encode(e.Data) }
