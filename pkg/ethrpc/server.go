package ethrpc

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/devnet"
)

// ClientVersion is reported by web3_clientVersion
const ClientVersion = "counter-devnet/v1.0.0"

// Server exposes a devnet chain over Ethereum JSON-RPC
type Server struct {
	chain     *devnet.Chain
	logger    *zap.Logger
	rpcServer *rpc.Server
}

// NewServer creates a new Ethereum JSON-RPC server backed by chain
func NewServer(chain *devnet.Chain, logger *zap.Logger) (*Server, error) {
	s := &Server{
		chain:     chain,
		logger:    logger,
		rpcServer: rpc.NewServer(),
	}

	apis := map[string]interface{}{
		"eth":     NewEthAPI(s),
		"net":     NewNetAPI(s),
		"web3":    NewWeb3API(),
		"hardhat": NewHardhatAPI(s),
		"evm":     NewEvmAPI(s),
	}
	for namespace, api := range apis {
		if err := s.rpcServer.RegisterName(namespace, api); err != nil {
			return nil, fmt.Errorf("failed to register %s API: %w", namespace, err)
		}
	}

	logger.Info("Ethereum JSON-RPC server initialized",
		zap.String("chain_id", chain.ChainID().String()))

	return s, nil
}

// ServeHTTP handles HTTP requests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.rpcServer.ServeHTTP(w, r)
}

// DialInProc returns a client connected to the server without a transport
func (s *Server) DialInProc() *rpc.Client {
	return rpc.DialInProc(s.rpcServer)
}

// Stop closes all in-process and HTTP connections
func (s *Server) Stop() {
	s.rpcServer.Stop()
}

// invalidParamsError is reported with the JSON-RPC invalid params code
type invalidParamsError struct {
	msg string
}

func invalidParams(format string, args ...any) error {
	return &invalidParamsError{msg: fmt.Sprintf(format, args...)}
}

func (e *invalidParamsError) Error() string { return e.msg }

func (e *invalidParamsError) ErrorCode() int { return -32602 }
