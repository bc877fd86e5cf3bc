package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksMined counts blocks produced by the devnet
	BlocksMined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "devnet_blocks_mined_total",
			Help: "Total number of blocks mined",
		},
	)

	// Transactions counts executed transactions by outcome
	Transactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devnet_transactions_total",
			Help: "Total number of transactions executed",
		},
		[]string{"kind", "status"},
	)

	// RejectedTransactions counts transactions refused before execution
	RejectedTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devnet_transactions_rejected_total",
			Help: "Total number of transactions rejected at submission",
		},
		[]string{"reason"},
	)

	// PendingTransactions tracks the mempool size
	PendingTransactions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "devnet_pending_transactions",
			Help: "Number of transactions waiting to be mined",
		},
	)

	// LatestBlock tracks the head block number
	LatestBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "devnet_latest_block",
			Help: "Latest block number",
		},
	)

	// GasUsed tracks gas used per transaction
	GasUsed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devnet_gas_used",
			Help:    "Gas used by executed transactions",
			Buckets: []float64{21000, 50000, 100000, 200000, 300000, 500000},
		},
		[]string{"kind"},
	)

	// StateOperations counts snapshot, revert and state manipulation calls
	StateOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devnet_state_operations_total",
			Help: "Total number of state manipulation operations",
		},
		[]string{"operation"},
	)

	// CounterOperations counts Counter contract calls by method and result
	CounterOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counter_operations_total",
			Help: "Total number of Counter operations",
		},
		[]string{"method", "result"},
	)

	// Deployments counts deployment attempts by contract and status
	Deployments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployments_total",
			Help: "Total number of contract deployments",
		},
		[]string{"contract", "status"},
	)

	// DeployDuration tracks how long deployments take including confirmations
	DeployDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deployment_duration_seconds",
			Help:    "Deployment duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"contract"},
	)
)
