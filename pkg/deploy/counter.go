package deploy

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/config"
	"github.com/chainsafe/counter-devnet/pkg/counter"
)

// TagCounter selects the Counter deployment
const TagCounter = "counter"

// DeployCounter deploys the Counter from the deployer account with the
// configured constructor args. A failed deployment is logged and does not
// stop the deploy functions after it.
func DeployCounter(cfg config.CounterDeployConfig) Func {
	return Func{
		Name: "deployCounter",
		Tags: []string{TagAll, TagCounter},
		Run: func(ctx context.Context, env *Env) error {
			env.Log("Deploying Counter contract.......")

			args := make([]*big.Int, len(cfg.Args))
			for i, a := range cfg.Args {
				args[i] = big.NewInt(a)
			}

			res, err := env.Deploy(ctx, counter.ContractName, DeployOptions{
				From:              "deployer",
				Args:              args,
				Log:               true,
				WaitConfirmations: cfg.WaitConfirmations,
			})
			if err != nil {
				env.Logger.Error("Counter deployment failed", zap.Error(err))
				env.Log("%v", err)
				return nil
			}

			env.Log("contract deployed successfully. Transaction hash is %s, address is %s", res.TxHash.Hex(), res.Address.Hex())
			env.Log("------------------------")
			return nil
		},
	}
}

// Funcs returns the deploy functions of this project in run order
func Funcs(cfg config.DeployConfig) []Func {
	return []Func{DeployCounter(cfg.Counter)}
}
