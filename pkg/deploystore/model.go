package deploystore

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/chainsafe/counter-devnet/pkg/deployment"
)

// DeploymentDao is a data access object that maps directly to the 'deployments' table in PostgreSQL.
type DeploymentDao struct {
	bun.BaseModel `bun:"table:deployments,alias:d"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Network       string    `bun:"network,notnull,type:varchar(64)"`
	Name          string    `bun:"name,notnull,type:varchar(128)"`
	Address       string    `bun:"address,notnull,type:varchar(42)"`
	TxHash        string    `bun:"tx_hash,notnull,type:varchar(66)"`
	BlockNumber   int64     `bun:"block_number,notnull"`
	Deployer      string    `bun:"deployer,notnull,type:varchar(42)"`
	Args          []string  `bun:"args,type:jsonb"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toDeploymentDao(d *deployment.Deployment) *DeploymentDao {
	return &DeploymentDao{
		ID:          d.ID,
		Network:     d.Network,
		Name:        d.Name,
		Address:     d.Address.Hex(),
		TxHash:      d.TxHash.Hex(),
		BlockNumber: int64(d.BlockNumber),
		Deployer:    d.Deployer.Hex(),
		Args:        d.Args,
		CreatedAt:   d.CreatedAt,
	}
}

func toDeployment(dao *DeploymentDao) *deployment.Deployment {
	return &deployment.Deployment{
		ID:          dao.ID,
		Network:     dao.Network,
		Name:        dao.Name,
		Address:     common.HexToAddress(dao.Address),
		TxHash:      common.HexToHash(dao.TxHash),
		BlockNumber: uint64(dao.BlockNumber),
		Deployer:    common.HexToAddress(dao.Deployer),
		Args:        dao.Args,
		CreatedAt:   dao.CreatedAt.UTC(),
	}
}
