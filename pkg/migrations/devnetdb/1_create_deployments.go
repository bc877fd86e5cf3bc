package devnetdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/chainsafe/counter-devnet/pkg/deploystore"
	mghelper "github.com/chainsafe/counter-devnet/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating deployments table...")
		if err := mghelper.CreateSchema(ctx, db, &deploystore.DeploymentDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelUniqueIndex(ctx, db, &deploystore.DeploymentDao{}, "network", "name"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &deploystore.DeploymentDao{}, "address")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping deployments table...")
		return mghelper.DropTables(ctx, db, &deploystore.DeploymentDao{})
	})
}
