package main

import (
	"context"
	"flag"
	"log"

	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/config"
	"github.com/chainsafe/counter-devnet/pkg/migrations/devnetdb"
	"github.com/chainsafe/counter-devnet/pkg/pgutil"
	mghelper "github.com/chainsafe/counter-devnet/pkg/pgutil/migrations"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	ctx := context.Background()
	db, err := pgutil.ConnectDB(ctx, &cfg.Database, zap.NewNop())
	if err != nil {
		log.Fatalf("%s", err.Error())
	}
	defer func() { _ = db.Close() }()

	log.Printf("Running migrations for deployment database (%s)...\n", cfg.Database.Database)

	migrator := migrate.NewMigrator(db, devnetdb.Migrations)
	if err := mghelper.RunMigrations(ctx, migrator, flag.Args()...); err != nil {
		mghelper.Exitf(err.Error())
	}
}
