package migrations

import (
	"context"
	"testing"

	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/counter-devnet/pkg/migrations/devnetdb"
	"github.com/chainsafe/counter-devnet/pkg/pgutil"
	mghelper "github.com/chainsafe/counter-devnet/pkg/pgutil/migrations"
)

func TestDevnetDBMigrations_Apply(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, devnetdb.Migrations)

	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if group.IsZero() {
		t.Error("Expected migrations to run, but none were applied")
	}

	pgutil.AssertTableExists(t, db, "deployments")
	pgutil.AssertTableExists(t, db, "bun_migrations")
	pgutil.AssertIndexExists(t, db, "idx_deployments_network_name")
	pgutil.AssertIndexExists(t, db, "idx_deployments_address")

	// a second run applies nothing
	group, err = migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Second Migrate() failed: %v", err)
	}
	if !group.IsZero() {
		t.Error("Expected no new migrations on second run")
	}
}

func TestDevnetDBMigrations_Rollback(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, devnetdb.Migrations)
	if err := mghelper.RunMigrations(ctx, migrator, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := mghelper.RunMigrations(ctx, migrator, "up"); err != nil {
		t.Fatalf("up failed: %v", err)
	}
	pgutil.AssertTableExists(t, db, "deployments")

	if err := mghelper.RunMigrations(ctx, migrator, "status"); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if err := mghelper.RunMigrations(ctx, migrator, "down"); err != nil {
		t.Fatalf("down failed: %v", err)
	}
	pgutil.AssertTableNotExists(t, db, "deployments")
}

func TestRunMigrations_UnknownCommand(t *testing.T) {
	// the command is checked before the migrator is used
	if err := mghelper.RunMigrations(context.Background(), nil, "sideways"); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if err := mghelper.RunMigrations(context.Background(), nil); err == nil {
		t.Fatal("expected error without a command")
	}
}
