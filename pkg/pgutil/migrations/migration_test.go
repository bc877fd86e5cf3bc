package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/config"
	"github.com/chainsafe/counter-devnet/pkg/pgutil"
)

type testDao struct {
	bun.BaseModel `bun:"table:test_table"`
	ID            int64  `bun:",pk,autoincrement"`
	Network       string `bun:",notnull,type:varchar(64)"`
	Name          string `bun:",notnull,type:varchar(100)"`
}

func TestConnectDB_InvalidHost(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "invalid-host-that-does-not-exist",
		Port:     5432,
		User:     "test",
		Password: "test",
		Database: "test",
		SSLMode:  "disable",
	}

	db, err := pgutil.ConnectDB(context.Background(), cfg, zap.NewNop())
	if err == nil {
		db.Close()
		t.Error("ConnectDB() should fail with invalid host")
	}
}

func TestModelIndexName(t *testing.T) {
	// no connection is made until a query runs
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
	defer db.Close()

	name, err := ModelIndexName(db, &testDao{}, "network", "name")
	if err != nil {
		t.Fatalf("ModelIndexName() failed: %v", err)
	}
	if name != "idx_test_table_network_name" {
		t.Fatalf("ModelIndexName() = %s", name)
	}

	if _, err := ModelIndexName(db, &testDao{}); err == nil {
		t.Fatal("expected error without columns")
	}
	if _, err := ModelIndexName(db, nil, "name"); err == nil {
		t.Fatal("expected error for nil model")
	}
}

func TestCreateAndDropSchema(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &testDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	pgutil.AssertTableExists(t, db, "test_table")

	// idempotent
	if err := CreateSchema(ctx, db, &testDao{}); err != nil {
		t.Errorf("CreateSchema() second call failed: %v", err)
	}

	if err := DropTables(ctx, db, &testDao{}); err != nil {
		t.Fatalf("DropTables() failed: %v", err)
	}
	pgutil.AssertTableNotExists(t, db, "test_table")

	if err := DropTables(ctx, db, &testDao{}); err != nil {
		t.Errorf("DropTables() second call failed: %v", err)
	}
}

func TestCreateIndexes(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &testDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}

	if err := CreateModelIndexes(ctx, db, &testDao{}, "name"); err != nil {
		t.Fatalf("CreateModelIndexes() failed: %v", err)
	}
	pgutil.AssertIndexExists(t, db, "idx_test_table_name")

	if err := CreateModelUniqueIndex(ctx, db, &testDao{}, "network", "name"); err != nil {
		t.Fatalf("CreateModelUniqueIndex() failed: %v", err)
	}
	pgutil.AssertIndexExists(t, db, "idx_test_table_network_name")

	if _, err := db.NewInsert().Model(&testDao{Network: "hardhat", Name: "Counter"}).Exec(ctx); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := db.NewInsert().Model(&testDao{Network: "local", Name: "Counter"}).Exec(ctx); err != nil {
		t.Fatalf("insert on another network failed: %v", err)
	}
	if _, err := db.NewInsert().Model(&testDao{Network: "hardhat", Name: "Counter"}).Exec(ctx); err == nil {
		t.Error("expected duplicate insert to fail")
	}
}
