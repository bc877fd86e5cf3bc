// Package devnetdb holds all the migrations for the deployment database
package devnetdb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the deployment database
var Migrations = migrate.NewMigrations()
