package db

import (
	"errors"
	"os"
)

// TestStore is the shared store used by the live-database tests. It stays
// nil until InitTestDB has run.
var TestStore Store

// InitTestDB connects to the database named by TEST_DATABASE_URL, runs
// the migrations and wires TestStore. Tests that need a live database
// call this once and skip when the variable is unset.
func InitTestDB(migrationsPath string) error {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		return errors.New("TEST_DATABASE_URL environment variable is not set")
	}

	if err := Init(dbURL); err != nil {
		return err
	}

	if err := RunMigrations(migrationsPath); err != nil {
		return err
	}

	TestStore = NewStore()
	return nil
}
