package db

import (
	"database/sql"
	"fmt"
	"log"
)

// DataMigration represents a raw SQL migration applied after AutoMigrate
type DataMigration struct {
	Version     string
	Description string
	Up          func(*sql.DB) error
}

// GetDataMigrations return all data migrations (PostgreSQL only)
func GetDataMigrations() []DataMigration {
	return []DataMigration{
		{
			Version:     "data_001",
			Description: "Partial index for open tasks in assignment order",
			Up: execStatement(`
				CREATE INDEX IF NOT EXISTS idx_tasks_open_created
				ON tasks (created_at, id)
				WHERE done = false`),
		},
		{
			Version:     "data_002",
			Description: "Partial index for payouts awaiting dispatch",
			Up: execStatement(`
				CREATE INDEX IF NOT EXISTS idx_payouts_undispatched
				ON payouts (created_at)
				WHERE status = 'PROCESSING' AND dispatched_at IS NULL`),
		},
	}
}

// RunDataMigrations applies every data migration. Statements are idempotent.
func RunDataMigrations(db *sql.DB) error {
	for _, m := range GetDataMigrations() {
		log.Printf("🔧 Applying %s: %s", m.Version, m.Description)
		if err := m.Up(db); err != nil {
			return fmt.Errorf("data migration %s failed: %w", m.Version, err)
		}
	}
	return nil
}

func execStatement(stmt string) func(*sql.DB) error {
	return func(db *sql.DB) error {
		_, err := db.Exec(stmt)
		return err
	}
}
