package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"crowdmint-backend/internal/config"

	_ "github.com/lib/pq"
)

// tables and the constraints the ledger depends on
var requiredTables = []string{"users", "workers", "tasks", "options", "submissions", "payouts"}

var requiredConstraints = []string{
	"chk_workers_pending_balance",
	"chk_workers_locked_balance",
	"chk_tasks_amount",
	"chk_payouts_amount",
}

func main() {
	fmt.Println("🔍 Verifying database connection and schema...")
	fmt.Println(strings.Repeat("=", 60))

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatal("database dsn is not configured")
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	var dbName string
	if err := sqlDB.QueryRow("SELECT current_database()").Scan(&dbName); err != nil {
		log.Fatalf("Failed to get database name: %v", err)
	}
	fmt.Printf("📋 Connected to database: %s\n", dbName)

	missing := 0
	for _, table := range requiredTables {
		var exists bool
		err := sqlDB.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			log.Fatalf("Failed to check table %s: %v", table, err)
		}
		if exists {
			fmt.Printf("✅ table %s\n", table)
		} else {
			fmt.Printf("❌ table %s is missing\n", table)
			missing++
		}
	}

	for _, name := range requiredConstraints {
		var exists bool
		err := sqlDB.QueryRow(`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = $1)`, name).Scan(&exists)
		if err != nil {
			log.Fatalf("Failed to check constraint %s: %v", name, err)
		}
		if exists {
			fmt.Printf("✅ constraint %s\n", name)
		} else {
			fmt.Printf("❌ constraint %s is missing\n", name)
			missing++
		}
	}

	if missing > 0 {
		fmt.Printf("\n❌ %d schema objects missing, run `crowdmint-backend migrate`\n", missing)
		os.Exit(1)
	}
	fmt.Println("\n✅ Schema is complete")
}
