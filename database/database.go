package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/doeboy11/TAKE-ME-THERE-sub000/models"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

var Database *DB

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Database = &DB{db}
	return Database, nil
}

// InitializeTables creates all tables if they don't exist
func (db *DB) InitializeTables() error {
	// Enable pgcrypto extension for gen_random_uuid()
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`); err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Order respects foreign key dependencies
	tables := []interface{}{
		models.User{},
		models.Business{},
		models.Review{},
		models.ReviewVote{},
		models.BusinessView{},
	}

	for _, model := range tables {
		if tableModel, ok := model.(interface {
			TableName() string
			CreateTableSQL() string
		}); ok {
			tableName := tableModel.TableName()
			createSQL := tableModel.CreateTableSQL()

			log.Printf("Creating table: %s", tableName)
			if _, err := db.Exec(createSQL); err != nil {
				return fmt.Errorf("failed to create table %s: %w", tableName, err)
			}
		}
	}

	// Run schema migrations
	if err := db.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("All tables created successfully!")
	return nil
}

// runMigrations handles schema updates for existing tables
func (db *DB) runMigrations() error {
	migrations := []string{
		// Role column predates the role claim on tokens; older DBs may miss it
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS role TEXT DEFAULT 'user';`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS is_active BOOLEAN DEFAULT TRUE;`,

		// Approval workflow columns added after the initial launch
		`ALTER TABLE businesses ADD COLUMN IF NOT EXISTS admin_notes TEXT;`,
		`ALTER TABLE businesses ADD COLUMN IF NOT EXISTS approved_at TIMESTAMP WITH TIME ZONE;`,
		`ALTER TABLE businesses ADD COLUMN IF NOT EXISTS approved_by UUID REFERENCES users(id);`,

		// Review extensions
		`ALTER TABLE reviews ADD COLUMN IF NOT EXISTS visit_date TIMESTAMP WITH TIME ZONE;`,
		`ALTER TABLE reviews ADD COLUMN IF NOT EXISTS helpful_votes INTEGER NOT NULL DEFAULT 0;`,
		`ALTER TABLE reviews ADD COLUMN IF NOT EXISTS updated_at TIMESTAMP WITH TIME ZONE DEFAULT now();`,

		// Contact-event source tag on the view log
		`ALTER TABLE business_views ADD COLUMN IF NOT EXISTS source TEXT;`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
