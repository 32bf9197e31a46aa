package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrConnect is returned when the database cannot be opened or migrated
var ErrConnect = errors.New("database: cannot connect")

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table, one row per key per day
type APIUsage struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	KeyID            uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date             string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount     int    `gorm:"default:0" json:"request_count"`
	TotalGroups      int    `gorm:"default:0" json:"total_groups"`
	TotalAssignments int    `gorm:"default:0" json:"total_assignments"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PlanRun stores one planning run and its documents
type PlanRun struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	SnapshotID       string         `gorm:"index;size:36;not null" json:"snapshot_id"`
	KeyID            uint           `gorm:"index" json:"key_id"`
	Seed             int64          `json:"seed"`
	Groups           int            `json:"groups"`
	Assignments      int            `json:"assignments"`
	Violations       int            `json:"violations"`
	MustVisitMissing int            `json:"must_visit_missing"`
	ElapsedMs        int64          `json:"elapsed_ms"`
	Result           datatypes.JSON `json:"result,omitempty"`
	Report           datatypes.JSON `json:"report,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Open connects to postgres when url is set, otherwise to the sqlite file
// at path, and migrates the schema.
func Open(url, path string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if url != "" {
		cfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  url,
			PreferSimpleProtocol: true,
		}), cfg)
	} else {
		if path == "" {
			path = "planner.db"
		}
		db, err = gorm.Open(sqlite.Open(path), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &PlanRun{}); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrConnect, err)
	}
	return nil
}
