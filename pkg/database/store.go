package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a looked-up record does not exist
var ErrNotFound = errors.New("database: record not found")

// usageHistoryDays bounds usage listings
const usageHistoryDays = 30

// Store wraps the queries used by the HTTP layer
type Store struct {
	DB  *gorm.DB
	now func() time.Time
}

// NewStore creates a Store on db
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db, now: time.Now}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// CreateKey inserts a new API key
func (s *Store) CreateKey(key *APIKey) error {
	return s.DB.Create(key).Error
}

// TouchKey returns the record for key, creating it on first use, and
// stamps LastUsed.
func (s *Store) TouchKey(key, name string, rateLimit int) (*APIKey, error) {
	var apiKey APIKey
	err := s.DB.Where(APIKey{Key: key}).Attrs(APIKey{
		Name:       name,
		KeyPreview: Preview(key),
		RateLimit:  rateLimit,
	}).FirstOrCreate(&apiKey).Error
	if err != nil {
		return nil, err
	}
	now := s.now()
	apiKey.LastUsed = &now
	if err := s.DB.Model(&apiKey).Update("last_used", now).Error; err != nil {
		return nil, err
	}
	return &apiKey, nil
}

// ListKeys returns every API key
func (s *Store) ListKeys() ([]APIKey, error) {
	var keys []APIKey
	err := s.DB.Order("id").Find(&keys).Error
	return keys, err
}

// UpdateRateLimit changes the daily request budget of a key
func (s *Store) UpdateRateLimit(id uint, limit int) error {
	res := s.DB.Model(&APIKey{}).Where("id = ?", id).Update("rate_limit", limit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteKey revokes a key
func (s *Store) DeleteKey(id uint) error {
	res := s.DB.Delete(&APIKey{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordUsage adds one request to today's tally using a single upsert,
// supported by both Postgres and SQLite.
func (s *Store) RecordUsage(keyID uint, groups, assignments int) error {
	today := s.now().Format("2006-01-02")
	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":     gorm.Expr("request_count + ?", 1),
			"total_groups":      gorm.Expr("total_groups + ?", groups),
			"total_assignments": gorm.Expr("total_assignments + ?", assignments),
		}),
	}).Create(&APIUsage{
		KeyID:            keyID,
		Date:             today,
		RequestCount:     1,
		TotalGroups:      groups,
		TotalAssignments: assignments,
	}).Error
}

// Usage returns the most recent daily tallies of a key, newest first
func (s *Store) Usage(keyID uint) ([]APIUsage, error) {
	var usage []APIUsage
	err := s.DB.Where("key_id = ?", keyID).Order("date desc").Limit(usageHistoryDays).Find(&usage).Error
	return usage, err
}

// RequestsToday returns today's request count for a key
func (s *Store) RequestsToday(keyID uint) (int, error) {
	var usage APIUsage
	err := s.DB.Where("key_id = ? AND date = ?", keyID, s.now().Format("2006-01-02")).First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return usage.RequestCount, err
}

// SaveRun persists a planning run
func (s *Store) SaveRun(run *PlanRun) error {
	return s.DB.Create(run).Error
}

// ListRuns returns recent runs without their documents, newest first
func (s *Store) ListRuns(limit int) ([]PlanRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var runs []PlanRun
	err := s.DB.Omit("result", "report").Order("id desc").Limit(limit).Find(&runs).Error
	return runs, err
}

// GetRun returns the latest run with the given snapshot id
func (s *Store) GetRun(snapshotID string) (*PlanRun, error) {
	var run PlanRun
	if err := s.DB.Where("snapshot_id = ?", snapshotID).Order("id desc").First(&run).Error; err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

// FindUser looks up an admin by username
func (s *Store) FindUser(username string) (*MasterUser, error) {
	var user MasterUser
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CountUsers returns the number of admin accounts
func (s *Store) CountUsers() (int64, error) {
	var count int64
	err := s.DB.Model(&MasterUser{}).Count(&count).Error
	return count, err
}

// CreateUser inserts an admin account
func (s *Store) CreateUser(user *MasterUser) error {
	return s.DB.Create(user).Error
}

// Preview masks a key for listings, e.g. "abc...1f2e"
func Preview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}
