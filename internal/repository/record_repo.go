package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/MohammadAghaei1/Misinformation-detector/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// RecordRepository persists classification records.
type RecordRepository interface {
	Append(record *models.Record) error
	History(userID *int64, limit int) ([]models.Record, error)
	CheckCache(text string, userID *int64) (*models.CachedVerdict, error)
	UpdateFeedback(id, feedback string) (bool, error)
	Stats(userID *int64) (models.Stats, error)
	ClearHistory(userID *int64) error
}

type recordRepository struct {
	db *sqlx.DB
	// perUserCache scopes the exact-text lookup to one user instead of
	// sharing verdicts across users.
	perUserCache bool
	logger       *zap.Logger
}

func NewRecordRepository(db *sqlx.DB, perUserCache bool, logger *zap.Logger) RecordRepository {
	return &recordRepository{db: db, perUserCache: perUserCache, logger: logger}
}

// Append inserts one record. ID and timestamp are assigned here when the
// caller left them empty; blank reviewer feedback gets the sentinel default.
// Text is stored trimmed so later CheckCache lookups match regardless of
// how the submission was padded.
func (r *recordRepository) Append(record *models.Record) error {
	record.Text = strings.TrimSpace(record.Text)
	if record.ID == "" {
		record.ID = uuid.New().String()[:8]
	}
	if record.Timestamp == "" {
		record.Timestamp = time.Now().Format(timestampLayout)
	}
	if record.Title == "" {
		record.Title = "N/A"
	}
	if strings.TrimSpace(record.ReviewerFeedback) == "" {
		record.ReviewerFeedback = models.DefaultFeedback
	}

	query := r.db.Rebind(`
		INSERT INTO records (
			id, timestamp, input_type, url, title, text,
			label, confidence, explanation, reviewer_feedback, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.Exec(query,
		record.ID,
		record.Timestamp,
		record.InputType,
		record.URL,
		record.Title,
		record.Text,
		record.Label,
		record.Confidence,
		record.Explanation,
		record.ReviewerFeedback,
		record.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// History returns the most recent records, newest first.
func (r *recordRepository) History(userID *int64, limit int) ([]models.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, timestamp, input_type, url, title, text,
		       label, confidence, explanation, reviewer_feedback, user_id
		FROM records
	`
	args := []interface{}{}
	if userID != nil {
		query += " WHERE user_id = ?"
		args = append(args, *userID)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	records := []models.Record{}
	if err := r.db.Select(&records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	return records, nil
}

// CheckCache returns the first record whose stored text, trimmed, exactly
// equals the trimmed input, or nil when no match. The lookup is shared
// across users unless the repository was built with per-user caching.
func (r *recordRepository) CheckCache(text string, userID *int64) (*models.CachedVerdict, error) {
	query := `
		SELECT id, label, confidence, explanation
		FROM records
		WHERE TRIM(text) = ?
	`
	args := []interface{}{strings.TrimSpace(text)}
	if r.perUserCache && userID != nil {
		query += " AND user_id = ?"
		args = append(args, *userID)
	}
	query += " ORDER BY timestamp LIMIT 1"

	var cached models.CachedVerdict
	err := r.db.Get(&cached, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check cache: %w", err)
	}

	return &cached, nil
}

// UpdateFeedback sets reviewer feedback on the record matching id and
// reports whether a row was affected. Blank feedback stores the sentinel.
func (r *recordRepository) UpdateFeedback(id, feedback string) (bool, error) {
	if strings.TrimSpace(feedback) == "" {
		feedback = models.DefaultFeedback
	}

	query := r.db.Rebind(`UPDATE records SET reviewer_feedback = ? WHERE id = ?`)
	result, err := r.db.Exec(query, feedback, id)
	if err != nil {
		return false, fmt.Errorf("failed to update feedback: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, nil
}

// Stats aggregates label counts as case-insensitive substring matches, so
// a label like "Fake - confirmed" still counts toward the fake ratio.
func (r *recordRepository) Stats(userID *int64) (models.Stats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN LOWER(label) LIKE '%fake%' THEN 1 ELSE 0 END), 0) AS fake_count,
			COALESCE(SUM(CASE WHEN LOWER(label) LIKE '%real%' THEN 1 ELSE 0 END), 0) AS real_count,
			COALESCE(SUM(CASE WHEN LOWER(label) LIKE '%uncertain%' THEN 1 ELSE 0 END), 0) AS uncertain_count
		FROM records
	`
	args := []interface{}{}
	if userID != nil {
		query += " WHERE user_id = ?"
		args = append(args, *userID)
	}

	var row struct {
		Total     int `db:"total"`
		Fake      int `db:"fake_count"`
		Real      int `db:"real_count"`
		Uncertain int `db:"uncertain_count"`
	}
	if err := r.db.Get(&row, r.db.Rebind(query), args...); err != nil {
		return models.Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}

	stats := models.Stats{Total: row.Total}
	if row.Total > 0 {
		stats.FakePercent = percent(row.Fake, row.Total)
		stats.RealPercent = percent(row.Real, row.Total)
		stats.UncertainPercent = percent(row.Uncertain, row.Total)
	}

	return stats, nil
}

// ClearHistory deletes all records, optionally scoped to one user.
func (r *recordRepository) ClearHistory(userID *int64) error {
	query := "DELETE FROM records"
	args := []interface{}{}
	if userID != nil {
		query += " WHERE user_id = ?"
		args = append(args, *userID)
	}

	if _, err := r.db.Exec(r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	r.logger.Info("History cleared", zap.Any("user_id", userID))
	return nil
}

func percent(count, total int) float64 {
	return math.Round(float64(count)/float64(total)*1000) / 10
}
