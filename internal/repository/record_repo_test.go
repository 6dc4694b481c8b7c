package repository

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MohammadAghaei1/Misinformation-detector/internal/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestUser(t *testing.T, db *sqlx.DB, email string) int64 {
	t.Helper()
	repo := NewAuthRepository(db, zap.NewNop())
	user := &models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, repo.CreateUser(user))
	return user.ID
}

func TestAppendAssignsIDTimestampAndSentinel(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t), false, zap.NewNop())

	record := &models.Record{
		InputType:   "text",
		Text:        "Paris is the capital.",
		Label:       "real",
		Confidence:  95,
		Explanation: "Well known.",
	}
	require.NoError(t, repo.Append(record))

	assert.Len(t, record.ID, 8)
	assert.NotEmpty(t, record.Timestamp)
	assert.Equal(t, models.DefaultFeedback, record.ReviewerFeedback)
	assert.Equal(t, "N/A", record.Title)

	history, err := repo.History(nil, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)
}

func TestCheckCacheHitsPaddedSubmission(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t), false, zap.NewNop())

	// Textarea input routinely carries a trailing newline; the stored
	// text must still serve later lookups for the bare claim.
	record := &models.Record{
		InputType:   "text",
		Text:        "claim\n\t",
		Label:       "fake",
		Confidence:  80,
		Explanation: "Debunked.",
	}
	require.NoError(t, repo.Append(record))
	assert.Equal(t, "claim", record.Text)

	cached, err := repo.CheckCache("claim", nil)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "fake", cached.Label)
}

func TestCheckCacheTrimsWhitespace(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t), false, zap.NewNop())

	require.NoError(t, repo.Append(&models.Record{
		InputType:   "text",
		Text:        "Paris is the capital.",
		Label:       "real",
		Confidence:  95,
		Explanation: "Well known.",
	}))

	cached, err := repo.CheckCache("  Paris is the capital.  ", nil)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "real", cached.Label)
	assert.Equal(t, 95, cached.Confidence)

	miss, err := repo.CheckCache("London is the capital.", nil)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestCheckCacheSharedAcrossUsersByDefault(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db, false, zap.NewNop())

	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	require.NoError(t, repo.Append(&models.Record{
		InputType: "text", Text: "claim", Label: "fake", UserID: &alice,
	}))

	// Bob gets Alice's verdict: the cache is global unless scoped.
	cached, err := repo.CheckCache("claim", &bob)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "fake", cached.Label)
}

func TestCheckCachePerUserScoping(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db, true, zap.NewNop())

	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	require.NoError(t, repo.Append(&models.Record{
		InputType: "text", Text: "claim", Label: "fake", UserID: &alice,
	}))

	cached, err := repo.CheckCache("claim", &bob)
	require.NoError(t, err)
	assert.Nil(t, cached)

	cached, err = repo.CheckCache("claim", &alice)
	require.NoError(t, err)
	require.NotNil(t, cached)
}

func TestUpdateFeedback(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t), false, zap.NewNop())

	record := &models.Record{InputType: "text", Text: "claim", Label: "fake"}
	require.NoError(t, repo.Append(record))

	updated, err := repo.UpdateFeedback(record.ID, "Good catch.")
	require.NoError(t, err)
	assert.True(t, updated)

	history, err := repo.History(nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "Good catch.", history[0].ReviewerFeedback)

	// Blank feedback stores the sentinel.
	updated, err = repo.UpdateFeedback(record.ID, "   ")
	require.NoError(t, err)
	assert.True(t, updated)

	history, err = repo.History(nil, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFeedback, history[0].ReviewerFeedback)
}

func TestUpdateFeedbackUnknownID(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t), false, zap.NewNop())

	updated, err := repo.UpdateFeedback("deadbeef", "feedback")
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestStatsEmptyStore(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t), false, zap.NewNop())

	stats, err := repo.Stats(nil)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{}, stats)
}

func TestStatsSubstringCounting(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t), false, zap.NewNop())

	require.NoError(t, repo.Append(&models.Record{InputType: "text", Text: "a", Label: "fake"}))
	require.NoError(t, repo.Append(&models.Record{InputType: "text", Text: "b", Label: "Fake - confirmed"}))

	stats, err := repo.Stats(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.InDelta(t, 100.0, stats.FakePercent, 0.01)
	assert.InDelta(t, 0.0, stats.RealPercent, 0.01)
}

func TestStatsRounding(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t), false, zap.NewNop())

	require.NoError(t, repo.Append(&models.Record{InputType: "text", Text: "a", Label: "fake"}))
	require.NoError(t, repo.Append(&models.Record{InputType: "text", Text: "b", Label: "real"}))
	require.NoError(t, repo.Append(&models.Record{InputType: "text", Text: "c", Label: "uncertain"}))

	stats, err := repo.Stats(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	// 1/3 rounded to one decimal
	assert.InDelta(t, 33.3, stats.FakePercent, 0.01)
	assert.InDelta(t, 33.3, stats.RealPercent, 0.01)
	assert.InDelta(t, 33.3, stats.UncertainPercent, 0.01)
}

func TestHistoryOrderAndLimit(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t), false, zap.NewNop())

	require.NoError(t, repo.Append(&models.Record{
		InputType: "text", Text: "old", Label: "fake", Timestamp: "2026-01-01 10:00:00",
	}))
	require.NoError(t, repo.Append(&models.Record{
		InputType: "text", Text: "mid", Label: "real", Timestamp: "2026-02-01 10:00:00",
	}))
	require.NoError(t, repo.Append(&models.Record{
		InputType: "text", Text: "new", Label: "uncertain", Timestamp: "2026-03-01 10:00:00",
	}))

	history, err := repo.History(nil, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "new", history[0].Text)
	assert.Equal(t, "mid", history[1].Text)
}

func TestClearHistoryScopedToUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db, false, zap.NewNop())

	alice := newTestUser(t, db, "alice@example.com")

	require.NoError(t, repo.Append(&models.Record{InputType: "text", Text: "a", Label: "fake", UserID: &alice}))
	require.NoError(t, repo.Append(&models.Record{InputType: "text", Text: "b", Label: "real"}))

	require.NoError(t, repo.ClearHistory(&alice))

	history, err := repo.History(nil, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "b", history[0].Text)

	require.NoError(t, repo.ClearHistory(nil))
	history, err = repo.History(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
