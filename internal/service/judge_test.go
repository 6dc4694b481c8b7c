package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MohammadAghaei1/Misinformation-detector/internal/models"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/repository"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/scraper"
)

type fakeJudge struct {
	verdict models.Verdict
	calls   int
}

func (f *fakeJudge) Judge(ctx context.Context, text string, isURL bool, evidence string) models.Verdict {
	f.calls++
	return f.verdict
}

type fakeEvidence struct {
	block string
	calls int
}

func (f *fakeEvidence) FetchEvidence(ctx context.Context, query string) string {
	f.calls++
	return f.block
}

type fakeContent struct {
	article scraper.Article
}

func (f *fakeContent) Fetch(ctx context.Context, url string) scraper.Article {
	return f.article
}

func newTestService(t *testing.T, judge *fakeJudge, evidence *fakeEvidence, content *fakeContent) *JudgeService {
	t.Helper()
	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewRecordRepository(db, false, zap.NewNop())
	return NewJudgeService(judge, evidence, content, repo, time.Minute, false, zap.NewNop())
}

func newPerUserTestService(t *testing.T, judge *fakeJudge, evidence *fakeEvidence) *JudgeService {
	t.Helper()
	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// The users table has a foreign key on records.user_id and
	// PRAGMA foreign_keys is ON, so the two principals used by the
	// per-user tests (IDs 1 and 2) must exist before any Append.
	auth := repository.NewAuthRepository(db, zap.NewNop())
	require.NoError(t, auth.CreateUser(&models.User{Email: "alice@example.com", PasswordHash: "x"}))
	require.NoError(t, auth.CreateUser(&models.User{Email: "bob@example.com", PasswordHash: "x"}))

	repo := repository.NewRecordRepository(db, true, zap.NewNop())
	return NewJudgeService(judge, evidence, &fakeContent{}, repo, time.Minute, true, zap.NewNop())
}

func TestAnalyzeTextCacheMissThenHit(t *testing.T) {
	judge := &fakeJudge{verdict: models.Verdict{Label: "fake", Confidence: 80, Explanation: "Debunked."}}
	evidence := &fakeEvidence{block: "Source: X\nFact: Y"}
	svc := newTestService(t, judge, evidence, &fakeContent{})

	first, err := svc.AnalyzeText(context.Background(), "The moon is cheese.", nil)
	require.NoError(t, err)
	assert.Equal(t, "model", first.Source)
	assert.Equal(t, "fake", first.Label)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 1, judge.calls)

	// Same trimmed text: the stored verdict is served, the judge is not
	// invoked a second time.
	second, err := svc.AnalyzeText(context.Background(), "   The moon is cheese. ", nil)
	require.NoError(t, err)
	assert.Equal(t, "database", second.Source)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Explanation, second.Explanation)
	assert.Equal(t, 1, judge.calls)
	assert.Equal(t, 1, evidence.calls)
}

func TestPerUserCacheScopesVerdictsByUser(t *testing.T) {
	judge := &fakeJudge{verdict: models.Verdict{Label: "fake", Confidence: 80, Explanation: "Debunked."}}
	svc := newPerUserTestService(t, judge, &fakeEvidence{block: "e"})

	alice := int64(1)
	bob := int64(2)

	first, err := svc.AnalyzeText(context.Background(), "shared claim", &alice)
	require.NoError(t, err)
	assert.Equal(t, "model", first.Source)
	assert.Equal(t, 1, judge.calls)

	// A different user never sees another user's cached verdict.
	other, err := svc.AnalyzeText(context.Background(), "shared claim", &bob)
	require.NoError(t, err)
	assert.Equal(t, "model", other.Source)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, 2, judge.calls)

	// The original user still gets their own cached verdict.
	again, err := svc.AnalyzeText(context.Background(), "shared claim", &alice)
	require.NoError(t, err)
	assert.Equal(t, "database", again.Source)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 2, judge.calls)
}

func TestAnalyzeURLPersistsTitleAndURL(t *testing.T) {
	judge := &fakeJudge{verdict: models.Verdict{Label: "real", Confidence: 70, Explanation: "Confirmed."}}
	content := &fakeContent{article: scraper.Article{
		URL:   "https://news.example.com/story",
		Title: "Big Story",
		Text:  "Something happened.",
	}}
	svc := newTestService(t, judge, &fakeEvidence{block: "evidence"}, content)

	resp, err := svc.AnalyzeURL(context.Background(), "https://news.example.com/story", nil)
	require.NoError(t, err)
	assert.Equal(t, "model", resp.Source)
	assert.Equal(t, "Big Story", resp.Title)
	assert.Equal(t, "https://news.example.com/story", resp.URL)

	history, err := svc.History(nil, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "url", history[0].InputType)
	assert.Equal(t, "Big Story", history[0].Title)
	assert.Equal(t, "Something happened.", history[0].Text)
}

func TestAnalyzeURLFailedScrapeStillJudged(t *testing.T) {
	judge := &fakeJudge{verdict: models.Verdict{Label: "uncertain", Confidence: 0, Explanation: "No content."}}
	content := &fakeContent{article: scraper.Article{
		URL:   "https://down.example.com",
		Title: "N/A",
		Text:  "",
	}}
	svc := newTestService(t, judge, &fakeEvidence{block: "evidence"}, content)

	resp, err := svc.AnalyzeURL(context.Background(), "https://down.example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "uncertain", resp.Label)
	assert.Equal(t, 1, judge.calls)
}

func TestClearHistoryFlushesHotCache(t *testing.T) {
	judge := &fakeJudge{verdict: models.Verdict{Label: "fake", Confidence: 80, Explanation: "x"}}
	svc := newTestService(t, judge, &fakeEvidence{block: "e"}, &fakeContent{})

	_, err := svc.AnalyzeText(context.Background(), "claim", nil)
	require.NoError(t, err)
	require.NoError(t, svc.ClearHistory(nil))

	// With both caches gone the judge runs again.
	resp, err := svc.AnalyzeText(context.Background(), "claim", nil)
	require.NoError(t, err)
	assert.Equal(t, "model", resp.Source)
	assert.Equal(t, 2, judge.calls)
}

func TestSaveWithFeedback(t *testing.T) {
	svc := newTestService(t, &fakeJudge{}, &fakeEvidence{}, &fakeContent{})

	id, err := svc.SaveWithFeedback(models.SaveRequest{
		Text:             "hand-labeled claim",
		Label:            "fake",
		Confidence:       100,
		Explanation:      "Manually verified hoax.",
		ReviewerFeedback: "Checked against primary sources.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	history, err := svc.History(nil, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "text", history[0].InputType)
	assert.Equal(t, "Checked against primary sources.", history[0].ReviewerFeedback)
}

func TestUpdateFeedbackPassthrough(t *testing.T) {
	judge := &fakeJudge{verdict: models.Verdict{Label: "fake", Confidence: 80, Explanation: "x"}}
	svc := newTestService(t, judge, &fakeEvidence{block: "e"}, &fakeContent{})

	resp, err := svc.AnalyzeText(context.Background(), "claim", nil)
	require.NoError(t, err)

	updated, err := svc.UpdateFeedback(resp.ID, "Nice.")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = svc.UpdateFeedback("nope1234", "Nice.")
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestStatsThroughService(t *testing.T) {
	judge := &fakeJudge{verdict: models.Verdict{Label: "fake", Confidence: 80, Explanation: "x"}}
	svc := newTestService(t, judge, &fakeEvidence{block: "e"}, &fakeContent{})

	_, err := svc.AnalyzeText(context.Background(), "claim one", nil)
	require.NoError(t, err)

	stats, err := svc.Stats(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.InDelta(t, 100.0, stats.FakePercent, 0.01)
}
