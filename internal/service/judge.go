package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/MohammadAghaei1/Misinformation-detector/internal/hf"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/models"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/repository"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/scraper"
)

const (
	sourceDatabase = "database"
	sourceModel    = "model"
)

// Judge produces a verdict for a claim. Implementations never error; they
// degrade to uncertain fallbacks instead.
type Judge interface {
	Judge(ctx context.Context, text string, isURL bool, evidence string) models.Verdict
}

// EvidenceFetcher retrieves a prompt-ready evidence block for a query.
type EvidenceFetcher interface {
	FetchEvidence(ctx context.Context, query string) string
}

// ContentFetcher resolves a URL into article content.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) scraper.Article
}

// JudgeService runs the triage pipeline: cache lookup, evidence retrieval,
// classification, persistence.
type JudgeService struct {
	judge    Judge
	evidence EvidenceFetcher
	content  ContentFetcher
	repo     repository.RecordRepository
	// hot is an in-process TTL cache in front of the DB exact-text lookup.
	hot          *gocache.Cache
	perUserCache bool
	logger       *zap.Logger
}

func NewJudgeService(
	judge Judge,
	evidence EvidenceFetcher,
	content ContentFetcher,
	repo repository.RecordRepository,
	cacheTTL time.Duration,
	perUserCache bool,
	logger *zap.Logger,
) *JudgeService {
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}
	return &JudgeService{
		judge:        judge,
		evidence:     evidence,
		content:      content,
		repo:         repo,
		hot:          gocache.New(cacheTTL, 2*cacheTTL),
		perUserCache: perUserCache,
		logger:       logger,
	}
}

// AnalyzeText classifies a raw text claim, serving a stored verdict when the
// same trimmed text was analyzed before.
func (s *JudgeService) AnalyzeText(ctx context.Context, text string, userID *int64) (*models.PredictResponse, error) {
	return s.analyze(ctx, models.Record{
		InputType: "text",
		Title:     "N/A",
		Text:      text,
		UserID:    userID,
	}, false)
}

// AnalyzeURL scrapes the page first, then runs the same pipeline on the
// extracted text. A failed scrape yields empty text, which typically
// classifies as uncertain for lack of content.
func (s *JudgeService) AnalyzeURL(ctx context.Context, url string, userID *int64) (*models.PredictResponse, error) {
	article := s.content.Fetch(ctx, url)

	return s.analyze(ctx, models.Record{
		InputType: "url",
		URL:       article.URL,
		Title:     article.Title,
		Text:      article.Text,
		UserID:    userID,
	}, true)
}

func (s *JudgeService) analyze(ctx context.Context, record models.Record, isURL bool) (*models.PredictResponse, error) {
	trimmed := strings.TrimSpace(record.Text)

	if cached, ok := s.hotLookup(trimmed, record.UserID); ok {
		return s.cachedResponse(cached, record), nil
	}

	cached, err := s.repo.CheckCache(trimmed, record.UserID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		s.hotStore(trimmed, record.UserID, cached)
		return s.cachedResponse(cached, record), nil
	}

	// Cache miss: ground the claim with live search, then judge. The
	// check-then-append sequence is advisory, not exclusive; two
	// concurrent identical submissions can both reach the model.
	evidence := s.evidence.FetchEvidence(ctx, hf.SearchQuery(trimmed))
	verdict := s.judge.Judge(ctx, trimmed, isURL, evidence)

	record.Label = verdict.Label
	record.Confidence = verdict.Confidence
	record.Explanation = verdict.Explanation
	if err := s.repo.Append(&record); err != nil {
		return nil, err
	}

	s.hotStore(trimmed, record.UserID, &models.CachedVerdict{
		ID:          record.ID,
		Label:       record.Label,
		Confidence:  record.Confidence,
		Explanation: record.Explanation,
	})

	s.logger.Info("Claim judged",
		zap.String("id", record.ID),
		zap.String("label", record.Label),
		zap.Int("confidence", record.Confidence))

	return &models.PredictResponse{
		ID:          record.ID,
		Label:       record.Label,
		Confidence:  record.Confidence,
		Explanation: record.Explanation,
		Source:      sourceModel,
		Title:       record.Title,
		URL:         record.URL,
	}, nil
}

func (s *JudgeService) cachedResponse(cached *models.CachedVerdict, record models.Record) *models.PredictResponse {
	s.logger.Info("Cache hit", zap.String("id", cached.ID))
	return &models.PredictResponse{
		ID:          cached.ID,
		Label:       cached.Label,
		Confidence:  cached.Confidence,
		Explanation: cached.Explanation,
		Source:      sourceDatabase,
		Title:       record.Title,
		URL:         record.URL,
	}
}

// History returns the newest records first.
func (s *JudgeService) History(userID *int64, limit int) ([]models.Record, error) {
	return s.repo.History(userID, limit)
}

// UpdateFeedback attaches reviewer feedback to a record by id.
func (s *JudgeService) UpdateFeedback(id, feedback string) (bool, error) {
	return s.repo.UpdateFeedback(id, feedback)
}

// Stats aggregates label ratios.
func (s *JudgeService) Stats(userID *int64) (models.Stats, error) {
	return s.repo.Stats(userID)
}

// ClearHistory drops stored records (optionally one user's) and flushes the
// hot cache so cleared verdicts stop being served.
func (s *JudgeService) ClearHistory(userID *int64) error {
	if err := s.repo.ClearHistory(userID); err != nil {
		return err
	}
	s.hot.Flush()
	return nil
}

// SaveWithFeedback writes a full record directly, bypassing classification.
func (s *JudgeService) SaveWithFeedback(req models.SaveRequest) (string, error) {
	inputType := req.InputType
	if inputType == "" {
		inputType = "text"
	}

	record := models.Record{
		InputType:        inputType,
		URL:              req.URL,
		Title:            req.Title,
		Text:             req.Text,
		Label:            req.Label,
		Confidence:       req.Confidence,
		Explanation:      req.Explanation,
		ReviewerFeedback: req.ReviewerFeedback,
		UserID:           req.UserID,
	}
	if err := s.repo.Append(&record); err != nil {
		return "", err
	}

	return record.ID, nil
}

func (s *JudgeService) hotLookup(trimmed string, userID *int64) (*models.CachedVerdict, bool) {
	if trimmed == "" {
		return nil, false
	}
	if v, ok := s.hot.Get(s.hotKey(trimmed, userID)); ok {
		cached, ok := v.(*models.CachedVerdict)
		return cached, ok
	}
	return nil, false
}

func (s *JudgeService) hotStore(trimmed string, userID *int64, cached *models.CachedVerdict) {
	if trimmed == "" {
		return
	}
	s.hot.SetDefault(s.hotKey(trimmed, userID), cached)
}

func (s *JudgeService) hotKey(trimmed string, userID *int64) string {
	if s.perUserCache && userID != nil {
		return fmt.Sprintf("%d:%s", *userID, trimmed)
	}
	return trimmed
}
