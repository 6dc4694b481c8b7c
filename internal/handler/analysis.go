package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MohammadAghaei1/Misinformation-detector/internal/models"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/service"
)

// AnalysisHandler handles classification, history and feedback requests.
type AnalysisHandler struct {
	judge  *service.JudgeService
	logger *zap.Logger
}

func NewAnalysisHandler(judge *service.JudgeService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{judge: judge, logger: logger}
}

// Predict classifies a raw text claim.
func (h *AnalysisHandler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.judge.AnalyzeText(c.Request.Context(), req.Text, req.UserID)
	if err != nil {
		h.logger.Error("Failed to analyze text", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AnalyzeURL scrapes the page and classifies its content.
func (h *AnalysisHandler) AnalyzeURL(c *gin.Context) {
	var req models.AnalyzeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.judge.AnalyzeURL(c.Request.Context(), req.URL, req.UserID)
	if err != nil {
		h.logger.Error("Failed to analyze URL", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History returns the most recent records, newest first.
func (h *AnalysisHandler) History(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	userID, ok := queryUserID(c)
	if !ok {
		return
	}

	records, err := h.judge.History(userID, limit)
	if err != nil {
		h.logger.Error("Failed to read history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}

	c.JSON(http.StatusOK, records)
}

// UpdateFeedback attaches reviewer feedback to a record.
func (h *AnalysisHandler) UpdateFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.judge.UpdateFeedback(req.ID, req.Feedback)
	if err != nil {
		h.logger.Error("Failed to update feedback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update feedback"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Stats returns aggregate label ratios.
func (h *AnalysisHandler) Stats(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}

	stats, err := h.judge.Stats(userID)
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ClearHistory deletes stored records, optionally scoped to one user.
func (h *AnalysisHandler) ClearHistory(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}

	if err := h.judge.ClearHistory(userID); err != nil {
		h.logger.Error("Failed to clear history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// SaveWithFeedback writes a full record directly, bypassing classification.
func (h *AnalysisHandler) SaveWithFeedback(c *gin.Context) {
	var req models.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.judge.SaveWithFeedback(req)
	if err != nil {
		h.logger.Error("Failed to save record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved", "id": id})
}

// queryUserID parses the optional user_id query parameter. It writes the
// error response itself and reports false on a malformed value.
func queryUserID(c *gin.Context) (*int64, bool) {
	raw := c.Query("user_id")
	if raw == "" {
		return nil, true
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return nil, false
	}
	return &id, true
}
