package models

// Labels the judge is expected to return.
const (
	LabelFake      = "fake"
	LabelReal      = "real"
	LabelUncertain = "uncertain"
)

// DefaultFeedback is stored when a reviewer leaves the feedback field blank.
const DefaultFeedback = "The user did not post a feedback."

// Record is one analyzed claim, as persisted.
type Record struct {
	ID               string `json:"id" db:"id"`
	Timestamp        string `json:"timestamp" db:"timestamp"`
	InputType        string `json:"input_type" db:"input_type"` // "text" or "url"
	URL              string `json:"url" db:"url"`
	Title            string `json:"title" db:"title"`
	Text             string `json:"text" db:"text"`
	Label            string `json:"label" db:"label"`
	Confidence       int    `json:"confidence" db:"confidence"`
	Explanation      string `json:"explanation" db:"explanation"`
	ReviewerFeedback string `json:"reviewer_feedback" db:"reviewer_feedback"`
	UserID           *int64 `json:"user_id,omitempty" db:"user_id"`
}

// Verdict is what the judge returns for a claim. Values come straight from
// the model output when its JSON parses; see the fallback constants in
// internal/hf for everything else.
type Verdict struct {
	Label       string `json:"label"`
	Confidence  int    `json:"confidence"`
	Explanation string `json:"explanation"`
}

// CachedVerdict is the projection served on an exact-text cache hit.
type CachedVerdict struct {
	ID          string `json:"id" db:"id"`
	Label       string `json:"label" db:"label"`
	Confidence  int    `json:"confidence" db:"confidence"`
	Explanation string `json:"explanation" db:"explanation"`
}

// Stats aggregates the label column. Counting is case-insensitive substring
// match, so "Fake - confirmed" counts toward FakePercent.
type Stats struct {
	Total            int     `json:"total"`
	FakePercent      float64 `json:"fake_percent"`
	RealPercent      float64 `json:"real_percent"`
	UncertainPercent float64 `json:"uncertain_percent"`
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Text   string `json:"text" binding:"required"`
	UserID *int64 `json:"user_id,omitempty"`
}

// AnalyzeURLRequest is the body of POST /analyze_url.
type AnalyzeURLRequest struct {
	URL    string `json:"url" binding:"required"`
	UserID *int64 `json:"user_id,omitempty"`
}

// PredictResponse is returned by /predict and /analyze_url. Source is
// "database" when the verdict was served from a prior identical-text record,
// "model" otherwise.
type PredictResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Confidence  int    `json:"confidence"`
	Explanation string `json:"explanation"`
	Source      string `json:"source"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
}

// FeedbackRequest is the body of POST /update_feedback.
type FeedbackRequest struct {
	ID       string `json:"id" binding:"required"`
	Feedback string `json:"feedback"`
}

// SaveRequest is the body of POST /save_with_feedback: a full record written
// directly, bypassing classification.
type SaveRequest struct {
	InputType        string `json:"input_type"`
	URL              string `json:"url"`
	Title            string `json:"title"`
	Text             string `json:"text" binding:"required"`
	Label            string `json:"label" binding:"required"`
	Confidence       int    `json:"confidence"`
	Explanation      string `json:"explanation"`
	ReviewerFeedback string `json:"reviewer_feedback"`
	UserID           *int64 `json:"user_id,omitempty"`
}
