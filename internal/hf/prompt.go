package hf

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// SystemInstruction keeps the model from wrapping its verdict in prose.
const SystemInstruction = "Return ONLY valid JSON. No extra text."

const (
	// promptTextLimit bounds token cost on long articles.
	promptTextLimit = 1000
	// queryLimit is how much of the claim is used as the search query.
	QueryLimit = 200
)

const roleTextClaim = "You are a misinformation detector. A user pasted a raw news claim for fact-checking."

const roleURLArticle = "You are a misinformation detector. The following text was scraped from a news article URL for fact-checking."

// TruncateForPrompt caps the claim text before interpolation.
func TruncateForPrompt(text string) string {
	return truncateRunes(text, promptTextLimit)
}

// SearchQuery returns the leading slice of the claim used as the web query.
func SearchQuery(text string) string {
	return truncateRunes(text, QueryLimit)
}

// truncateRunes cuts on a rune boundary so non-ASCII claims never end up
// with a split rune in the prompt or query.
func truncateRunes(text string, limit int) string {
	if len(text) <= limit || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}

// BuildPrompt composes the grounded classification prompt: role framing,
// a current-date anchor to bias the model away from stale training
// knowledge, the retrieved evidence block, and the (truncated) claim.
func BuildPrompt(text string, isURL bool, evidence string, now time.Time) string {
	role := roleTextClaim
	if isURL {
		role = roleURLArticle
	}

	return fmt.Sprintf(`%s

Today's date is %s. Treat the evidence below as more current than your training data.

Verified web search evidence:
%s

News text:
%s

Instructions:
1. Extract the core factual claim from the news text.
2. Compare the claim strictly against the evidence above.
3. Label "real" ONLY if the evidence affirmatively confirms the claim is true.
4. Label "fake" ONLY if the evidence affirmatively confirms the claim is false or a known hoax.
5. Otherwise label "uncertain".
6. The explanation must cite the evidence, not your own prior knowledge.

Output ONLY a JSON object with keys:
label (one of "fake", "real", "uncertain"), confidence (0-100 integer), explanation (short string).`,
		role,
		now.Format("January 2, 2006"),
		evidence,
		TruncateForPrompt(text),
	)
}
