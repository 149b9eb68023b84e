package model

// MatchType names the rule that produced an item's strongest score contribution.
type MatchType string

// Note match types.
const (
	MatchExactTitle     MatchType = "exact_title"
	MatchExactContent   MatchType = "exact_content"
	MatchFolder         MatchType = "folder_match"
	MatchContentKeyword MatchType = "content_keyword"
	MatchDate           MatchType = "date_match"
)

// Task match types.
const (
	MatchDateRange MatchType = "date_range_match"
	MatchKeyword   MatchType = "keyword_match"
)

// Location match types.
const (
	MatchGeographic  MatchType = "geographic_match"
	MatchCategory    MatchType = "category_match"
	MatchExact       MatchType = "exact_match"
	MatchRatingBoost MatchType = "rating_boost"
)

// Email match types.
const (
	MatchSender     MatchType = "sender_match"
	MatchSubject    MatchType = "subject_match"
	MatchContent    MatchType = "content_match"
	MatchImportance MatchType = "importance"
)

// MatchMerchant is the receipt match type for merchant hits. Receipts also
// use MatchDateRange and MatchCategory. Amount constraints only gate.
const MatchMerchant MatchType = "merchant_match"

// ScoredItem pairs a record with its relevance to the current query.
type ScoredItem[T any] struct {
	Item                 T
	MatchType            MatchType
	Distance             string
	MerchantType         string
	Snippets             []string
	ImportanceIndicators []string
	MerchantProducts     []string
	RelevanceScore       float64
}

// ClampScore bounds a score to [0,1].
func ClampScore(score float64) float64 {
	switch {
	case score != score: // NaN
		return 0
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// Normalize divides a raw score by its per-kind ceiling and clamps the result.
func Normalize(raw, ceiling float64) float64 {
	if ceiling <= 0 {
		return 0
	}
	return ClampScore(raw / ceiling)
}
