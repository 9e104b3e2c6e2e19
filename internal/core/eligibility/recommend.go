package eligibility

import (
	"slices"
	"strings"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

var (
	approvedRecommendations = []string{
		"Provide monthly financial aid.",
		"Offer upskilling / training opportunities.",
		"Support housing / rent assistance if required.",
	}
	declinedRecommendations = []string{
		"Application declined, but alternative support is available.",
		"Suggest free training & certification programs.",
		"Offer job-matching and career counseling.",
	}
	fallbackRecommendations = []string{
		"Unable to determine recommendations due to invalid data.",
	}
)

// Recommend maps rendered decision text to guidance. The result is a fresh slice.
func Recommend(decisionText string) []string {
	text := strings.ToLower(decisionText)
	switch {
	case strings.Contains(text, "approved"):
		return slices.Clone(approvedRecommendations)
	case strings.Contains(text, "declined"), strings.Contains(text, "soft"):
		return slices.Clone(declinedRecommendations)
	default:
		return slices.Clone(fallbackRecommendations)
	}
}

func RecommendFor(decision domain.Decision) []string {
	return Recommend(decision.String())
}
