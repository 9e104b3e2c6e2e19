package eligibility

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
)

const (
	approvedReasonPrefix = "Application approved. Key positive factors: "
	declinedReasonPrefix = "Application declined. Weak areas in: "
	factorCount          = 2
)

// Explain runs one forward pass and pairs every feature with the model's global importance.
// Approvals cite the two most important features, declines the two least important.
func Explain(model ports.EligibilityModel, fv domain.FeatureVector) (domain.ExplainabilityReport, error) {
	if model == nil {
		return domain.ExplainabilityReport{}, domain.WrapError(domain.ErrModelUnavailable, "explain", errNoModel)
	}
	input, err := fv.ModelInput()
	if err != nil {
		return domain.ExplainabilityReport{}, err
	}

	label, probability := model.Predict(input)
	importances := model.FeatureImportances()

	contributions := make(map[string]domain.FeatureContribution, domain.FeatureCount)
	for i, name := range domain.FeatureLabels {
		contributions[name] = domain.FeatureContribution{
			Value:      input[i],
			Importance: round3(importances[i]),
		}
	}

	factors := selectFactors(importances, label == 1)
	prefix := declinedReasonPrefix
	if label == 1 {
		prefix = approvedReasonPrefix
	}

	return domain.ExplainabilityReport{
		Prediction: label,
		Confidence: round3(probability),
		Features:   contributions,
		Factors:    factors,
		Reason:     prefix + strings.Join(factors, ", "),
	}, nil
}

// selectFactors ranks features by descending importance, equal weights keeping model input
// order. Approvals take the head of the ranking, declines its last two entries.
func selectFactors(importances [domain.FeatureCount]float64, highest bool) []string {
	order := make([]int, domain.FeatureCount)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(importances[b], importances[a])
	})

	picked := order[:factorCount]
	if !highest {
		picked = order[domain.FeatureCount-factorCount:]
	}
	out := make([]string, 0, factorCount)
	for _, idx := range picked {
		out = append(out, domain.FeatureLabels[idx])
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
