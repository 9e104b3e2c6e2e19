// Package ports declares the contracts between the eligibility core and its adapters.
package ports

import "github.com/kirillkom/social-support-ai/internal/core/domain"

// EligibilityModel is a loaded, read-only binary classifier over the five features in
// domain.FeatureNames order. Implementations must be safe for concurrent use.
type EligibilityModel interface {
	// Predict returns the class label (0 or 1) and the probability of class 1.
	Predict(x [domain.FeatureCount]float64) (label int, probability float64)
	// FeatureImportances returns the global importance weights aligned with the inputs.
	FeatureImportances() [domain.FeatureCount]float64
	Version() string
}

// FeatureExtractor derives a fully populated feature vector; it never fails.
type FeatureExtractor interface {
	Extract(payload domain.RawPayload) domain.FeatureVector
}
