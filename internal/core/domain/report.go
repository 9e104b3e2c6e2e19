package domain

import "time"

type FeatureContribution struct {
	Value      float64 `json:"value"`
	Importance float64 `json:"importance"`
}

// ExplainabilityReport pairs each feature with the model's global importance.
type ExplainabilityReport struct {
	Prediction int                            `json:"prediction"`
	Confidence float64                        `json:"confidence"`
	Features   map[string]FeatureContribution `json:"features"`
	Factors    []string                       `json:"factors"`
	Reason     string                         `json:"reason"`
}

// EvaluationRecord is the persisted per-user monitoring entry.
type EvaluationRecord struct {
	Timestamp      time.Time             `json:"timestamp"`
	UserID         string                `json:"user_id"`
	Features       FeatureVector         `json:"features"`
	Decision       string                `json:"decision"`
	Explainability *ExplainabilityReport `json:"explainability"`
}

// Evaluation is the full pipeline result returned to callers.
type Evaluation struct {
	UserID          string                `json:"user_id"`
	Data            RawPayload            `json:"data"`
	Features        FeatureVector         `json:"features"`
	Decision        Decision              `json:"decision"`
	DecisionText    string                `json:"decision_text"`
	Explainability  *ExplainabilityReport `json:"explainability,omitempty"`
	Reasoning       string                `json:"reasoning"`
	Recommendations []string              `json:"recommendations"`
}

// ReasoningErrorPrefix marks narrative replaced by a reasoning provider failure.
const ReasoningErrorPrefix = "[LLM Error]"

// ReasoningError renders a provider failure as substitute narrative.
func ReasoningError(reason string) string {
	return ReasoningErrorPrefix + " " + reason
}

// ModelInfo describes the loaded classifier.
type ModelInfo struct {
	Version     string             `json:"version"`
	Importances map[string]float64 `json:"importances"`
}
