package usecase

import (
	"context"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/eligibility"
)

// AdviseUseCase re-runs explanation and recommendation on already extracted data.
type AdviseUseCase struct {
	classifier *eligibility.Classifier
}

func NewAdviseUseCase(classifier *eligibility.Classifier) *AdviseUseCase {
	return &AdviseUseCase{classifier: classifier}
}

func (uc *AdviseUseCase) Explain(_ context.Context, fv domain.FeatureVector) (*domain.ExplainabilityReport, error) {
	report, err := eligibility.Explain(uc.classifier.Model(), fv)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (uc *AdviseUseCase) Recommend(_ context.Context, decisionText string) []string {
	return eligibility.Recommend(decisionText)
}

func (uc *AdviseUseCase) ModelInfo() domain.ModelInfo {
	model := uc.classifier.Model()
	if model == nil {
		return domain.ModelInfo{}
	}
	importances := model.FeatureImportances()
	info := domain.ModelInfo{
		Version:     model.Version(),
		Importances: make(map[string]float64, domain.FeatureCount),
	}
	for i, name := range domain.FeatureNames {
		info.Importances[name] = importances[i]
	}
	return info
}
