// Package eligibility turns feature vectors into decisions, explanations and guidance.
package eligibility

import (
	"errors"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
)

var errNoModel = errors.New("no model loaded")

// Classifier gates on identity validity before consulting the injected model.
type Classifier struct {
	model ports.EligibilityModel
}

func NewClassifier(model ports.EligibilityModel) *Classifier {
	return &Classifier{model: model}
}

// Predict returns INVALID without touching the model when age is unknown.
func (c *Classifier) Predict(fv domain.FeatureVector) (domain.Decision, error) {
	if !fv.Age.Known() {
		return domain.InvalidDecision(), nil
	}
	if c == nil || c.model == nil {
		return domain.Decision{}, domain.WrapError(domain.ErrModelUnavailable, "predict", errNoModel)
	}

	input, err := fv.ModelInput()
	if err != nil {
		return domain.Decision{}, err
	}
	label, probability := c.model.Predict(input)
	return domain.ClassifiedDecision(label, probability), nil
}

func (c *Classifier) Model() ports.EligibilityModel {
	if c == nil {
		return nil
	}
	return c.model
}
