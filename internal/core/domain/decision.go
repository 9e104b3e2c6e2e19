package domain

import (
	"fmt"
	"strings"
)

type Outcome string

const (
	OutcomeApproved Outcome = "APPROVED"
	OutcomeDeclined Outcome = "DECLINED"
	OutcomeInvalid  Outcome = "INVALID"
)

// SoftDeclineLabel is an alternate rendering of OutcomeDeclined.
const SoftDeclineLabel = "SOFT DECLINE"

// InvalidIDReason is reported when the identity document yields no date of birth.
const InvalidIDReason = "ID Card Not Valid — date of birth missing from identity document"

// ParseOutcome accepts canonical outcomes and their display aliases.
func ParseOutcome(raw string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(OutcomeApproved):
		return OutcomeApproved, nil
	case string(OutcomeDeclined), SoftDeclineLabel, "SOFT_DECLINE":
		return OutcomeDeclined, nil
	case string(OutcomeInvalid):
		return OutcomeInvalid, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse outcome", fmt.Errorf("unknown outcome %q", raw))
	}
}

// Decision is the classifier verdict. Label and Confidence are nil when the model did not run.
type Decision struct {
	Outcome    Outcome  `json:"outcome"`
	Label      *int     `json:"label,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

func InvalidDecision() Decision {
	return Decision{Outcome: OutcomeInvalid, Reason: InvalidIDReason}
}

// ClassifiedDecision maps a model label and class-1 probability to an outcome.
func ClassifiedDecision(label int, probability float64) Decision {
	outcome := OutcomeDeclined
	if label == 1 {
		outcome = OutcomeApproved
	}
	return Decision{Outcome: outcome, Label: &label, Confidence: &probability}
}

// String renders the decision text consumed by recommendations and reasoning prompts.
func (d Decision) String() string {
	switch d.Outcome {
	case OutcomeApproved:
		return fmt.Sprintf("Approved (ML Model, Confidence: %.2f)", d.confidence())
	case OutcomeDeclined:
		return fmt.Sprintf("Declined (ML Model, Confidence: %.2f)", d.confidence())
	case OutcomeInvalid:
		if d.Reason != "" {
			return d.Reason
		}
		return InvalidIDReason
	default:
		return string(d.Outcome)
	}
}

// DisplayLabel is the short status shown to applicants; soft selects the softer decline wording.
func (d Decision) DisplayLabel(soft bool) string {
	if d.Outcome == OutcomeDeclined && soft {
		return SoftDeclineLabel
	}
	return string(d.Outcome)
}

func (d Decision) confidence() float64 {
	if d.Confidence == nil {
		return 0
	}
	return *d.Confidence
}
