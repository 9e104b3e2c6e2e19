package features

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

var dateOfBirthPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})-(\d{2})-(\d{2})\b`)

// AgeFromDateOfBirth computes the calendar age from the first ISO date on the ID card.
// Without a valid date the age stays unknown, which gates classification.
type AgeFromDateOfBirth struct{}

func (AgeFromDateOfBirth) Field() string { return domain.FeatureAge }

func (AgeFromDateOfBirth) Apply(payload domain.RawPayload, now time.Time, fv *domain.FeatureVector) error {
	text, ok := domain.UsableText(payload.IDText)
	if !ok {
		return errNoEvidence
	}

	raw := dateOfBirthPattern.FindString(text)
	if raw == "" {
		return errNoEvidence
	}

	dob, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return fmt.Errorf("parse date of birth %q: %w", raw, err)
	}

	years := calendarAge(dob, now)
	if years < 0 {
		return fmt.Errorf("date of birth %s is in the future", raw)
	}
	fv.Age = domain.KnownAge(years)
	return nil
}

// calendarAge counts completed years, without pro-rating.
func calendarAge(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}
