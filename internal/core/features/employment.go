package features

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

const experienceToken = "Experience"

var yearsPattern = regexp.MustCompile(`(?i)(\d+)\s+years`)

// EmploymentFromResume takes the first "<n> years" mention of a resume with an experience section.
type EmploymentFromResume struct{}

func (EmploymentFromResume) Field() string { return domain.FeatureEmploymentYears }

func (EmploymentFromResume) Apply(payload domain.RawPayload, _ time.Time, fv *domain.FeatureVector) error {
	text, ok := domain.UsableText(payload.ResumeText)
	if !ok || !strings.Contains(text, experienceToken) {
		return errNoEvidence
	}

	match := yearsPattern.FindStringSubmatch(text)
	if match == nil {
		return errNoEvidence
	}

	years, err := strconv.Atoi(match[1])
	if err != nil {
		return fmt.Errorf("parse experience years %q: %w", match[1], err)
	}
	fv.EmploymentYears = years
	return nil
}
