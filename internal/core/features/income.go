package features

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

const salaryToken = "Salary"

// amountPattern matches signed numeral runs of at least three digits.
var amountPattern = regexp.MustCompile(`[+-]?\d{3,}`)

// IncomeFromSalaryLine reads the amount on the first bank statement line mentioning a salary.
// The rightmost numeral run on that line is the amount; earlier runs are account or
// reference numbers.
type IncomeFromSalaryLine struct{}

func (IncomeFromSalaryLine) Field() string { return domain.FeatureIncome }

func (IncomeFromSalaryLine) Apply(payload domain.RawPayload, _ time.Time, fv *domain.FeatureVector) error {
	text, ok := domain.UsableText(payload.BankText)
	if !ok {
		return errNoEvidence
	}

	line, found := firstLineContaining(text, salaryToken)
	if !found {
		return errNoEvidence
	}

	matches := amountPattern.FindAllString(line, -1)
	if len(matches) == 0 {
		return fmt.Errorf("salary line has no amount")
	}

	raw := strings.TrimPrefix(matches[len(matches)-1], "+")
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("parse salary amount %q: %w", raw, err)
	}
	if amount < 0 {
		return fmt.Errorf("salary amount %d is a debit", amount)
	}
	fv.Income = amount
	return nil
}

func firstLineContaining(text, token string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, token) {
			return line, true
		}
	}
	return "", false
}
