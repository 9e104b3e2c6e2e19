// Package features derives the classifier inputs from ingested documents.
package features

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

// errNoEvidence means the source document part is absent or unusable.
var errNoEvidence = errors.New("no evidence")

// Strategy derives one feature. Apply sets its field only on success; on error the
// field keeps its default.
type Strategy interface {
	Field() string
	Apply(payload domain.RawPayload, now time.Time, fv *domain.FeatureVector) error
}

type Extractor struct {
	strategies []Strategy
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Extractor)

// WithClock overrides the evaluation clock used for age arithmetic.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStrategy replaces the strategy registered for the same field, or appends it.
func WithStrategy(s Strategy) Option {
	return func(e *Extractor) {
		for i, existing := range e.strategies {
			if existing.Field() == s.Field() {
				e.strategies[i] = s
				return
			}
		}
		e.strategies = append(e.strategies, s)
	}
}

func DefaultStrategies() []Strategy {
	return []Strategy{
		IncomeFromSalaryLine{},
		EmploymentFromResume{},
		AgeFromDateOfBirth{},
		NetWorthFromAssets{},
		FixedFamilySize{Size: domain.DefaultFamilySize},
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		strategies: DefaultStrategies(),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: every field is derived independently and falls back to its default.
func (e *Extractor) Extract(payload domain.RawPayload) domain.FeatureVector {
	fv := domain.DefaultFeatureVector()
	now := e.now()
	for _, s := range e.strategies {
		if err := e.apply(s, payload, now, &fv); err != nil {
			level := slog.LevelWarn
			if errors.Is(err, errNoEvidence) {
				level = slog.LevelDebug
			}
			e.logger.Log(context.Background(), level, "feature_defaulted", "field", s.Field(), "reason", err.Error())
		}
	}
	return fv
}

func (e *Extractor) apply(s Strategy, payload domain.RawPayload, now time.Time, fv *domain.FeatureVector) (err error) {
	candidate := *fv
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	if err := s.Apply(payload, now, &candidate); err != nil {
		return err
	}
	*fv = candidate
	return nil
}
