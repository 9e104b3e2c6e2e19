package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

type modelFake struct {
	label       int
	probability float64
	calls       int
}

func (m *modelFake) Predict([domain.FeatureCount]float64) (int, float64) {
	m.calls++
	return m.label, m.probability
}

func (m *modelFake) FeatureImportances() [domain.FeatureCount]float64 {
	return [domain.FeatureCount]float64{0.52, 0.03, 0.05, 0.07, 0.33}
}

func (m *modelFake) Version() string { return "test-1" }

type ingestorFake struct {
	payload domain.RawPayload
	docs    domain.DocumentSet
}

func (f *ingestorFake) Ingest(_ context.Context, docs domain.DocumentSet) domain.RawPayload {
	f.docs = docs
	return f.payload
}

type extractorFake struct {
	fv domain.FeatureVector
}

func (f extractorFake) Extract(domain.RawPayload) domain.FeatureVector { return f.fv }

type reasonerFake struct {
	available bool
	text      string
	err       error
	prompt    string
}

func (f *reasonerFake) Name() string                   { return "ollama" }
func (f *reasonerFake) Available(context.Context) bool { return f.available }
func (f *reasonerFake) Reason(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

type reportStoreFake struct {
	saved []domain.EvaluationRecord
	err   error
}

func (f *reportStoreFake) Save(_ context.Context, record domain.EvaluationRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, record)
	return "logs/" + record.UserID + "_log.json", nil
}

func (f *reportStoreFake) Load(context.Context, string) (*domain.EvaluationRecord, error) {
	return nil, errors.New("not implemented")
}

type reviewLogFake struct {
	issues []string
}

func (f *reviewLogFake) Append(_ context.Context, issue string) error {
	f.issues = append(f.issues, issue)
	return nil
}

type traceFake struct {
	mu    sync.Mutex
	steps []string
	err   error
}

func (f *traceFake) Record(_ context.Context, _ string, step string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, step)
	return f.err
}

type observerFake struct {
	outcomes          []domain.Outcome
	reasoningFailures []string
}

func (f *observerFake) ObserveEvaluation(outcome domain.Outcome, _ time.Duration) {
	f.outcomes = append(f.outcomes, outcome)
}

func (f *observerFake) ObserveReasoningFailure(provider string) {
	f.reasoningFailures = append(f.reasoningFailures, provider)
}

type statusCall struct {
	status domain.ApplicationStatus
	errMsg string
}

type applicationRepoFake struct {
	app           *domain.Application
	created       *domain.Application
	createErr     error
	getErr        error
	saveErr       error
	statusErr     error
	failStatusErr error
	statusCalls   []statusCall
	saved         *domain.Evaluation
}

func (f *applicationRepoFake) Create(_ context.Context, app *domain.Application) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyApp := *app
	f.created = &copyApp
	return nil
}

func (f *applicationRepoFake) GetByID(context.Context, string) (*domain.Application, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyApp := *f.app
	return &copyApp, nil
}

func (f *applicationRepoFake) UpdateStatus(_ context.Context, _ string, status domain.ApplicationStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *applicationRepoFake) SaveResult(_ context.Context, _ string, result *domain.Evaluation) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = result
	return nil
}

type storageFake struct {
	saved map[string]string
	err   error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type queueFake struct {
	applicationID string
	err           error
}

func (f *queueFake) PublishApplicationSubmitted(_ context.Context, applicationID string) error {
	if f.err != nil {
		return f.err
	}
	f.applicationID = applicationID
	return nil
}

func (f *queueFake) SubscribeApplicationSubmitted(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type evaluatorFake struct {
	result *domain.Evaluation
	err    error
	userID string
	docs   domain.DocumentSet
}

func (f *evaluatorFake) Evaluate(_ context.Context, userID string, docs domain.DocumentSet) (*domain.Evaluation, error) {
	f.userID = userID
	f.docs = docs
	return f.result, f.err
}
