package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

type evaluatorFake struct {
	err  error
	docs domain.DocumentSet
}

func (f *evaluatorFake) Evaluate(_ context.Context, userID string, docs domain.DocumentSet) (*domain.Evaluation, error) {
	f.docs = docs
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Evaluation{UserID: userID, DecisionText: "Declined (ML Model, Confidence: 0.20)"}, nil
}

type advisorFake struct {
	fv domain.FeatureVector
}

func (f *advisorFake) Explain(_ context.Context, fv domain.FeatureVector) (*domain.ExplainabilityReport, error) {
	f.fv = fv
	if !fv.Age.Known() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "model input", errors.New("age is unknown"))
	}
	return &domain.ExplainabilityReport{Reason: "Application declined. Weak areas in: Age, Employment Years"}, nil
}

func (f *advisorFake) Recommend(_ context.Context, decision string) []string {
	return []string{"for " + decision}
}

func (f *advisorFake) ModelInfo() domain.ModelInfo { return domain.ModelInfo{} }

func newTestServer() (*Server, *evaluatorFake, *advisorFake) {
	evaluator := &evaluatorFake{}
	advisor := &advisorFake{}
	return NewServer(evaluator, advisor, slog.New(slog.NewTextHandler(io.Discard, nil))), evaluator, advisor
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Name = name
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected tool content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestEvaluateTool(t *testing.T) {
	s, evaluator, _ := newTestServer()

	result, err := s.evaluate(context.Background(), callRequest(ToolEvaluate, map[string]any{
		"user_id":             "user-1",
		"bank_statement_path": "/data/bank.pdf",
	}))
	if err != nil {
		t.Fatalf("evaluate() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out["user_id"] != "user-1" || evaluator.docs.BankStatement != "/data/bank.pdf" {
		t.Fatalf("unexpected result %v docs %+v", out, evaluator.docs)
	}
}

func TestEvaluateToolReportsFailure(t *testing.T) {
	s, evaluator, _ := newTestServer()
	evaluator.err = domain.WrapError(domain.ErrModelUnavailable, "predict", errors.New("no model"))

	result, err := s.evaluate(context.Background(), callRequest(ToolEvaluate, nil))
	if err != nil {
		t.Fatalf("evaluate() error = %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "eligibility model unavailable") {
		t.Fatalf("expected tool error result, got %+v", result)
	}
}

func TestExplainTool(t *testing.T) {
	s, _, advisor := newTestServer()

	result, err := s.explain(context.Background(), callRequest(ToolExplain, map[string]any{
		"income":           4000.4,
		"employment_years": 2.0,
		"age":              30.0,
		"net_worth":        1000.0,
	}))
	if err != nil {
		t.Fatalf("explain() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if advisor.fv.Income != 4000 || advisor.fv.FamilySize != domain.DefaultFamilySize {
		t.Fatalf("unexpected feature vector %+v", advisor.fv)
	}
	if years, ok := advisor.fv.Age.Years(); !ok || years != 30 {
		t.Fatalf("unexpected age %v", advisor.fv.Age)
	}
}

func TestExplainToolValidation(t *testing.T) {
	s, _, _ := newTestServer()

	cases := map[string]map[string]any{
		"missing income":      {"employment_years": 1.0, "net_worth": 0.0, "age": 30.0},
		"negative employment": {"income": 1.0, "employment_years": -1.0, "net_worth": 0.0, "age": 30.0},
		"unknown age":         {"income": 1.0, "employment_years": 1.0, "net_worth": 0.0},
	}
	for name, args := range cases {
		result, err := s.explain(context.Background(), callRequest(ToolExplain, args))
		if err != nil {
			t.Fatalf("%s: explain() error = %v", name, err)
		}
		if !result.IsError {
			t.Fatalf("%s: expected tool error", name)
		}
	}
}

func TestRecommendTool(t *testing.T) {
	s, _, _ := newTestServer()

	result, err := s.recommend(context.Background(), callRequest(ToolRecommend, map[string]any{"decision": "APPROVED"}))
	if err != nil {
		t.Fatalf("recommend() error = %v", err)
	}
	if !strings.Contains(resultText(t, result), "for APPROVED") {
		t.Fatalf("unexpected result %s", resultText(t, result))
	}

	result, err = s.recommend(context.Background(), callRequest(ToolRecommend, nil))
	if err != nil {
		t.Fatalf("recommend() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error without decision")
	}
}
