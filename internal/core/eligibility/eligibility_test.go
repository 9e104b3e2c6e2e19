package eligibility

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

type fakeModel struct {
	label       int
	probability float64
	importances [domain.FeatureCount]float64
	calls       int
	lastInput   [domain.FeatureCount]float64
}

func (m *fakeModel) Predict(input [domain.FeatureCount]float64) (int, float64) {
	m.calls++
	m.lastInput = input
	return m.label, m.probability
}

func (m *fakeModel) FeatureImportances() [domain.FeatureCount]float64 { return m.importances }

func (m *fakeModel) Version() string { return "fake" }

func knownVector() domain.FeatureVector {
	return domain.FeatureVector{
		Income:          4000,
		EmploymentYears: 2,
		Age:             domain.KnownAge(30),
		NetWorth:        1000,
		FamilySize:      4,
	}
}

func TestPredictInvalidWhenAgeUnknown(t *testing.T) {
	model := &fakeModel{label: 1, probability: 0.9}
	fv := knownVector()
	fv.Age = domain.UnknownAge()

	decision, err := NewClassifier(model).Predict(fv)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if decision.Outcome != domain.OutcomeInvalid {
		t.Fatalf("expected INVALID, got %s", decision.Outcome)
	}
	if decision.Confidence != nil || decision.Label != nil {
		t.Fatalf("expected no confidence for invalid decision, got %+v", decision)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called, got %d calls", model.calls)
	}
}

func TestPredictMapsLabelToOutcome(t *testing.T) {
	approve := &fakeModel{label: 1, probability: 0.87}
	decision, err := NewClassifier(approve).Predict(knownVector())
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if decision.Outcome != domain.OutcomeApproved || *decision.Confidence != 0.87 {
		t.Fatalf("unexpected decision: %+v", decision)
	}
	want := [domain.FeatureCount]float64{4000, 2, 30, 1000, 4}
	if approve.lastInput != want {
		t.Fatalf("expected model input %v, got %v", want, approve.lastInput)
	}

	decline := &fakeModel{label: 0, probability: 0.12}
	decision, err = NewClassifier(decline).Predict(knownVector())
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if decision.Outcome != domain.OutcomeDeclined || *decision.Confidence != 0.12 {
		t.Fatalf("unexpected decision: %+v", decision)
	}
	if decision.String() != "Declined (ML Model, Confidence: 0.12)" {
		t.Fatalf("unexpected decision text %q", decision.String())
	}
}

func TestPredictWithoutModel(t *testing.T) {
	_, err := NewClassifier(nil).Predict(knownVector())
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}
}

func TestExplainApprovedCitesTopFactors(t *testing.T) {
	model := &fakeModel{
		label:       1,
		probability: 0.91234,
		importances: [domain.FeatureCount]float64{0.52, 0.03, 0.05, 0.07, 0.33},
	}
	report, err := Explain(model, knownVector())
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if report.Prediction != 1 || report.Confidence != 0.912 {
		t.Fatalf("unexpected prediction fields: %+v", report)
	}
	if !reflect.DeepEqual(report.Factors, []string{"Income", "Family Size"}) {
		t.Fatalf("unexpected factors %v", report.Factors)
	}
	if report.Reason != "Application approved. Key positive factors: Income, Family Size" {
		t.Fatalf("unexpected reason %q", report.Reason)
	}
	if len(report.Features) != domain.FeatureCount {
		t.Fatalf("expected %d features, got %d", domain.FeatureCount, len(report.Features))
	}
	if got := report.Features["Net Worth"]; got.Value != 1000 || got.Importance != 0.07 {
		t.Fatalf("unexpected net worth contribution %+v", got)
	}
}

func TestExplainDeclinedCitesBottomFactors(t *testing.T) {
	model := &fakeModel{
		label:       0,
		probability: 0.2,
		importances: [domain.FeatureCount]float64{0.52, 0.03, 0.05, 0.07, 0.33},
	}
	report, err := Explain(model, knownVector())
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if report.Reason != "Application declined. Weak areas in: Age, Employment Years" {
		t.Fatalf("unexpected reason %q", report.Reason)
	}
}

func TestExplainTiesKeepFeatureOrder(t *testing.T) {
	cases := []struct {
		name        string
		label       int
		importances [domain.FeatureCount]float64
		want        []string
	}{
		{"approved all equal", 1, [domain.FeatureCount]float64{0.2, 0.2, 0.2, 0.2, 0.2}, []string{"Income", "Employment Years"}},
		{"declined all equal", 0, [domain.FeatureCount]float64{0.2, 0.2, 0.2, 0.2, 0.2}, []string{"Net Worth", "Family Size"}},
		{"approved tie at cut", 1, [domain.FeatureCount]float64{0.1, 0.2, 0.2, 0.3, 0.2}, []string{"Net Worth", "Employment Years"}},
		{"declined tie at cut", 0, [domain.FeatureCount]float64{0.1, 0.2, 0.2, 0.3, 0.2}, []string{"Family Size", "Income"}},
	}
	for _, tc := range cases {
		model := &fakeModel{label: tc.label, importances: tc.importances}
		report, err := Explain(model, knownVector())
		if err != nil {
			t.Fatalf("%s: Explain() error = %v", tc.name, err)
		}
		if !reflect.DeepEqual(report.Factors, tc.want) {
			t.Fatalf("%s: expected factors %v, got %v", tc.name, tc.want, report.Factors)
		}
	}
}

func TestExplainRejectsUnknownAge(t *testing.T) {
	fv := knownVector()
	fv.Age = domain.UnknownAge()
	_, err := Explain(&fakeModel{}, fv)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecommend(t *testing.T) {
	cases := []struct {
		text  string
		first string
		count int
	}{
		{"Approved (ML Model, Confidence: 0.91)", "Provide monthly financial aid.", 3},
		{"Declined (ML Model, Confidence: 0.10)", "Application declined, but alternative support is available.", 3},
		{"SOFT DECLINE", "Application declined, but alternative support is available.", 3},
		{domain.InvalidIDReason, "Unable to determine recommendations due to invalid data.", 1},
		{"", "Unable to determine recommendations due to invalid data.", 1},
	}
	for _, tc := range cases {
		got := Recommend(tc.text)
		if len(got) != tc.count || got[0] != tc.first {
			t.Fatalf("Recommend(%q) = %v", tc.text, got)
		}
	}
}

func TestRecommendIgnoresCase(t *testing.T) {
	pairs := [][2]string{
		{"Approved", "approved"},
		{"DECLINED", "declined"},
		{"Soft Decline", "soft decline"},
	}
	for _, p := range pairs {
		if got, want := Recommend(p[0]), Recommend(p[1]); !reflect.DeepEqual(got, want) {
			t.Fatalf("Recommend(%q) = %v, Recommend(%q) = %v", p[0], got, p[1], want)
		}
	}
}

func TestRecommendReturnsFreshSlice(t *testing.T) {
	first := Recommend("approved")
	first[0] = "mutated"
	if Recommend("approved")[0] != "Provide monthly financial aid." {
		t.Fatal("recommendation table was mutated through returned slice")
	}
}

func TestRecommendForDecision(t *testing.T) {
	got := RecommendFor(domain.ClassifiedDecision(1, 0.8))
	if got[0] != "Provide monthly financial aid." {
		t.Fatalf("unexpected recommendations %v", got)
	}
	got = RecommendFor(domain.InvalidDecision())
	if len(got) != 1 {
		t.Fatalf("unexpected recommendations for invalid %v", got)
	}
}
