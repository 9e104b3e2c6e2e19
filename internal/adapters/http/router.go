package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/social-support-ai/internal/config"
	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
	"github.com/kirillkom/social-support-ai/internal/observability/metrics"
)

const (
	serviceName        = "eligibility-api"
	maxJSONBodyBytes   = 1 << 20
	maxMultipartMemory = 32 << 20
	backpressureWait   = 250 * time.Millisecond
)

// DocumentPaths confines caller-supplied document paths to the evaluation documents root.
type DocumentPaths interface {
	Resolve(path string) (string, error)
}

// Services are the inbound ports the router dispatches to. A nil Documents refuses every path.
type Services struct {
	Evaluator    ports.Evaluator
	Intake       ports.ApplicationIntake
	Applications ports.ApplicationReader
	Reports      ports.ReportReader
	Advisor      ports.Advisor
	Documents    DocumentPaths
}

type Router struct {
	cfg       config.Config
	services  Services
	metrics   *metrics.HTTPServerMetrics
	validator *requestValidator
}

func NewRouter(cfg config.Config, services Services, httpMetrics *metrics.HTTPServerMetrics) (*Router, error) {
	validator, err := newRequestValidator(context.Background())
	if err != nil {
		return nil, err
	}
	return &Router{
		cfg:       cfg,
		services:  services,
		metrics:   httpMetrics,
		validator: validator,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", rt.openAPISpec)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("POST /v1/evaluations", rt.evaluate)
	mux.HandleFunc("POST /v1/applications", rt.submitApplication)
	mux.HandleFunc("GET /v1/applications/{id}", rt.getApplication)
	mux.HandleFunc("POST /v1/explanations", rt.explain)
	mux.HandleFunc("POST /v1/recommendations", rt.recommend)
	mux.HandleFunc("GET /v1/reports/{user_id}", rt.getReport)
	mux.HandleFunc("GET /v1/model", rt.modelInfo)

	var handler http.Handler = mux
	handler = rt.validator.middleware(handler)
	handler = authMiddleware(handler, rt.cfg.APIKey)
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, backpressureWait, rt.recordRejected)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst, rt.recordRejected)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) recordRejected(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(serviceName, reason)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type evaluationRequest struct {
	UserID            string `json:"user_id"`
	AssetsPath        string `json:"assets_path"`
	BankStatementPath string `json:"bank_statement_path"`
	IDCardPath        string `json:"id_card_path"`
	ResumePath        string `json:"resume_path"`
}

func (rt *Router) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	docs, err := rt.resolveDocuments(domain.DocumentSet{
		Assets:        req.AssetsPath,
		BankStatement: req.BankStatementPath,
		IDCard:        req.IDCardPath,
		Resume:        req.ResumePath,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	if rt.cfg.EvaluationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.cfg.EvaluationTimeout)
		defer cancel()
	}

	result, err := rt.services.Evaluator.Evaluate(ctx, req.UserID, docs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) resolveDocuments(docs domain.DocumentSet) (domain.DocumentSet, error) {
	for _, path := range []*string{&docs.Assets, &docs.BankStatement, &docs.IDCard, &docs.Resume} {
		if strings.TrimSpace(*path) == "" {
			*path = ""
			continue
		}
		if rt.services.Documents == nil {
			return domain.DocumentSet{}, domain.WrapError(domain.ErrInvalidInput, "resolve document path", errors.New("document paths are disabled"))
		}
		resolved, err := rt.services.Documents.Resolve(*path)
		if err != nil {
			return domain.DocumentSet{}, err
		}
		*path = resolved
	}
	return docs, nil
}

func (rt *Router) submitApplication(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "parse multipart form", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	docs := make(map[string]domain.UploadedDocument)
	for field, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		file, err := headers[0].Open()
		if err != nil {
			writeError(w, domain.WrapError(domain.ErrInvalidInput, "open upload "+field, err))
			return
		}
		defer closeQuietly(file)
		docs[field] = domain.UploadedDocument{Filename: headers[0].Filename, Body: file}
	}

	app, err := rt.services.Intake.Submit(r.Context(), r.FormValue("user_id"), docs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, app)
}

func (rt *Router) getApplication(w http.ResponseWriter, r *http.Request) {
	app, err := rt.services.Applications.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

type featureRequest struct {
	Income          int64       `json:"income"`
	EmploymentYears int         `json:"employment_years"`
	Age             *domain.Age `json:"age"`
	NetWorth        int64       `json:"net_worth"`
	FamilySize      int         `json:"family_size"`
}

func (f featureRequest) vector() domain.FeatureVector {
	fv := domain.DefaultFeatureVector()
	fv.Income = f.Income
	fv.EmploymentYears = f.EmploymentYears
	fv.NetWorth = f.NetWorth
	if f.Age != nil {
		fv.Age = *f.Age
	}
	if f.FamilySize > 0 {
		fv.FamilySize = f.FamilySize
	}
	return fv
}

func (rt *Router) explain(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	report, err := rt.services.Advisor.Explain(r.Context(), req.vector())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) recommend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"decision":        req.Decision,
		"recommendations": rt.services.Advisor.Recommend(r.Context(), req.Decision),
	})
}

func (rt *Router) getReport(w http.ResponseWriter, r *http.Request) {
	record, err := rt.services.Reports.Load(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (rt *Router) modelInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.services.Advisor.ModelInfo())
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", fmt.Errorf("invalid json: %w", err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": errorMessage(err)})
}

// errorMessage strips the operation prefix kept for logs.
func errorMessage(err error) string {
	kinds := []error{
		domain.ErrInvalidInput,
		domain.ErrUnauthorized,
		domain.ErrNotFound,
		domain.ErrModelUnavailable,
		domain.ErrTemporary,
	}
	msg := err.Error()
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			if idx := strings.Index(msg, kind.Error()); idx >= 0 {
				return msg[idx:]
			}
		}
	}
	return msg
}

func closeQuietly(f multipart.File) {
	_ = f.Close()
}
