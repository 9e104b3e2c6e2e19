package httpadapter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// requestValidator checks JSON request bodies against the embedded OpenAPI document.
type requestValidator struct {
	router routers.Router
}

func newRequestValidator(ctx context.Context) (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &requestValidator{router: router}, nil
}

// Validate returns nil for requests outside the document or without a JSON body; the mux answers those.
func (v *requestValidator) Validate(r *http.Request) error {
	if !isJSONRequest(r) {
		return nil
	}
	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		return nil
	}
	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate request", requestValidationError(err))
	}
	return nil
}

func (v *requestValidator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := v.Validate(r); err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isJSONRequest(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// requestValidationError drops the schema dump kin-openapi attaches to body errors.
func requestValidationError(err error) error {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			if field := strings.Join(schemaErr.JSONPointer(), "."); field != "" {
				return fmt.Errorf("%s: %s", field, schemaErr.Reason)
			}
			return errors.New(schemaErr.Reason)
		}
		if reqErr.Reason != "" {
			return errors.New(reqErr.Reason)
		}
	}
	return err
}

func (rt *Router) openAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDocument)
}
