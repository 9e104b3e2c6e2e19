// Package gemini adapts the Google GenAI client to the reasoning and OCR ports.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kirillkom/social-support-ai/internal/infrastructure/resilience"
)

const (
	defaultModel       = "gemini-2.5-flash"
	providerName       = "gemini"
	operationReason    = "gemini.reason"
	operationRecognize = "gemini.ocr"

	reasoningSystemPrompt = "You are an eligibility reasoning assistant. Think step by step (ReAct style)."
	ocrPrompt             = "Transcribe all text printed on this identity document. Keep dates exactly as printed, one field per line. Return only the transcription."
)

// contentGenerator is the slice of genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models    contentGenerator
	modelName string
	executor  *resilience.Executor
}

// New creates a client for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, executor *resilience.Executor) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newWithGenerator(client.Models, model, executor), nil
}

func newWithGenerator(models contentGenerator, model string, executor *resilience.Executor) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{models: models, modelName: model, executor: executor}
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}

func (c *Client) generate(ctx context.Context, operation string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	if c == nil || c.models == nil {
		return "", errors.New("gemini client is not initialized")
	}

	var output string
	err := c.executor.Execute(ctx, operation, func(ctx context.Context) error {
		resp, err := c.models.GenerateContent(ctx, c.modelName, contents, config)
		if err != nil {
			return fmt.Errorf("generate content: %w", err)
		}
		output = responseText(resp)
		if output == "" {
			return errors.New("gemini api returned empty response")
		}
		return nil
	}, classifyGeminiError)
	if err != nil {
		return "", resilience.WrapTemporary(operation, err, classifyGeminiError)
	}
	return output, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// Reasoner produces eligibility narrative with a Gemini text model.
type Reasoner struct {
	client *Client
}

func NewReasoner(client *Client) *Reasoner {
	return &Reasoner{client: client}
}

func (r *Reasoner) Name() string { return providerName }

// Available has no cheap probe on the hosted API; it reports false only while the breaker is open.
func (r *Reasoner) Available(context.Context) bool {
	return r.client != nil && !r.client.executor.Open(operationReason)
}

func (r *Reasoner) Reason(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: reasoningSystemPrompt}}},
	}
	return r.client.generate(ctx, operationReason, genai.Text(prompt), config)
}

// Recognizer transcribes ID card images with a multimodal Gemini model.
type Recognizer struct {
	client *Client
}

func NewRecognizer(client *Client) *Recognizer {
	return &Recognizer{client: client}
}

func (r *Recognizer) RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("empty image")
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: ocrPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}}
	return r.client.generate(ctx, operationRecognize, contents, nil)
}

func classifyGeminiError(err error) resilience.ErrorClassification {
	if class, ok := resilience.ClassifyCommon(err); ok {
		return class
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
		return resilience.ErrorClassification{
			Retryable:     retryable,
			RecordFailure: retryable,
		}
	}
	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
