// Package ollama talks to a local Ollama server for reasoning narrative and ID card OCR.
package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/social-support-ai/internal/infrastructure/resilience"
)

const (
	providerName       = "ollama"
	operationReason    = "ollama.reason"
	operationRecognize = "ollama.ocr"
)

type Client struct {
	baseURL     string
	chatModel   string
	visionModel string
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(baseURL, chatModel, visionModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		chatModel:   chatModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.Executor,
	}
}

// Reasoner produces eligibility narrative through the chat endpoint.
type Reasoner struct {
	client *Client
}

func NewReasoner(client *Client) *Reasoner {
	return &Reasoner{client: client}
}

func (r *Reasoner) Name() string { return providerName }

// Available probes the server root, which answers 200 when Ollama is running.
func (r *Reasoner) Available(ctx context.Context) bool {
	if r.client.executor.Open(operationReason) {
		return false
	}
	return r.client.ping(ctx) == nil
}

func (r *Reasoner) Reason(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model": r.client.chatModel,
		"messages": []map[string]string{
			{"role": "system", "content": reasoningSystemPrompt},
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	err := r.client.executor.Execute(ctx, operationReason, func(ctx context.Context) error {
		return r.client.postJSON(ctx, "/api/chat", request, &response, "chat")
	}, classifyOllamaError)
	if err != nil {
		return "", resilience.WrapTemporary("ollama reason", err, classifyOllamaError)
	}
	return strings.TrimSpace(response.Message.Content), nil
}

// Recognizer transcribes ID card images with a vision model.
type Recognizer struct {
	client *Client
}

func NewRecognizer(client *Client) *Recognizer {
	return &Recognizer{client: client}
}

func (r *Recognizer) RecognizeText(ctx context.Context, image []byte, _ string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image")
	}
	request := map[string]any{
		"model":  r.client.visionModel,
		"prompt": ocrPrompt,
		"images": []string{base64.StdEncoding.EncodeToString(image)},
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	err := r.client.executor.Execute(ctx, operationRecognize, func(ctx context.Context) error {
		return r.client.postJSON(ctx, "/api/generate", request, &response, "generate")
	}, classifyOllamaError)
	if err != nil {
		return "", resilience.WrapTemporary("ollama ocr", err, classifyOllamaError)
	}
	return strings.TrimSpace(response.Response), nil
}
