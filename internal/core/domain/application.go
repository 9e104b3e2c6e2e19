package domain

import (
	"io"
	"time"
)

type ApplicationStatus string

const (
	StatusSubmitted  ApplicationStatus = "submitted"
	StatusProcessing ApplicationStatus = "processing"
	StatusEvaluated  ApplicationStatus = "evaluated"
	StatusFailed     ApplicationStatus = "failed"
)

// Application is an uploaded document set awaiting or holding an evaluation.
type Application struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Documents  DocumentSet       `json:"documents"`
	Status     ApplicationStatus `json:"status"`
	Outcome    Outcome           `json:"outcome,omitempty"`
	Confidence *float64          `json:"confidence,omitempty"`
	Result     *Evaluation       `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// UploadedDocument is one applicant file handed to the intake use case.
type UploadedDocument struct {
	Filename string
	Body     io.Reader
}
