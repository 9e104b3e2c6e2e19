// Package postgres persists applications through database/sql with the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

const schemaLockKey int64 = 2024091501

type ApplicationRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ApplicationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// api and worker may start together.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	assets_key TEXT NOT NULL DEFAULT '',
	bank_statement_key TEXT NOT NULL DEFAULT '',
	id_card_key TEXT NOT NULL DEFAULT '',
	resume_key TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	outcome TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION,
	result JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_user_id ON applications(user_id);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO applications (
	id, user_id, assets_key, bank_statement_key, id_card_key, resume_key, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		app.ID, app.UserID, app.Documents.Assets, app.Documents.BankStatement, app.Documents.IDCard, app.Documents.Resume,
		string(app.Status), app.Error, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, assets_key, bank_statement_key, id_card_key, resume_key, status, outcome, confidence, result, error_message, created_at, updated_at
FROM applications
WHERE id = $1
`, id)

	var (
		app        domain.Application
		status     string
		outcome    string
		confidence sql.NullFloat64
		resultRaw  []byte
	)
	err := row.Scan(
		&app.ID, &app.UserID, &app.Documents.Assets, &app.Documents.BankStatement, &app.Documents.IDCard, &app.Documents.Resume,
		&status, &outcome, &confidence, &resultRaw, &app.Error, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get application", fmt.Errorf("application %s", id))
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}

	app.Status = domain.ApplicationStatus(status)
	app.Outcome = domain.Outcome(outcome)
	if confidence.Valid {
		value := confidence.Float64
		app.Confidence = &value
	}
	if len(resultRaw) > 0 {
		var result domain.Evaluation
		if err := json.Unmarshal(resultRaw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		app.Result = &result
	}
	return &app, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE applications
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, r.now())
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return requireRow(res, "update application status", id)
}

// SaveResult stores the evaluation and marks the application evaluated.
func (r *ApplicationRepository) SaveResult(ctx context.Context, id string, result *domain.Evaluation) error {
	if result == nil {
		return domain.WrapError(domain.ErrInvalidInput, "save result", errors.New("result is nil"))
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	var confidence sql.NullFloat64
	if result.Decision.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *result.Decision.Confidence, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE applications
SET status = $2, outcome = $3, confidence = $4, result = $5, error_message = '', updated_at = $6
WHERE id = $1
`, id, string(domain.StatusEvaluated), string(result.Decision.Outcome), confidence, resultJSON, r.now())
	if err != nil {
		return fmt.Errorf("save application result: %w", err)
	}
	return requireRow(res, "save application result", id)
}

func requireRow(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, operation, fmt.Errorf("application %s", id))
	}
	return nil
}
