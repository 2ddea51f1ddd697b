package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"verigate/internal/verification"
	"verigate/pkg/platform/sentinel"
)

// PostgresStore persists status rows in PostgreSQL with conditional upserts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS verification_status (
	external_user_id TEXT PRIMARY KEY,
	applicant_id     TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	has_submitted    BOOLEAN NOT NULL DEFAULT FALSE,
	has_rejected     BOOLEAN NOT NULL DEFAULT FALSE,
	all_green        BOOLEAN NOT NULL DEFAULT FALSE,
	review_status    TEXT NOT NULL DEFAULT 'unknown',
	review_answer    TEXT NOT NULL DEFAULT 'unknown',
	reject_labels    TEXT[] NOT NULL DEFAULT '{}',
	observed_at      TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the status table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure verification_status schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, externalUserID string) (*verification.Record, error) {
	const query = `
		SELECT external_user_id, applicant_id, status, has_submitted, has_rejected,
		       all_green, review_status, review_answer, reject_labels, observed_at, updated_at
		FROM verification_status
		WHERE external_user_id = $1`

	var (
		record verification.Record
		status string
		rs, ra string
		labels pq.StringArray
	)
	err := s.db.QueryRowContext(ctx, query, externalUserID).Scan(
		&record.ExternalUserID,
		&record.ApplicantID,
		&status,
		&record.Result.HasAnySubmittedSteps,
		&record.Result.HasRejectedSteps,
		&record.Result.AllStepsGreen,
		&rs,
		&ra,
		&labels,
		&record.ObservedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get verification status: %w", err)
	}
	record.Result.Status = verification.Status(status)
	record.Review = verification.ReviewState{
		Status:       verification.ReviewStatus(rs),
		Answer:       verification.ReviewAnswer(ra),
		RejectLabels: labels,
	}
	return &record, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record verification.Record) error {
	// Conditional write: older observations lose, and a terminal rejected row
	// only yields to another terminal outcome or a verified reversal.
	const query = `
		INSERT INTO verification_status (
			external_user_id, applicant_id, status, has_submitted, has_rejected,
			all_green, review_status, review_answer, reject_labels, observed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (external_user_id) DO UPDATE SET
			applicant_id  = COALESCE(NULLIF(EXCLUDED.applicant_id, ''), verification_status.applicant_id),
			status        = EXCLUDED.status,
			has_submitted = EXCLUDED.has_submitted,
			has_rejected  = EXCLUDED.has_rejected,
			all_green     = EXCLUDED.all_green,
			review_status = EXCLUDED.review_status,
			review_answer = EXCLUDED.review_answer,
			reject_labels = EXCLUDED.reject_labels,
			observed_at   = EXCLUDED.observed_at,
			updated_at    = now()
		WHERE EXCLUDED.observed_at >= verification_status.observed_at
		  AND (verification_status.status <> 'rejected'
		       OR EXCLUDED.status IN ('rejected', 'verified'))`

	labels := record.Review.RejectLabels
	if labels == nil {
		labels = []string{}
	}
	res, err := s.db.ExecContext(ctx, query,
		record.ExternalUserID,
		record.ApplicantID,
		string(record.Result.Status),
		record.Result.HasAnySubmittedSteps,
		record.Result.HasRejectedSteps,
		record.Result.AllStepsGreen,
		string(record.Review.Status),
		string(record.Review.Answer),
		pq.Array(labels),
		record.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert verification status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert verification status rows: %w", err)
	}
	if rows == 0 {
		existing, getErr := s.Get(ctx, record.ExternalUserID)
		if getErr == nil && record.ObservedAt.Before(existing.ObservedAt) {
			return sentinel.ErrStale
		}
		// Pinned terminal row: the write is intentionally dropped.
	}
	return nil
}
