// AngelaMos | 2026
// store.go

package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/enrollment"
)

// Completion is a verified, paid checkout ready to be applied.
type Completion struct {
	TransactionID string
	EventID       string
	UserID        string
	CourseID      string
	AmountCents   int64
	Currency      string
}

type GrantResult struct {
	Applied           bool
	EnrollmentID      string
	EnrollmentCreated bool
}

type Failure struct {
	ID            string    `db:"id"`
	TransactionID string    `db:"transaction_id"`
	EventID       string    `db:"event_id"`
	UserID        string    `db:"user_id"`
	CourseID      string    `db:"course_id"`
	Reason        string    `db:"reason"`
	CreatedAt     time.Time `db:"created_at"`
}

type Store interface {
	ApplyCompletion(ctx context.Context, c Completion) (*GrantResult, error)
	RecordFailure(ctx context.Context, f *Failure) error
	ListFailures(ctx context.Context, limit, offset int) ([]Failure, int, error)
}

type store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &store{db: db}
}

// ApplyCompletion claims the transaction id in the ledger and grants the
// enrollment in the same transaction. A transaction id already in the
// ledger yields Applied=false and writes nothing.
func (s *store) ApplyCompletion(ctx context.Context, c Completion) (*GrantResult, error) {
	result := &GrantResult{}

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		claim := `
			INSERT INTO payment_events
				(id, transaction_id, event_id, user_id, course_id, amount_cents, currency)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (transaction_id) DO NOTHING
			RETURNING id`

		var ledgerID string
		err := tx.QueryRowxContext(ctx, claim,
			uuid.New().String(),
			c.TransactionID,
			c.EventID,
			c.UserID,
			c.CourseID,
			c.AmountCents,
			c.Currency,
		).Scan(&ledgerID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("claim transaction: %w", err)
		}

		e := &enrollment.Enrollment{
			ID:       uuid.New().String(),
			UserID:   c.UserID,
			CourseID: c.CourseID,
			Source:   enrollment.SourcePayment,
		}
		created, err := enrollment.NewRepository(tx).InsertIfAbsent(ctx, e)
		if err != nil {
			return err
		}

		link := `UPDATE payment_events SET enrollment_id = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, link, ledgerID, e.ID); err != nil {
			return fmt.Errorf("link enrollment: %w", err)
		}

		result.Applied = true
		result.EnrollmentID = e.ID
		result.EnrollmentCreated = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply completion: %w", err)
	}

	return result, nil
}

func (s *store) RecordFailure(ctx context.Context, f *Failure) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}

	query := `
		INSERT INTO payment_failures
			(id, transaction_id, event_id, user_id, course_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := s.db.QueryRowxContext(ctx, query,
		f.ID,
		f.TransactionID,
		f.EventID,
		f.UserID,
		f.CourseID,
		f.Reason,
	).Scan(&f.CreatedAt)
	if err != nil {
		return fmt.Errorf("record payment failure: %w", err)
	}

	return nil
}

func (s *store) ListFailures(ctx context.Context, limit, offset int) ([]Failure, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM payment_failures`); err != nil {
		return nil, 0, fmt.Errorf("count payment failures: %w", err)
	}

	query := `
		SELECT id, transaction_id, event_id, user_id, course_id, reason, created_at
		FROM payment_failures
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	var failures []Failure
	if err := s.db.SelectContext(ctx, &failures, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list payment failures: %w", err)
	}

	return failures, total, nil
}
