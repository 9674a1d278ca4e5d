// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/learnhub/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id, role string) (*User, error)
	SetResetCode(
		ctx context.Context,
		id, codeHash string,
		expiresAt time.Time,
	) error
	ConsumeResetCode(
		ctx context.Context,
		id, codeHash, passwordHash string,
		now time.Time,
	) (bool, error)
	RecordResetCodeFailure(
		ctx context.Context,
		id, codeHash string,
		maxAttempts int,
	) (bool, error)
	ClearResetCode(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
}

const userColumns = `id, email, password_hash, name, role,
		       reset_code_hash, reset_code_expires_at, reset_code_attempts,
		       created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err, "") {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) UpdateRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	return &user, nil
}

// SetResetCode overwrites any pending code for the user. Requesting a new
// code therefore invalidates the previous one.
func (r *repository) SetResetCode(
	ctx context.Context,
	id, codeHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET reset_code_hash = $2,
		    reset_code_expires_at = $3,
		    reset_code_attempts = 0,
		    updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "set reset code", query, id, codeHash, expiresAt)
}

// ConsumeResetCode writes the new password hash and clears the reset code
// only while the stored code still matches and is unexpired. It returns
// false when another request consumed or replaced the code first.
func (r *repository) ConsumeResetCode(
	ctx context.Context,
	id, codeHash, passwordHash string,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE users
		SET password_hash = $3,
		    reset_code_hash = NULL,
		    reset_code_expires_at = NULL,
		    reset_code_attempts = 0,
		    updated_at = NOW()
		WHERE id = $1
		  AND reset_code_hash = $2
		  AND reset_code_expires_at >= $4`

	result, err := r.db.ExecContext(ctx, query, id, codeHash, passwordHash, now)
	if err != nil {
		return false, fmt.Errorf("consume reset code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume reset code: %w", err)
	}

	return rows == 1, nil
}

// RecordResetCodeFailure counts a wrong guess against the pending code
// identified by codeHash and clears that code once maxAttempts is reached.
// It reports whether the code was cleared. A code that was already consumed
// or replaced is left alone.
func (r *repository) RecordResetCodeFailure(
	ctx context.Context,
	id, codeHash string,
	maxAttempts int,
) (bool, error) {
	query := `
		UPDATE users
		SET reset_code_attempts = reset_code_attempts + 1,
		    reset_code_hash = CASE
		        WHEN reset_code_attempts + 1 >= $3 THEN NULL
		        ELSE reset_code_hash END,
		    reset_code_expires_at = CASE
		        WHEN reset_code_attempts + 1 >= $3 THEN NULL
		        ELSE reset_code_expires_at END,
		    updated_at = NOW()
		WHERE id = $1
		  AND reset_code_hash = $2
		RETURNING reset_code_hash IS NULL`

	var cleared bool
	err := r.db.QueryRowxContext(ctx, query, id, codeHash, maxAttempts).Scan(&cleared)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("record reset code failure: %w", err)
	}

	return cleared, nil
}

func (r *repository) ClearResetCode(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET reset_code_hash = NULL,
		    reset_code_expires_at = NULL,
		    reset_code_attempts = 0,
		    updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "clear reset code", query, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+userColumns+`
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
