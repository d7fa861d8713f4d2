// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/plan"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	DecrementCredit(ctx context.Context, id string) (int, error)
	SetCredits(ctx context.Context, id string, credits int) (*User, error)
	SetPlan(ctx context.Context, id string, p plan.Plan, credits int) (*User, error)
	SetPlanByEmail(
		ctx context.Context,
		email string,
		p plan.Plan,
		credits int,
	) (string, error)
	SetStatus(ctx context.Context, id, status string) (*User, error)
	ResetAllCredits(ctx context.Context, limits plan.Limits) (int64, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	Totals(ctx context.Context) (*Totals, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

const userColumns = `id, email, password_hash, name, phone, role, plan, theme,
		       credits, status, token_version, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, name, phone, role, plan, theme,
			credits, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at, token_version`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.Role,
		user.Plan,
		user.Theme,
		user.Credits,
		user.Status,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
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

// GetByEmail matches the stored address exactly through the unique index.
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

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, phone = $3, theme = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.Phone,
		user.Theme,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
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

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "increment token version", query, id)
}

// DecrementCredit spends one credit in a single statement so concurrent
// callers can never take the balance below zero. A user holding no credits
// gets ErrInsufficientCredits and nothing changes.
func (r *repository) DecrementCredit(
	ctx context.Context,
	id string,
) (int, error) {
	query := `
		UPDATE users
		SET credits = credits - 1, updated_at = NOW()
		WHERE id = $1 AND credits > 0 AND status = 'active'
		RETURNING credits`

	var remaining int
	err := r.db.GetContext(ctx, &remaining, query, id)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrement credit: %w", err)
	}

	u, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("decrement credit: %w", err)
	}
	if u.IsBanned() {
		return 0, fmt.Errorf("decrement credit: %w", core.ErrBanned)
	}

	return 0, fmt.Errorf("decrement credit: %w", core.ErrInsufficientCredits)
}

func (r *repository) SetCredits(
	ctx context.Context,
	id string,
	credits int,
) (*User, error) {
	query := `
		UPDATE users
		SET credits = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	return r.updateReturning(ctx, "set credits", query, id, credits)
}

func (r *repository) SetPlan(
	ctx context.Context,
	id string,
	p plan.Plan,
	credits int,
) (*User, error) {
	query := `
		UPDATE users
		SET plan = $2, credits = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	return r.updateReturning(ctx, "set plan", query, id, p, credits)
}

// SetPlanByEmail finds and updates the account in one statement. Only plan
// and credits are written.
func (r *repository) SetPlanByEmail(
	ctx context.Context,
	email string,
	p plan.Plan,
	credits int,
) (string, error) {
	query := `
		UPDATE users
		SET plan = $2, credits = $3, updated_at = NOW()
		WHERE email = $1
		RETURNING id`

	var id string
	err := r.db.GetContext(ctx, &id, query, email, p, credits)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("set plan by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("set plan by email: %w", err)
	}

	return id, nil
}

func (r *repository) SetStatus(
	ctx context.Context,
	id, status string,
) (*User, error) {
	query := `
		UPDATE users
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	return r.updateReturning(ctx, "set status", query, id, status)
}

func (r *repository) ResetAllCredits(
	ctx context.Context,
	limits plan.Limits,
) (int64, error) {
	query := `
		UPDATE users
		SET credits = CASE plan
				WHEN 'pro' THEN $1
				WHEN 'enterprise' THEN $2
				ELSE $3
			END,
			updated_at = NOW()
		WHERE status = 'active'`

	result, err := r.db.ExecContext(ctx, query,
		limits.ProCredits,
		limits.EnterpriseCredits,
		limits.FreeCredits,
	)
	if err != nil {
		return 0, fmt.Errorf("reset credits: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset credits: %w", err)
	}

	return rows, nil
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

	filters := []struct {
		column string
		value  string
	}{
		{"role", params.Role},
		{"plan", params.Plan},
		{"status", params.Status},
	}
	for _, f := range filters {
		if f.value == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", f.column, argIdx))
		args = append(args, f.value)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) Totals(ctx context.Context) (*Totals, error) {
	query := `
		SELECT
			COUNT(*) AS users,
			COUNT(*) FILTER (WHERE plan = 'pro') AS pro,
			COUNT(*) FILTER (WHERE plan = 'enterprise') AS enterprise,
			COUNT(*) FILTER (WHERE status = 'banned') AS banned
		FROM users`

	var totals Totals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("user totals: %w", err)
	}

	return &totals, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
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

func (r *repository) updateReturning(
	ctx context.Context,
	op, query string,
	args ...any,
) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
