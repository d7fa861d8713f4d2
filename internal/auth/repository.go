// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/nexusai/internal/core"
)

// Repository stores the refresh token chains behind each signed-in device.
type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	Rotate(ctx context.Context, id, replacedByID string) error
	Revoke(ctx context.Context, scope SessionScope) (int64, error)
	ActiveSessions(ctx context.Context, scope SessionScope) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionScope selects refresh tokens. Every non-empty field narrows the
// selection.
type SessionScope struct {
	TokenID  string
	FamilyID string
	UserID   string
	DeviceID string
}

func (s SessionScope) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	add("id", s.TokenID)
	add("family_id", s.FamilyID)
	add("user_id", s.UserID)
	add("device_id", s.DeviceID)

	return strings.Join(conds, " AND "), args
}

// Matches reports whether t falls inside the scope.
func (s SessionScope) Matches(t *RefreshToken) bool {
	return (s.TokenID == "" || t.ID == s.TokenID) &&
		(s.FamilyID == "" || t.FamilyID == s.FamilyID) &&
		(s.UserID == "" || t.UserID == s.UserID) &&
		(s.DeviceID == "" || t.DeviceID == s.DeviceID)
}

const tokenColumns = `id, user_id, token_hash, family_id, device_id, expires_at,
			created_at, is_used, used_at, revoked_at, replaced_by_id,
			user_agent, ip_address`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, family_id, device_id, expires_at,
			user_agent, ip_address
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.FamilyID,
		token.DeviceID,
		token.ExpiresAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	return r.findOne(ctx, "token_hash", tokenHash)
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*RefreshToken, error) {
	return r.findOne(ctx, "id", id)
}

func (r *repository) findOne(
	ctx context.Context,
	column, value string,
) (*RefreshToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE ` + column + ` = $1`

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find session by %s: %w", column, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session by %s: %w", column, err)
	}

	return &token, nil
}

// Rotate retires a token in favour of its successor. A token can rotate
// once; a second attempt reports ErrNotFound.
func (r *repository) Rotate(
	ctx context.Context,
	id, replacedByID string,
) error {
	query := `
		UPDATE refresh_tokens
		SET is_used = true, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND is_used = false`

	result, err := r.db.ExecContext(ctx, query, id, replacedByID)
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("rotate session: %w", core.ErrNotFound)
	}

	return nil
}

// Revoke ends every live token inside scope and returns how many it ended.
// An empty scope is refused rather than revoking the whole table.
func (r *repository) Revoke(
	ctx context.Context,
	scope SessionScope,
) (int64, error) {
	where, args := scope.where()
	if where == "" {
		return 0, fmt.Errorf("revoke sessions: empty scope: %w", core.ErrInvalidInput)
	}

	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE ` + where + ` AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}

	return result.RowsAffected()
}

// ActiveSessions lists the live tokens of one user, grouped by device with
// the newest first.
func (r *repository) ActiveSessions(
	ctx context.Context,
	scope SessionScope,
) ([]RefreshToken, error) {
	if scope.UserID == "" {
		return nil, fmt.Errorf("list sessions: user required: %w", core.ErrInvalidInput)
	}
	where, args := scope.where()

	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE ` + where + `
			AND revoked_at IS NULL
			AND is_used = false
			AND expires_at > NOW()
		ORDER BY device_id, created_at DESC`

	var tokens []RefreshToken
	if err := r.db.SelectContext(ctx, &tokens, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return tokens, nil
}

func (r *repository) DeleteExpired(
	ctx context.Context,
	before time.Time,
) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	return result.RowsAffected()
}
