// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/plan"
)

const repoUserID = "3d8f2b1e-6c4a-4f0e-9b7d-2a5c1e8f9d30"

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

// stmt builds a pattern for a statement from its lines, ignoring indentation.
func stmt(lines ...string) string {
	quoted := make([]string, len(lines))
	for i, l := range lines {
		quoted[i] = regexp.QuoteMeta(l)
	}
	return `^\s*` + strings.Join(quoted, `\s+`) + `\s*$`
}

const selectByID = `(?s)^SELECT id, email, .+ FROM users WHERE id = \$1$`

func userRow(status string, credits int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "name", "phone", "role", "plan", "theme",
		"credits", "status", "token_version", "created_at", "updated_at",
	}).AddRow(
		repoUserID, "ana@example.com", "hash", "Ana", "", RoleUser, "free", ThemeWhite,
		credits, status, 0, now, now,
	)
}

var decrementSQL = stmt(
	"UPDATE users",
	"SET credits = credits - 1, updated_at = NOW()",
	"WHERE id = $1 AND credits > 0 AND status = 'active'",
	"RETURNING credits",
)

func TestRepositoryDecrementCredit(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(decrementSQL).
		WithArgs(repoUserID).
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(4))

	remaining, err := repo.DecrementCredit(context.Background(), repoUserID)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestRepositoryDecrementCreditNoRow(t *testing.T) {
	tests := []struct {
		name   string
		lookup func(sqlmock.Sqlmock)
		want   error
	}{
		{
			name: "empty balance",
			lookup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectByID).WithArgs(repoUserID).WillReturnRows(userRow(StatusActive, 0))
			},
			want: core.ErrInsufficientCredits,
		},
		{
			name: "banned",
			lookup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectByID).WithArgs(repoUserID).WillReturnRows(userRow(StatusBanned, 9))
			},
			want: core.ErrBanned,
		},
		{
			name: "missing",
			lookup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectByID).WithArgs(repoUserID).WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			want: core.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectQuery(decrementSQL).
				WithArgs(repoUserID).
				WillReturnRows(sqlmock.NewRows([]string{"credits"}))
			tt.lookup(mock)

			remaining, err := repo.DecrementCredit(context.Background(), repoUserID)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, remaining)
		})
	}
}

func TestRepositoryDecrementCreditDriverError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(decrementSQL).WithArgs(repoUserID).WillReturnError(boom)

	_, err := repo.DecrementCredit(context.Background(), repoUserID)
	assert.ErrorIs(t, err, boom)
}

var planByEmailSQL = stmt(
	"UPDATE users",
	"SET plan = $2, credits = $3, updated_at = NOW()",
	"WHERE email = $1",
	"RETURNING id",
)

func TestRepositorySetPlanByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(planByEmailSQL).
		WithArgs("Ana@Example.com", "enterprise", 250).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(repoUserID))

	id, err := repo.SetPlanByEmail(context.Background(), "Ana@Example.com", plan.Enterprise, 250)
	require.NoError(t, err)
	assert.Equal(t, repoUserID, id)
}

func TestRepositorySetPlanByEmailNoMatch(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(planByEmailSQL).
		WithArgs("nobody@example.com", "pro", 100).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	id, err := repo.SetPlanByEmail(context.Background(), "nobody@example.com", plan.Pro, 100)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, id)
}

var resetSQL = stmt(
	"UPDATE users",
	"SET credits = CASE plan",
	"WHEN 'pro' THEN $1",
	"WHEN 'enterprise' THEN $2",
	"ELSE $3",
	"END,",
	"updated_at = NOW()",
	"WHERE status = 'active'",
)

func TestRepositoryResetAllCredits(t *testing.T) {
	repo, mock := newMockRepo(t)
	limits := plan.Limits{FreeCredits: 5, ProCredits: 100, EnterpriseCredits: 250}

	mock.ExpectExec(resetSQL).
		WithArgs(100, 250, 5).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ResetAllCredits(context.Background(), limits)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRepositoryResetAllCreditsNoActiveUsers(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(resetSQL).
		WithArgs(100, 100, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.ResetAllCredits(context.Background(), plan.DefaultLimits())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepositoryUpdateMissingUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(`(?s)^\s*UPDATE users\s+SET credits = \$2, updated_at = NOW\(\)\s+WHERE id = \$1\s+RETURNING id, email`).
		WithArgs(repoUserID, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := repo.SetCredits(ctx, repoUserID, 5)
	assert.ErrorIs(t, err, core.ErrNotFound)

	mock.ExpectExec(stmt("UPDATE users", "SET password_hash = $2, updated_at = NOW()", "WHERE id = $1")).
		WithArgs(repoUserID, "hash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdatePassword(ctx, repoUserID, "hash")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
