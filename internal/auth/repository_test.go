// AngelaMos | 2026
// repository_test.go

package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/nexusai/internal/core"
)

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

func TestSessionScopeWhere(t *testing.T) {
	tests := []struct {
		name  string
		scope SessionScope
		where string
		args  []any
	}{
		{"empty", SessionScope{}, "", nil},
		{"token", SessionScope{TokenID: "t1"}, "id = $1", []any{"t1"}},
		{
			"user on device",
			SessionScope{UserID: "u1", DeviceID: "dev-a"},
			"user_id = $1 AND device_id = $2",
			[]any{"u1", "dev-a"},
		},
		{
			"owned token",
			SessionScope{TokenID: "t1", UserID: "u1"},
			"id = $1 AND user_id = $2",
			[]any{"t1", "u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.scope.where()
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestSessionScopeMatches(t *testing.T) {
	tok := &RefreshToken{ID: "t1", FamilyID: "f1", UserID: "u1", DeviceID: "dev-a"}

	assert.True(t, SessionScope{}.Matches(tok))
	assert.True(t, SessionScope{UserID: "u1", DeviceID: "dev-a"}.Matches(tok))
	assert.False(t, SessionScope{UserID: "u1", DeviceID: "dev-b"}.Matches(tok))
	assert.False(t, SessionScope{TokenID: "t1", UserID: "u2"}.Matches(tok))
}

func TestRepositoryRevokeDevice(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND device_id = $2 AND revoked_at IS NULL",
	)).
		WithArgs("u1", "dev-a").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.Revoke(context.Background(), SessionScope{UserID: "u1", DeviceID: "dev-a"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRepositoryRevokeRefusesEmptyScope(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.Revoke(context.Background(), SessionScope{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRepositoryActiveSessions(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "token_hash", "family_id", "device_id", "expires_at",
		"created_at", "is_used", "used_at", "revoked_at", "replaced_by_id",
		"user_agent", "ip_address",
	}).AddRow("t1", "u1", "hash", "f1", "dev-a", now.Add(time.Hour),
		now, false, nil, nil, nil, "curl", "127.0.0.1")

	mock.ExpectQuery(`(?s)FROM refresh_tokens\s+WHERE user_id = \$1 AND device_id = \$2\s+` +
		`AND revoked_at IS NULL\s+AND is_used = false\s+AND expires_at > NOW\(\)\s+` +
		`ORDER BY device_id, created_at DESC`).
		WithArgs("u1", "dev-a").
		WillReturnRows(rows)

	tokens, err := repo.ActiveSessions(context.Background(), SessionScope{UserID: "u1", DeviceID: "dev-a"})
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "dev-a", tokens[0].DeviceID)
	assert.Nil(t, tokens[0].RevokedAt)

	_, err = repo.ActiveSessions(context.Background(), SessionScope{DeviceID: "dev-a"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRepositoryRotateOnce(t *testing.T) {
	repo, mock := newMockRepo(t)
	query := regexp.QuoteMeta("UPDATE refresh_tokens SET is_used = true, used_at = NOW(), replaced_by_id = $2 WHERE id = $1 AND is_used = false")

	mock.ExpectExec(query).WithArgs("t1", "t2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("t1", "t3").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Rotate(context.Background(), "t1", "t2"))
	assert.ErrorIs(t, repo.Rotate(context.Background(), "t1", "t3"), core.ErrNotFound)
}
