// AngelaMos | 2026
// service_test.go

package feature

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/nexusai/internal/core"
)

func TestCatalogIsWellFormed(t *testing.T) {
	seen := make(map[string]struct{})
	for _, f := range Catalog() {
		_, dup := seen[f.ID]
		assert.False(t, dup, "duplicate id %s", f.ID)
		seen[f.ID] = struct{}{}

		assert.True(t, f.Category.Valid(), f.ID)
		assert.Equal(t, f.Icon, ResolveIcon(string(f.Icon)), f.ID)
		assert.True(t, f.Enabled, f.ID)
		assert.NotEmpty(t, f.Path, f.ID)
	}

	assert.Contains(t, seen, "chat")
	assert.Contains(t, seen, "video")
	assert.Contains(t, seen, "pro-sales")
}

func TestResolveIconFallback(t *testing.T) {
	assert.Equal(t, IconCrown, ResolveIcon("Crown"))
	assert.Equal(t, IconSparkles, ResolveIcon("NoSuchIcon"))
	assert.Equal(t, IconSparkles, ResolveIcon(""))
}

func TestToggleAndRequireEnabled(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, svc.RequireEnabled(ctx, "logo"))

	f, err := svc.Toggle(ctx, "logo")
	require.NoError(t, err)
	assert.False(t, f.Enabled)
	assert.ErrorIs(t, svc.RequireEnabled(ctx, "logo"), core.ErrFeatureDisabled)

	f, err = svc.Toggle(ctx, "logo")
	require.NoError(t, err)
	assert.True(t, f.Enabled)

	_, err = svc.Toggle(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrFeatureMissing)
	assert.ErrorIs(t, svc.RequireEnabled(ctx, "nope"), core.ErrFeatureMissing)
}

func TestNavigationHidesDisabled(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "chat")
	require.NoError(t, err)

	groups, err := svc.Navigation(ctx)
	require.NoError(t, err)
	require.Len(t, groups, len(Categories))
	assert.Equal(t, CategoryCreate, groups[0].Category)

	for _, g := range groups {
		for _, f := range g.Features {
			assert.NotEqual(t, "chat", f.ID)
			assert.Equal(t, g.Category, f.Category)
		}
	}
}

func TestSearch(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	tests := []struct {
		name    string
		query   string
		admin   bool
		want    []string
		wantLen int
	}{
		{name: "empty", query: "  ", wantLen: 0},
		{name: "by label", query: "logo", want: []string{"logo"}},
		{name: "by id", query: "qr-code", want: []string{"qr-code"}},
		{name: "voice hint", query: "audio", want: []string{"music-gen", "voice-gen", "audio-chat"}},
		{name: "video hint", query: "film", want: []string{"video", "reels-maker"}},
		{name: "admin hidden", query: "admin", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.query, tt.admin)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), searchLimit)

			ids := make([]string, 0, len(got))
			for _, f := range got {
				ids = append(ids, f.ID)
			}
			for _, id := range tt.want {
				assert.Contains(t, ids, id)
			}
			if tt.want == nil {
				assert.Len(t, got, tt.wantLen)
			}
		})
	}
}

func TestSearchCapsResults(t *testing.T) {
	svc := NewService(NewMemoryStore())

	got, err := svc.Search(context.Background(), "photo", false)
	require.NoError(t, err)
	assert.Len(t, got, searchLimit)
}

func TestSearchSkipsDisabled(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "logo")
	require.NoError(t, err)

	got, err := svc.Search(ctx, "logo", false)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStorePersistsAcrossServices(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	first := NewService(NewRedisStore(rdb))
	_, err := first.Toggle(ctx, "banner")
	require.NoError(t, err)

	second := NewService(NewRedisStore(rdb))
	f, err := second.Get(ctx, "banner")
	require.NoError(t, err)
	assert.False(t, f.Enabled)

	assert.Equal(t, "0", mr.HGet(redisFlagsKey, "banner"))
}

func TestNavigationHandler(t *testing.T) {
	svc := NewService(NewMemoryStore())
	r := chi.NewRouter()
	passthrough := func(next http.Handler) http.Handler { return next }
	NewHandler(svc).RegisterRoutes(r, passthrough)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/features/search?q=logo", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Results []Feature `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Results, 1)
	assert.Equal(t, "/tool/logo", body.Data.Results[0].Path)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/navigation", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"category":"create"`)
}
