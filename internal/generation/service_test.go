// AngelaMos | 2026
// service_test.go

package generation

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/feature"
	"github.com/carterperez-dev/nexusai/internal/media"
	"github.com/carterperez-dev/nexusai/internal/middleware"
	"github.com/carterperez-dev/nexusai/internal/user"
)

type fakeCredits struct {
	mu       sync.Mutex
	balances map[string]int
	calls    int
}

func (f *fakeCredits) DeductCredit(_ context.Context, userID, role string) (user.Balance, error) {
	if role == user.RoleAdmin {
		return user.Balance{Unlimited: true}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := f.balances[userID]; !ok {
		return user.Balance{}, core.ErrNotFound
	}
	if f.balances[userID] <= 0 {
		return user.Balance{}, core.ErrInsufficientCredits
	}
	f.balances[userID]--
	return user.Balance{Credits: f.balances[userID]}, nil
}

type fakeModels struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	chunks  []string
}

func (f *fakeModels) record(prompt string) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
}

func (f *fakeModels) StreamChat(_ context.Context, _ []Turn, message string, onChunk func(string) error) error {
	f.record(message)
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeModels) GenerateImage(_ context.Context, req ImageRequest) (*Image, error) {
	f.record(req.Prompt)
	return &Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}, nil
}

func (f *fakeModels) GenerateText(_ context.Context, prompt string) (string, error) {
	f.record(prompt)
	return "generated", nil
}

func (f *fakeModels) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type env struct {
	svc      *Service
	credits  *fakeCredits
	models   *fakeModels
	video    *fakeVideo
	features *feature.Service
	jobs     *VideoJobs
	mediaDir string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	store, err := media.NewLocalStore(dir, "/media")
	require.NoError(t, err)

	credits := &fakeCredits{balances: map[string]int{"rich": 10, "broke": 0}}
	models := &fakeModels{chunks: []string{"Hel", "lo"}}
	video := &fakeVideo{doneAfter: 2}
	features := feature.NewService(feature.NewMemoryStore())
	jobs := NewVideoJobs(fastPoller(video, time.Minute, 1_000_000), video, store, time.Hour, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = jobs.Shutdown(ctx)
	})

	svc := NewService(credits, features, Models{
		Chat:  models,
		Image: models,
		Text:  models,
		Video: video,
	}, jobs, "https://pay.example/checkout", logger)

	return &env{
		svc:      svc,
		credits:  credits,
		models:   models,
		video:    video,
		features: features,
		jobs:     jobs,
		mediaDir: dir,
	}
}

func TestZeroBalanceNeverReachesModel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	broke := Caller{UserID: "broke", Role: "user"}

	_, err := e.svc.Image(ctx, broke, ImageRequest{Prompt: "cat"})
	require.Error(t, err)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusPaymentRequired, appErr.StatusCode)
	assert.Equal(t, "https://pay.example/checkout", appErr.Details["checkout_url"])

	_, err = e.svc.Text(ctx, broke, "ebook", "space travel")
	assert.ErrorIs(t, err, core.ErrInsufficientCredits)

	_, err = e.svc.Chat(ctx, broke, nil, "hi", func(string) error { return nil })
	assert.ErrorIs(t, err, core.ErrInsufficientCredits)

	_, err = e.svc.SubmitVideo(ctx, broke, VideoRequest{Prompt: "waves"})
	assert.ErrorIs(t, err, core.ErrInsufficientCredits)

	assert.Zero(t, e.models.Calls())
	assert.Zero(t, e.video.started)
	assert.Equal(t, 0, e.credits.balances["broke"])
}

func TestAdminIsNeverCharged(t *testing.T) {
	e := newEnv(t)
	admin := Caller{UserID: "admin_local", Role: "admin"}

	res, err := e.svc.Text(context.Background(), admin, "writer", "a poem")
	require.NoError(t, err)
	assert.True(t, res.Balance.Unlimited)
	assert.Zero(t, e.credits.calls)
	assert.Equal(t, 1, e.models.Calls())
}

func TestEachCallSpendsOneCredit(t *testing.T) {
	e := newEnv(t)
	rich := Caller{UserID: "rich", Role: "user"}

	res, err := e.svc.Image(context.Background(), rich, ImageRequest{Prompt: "cat", Style: "Anime"})
	require.NoError(t, err)
	assert.Equal(t, 9, res.Balance.Credits)
	assert.True(t, strings.HasPrefix(res.Image, "data:image/png;base64,"))
}

func TestDisabledFeatureBlocksBeforeCharging(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.features.Toggle(ctx, "image")
	require.NoError(t, err)

	_, err = e.svc.Image(ctx, Caller{UserID: "rich", Role: "user"}, ImageRequest{Prompt: "cat"})
	assert.ErrorIs(t, err, core.ErrFeatureDisabled)
	assert.Zero(t, e.credits.calls)
	assert.Zero(t, e.models.Calls())
}

func TestTextRejectsUnknownAndNonTools(t *testing.T) {
	e := newEnv(t)
	rich := Caller{UserID: "rich", Role: "user"}

	_, err := e.svc.Text(context.Background(), rich, "nope", "x")
	assert.ErrorIs(t, err, core.ErrFeatureMissing)

	_, err = e.svc.Text(context.Background(), rich, "library", "x")
	assert.ErrorIs(t, err, core.ErrFeatureMissing)
	assert.Zero(t, e.credits.calls)
}

func TestTextPrompt(t *testing.T) {
	ebook := feature.Feature{ID: "ebook", Label: "E-book Generator"}
	p := TextPrompt(ebook, "  dragons ")
	assert.True(t, strings.HasPrefix(p, "Write a detailed chapter outline"))
	assert.Contains(t, p, "Act as an expert in E-book Generator.")
	assert.Contains(t, p, `"dragons"`)

	other := feature.Feature{ID: "quotes", Label: "Motivational Quotes"}
	assert.True(t, strings.HasPrefix(TextPrompt(other, "x"), defaultTextPrefix))
}

func TestImagePrompt(t *testing.T) {
	p := imagePrompt(ImageRequest{Prompt: "a fox", Style: "Anime", AspectRatio: "16:9"})
	assert.Equal(t, "a fox. Style: Anime. High quality, detailed. Aspect ratio 16:9.", p)
}

func TestVideoJobLifecycle(t *testing.T) {
	e := newEnv(t)
	rich := Caller{UserID: "rich", Role: "user"}

	sub, err := e.svc.SubmitVideo(context.Background(), rich, VideoRequest{Prompt: "waves"})
	require.NoError(t, err)
	assert.Equal(t, JobRunning, sub.Job.Status)
	assert.Equal(t, 9, sub.Balance.Credits)

	var view JobView
	require.Eventually(t, func() bool {
		view, err = e.svc.VideoStatus(rich, sub.Job.ID)
		return err == nil && view.Status != JobRunning
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, JobSucceeded, view.Status)
	require.True(t, strings.HasPrefix(view.URL, "/media/videos/"))

	data, err := os.ReadFile(filepath.Join(e.mediaDir, filepath.FromSlash(strings.TrimPrefix(view.URL, "/media/"))))
	require.NoError(t, err)
	assert.Equal(t, "mp4-bytes", string(data))

	_, err = e.svc.VideoStatus(Caller{UserID: "someone-else"}, sub.Job.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestVideoJobCancel(t *testing.T) {
	e := newEnv(t)
	e.video.doneAfter = -1
	rich := Caller{UserID: "rich", Role: "user"}

	sub, err := e.svc.SubmitVideo(context.Background(), rich, VideoRequest{Prompt: "slow"})
	require.NoError(t, err)

	_, err = e.svc.CancelVideo(rich, sub.Job.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, err := e.svc.VideoStatus(rich, sub.Job.ID)
		return err == nil && v.Status == JobCanceled
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStartWithFinishedOperation(t *testing.T) {
	e := newEnv(t)
	done := Operation{Name: "operations/ready", Done: true, VideoURI: "https://files.example/v.mp4?alt=media"}

	views := make([]JobView, 0, 20)
	for range 20 {
		views = append(views, e.jobs.Start("rich", done))
	}

	for _, v := range views {
		assert.Equal(t, JobRunning, v.Status)
		assert.Empty(t, v.URL)
		require.Eventually(t, func() bool {
			got, err := e.jobs.Get(v.ID, "rich")
			return err == nil && got.Status == JobSucceeded
		}, 2*time.Second, 5*time.Millisecond)
	}
}

func TestPruneDropsOldFinishedJobs(t *testing.T) {
	e := newEnv(t)
	rich := Caller{UserID: "rich", Role: "user"}

	sub, err := e.svc.SubmitVideo(context.Background(), rich, VideoRequest{Prompt: "waves"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		v, _ := e.svc.VideoStatus(rich, sub.Job.ID)
		return v.Status == JobSucceeded
	}, 2*time.Second, 5*time.Millisecond)

	assert.Zero(t, e.jobs.Prune(time.Now()))
	assert.Equal(t, 1, e.jobs.Prune(time.Now().Add(2*time.Hour)))

	_, err = e.svc.VideoStatus(rich, sub.Job.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func toolsRouter(e *env, claims *middleware.AccessTokenClaims) http.Handler {
	r := chi.NewRouter()
	inject := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithClaims(req.Context(), claims)))
		})
	}
	NewHandler(e.svc, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(r, inject)
	return r
}

func TestChatHandlerStreams(t *testing.T) {
	e := newEnv(t)
	h := toolsRouter(e, &middleware.AccessTokenClaims{UserID: "rich", Role: "user"})

	req := httptest.NewRequest(http.MethodPost, "/tools/chat",
		strings.NewReader(`{"history":[{"role":"user","text":"hey"},{"role":"model","text":"hi"}],"message":"hello"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event: chunk\ndata: {\"text\":\"Hel\"}")
	assert.Contains(t, body, "event: chunk\ndata: {\"text\":\"lo\"}")
	assert.Contains(t, body, "event: done")
}

func TestChatHandlerOutOfCredits(t *testing.T) {
	e := newEnv(t)
	h := toolsRouter(e, &middleware.AccessTokenClaims{UserID: "broke", Role: "user"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/chat", strings.NewReader(`{"message":"hello"}`)))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "INSUFFICIENT_CREDITS")
	assert.Contains(t, rec.Body.String(), "checkout_url")
	assert.Zero(t, e.models.Calls())
}

func TestToolHandlerMissingAccount(t *testing.T) {
	e := newEnv(t)
	h := toolsRouter(e, &middleware.AccessTokenClaims{UserID: "ghost", Role: "user"})

	for _, tc := range []struct{ path, body string }{
		{"/tools/chat", `{"message":"hello"}`},
		{"/tools/ebook", `{"input":"dragons"}`},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body)))

		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.NotContains(t, rec.Body.String(), "video job", tc.path)
	}
	assert.Zero(t, e.models.Calls())
}

func TestTextHandler(t *testing.T) {
	e := newEnv(t)
	h := toolsRouter(e, &middleware.AccessTokenClaims{UserID: "rich", Role: "user"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/ebook", strings.NewReader(`{"input":"dragons"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"output":"generated"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/ebook", strings.NewReader(`{"input":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/missing", strings.NewReader(`{"input":"x"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVideoHandlers(t *testing.T) {
	e := newEnv(t)
	e.video.doneAfter = -1
	h := toolsRouter(e, &middleware.AccessTokenClaims{UserID: "rich", Role: "user"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/video",
		strings.NewReader(`{"prompt":"waves","aspect_ratio":"9:16"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var views []JobView
	e.jobs.mu.Lock()
	for _, jb := range e.jobs.jobs {
		views = append(views, jb.view)
	}
	e.jobs.mu.Unlock()
	require.Len(t, views, 1)
	id := views[0].ID

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools/video/"+id, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/tools/video/"+id, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools/video/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "video job not found")
}
