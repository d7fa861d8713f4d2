// AngelaMos | 2026
// veo_test.go

package generation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/carterperez-dev/nexusai/internal/config"
	"github.com/carterperez-dev/nexusai/internal/core"
)

const veoOpName = "models/veo-test/operations/op1"

type veoBackend struct {
	srv      *httptest.Server
	checks   atomic.Int32
	prompt   atomic.Value
	failPoll atomic.Bool
}

func newVeoBackend(t *testing.T) *veoBackend {
	t.Helper()

	b := &veoBackend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			http.Error(w, `{"error":{"code":401,"message":"bad key"}}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1beta/models/veo-test:predictLongRunning":
			body, _ := io.ReadAll(r.Body)
			b.prompt.Store(string(body))
			fmt.Fprintf(w, `{"name":%q}`, veoOpName)

		case r.Method == http.MethodGet && r.URL.Path == "/v1beta/"+veoOpName:
			if b.failPoll.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":{"code":500,"message":"backend down"}}`)
				return
			}
			if b.checks.Add(1) < 2 {
				fmt.Fprintf(w, `{"name":%q}`, veoOpName)
				return
			}
			fmt.Fprintf(w, `{"name":%q,"done":true,"response":{"generateVideoResponse":`+
				`{"generatedSamples":[{"video":{"uri":"%s/v1beta/files/abc123:download?alt=media"}}]}}}`,
				veoOpName, b.srv.URL)

		case r.Method == http.MethodGet && r.URL.Path == "/v1beta/files/abc123:download":
			w.Header().Set("Content-Type", "video/mp4")
			fmt.Fprint(w, "mp4-bytes")

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(b.srv.Close)

	return b
}

func (b *veoBackend) veo(t *testing.T) *Veo {
	t.Helper()

	v, err := NewVeo(context.Background(), config.GeminiConfig{
		APIKey:         "test-key",
		BaseURL:        b.srv.URL + "/",
		VideoModel:     "veo-test",
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return v
}

func TestNewVeoRequiresKey(t *testing.T) {
	_, err := NewVeo(context.Background(), config.GeminiConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVeoRoundTrip(t *testing.T) {
	b := newVeoBackend(t)
	v := b.veo(t)
	ctx := context.Background()

	op, err := v.StartVideo(ctx, VideoRequest{Prompt: "waves at dusk", AspectRatio: "9:16"})
	require.NoError(t, err)
	assert.Equal(t, veoOpName, op.Name)
	assert.False(t, op.Done)
	assert.Contains(t, b.prompt.Load(), `"prompt":"waves at dusk"`)

	poller := NewPoller(v, config.VideoConfig{
		PollInterval: time.Millisecond,
		Deadline:     5 * time.Second,
		MaxAttempts:  10,
	})
	done, err := poller.Wait(ctx, op)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(done.VideoURI, "/v1beta/files/abc123:download?alt=media"))

	data, mime, err := v.Download(ctx, done.VideoURI)
	require.NoError(t, err)
	assert.Equal(t, "mp4-bytes", string(data))
	assert.Equal(t, "video/mp4", mime)
}

func TestVeoPollFailureIsUpstream(t *testing.T) {
	b := newVeoBackend(t)
	b.failPoll.Store(true)
	v := b.veo(t)

	_, err := v.CheckVideo(context.Background(), veoOpName)
	assert.ErrorIs(t, err, core.ErrUpstream)
}

func TestToOperation(t *testing.T) {
	tests := []struct {
		name string
		op   *genai.GenerateVideosOperation
		want Operation
	}{
		{
			name: "running",
			op:   &genai.GenerateVideosOperation{Name: "op"},
			want: Operation{Name: "op"},
		},
		{
			name: "provider error",
			op: &genai.GenerateVideosOperation{
				Name:  "op",
				Error: map[string]any{"code": 3, "message": "prompt rejected"},
			},
			want: Operation{Name: "op", Done: true, Error: "prompt rejected"},
		},
		{
			name: "filtered",
			op: &genai.GenerateVideosOperation{
				Name: "op",
				Done: true,
				Response: &genai.GenerateVideosResponse{
					RAIMediaFilteredCount:   1,
					RAIMediaFilteredReasons: []string{"unsafe content"},
				},
			},
			want: Operation{Name: "op", Done: true, Error: "video blocked by safety filters: unsafe content"},
		},
		{
			name: "first usable video",
			op: &genai.GenerateVideosOperation{
				Name: "op",
				Done: true,
				Response: &genai.GenerateVideosResponse{
					GeneratedVideos: []*genai.GeneratedVideo{
						{Video: &genai.Video{}},
						{Video: &genai.Video{URI: "https://files.example/v"}},
					},
				},
			},
			want: Operation{Name: "op", Done: true, VideoURI: "https://files.example/v"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toOperation(tt.op))
		})
	}
}
