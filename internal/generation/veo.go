// AngelaMos | 2026
// veo.go

package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/carterperez-dev/nexusai/internal/config"
)

const videoMIMEType = "video/mp4"

// Veo drives video generation through the Gemini long-running operations
// API. Polling is left to Poller.
type Veo struct {
	client *genai.Client
	model  string
}

func NewVeo(ctx context.Context, cfg config.GeminiConfig) (*Veo, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
			Timeout: &timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create veo client: %w", err)
	}

	return &Veo{client: client, model: cfg.VideoModel}, nil
}

func (v *Veo) StartVideo(ctx context.Context, req VideoRequest) (Operation, error) {
	op, err := v.client.Models.GenerateVideos(ctx, v.model, req.Prompt, nil,
		&genai.GenerateVideosConfig{
			NumberOfVideos: 1,
			AspectRatio:    req.AspectRatio,
			Resolution:     req.Resolution,
		},
	)
	if err != nil {
		return Operation{}, upstream("start video", err)
	}
	if op.Name == "" {
		return Operation{}, upstream("start video", errors.New("missing operation name"))
	}

	return toOperation(op), nil
}

func (v *Veo) CheckVideo(ctx context.Context, name string) (Operation, error) {
	op, err := v.client.Operations.GetVideosOperation(ctx,
		&genai.GenerateVideosOperation{Name: name}, nil)
	if err != nil {
		return Operation{}, upstream("check video", err)
	}
	if op.Name == "" {
		op.Name = name
	}
	return toOperation(op), nil
}

// Download fetches the finished video through the Files API.
func (v *Veo) Download(ctx context.Context, uri string) ([]byte, string, error) {
	video := &genai.Video{URI: uri}
	data, err := v.client.Files.Download(ctx, genai.NewDownloadURIFromVideo(video), nil)
	if err != nil {
		return nil, "", upstream("download video", err)
	}
	if len(data) == 0 {
		return nil, "", upstream("download video", errors.New("empty body"))
	}
	return data, videoMIMEType, nil
}

func toOperation(op *genai.GenerateVideosOperation) Operation {
	out := Operation{Name: op.Name, Done: op.Done}
	if len(op.Error) > 0 {
		out.Done = true
		out.Error = operationError(op.Error)
		return out
	}
	if op.Response == nil {
		return out
	}

	for _, gv := range op.Response.GeneratedVideos {
		if gv != nil && gv.Video != nil && gv.Video.URI != "" {
			out.VideoURI = gv.Video.URI
			return out
		}
	}
	if out.Done && op.Response.RAIMediaFilteredCount > 0 {
		out.Error = "video blocked by safety filters"
		if reasons := op.Response.RAIMediaFilteredReasons; len(reasons) > 0 {
			out.Error += ": " + strings.Join(reasons, "; ")
		}
	}
	return out
}

func operationError(e map[string]any) string {
	if msg, ok := e["message"].(string); ok && msg != "" {
		return msg
	}
	return fmt.Sprint(e)
}
