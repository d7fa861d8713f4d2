// AngelaMos | 2026
// gemini.go

package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/carterperez-dev/nexusai/internal/config"
	"github.com/carterperez-dev/nexusai/internal/core"
)

// Gemini serves chat, image and text generation through the Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    config.GeminiConfig
}

func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{client: client, cfg: cfg}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrUpstream, err)
}

func (g *Gemini) StreamChat(
	ctx context.Context,
	history []Turn,
	message string,
	onChunk func(string) error,
) error {
	model := g.client.GenerativeModel(g.cfg.ChatModel)
	if g.cfg.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(g.cfg.SystemInstruction)},
		}
	}

	cs := model.StartChat()
	cs.History = make([]*genai.Content, 0, len(history))
	for _, t := range history {
		cs.History = append(cs.History, &genai.Content{
			Role:  t.Role,
			Parts: []genai.Part{genai.Text(t.Text)},
		})
	}

	iter := cs.SendMessageStream(ctx, genai.Text(message))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return upstream("stream chat", err)
		}

		if text := responseText(resp); text != "" {
			if err := onChunk(text); err != nil {
				return err
			}
		}
	}
}

func (g *Gemini) GenerateImage(ctx context.Context, req ImageRequest) (*Image, error) {
	name := g.cfg.ImageModel
	if req.Quality == "hd" {
		name = g.cfg.ImageHDModel
	}
	model := g.client.GenerativeModel(name)

	resp, err := model.GenerateContent(ctx, genai.Text(imagePrompt(req)))
	if err != nil {
		return nil, upstream("generate image", err)
	}

	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if blob, ok := p.(genai.Blob); ok && len(blob.Data) > 0 {
				mime := blob.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &Image{MIMEType: mime, Data: blob.Data}, nil
			}
		}
	}

	return nil, upstream("generate image", errors.New("no image in response"))
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.cfg.TextModel)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", upstream("generate text", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", upstream("generate text", errors.New("empty response"))
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

// imagePrompt folds style and framing into the prompt text.
func imagePrompt(req ImageRequest) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Prompt))
	if req.Style != "" {
		b.WriteString(". Style: ")
		b.WriteString(req.Style)
	}
	b.WriteString(". High quality, detailed.")
	if req.AspectRatio != "" {
		b.WriteString(" Aspect ratio ")
		b.WriteString(req.AspectRatio)
		b.WriteString(".")
	}
	return b.String()
}
