// AngelaMos | 2026
// provider.go

package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/nexusai/internal/core"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one prior message of a chat conversation.
type Turn struct {
	Role string `json:"role" validate:"required,oneof=user model"`
	Text string `json:"text" validate:"required,max=8000"`
}

type ImageRequest struct {
	Prompt      string `json:"prompt"       validate:"required,max=2000"`
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=1:1 16:9 9:16 4:3 3:4"`
	Style       string `json:"style"        validate:"omitempty,max=64"`
	Quality     string `json:"quality"      validate:"omitempty,oneof=standard hd"`
}

type Image struct {
	MIMEType string
	Data     []byte
}

type VideoRequest struct {
	Prompt      string `json:"prompt"       validate:"required,max=2000"`
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16"`
	Resolution  string `json:"resolution"   validate:"omitempty,oneof=720p 1080p"`
}

// Operation is a provider side long-running video job.
type Operation struct {
	Name     string
	Done     bool
	VideoURI string
	Error    string
}

type ChatModel interface {
	StreamChat(
		ctx context.Context,
		history []Turn,
		message string,
		onChunk func(text string) error,
	) error
}

type ImageModel interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*Image, error)
}

type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type VideoModel interface {
	StartVideo(ctx context.Context, req VideoRequest) (Operation, error)
	CheckVideo(ctx context.Context, name string) (Operation, error)
	Download(ctx context.Context, uri string) ([]byte, string, error)
}

var ErrNotConfigured = errors.New("generation backend not configured")

// Unconfigured stands in for every model when no API key is set, so the
// rest of the API still starts.
type Unconfigured struct{}

func (Unconfigured) err() error {
	return fmt.Errorf("%w: %w", core.ErrUpstream, ErrNotConfigured)
}

func (u Unconfigured) StreamChat(context.Context, []Turn, string, func(string) error) error {
	return u.err()
}

func (u Unconfigured) GenerateImage(context.Context, ImageRequest) (*Image, error) {
	return nil, u.err()
}

func (u Unconfigured) GenerateText(context.Context, string) (string, error) {
	return "", u.err()
}

func (u Unconfigured) StartVideo(context.Context, VideoRequest) (Operation, error) {
	return Operation{}, u.err()
}

func (u Unconfigured) CheckVideo(context.Context, string) (Operation, error) {
	return Operation{}, u.err()
}

func (u Unconfigured) Download(context.Context, string) ([]byte, string, error) {
	return nil, "", u.err()
}
