// AngelaMos | 2026
// service.go

package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/feature"
	"github.com/carterperez-dev/nexusai/internal/metrics"
	"github.com/carterperez-dev/nexusai/internal/user"
)

const (
	FeatureChat  = "chat"
	FeatureImage = "image"
	FeatureVideo = "video"

	defaultTextPrefix = "Create professional and creative content about:"
)

var textPrefixes = map[string]string{
	"marketing":   "Create an engaging marketing post for:",
	"ebook":       "Write a detailed chapter outline for an e-book about:",
	"site-gen":    "Generate the HTML and CSS (Tailwind) structure for a website about:",
	"app-builder": "Describe the technical architecture and features for an app that does:",
}

// CreditSpender charges one credit per generation.
type CreditSpender interface {
	DeductCredit(ctx context.Context, userID, role string) (user.Balance, error)
}

// FeatureGate resolves catalog entries and their enabled flag.
type FeatureGate interface {
	Get(ctx context.Context, id string) (feature.Feature, error)
	RequireEnabled(ctx context.Context, id string) error
}

// Caller identifies who is spending the credit.
type Caller struct {
	UserID string
	Role   string
}

type Models struct {
	Chat  ChatModel
	Image ImageModel
	Text  TextModel
	Video VideoModel
}

type Service struct {
	credits     CreditSpender
	features    FeatureGate
	models      Models
	jobs        *VideoJobs
	checkoutURL string
	logger      *slog.Logger
}

func NewService(
	credits CreditSpender,
	features FeatureGate,
	models Models,
	jobs *VideoJobs,
	checkoutURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		credits:     credits,
		features:    features,
		models:      models,
		jobs:        jobs,
		checkoutURL: checkoutURL,
		logger:      logger,
	}
}

// charge gates every backend call: the feature must be enabled and a
// credit must be spent before the model is touched.
func (s *Service) charge(ctx context.Context, featureID string, c Caller) (user.Balance, error) {
	if err := s.features.RequireEnabled(ctx, featureID); err != nil {
		return user.Balance{}, err
	}

	balance, err := s.credits.DeductCredit(ctx, c.UserID, c.Role)
	switch {
	case err == nil:
		if balance.Unlimited {
			metrics.RecordDeduction("unlimited")
		} else {
			metrics.RecordDeduction("charged")
		}
		return balance, nil
	case errors.Is(err, core.ErrInsufficientCredits):
		metrics.RecordDeduction("insufficient")
		return user.Balance{}, core.InsufficientCreditsError(s.checkoutURL)
	default:
		metrics.RecordDeduction("error")
		return user.Balance{}, err
	}
}

func (s *Service) Chat(
	ctx context.Context,
	c Caller,
	history []Turn,
	message string,
	onChunk func(string) error,
) (user.Balance, error) {
	balance, err := s.charge(ctx, FeatureChat, c)
	if err != nil {
		return balance, err
	}

	ctx, end := core.StartSpan(ctx, "generation.chat")
	err = s.models.Chat.StreamChat(ctx, history, message, onChunk)
	end(err)
	metrics.RecordGeneration(FeatureChat, err)

	return balance, err
}

type ImageResult struct {
	Image   string       `json:"image"`
	Balance user.Balance `json:"balance"`
}

func (s *Service) Image(ctx context.Context, c Caller, req ImageRequest) (*ImageResult, error) {
	balance, err := s.charge(ctx, FeatureImage, c)
	if err != nil {
		return nil, err
	}

	ctx, end := core.StartSpan(ctx, "generation.image")
	img, err := s.models.Image.GenerateImage(ctx, req)
	end(err)
	metrics.RecordGeneration(FeatureImage, err)
	if err != nil {
		return nil, err
	}

	return &ImageResult{
		Image:   "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
		Balance: balance,
	}, nil
}

type TextResult struct {
	Output  string       `json:"output"`
	Balance user.Balance `json:"balance"`
}

// TextPrompt frames input for a catalog tool.
func TextPrompt(f feature.Feature, input string) string {
	prefix, ok := textPrefixes[f.ID]
	if !ok {
		prefix = defaultTextPrefix
	}
	return fmt.Sprintf(
		"%s Act as an expert in %s. The user asked: %q. Produce the best possible result, well formatted and creative.",
		prefix,
		f.Label,
		strings.TrimSpace(input),
	)
}

func (s *Service) Text(ctx context.Context, c Caller, featureID, input string) (*TextResult, error) {
	f, err := s.features.Get(ctx, featureID)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(f.Path, "/tool/") {
		return nil, fmt.Errorf("%s is not a tool: %w", featureID, core.ErrFeatureMissing)
	}

	balance, err := s.charge(ctx, featureID, c)
	if err != nil {
		return nil, err
	}

	ctx, end := core.StartSpan(ctx, "generation.text")
	out, err := s.models.Text.GenerateText(ctx, TextPrompt(f, input))
	end(err)
	metrics.RecordGeneration(featureID, err)
	if err != nil {
		return nil, err
	}

	return &TextResult{Output: out, Balance: balance}, nil
}

type VideoSubmission struct {
	Job     JobView      `json:"job"`
	Balance user.Balance `json:"balance"`
}

// SubmitVideo charges, starts the provider operation and hands it to the
// job registry.
func (s *Service) SubmitVideo(ctx context.Context, c Caller, req VideoRequest) (*VideoSubmission, error) {
	balance, err := s.charge(ctx, FeatureVideo, c)
	if err != nil {
		return nil, err
	}

	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}
	if req.Resolution == "" {
		req.Resolution = "720p"
	}

	ctx, end := core.StartSpan(ctx, "generation.video.start")
	op, err := s.models.Video.StartVideo(ctx, req)
	end(err)
	metrics.RecordGeneration(FeatureVideo, err)
	if err != nil {
		return nil, err
	}

	view := s.jobs.Start(c.UserID, op)
	s.logger.Info("video job started", "job_id", view.ID, "user_id", c.UserID)

	return &VideoSubmission{Job: view, Balance: balance}, nil
}

func (s *Service) VideoStatus(c Caller, jobID string) (JobView, error) {
	return s.jobs.Get(jobID, c.UserID)
}

func (s *Service) CancelVideo(c Caller, jobID string) (JobView, error) {
	return s.jobs.Cancel(jobID, c.UserID)
}
