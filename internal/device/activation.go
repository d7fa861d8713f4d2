// AngelaMos | 2026
// activation.go

package device

import (
	"context"
	"errors"
	"strings"

	"github.com/carterperez-dev/nexusai/internal/core"
)

var ErrInvalidCode = errors.New("invalid activation code")

// ActivationVerifier decides whether a code unlocks Pro on a device.
type ActivationVerifier interface {
	Verify(ctx context.Context, code string) bool
}

// HashedCode checks codes against the argon2id hash of the shared code.
type HashedCode struct {
	hash string
}

func NewHashedCode(hash string) *HashedCode {
	return &HashedCode{hash: hash}
}

func (h *HashedCode) Verify(_ context.Context, code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	return core.VerifySecret(code, h.hash)
}

type Service struct {
	store    *Store
	verifier ActivationVerifier
}

func NewService(store *Store, verifier ActivationVerifier) *Service {
	return &Service{store: store, verifier: verifier}
}

// Activate sets the Pro flag on deviceID when code verifies. A wrong code
// leaves the device untouched.
func (s *Service) Activate(ctx context.Context, deviceID, code string) error {
	if deviceID == "" {
		return ErrMissingDevice
	}

	if !s.verifier.Verify(ctx, code) {
		return ErrInvalidCode
	}

	return s.store.Activate(ctx, deviceID)
}

func (s *Service) State(ctx context.Context, deviceID string) (*State, error) {
	return s.store.State(ctx, deviceID)
}

func (s *Service) IsActivated(ctx context.Context, deviceID string) (bool, error) {
	return s.store.IsActivated(ctx, deviceID)
}
