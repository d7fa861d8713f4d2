// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/nexusai/internal/auth"
	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/plan"
)

var ErrLocalAdminReadOnly = errors.New("local administrator is read-only")

type Service struct {
	repo        Repository
	limits      plan.Limits
	checkoutURL string
	localAdmin  *auth.UserInfo
}

type Option func(*Service)

func WithCheckoutURL(url string) Option {
	return func(s *Service) { s.checkoutURL = url }
}

// WithLocalAdmin lets profile reads resolve the configured administrator,
// which has no row in the users table.
func WithLocalAdmin(info *auth.UserInfo) Option {
	return func(s *Service) { s.localAdmin = info }
}

func NewService(repo Repository, limits plan.Limits, opts ...Option) *Service {
	s := &Service{repo: repo, limits: limits}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Limits() plan.Limits {
	return s.limits
}

func (s *Service) CheckoutURL() string {
	return s.checkoutURL
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// Create opens a free account at the free ceiling with the default theme.
func (s *Service) Create(
	ctx context.Context,
	account auth.NewAccount,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(account.Email),
		PasswordHash: account.PasswordHash,
		Name:         strings.TrimSpace(account.Name),
		Phone:        strings.TrimSpace(account.Phone),
		Role:         RoleUser,
		Plan:         plan.Free,
		Theme:        ThemeWhite,
		Credits:      s.limits.Ceiling(plan.Free),
		Status:       StatusActive,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// DeductCredit spends one credit before a generation. Admins pass without
// touching the store. An empty balance fails with ErrInsufficientCredits.
func (s *Service) DeductCredit(
	ctx context.Context,
	userID, role string,
) (Balance, error) {
	if role == RoleAdmin {
		return Balance{Unlimited: true}, nil
	}

	if userID == "" {
		return Balance{}, fmt.Errorf("deduct credit: %w", core.ErrUnauthorized)
	}

	remaining, err := s.repo.DecrementCredit(ctx, userID)
	if err != nil {
		return Balance{}, err
	}

	return Balance{Credits: remaining}, nil
}

// RefreshCredits resets the balance to the ceiling of the user's plan.
// Banned accounts are refused.
func (s *Service) RefreshCredits(
	ctx context.Context,
	userID string,
) (*User, error) {
	if s.isLocalAdmin(userID) {
		return s.localAdminUser(), nil
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned() {
		return nil, fmt.Errorf("refresh credits: %w", core.ErrBanned)
	}

	return s.repo.SetCredits(ctx, userID, s.limits.Ceiling(user.Plan))
}

// ChangePlan moves a user onto p and resets credits to its ceiling.
func (s *Service) ChangePlan(
	ctx context.Context,
	id string,
	p plan.Plan,
) (*User, error) {
	if !p.Valid() {
		return nil, fmt.Errorf(
			"change plan: invalid plan %q: %w",
			p,
			core.ErrInvalidInput,
		)
	}

	return s.repo.SetPlan(ctx, id, p, s.limits.Ceiling(p))
}

// ApplyPlanByEmail is the reconciliation path for payment events. It
// returns core.ErrNotFound when no account carries the address.
func (s *Service) ApplyPlanByEmail(
	ctx context.Context,
	email string,
	p plan.Plan,
) (string, error) {
	return s.repo.SetPlanByEmail(ctx, email, p, s.limits.Ceiling(p))
}

// ToggleBan flips a user between active and banned. Admins cannot be banned.
func (s *Service) ToggleBan(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() {
		return nil, fmt.Errorf("cannot ban admin users: %w", core.ErrForbidden)
	}

	next := StatusBanned
	if user.IsBanned() {
		next = StatusActive
	}

	return s.repo.SetStatus(ctx, id, next)
}

func (s *Service) ResetAllCredits(ctx context.Context) (int64, error) {
	return s.repo.ResetAllCredits(ctx, s.limits)
}

func (s *Service) Totals(ctx context.Context) (*Totals, error) {
	return s.repo.Totals(ctx)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	if s.isLocalAdmin(userID) {
		return s.localAdminUser(), nil
	}

	return s.repo.GetByID(ctx, userID)
}

// UpdateMe edits name, phone and theme. Email never changes.
func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	if s.isLocalAdmin(userID) {
		return nil, fmt.Errorf("update me: %w", ErrLocalAdminReadOnly)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Theme != nil {
		user.Theme = *req.Theme
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) Upgrade(ctx context.Context, userID string) (*UpgradeResponse, error) {
	user, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UpgradeResponse{
		Plan:        user.Plan,
		Credits:     user.Credits,
		Ceiling:     s.limits.Ceiling(user.Plan),
		CheckoutURL: s.checkoutURL,
	}, nil
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, normalizeEmail(email))
}

func (s *Service) isLocalAdmin(id string) bool {
	return s.localAdmin != nil && id == s.localAdmin.ID
}

func (s *Service) localAdminUser() *User {
	a := s.localAdmin
	return &User{
		ID:      a.ID,
		Email:   a.Email,
		Name:    a.Name,
		Role:    a.Role,
		Plan:    a.Plan,
		Theme:   a.Theme,
		Credits: a.Credits,
		Status:  a.Status,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Plan:         u.Plan,
		Theme:        u.Theme,
		Credits:      u.Credits,
		Status:       u.Status,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
