// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/middleware"
	"github.com/carterperez-dev/nexusai/internal/plan"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

const expiredTokenGrace = 24 * time.Hour

const (
	themeDefault   = "white"
	redirectLogin  = "/tool/chat"
	RedirectLogout = "/login-pro"
)

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         string
	Plan         plan.Plan
	Theme        string
	Credits      int
	Status       string
	TokenVersion int
}

func (u *UserInfo) banned() bool {
	return u.Status == "banned"
}

type NewAccount struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        string
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, account NewAccount) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// DeviceState is the slice of device storage sessions touch: a local admin
// login activates the device, and every login or logout sets its theme.
type DeviceState interface {
	Activate(ctx context.Context, deviceID string) error
	SetTheme(ctx context.Context, deviceID, theme string) error
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	redis        *redis.Client
	devices      DeviceState
	admin        AdminVerifier
	localAdmin   *UserInfo
	adminEmail   string
	logger       *slog.Logger
}

type Option func(*Service)

func WithDevices(d DeviceState) Option {
	return func(s *Service) { s.devices = d }
}

// WithLocalAdmin enables the configured administrator login.
func WithLocalAdmin(v AdminVerifier, info *UserInfo) Option {
	return func(s *Service) {
		s.admin = v
		s.localAdmin = info
	}
}

// WithAdminEmail promotes the directory account holding email to admin.
func WithAdminEmail(email string) Option {
	return func(s *Service) { s.adminEmail = email }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	redisClient *redis.Client,
	opts ...Option,
) *Service {
	s := &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		redis:        redisClient,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks the local administrator first, then the user directory.
// Banned accounts are refused only after their password verifies.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	meta ClientMeta,
) (*AuthResponse, error) {
	if s.admin != nil && s.admin.Verify(ctx, req.Email, req.Password) {
		s.touchDevice(ctx, meta.DeviceID, s.localAdmin.Theme, true)
		return s.createAuthResponse(ctx, s.localAdmin, meta, "", nil)
	}

	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if user.banned() {
		return nil, fmt.Errorf("login: %w", core.ErrBanned)
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	s.touchDevice(ctx, meta.DeviceID, user.Theme, false)
	return s.createAuthResponse(ctx, s.withRole(user), meta, "", nil)
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	meta ClientMeta,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, NewAccount{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Phone:        req.Phone,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.touchDevice(ctx, meta.DeviceID, user.Theme, false)
	return s.createAuthResponse(ctx, s.withRole(user), meta, "", nil)
}

// Refresh rotates a refresh token. Presenting an already used token
// revokes its whole family.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	meta ClientMeta,
) (*AuthResponse, error) {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		//nolint:errcheck // security revocation continues regardless
		_, _ = s.repo.Revoke(ctx, SessionScope{FamilyID: storedToken.FamilyID})
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid() {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.lookup(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.banned() {
		//nolint:errcheck // the ban already blocks this session
		_, _ = s.repo.Revoke(ctx, SessionScope{FamilyID: storedToken.FamilyID})
		return nil, fmt.Errorf("refresh: %w", core.ErrBanned)
	}

	if meta.DeviceID == "" {
		meta.DeviceID = storedToken.DeviceID
	}

	return s.createAuthResponse(
		ctx,
		user,
		meta,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

// Logout revokes the refresh token and resets the device theme. The device
// activation flag stays as it is.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken, userID, deviceID string,
) error {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("find token: %w", err)
	}

	if storedToken != nil {
		if storedToken.UserID != userID {
			return fmt.Errorf("logout: %w", core.ErrForbidden)
		}

		if _, err := s.repo.Revoke(ctx, SessionScope{TokenID: storedToken.ID}); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}

	s.touchDevice(ctx, deviceID, themeDefault, false)
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if _, err := s.repo.Revoke(ctx, SessionScope{UserID: userID}); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if s.isLocalAdmin(userID) {
		return nil
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

// LogoutDevice ends every session the user holds on one device and resets
// the device theme. It returns how many sessions were ended.
func (s *Service) LogoutDevice(
	ctx context.Context,
	userID, deviceID string,
) (int64, error) {
	if deviceID == "" {
		return 0, fmt.Errorf("logout device: %w", core.ErrInvalidInput)
	}

	n, err := s.repo.Revoke(ctx, SessionScope{UserID: userID, DeviceID: deviceID})
	if err != nil {
		return 0, fmt.Errorf("logout device: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("logout device: %w", core.ErrNotFound)
	}

	s.touchDevice(ctx, deviceID, themeDefault, false)
	return n, nil
}

// PurgeExpiredTokens drops refresh tokens that expired more than a day ago.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, time.Now().Add(-expiredTokenGrace))
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return n, nil
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	exists, err := s.redis.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

// VerifyAccessToken validates the signature and rejects tokens revoked at
// logout. A Redis outage does not lock everyone out.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	verified, err := s.jwt.Verify(token)
	if err != nil {
		return nil, err
	}

	if verified.JTI != "" {
		revoked, err := s.IsAccessTokenBlacklisted(ctx, verified.JTI)
		if err != nil {
			s.logger.Warn("token blacklist unavailable", "error", err)
		}
		if revoked {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
	}

	return verified.Claims, nil
}

// RevokePresentedToken blacklists the raw access token until it expires.
func (s *Service) RevokePresentedToken(ctx context.Context, token string) error {
	verified, err := s.jwt.Verify(token)
	if err != nil {
		return nil //nolint:nilerr // an invalid token needs no revocation
	}
	return s.RevokeAccessToken(ctx, verified.JTI, verified.ExpiresAt)
}

// GetActiveSessions lists a user's live sessions and flags those opened on
// currentDevice. With thisDeviceOnly the list is limited to that device.
func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID, currentDevice string,
	thisDeviceOnly bool,
) ([]SessionInfo, error) {
	scope := SessionScope{UserID: userID}
	if thisDeviceOnly {
		if currentDevice == "" {
			return []SessionInfo{}, nil
		}
		scope.DeviceID = currentDevice
	}

	tokens, err := s.repo.ActiveSessions(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			DeviceID:  t.DeviceID,
			Current:   currentDevice != "" && t.DeviceID == currentDevice,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	n, err := s.repo.Revoke(ctx, SessionScope{TokenID: sessionID, UserID: userID})
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	if s.isLocalAdmin(userID) {
		return fmt.Errorf("change password: %w", core.ErrForbidden)
	}

	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) isLocalAdmin(id string) bool {
	return s.localAdmin != nil && id == s.localAdmin.ID
}

func (s *Service) lookup(ctx context.Context, id string) (*UserInfo, error) {
	if s.isLocalAdmin(id) {
		return s.localAdmin, nil
	}

	user, err := s.userProvider.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withRole(user), nil
}

// withRole applies the admin email rule so both admin sources share one
// role.
func (s *Service) withRole(u *UserInfo) *UserInfo {
	if s.adminEmail != "" && u.Email == s.adminEmail && u.Role != "admin" {
		cp := *u
		cp.Role = "admin"
		return &cp
	}
	return u
}

func (s *Service) touchDevice(
	ctx context.Context,
	deviceID, theme string,
	activate bool,
) {
	if s.devices == nil || deviceID == "" {
		return
	}

	if activate {
		if err := s.devices.Activate(ctx, deviceID); err != nil {
			s.logger.Warn("failed to activate device", "device_id", deviceID, "error", err)
		}
	}

	if theme == "" {
		theme = themeDefault
	}
	if err := s.devices.SetTheme(ctx, deviceID, theme); err != nil {
		s.logger.Warn("failed to set device theme", "device_id", deviceID, "error", err)
	}
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	meta ClientMeta,
	familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		Plan:         string(user.Plan),
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	err = s.repo.Create(ctx, &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		DeviceID:  meta.DeviceID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		//nolint:errcheck // best-effort token chain tracking
		_ = s.repo.Rotate(ctx, *oldTokenID, newTokenID)
	}

	ttl := s.jwt.AccessTokenTTL()

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
		Redirect: redirectLogin,
	}, nil
}
