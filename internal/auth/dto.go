// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/nexusai/internal/plan"
)

// LoginRequest accepts an email or, for the local administrator, a
// configured username.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Phone    string `json:"phone"    validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserResponse struct {
	ID      string    `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone,omitempty"`
	Role    string    `json:"role"`
	Plan    plan.Plan `json:"plan"`
	Theme   string    `json:"theme"`
	Credits int       `json:"credits"`
	Status  string    `json:"status"`
}

type AuthResponse struct {
	User     UserResponse  `json:"user"`
	Tokens   TokenResponse `json:"tokens"`
	Redirect string        `json:"redirect"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id,omitempty"`
	Current   bool      `json:"current"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type DeviceLogoutResponse struct {
	DeviceID string `json:"device_id"`
	Revoked  int64  `json:"revoked"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,max=128"`
}

func toUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Phone:   u.Phone,
		Role:    u.Role,
		Plan:    u.Plan,
		Theme:   u.Theme,
		Credits: u.Credits,
		Status:  u.Status,
	}
}
