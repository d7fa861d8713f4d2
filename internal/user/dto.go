// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/nexusai/internal/plan"
)

type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty,min=1,max=100"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Theme *string `json:"theme,omitempty" validate:"omitempty,oneof=white blue purple green dark"`
}

type UpdateUserPlanRequest struct {
	Plan string `json:"plan" validate:"required,oneof=free pro enterprise"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Plan      plan.Plan `json:"plan"`
	Theme     string    `json:"theme"`
	Credits   int       `json:"credits"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpgradeResponse struct {
	Plan        plan.Plan `json:"plan"`
	Credits     int       `json:"credits"`
	Ceiling     int       `json:"ceiling"`
	CheckoutURL string    `json:"checkout_url"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Plan     string `json:"plan"`
	Status   string `json:"status"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role,
		Plan:      u.Plan,
		Theme:     u.Theme,
		Credits:   u.Credits,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToUserResponse(&users[i]))
	}
	return out
}
