// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/nexusai/internal/plan"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	Role         string    `db:"role"`
	Plan         plan.Plan `db:"plan"`
	Theme        string    `db:"theme"`
	Credits      int       `db:"credits"`
	Status       string    `db:"status"`
	TokenVersion int       `db:"token_version"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsBanned() bool {
	return u.Status == StatusBanned
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusActive = "active"
	StatusBanned = "banned"
)

const (
	ThemeWhite  = "white"
	ThemeBlue   = "blue"
	ThemePurple = "purple"
	ThemeGreen  = "green"
	ThemeDark   = "dark"
)

// Balance is what a caller has left after spending a credit. Admins are
// never charged and report Unlimited.
type Balance struct {
	Credits   int  `json:"credits"`
	Unlimited bool `json:"unlimited"`
}

// Totals backs the admin overview.
type Totals struct {
	Users      int `db:"users"       json:"users"`
	Pro        int `db:"pro"         json:"pro"`
	Enterprise int `db:"enterprise"  json:"enterprise"`
	Banned     int `db:"banned"      json:"banned"`
}
