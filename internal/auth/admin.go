// AngelaMos | 2026
// admin.go

package auth

import (
	"context"
	"strings"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/plan"
)

const (
	LocalAdminID      = "admin_local"
	localAdminCredits = 9999
)

// AdminVerifier authenticates the local administrator before the user
// directory is consulted.
type AdminVerifier interface {
	Verify(ctx context.Context, username, password string) bool
}

// LocalAdmin accepts any configured username with the secret whose argon2id
// hash is held in config. An empty hash disables it.
type LocalAdmin struct {
	usernames map[string]struct{}
	hash      string
}

func NewLocalAdmin(usernames []string, passwordHash string) *LocalAdmin {
	set := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			set[u] = struct{}{}
		}
	}
	return &LocalAdmin{usernames: set, hash: passwordHash}
}

func (a *LocalAdmin) Verify(_ context.Context, username, password string) bool {
	if a.hash == "" {
		return false
	}
	if _, ok := a.usernames[strings.ToLower(strings.TrimSpace(username))]; !ok {
		return false
	}
	return core.VerifySecret(password, a.hash)
}

// LocalAdminInfo is the synthetic account a local admin login acts as.
func LocalAdminInfo(email string) *UserInfo {
	return &UserInfo{
		ID:      LocalAdminID,
		Email:   email,
		Name:    "Administrator",
		Role:    "admin",
		Plan:    plan.Enterprise,
		Theme:   "dark",
		Credits: localAdminCredits,
		Status:  "active",
	}
}
