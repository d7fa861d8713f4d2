// AngelaMos | 2026
// plan.go

package plan

import (
	"database/sql/driver"
	"strings"

	"github.com/carterperez-dev/nexusai/internal/config"
)

type Plan string

const (
	Free       Plan = "free"
	Pro        Plan = "pro"
	Enterprise Plan = "enterprise"
)

func (p Plan) Valid() bool {
	switch p {
	case Free, Pro, Enterprise:
		return true
	}
	return false
}

func (p Plan) Value() (driver.Value, error) {
	return string(p), nil
}

// Paid reports whether the plan unlocks the paid rate-limit tier.
func (p Plan) Paid() bool {
	return p == Pro || p == Enterprise
}

// Parse normalizes user or provider input. Unknown values are free.
func Parse(s string) Plan {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return Free
}

// Limits maps each plan to the credit ceiling it resets to.
type Limits struct {
	FreeCredits       int
	ProCredits        int
	EnterpriseCredits int
}

func LimitsFromConfig(cfg config.PlansConfig) Limits {
	return Limits{
		FreeCredits:       cfg.FreeCredits,
		ProCredits:        cfg.ProCredits,
		EnterpriseCredits: cfg.EnterpriseCredits,
	}
}

func DefaultLimits() Limits {
	return Limits{FreeCredits: 5, ProCredits: 100, EnterpriseCredits: 100}
}

func (l Limits) Ceiling(p Plan) int {
	switch p {
	case Pro:
		return l.ProCredits
	case Enterprise:
		return l.EnterpriseCredits
	default:
		return l.FreeCredits
	}
}
