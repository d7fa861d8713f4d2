// AngelaMos | 2026
// reconciler.go

package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/plan"
)

// Outcome classifies a processed event. It doubles as the metrics label.
type Outcome string

const (
	OutcomeNoEmail      Outcome = "no_email"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeUnknownUser  Outcome = "unknown_user"
	OutcomeUpgraded     Outcome = "upgraded"
	OutcomeDowngraded   Outcome = "downgraded"
	OutcomeFailed       Outcome = "failed"
	OutcomeBadSignature Outcome = "bad_signature"
	OutcomeMalformed    Outcome = "malformed"
)

var (
	approvedStatuses = map[string]struct{}{
		"paid":       {},
		"approved":   {},
		"authorized": {},
		"completed":  {},
	}
	canceledStatuses = map[string]struct{}{
		"canceled":    {},
		"refunded":    {},
		"chargedback": {},
		"expired":     {},
		"refused":     {},
	}
)

// TargetPlan maps a provider status to the plan it implies. ok is false for
// intermediate statuses such as pending.
func TargetPlan(status string) (p plan.Plan, ok bool) {
	if _, hit := approvedStatuses[status]; hit {
		return plan.Pro, true
	}
	if _, hit := canceledStatuses[status]; hit {
		return plan.Free, true
	}
	return "", false
}

// PlanApplier writes plan and credits for the account holding email in a
// single update. No match is core.ErrNotFound.
type PlanApplier interface {
	ApplyPlanByEmail(ctx context.Context, email string, p plan.Plan) (string, error)
}

type Reconciler struct {
	users   PlanApplier
	extract *extractor
	logger  *slog.Logger
}

func NewReconciler(users PlanApplier, logger *slog.Logger) (*Reconciler, error) {
	ex, err := newExtractor()
	if err != nil {
		return nil, fmt.Errorf("webhook extractor: %w", err)
	}
	return &Reconciler{users: users, extract: ex, logger: logger}, nil
}

// Reconcile applies one decoded payload. Expected absences come back as
// outcomes with a nil error; only backend failures return an error.
func (r *Reconciler) Reconcile(ctx context.Context, payload any) (Outcome, error) {
	ev := r.extract.extract(payload)

	if ev.Email == "" {
		r.logger.Warn("payment event without email")
		return OutcomeNoEmail, nil
	}

	target, ok := TargetPlan(ev.Status)
	if !ok {
		r.logger.Info("payment status ignored", "status", ev.Status)
		return OutcomeIgnored, nil
	}

	ctx, end := core.StartSpan(ctx, "webhook.apply_plan")
	id, err := r.users.ApplyPlanByEmail(ctx, ev.Email, target)
	if errors.Is(err, core.ErrNotFound) {
		end(nil)
		r.logger.Info("payment event for unknown account", "status", ev.Status)
		return OutcomeUnknownUser, nil
	}
	end(err)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("apply plan: %w", err)
	}

	r.logger.Info("plan reconciled",
		"user_id", id,
		"status", ev.Status,
		"plan", target,
	)

	if target == plan.Pro {
		return OutcomeUpgraded, nil
	}
	return OutcomeDowngraded, nil
}
