// AngelaMos | 2026
// guard.go

package entitlement

import (
	"context"
	"errors"
	"strings"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/feature"
)

type State string

const (
	StateUnactivated            State = "unactivated"
	StateActivatedNoSession     State = "activated_no_session"
	StateActivatedAuthenticated State = "activated_authenticated"
)

type Action string

const (
	ActionRender   Action = "render"
	ActionRedirect Action = "redirect"
)

const (
	NoticeFeatureDisabled = "feature_disabled"
	NoticeFeatureNotFound = "feature_not_found"
)

const (
	PathLanding  = "/"
	PathLogin    = "/login-pro"
	PathHome     = "/tool/chat"
	PathAdmin    = "/admin/dashboard"
	toolPrefix   = "/tool/"
	roleAdmin    = "admin"
	proAliasPath = "/pro"
)

// Subject is what the guard knows about the caller.
type Subject struct {
	DeviceActivated bool
	Authenticated   bool
	Role            string
}

func (s Subject) State() State {
	switch {
	case !s.DeviceActivated:
		return StateUnactivated
	case !s.Authenticated:
		return StateActivatedNoSession
	default:
		return StateActivatedAuthenticated
	}
}

type Decision struct {
	Action   Action `json:"action"`
	Location string `json:"location,omitempty"`
	State    State  `json:"state"`
	Notice   string `json:"notice,omitempty"`
}

// FeatureLookup reports a catalog entry so tool pages can carry a notice.
type FeatureLookup interface {
	Get(ctx context.Context, id string) (feature.Feature, error)
}

type pathClass int

const (
	classUnmatched pathClass = iota
	classPublic
	classLogin
	classProtected
	classProAlias
	classAdmin
)

var (
	publicPaths = map[string]struct{}{
		"/":         {},
		"/preview":  {},
		"/lp-video": {},
		"/sitemap":  {},
	}
	protectedPaths = map[string]struct{}{
		"/profile": {},
		"/upgrade": {},
	}
)

type Guard struct {
	features FeatureLookup
}

func NewGuard(features FeatureLookup) *Guard {
	return &Guard{features: features}
}

func classify(path string) (pathClass, string) {
	if _, ok := publicPaths[path]; ok {
		return classPublic, ""
	}
	if _, ok := protectedPaths[path]; ok {
		return classProtected, ""
	}

	switch path {
	case PathLogin:
		return classLogin, ""
	case PathAdmin:
		return classAdmin, ""
	case proAliasPath:
		return classProAlias, ""
	}

	if id, ok := strings.CutPrefix(path, toolPrefix); ok && id != "" && !strings.Contains(id, "/") {
		return classProtected, id
	}

	return classUnmatched, ""
}

func normalize(path string) string {
	if path == "" {
		return PathLanding
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = PathLanding
		}
	}
	return path
}

func render(state State) Decision {
	return Decision{Action: ActionRender, State: state}
}

func redirect(state State, to string) Decision {
	return Decision{Action: ActionRedirect, Location: to, State: state}
}

// Resolve maps a navigation attempt onto exactly one decision. Every
// combination of path class and state is covered.
func (g *Guard) Resolve(ctx context.Context, path string, s Subject) (Decision, error) {
	state := s.State()
	class, toolID := classify(normalize(path))

	switch class {
	case classPublic:
		return render(state), nil

	case classLogin:
		switch state {
		case StateUnactivated:
			return redirect(state, PathLanding), nil
		case StateActivatedNoSession:
			return render(state), nil
		default:
			return redirect(state, PathHome), nil
		}

	case classAdmin:
		if s.Authenticated && s.Role == roleAdmin {
			return render(state), nil
		}
		return redirect(state, PathLanding), nil

	case classProAlias:
		if state == StateActivatedNoSession {
			return redirect(state, PathLogin), nil
		}
		return redirect(state, PathLanding), nil

	case classProtected:
		switch state {
		case StateUnactivated:
			return redirect(state, PathLanding), nil
		case StateActivatedNoSession:
			return redirect(state, PathLogin), nil
		}
		d := render(state)
		if toolID != "" {
			notice, err := g.toolNotice(ctx, toolID)
			if err != nil {
				return Decision{}, err
			}
			d.Notice = notice
		}
		return d, nil
	}

	return redirect(state, PathLanding), nil
}

func (g *Guard) toolNotice(ctx context.Context, id string) (string, error) {
	if g.features == nil {
		return "", nil
	}

	f, err := g.features.Get(ctx, id)
	switch {
	case errors.Is(err, core.ErrFeatureMissing):
		return NoticeFeatureNotFound, nil
	case err != nil:
		return "", err
	case !f.Enabled:
		return NoticeFeatureDisabled, nil
	}
	return "", nil
}
