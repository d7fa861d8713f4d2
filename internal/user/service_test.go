// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/nexusai/internal/auth"
	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/plan"
)

type fakeRepo struct {
	mu        sync.Mutex
	users     map[string]*User
	decrCalls int
	getCalls  int
}

func newFakeRepo(users ...*User) *fakeRepo {
	r := &fakeRepo{users: make(map[string]*User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) get(id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	return r.get(id)
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *fakeRepo) UpdateProfile(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return core.ErrNotFound
	}
	stored.Name, stored.Phone, stored.Theme = u.Name, u.Phone, u.Theme
	return nil
}

func (r *fakeRepo) UpdatePassword(context.Context, string, string) error {
	return nil
}

func (r *fakeRepo) IncrementTokenVersion(context.Context, string) error {
	return nil
}

func (r *fakeRepo) DecrementCredit(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decrCalls++
	u, ok := r.users[id]
	if !ok {
		return 0, core.ErrNotFound
	}
	if u.IsBanned() {
		return 0, core.ErrBanned
	}
	if u.Credits <= 0 {
		return 0, fmt.Errorf("decrement credit: %w", core.ErrInsufficientCredits)
	}
	u.Credits--
	return u.Credits, nil
}

func (r *fakeRepo) SetCredits(_ context.Context, id string, credits int) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	u.Credits = credits
	return r.get(id)
}

func (r *fakeRepo) SetPlan(_ context.Context, id string, p plan.Plan, credits int) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	u.Plan, u.Credits = p, credits
	return r.get(id)
}

func (r *fakeRepo) SetPlanByEmail(_ context.Context, email string, p plan.Plan, credits int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.Plan, u.Credits = p, credits
			return u.ID, nil
		}
	}
	return "", core.ErrNotFound
}

func (r *fakeRepo) SetStatus(_ context.Context, id, status string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	u.Status = status
	return r.get(id)
}

func (r *fakeRepo) ResetAllCredits(_ context.Context, l plan.Limits) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Status == StatusActive {
			u.Credits = l.Ceiling(u.Plan)
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) List(context.Context, ListUsersParams) ([]User, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) Totals(context.Context) (*Totals, error) {
	return &Totals{}, nil
}

func (r *fakeRepo) ExistsByEmail(context.Context, string) (bool, error) {
	return false, nil
}

func member(id string, p plan.Plan, credits int) *User {
	return &User{
		ID:      id,
		Email:   id + "@example.com",
		Role:    RoleUser,
		Plan:    p,
		Credits: credits,
		Status:  StatusActive,
		Theme:   ThemeWhite,
	}
}

func TestDeductCreditAdminNeverTouchesStore(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, plan.DefaultLimits())

	for range 50 {
		bal, err := svc.DeductCredit(context.Background(), "anyone", RoleAdmin)
		require.NoError(t, err)
		assert.True(t, bal.Unlimited)
	}

	assert.Zero(t, repo.decrCalls)
}

func TestDeductCreditSpendsOneCredit(t *testing.T) {
	repo := newFakeRepo(member("u1", plan.Free, 3))
	svc := NewService(repo, plan.DefaultLimits())

	bal, err := svc.DeductCredit(context.Background(), "u1", RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 2, bal.Credits)
	assert.False(t, bal.Unlimited)
}

func TestDeductCreditEmptyBalance(t *testing.T) {
	repo := newFakeRepo(member("u1", plan.Free, 0))
	svc := NewService(repo, plan.DefaultLimits())

	_, err := svc.DeductCredit(context.Background(), "u1", RoleUser)
	require.ErrorIs(t, err, core.ErrInsufficientCredits)

	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, u.Credits)
}

func TestDeductCreditConcurrentNeverNegative(t *testing.T) {
	repo := newFakeRepo(member("u1", plan.Free, 5))
	svc := NewService(repo, plan.DefaultLimits())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.DeductCredit(context.Background(), "u1", RoleUser); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, granted)
	assert.Zero(t, u.Credits)
}

func TestDeductCreditBannedUser(t *testing.T) {
	banned := member("u1", plan.Pro, 10)
	banned.Status = StatusBanned
	svc := NewService(newFakeRepo(banned), plan.DefaultLimits())

	_, err := svc.DeductCredit(context.Background(), "u1", RoleUser)
	assert.ErrorIs(t, err, core.ErrBanned)
}

func TestCreateAppliesFreeDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, plan.DefaultLimits())

	info, err := svc.Create(context.Background(), auth.NewAccount{
		Email:        " Ana@Example.com ",
		PasswordHash: "hash",
		Name:         "Ana",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", info.Email)
	assert.Equal(t, plan.Free, info.Plan)
	assert.Equal(t, 5, info.Credits)
	assert.Equal(t, ThemeWhite, info.Theme)
	assert.Equal(t, RoleUser, info.Role)
	assert.Equal(t, StatusActive, info.Status)
}

func TestChangePlanResetsCredits(t *testing.T) {
	repo := newFakeRepo(member("u1", plan.Free, 1))
	svc := NewService(repo, plan.DefaultLimits())

	u, err := svc.ChangePlan(context.Background(), "u1", plan.Pro)
	require.NoError(t, err)
	assert.Equal(t, plan.Pro, u.Plan)
	assert.Equal(t, 100, u.Credits)

	u, err = svc.ChangePlan(context.Background(), "u1", plan.Free)
	require.NoError(t, err)
	assert.Equal(t, 5, u.Credits)

	_, err = svc.ChangePlan(context.Background(), "u1", plan.Plan("gold"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRefreshCreditsUsesPlanCeiling(t *testing.T) {
	repo := newFakeRepo(member("u1", plan.Pro, 7), member("u2", plan.Free, 0))
	svc := NewService(repo, plan.DefaultLimits())

	u, err := svc.RefreshCredits(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, u.Credits)

	u, err = svc.RefreshCredits(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 5, u.Credits)
}

func TestRefreshCreditsRefusesBanned(t *testing.T) {
	banned := member("u1", plan.Pro, 0)
	banned.Status = StatusBanned
	repo := newFakeRepo(banned)
	svc := NewService(repo, plan.DefaultLimits())

	_, err := svc.RefreshCredits(context.Background(), "u1")
	assert.ErrorIs(t, err, core.ErrBanned)

	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Credits)
}

func TestToggleBan(t *testing.T) {
	admin := member("a1", plan.Enterprise, 100)
	admin.Role = RoleAdmin
	repo := newFakeRepo(member("u1", plan.Free, 5), admin)
	svc := NewService(repo, plan.DefaultLimits())

	u, err := svc.ToggleBan(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusBanned, u.Status)

	u, err = svc.ToggleBan(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, u.Status)

	_, err = svc.ToggleBan(context.Background(), "a1")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestApplyPlanByEmailIsExact(t *testing.T) {
	repo := newFakeRepo(member("u1", plan.Free, 0))
	svc := NewService(repo, plan.DefaultLimits())

	_, err := svc.ApplyPlanByEmail(context.Background(), "U1@example.com", plan.Pro)
	require.ErrorIs(t, err, core.ErrNotFound)

	id, err := svc.ApplyPlanByEmail(context.Background(), "u1@example.com", plan.Pro)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	u, _ := repo.GetByID(context.Background(), "u1")
	assert.Equal(t, 100, u.Credits)
}

func TestLocalAdminProfile(t *testing.T) {
	local := auth.LocalAdminInfo("admin@nexus.ai")
	svc := NewService(newFakeRepo(), plan.DefaultLimits(), WithLocalAdmin(local))

	me, err := svc.GetMe(context.Background(), auth.LocalAdminID)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, me.Role)
	assert.Equal(t, ThemeDark, me.Theme)

	name := "Root"
	_, err = svc.UpdateMe(context.Background(), auth.LocalAdminID, UpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, ErrLocalAdminReadOnly)
}

func TestResetAllCredits(t *testing.T) {
	banned := member("u3", plan.Free, 0)
	banned.Status = StatusBanned
	repo := newFakeRepo(member("u1", plan.Pro, 1), member("u2", plan.Free, 0), banned)
	svc := NewService(repo, plan.DefaultLimits())

	n, err := svc.ResetAllCredits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	u1, _ := repo.GetByID(context.Background(), "u1")
	u3, _ := repo.GetByID(context.Background(), "u3")
	assert.Equal(t, 100, u1.Credits)
	assert.Zero(t, u3.Credits)
}
