package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
	"github.com/sakif/nutri-track/internal/recognition"
	"github.com/sakif/nutri-track/internal/repository"
)

// In-memory fakes for the repository interfaces. Each can be made to fail
// by setting its err field.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*model.User
	nextID  int
	err     error
	getErr  error
	byEmail map[string]string
	byGHID  map[int64]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		byGHID:  make(map[int64]string),
	}
}

func (f *fakeUserRepo) insert(user *model.User) {
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	if user.Email != "" {
		f.byEmail[user.Email] = user.ID
	}
	if user.GitHubID != nil {
		f.byGHID[*user.GitHubID] = user.ID
	}
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if id, ok := f.byGHID[*user.GitHubID]; ok {
		existing := f.users[id]
		existing.Login = user.Login
		existing.Email = user.Email
		existing.AvatarURL = user.AvatarURL
		*user = *existing
		return nil
	}
	f.insert(user)
	return nil
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, taken := f.byEmail[user.Email]; taken {
		return apperror.Conflict("user", user.Email)
	}
	f.insert(user)
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	id, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *f.users[id]
	return &copied, nil
}

type fakeMealRepo struct {
	mu      sync.Mutex
	meals   map[string]model.Meal
	nextID  int
	err     error
	filters []repository.MealFilter
}

func newFakeMealRepo() *fakeMealRepo {
	return &fakeMealRepo{meals: make(map[string]model.Meal)}
}

// seed stores meals directly, bypassing the service.
func (f *fakeMealRepo) seed(meals ...model.Meal) {
	for _, m := range meals {
		_ = f.Create(context.Background(), &m)
	}
}

func (f *fakeMealRepo) Create(_ context.Context, meal *model.Meal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	meal.ID = fmt.Sprintf("meal-%d", f.nextID)
	meal.CreatedAt = time.Now()
	meal.UpdatedAt = meal.CreatedAt
	f.meals[meal.ID] = *meal
	return nil
}

func (f *fakeMealRepo) GetByID(_ context.Context, id string) (*model.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.meals[id]
	if !ok {
		return nil, apperror.NotFound("meal", id)
	}
	return &m, nil
}

func (f *fakeMealRepo) List(_ context.Context, filter repository.MealFilter) ([]model.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Meal
	for _, m := range f.meals {
		if m.UserID != filter.UserID {
			continue
		}
		if !filter.From.IsZero() && m.LoggedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !m.LoggedAt.Before(filter.To) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoggedAt.After(out[j].LoggedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeMealRepo) Update(_ context.Context, meal *model.Meal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.meals[meal.ID]; !ok {
		return apperror.NotFound("meal", meal.ID)
	}
	meal.UpdatedAt = time.Now()
	f.meals[meal.ID] = *meal
	return nil
}

func (f *fakeMealRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.meals[id]; !ok {
		return apperror.NotFound("meal", id)
	}
	delete(f.meals, id)
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	err      error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]model.Profile)}
}

func (f *fakeProfileRepo) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	return &p, nil
}

func (f *fakeProfileRepo) UpsertProfile(_ context.Context, p *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.profiles[p.UserID] = *p
	return nil
}

// fakeRecognizer returns est or err and records the requests it saw.
type fakeRecognizer struct {
	est      *recognition.Estimate
	err      error
	requests []recognition.Request
}

func (f *fakeRecognizer) Analyze(_ context.Context, req recognition.Request) (*recognition.Estimate, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.est, nil
}

func ptr[T any](v T) *T { return &v }
