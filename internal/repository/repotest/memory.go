// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository"
	"github.com/ecotrack/backend/internal/scoring"
)

// Store backs both repositories so user deletion can cascade to logs the
// same way the postgres implementation does.
type Store struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
	logs  map[uuid.UUID]*model.ImpactLog

	// Err, when set, is returned by every repository call.
	Err error
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]*model.User),
		logs:  make(map[uuid.UUID]*model.ImpactLog),
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Logs returns the impact log repository view of the store.
func (s *Store) Logs() repository.ImpactLogRepository { return logRepo{s} }

// RemoveUserOnly deletes a user while leaving their logs behind.
func (s *Store) RemoveUserOnly(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// LogCount returns how many logs are stored.
func (s *Store) LogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r userRepo) List(_ context.Context, p model.Pagination) ([]*model.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, 0, r.s.Err
	}
	all := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return window(all, p), len(all), nil
}

func (r userRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	for lid, l := range r.s.logs {
		if l.UserID == id {
			delete(r.s.logs, lid)
		}
	}
	return nil
}

type logRepo struct{ s *Store }

func (r logRepo) Create(_ context.Context, l *model.ImpactLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	cp := *l
	cp.Tips = append([]string(nil), l.Tips...)
	r.s.logs[l.ID] = &cp
	return nil
}

// filter returns matching logs newest first. The caller holds the lock.
func (r logRepo) filter(keep func(*model.ImpactLog) bool) []*model.ImpactLog {
	var out []*model.ImpactLog
	for _, l := range r.s.logs {
		if keep(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r logRepo) ListByUser(_ context.Context, userID uuid.UUID, p model.Pagination) ([]*model.ImpactLog, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, 0, r.s.Err
	}
	all := r.filter(func(l *model.ImpactLog) bool { return l.UserID == userID })
	return window(all, p), len(all), nil
}

func (r logRepo) LatestByUser(_ context.Context, userID uuid.UUID) (*model.ImpactLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	all := r.filter(func(l *model.ImpactLog) bool { return l.UserID == userID })
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r logRepo) ListByUserBetween(_ context.Context, userID uuid.UUID, dr model.DateRange) ([]*model.ImpactLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return r.filter(func(l *model.ImpactLog) bool { return l.UserID == userID && inRange(l, dr) }), nil
}

func (r logRepo) ListBetween(_ context.Context, dr model.DateRange) ([]*model.ImpactLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := r.filter(func(l *model.ImpactLog) bool { return inRange(l, dr) })
	// Oldest first, matching the postgres query.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r logRepo) ListWithOwners(_ context.Context, p model.Pagination) ([]model.AdminLogView, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, 0, r.s.Err
	}
	all := r.filter(func(*model.ImpactLog) bool { return true })
	page := window(all, p)
	views := make([]model.AdminLogView, 0, len(page))
	for _, l := range page {
		v := model.AdminLogView{
			ID:            l.ID.String(),
			UserEmail:     model.UnknownOwner,
			UserName:      model.UnknownOwner,
			CarbonScore:   l.Carbon,
			WaterScore:    l.Water,
			EnergyScore:   l.Energy,
			WasteScore:    l.Waste,
			OverallRating: l.Rating,
			CreatedAt:     l.CreatedAt,
		}
		if u, ok := r.s.users[l.UserID]; ok {
			v.UserEmail, v.UserName = u.Email, u.FullName
		}
		views = append(views, v)
	}
	return views, len(all), nil
}

func (r logRepo) Stats(_ context.Context) (*model.ImpactStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	stats := &model.ImpactStats{
		TotalUsers: len(r.s.users),
		TotalLogs:  len(r.s.logs),
		ByRating:   make(map[scoring.Rating]int, len(scoring.Ratings)),
	}
	for _, rating := range scoring.Ratings {
		stats.ByRating[rating] = 0
	}
	var sum float64
	for _, l := range r.s.logs {
		sum += l.Carbon
		stats.ByRating[l.Rating]++
	}
	if len(r.s.logs) > 0 {
		stats.AverageCarbon = scoring.Round2(sum / float64(len(r.s.logs)))
	}
	return stats, nil
}

func inRange(l *model.ImpactLog, dr model.DateRange) bool {
	return !l.CreatedAt.Before(dr.Start) && l.CreatedAt.Before(dr.End)
}

func window[T any](all []T, p model.Pagination) []T {
	start := p.Offset()
	if start >= len(all) {
		return nil
	}
	end := len(all)
	if p.PageSize > 0 && start+p.PageSize < end {
		end = start + p.PageSize
	}
	return all[start:end]
}
