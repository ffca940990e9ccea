package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/fitcal/fitcal/pkg"
)

// RepoMock is an in-memory settingsRepo for tests.
type RepoMock struct {
	mu       sync.Mutex
	settings map[int]Setting
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		settings: make(map[int]Setting),
	}
}

func (r *RepoMock) Upsert(_ context.Context, setting Setting) (*Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	setting.StartDate = pkg.DateOnly(setting.StartDate)
	setting.UpdatedAt = time.Now()
	r.settings[setting.UserID] = setting
	return &setting, nil
}

func (r *RepoMock) Get(_ context.Context, userID int) (*Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	setting, ok := r.settings[userID]
	if !ok {
		return nil, ErrSettingNotFound
	}
	return &setting, nil
}

func (r *RepoMock) Delete(_ context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settings[userID]; !ok {
		return ErrSettingNotFound
	}
	delete(r.settings, userID)
	return nil
}
