package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/entities"
	domainerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/errors"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/ports"

	"github.com/google/uuid"
)

// Store keeps applications in memory with the same compare-and-set contract
// the postgres adapter provides. Used by unit tests and local runs.
type Store struct {
	mu           sync.RWMutex
	applications map[string]entities.Application
}

func NewStore() *Store {
	return &Store{
		applications: make(map[string]entities.Application),
	}
}

func (s *Store) SeedApplication(app entities.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[app.ID] = app
}

func (s *Store) CreateApplication(_ context.Context, app entities.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.applications[app.ID]; exists {
		return domainerrors.ErrVersionConflict
	}
	s.applications[app.ID] = app
	return nil
}

func (s *Store) GetApplication(_ context.Context, id string) (entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	return app, nil
}

func (s *Store) SaveApplicationCAS(_ context.Context, app entities.Application, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.applications[app.ID]
	if !ok {
		return domainerrors.ErrApplicationNotFound
	}
	if stored.Version != expectedVersion {
		return domainerrors.ErrVersionConflict
	}
	s.applications[app.ID] = app
	return nil
}

func (s *Store) ListApplications(_ context.Context, filter ports.ListFilter, page int, size int) ([]entities.Application, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entities.Application, 0)
	for _, app := range s.applications {
		if !matches(app, filter) {
			continue
		}
		matched = append(matched, app)
	}
	sortNewestFirst(matched)

	total := int64(len(matched))
	start := (page - 1) * size
	if start >= len(matched) {
		return []entities.Application{}, total, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return append([]entities.Application(nil), matched[start:end]...), total, nil
}

func (s *Store) ListOwnerApplications(_ context.Context, ownerID string) ([]entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Application, 0)
	for _, app := range s.applications {
		if app.OwnerID == ownerID && !app.IsDeleted {
			items = append(items, app)
		}
	}
	sortNewestFirst(items)
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func matches(app entities.Application, filter ports.ListFilter) bool {
	if app.IsDeleted {
		return false
	}
	if filter.OwnerID != "" && app.OwnerID != filter.OwnerID {
		return false
	}
	if filter.Status != "" && app.Status != filter.Status {
		return false
	}
	if filter.AwardType != "" && app.AwardType != filter.AwardType {
		return false
	}
	if filter.Category != "" && app.Category != filter.Category {
		return false
	}
	if filter.SubType != "" && app.SubType != filter.SubType {
		return false
	}
	if filter.Keyword != "" {
		needle := strings.ToLower(filter.Keyword)
		if !strings.Contains(strings.ToLower(app.Title), needle) &&
			!strings.Contains(strings.ToLower(app.Description), needle) &&
			!strings.Contains(strings.ToLower(app.AwardType), needle) {
			return false
		}
	}
	return true
}

func sortNewestFirst(items []entities.Application) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
