package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/entities"
	domainerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/errors"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/ports"

	"github.com/google/uuid"
)

// Store keeps tokens, user reviewer flags and the outbox in memory. The
// activation path applies all three writes under one lock, mirroring the
// postgres adapter's transaction boundary.
type Store struct {
	mu      sync.RWMutex
	tokens  map[string]entities.ReviewerToken
	secrets map[string]string
	users   map[string]ports.UserProfile
	outbox  []ports.OutboxMessage
}

func NewStore(seed []ports.UserProfile) *Store {
	users := make(map[string]ports.UserProfile, len(seed))
	for _, item := range seed {
		users[strings.TrimSpace(item.UserID)] = item
	}
	return &Store{
		tokens:  make(map[string]entities.ReviewerToken),
		secrets: make(map[string]string),
		users:   users,
	}
}

func (s *Store) SeedUser(item ports.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.TrimSpace(item.UserID)] = item
}

// UserProfile exposes the stored user slice for assertions in tests.
func (s *Store) UserProfile(userID string) (ports.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.users[strings.TrimSpace(userID)]
	return item, ok
}

func (s *Store) CreateToken(_ context.Context, token entities.ReviewerToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.secrets[token.TokenSecret]; taken {
		return domainerrors.ErrSecretTaken
	}
	s.tokens[token.ID] = token
	s.secrets[token.TokenSecret] = token.ID
	return nil
}

func (s *Store) GetToken(_ context.Context, id string) (entities.ReviewerToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[id]
	if !ok {
		return entities.ReviewerToken{}, domainerrors.ErrTokenNotFound
	}
	return token, nil
}

func (s *Store) GetTokenBySecret(_ context.Context, secret string) (entities.ReviewerToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.secrets[secret]
	if !ok {
		return entities.ReviewerToken{}, domainerrors.ErrTokenNotFound
	}
	return s.tokens[id], nil
}

func (s *Store) ListTokens(_ context.Context) ([]entities.ReviewerToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.ReviewerToken, 0, len(s.tokens))
	for _, token := range s.tokens {
		items = append(items, token)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ApplyActivation(_ context.Context, tokenID string, userID string, now time.Time, message ports.OutboxMessage) (entities.ReviewerToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return entities.ReviewerToken{}, domainerrors.ErrTokenNotFound
	}
	// First compare-and-set on the consumption slot wins.
	if token.ActivatedUserID != "" {
		return entities.ReviewerToken{}, domainerrors.ErrTokenConsumed
	}
	if token.Status != entities.TokenStatusActive {
		return entities.ReviewerToken{}, domainerrors.ErrTokenRevoked
	}
	user, ok := s.users[userID]
	if !ok {
		return entities.ReviewerToken{}, domainerrors.ErrUserNotFound
	}

	activatedAt := now.UTC()
	token.ActivatedAt = &activatedAt
	token.ActivatedUserID = userID
	s.tokens[tokenID] = token

	user.IsReviewer = true
	s.users[userID] = user

	s.outbox = append(s.outbox, message)
	return token, nil
}

func (s *Store) ApplyRevocation(_ context.Context, tokenID string, message ports.OutboxMessage) (entities.ReviewerToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return entities.ReviewerToken{}, domainerrors.ErrTokenNotFound
	}
	if token.Status == entities.TokenStatusRevoked {
		return token, nil
	}

	token.Status = entities.TokenStatusRevoked
	s.tokens[tokenID] = token

	if token.ActivatedUserID != "" {
		if user, ok := s.users[token.ActivatedUserID]; ok {
			user.IsReviewer = false
			s.users[token.ActivatedUserID] = user
		}
	}

	s.outbox = append(s.outbox, message)
	return token, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status != ports.OutboxStatusPending {
			continue
		}
		items = append(items, row)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].OutboxID == outboxID {
			published := publishedAt.UTC()
			s.outbox[i].Status = ports.OutboxStatusPublished
			s.outbox[i].PublishedAt = &published
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) NewSecret(_ context.Context) (string, error) {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "rvw_" + raw[:16], nil
}
