package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/entities"
	domainerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/errors"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/ports"
	"github.com/DarkStars1922/zcpt/internal/shared/events"
)

// Operation names must match the authorization capability table.
const (
	opIssue    = "token.issue"
	opActivate = "token.activate"
	opList     = "token.list"
	opRevoke   = "token.revoke"
)

const (
	EventTokenActivated = "reviewer_token_activated"
	EventTokenRevoked   = "reviewer_token_revoked"

	sourceService = "evaluation/reviewer-token-service"

	maxPageSize        = 100
	secretIssueRetries = 3
)

type Service struct {
	Repo    ports.Repository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Secrets ports.SecretGenerator
	Policy  ports.AccessPolicy
	Logger  *slog.Logger
}

// TokenView pairs a token with its derived status at read time.
type TokenView struct {
	Token  entities.ReviewerToken
	Status entities.TokenStatus
}

type ListTokensResult struct {
	Page  int
	Size  int
	Total int
	Items []TokenView
}

func (s Service) Issue(ctx context.Context, caller ports.Caller, classIDs []int, expiredAt time.Time) (TokenView, error) {
	if !s.Policy.Allow(caller.Role, caller.UserID, "", opIssue) {
		return TokenView{}, domainerrors.ErrForbidden
	}
	now := s.Clock.Now().UTC()
	if len(classIDs) == 0 || !expiredAt.After(now) {
		return TokenView{}, domainerrors.ErrInvalidTokenInput
	}
	for _, id := range classIDs {
		if id <= 0 {
			return TokenView{}, domainerrors.ErrInvalidTokenInput
		}
	}

	id, err := s.IDGen.NewID(ctx)
	if err != nil {
		return TokenView{}, err
	}
	token := entities.ReviewerToken{
		ID:        id,
		Type:      entities.TokenTypeReviewer,
		ClassIDs:  append([]int(nil), classIDs...),
		Status:    entities.TokenStatusActive,
		ExpiredAt: expiredAt.UTC(),
		CreatedAt: now,
		CreatedBy: caller.UserID,
	}

	// Secrets are random; a collision is possible but retryable.
	for attempt := 0; attempt < secretIssueRetries; attempt++ {
		secret, err := s.Secrets.NewSecret(ctx)
		if err != nil {
			return TokenView{}, err
		}
		token.TokenSecret = secret
		err = s.Repo.CreateToken(ctx, token)
		if err == nil {
			ResolveLogger(s.Logger).Info("reviewer token issued",
				"event", "reviewer_token_issued",
				"module", sourceService,
				"layer", "application",
				"token_id", token.ID,
				"issued_by", caller.UserID,
				"class_count", len(token.ClassIDs),
			)
			return TokenView{Token: token, Status: entities.TokenStatusActive}, nil
		}
		if !errors.Is(err, domainerrors.ErrSecretTaken) {
			return TokenView{}, err
		}
	}
	return TokenView{}, domainerrors.ErrSecretTaken
}

func (s Service) Activate(ctx context.Context, caller ports.Caller, tokenSecret string) (TokenView, error) {
	if !s.Policy.Allow(caller.Role, caller.UserID, "", opActivate) {
		return TokenView{}, domainerrors.ErrForbidden
	}
	token, err := s.Repo.GetTokenBySecret(ctx, strings.TrimSpace(tokenSecret))
	if err != nil {
		return TokenView{}, err
	}

	now := s.Clock.Now().UTC()
	switch {
	case token.Consumed():
		return TokenView{}, domainerrors.ErrTokenConsumed
	case token.Status == entities.TokenStatusRevoked:
		return TokenView{}, domainerrors.ErrTokenRevoked
	case token.Expired(now):
		return TokenView{}, domainerrors.ErrTokenExpired
	case !token.HasClass(caller.ClassID):
		return TokenView{}, domainerrors.ErrClassNotEligible
	}

	message, err := s.newOutboxMessage(ctx, EventTokenActivated, token.ID, now, map[string]any{
		"token_id":          token.ID,
		"activated_user_id": caller.UserID,
		"class_id":          caller.ClassID,
	})
	if err != nil {
		return TokenView{}, err
	}

	activated, err := s.Repo.ApplyActivation(ctx, token.ID, caller.UserID, now, message)
	if err != nil {
		return TokenView{}, err
	}

	ResolveLogger(s.Logger).Info("reviewer token activated",
		"event", "reviewer_token_activated",
		"module", sourceService,
		"layer", "application",
		"token_id", activated.ID,
		"activated_user_id", caller.UserID,
	)
	return TokenView{Token: activated, Status: entities.DerivedStatus(activated, now)}, nil
}

func (s Service) List(ctx context.Context, caller ports.Caller, statusFilter string, page int, size int) (ListTokensResult, error) {
	if !s.Policy.Allow(caller.Role, caller.UserID, "", opList) {
		return ListTokensResult{}, domainerrors.ErrForbidden
	}
	statusFilter = strings.TrimSpace(statusFilter)
	switch entities.TokenStatus(statusFilter) {
	case "", entities.TokenStatusActive, entities.TokenStatusRevoked, entities.TokenStatusExpired:
	default:
		return ListTokensResult{}, domainerrors.ErrInvalidTokenInput
	}

	rows, err := s.Repo.ListTokens(ctx)
	if err != nil {
		return ListTokensResult{}, err
	}

	now := s.Clock.Now().UTC()
	views := make([]TokenView, 0, len(rows))
	for _, row := range rows {
		status := entities.DerivedStatus(row, now)
		if statusFilter != "" && status != entities.TokenStatus(statusFilter) {
			continue
		}
		views = append(views, TokenView{Token: row, Status: status})
	}

	page = clampPage(page)
	size = clampSize(size)
	total := len(views)
	start := (page - 1) * size
	if start >= total {
		views = []TokenView{}
	} else {
		end := start + size
		if end > total {
			end = total
		}
		views = views[start:end]
	}
	return ListTokensResult{Page: page, Size: size, Total: total, Items: views}, nil
}

func (s Service) Revoke(ctx context.Context, caller ports.Caller, tokenID string) (TokenView, error) {
	if !s.Policy.Allow(caller.Role, caller.UserID, "", opRevoke) {
		return TokenView{}, domainerrors.ErrForbidden
	}
	token, err := s.Repo.GetToken(ctx, strings.TrimSpace(tokenID))
	if err != nil {
		return TokenView{}, err
	}

	// Revoking twice is a no-op success.
	if token.Status == entities.TokenStatusRevoked {
		return TokenView{Token: token, Status: entities.TokenStatusRevoked}, nil
	}

	now := s.Clock.Now().UTC()
	message, err := s.newOutboxMessage(ctx, EventTokenRevoked, token.ID, now, map[string]any{
		"token_id":   token.ID,
		"revoked_by": caller.UserID,
	})
	if err != nil {
		return TokenView{}, err
	}

	revoked, err := s.Repo.ApplyRevocation(ctx, token.ID, message)
	if err != nil {
		return TokenView{}, err
	}

	ResolveLogger(s.Logger).Info("reviewer token revoked",
		"event", "reviewer_token_revoked",
		"module", sourceService,
		"layer", "application",
		"token_id", revoked.ID,
		"revoked_by", caller.UserID,
	)
	return TokenView{Token: revoked, Status: entities.TokenStatusRevoked}, nil
}

func (s Service) newOutboxMessage(ctx context.Context, eventType string, tokenID string, now time.Time, payload map[string]any) (ports.OutboxMessage, error) {
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	outboxID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	raw, err := json.Marshal(events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  sourceService,
		OccurredAtUTC:  now,
		EntityType:     "reviewer_token",
		EntityID:       tokenID,
		PayloadVersion: 1,
		Payload:        payload,
	})
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return ports.OutboxMessage{
		OutboxID:  outboxID,
		EventType: eventType,
		Payload:   raw,
		Status:    ports.OutboxStatusPending,
		CreatedAt: now,
	}, nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}
