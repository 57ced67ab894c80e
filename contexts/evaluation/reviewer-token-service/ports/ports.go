package ports

import (
	"context"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/entities"
	"github.com/DarkStars1922/zcpt/internal/shared/events"
)

// Caller is the authenticated identity resolved by the external layer.
// ClassID is only meaningful for students activating a token.
type Caller struct {
	UserID  string
	Role    string
	ClassID int
}

// UserProfile is the slice of the user record this module reads and flips.
type UserProfile struct {
	UserID     string
	Role       string
	ClassID    int
	IsReviewer bool
}

const (
	OutboxStatusPending   = "pending"
	OutboxStatusPublished = "published"
)

// OutboxMessage is persisted inside the same transaction as the state change
// it announces; the worker relay publishes pending rows.
type OutboxMessage struct {
	OutboxID    string
	EventType   string
	Payload     []byte
	Status      string
	RetryCount  int
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type Repository interface {
	// CreateToken reports ErrSecretTaken when the generated secret collides.
	CreateToken(ctx context.Context, token entities.ReviewerToken) error
	GetToken(ctx context.Context, id string) (entities.ReviewerToken, error)
	GetTokenBySecret(ctx context.Context, secret string) (entities.ReviewerToken, error)
	// ListTokens returns all reviewer tokens newest first; derived-status
	// filtering and paging happen in the application layer because expiry is
	// a function of the clock, not a stored column.
	ListTokens(ctx context.Context) ([]entities.ReviewerToken, error)
	// ApplyActivation consumes the token, flips the user's reviewer flag and
	// appends the outbox row as one atomic unit. A lost race on the
	// consumption slot reports ErrTokenConsumed and writes nothing.
	ApplyActivation(ctx context.Context, tokenID string, userID string, now time.Time, message OutboxMessage) (entities.ReviewerToken, error)
	// ApplyRevocation marks the token revoked and clears the bound user's
	// reviewer flag in the same unit.
	ApplyRevocation(ctx context.Context, tokenID string, message OutboxMessage) (entities.ReviewerToken, error)
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// SecretGenerator yields opaque single-use token secrets. Uniqueness is
// enforced by the repository, not the generator.
type SecretGenerator interface {
	NewSecret(ctx context.Context) (string, error)
}

// AccessPolicy is satisfied by the authorization module's capability table.
type AccessPolicy interface {
	Allow(role string, callerID string, resourceOwnerID string, operation string) bool
}
