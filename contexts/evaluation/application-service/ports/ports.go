package ports

import (
	"context"
	"time"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/entities"
)

// Caller is the authenticated identity resolved by the external layer.
type Caller struct {
	UserID string
	Role   string
}

// ListFilter narrows owner-scoped listings. Zero values mean "no filter".
type ListFilter struct {
	OwnerID   string
	Status    entities.ApplicationStatus
	AwardType string
	Category  string
	SubType   string
	Keyword   string
}

type Repository interface {
	CreateApplication(ctx context.Context, app entities.Application) error
	// GetApplication returns the stored record including soft-deleted rows;
	// visibility is decided by the application layer.
	GetApplication(ctx context.Context, id string) (entities.Application, error)
	// SaveApplicationCAS persists app only if the stored version still equals
	// expectedVersion, reporting ErrVersionConflict otherwise. Nothing is
	// written on a lost race.
	SaveApplicationCAS(ctx context.Context, app entities.Application, expectedVersion int) error
	ListApplications(ctx context.Context, filter ListFilter, page int, size int) ([]entities.Application, int64, error)
	ListOwnerApplications(ctx context.Context, ownerID string) ([]entities.Application, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// AccessPolicy is satisfied by the authorization module's capability table.
type AccessPolicy interface {
	Allow(role string, callerID string, resourceOwnerID string, operation string) bool
}
