package authorization

import (
	"github.com/DarkStars1922/zcpt/contexts/identity-access/authorization-service/domain/entities"
	"github.com/DarkStars1922/zcpt/contexts/identity-access/authorization-service/domain/services"
)

// Policy adapts the capability table to the AccessPolicy seam the lifecycle
// modules declare in their ports. Stateless; safe to share.
type Policy struct{}

func (Policy) Allow(role string, callerID string, resourceOwnerID string, operation string) bool {
	return services.Decide(entities.Role(role), callerID, resourceOwnerID, entities.Operation(operation))
}
