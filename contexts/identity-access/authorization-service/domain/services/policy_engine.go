package services

import "github.com/DarkStars1922/zcpt/contexts/identity-access/authorization-service/domain/entities"

// capabilityTable is the single source of truth for role-scoped access.
// Changing who may do what touches this table and nothing else.
var capabilityTable = map[entities.Operation]entities.Rule{
	entities.OpApplicationCreate:   {Kind: entities.RuleOwnerOnly, Roles: []entities.Role{entities.RoleStudent}},
	entities.OpApplicationList:     {Kind: entities.RuleRolesOnly, Roles: []entities.Role{entities.RoleStudent}},
	entities.OpApplicationView:     {Kind: entities.RuleOwnerOrRoles, Roles: []entities.Role{entities.RoleTeacher, entities.RoleAdmin}},
	entities.OpApplicationUpdate:   {Kind: entities.RuleOwnerOnly, Roles: []entities.Role{entities.RoleStudent}},
	entities.OpApplicationWithdraw: {Kind: entities.RuleOwnerOnly, Roles: []entities.Role{entities.RoleStudent}},
	entities.OpApplicationDelete:   {Kind: entities.RuleOwnerOrRoles, Roles: []entities.Role{entities.RoleAdmin}},
	entities.OpApplicationSummary:  {Kind: entities.RuleRolesOnly, Roles: []entities.Role{entities.RoleStudent}},
	entities.OpTokenIssue:          {Kind: entities.RuleRolesOnly, Roles: []entities.Role{entities.RoleTeacher, entities.RoleAdmin}},
	entities.OpTokenActivate:       {Kind: entities.RuleRolesOnly, Roles: []entities.Role{entities.RoleStudent}},
	entities.OpTokenList:           {Kind: entities.RuleRolesOnly, Roles: []entities.Role{entities.RoleTeacher, entities.RoleAdmin}},
	entities.OpTokenRevoke:         {Kind: entities.RuleRolesOnly, Roles: []entities.Role{entities.RoleTeacher, entities.RoleAdmin}},
}

// Decide evaluates one (caller, resource, operation) triple against the
// capability table. Unknown operations are denied.
func Decide(role entities.Role, callerID string, resourceOwnerID string, op entities.Operation) bool {
	rule, ok := capabilityTable[op]
	if !ok {
		return false
	}
	ownerMatch := callerID != "" && callerID == resourceOwnerID

	switch rule.Kind {
	case entities.RuleOwnerOnly:
		if !ownerMatch {
			return false
		}
		return len(rule.Roles) == 0 || rule.AllowsRole(role)
	case entities.RuleRolesOnly:
		return rule.AllowsRole(role)
	case entities.RuleOwnerOrRoles:
		return ownerMatch || rule.AllowsRole(role)
	default:
		return false
	}
}
