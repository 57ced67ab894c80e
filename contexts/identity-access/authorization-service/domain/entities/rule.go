package entities

// Role values carried by authenticated callers. Identity resolution is
// external; the policy only interprets the resolved role string.
type Role string

const (
	RoleStudent  Role = "student"
	RoleTeacher  Role = "teacher"
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "reviewer"
)

// Operation names every guarded action across the lifecycle modules.
type Operation string

const (
	OpApplicationCreate   Operation = "application.create"
	OpApplicationList     Operation = "application.list"
	OpApplicationView     Operation = "application.view"
	OpApplicationUpdate   Operation = "application.update"
	OpApplicationWithdraw Operation = "application.withdraw"
	OpApplicationDelete   Operation = "application.delete"
	OpApplicationSummary  Operation = "application.summary"
	OpTokenIssue          Operation = "token.issue"
	OpTokenActivate       Operation = "token.activate"
	OpTokenList           Operation = "token.list"
	OpTokenRevoke         Operation = "token.revoke"
)

type RuleKind string

const (
	// RuleOwnerOnly allows the resource owner, additionally restricted to
	// Roles when the rule lists any.
	RuleOwnerOnly RuleKind = "owner_only"
	// RuleRolesOnly allows any caller whose role is listed, owner or not.
	RuleRolesOnly RuleKind = "roles_only"
	// RuleOwnerOrRoles allows the resource owner regardless of role, or any
	// caller whose role is listed.
	RuleOwnerOrRoles RuleKind = "owner_or_roles"
)

// Rule is one row of the capability table.
type Rule struct {
	Kind  RuleKind
	Roles []Role
}

func (r Rule) AllowsRole(role Role) bool {
	for _, item := range r.Roles {
		if item == role {
			return true
		}
	}
	return false
}
