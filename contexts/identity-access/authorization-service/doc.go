// Package authorization implements the role-capability policy for zcpt.
//
// Layering:
// - domain: role/operation enumerations, the static capability table
// - module root: Policy adapter satisfying the AccessPolicy seam of the
//   lifecycle modules
//
// Boundary notes:
// - Keep every role/ownership rule in the capability table; lifecycle
//   modules must not duplicate role checks inline.
// - The engine is pure: no ports, no adapters, no clock.
package authorization
