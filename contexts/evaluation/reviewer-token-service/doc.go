// Package reviewertokenservice owns the reviewer-token lifecycle: issuance
// of single-use class-scoped tokens, atomic activation that promotes a
// student to reviewer, derived-status listing, and revocation.
//
// Layering:
// - domain: the token entity with derived status, typed errors
// - application: role-guarded operations plus the outbox relay worker
// - ports: persistence, clock, id and secret generation, access policy seams
// - adapters: memory and postgres repositories, HTTP handler
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Activation consumes the token, flips the user's reviewer flag and
//   records the outbox event in one repository unit; a lost race writes
//   nothing.
// - Expiry is derived from the clock at read time and never stored.
package reviewertokenservice
