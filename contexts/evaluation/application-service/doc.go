// Package applicationservice owns the achievement-application lifecycle:
// creation, owner-scoped queries, optimistic-concurrency edits, withdrawal,
// soft deletion, and the per-category score summary.
//
// Layering:
// - domain: entities with the status state machine as data, typed errors,
//   the pure category summary aggregator
// - application: role-guarded operations using explicit ports
// - ports: persistence, clock, id generation, access policy seams
// - adapters: memory and postgres repositories, HTTP handler
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Every mutation goes through the repository compare-and-set; no path may
//   write without supplying the expected version.
// - Role checks route through the injected AccessPolicy only.
package applicationservice
