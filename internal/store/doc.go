// Package store provides SQLite-backed durable storage for simulation
// execution logs.
//
// The store holds two append-only tables:
//   - Sequences: one row per built sequence (identity, fingerprint, metadata)
//   - Executions: one row per driver tick (problem, initial time, outcome)
//
// # Critical Patterns
//
// Logical time only:
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - initial_time is simulation data, not an ordering key
//
// Deterministic query results:
//   - All list queries include: ORDER BY seq ASC, id COLLATE BINARY ASC
//   - Ensures identical results across reruns
//
// Idempotent writes:
//   - Execution IDs are content-addressed (model.ExecutionID)
//   - ON CONFLICT DO NOTHING makes replayed writes harmless
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
