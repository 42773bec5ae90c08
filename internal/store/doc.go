// Package store keeps a SQLite history of scenario runs.
//
// Three tables make up the history:
//   - runs: one row per `mobilindo-e2e run`, with pass/fail totals
//   - scenario_results: one row per scenario in a run, in report order
//   - step_events: the scenario's trace, one row per executed step
//
// Run IDs are UUIDv7 strings. Listing runs by descending ID returns the
// newest first without relying on wall-clock columns.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
