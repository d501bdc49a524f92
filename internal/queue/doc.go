// Package queue persists audio assets in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stuck-asset recovery, and iteration lineage.
// Asset rows capture progress, derived artifacts (transcript, duplicate
// groups, alignment, deletion plan, preview, reconstruction) as JSON payloads,
// and parent linkage so stages can coordinate without additional state.
//
// Status is a closed type and every status change is validated centrally by
// ValidateTransition; call sites use Store.Transition rather than writing
// statuses directly.
//
// The database is treated as transient storage for in-flight work rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
