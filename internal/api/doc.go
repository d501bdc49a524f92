// Package api implements the review operations exposed to the CLI: one-shot
// stage runs, reference alignment, deletion-plan edits, previews, commits,
// and iteration spawning. Operations that mutate an asset run under a
// per-asset file lock so a CLI command and the background daemon never edit
// the same asset concurrently.
package api
