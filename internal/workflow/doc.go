// Package workflow advances queued assets through the processing stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// assets into the registered handlers (transcriber, detector, reconstructor)
// while capturing progress and failure metadata. The review gap between
// detection and reconstruction is operator-driven: assets sit in the
// duplicates_found, reviewing, and confirmed states until commands move them
// along, and the manager only picks them back up once confirmed.
package workflow
