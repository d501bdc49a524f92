// Command retake is the CLI for the take-deduplication pipeline: it queues
// narration recordings, runs transcription and duplicate detection, drives
// the review of deletion plans, and reconstructs cleaned audio.
package main
