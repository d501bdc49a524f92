// Package stt produces timed transcripts from narration audio. The default
// producer shells out to the whisperx CLI against a mono 16kHz WAV extracted
// from the source, then parses its word-aligned JSON output.
package stt
