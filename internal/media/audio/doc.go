// Package audio wraps ffmpeg as the pipeline's audio primitive: timestamp
// slicing, stream-copy concatenation, duration measurement, and the mono
// 16 kHz WAV extraction transcription consumes.
package audio
