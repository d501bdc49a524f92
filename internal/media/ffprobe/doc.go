// Package ffprobe shells out to ffprobe and exposes the parsed container and
// stream metadata used across the pipeline, most importantly the duration of
// an asset's audio.
package ffprobe
