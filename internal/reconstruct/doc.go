// Package reconstruct turns a confirmed deletion plan into a new audio
// artifact. It computes the kept ranges as the complement of the plan,
// splices them with ffmpeg, and publishes the result atomically alongside a
// boundary map that translates original timestamps into the new timeline.
package reconstruct
