// Package transcript defines the immutable, ordered view of an asset's
// transcribed segments and words that detection, alignment, and
// reconstruction consume.
//
// An Index is built once from producer output and never mutated;
// re-transcribing an asset produces a new generation. Construction enforces
// the ordering and non-overlap invariants, dropping malformed segments with
// recorded anomalies instead of failing the batch.
package transcript
