// Package textutil provides the text processing primitives shared by
// duplicate detection and script alignment.
//
// The primary use cases are:
//   - Normalizing transcribed speech for comparison (case folding, diacritic
//     and punctuation stripping, whitespace collapsing)
//   - Scoring similarity between normalized strings behind the Metric
//     interface (Levenshtein ratio, token overlap)
//   - Creating token-based fingerprints and cosine similarity for matching
//     transcript windows against reference script blocks
package textutil
