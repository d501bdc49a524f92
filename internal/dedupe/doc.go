// Package dedupe detects duplicate takes: segments whose normalized text is
// similar enough to be the same line recorded more than once. Candidates are
// bucketed by normalized length to bound comparison cost, scored with a
// pluggable similarity metric, and grouped transitively through a union-find
// structure. Each group keeps one member per the configured keep policy; the
// rest feed the proposed deletion plan.
package dedupe
