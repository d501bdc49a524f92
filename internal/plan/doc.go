// Package plan models the deletion plan applied during reconstruction: an
// ordered set of non-overlapping time regions with the segments that sourced
// them, plus the normalization and validation rules the rest of the pipeline
// relies on.
package plan
