// Package align maps transcript segments onto the ordered blocks of a
// reference script. Assignment is windowed and monotonic in block order, so a
// candidate match that would move the reference pointer backward is rejected.
// Blocks no segment covers are reported as missing; runs of segments no block
// covers are reported as extra spans. Near-tied scores resolve to the earlier
// block and surface an ambiguity warning.
package align
