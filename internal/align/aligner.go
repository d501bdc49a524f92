package align

import (
	"encoding/json"
	"fmt"
	"strings"

	"log/slog"

	"retake/internal/config"
	"retake/internal/logging"
	"retake/internal/textutil"
	"retake/internal/transcript"
)

// Match binds one transcript segment to the reference block it covers.
type Match struct {
	SegmentID  int64   `json:"segment_id"`
	BlockIndex int     `json:"block_index"`
	Score      float64 `json:"score"`
}

// ExtraSpan is a run of consecutive transcript segments matched to no block:
// content spoken but absent from the script.
type ExtraSpan struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	SegmentIDs []int64 `json:"segment_ids"`
}

// Warning records an ambiguous assignment that was resolved deterministically.
type Warning struct {
	SegmentID   int64   `json:"segment_id"`
	ChosenBlock int     `json:"chosen_block"`
	RunnerUp    int     `json:"runner_up"`
	ScoreSpread float64 `json:"score_spread"`
}

// Result is the outcome of aligning one asset's transcript against a
// reference document.
type Result struct {
	AssetID       int64       `json:"asset_id"`
	ReferencePath string      `json:"reference_path"`
	Matches       []Match     `json:"matches"`
	MissingBlocks []int       `json:"missing_blocks"`
	ExtraSpans    []ExtraSpan `json:"extra_spans,omitempty"`
	Warnings      []Warning   `json:"warnings,omitempty"`
}

// Marshal serializes the result for persistence.
func (r *Result) Marshal() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal alignment result: %w", err)
	}
	return string(data), nil
}

// Unmarshal restores a result persisted with Marshal.
func Unmarshal(raw string) (*Result, error) {
	if raw == "" {
		return nil, fmt.Errorf("alignment result payload is empty")
	}
	var r Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("unmarshal alignment result: %w", err)
	}
	return &r, nil
}

// Aligner assigns transcript segments to reference blocks. Assignments are
// monotonic in block order: a candidate that would move the reference pointer
// backward is rejected in favor of the best non-decreasing alternative.
type Aligner struct {
	minScore       float64
	searchWindow   int
	windowSegments int
	epsilon        float64
	logger         *slog.Logger

	// OnProgress, when set, receives the fraction of segments aligned.
	// Advisory only.
	OnProgress func(fraction float64)
}

// NewAligner constructs an aligner from configuration.
func NewAligner(cfg *config.Config, logger *slog.Logger) *Aligner {
	alignerLogger := logger
	if alignerLogger != nil {
		alignerLogger = alignerLogger.With(logging.String(logging.FieldComponent, "align"))
	}
	return &Aligner{
		minScore:       cfg.Alignment.MinScore,
		searchWindow:   cfg.Alignment.SearchWindow,
		windowSegments: cfg.Alignment.WindowSegments,
		epsilon:        cfg.Alignment.AmbiguityEpsilon,
		logger:         alignerLogger,
	}
}

// Align walks the transcript in time order, scoring each segment against the
// candidate blocks inside the search window anchored at the previous match.
// Near-tied candidates resolve to the earlier block and surface a warning.
func (a *Aligner) Align(index *transcript.Index, doc *Document) *Result {
	result := &Result{}
	if index != nil {
		result.AssetID = index.AssetID
	}
	if doc != nil {
		result.ReferencePath = doc.Path
	}
	if index == nil || doc == nil || len(doc.Blocks) == 0 {
		return result
	}

	blockPrints := make([]*textutil.Fingerprint, len(doc.Blocks))
	for i, block := range doc.Blocks {
		blockPrints[i] = textutil.NewFingerprint(block.Text)
	}

	touched := make([]bool, len(doc.Blocks))
	pointer := 0
	var unmatched []transcript.Segment

	flushExtra := func() {
		if len(unmatched) == 0 {
			return
		}
		span := ExtraSpan{Start: unmatched[0].Start, End: unmatched[len(unmatched)-1].End}
		for _, segment := range unmatched {
			span.SegmentIDs = append(span.SegmentIDs, segment.ID)
		}
		result.ExtraSpans = append(result.ExtraSpans, span)
		unmatched = unmatched[:0]
	}

	segments := index.Segments
	si := 0
	for si < len(segments) {
		segment := segments[si]
		segPrint := textutil.NewFingerprint(segment.Text)

		limit := pointer + a.searchWindow
		if limit > len(doc.Blocks) {
			limit = len(doc.Blocks)
		}
		best, runnerUp := -1, -1
		var bestScore, runnerScore float64
		for j := pointer; j < limit; j++ {
			score := textutil.CosineSimilarity(segPrint, blockPrints[j])
			if score < a.minScore {
				continue
			}
			// Strict comparison keeps the earliest block on exact ties.
			if score > bestScore {
				runnerUp, runnerScore = best, bestScore
				best, bestScore = j, score
			} else if score > runnerScore {
				runnerUp, runnerScore = j, score
			}
		}

		if best < 0 {
			unmatched = append(unmatched, segment)
			si++
			continue
		}

		if spread := bestScore - runnerScore; runnerUp >= 0 && spread <= a.epsilon {
			// Near-tie: default to the earlier block in document order and
			// surface the ambiguity instead of picking arbitrarily.
			chosen, other := best, runnerUp
			if runnerUp < best {
				chosen, other = runnerUp, best
				bestScore = runnerScore
			}
			result.Warnings = append(result.Warnings, Warning{
				SegmentID:   segment.ID,
				ChosenBlock: chosen,
				RunnerUp:    other,
				ScoreSpread: spread,
			})
			best = chosen
		}

		// A script block read across several takes scores low segment by
		// segment. Grow the window over the following segments while the
		// combined text keeps improving the match against the chosen block.
		width := 1
		maxWidth := a.windowSegments
		if rest := len(segments) - si; maxWidth > rest {
			maxWidth = rest
		}
		for width < maxWidth {
			combined := textutil.NewFingerprint(joinSegmentText(segments[si : si+width+1]))
			score := textutil.CosineSimilarity(combined, blockPrints[best])
			if score <= bestScore {
				break
			}
			bestScore = score
			width++
		}

		flushExtra()
		for _, covered := range segments[si : si+width] {
			result.Matches = append(result.Matches, Match{SegmentID: covered.ID, BlockIndex: best, Score: bestScore})
		}
		touched[best] = true
		pointer = best
		si += width

		if a.OnProgress != nil {
			a.OnProgress(float64(si) / float64(len(segments)))
		}
	}
	flushExtra()

	for i, hit := range touched {
		if !hit {
			result.MissingBlocks = append(result.MissingBlocks, i)
		}
	}

	if a.logger != nil {
		a.logger.Info(
			"alignment complete",
			logging.Int("matches", len(result.Matches)),
			logging.Int("missing_blocks", len(result.MissingBlocks)),
			logging.Int("extra_spans", len(result.ExtraSpans)),
			logging.Int("ambiguous", len(result.Warnings)),
		)
	}
	return result
}

func joinSegmentText(segments []transcript.Segment) string {
	parts := make([]string, len(segments))
	for i, segment := range segments {
		parts[i] = segment.Text
	}
	return strings.Join(parts, " ")
}
