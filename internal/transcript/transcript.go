package transcript

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Word is a single transcribed word with timing and confidence.
type Word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Segment is a time-bounded, transcribed span of speech. Segments are created
// once by the transcript producer and never mutated; re-transcription builds a
// new Index generation.
type Segment struct {
	ID         int64   `json:"id"`
	AssetID    int64   `json:"asset_id"`
	OrderIndex int     `json:"order_index"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Words      []Word  `json:"words,omitempty"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Anomaly records a segment the index rejected and why. Anomalies are
// surfaced to the caller and logged; they never abort index construction.
type Anomaly struct {
	OrderIndex int    `json:"order_index"`
	Reason     string `json:"reason"`
}

// Index is the immutable, ordered view of an asset's transcript that every
// downstream computation consumes.
type Index struct {
	AssetID    int64     `json:"asset_id"`
	Generation int       `json:"generation"`
	Duration   float64   `json:"duration"`
	Segments   []Segment `json:"segments"`
	Anomalies  []Anomaly `json:"anomalies,omitempty"`
}

// New builds an Index from producer output. Segments are sorted by start
// time and assigned order indices; segments with malformed time ranges
// (end <= start) or words outside their segment are dropped with a recorded
// anomaly rather than failing the whole transcript.
func New(assetID int64, generation int, duration float64, segments []Segment) *Index {
	idx := &Index{
		AssetID:    assetID,
		Generation: generation,
		Duration:   duration,
	}

	ordered := make([]Segment, 0, len(segments))
	for i, seg := range segments {
		if seg.End <= seg.Start {
			idx.Anomalies = append(idx.Anomalies, Anomaly{
				OrderIndex: i,
				Reason:     fmt.Sprintf("segment time range invalid: end %.3f <= start %.3f", seg.End, seg.Start),
			})
			continue
		}
		seg.AssetID = assetID
		seg.Words = clampWords(seg, &idx.Anomalies, i)
		ordered = append(ordered, seg)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	// Overlapping segments violate the non-overlap invariant; keep the
	// earlier one and drop the intruder.
	deduped := ordered[:0]
	var lastEnd float64
	for i, seg := range ordered {
		if i > 0 && seg.Start < lastEnd {
			idx.Anomalies = append(idx.Anomalies, Anomaly{
				OrderIndex: seg.OrderIndex,
				Reason:     fmt.Sprintf("segment overlaps predecessor at %.3f", seg.Start),
			})
			continue
		}
		lastEnd = seg.End
		deduped = append(deduped, seg)
	}
	ordered = deduped

	for i := range ordered {
		ordered[i].OrderIndex = i
		if ordered[i].ID == 0 {
			ordered[i].ID = int64(i + 1)
		}
	}
	idx.Segments = ordered
	return idx
}

func clampWords(seg Segment, anomalies *[]Anomaly, orderIndex int) []Word {
	if len(seg.Words) == 0 {
		return nil
	}
	kept := make([]Word, 0, len(seg.Words))
	for _, w := range seg.Words {
		if w.End < w.Start || w.Start < seg.Start || w.End > seg.End {
			*anomalies = append(*anomalies, Anomaly{
				OrderIndex: orderIndex,
				Reason:     fmt.Sprintf("word %q outside segment range", w.Word),
			})
			continue
		}
		kept = append(kept, w)
	}
	return kept
}

// SegmentByID returns the segment with the given identifier.
func (x *Index) SegmentByID(id int64) (Segment, bool) {
	for _, seg := range x.Segments {
		if seg.ID == id {
			return seg, true
		}
	}
	return Segment{}, false
}

// Empty reports whether the index holds no usable segments.
func (x *Index) Empty() bool {
	return x == nil || len(x.Segments) == 0
}

// Marshal serializes the index for persistence.
func (x *Index) Marshal() (string, error) {
	data, err := json.Marshal(x)
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}
	return string(data), nil
}

// Unmarshal restores an index persisted with Marshal.
func Unmarshal(raw string) (*Index, error) {
	if raw == "" {
		return nil, fmt.Errorf("transcript payload is empty")
	}
	var idx Index
	if err := json.Unmarshal([]byte(raw), &idx); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return &idx, nil
}
