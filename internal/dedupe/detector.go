package dedupe

import (
	"sort"

	"log/slog"

	"retake/internal/config"
	"retake/internal/logging"
	"retake/internal/plan"
	"retake/internal/textutil"
	"retake/internal/transcript"
)

// bucketWidth is the normalized-text length span of one comparison bucket.
// Segments are only compared within the same or adjacent buckets, which keeps
// detection away from full pairwise comparison on long transcripts.
const bucketWidth = 16

// ReasonDuplicateTake labels deletion regions sourced from duplicate detection.
const ReasonDuplicateTake = "duplicate_take"

// Detector groups segments whose normalized text is similar enough to be the
// same take recorded more than once. Grouping is transitive: if A matches B
// and B matches C, all three join one group even when A and C alone score
// below the threshold.
type Detector struct {
	threshold  float64
	minWords   int
	keepPolicy string
	mergeGap   float64
	metric     textutil.Metric
	logger     *slog.Logger

	// OnProgress, when set, receives the fraction of comparison work done.
	// Advisory only.
	OnProgress func(fraction float64)
}

// NewDetector constructs a detector from configuration.
func NewDetector(cfg *config.Config, logger *slog.Logger) *Detector {
	detectorLogger := logger
	if detectorLogger != nil {
		detectorLogger = detectorLogger.With(logging.String(logging.FieldComponent, "dedupe"))
	}
	return &Detector{
		threshold:  cfg.Detection.SimilarityThreshold,
		minWords:   cfg.Detection.MinWords,
		keepPolicy: cfg.Detection.KeepPolicy,
		mergeGap:   cfg.Detection.MergeGapSeconds,
		metric:     textutil.MetricByName(cfg.Detection.Metric),
		logger:     detectorLogger,
	}
}

type candidate struct {
	segment transcript.Segment
	norm    string
}

// Detect runs one detection pass over the transcript index. An empty index
// yields an empty result, not an error.
func (d *Detector) Detect(index *transcript.Index) *Result {
	result := &Result{}
	if index != nil {
		result.AssetID = index.AssetID
		result.Generation = index.Generation
	}
	if index == nil || index.Empty() {
		return result
	}

	candidates := make([]candidate, 0, len(index.Segments))
	for _, segment := range index.Segments {
		norm := textutil.Normalize(segment.Text)
		if textutil.WordCount(norm) < d.minWords {
			result.Skipped++
			continue
		}
		candidates = append(candidates, candidate{segment: segment, norm: norm})
	}
	result.Compared = len(candidates)
	if len(candidates) < 2 {
		return result
	}

	buckets := make(map[int][]int)
	for i, cand := range candidates {
		key := len(cand.norm) / bucketWidth
		buckets[key] = append(buckets[key], i)
	}
	keys := make([]int, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	uf := newUnionFind(len(candidates))
	type scoredPair struct {
		a, b  int
		score float64
	}
	var accepted []scoredPair

	comparePair := func(a, b int) {
		score := d.metric.Similarity(candidates[a].norm, candidates[b].norm)
		if score >= d.threshold {
			uf.union(a, b)
			accepted = append(accepted, scoredPair{a: a, b: b, score: score})
		}
	}

	for ki, key := range keys {
		members := buckets[key]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				comparePair(members[i], members[j])
			}
			for _, other := range buckets[key+1] {
				comparePair(members[i], other)
			}
		}
		if d.OnProgress != nil {
			d.OnProgress(float64(ki+1) / float64(len(keys)))
		}
	}

	groupMembers := make(map[int][]int)
	for i := range candidates {
		root := uf.find(i)
		groupMembers[root] = append(groupMembers[root], i)
	}
	groupScore := make(map[int]float64)
	for _, pair := range accepted {
		root := uf.find(pair.a)
		if pair.score > groupScore[root] {
			groupScore[root] = pair.score
		}
	}

	roots := make([]int, 0, len(groupMembers))
	for root, members := range groupMembers {
		if len(members) >= 2 {
			roots = append(roots, root)
		}
	}
	// Candidates are in time order, so ordering roots by their first member
	// yields groups ordered by first appearance.
	sort.Slice(roots, func(i, j int) bool {
		return groupMembers[roots[i]][0] < groupMembers[roots[j]][0]
	})

	for gid, root := range roots {
		members := groupMembers[root]
		group := Group{
			GroupID:         gid,
			SimilarityScore: groupScore[root],
		}
		for _, idx := range members {
			group.MemberSegmentIDs = append(group.MemberSegmentIDs, candidates[idx].segment.ID)
		}
		kept := members[len(members)-1]
		if d.keepPolicy == config.KeepFirst {
			kept = members[0]
		}
		group.KeptSegmentID = candidates[kept].segment.ID
		result.Groups = append(result.Groups, group)
	}

	if d.logger != nil {
		d.logger.Info(
			"duplicate detection complete",
			logging.Int("segments_compared", result.Compared),
			logging.Int("segments_skipped", result.Skipped),
			logging.Int("groups", len(result.Groups)),
		)
	}
	return result
}

// ProposePlan derives a deletion plan from the detection result: one region
// per non-kept member, merged when separated by less than the gap tolerance.
func (d *Detector) ProposePlan(index *transcript.Index, result *Result) *plan.Plan {
	p := &plan.Plan{AssetID: result.AssetID}
	for _, group := range result.Groups {
		for _, id := range group.MemberSegmentIDs {
			if id == group.KeptSegmentID {
				continue
			}
			segment, ok := index.SegmentByID(id)
			if !ok {
				continue
			}
			p.Regions = append(p.Regions, plan.Region{
				Start:            segment.Start,
				End:              segment.End,
				Reason:           ReasonDuplicateTake,
				SourceSegmentIDs: []int64{segment.ID},
			})
		}
	}
	p.Normalize(d.mergeGap)
	return p
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}
