package main

import (
	"fmt"
	"strconv"
	"strings"

	"retake/internal/dedupe"
	"retake/internal/plan"
	"retake/internal/queue"
)

func formatTimeRange(start, end float64) string {
	return fmt.Sprintf("%s-%s", formatClock(start), formatClock(end))
}

func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	frac := seconds - float64(total)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d.%01d", m, s, int(frac*10))
}

func formatSegmentIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ", ")
}

func renderPlanRegions(p *plan.Plan) string {
	rows := make([][]string, 0, len(p.Regions))
	for i, region := range p.Regions {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatTimeRange(region.Start, region.End),
			fmt.Sprintf("%.1fs", region.Duration()),
			region.Reason,
			formatSegmentIDs(region.SourceSegmentIDs),
		})
	}
	return renderTable(
		[]string{"#", "Range", "Length", "Reason", "Segments"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func renderDuplicateGroups(result *dedupe.Result) string {
	rows := make([][]string, 0, len(result.Groups))
	for _, group := range result.Groups {
		rows = append(rows, []string{
			strconv.Itoa(group.GroupID),
			formatSegmentIDs(group.MemberSegmentIDs),
			strconv.FormatInt(group.KeptSegmentID, 10),
			fmt.Sprintf("%.3f", group.SimilarityScore),
		})
	}
	return renderTable(
		[]string{"Group", "Members", "Kept", "Similarity"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
	)
}

func buildQueueListRows(assets []*queue.Asset) [][]string {
	rows := make([][]string, 0, len(assets))
	for _, asset := range assets {
		iteration := strconv.Itoa(asset.IterationNumber)
		if asset.ParentID != nil {
			iteration = fmt.Sprintf("%d (from #%d)", asset.IterationNumber, *asset.ParentID)
		}
		rows = append(rows, []string{
			strconv.FormatInt(asset.ID, 10),
			asset.Title,
			string(asset.Status),
			iteration,
			asset.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func buildQueueStatusRows(stats map[queue.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[status]
		if !ok || count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	return rows
}
