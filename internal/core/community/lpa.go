// Package community groups facilities that report the same gaps into shortage clusters
// using label propagation over a facility graph.
package community

import (
	"sort"
	"strings"

	"github.com/agenthands/meddesert/internal/core/model"
)

// Cluster is a group of facilities linked by shared gaps.
type Cluster struct {
	FacilityIDs []string `json:"facilityIds"`
	Facilities  []string `json:"facilities"`
	Regions     []string `json:"regions"`
	SharedGaps  []string `json:"sharedGaps"`
}

// LabelPropagationDetector links two facilities with a weight equal to the number of
// gaps they share and propagates labels until they settle.
type LabelPropagationDetector struct {
	MaxIterations int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{MaxIterations: 20}
}

// Detect returns clusters of two or more facilities, largest first.
func (d *LabelPropagationDetector) Detect(reports []model.HospitalReport) []Cluster {
	if len(reports) == 0 {
		return nil
	}

	gaps := make([]map[string]bool, len(reports))
	for i, r := range reports {
		gaps[i] = make(map[string]bool)
		for _, g := range r.Gaps() {
			if key := normalizeGap(g); key != "" {
				gaps[i][key] = true
			}
		}
	}

	adj := make([]map[int]int, len(reports))
	for i := range reports {
		adj[i] = make(map[int]int)
	}
	for i := 0; i < len(reports); i++ {
		for j := i + 1; j < len(reports); j++ {
			w := 0
			for g := range gaps[i] {
				if gaps[j][g] {
					w++
				}
			}
			if w > 0 {
				adj[i][j] = w
				adj[j][i] = w
			}
		}
	}

	labels := make([]int, len(reports))
	for i := range labels {
		labels[i] = i
	}

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0
		for u := range reports {
			if len(adj[u]) == 0 {
				continue
			}

			counts := make(map[int]int)
			maxCount := 0
			for v, weight := range adj[u] {
				counts[labels[v]] += weight
				if counts[labels[v]] > maxCount {
					maxCount = counts[labels[v]]
				}
			}

			// Ties go to the largest label so the result is deterministic.
			best := -1
			for label, count := range counts {
				if count == maxCount && label > best {
					best = label
				}
			}
			if labels[u] != best {
				labels[u] = best
				changed++
			}
		}
		if changed == 0 {
			break
		}
	}

	members := make(map[int][]int)
	var order []int
	for i, label := range labels {
		if _, ok := members[label]; !ok {
			order = append(order, label)
		}
		members[label] = append(members[label], i)
	}

	var clusters []Cluster
	for _, label := range order {
		idx := members[label]
		if len(idx) < 2 {
			continue
		}
		clusters = append(clusters, buildCluster(reports, gaps, idx))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].FacilityIDs) > len(clusters[j].FacilityIDs)
	})
	return clusters
}

func buildCluster(reports []model.HospitalReport, gaps []map[string]bool, idx []int) Cluster {
	c := Cluster{SharedGaps: []string{}}
	seenRegion := make(map[string]bool)
	gapCount := make(map[string]int)
	display := make(map[string]string)

	for _, i := range idx {
		r := reports[i]
		c.FacilityIDs = append(c.FacilityIDs, r.ID)
		c.Facilities = append(c.Facilities, r.FacilityName)
		if !seenRegion[r.Region] {
			seenRegion[r.Region] = true
			c.Regions = append(c.Regions, r.Region)
		}
		for g := range gaps[i] {
			gapCount[g]++
		}
		for _, g := range r.Gaps() {
			if _, ok := display[normalizeGap(g)]; !ok {
				display[normalizeGap(g)] = strings.TrimSpace(g)
			}
		}
	}

	for g, n := range gapCount {
		if n == len(idx) {
			c.SharedGaps = append(c.SharedGaps, display[g])
		}
	}
	sort.Strings(c.SharedGaps)
	return c
}

func normalizeGap(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}
