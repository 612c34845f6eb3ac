package views

import (
	"math"
	"sort"
	"sync"

	"github.com/stwalsh4118/projectmap/internal/geo"
	"github.com/stwalsh4118/projectmap/internal/models"
	"github.com/stwalsh4118/projectmap/internal/reconcile"
)

// GroupCount is the number of records sharing a name.
type GroupCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DistanceBands counts records by distance from the view center. The first
// three bands are cumulative.
type DistanceBands struct {
	Within1km int
	Within2km int
	Within5km int
	Beyond5km int
}

// Summary is the sidebar analytics over geoValid records.
type Summary struct {
	Total        int
	MeanKm       float64
	MeanDistance string
	ByType       []GroupCount
	ByStatus     []GroupCount
	Bands        DistanceBands
}

// Summarize computes the summary of a snapshot. Records without valid
// coordinates are not counted. MeanKm is NaN for an empty set.
func Summarize(s reconcile.Snapshot) Summary {
	sum := Summary{MeanKm: math.NaN()}
	types := map[string]int{}
	statuses := map[string]int{}

	var totalKm float64
	for _, rec := range s.Partition.Valid {
		d := s.Distance(rec.Project.ID())
		if math.IsNaN(d) {
			d = geo.DistanceKm(s.Center, rec.Position)
		}

		sum.Total++
		totalKm += d
		types[models.OrNA(rec.Project.PropertyTypeName)]++
		statuses[models.OrNA(rec.Project.BuildingStatusName)]++

		if d <= 1 {
			sum.Bands.Within1km++
		}
		if d <= 2 {
			sum.Bands.Within2km++
		}
		if d <= 5 {
			sum.Bands.Within5km++
		} else {
			sum.Bands.Beyond5km++
		}
	}

	if sum.Total > 0 {
		sum.MeanKm = totalKm / float64(sum.Total)
	}
	sum.MeanDistance = geo.FormatDistance(sum.MeanKm)
	sum.ByType = sortedCounts(types)
	sum.ByStatus = sortedCounts(statuses)
	return sum
}

// sortedCounts orders groups by count descending, then name.
func sortedCounts(m map[string]int) []GroupCount {
	out := make([]GroupCount, 0, len(m))
	for name, n := range m {
		out = append(out, GroupCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SummaryView keeps the summary of the latest snapshot.
type SummaryView struct {
	mu      sync.RWMutex
	summary Summary
}

// NewSummaryView creates an empty summary view.
func NewSummaryView() *SummaryView {
	return &SummaryView{summary: Summarize(reconcile.Snapshot{})}
}

// Publish implements reconcile.View.
func (v *SummaryView) Publish(s reconcile.Snapshot) {
	sum := Summarize(s)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.summary = sum
}

// Summary returns the latest summary.
func (v *SummaryView) Summary() Summary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.summary
}
