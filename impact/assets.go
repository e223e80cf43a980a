package impact

import (
	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/record"
)

// DeliverableStats totals the approved assets of a project.
type DeliverableStats struct {
	TotalAssets    int            `json:"totalAssets"`
	TotalDownloads int            `json:"totalDownloads"`
	TotalSize      int64          `json:"totalSize"`
	Formats        map[string]int `json:"formats"`
}

// Deliverables returns the approved assets matching spec and their totals.
// Assets are ordered by name unless spec asks for another order.
func Deliverables(assets []record.Asset, spec engine.FilterSpec, opts ...engine.Option) ([]record.Asset, DeliverableStats, error) {
	approved := make([]record.Asset, 0, len(assets))
	for _, a := range assets {
		if a.Status == record.AssetApproved {
			approved = append(approved, a)
		}
	}
	if spec.SortBy == engine.SortNone {
		spec.SortBy = engine.SortName
	}

	out, err := engine.Apply(record.AssetAdapter, approved, spec, opts...)
	if err != nil {
		return nil, DeliverableStats{}, err
	}

	stats := DeliverableStats{TotalAssets: len(out), Formats: make(map[string]int)}
	for _, a := range out {
		stats.TotalDownloads += a.DownloadCount
		stats.TotalSize += a.FileSize
	}
	view := record.AssetAdapter.Bind(out)
	for _, g := range engine.GroupAndAggregate(view, []string{record.DimFormat}, "", engine.AggCount, "value_desc", 0) {
		if g.Key != "" {
			stats.Formats[g.Key] = g.Count
		}
	}
	return out, stats, nil
}
