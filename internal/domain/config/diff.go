// Where: cli/internal/domain/config/diff.go
// What: Pure diff helpers for local deploy summaries.
// Why: Report what a redeploy changed without touching I/O.
package config

import (
	"fmt"
)

// Snapshot captures the recorded deployment state used for diffing.
type Snapshot struct {
	Buckets       map[string]string
	CustomActions map[string]string
	Outputs       map[string]string
}

// Counts stores diff counters for a category.
type Counts struct {
	Added   int
	Updated int
	Removed int
	Total   int
}

// Diff aggregates counts for all snapshot sections.
type Diff struct {
	Buckets       Counts
	CustomActions Counts
	Outputs       Counts
}

// Changed reports whether any section differs.
func (d Diff) Changed() bool {
	for _, c := range []Counts{d.Buckets, d.CustomActions, d.Outputs} {
		if c.Added+c.Updated+c.Removed > 0 {
			return true
		}
	}
	return false
}

// DiffSnapshots computes the diff between two snapshots.
func DiffSnapshots(before, after Snapshot) Diff {
	return Diff{
		Buckets:       diffMap(before.Buckets, after.Buckets),
		CustomActions: diffMap(before.CustomActions, after.CustomActions),
		Outputs:       diffMap(before.Outputs, after.Outputs),
	}
}

// FormatCountsLabel formats counts for deploy summaries.
func FormatCountsLabel(counts Counts) string {
	return fmt.Sprintf(
		"new %d / updated %d / removed %d (total %d)",
		counts.Added,
		counts.Updated,
		counts.Removed,
		counts.Total,
	)
}

func diffMap(before, after map[string]string) Counts {
	counts := Counts{Total: len(after)}
	for key, value := range after {
		prev, ok := before[key]
		if !ok {
			counts.Added++
			continue
		}
		if prev != value {
			counts.Updated++
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			counts.Removed++
		}
	}
	return counts
}
