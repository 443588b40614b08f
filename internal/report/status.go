package report

import (
	"sort"
	"time"

	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/state"
)

// Status summarizes the run state ledger and, optionally, the corpus database.
type Status struct {
	GeneratedAt time.Time `json:"generated_at"`

	// URLs is the number of ledger entries.
	URLs int `json:"urls"`

	// Stored counts entries pointing at stored content.
	Stored int `json:"stored"`

	// Files is the number of distinct stored files.
	Files int `json:"files"`

	ContentKinds map[string]int `json:"content_kinds"`
	Blocked      map[string]int `json:"blocked"`

	Processed     int `json:"processed"`
	Chunks        int `json:"chunks"`
	Skipped       int `json:"skipped"`
	ProcessErrors int `json:"process_errors"`

	// Loaded counts entries that carry a document ID.
	Loaded int `json:"loaded"`

	Database *DatabaseStatus `json:"database,omitempty"`
}

// DatabaseStatus holds corpus database counters and the latest stage runs.
type DatabaseStatus struct {
	Path      string      `json:"path"`
	Documents int         `json:"documents"`
	Chunks    int         `json:"chunks"`
	Entities  int         `json:"entities"`
	Mentions  int         `json:"mentions"`
	Runs      []RunStatus `json:"runs"`
}

// RunStatus is one recorded stage execution.
type RunStatus struct {
	ID         string         `json:"id"`
	Stage      string         `json:"stage"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Counts     map[string]int `json:"counts,omitempty"`
}

// Summarize builds a Status from the ledger.
func Summarize(rs *state.RunState) *Status {
	s := &Status{
		GeneratedAt:  time.Now().UTC(),
		URLs:         len(rs.URLMeta),
		Files:        len(rs.Files),
		ContentKinds: make(map[string]int),
		Blocked:      make(map[string]int),
	}

	for _, rec := range rs.URLMeta {
		if rec.ContentKind != "" {
			s.ContentKinds[string(rec.ContentKind)]++
		}
		if rec.Blocked() {
			s.Blocked[string(rec.BlockedReason)]++
		}
		if rec.Stored() {
			s.Stored++
		}
		if rec.ProcessSkip != "" {
			s.Skipped++
		}
		if rec.ProcessError != "" {
			s.ProcessErrors++
		}
		if rec.Processed() && rec.ProcessSkip == "" && rec.ProcessError == "" {
			s.Processed++
			s.Chunks += *rec.ChunkCount
		}
		if rec.DocID != "" {
			s.Loaded++
		}
	}
	return s
}

// NewDatabaseStatus converts database counters and runs into a DatabaseStatus.
func NewDatabaseStatus(path string, c database.Counts, runs []database.Run) *DatabaseStatus {
	ds := &DatabaseStatus{
		Path:      path,
		Documents: c.Documents,
		Chunks:    c.Chunks,
		Entities:  c.Entities,
		Mentions:  c.Mentions,
		Runs:      make([]RunStatus, 0, len(runs)),
	}
	for _, r := range runs {
		ds.Runs = append(ds.Runs, RunStatus{
			ID:         r.ID,
			Stage:      r.Stage,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			Counts:     r.Counts,
		})
	}
	return ds
}

// TotalBlocked returns the number of blocked entries across all reasons.
func (s *Status) TotalBlocked() int {
	total := 0
	for _, n := range s.Blocked {
		total += n
	}
	return total
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
