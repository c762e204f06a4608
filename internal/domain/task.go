package domain

import "time"

// RegenerationTask asks a worker to rebuild manifests. Empty Categories
// means every configured category.
type RegenerationTask struct {
	ID          string    `json:"id"`
	Categories  []string  `json:"categories,omitempty"`
	Covers      bool      `json:"covers"`
	RequestedAt time.Time `json:"requested_at"`
}

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

type GenerationReport struct {
	RunID      string           `json:"run_id"`
	TaskID     string           `json:"task_id,omitempty"`
	Status     RunStatus        `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Categories []CategoryReport `json:"categories"`
	Covers     int              `json:"covers"`
}

type CategoryReport struct {
	Slug    string        `json:"slug"`
	Records int           `json:"records"`
	Skipped []SkippedItem `json:"skipped,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type SkippedItem struct {
	Category string `json:"category"`
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// Records returns the total number of gallery records written.
func (r *GenerationReport) Records() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Records
	}
	return n
}

// SkippedCount returns the number of items skipped across categories.
func (r *GenerationReport) SkippedCount() int {
	n := 0
	for _, c := range r.Categories {
		n += len(c.Skipped)
	}
	return n
}

// Finalize sets the finish time and derives the run status.
func (r *GenerationReport) Finalize(now time.Time) {
	r.FinishedAt = now
	failed := 0
	for _, c := range r.Categories {
		if c.Error != "" {
			failed++
		}
	}
	switch {
	case len(r.Categories) > 0 && failed == len(r.Categories):
		r.Status = RunFailed
	case failed > 0 || r.SkippedCount() > 0:
		r.Status = RunPartial
	default:
		r.Status = RunCompleted
	}
}

// GenerationRun is a persisted summary of one generator run.
type GenerationRun struct {
	ID         string
	TaskID     string
	Status     RunStatus
	Records    int
	Skipped    int
	Covers     int
	StartedAt  time.Time
	FinishedAt time.Time
}

const (
	PathPrefixVariants = "variants/"
	GalleriesDir       = "galleries"
	CoversDir          = "covers"
	CoversManifest     = "covers.json"
)
