package planner

import (
	"github.com/arnavshah/trip-planner-go/pkg/audit"
	"github.com/arnavshah/trip-planner-go/pkg/models"
	"github.com/arnavshah/trip-planner-go/pkg/scheduler"
)

const (
	// ResultSchema tags every result document
	ResultSchema = "ec-planning-result@1"

	// ModeIncremental means existing assignments were preserved where possible
	ModeIncremental = "incremental"

	// SolverName identifies the placement algorithm in result metadata
	SolverName = "greedy-v2"
)

// Rules echoes the slot configuration the run actually used
type Rules struct {
	TimeSlots   []string                     `json:"timeSlots"`
	SlotWindows map[string]models.SlotWindow `json:"slotWindows"`
}

// Meta describes the solver invocation
type Meta struct {
	Solver    string `json:"solver"`
	Seed      int64  `json:"seed"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// ResultDocument is written back to the caller
type ResultDocument struct {
	Schema      string                          `json:"schema"`
	SnapshotID  string                          `json:"snapshot_id"`
	Mode        string                          `json:"mode"`
	Range       models.Scope                    `json:"range"`
	Rules       Rules                           `json:"rules"`
	Assignments []models.Assignment             `json:"assignments"`
	Unassigned  []scheduler.UnplacedRequirement `json:"unassigned"`
	Meta        Meta                            `json:"meta"`
}

// Summary holds the headline numbers of a run
type Summary struct {
	Groups            int     `json:"groups"`
	Locations         int     `json:"locations"`
	AssignmentsInput  int     `json:"assignmentsInput"`
	AssignmentsOutput int     `json:"assignmentsOutput"`
	RetentionRate     float64 `json:"retentionRate"`
	ElapsedMs         int64   `json:"elapsedMs"`
}

// ReportDocument is the optional companion of a result document
type ReportDocument struct {
	Summary     Summary               `json:"summary"`
	Audit       audit.Report          `json:"audit"`
	Diagnostics scheduler.Diagnostics `json:"diagnostics"`
	Normalize   models.DropCounts     `json:"normalize"`
}

// Outcome bundles everything a run produces
type Outcome struct {
	Problem *models.Problem `json:"-"`
	Result  ResultDocument  `json:"result"`
	Report  ReportDocument  `json:"report"`
}

// HasFindings reports whether the audit flagged anything, either hard
// violations or required visits left uncovered.
func (o *Outcome) HasFindings() bool {
	return !o.Report.Audit.Clean()
}
