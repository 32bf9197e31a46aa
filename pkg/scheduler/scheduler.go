package scheduler

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/arnavshah/trip-planner-go/pkg/models"
)

// DefaultSeed is used when the caller does not supply one
const DefaultSeed = 42

// DefaultTimeLimit is accepted for interface compatibility; the greedy
// phases always finish in bounded time and never consult it.
const DefaultTimeLimit = 300 * time.Second

// Penalties weight the phase-2 candidate score. Only their ordering matters:
// empty cell < evicting a non-required occupant < evicting a required
// occupant that is covered elsewhere.
type Penalties struct {
	EvictOptional int
	EvictRequired int
}

// DefaultPenalties are the stock replacement penalties
var DefaultPenalties = Penalties{EvictOptional: 80, EvictRequired: 150}

// Options tune a solver run
type Options struct {
	Seed      int64
	TimeLimit time.Duration
	Penalties *Penalties
	Logger    *zap.Logger
}

// Drop reasons recorded in Diagnostics.Dropped
const (
	ReasonUnknownGroup    = "unknown-group"
	ReasonUnknownLocation = "unknown-location"
	ReasonUnknownSlot     = "unknown-slot"
	ReasonOutOfRange      = "out-of-range"
	ReasonUnavailable     = "unavailable"
	ReasonCapacity        = "capacity"
	ReasonOccupied        = "occupied"
	ReasonReinsertFailed  = "reinsert-failed"
	ReasonNoCandidate     = "no-candidate"
)

// DroppedAssignment is an input or evicted assignment that did not survive
type DroppedAssignment struct {
	models.Assignment
	Reason string `json:"reason"`
}

// UnplacedRequirement is a required visit the solver could not satisfy
type UnplacedRequirement struct {
	models.CoveragePair
	Reason string `json:"reason"`
}

// Diagnostics summarizes what each phase did
type Diagnostics struct {
	KeptExisting     int                   `json:"keptExisting"`
	AddedRequired    int                   `json:"addedRequired"`
	Replaced         int                   `json:"replaced"`
	DroppedExisting  int                   `json:"droppedExisting"`
	Reinserted       int                   `json:"reinserted"`
	ReinsertFailed   int                   `json:"reinsertFailed"`
	RequiredUnplaced []UnplacedRequirement `json:"requiredUnplaced"`
	Dropped          []DroppedAssignment   `json:"dropped"`
}

// RetentionRate returns the share (0-100) of existing assignments that are
// still present, either kept in place or reinserted elsewhere.
func (d Diagnostics) RetentionRate(existing int) float64 {
	if existing == 0 {
		return 100.0
	}
	lost := d.DroppedExisting + d.ReinsertFailed
	if lost > existing {
		lost = existing
	}
	return float64(existing-lost) / float64(existing) * 100.0
}

// Result is the solver output
type Result struct {
	Assignments []models.Assignment `json:"assignments"`
	Diagnostics Diagnostics         `json:"diagnostics"`
}

// Scheduler handles the greedy placement of groups into location cells
type Scheduler struct {
	Problem *models.Problem
	opts    Options
}

// NewScheduler creates a new scheduler instance
func NewScheduler(problem *models.Problem, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Penalties == nil {
		p := DefaultPenalties
		opts.Penalties = &p
	}
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = DefaultTimeLimit
	}
	return &Scheduler{Problem: problem, opts: opts}
}

// Solve runs the three phases on a fresh Context. Each call is independent,
// so a Scheduler may be solved repeatedly or concurrently.
func (s *Scheduler) Solve() *Result {
	ctx := NewContext(s.Problem, s.opts)
	logger := s.opts.Logger

	seedExisting(ctx)
	logger.Debug("existing assignments seeded",
		zap.Int("kept", ctx.diag.KeptExisting),
		zap.Int("dropped", ctx.diag.DroppedExisting))

	placeRequired(ctx)
	logger.Debug("required visits placed",
		zap.Int("added", ctx.diag.AddedRequired),
		zap.Int("replaced", ctx.diag.Replaced),
		zap.Int("unplaced", len(ctx.diag.RequiredUnplaced)))

	reinsertEvicted(ctx)
	logger.Debug("evicted assignments reinserted",
		zap.Int("reinserted", ctx.diag.Reinserted),
		zap.Int("failed", ctx.diag.ReinsertFailed),
		zap.Duration("timeLimit", s.opts.TimeLimit))

	return ctx.result()
}

// Solve is shorthand for NewScheduler(problem, opts).Solve()
func Solve(problem *models.Problem, opts Options) *Result {
	return NewScheduler(problem, opts).Solve()
}

// SortAssignments orders assignments by group id, date and slot priority
func SortAssignments(p *models.Problem, list []models.Assignment) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.GroupID != b.GroupID {
			return a.GroupID < b.GroupID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		ai, _ := p.SlotIndex(a.TimeSlot)
		bi, _ := p.SlotIndex(b.TimeSlot)
		return ai < bi
	})
}
