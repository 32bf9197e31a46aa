// Package planner runs the normalize, solve and audit pipeline and shapes
// its output into result and report documents.
package planner

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnavshah/trip-planner-go/pkg/audit"
	"github.com/arnavshah/trip-planner-go/pkg/models"
	"github.com/arnavshah/trip-planner-go/pkg/normalize"
	"github.com/arnavshah/trip-planner-go/pkg/scheduler"
)

// snapshotNamespace scopes name-based snapshot ids to this service
var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:ec-planning:snapshot"))

// Options configure a Planner
type Options struct {
	Seed      int64
	TimeLimit time.Duration
	Penalties *scheduler.Penalties
	Logger    *zap.Logger
}

// Planner is safe for concurrent use; every Run owns its state
type Planner struct {
	opts       Options
	normalizer *normalize.Normalizer
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a Planner
func New(opts Options) *Planner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = scheduler.DefaultTimeLimit
	}
	return &Planner{
		opts:       opts,
		normalizer: normalize.New(opts.Logger.Named("normalize")),
		logger:     opts.Logger,
		now:        time.Now,
	}
}

// Seed returns the default seed of the planner
func (p *Planner) Seed() int64 {
	return p.opts.Seed
}

// Run decodes raw as format and plans it with the planner's seed
func (p *Planner) Run(raw []byte, format Format) (*Outcome, error) {
	return p.RunSeed(raw, format, p.opts.Seed)
}

// RunSeed is Run with an explicit seed
func (p *Planner) RunSeed(raw []byte, format Format, seed int64) (*Outcome, error) {
	doc, err := Decode(raw, format)
	if err != nil {
		return nil, err
	}
	return p.Plan(doc, SnapshotID(raw, seed), seed)
}

// Plan runs the pipeline on an already decoded document
func (p *Planner) Plan(doc *normalize.Document, snapshotID string, seed int64) (*Outcome, error) {
	started := p.now()

	problem, err := p.normalizer.Normalize(doc)
	if err != nil {
		return nil, err
	}

	res := scheduler.Solve(problem, scheduler.Options{
		Seed:      seed,
		TimeLimit: p.opts.TimeLimit,
		Penalties: p.opts.Penalties,
		Logger:    p.logger.Named("scheduler"),
	})
	report := audit.Validate(problem, res.Assignments)
	elapsed := p.now().Sub(started).Milliseconds()

	out := &Outcome{
		Problem: problem,
		Result: ResultDocument{
			Schema:     ResultSchema,
			SnapshotID: snapshotID,
			Mode:       ModeIncremental,
			Range:      problem.Scope,
			Rules: Rules{
				TimeSlots:   problem.SlotKeys,
				SlotWindows: problem.SlotWindows,
			},
			Assignments: res.Assignments,
			Unassigned:  res.Diagnostics.RequiredUnplaced,
			Meta: Meta{
				Solver:    SolverName,
				Seed:      seed,
				ElapsedMs: elapsed,
			},
		},
		Report: ReportDocument{
			Summary: Summary{
				Groups:            len(problem.Groups),
				Locations:         len(problem.Locations),
				AssignmentsInput:  len(problem.Existing),
				AssignmentsOutput: len(res.Assignments),
				RetentionRate:     res.Diagnostics.RetentionRate(len(problem.Existing)),
				ElapsedMs:         elapsed,
			},
			Audit:       report,
			Diagnostics: res.Diagnostics,
			Normalize:   problem.Dropped,
		},
	}

	p.logger.Info("plan completed",
		zap.String("snapshot", snapshotID),
		zap.Int64("seed", seed),
		zap.Int("assignments", len(res.Assignments)),
		zap.Int("violations", len(report.HardViolations)),
		zap.Int("mustVisitMissing", len(report.MustVisitMissing)),
		zap.Int64("elapsedMs", elapsed),
	)
	return out, nil
}

// Audit normalizes raw and checks caller-supplied assignments against it
func (p *Planner) Audit(raw []byte, format Format, assignments []models.Assignment) (audit.Report, error) {
	doc, err := Decode(raw, format)
	if err != nil {
		return audit.Report{}, err
	}
	problem, err := p.normalizer.Normalize(doc)
	if err != nil {
		return audit.Report{}, err
	}
	return audit.Validate(problem, assignments), nil
}

// SnapshotID derives a name-based UUID from the input bytes and seed, so
// identical requests get identical ids.
func SnapshotID(raw []byte, seed int64) string {
	name := make([]byte, 0, len(raw)+8)
	name = append(name, raw...)
	name = binary.BigEndian.AppendUint64(name, uint64(seed))
	return uuid.NewSHA1(snapshotNamespace, name).String()
}

// Summarize renders a one-line audit summary for terminals
func Summarize(o *Outcome) string {
	a := o.Report.Audit
	return fmt.Sprintf("assignments=%d violations=%d mustVisitMissing=%d retention=%.1f%%",
		len(o.Result.Assignments), len(a.HardViolations), len(a.MustVisitMissing), o.Report.Summary.RetentionRate)
}
