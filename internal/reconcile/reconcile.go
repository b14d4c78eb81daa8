// Package reconcile holds the heuristics that propagate fields between the
// interview tables for rows that describe the same candidate.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/identity"
	"github.com/spigell/interview-automator/internal/logger"
	"github.com/spigell/interview-automator/internal/sheet"
)

// Heuristic is a single directional synchronization between tables.
type Heuristic interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, cfg *Config, deps Deps) (Step, error)
}

// Deps aggregates dependencies shared across all heuristics.
type Deps struct {
	Store    sheet.Store
	Logger   *zap.Logger
	Strategy identity.Strategy
}

func (d Deps) strategy() identity.Strategy {
	if d.Strategy == nil {
		return identity.Greedy{}
	}
	return d.Strategy
}

func (d Deps) logger(name string) *zap.Logger {
	return logger.WithHeuristic(d.Logger, name)
}

// Step describes the result of executing a heuristic.
type Step struct {
	Examined  int
	Matched   int
	Written   int
	Conflicts int
}

// Report pairs a heuristic with the outcome of its run.
type Report struct {
	Name    string
	Step    Step
	Skipped string
}

// Status represents runtime information about a heuristic.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
}

const (
	RegistryName    = "sync_registry"
	NotifiedName    = "sync_notified"
	DuplicatesName  = "sync_duplicate_scores"
	AppearancesName = "sync_appearances"
	NoShowsName     = "sync_no_shows"
)

// All returns every heuristic in the order sync_all runs them.
func All() []Heuristic {
	return []Heuristic{
		NewRegistry(),
		NewNotified(),
		NewDuplicates(),
		NewAppearances(),
		NewNoShows(),
	}
}

// ByName returns a fresh heuristic for a command name.
func ByName(name string) (Heuristic, error) {
	for _, h := range All() {
		if h.Name() == name {
			return h, nil
		}
	}
	return nil, fmt.Errorf("unknown heuristic %q", name)
}

// DisableByName marks the heuristic with the provided name as disabled while
// keeping it in the list.
func DisableByName(steps []Heuristic, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates and executes the heuristics sequentially. Each heuristic
// loads its own snapshots and flushes its writes before the next one starts;
// a failure stops the run without undoing what earlier steps wrote.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Heuristic) ([]Report, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	reports := make([]Report, 0, len(steps))
	for _, step := range steps {
		if !step.IsEnabled() {
			reason := describe(step).Reason
			deps.Logger.Info("heuristic disabled", zap.String("name", step.Name()), zap.String("reason", reason))
			reports = append(reports, Report{Name: step.Name(), Skipped: reason})
			continue
		}

		if err := ctx.Err(); err != nil {
			return reports, err
		}

		info, err := step.Apply(ctx, cfg, deps)
		if err != nil {
			return reports, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Info("heuristic step",
			zap.String("name", step.Name()),
			zap.Int("examined", info.Examined),
			zap.Int("matched", info.Matched),
			zap.Int("written", info.Written),
			zap.Int("conflicts", info.Conflicts),
		)

		reports = append(reports, Report{Name: step.Name(), Step: info})
	}

	return reports, nil
}

// Describe returns status entries for the provided heuristics.
func Describe(steps []Heuristic) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		statuses = append(statuses, describe(step))
	}
	return statuses
}

func describe(step Heuristic) Status {
	if s, ok := step.(interface{ Status() Status }); ok {
		return s.Status()
	}
	return Status{Name: step.Name(), Enabled: step.IsEnabled()}
}

// toggle implements the enable bookkeeping shared by the heuristics.
type toggle struct {
	name     string
	disabled bool
	reason   string
}

func (t *toggle) Name() string { return t.name }

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) Status() Status {
	return Status{Name: t.name, Enabled: !t.disabled, Reason: t.reason}
}
