package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/sheet"
)

type notified struct {
	toggle
}

// NewNotified creates the heuristic that carries notification times sent by
// the legacy automator into the schedule table.
func NewNotified() Heuristic {
	return &notified{toggle{name: NotifiedName}}
}

func (h *notified) Validate(cfg *Config) error {
	if err := requireSubsystem(cfg); err != nil {
		return err
	}
	return validThreshold("notified", cfg.Thresholds.Notified)
}

func (h *notified) Apply(ctx context.Context, cfg *Config, deps Deps) (Step, error) {
	log := deps.logger(h.Name())

	tables, err := loadTables(ctx, deps.Store, cfg.Tables.Legacy, cfg.Tables.Schedule)
	if err != nil {
		return Step{}, err
	}
	legacy, schedule := tables[0], tables[1]

	notifiedColumn := cfg.Notified()
	if err := requireColumns(legacy, notifiedColumn, cfg.Columns.LegacyNotifier); err != nil {
		return Step{}, err
	}
	if err := requireColumns(schedule, cfg.Columns.InterviewTime, cfg.Columns.Sender); err != nil {
		return Step{}, err
	}

	source, err := newRoster(legacy, cfg, cfg.Columns.LegacyRegistration, true)
	if err != nil {
		return Step{}, err
	}
	scheduled, err := newRoster(schedule, cfg, "", true)
	if err != nil {
		return Step{}, err
	}

	var step Step
	strategy := deps.strategy()

	err = schedule.Update(ctx, func(tx *sheet.Tx) error {
		for i := 0; i < legacy.Len(); i++ {
			if source.Blank(i) {
				continue
			}
			step.Examined++

			sent := legacy.Value(i, notifiedColumn)
			if sent == "" {
				continue
			}

			m, match, found := strategy.Find(source.At(i), scheduled.Candidates(nil), cfg.Thresholds.Notified)
			if !found {
				continue
			}
			step.Matched++

			if schedule.Value(m, cfg.Columns.InterviewTime) != "" {
				continue
			}

			desc, err := tx.Set(cfg.Columns.InterviewTime, m, sent)
			if err != nil {
				return err
			}
			step.Written++

			notifier := legacy.Value(i, cfg.Columns.LegacyNotifier)
			if schedule.Value(m, cfg.Columns.Sender) == "" || notifier == "" {
				if _, err := tx.Set(cfg.Columns.Sender, m, notifier); err != nil {
					return err
				}
				step.Written++
			}

			log.Info("notification migrated",
				zap.String("name", source.Row(i).Name),
				zap.Float64("score", match.Score),
				zap.String("write", desc),
			)
		}
		return nil
	})

	return step, err
}
