package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/sheet"
)

// Appeared is the value written into the schedule for evaluated candidates.
const Appeared = "yes"

type appearances struct {
	toggle
}

// NewAppearances creates the heuristic that marks scheduled candidates who
// were evaluated as having appeared.
func NewAppearances() Heuristic {
	return &appearances{toggle{name: AppearancesName}}
}

func (h *appearances) Validate(cfg *Config) error {
	return validThreshold("appearances", cfg.Thresholds.Appearances)
}

func (h *appearances) Apply(ctx context.Context, cfg *Config, deps Deps) (Step, error) {
	log := deps.logger(h.Name())

	tables, err := loadTables(ctx, deps.Store, cfg.Tables.Scores, cfg.Tables.Schedule)
	if err != nil {
		return Step{}, err
	}
	scores, schedule := tables[0], tables[1]

	if err := requireColumns(scores, cfg.Columns.Overall, cfg.Columns.Interviewers); err != nil {
		return Step{}, err
	}
	if err := requireColumns(schedule, cfg.Columns.Appeared); err != nil {
		return Step{}, err
	}

	scored, err := newRoster(scores, cfg, "", false)
	if err != nil {
		return Step{}, err
	}
	scheduled, err := newRoster(schedule, cfg, "", false)
	if err != nil {
		return Step{}, err
	}

	var step Step
	strategy := deps.strategy()

	err = schedule.Update(ctx, func(tx *sheet.Tx) error {
		for i := 0; i < scores.Len(); i++ {
			if scored.Blank(i) {
				continue
			}

			evaluated := !isZero(scores.Value(i, cfg.Columns.Overall)) || scores.Value(i, cfg.Columns.Interviewers) != ""
			if !evaluated {
				continue
			}
			step.Examined++

			m, _, found := strategy.Find(scored.At(i), scheduled.Candidates(nil), cfg.Thresholds.Appearances)
			if !found {
				continue
			}
			step.Matched++

			if schedule.Value(m, cfg.Columns.Appeared) != "" {
				continue
			}

			desc, err := tx.Set(cfg.Columns.Appeared, m, Appeared)
			if err != nil {
				return err
			}
			step.Written++
			log.Info("appearance marked", zap.String("name", scored.Row(i).Name), zap.String("write", desc))
		}
		return nil
	})

	return step, err
}
