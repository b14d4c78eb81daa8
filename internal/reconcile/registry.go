package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/logger"
	"github.com/spigell/interview-automator/internal/sheet"
)

type registry struct {
	toggle
}

// NewRegistry creates the heuristic that registers form respondents of the
// configured subsystem in the schedule and score tables.
func NewRegistry() Heuristic {
	return &registry{toggle{name: RegistryName}}
}

func (h *registry) Validate(cfg *Config) error {
	if err := requireSubsystem(cfg); err != nil {
		return err
	}
	return validThreshold("registry", cfg.Thresholds.Registry)
}

func (h *registry) Apply(ctx context.Context, cfg *Config, deps Deps) (Step, error) {
	log := deps.logger(h.Name())

	tables, err := loadTables(ctx, deps.Store, cfg.Tables.Form, cfg.Tables.Schedule, cfg.Tables.Scores)
	if err != nil {
		return Step{}, err
	}
	form, schedule, scores := tables[0], tables[1], tables[2]

	if err := requireColumns(form, cfg.Columns.Preference); err != nil {
		return Step{}, err
	}

	respondents, err := newRoster(form, cfg, "", true)
	if err != nil {
		return Step{}, err
	}
	scheduled, err := newRoster(schedule, cfg, "", true)
	if err != nil {
		return Step{}, err
	}
	scored, err := newRoster(scores, cfg, "", false)
	if err != nil {
		return Step{}, err
	}

	var step Step
	strategy := deps.strategy()
	threshold := cfg.Thresholds.Registry

	err = schedule.Update(ctx, func(scheduleTx *sheet.Tx) error {
		return scores.Update(ctx, func(scoresTx *sheet.Tx) error {
			for i := 0; i < form.Len(); i++ {
				if respondents.Blank(i) || !prefers(form.Value(i, cfg.Columns.Preference), cfg.Subsystem) {
					continue
				}
				step.Examined++

				row := respondents.Row(i)
				id := respondents.At(i)

				_, _, found := strategy.Find(id, scheduled.Candidates(nil), threshold)
				if found {
					step.Matched++
				} else {
					n, err := appendRow(scheduleTx, log, schedule,
						[2]string{cfg.Columns.Name, row.Name},
						[2]string{cfg.Columns.Registration, row.Registration},
						[2]string{cfg.Columns.Phone, row.Phone},
					)
					step.Written += n
					if err != nil {
						return err
					}
				}

				_, _, found = strategy.Find(id.WithoutPhone(), scored.Candidates(nil), threshold)
				if !found {
					n, err := appendRow(scoresTx, log, scores,
						[2]string{cfg.Columns.Name, row.Name},
						[2]string{cfg.Columns.Registration, row.Registration},
					)
					step.Written += n
					if err != nil {
						return err
					}
				}
			}
			return nil
		})
	})

	return step, err
}

// appendRow writes column/value pairs into a new row at the end of table.
func appendRow(tx *sheet.Tx, log *zap.Logger, table *sheet.Table, values ...[2]string) (int, error) {
	idx := table.Len()
	written := 0
	for _, kv := range values {
		desc, err := tx.Set(kv[0], idx, kv[1])
		if err != nil {
			return written, fmt.Errorf("append row %d: %w", idx, err)
		}
		log.Debug("cell updated", zap.String("write", desc))
		written++
	}

	log.Info("candidate registered", logger.Table(table.Name()), zap.Int("sheet_row", sheet.SheetRow(idx)), zap.String("name", values[0][1]))
	return written, nil
}
