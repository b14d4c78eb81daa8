package reconcile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/sheet"
)

type noShows struct {
	toggle
}

// NewNoShows creates the heuristic that copies no-show remarks from the
// schedule onto the matching score rows.
func NewNoShows() Heuristic {
	return &noShows{toggle{name: NoShowsName}}
}

func (h *noShows) Validate(cfg *Config) error {
	return validThreshold("no-shows", cfg.Thresholds.NoShows)
}

func (h *noShows) Apply(ctx context.Context, cfg *Config, deps Deps) (Step, error) {
	log := deps.logger(h.Name())

	tables, err := loadTables(ctx, deps.Store, cfg.Tables.Schedule, cfg.Tables.Scores)
	if err != nil {
		return Step{}, err
	}
	schedule, scores := tables[0], tables[1]

	remarks := cfg.Columns.Remarks
	if err := requireColumns(schedule, remarks); err != nil {
		return Step{}, err
	}
	if err := requireColumns(scores, remarks); err != nil {
		return Step{}, err
	}

	scheduled, err := newRoster(schedule, cfg, "", false)
	if err != nil {
		return Step{}, err
	}
	scored, err := newRoster(scores, cfg, "", false)
	if err != nil {
		return Step{}, err
	}

	var step Step
	strategy := deps.strategy()

	err = scores.Update(ctx, func(tx *sheet.Tx) error {
		for i := 0; i < schedule.Len(); i++ {
			if scheduled.Blank(i) {
				continue
			}

			remark, ok := noShow(schedule.Value(i, remarks))
			if !ok {
				continue
			}
			step.Examined++

			m, _, found := strategy.Find(scheduled.At(i), scored.Candidates(nil), cfg.Thresholds.NoShows)
			if !found {
				continue
			}
			step.Matched++

			current := scores.Value(m, remarks)
			if hasRemark(current, remark) || strings.EqualFold(current, schedule.Value(i, remarks)) {
				continue
			}

			desc, err := tx.Set(remarks, m, appendRemark(current, schedule.Value(i, remarks)))
			if err != nil {
				return err
			}
			step.Written++
			log.Info("no-show copied", zap.String("name", scheduled.Row(i).Name), zap.String("write", desc))
		}
		return nil
	})

	return step, err
}

// noShowRemarks are the schedule remarks copied onto the score table.
var noShowRemarks = []string{"no show", "no show, no reply"}

func noShow(remark string) (string, bool) {
	for _, r := range noShowRemarks {
		if strings.EqualFold(strings.TrimSpace(remark), r) {
			return r, true
		}
	}
	return "", false
}
