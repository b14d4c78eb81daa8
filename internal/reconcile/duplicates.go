package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/identity"
	"github.com/spigell/interview-automator/internal/sheet"
)

// DuplicateMark is the remark left on a score row superseded by another row
// of the same candidate.
const DuplicateMark = "duplicate"

type duplicates struct {
	toggle
}

// NewDuplicates creates the heuristic that reconciles score rows recorded
// twice for the same candidate. Conflicting scores are only reported.
func NewDuplicates() Heuristic {
	return &duplicates{toggle{name: DuplicatesName}}
}

func (h *duplicates) Validate(cfg *Config) error {
	return validThreshold("duplicates", cfg.Thresholds.Duplicates)
}

func (h *duplicates) Apply(ctx context.Context, cfg *Config, deps Deps) (Step, error) {
	log := deps.logger(h.Name())

	scores, err := sheet.Load(ctx, deps.Store, cfg.Tables.Scores)
	if err != nil {
		return Step{}, err
	}

	overall, remarks := cfg.Columns.Overall, cfg.Columns.Remarks
	if err := requireColumns(scores, overall, remarks); err != nil {
		return Step{}, err
	}

	scored, err := newRoster(scores, cfg, "", false)
	if err != nil {
		return Step{}, err
	}

	var step Step

	err = scores.Update(ctx, func(tx *sheet.Tx) error {
		set := func(column string, row int, value string) error {
			desc, err := tx.Set(column, row, value)
			if err != nil {
				return err
			}
			step.Written++
			log.Info("score row updated", zap.String("write", desc))
			return nil
		}

		for j := 0; j < scores.Len(); j++ {
			if scored.Blank(j) {
				continue
			}
			step.Examined++

			for i := 0; i < j; i++ {
				if scored.Blank(i) {
					continue
				}

				m := identity.Compare(scored.At(i), scored.At(j))
				if m.Normalized() <= cfg.Thresholds.Duplicates {
					continue
				}
				step.Matched++

				a, b := scores.Value(i, overall), scores.Value(j, overall)
				zeroA, zeroB := isZero(a), isZero(b)

				switch {
				case !zeroA && !zeroB && sameScore(a, b):
				case !zeroA && !zeroB:
					step.Conflicts++
					log.Warn("conflicting duplicate scores",
						zap.String("name", scored.Row(j).Name),
						zap.Int("row_a", sheet.SheetRow(i)),
						zap.String("score_a", a),
						zap.Int("row_b", sheet.SheetRow(j)),
						zap.String("score_b", b),
					)
				case zeroA && zeroB:
					if hasRemark(scores.Value(i, remarks), DuplicateMark) || hasRemark(scores.Value(j, remarks), DuplicateMark) {
						continue
					}
					if err := set(remarks, j, appendRemark(scores.Value(j, remarks), DuplicateMark)); err != nil {
						return err
					}
				default:
					from, to := i, j
					if zeroA {
						from, to = j, i
					}
					if err := set(overall, to, scores.Value(from, overall)); err != nil {
						return err
					}
					if hasRemark(scores.Value(to, remarks), DuplicateMark) {
						continue
					}
					if err := set(remarks, to, appendRemark(scores.Value(to, remarks), DuplicateMark)); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})

	return step, err
}
