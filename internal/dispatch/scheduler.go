// Package dispatch notifies scheduled candidates of their interview slot and
// stamps the outcome into the schedule table.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/identity"
	"github.com/spigell/interview-automator/internal/logger"
	"github.com/spigell/interview-automator/internal/sheet"
	"github.com/spigell/interview-automator/internal/utils"
)

const (
	// TimedOutStamp replaces the interview time when every attempt failed.
	TimedOutStamp = "Message timed out"
	// RescheduleMark is written into the appeared column of timed out rows.
	RescheduleMark = "Resched"
)

// State is the dispatch state of one schedule row.
type State int

const (
	Unscheduled State = iota
	Dispatching
	Scheduled
	TimedOut
	Failed
)

func (s State) String() string {
	switch s {
	case Unscheduled:
		return "unscheduled"
	case Dispatching:
		return "dispatching"
	case Scheduled:
		return "scheduled"
	case TimedOut:
		return "timed out"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config describes one scheduling block.
type Config struct {
	Table     string
	Columns   Columns
	Subsystem string
	Template  string
	// Sender is the identity stamped next to successful notifications.
	Sender string

	Start             time.Time
	BlockDuration     time.Duration
	InterviewDuration time.Duration
	ConcurrencyLimit  int

	Retries    int
	Timeout    time.Duration
	RetryDelay time.Duration
	Delay      time.Duration

	PhoneRegion string
	// Override, when set, receives every message instead of the candidate.
	Override string
}

// Columns names the schedule columns the scheduler reads and stamps.
type Columns struct {
	Name          string
	Phone         string
	InterviewTime string
	Sender        string
	Appeared      string
}

// Validate checks the block settings.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Table) == "":
		return errors.New("schedule table is required")
	case strings.TrimSpace(c.Subsystem) == "":
		return errors.New("subsystem is required")
	case c.Start.IsZero():
		return errors.New("block start is required")
	case c.Retries <= 0:
		return fmt.Errorf("retries must be positive, got %d", c.Retries)
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// Result is the outcome for one eligible schedule row.
type Result struct {
	Row       int
	Name      string
	Recipient string
	State     State
	Slot      time.Time
	Attempts  int
	Err       error
}

// Scheduler assigns slots to unscheduled candidates and notifies them.
type Scheduler struct {
	cfg    Config
	sender Sender
	logger *zap.Logger
}

// New creates a scheduler sending through sender.
func New(cfg Config, sender Sender, log *zap.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Scheduler{cfg: cfg, sender: sender, logger: log}, nil
}

// Run walks the schedule table once. Rows with an interview time or an
// appearance mark are skipped. Results are returned for every other row,
// including those left unscheduled because the block ran out of slots.
func (s *Scheduler) Run(ctx context.Context, store sheet.Store) ([]Result, error) {
	planner, err := NewPlanner(s.cfg.Start, s.cfg.BlockDuration, s.cfg.InterviewDuration, s.cfg.ConcurrencyLimit)
	if err != nil {
		return nil, err
	}

	table, err := sheet.Load(ctx, store, s.cfg.Table)
	if err != nil {
		return nil, err
	}

	cols := s.cfg.Columns
	for _, column := range []string{cols.Name, cols.Phone, cols.InterviewTime, cols.Sender, cols.Appeared} {
		if _, err := table.ColumnIndex(column); err != nil {
			return nil, err
		}
	}

	log := logger.WithFields(s.logger, logger.Table(table.Name()))
	log.Info("scheduling block",
		zap.Time("start", s.cfg.Start),
		zap.Int("slots", planner.Budget()),
		zap.Int("concurrency_limit", s.cfg.ConcurrencyLimit),
	)

	var results []Result
	exhausted := false

	err = table.Update(ctx, func(tx *sheet.Tx) error {
		for i := 0; i < table.Len(); i++ {
			if table.Value(i, cols.InterviewTime) != "" || strings.EqualFold(table.Value(i, cols.Appeared), "yes") {
				continue
			}
			if table.Value(i, cols.Name) == "" && table.Value(i, cols.Phone) == "" {
				continue
			}

			res := Result{Row: i, Name: table.Value(i, cols.Name), State: Unscheduled}
			if exhausted || ctx.Err() != nil {
				results = append(results, res)
				continue
			}

			slot, ok := planner.Reserve()
			if !ok {
				log.Info("slot budget exhausted", logger.Row("row", sheet.SheetRow(i)))
				exhausted = true
				results = append(results, res)
				continue
			}

			res, err := s.dispatch(ctx, tx, log, res, table.Value(i, cols.Phone), slot)
			results = append(results, res)
			if err != nil {
				return err
			}

			if res.State == Scheduled {
				planner.Commit()
				if err := utils.WaitFor(ctx, s.cfg.Delay); err != nil {
					log.Info("scheduling interrupted", zap.Error(err))
				}
			}
		}
		return nil
	})
	if err != nil {
		return results, err
	}

	return results, ctx.Err()
}

func (s *Scheduler) dispatch(ctx context.Context, tx *sheet.Tx, log *zap.Logger, res Result, phone string, slot time.Time) (Result, error) {
	log = log.With(zap.String("name", res.Name), logger.Row("row", sheet.SheetRow(res.Row)))

	recipient, err := identity.ParsePhone(phone, s.cfg.PhoneRegion)
	if err == nil && recipient == "" {
		err = errors.New("phone number is missing")
	}
	if err != nil {
		log.Warn("candidate cannot be notified", zap.Error(err))
		res.State, res.Err = Failed, err
		return res, nil
	}
	if s.cfg.Override != "" {
		recipient = s.cfg.Override
	}

	res.Recipient = recipient
	res.Slot = slot
	res.State = Dispatching

	text := Render(s.cfg.Template, Message{Name: res.Name, Time: slot, Subsystem: s.cfg.Subsystem})
	log.Debug("message rendered", zap.String("recipient", recipient), zap.String("text", utils.TruncateForLog(text, 80)))

	res.Attempts, res.Err = s.deliver(ctx, log, recipient, text)
	cols := s.cfg.Columns

	switch {
	case res.Err == nil:
		res.State = Scheduled
		if _, err := tx.Set(cols.InterviewTime, res.Row, slot.Format(TimeLayout)); err != nil {
			return res, err
		}
		if _, err := tx.Set(cols.Sender, res.Row, s.cfg.Sender); err != nil {
			return res, err
		}
		log.Info("candidate notified", zap.String("slot", slot.Format(TimeLayout)), zap.Int("attempts", res.Attempts))
	case errors.Is(res.Err, ErrUndeliverable):
		res.State = Failed
		log.Warn("message rejected by channel", zap.Error(res.Err))
	case ctx.Err() != nil:
		res.State = Unscheduled
	default:
		res.State = TimedOut
		if _, err := tx.Set(cols.InterviewTime, res.Row, TimedOutStamp); err != nil {
			return res, err
		}
		if _, err := tx.Set(cols.Appeared, res.Row, RescheduleMark); err != nil {
			return res, err
		}
		log.Warn("notification timed out", zap.Int("attempts", res.Attempts), zap.Error(res.Err))
	}

	return res, nil
}

// deliver tries up to Retries attempts and stops at the first attempt that
// returns without timing out, unless it returned an ordinary error.
func (s *Scheduler) deliver(ctx context.Context, log *zap.Logger, recipient, text string) (int, error) {
	var err error
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		err = Attempt(ctx, s.sender, s.cfg.Timeout, recipient, text)
		switch {
		case err == nil:
			return attempt, nil
		case errors.Is(err, ErrUndeliverable):
			return attempt, err
		case ctx.Err() != nil:
			return attempt, ctx.Err()
		}

		log.Warn("delivery attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt < s.cfg.Retries {
			if werr := utils.WaitFor(ctx, s.cfg.RetryDelay); werr != nil {
				return attempt, werr
			}
		}
	}

	return s.cfg.Retries, err
}
