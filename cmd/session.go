package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/backend/gsheets"
	"github.com/spigell/interview-automator/internal/backend/memory"
	"github.com/spigell/interview-automator/internal/backend/sqlite"
	"github.com/spigell/interview-automator/internal/dispatch"
	"github.com/spigell/interview-automator/internal/identity"
	"github.com/spigell/interview-automator/internal/reconcile"
	"github.com/spigell/interview-automator/internal/secrets"
	"github.com/spigell/interview-automator/internal/sheet"
	"github.com/spigell/interview-automator/internal/utils"
	"github.com/spigell/interview-automator/internal/whatsapp"
)

// startLayout is how the block start is typed in the config or the prompt.
const startLayout = "2006-01-02 15:04"

// session carries what the interactive commands share.
type session struct {
	config  *Config
	logger  *zap.Logger
	out     io.Writer
	store   sheet.Store
	overlay *memory.Store

	sender  dispatch.Sender
	closers []func() error
}

func newSession(ctx context.Context, config *Config, logger *zap.Logger, out io.Writer) (*session, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	s := &session{config: config, logger: logger, out: out}

	store, err := s.openStore(ctx)
	if err != nil {
		return nil, err
	}
	s.store = store

	if config.DryRun {
		s.overlay = memory.NewOverlay(store)
		s.store = s.overlay
		logger.Warn("dry run: writes are kept in memory and printed")
	}

	return s, nil
}

func (s *session) openStore(ctx context.Context) (sheet.Store, error) {
	switch strings.ToLower(strings.TrimSpace(s.config.Backend)) {
	case "", "sheets":
		return s.openSheets(ctx)
	case "sqlite":
		db, err := sqlite.Open(s.config.SQLite.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", s.config.Backend)
	}
}

func (s *session) openSheets(ctx context.Context) (*gsheets.Client, error) {
	cfg := s.config.Sheets
	if cfg == nil {
		return nil, errors.New("sheets configuration is required for the sheets backend")
	}

	creds, err := secrets.Load(secrets.Source{
		Name: "service account credentials",
		File: cfg.CredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set sheets.credentials-file or GOOGLE_APPLICATION_CREDENTIALS)", err)
	}

	return gsheets.New(ctx, s.logger, []byte(creds), s.documents())
}

// documents maps every table to the spreadsheet that holds it.
func (s *session) documents() map[string]string {
	cfg := s.config.Sheets
	docs := make(map[string]string, 4)
	add := func(table, ref string) {
		if id := gsheets.SpreadsheetID(ref); table != "" && id != "" {
			docs[table] = id
		}
	}

	add(s.config.Tables.Form, cfg.Form)
	add(s.config.Tables.Schedule, cfg.Interviews)
	add(s.config.Tables.Scores, cfg.Interviews)
	add(s.config.Tables.Legacy, cfg.Legacy)
	return docs
}

func (s *session) close() {
	if c, ok := s.sender.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("closing sender", zap.Error(err))
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("closing store", zap.Error(err))
		}
	}
}

// reconcile runs the named heuristics in the given order.
func (s *session) reconcile(ctx context.Context, logger *zap.Logger, names ...string) error {
	steps := make([]reconcile.Heuristic, 0, len(names))
	for _, name := range names {
		h, err := reconcile.ByName(name)
		if err != nil {
			return err
		}
		steps = append(steps, h)
	}

	strategy, err := identity.StrategyByName(s.matchingStrategy())
	if err != nil {
		return err
	}

	reports, err := reconcile.Run(ctx, s.config.reconcileConfig(), reconcile.Deps{
		Store:    s.store,
		Logger:   logger,
		Strategy: strategy,
	}, steps)

	if rerr := renderSteps(s.out, reports); rerr != nil {
		logger.Warn("rendering summary", zap.Error(rerr))
	}
	s.printChanges(logger)

	return err
}

func (s *session) matchingStrategy() string {
	if s.config.Matching == nil {
		return ""
	}
	return s.config.Matching.Strategy
}

// schedule notifies unscheduled candidates in the configured block.
func (s *session) schedule(ctx context.Context, logger *zap.Logger) error {
	cfg, err := s.dispatchConfig()
	if err != nil {
		return err
	}

	sender, err := s.messageSender(ctx, logger)
	if err != nil {
		return err
	}

	scheduler, err := dispatch.New(cfg, sender, logger)
	if err != nil {
		return err
	}

	results, err := scheduler.Run(ctx, s.store)

	if rerr := renderResults(s.out, results); rerr != nil {
		logger.Warn("rendering summary", zap.Error(rerr))
	}
	s.printChanges(logger)

	return err
}

func (s *session) dispatchConfig() (dispatch.Config, error) {
	c := s.config
	if c.Messaging == nil || c.Schedule == nil {
		return dispatch.Config{}, errors.New("messaging and schedule configuration are required")
	}

	start, err := s.blockStart()
	if err != nil {
		return dispatch.Config{}, err
	}

	template := c.Messaging.Template
	if c.Messaging.TemplateFile != "" {
		template, err = secrets.Load(secrets.Source{Name: "message template", File: c.Messaging.TemplateFile})
		if err != nil {
			return dispatch.Config{}, err
		}
	}

	override, _, err := s.safety()
	if err != nil {
		return dispatch.Config{}, err
	}

	return dispatch.Config{
		Table: c.Tables.Schedule,
		Columns: dispatch.Columns{
			Name:          c.Columns.Name,
			Phone:         c.Columns.Phone,
			InterviewTime: c.Columns.InterviewTime,
			Sender:        c.Columns.Sender,
			Appeared:      c.Columns.Appeared,
		},
		Subsystem:         c.Subsystem,
		Template:          template,
		Sender:            c.Messaging.Sender,
		Start:             start,
		BlockDuration:     c.Schedule.BlockDuration,
		InterviewDuration: c.Schedule.InterviewDuration,
		ConcurrencyLimit:  c.Schedule.ConcurrencyLimit,
		Retries:           c.Messaging.Retries,
		Timeout:           c.Messaging.Timeout,
		RetryDelay:        c.Messaging.RetryDelay,
		Delay:             c.Messaging.Delay,
		PhoneRegion:       c.PhoneRegion,
		Override:          override,
	}, nil
}

// blockStart takes the start from the config or asks for it.
func (s *session) blockStart() (time.Time, error) {
	raw := strings.TrimSpace(s.config.Schedule.Start)
	if raw == "" {
		prompt := promptui.Prompt{
			Label: "Block start (" + startLayout + ")",
			Validate: func(input string) error {
				_, err := time.ParseInLocation(startLayout, strings.TrimSpace(input), time.Local)
				return err
			},
		}

		input, err := prompt.Run()
		if err != nil {
			return time.Time{}, err
		}
		raw = strings.TrimSpace(input)
	}

	start, err := time.ParseInLocation(startLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse block start %q: %w", raw, err)
	}
	return start, nil
}

// safety returns the number every message is redirected to, if enabled, and
// the browser profile name.
func (s *session) safety() (string, string, error) {
	return resolveSafety(s.config)
}

func resolveSafety(config *Config) (string, string, error) {
	cfg := config.Safety
	if cfg == nil || (cfg.File == "" && cfg.Name == "" && !cfg.Enabled) {
		return "", "default", nil
	}

	file := strings.TrimSpace(cfg.File)
	if file != "" && cfg.Name != "" {
		// A missing file is fine when the identity is configured inline.
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			file = ""
		}
	}

	safety, err := secrets.LoadSafety(file, cfg.Number, cfg.Name)
	if err != nil {
		return "", "", err
	}

	if !cfg.Enabled {
		return "", safety.Name, nil
	}

	number, err := identity.ParsePhone(safety.Number, config.PhoneRegion)
	if err != nil {
		return "", "", fmt.Errorf("safety number: %w", err)
	}
	if number == "" {
		return "", "", errors.New("safety is enabled but no safety number is configured")
	}

	return number, safety.Name, nil
}

// messageSender starts the configured sender once per session.
func (s *session) messageSender(ctx context.Context, logger *zap.Logger) (dispatch.Sender, error) {
	if s.sender != nil {
		return s.sender, nil
	}

	if s.config.DryRun {
		s.sender = &dryRunSender{logger: logger}
		return s.sender, nil
	}

	if s.config.Messaging.InProcess {
		opts, err := browserOptions(s.config)
		if err != nil {
			return nil, err
		}
		browser, err := whatsapp.NewBrowser(ctx, logger, opts)
		if err != nil {
			return nil, err
		}
		s.sender = browser
		return browser, nil
	}

	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}

	args := []string{sendCmd.Name()}
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	if debug, _ := rootCmd.PersistentFlags().GetBool("debug"); debug {
		args = append(args, "--debug")
	}

	s.sender = whatsapp.NewProcess(logger, executable, args...)
	return s.sender, nil
}

// dryRunSender logs every message instead of sending it.
type dryRunSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []string
}

func (d *dryRunSender) Send(_ context.Context, recipient, text string) error {
	d.mu.Lock()
	d.sent = append(d.sent, recipient)
	d.mu.Unlock()

	d.logger.Info("dry run: message not sent",
		zap.String("recipient", recipient),
		zap.String("text", utils.TruncateForLog(text, 80)),
	)
	return nil
}

func (d *dryRunSender) recipients() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sent...)
}

func browserOptions(config *Config) (whatsapp.BrowserOptions, error) {
	_, profile, err := resolveSafety(config)
	if err != nil {
		return whatsapp.BrowserOptions{}, err
	}

	opts := whatsapp.BrowserOptions{Profile: profile}
	if config.Browser != nil {
		opts.DataDir = config.Browser.DataDir
		opts.Headless = config.Browser.Headless
		opts.LoadTimeout = config.Browser.LoadTimeout
	}
	return opts, nil
}

// printChanges lists the writes a dry run kept in memory.
func (s *session) printChanges(logger *zap.Logger) {
	if s.overlay == nil {
		return
	}
	if err := renderChanges(s.out, s.overlay); err != nil {
		logger.Warn("rendering changes", zap.Error(err))
	}
}
