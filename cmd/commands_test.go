package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/backend/memory"
	"github.com/spigell/interview-automator/internal/backend/sqlite"
	"github.com/spigell/interview-automator/internal/dispatch"
	"github.com/spigell/interview-automator/internal/reconcile"
	"github.com/spigell/interview-automator/internal/sheet"
)

func TestHelpText(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, printHelp(&out))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "help", out.Bytes())
}

func TestFindCommand(t *testing.T) {
	t.Parallel()

	c, err := findCommand("  SYNC_ALL ")
	require.NoError(t, err)
	assert.Equal(t, CommandSyncAll, c.Name)

	_, err = findCommand("list_notified")
	assert.Error(t, err)
}

func TestDecodeConfig(t *testing.T) {
	t.Parallel()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
subsystem: Dev
backend: sqlite
columns:
  name: Name
thresholds:
  registry: 0.75
messaging:
  retries: 5
  timeout: 90s
schedule:
  start: "2024-08-12 10:00"
  interview-duration: 20m
`)))

	config, err := decodeConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "Dev", config.Subsystem)
	assert.Equal(t, "sqlite", config.Backend)
	assert.Equal(t, "Name", config.Columns.Name)
	assert.Equal(t, "Registration No.", config.Columns.Registration)
	assert.Equal(t, "Registration No. ", config.Columns.LegacyRegistration)
	assert.InDelta(t, 0.75, config.Thresholds.Registry, 1e-9)
	assert.InDelta(t, 0.90, config.Thresholds.NoShows, 1e-9)
	assert.Equal(t, 5, config.Messaging.Retries)
	assert.Equal(t, 90*time.Second, config.Messaging.Timeout)
	assert.Equal(t, 20*time.Minute, config.Schedule.InterviewDuration)
	assert.Equal(t, 2, config.Schedule.ConcurrencyLimit)
	assert.Equal(t, "Interview Schedules", config.Tables.Schedule)

	rc := config.reconcileConfig()
	assert.Equal(t, "Notified_Dev", rc.Notified())
}

func TestResolveSafety(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, ".safety")
	require.NoError(t, os.WriteFile(file, []byte("98123 45678\ntester\n"), 0o600))

	number, profile, err := resolveSafety(&Config{
		PhoneRegion: "IN",
		Safety:      &SafetyConfig{Enabled: true, File: file},
	})
	require.NoError(t, err)
	assert.Equal(t, "919812345678", number)
	assert.Equal(t, "tester", profile)

	number, profile, err = resolveSafety(&Config{
		Safety: &SafetyConfig{File: filepath.Join(dir, "missing"), Name: "prod"},
	})
	require.NoError(t, err)
	assert.Empty(t, number)
	assert.Equal(t, "prod", profile)

	_, _, err = resolveSafety(&Config{
		Safety: &SafetyConfig{Enabled: true, Name: "tester"},
	})
	assert.Error(t, err, "an enabled safety needs a number")

	number, profile, err = resolveSafety(&Config{})
	require.NoError(t, err)
	assert.Empty(t, number)
	assert.Equal(t, "default", profile)
}

func testSession(t *testing.T, store sheet.Store, dryRun bool) (*session, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	defaults := reconcile.DefaultConfig("Dev")
	s := &session{
		config: &Config{
			Subsystem:   "Dev",
			DryRun:      dryRun,
			PhoneRegion: "IN",
			Tables:      defaults.Tables,
			Columns:     defaults.Columns,
			Thresholds:  defaults.Thresholds,
		},
		logger: zap.NewNop(),
		out:    &out,
		store:  store,
	}
	if dryRun {
		s.overlay = memory.NewOverlay(store)
		s.store = s.overlay
	}
	return s, &out
}

func scoresFixture() *memory.Store {
	return memory.New(map[string][][]string{
		"Interview Scores": {
			{"Full Name", "Registration No.", "Overall", "Interviewers", "Remarks"},
			{"Ravi Kumar", "21EC045", "0", "", ""},
			{"Ravi Kumar", "21EC045", "8.0", "Dr. Y", ""},
		},
	})
}

func TestExecuteDryRunKeepsStoreUntouched(t *testing.T) {
	t.Parallel()

	base := scoresFixture()
	s, out := testSession(t, base, true)

	require.NoError(t, execute(context.Background(), s, zap.NewNop(), reconcile.DuplicatesName))

	assert.Zero(t, base.Batches())
	assert.Contains(t, out.String(), reconcile.DuplicatesName)
	assert.Contains(t, out.String(), "C2")
	assert.Contains(t, out.String(), "8.0")
}

func TestScheduleDryRunSendsNothing(t *testing.T) {
	t.Parallel()

	base := memory.New(map[string][][]string{
		"Interview Schedules": {
			{"Full Name", "Registration No.", "WhatsApp Number", "Interview Date/Time", "WS Sender", "Appeared"},
			{"Asha Rao", "21CS001", "98123 45678", "", "", ""},
		},
	})
	s, out := testSession(t, base, true)
	s.config.Messaging = &MessagingConfig{Retries: 1, Timeout: time.Second, Sender: "Kiran"}
	s.config.Schedule = &ScheduleConfig{
		Start:             "2024-08-12 10:00",
		BlockDuration:     time.Hour,
		InterviewDuration: 15 * time.Minute,
		ConcurrencyLimit:  2,
	}

	require.NoError(t, execute(context.Background(), s, zap.NewNop(), CommandSchedule))

	sender, ok := s.sender.(*dryRunSender)
	require.True(t, ok, "a dry run must not start the whatsapp worker, got %T", s.sender)
	assert.Equal(t, []string{"919812345678"}, sender.recipients())

	assert.Zero(t, base.Batches())
	assert.Contains(t, out.String(), "12/08/2024, 10:00 AM")
	assert.Contains(t, out.String(), "Kiran")
}

func TestExecuteReportsFailures(t *testing.T) {
	t.Parallel()

	s, _ := testSession(t, memory.New(nil), false)

	err := execute(context.Background(), s, zap.NewNop(), "sync_appearances")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sheet.ErrTableNotFound))

	err = execute(context.Background(), s, zap.NewNop(), "exit")
	assert.ErrorIs(t, err, errExit)

	err = execute(context.Background(), s, zap.NewNop(), "unknown thing")
	assert.Error(t, err)
}

func TestBackupMirrorsTables(t *testing.T) {
	t.Parallel()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "backup.db"))
	require.NoError(t, err)
	defer db.Close()

	source := scoresFixture()
	require.NoError(t, backup(context.Background(), source, db, zap.NewNop(), "Interview Scores"))

	rows, err := db.ReadTable(context.Background(), "Interview Scores")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "8.0", rows[2][2])

	err = backup(context.Background(), source, db, zap.NewNop(), "Interview Schedules")
	assert.ErrorIs(t, err, sheet.ErrTableNotFound)
}

func TestRenderResults(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := renderResults(&out, []dispatch.Result{
		{Row: 0, Name: "Asha Rao", State: dispatch.Scheduled, Slot: time.Date(2024, 8, 12, 10, 0, 0, 0, time.UTC), Attempts: 1},
		{Row: 1, Name: "Ravi Kumar", State: dispatch.TimedOut, Attempts: 3, Err: dispatch.ErrAttemptTimeout},
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Asha Rao")
	assert.Contains(t, out.String(), "12/08/2024, 10:00 AM")
	assert.Contains(t, out.String(), "timed out")
}
