package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/reconcile"
)

var errExit = errors.New("exit requested")

const (
	CommandSyncAll  = "sync_all"
	CommandSchedule = "schedule"
	CommandHelp     = "help"
	CommandExit     = "exit"
)

// command is one entry of the interactive command surface.
type command struct {
	Name  string
	Usage string
	run   func(ctx context.Context, s *session, logger *zap.Logger) error
}

func heuristic(name string) func(context.Context, *session, *zap.Logger) error {
	return func(ctx context.Context, s *session, logger *zap.Logger) error {
		return s.reconcile(ctx, logger, name)
	}
}

func commands() []command {
	return []command{
		{
			Name:  reconcile.RegistryName,
			Usage: "register form respondents of the subsystem in the schedule and score sheets",
			run:   heuristic(reconcile.RegistryName),
		},
		{
			Name:  reconcile.NotifiedName,
			Usage: "copy notification times sent by the old automator into the schedule",
			run:   heuristic(reconcile.NotifiedName),
		},
		{
			Name:  reconcile.DuplicatesName,
			Usage: "merge duplicated score rows and report conflicting scores",
			run:   heuristic(reconcile.DuplicatesName),
		},
		{
			Name:  reconcile.AppearancesName,
			Usage: "mark evaluated candidates as appeared in the schedule",
			run:   heuristic(reconcile.AppearancesName),
		},
		{
			Name:  reconcile.NoShowsName,
			Usage: "copy no-show remarks from the schedule to the score sheet",
			run:   heuristic(reconcile.NoShowsName),
		},
		{
			Name:  CommandSyncAll,
			Usage: "run every sync above in order",
			run: func(ctx context.Context, s *session, logger *zap.Logger) error {
				return s.reconcile(ctx, logger,
					reconcile.RegistryName,
					reconcile.NotifiedName,
					reconcile.DuplicatesName,
					reconcile.AppearancesName,
					reconcile.NoShowsName,
				)
			},
		},
		{
			Name:  CommandSchedule,
			Usage: "assign interview slots and notify unscheduled candidates on WhatsApp",
			run: func(ctx context.Context, s *session, logger *zap.Logger) error {
				return s.schedule(ctx, logger)
			},
		},
		{
			Name:  CommandHelp,
			Usage: "show this help",
			run: func(_ context.Context, s *session, _ *zap.Logger) error {
				return printHelp(s.out)
			},
		},
		{
			Name:  CommandExit,
			Usage: "leave the automator",
			run: func(context.Context, *session, *zap.Logger) error {
				return errExit
			},
		},
	}
}

func findCommand(name string) (command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range commands() {
		if c.Name == name {
			return c, nil
		}
	}
	return command{}, fmt.Errorf("unknown command %q, type `help` for the list", name)
}

func printBanner(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Welcome to the interview automator (%s).\nTo read more about the commands, type in `help`.\n", version)
	return err
}

func printHelp(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Commands\n--------\n")
	for _, c := range commands() {
		fmt.Fprintf(&b, " %-24s %s\n", "`"+c.Name+"`", c.Usage)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
