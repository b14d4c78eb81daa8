package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/logger"
	"github.com/spigell/interview-automator/internal/utils"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive automator",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// run is the interactive loop of the cli.
func run(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, s := start(ctx)
	defer s.close()

	if err := printBanner(os.Stdout); err != nil {
		logger.Fatal("printing banner", zap.Error(err))
	}

	input := promptui.Prompt{Label: ">>"}
	for {
		line, err := input.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				logger.Info("exiting", zap.String("reason", "input closed"))
				return
			}
			logger.Fatal("reading command", zap.Error(err))
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		err = execute(ctx, s, logger, line)
		if err == nil {
			continue
		}
		if errors.Is(err, errExit) {
			logger.Info("exiting", zap.String("reason", "exit requested"))
			return
		}

		if !confirm("Continue") {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}
}

// start builds the logger and the session shared by run and exec.
func start(ctx context.Context) (*zap.Logger, *session) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the interview-automator",
		zap.String("version", version),
		zap.String("subsystem", config.Subsystem),
		zap.String("backend", config.Backend),
		zap.Bool("dry_run", config.DryRun),
	)

	s, err := newSession(ctx, config, logger, os.Stdout)
	if err != nil {
		logger.Fatal("opening the sheets", zap.Error(err))
	}

	return logger, s
}

// execute runs one command line. Failures and panics are logged with their
// details and returned; only exit ends the loop on its own.
func execute(ctx context.Context, s *session, base *zap.Logger, line string) (err error) {
	name := strings.Fields(line)[0]
	log := logger.WithRun(base, utils.NewRunID(), name)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s panicked: %v", name, r)
			log.Error("command failed", zap.Error(err), zap.ByteString("stack", debug.Stack()))
		}
	}()

	c, err := findCommand(name)
	if err != nil {
		log.Error("command failed", zap.Error(err))
		return err
	}

	if err := c.run(ctx, s, log); err != nil {
		if !errors.Is(err, errExit) {
			log.Error("command failed", zap.Error(err))
		}
		return err
	}

	log.Debug("command finished")
	return nil
}

func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}
