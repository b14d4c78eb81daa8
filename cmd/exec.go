package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Short: "Run a single automator command and exit",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(commands()))
		for _, c := range commands() {
			names = append(names, c.Name)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Fail on typos before touching the sheets.
		if _, err := findCommand(args[0]); err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		logger, s := start(ctx)
		defer s.close()

		cmd.SilenceUsage = true
		err := execute(ctx, s, logger, strings.TrimSpace(args[0]))
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			logger.Debug("exec failed", zap.Error(err))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
