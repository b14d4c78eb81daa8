package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/logger"
	"github.com/spigell/interview-automator/internal/whatsapp"
)

// sendCmd is the worker the scheduler spawns. It reads one JSON request per
// line on stdin and answers on stdout, so it must never log to stdout.
var sendCmd = &cobra.Command{
	Use:    "send",
	Short:  "Serve WhatsApp send requests on stdin",
	Hidden: true,
	Run: func(cmd *cobra.Command, _ []string) {
		logger, err := logger.NewWithOutput(viper.GetBool("json"), viper.GetBool("debug"), "stderr")
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		opts, err := browserOptions(config)
		if err != nil {
			logger.Fatal("resolving browser profile", zap.Error(err))
		}

		ctx := cmd.Context()
		browser, err := whatsapp.NewBrowser(ctx, logger, opts)
		if err != nil {
			logger.Fatal("starting the browser", zap.Error(err))
		}
		defer browser.Close()

		if err := whatsapp.Serve(ctx, os.Stdin, os.Stdout, browser); err != nil {
			logger.Error("serving send requests", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
