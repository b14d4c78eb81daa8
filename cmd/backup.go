package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/backend/sqlite"
	"github.com/spigell/interview-automator/internal/logger"
	"github.com/spigell/interview-automator/internal/sheet"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy every configured table into the local sqlite file",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		// The backup always reads from the sheets.
		config.Backend = "sheets"
		config.DryRun = false

		s, err := newSession(ctx, config, logger, cmd.OutOrStdout())
		if err != nil {
			logger.Fatal("opening the sheets", zap.Error(err))
		}
		defer s.close()

		db, err := sqlite.Open(config.SQLite.Path)
		if err != nil {
			logger.Fatal("opening the backup file", zap.Error(err))
		}
		defer db.Close()

		if err := backup(ctx, s.store, db, logger, backupTables(config)...); err != nil {
			logger.Fatal("backup failed", zap.Error(err))
		}

		logger.Info("backup finished", zap.String("path", config.SQLite.Path))
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func backupTables(config *Config) []string {
	var tables []string
	for _, t := range []string{config.Tables.Form, config.Tables.Schedule, config.Tables.Scores, config.Tables.Legacy} {
		if t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

// mirror is the part of the sqlite store the backup writes through.
type mirror interface {
	Mirror(ctx context.Context, table string, rows [][]string) error
}

func backup(ctx context.Context, from sheet.Store, to mirror, logger *zap.Logger, tables ...string) error {
	for _, table := range tables {
		rows, err := from.ReadTable(ctx, table)
		if err != nil {
			return err
		}

		if err := to.Mirror(ctx, table, rows); err != nil {
			return err
		}

		logger.Info("table mirrored", zap.String("table", table), zap.Int("rows", len(rows)))
	}
	return nil
}
