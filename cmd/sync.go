package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy jobs and candidates from the configured source into a local SQLite database",
	Run: func(cmd *cobra.Command, _ []string) {
		runSync(cmd)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().String("to", "", "path of the SQLite database to write")
	syncCmd.MarkFlagRequired("to")
}

func runSync(cmd *cobra.Command) {
	ctx := context.Background()
	log, config := setup()

	source, err := openSource(ctx, config.Source, log)
	if err != nil {
		log.Fatal("opening the source", zap.Error(err))
	}
	defer source.Close()

	to, _ := cmd.Flags().GetString("to")
	db, err := store.OpenSQLite(ctx, to, log.With(zap.String("source", store.TypeSQLite)))
	if err != nil {
		log.Fatal("opening the sqlite database", zap.Error(err))
	}
	defer db.Close()

	jobs, candidates, err := db.Import(ctx, source)
	if err != nil {
		log.Fatal("syncing records", zap.Error(err))
	}

	log.Info("synced records",
		zap.String("to", to),
		zap.Int("jobs", jobs),
		zap.Int("candidates", candidates),
	)
}
