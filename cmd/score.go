package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/matching"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a candidate against a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("job", "", "job posting id")
	scoreCmd.Flags().String("candidate", "", "candidate profile id")
	scoreCmd.MarkFlagRequired("job")
	scoreCmd.MarkFlagRequired("candidate")
}

func score(cmd *cobra.Command) {
	ctx := context.Background()
	log, config := setup()

	jobID, _ := cmd.Flags().GetString("job")
	candidateID, _ := cmd.Flags().GetString("candidate")
	log = log.With(logger.MatchFields(jobID, candidateID)...)

	source, err := openSource(ctx, config.Source, log)
	if err != nil {
		log.Fatal("opening the source", zap.Error(err))
	}
	defer source.Close()

	job, err := source.Job(ctx, jobID)
	if err != nil {
		log.Fatal("getting the job", zap.Error(err))
	}

	candidate, err := source.Candidate(ctx, candidateID)
	if err != nil {
		log.Fatal("getting the candidate", zap.Error(err))
	}

	result := matching.Score(job, candidate)
	log.Debug("scored",
		zap.Int("skills_match", result.SkillsMatch),
		zap.Int("experience_match", result.ExperienceMatch),
		zap.Int("match_score", result.Overall),
	)

	if err := printJSON(result.Response()); err != nil {
		log.Fatal("printing the result", zap.Error(err))
	}
}
