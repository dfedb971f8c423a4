package cmd

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/ai"
	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/matching"
	"github.com/spigell/match-scorer/internal/store"
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Score a candidate against a job posting and explain the result",
	Run: func(cmd *cobra.Command, _ []string) {
		explain(cmd)
	},
}

type explainOutput struct {
	matching.Response
	Explanation *ai.Explanation `json:"explanation"`
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().String("job", "", "job posting id (chosen interactively when empty)")
	explainCmd.Flags().String("candidate", "", "candidate profile id")
	explainCmd.MarkFlagRequired("candidate")
}

func explain(cmd *cobra.Command) {
	ctx := context.Background()
	log, config := setup()

	source, err := openSource(ctx, config.Source, log)
	if err != nil {
		log.Fatal("opening the source", zap.Error(err))
	}
	defer source.Close()

	candidateID, _ := cmd.Flags().GetString("candidate")
	candidate, err := source.Candidate(ctx, candidateID)
	if err != nil {
		log.Fatal("getting the candidate", zap.Error(err))
	}

	jobID, _ := cmd.Flags().GetString("job")
	if jobID == "" {
		jobID, err = selectJob(ctx, source)
		if err != nil {
			log.Fatal("selecting a job", zap.Error(err))
		}
	}

	job, err := source.Job(ctx, jobID)
	if err != nil {
		log.Fatal("getting the job", zap.Error(err), zap.String(logger.FieldJobID, jobID))
	}

	result := matching.Score(job, candidate)
	explanation := newExplainer(ctx, config.AI, log).Describe(ctx, job, candidate, result)

	if err := printJSON(explainOutput{Response: result.Response(), Explanation: explanation}); err != nil {
		log.Fatal("printing the result", zap.Error(err))
	}
}

// runSelect is replaced in tests.
var runSelect = func(s *promptui.Select) (int, string, error) {
	return s.Run()
}

func selectJob(ctx context.Context, source store.Source) (string, error) {
	jobs, err := source.Jobs(ctx)
	if err != nil {
		return "", err
	}
	if len(jobs) == 0 {
		return "", fmt.Errorf("no jobs available: %w", store.ErrNotFound)
	}

	items := make([]string, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, jobLabel(job))
	}

	jobPrompt := promptui.Select{
		Label: "Choose a job and press ENTER",
		Items: items,
		Size:  10,
	}

	idx, _, err := runSelect(&jobPrompt)
	if err != nil {
		return "", err
	}

	if idx < 0 || idx >= len(jobs) {
		return "", fmt.Errorf("invalid job selection %d", idx)
	}

	return jobs[idx].ID, nil
}

func jobLabel(job matching.JobPosting) string {
	return fmt.Sprintf("%s %s / %s", job.ID, job.Title, job.EmployerName)
}
