package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/filtering"
	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/recommend"
)

const (
	PromptExit                = "Exit"
	PromptBack                = "back"
	PromptReportByEmployers   = "Report by employers"
	PromptJobDetails          = "Show job details"
	PromptAppendToExcludeFile = "Append all jobs to exclude file"
	PromptJobsToFile          = "Dump jobs to file"
)

var errExit = errors.New("exit requested")

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank job postings for a candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().String("candidate", "", "candidate profile id")
	recommendCmd.Flags().IntP("limit", "l", 0, "maximum number of recommendations. Default is unlimited.")
	recommendCmd.Flags().Float64("jitter", 0, "half-width of random noise added to the ranking score")
	recommendCmd.Flags().Uint64("seed", 0, "seed for the ranking noise")
	recommendCmd.Flags().BoolP("interactive", "i", false, "browse the recommendations interactively")
	recommendCmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")
	recommendCmd.MarkFlagRequired("candidate")

	viper.BindPFlag("recommend.limit", recommendCmd.Flags().Lookup("limit"))
	viper.BindPFlag("recommend.jitter", recommendCmd.Flags().Lookup("jitter"))
	viper.BindPFlag("recommend.seed", recommendCmd.Flags().Lookup("seed"))
	viper.BindPFlag("recommend.exclude-file", recommendCmd.Flags().Lookup("exclude-file"))
}

func runRecommend(cmd *cobra.Command) {
	ctx := context.Background()
	log, config := setup()

	candidateID, _ := cmd.Flags().GetString("candidate")
	log = log.With(zap.String(logger.FieldCandidateID, candidateID))

	source, err := openSource(ctx, config.Source, log)
	if err != nil {
		log.Fatal("opening the source", zap.Error(err))
	}
	defer source.Close()

	candidate, err := source.Candidate(ctx, candidateID)
	if err != nil {
		log.Fatal("getting the candidate", zap.Error(err))
	}

	jobs, err := source.Jobs(ctx)
	if err != nil {
		log.Fatal("getting jobs", zap.Error(err))
	}

	log.Info("getting jobs", zap.Int("count", len(jobs)))

	rc := config.Recommend
	ranker := recommend.NewRanker(rc.Jitter, rc.Seed)
	ranked := ranker.Rank(candidate, jobs)

	if ranker.Jitter > 0 {
		log.Info("ranking with jitter", zap.Float64("jitter", ranker.Jitter), zap.Uint64("seed", ranker.Seed()))
	}

	deps := filtering.Deps{
		Logger:    log,
		Candidate: candidate,
		Explainer: newExplainer(ctx, config.AI, log),
	}

	steps := filtering.Default()
	list, err := filtering.Run(ctx, filterConfig(config), deps, steps, ranked)
	if err != nil {
		log.Fatal("filtering failed", zap.Error(err))
	}

	for _, status := range filtering.Describe(steps) {
		log.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	if list.Len() == 0 {
		log.Info("exiting", zap.String("reason", "no jobs left after filters"))
		return
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); !interactive {
		if err := printJSON(list); err != nil {
			log.Fatal("printing the result", zap.Error(err))
		}
		return
	}

	menu := promptui.Select{
		Label: "What next?",
		Items: []string{PromptReportByEmployers, PromptJobDetails, PromptJobsToFile, PromptAppendToExcludeFile, PromptExit},
	}

	for {
		_, action, err := menu.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}

		log.Info("current list of jobs", zap.Int("count", list.Len()))

		if err := handleAction(action, log, rc.ExcludeFile, list); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			log.Fatal("exiting", zap.Error(err))
		}
	}
}

func filterConfig(config *Config) *filtering.Config {
	rc := config.Recommend
	cfg := &filtering.Config{
		MinScore:    rc.MinScore,
		Limit:       rc.Limit,
		Employers:   rc.ExcludeEmployers,
		ExcludeFile: rc.ExcludeFile,
	}

	if config.AI != nil {
		cfg.AI = &filtering.AIConfig{
			Enabled:    config.AI.Enabled,
			Provider:   config.AI.Provider,
			ExplainTop: config.AI.ExplainTop,
			Timeout:    config.AI.Timeout,
		}
		if config.AI.Gemini != nil {
			cfg.AI.Model = config.AI.Gemini.Model
		}
	}

	return cfg
}

func handleAction(action string, log *zap.Logger, excludeFile string, list *recommend.List) error {
	switch action {
	case PromptExit:
		log.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportByEmployers:
		pretty, _ := json.MarshalIndent(list.Report(), "", "  ")
		log.Info(string(pretty), zap.Int("jobs count", list.Len()))
		return nil
	case PromptJobDetails:
		return jobDetails(list)
	case PromptJobsToFile:
		filename, err := list.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		log.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(log, excludeFile, list)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func appendToExcludeFile(log *zap.Logger, excludeFile string, list *recommend.List) error {
	if excludeFile == "" {
		log.Warn("exclude file is not configured", zap.String("hint", "set recommend.exclude-file or --exclude-file"))
		return nil
	}

	excluded, err := recommend.ReadExcluded(excludeFile)
	if err != nil {
		return err
	}

	excluded.Append(list.ToExcluded())

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	log.Info("appended to exclude file", zap.String("filename", excludeFile))

	list.Exclude(recommend.JobIDField, excluded.JobIDs())
	return nil
}

func jobDetails(list *recommend.List) error {
	for {
		if list.Len() == 0 {
			return nil
		}

		items := make([]string, 0, list.Len()+1)
		for _, entry := range list.Items {
			items = append(items, fmt.Sprintf("%s %d%% %s / %s",
				entry.Job.ID, entry.Result.Overall, entry.Job.Title, entry.Job.EmployerName,
			))
		}

		jobPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: append(items, PromptBack),
			Size:  10,
		}

		idx, _, err := runSelect(&jobPrompt)
		if err != nil {
			return err
		}

		if idx < 0 || idx >= list.Len() {
			return nil
		}

		entry := list.Items[idx]
		if err := printJSON(entry); err != nil {
			return err
		}
	}
}
