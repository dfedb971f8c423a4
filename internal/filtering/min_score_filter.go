package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/recommend"
)

type minScoreFilter struct {
	minScore int
}

// NewMinScore creates a filter that removes entries scoring below the configured minimum.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(string) {}

func (f *minScoreFilter) IsEnabled() bool { return true }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.minScore = 0
	if cfg == nil {
		return nil
	}
	if cfg.MinScore < 0 || cfg.MinScore > 100 {
		return fmt.Errorf("minimum score must be within [0,100], got %d", cfg.MinScore)
	}
	f.minScore = cfg.MinScore
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, l *recommend.List) (*recommend.List, Step, error) {
	initial := l.Len()
	if f.minScore == 0 {
		return l, Step{Initial: initial, Left: initial}, nil
	}

	dropped := l.Keep(func(e *recommend.Entry) bool {
		return e.Result.Overall >= f.minScore
	})
	if len(dropped) > 0 {
		deps.Logger.Info("excluding jobs below minimum score",
			zap.Int("min_score", f.minScore),
			zap.Strings("excluded_jobs", dropped),
			zap.Int("jobs_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{
		"min_score": strconv.Itoa(f.minScore),
	}}
}
