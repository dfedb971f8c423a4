package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/recommend"
)

type limitFilter struct {
	limit int
}

// NewLimit creates a filter that keeps only the best entries left by the
// previous steps.
func NewLimit() Filter {
	return &limitFilter{}
}

func (f *limitFilter) Name() string { return "limit" }

func (f *limitFilter) Disable(string) {}

func (f *limitFilter) IsEnabled() bool { return true }

func (f *limitFilter) Validate(cfg *Config) error {
	f.limit = 0
	if cfg == nil {
		return nil
	}
	if cfg.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", cfg.Limit)
	}
	f.limit = cfg.Limit
	return nil
}

func (f *limitFilter) Apply(_ context.Context, deps Deps, l *recommend.List) (*recommend.List, Step, error) {
	initial := l.Len()

	dropped := l.Truncate(f.limit)
	if len(dropped) > 0 {
		deps.Logger.Debug("truncating recommendations",
			zap.Int("limit", f.limit),
			zap.Strings("dropped_jobs", dropped),
		)
	}

	return l, Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}

func (f *limitFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{
		"limit": strconv.Itoa(f.limit),
	}}
}
