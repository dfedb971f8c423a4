package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/recommend"
)

type employersFilter struct {
	employers []string
}

// NewEmployers creates a filter that removes jobs by employers configured in the config.
func NewEmployers() Filter {
	return &employersFilter{}
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Disable(string) {}

func (f *employersFilter) IsEnabled() bool { return true }

func (f *employersFilter) Validate(cfg *Config) error {
	f.employers = nil
	if cfg != nil {
		f.employers = append(f.employers, cfg.Employers...)
	}
	return nil
}

func (f *employersFilter) Apply(_ context.Context, deps Deps, l *recommend.List) (*recommend.List, Step, error) {
	initial := l.Len()
	if len(f.employers) == 0 {
		return l, Step{Initial: initial, Left: initial}, nil
	}

	excluded := l.Exclude(recommend.EmployerIDField, f.employers)
	if len(excluded) > 0 {
		deps.Logger.Info("excluding jobs by employers",
			zap.Strings("excluded_employers", f.employers),
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(excluded), Left: l.Len()}, nil
}

func (f *employersFilter) Status() Status {
	details := map[string]string{}
	if len(f.employers) > 0 {
		details["employers"] = strings.Join(f.employers, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
