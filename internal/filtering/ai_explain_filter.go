package filtering

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/recommend"
)

const defaultExplainTop = 3

type aiExplainFilter struct {
	disabled bool
	reason   string
	config   *AIConfig
	top      int
}

// NewAIExplain creates the step attaching explanations to the best entries. It
// never drops entries.
func NewAIExplain() Filter {
	return &aiExplainFilter{}
}

func (f *aiExplainFilter) Name() string { return "ai_explain" }

func (f *aiExplainFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *aiExplainFilter) IsEnabled() bool { return !f.disabled }

func (f *aiExplainFilter) Validate(cfg *Config) error {
	f.config = nil
	if cfg != nil {
		f.config = cfg.AI
	}
	if f.config == nil || !f.config.Enabled {
		f.Disable("ai is not enabled")
		return nil
	}
	if f.config.ExplainTop < 0 {
		return errors.New("ai explain-top must not be negative")
	}

	f.top = f.config.ExplainTop
	if f.top == 0 {
		f.top = defaultExplainTop
	}
	return nil
}

func (f *aiExplainFilter) Apply(ctx context.Context, deps Deps, l *recommend.List) (*recommend.List, Step, error) {
	initial := l.Len()
	if f.disabled {
		return l, Step{Initial: initial, Left: initial}, nil
	}
	if deps.Explainer == nil {
		deps.Logger.Info("ai explainer is not configured; skipping ai_explain filter")
		return l, Step{Initial: initial, Left: initial}, nil
	}

	fallbacks := 0
	for i, entry := range l.Items {
		if i >= f.top {
			break
		}

		entry.Explanation = deps.Explainer.Describe(ctx, entry.Job, deps.Candidate, entry.Result)
		if entry.Explanation.Fallback {
			fallbacks++
		}
	}

	deps.Logger.Info("ai explanations attached",
		zap.Int("explained", min(f.top, initial)),
		zap.Int("fallbacks", fallbacks),
	)

	return l, Step{Initial: initial, Left: initial}, nil
}

func (f *aiExplainFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		details["explain_top"] = strconv.Itoa(f.top)
		details["timeout"] = f.config.Timeout.String()
		if f.config.Model != "" {
			details["model"] = f.config.Model
		}
		if f.config.Provider != "" {
			details["provider"] = f.config.Provider
		}
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
