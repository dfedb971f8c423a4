// Package ai attaches free-text explanations to mechanical match results.
//
// Explanations come from an external text generation service and are optional:
// Guarded turns every failure into FallbackExplanation so callers always get a
// usable value alongside the unchanged matching.Result.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/matching"
)

// DefaultTimeout bounds a single explanation call when none is configured.
const DefaultTimeout = 20 * time.Second

// Explanation is a natural-language account of a match.
type Explanation struct {
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths"`
	Gaps           []string `json:"gaps"`
	Recommendation string   `json:"recommendation"`
	// Fallback is set when the explanation was not produced by the provider.
	Fallback bool   `json:"fallback"`
	Raw      string `json:"-"`
}

// Explainer produces an explanation for a scored pair.
type Explainer interface {
	Explain(ctx context.Context, job matching.JobPosting, candidate matching.CandidateProfile, result matching.Result) (*Explanation, error)
}

// FallbackExplanation describes result without calling any provider.
func FallbackExplanation(result matching.Result) *Explanation {
	return &Explanation{
		Summary: fmt.Sprintf("Overall match %d%%: skills %d%%, experience %d%%.",
			result.Overall, result.SkillsMatch, result.ExperienceMatch),
		Strengths:      []string{},
		Gaps:           []string{},
		Recommendation: recommendation(result.Overall),
		Fallback:       true,
	}
}

func recommendation(overall int) string {
	switch {
	case overall >= 80:
		return "Strong match. Consider moving forward."
	case overall >= 60:
		return "Good match. Review the details before deciding."
	case overall >= 40:
		return "Partial match. Some requirements are not covered."
	default:
		return "Weak match."
	}
}

// Guard wraps an Explainer with a deadline and a fixed fallback.
type Guard struct {
	next    Explainer
	timeout time.Duration
	logger  *zap.Logger
}

// Guarded returns a Guard around next. A non-positive timeout uses DefaultTimeout.
func Guarded(next Explainer, timeout time.Duration, log *zap.Logger) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{
		next:    next,
		timeout: timeout,
		logger:  logger.WithFields(log),
	}
}

// Explain never returns an error. Any provider failure, timeout or empty
// response yields FallbackExplanation(result).
func (g *Guard) Explain(ctx context.Context, job matching.JobPosting, candidate matching.CandidateProfile, result matching.Result) (*Explanation, error) {
	return g.Describe(ctx, job, candidate, result), nil
}

// Describe is Explain without the error return.
func (g *Guard) Describe(ctx context.Context, job matching.JobPosting, candidate matching.CandidateProfile, result matching.Result) *Explanation {
	if g == nil || g.next == nil {
		return FallbackExplanation(result)
	}

	log := g.logger.With(logger.MatchFields(job.ID, candidate.ID)...)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	explanation, err := g.call(ctx, job, candidate, result)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("explanation timed out, using fallback", zap.Duration("timeout", g.timeout))
		return FallbackExplanation(result)
	case err != nil:
		log.Warn("explanation failed, using fallback", zap.Error(err))
		return FallbackExplanation(result)
	case explanation == nil || explanation.Summary == "":
		log.Warn("explanation is empty, using fallback")
		return FallbackExplanation(result)
	}

	if explanation.Strengths == nil {
		explanation.Strengths = []string{}
	}
	if explanation.Gaps == nil {
		explanation.Gaps = []string{}
	}

	return explanation
}

type explainResult struct {
	explanation *Explanation
	err         error
}

// call runs the wrapped explainer and stops waiting once ctx is done, even if
// the explainer itself ignores ctx.
func (g *Guard) call(ctx context.Context, job matching.JobPosting, candidate matching.CandidateProfile, result matching.Result) (*Explanation, error) {
	done := make(chan explainResult, 1)
	go func() {
		explanation, err := g.next.Explain(ctx, job, candidate, result)
		done <- explainResult{explanation: explanation, err: err}
	}()

	select {
	case res := <-done:
		return res.explanation, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
