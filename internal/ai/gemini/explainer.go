package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/ai"
	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/matching"
	"github.com/spigell/match-scorer/internal/utils"
)

const (
	provider            = "gemini"
	defaultMaxLogLength = 200

	systemInstruction = "You are a recruiting assistant. You explain job/candidate match scores to recruiters in plain language and always answer with JSON."
)

//go:embed prompt.md
var promptTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

// Explainer asks Gemini to explain a mechanical match result.
type Explainer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Explainer = (*Explainer)(nil)

func NewExplainer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Explainer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Explainer{
		generator: generator,
		logger:    logger.WithCommonFields(log, provider, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (e *Explainer) Explain(ctx context.Context, job matching.JobPosting, candidate matching.CandidateProfile, result matching.Result) (*ai.Explanation, error) {
	prompt, err := buildPrompt(job, candidate, result)
	if err != nil {
		return nil, err
	}

	fields := logger.MatchFields(job.ID, candidate.ID)

	e.logger.Debug("gemini generate content request", append(fields,
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)...)

	raw, err := e.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini generate content response", append(fields,
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)...)

	explanation, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	explanation.Raw = raw
	return explanation, nil
}

func buildPrompt(job matching.JobPosting, candidate matching.CandidateProfile, result matching.Result) (string, error) {
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	candidateJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidate payload: %w", err)
	}

	scoreJSON, err := json.MarshalIndent(result.Response(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal score payload: %w", err)
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job:\n{{JOB_JSON}}\n\nCandidate:\n{{CANDIDATE_JSON}}\n\nScore:\n{{SCORE_JSON}}\n\nJSON Response:"
	}

	return strings.NewReplacer(
		"{{JOB_JSON}}", string(jobJSON),
		"{{CANDIDATE_JSON}}", string(candidateJSON),
		"{{SCORE_JSON}}", string(scoreJSON),
	).Replace(template), nil
}

func parseResponse(raw string) (*ai.Explanation, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	explanation := &ai.Explanation{
		Summary:        coerceString(data["summary"]),
		Strengths:      coerceStrings(data["strengths"]),
		Gaps:           coerceStrings(data["gaps"]),
		Recommendation: coerceString(data["recommendation"]),
	}

	if explanation.Summary == "" {
		return nil, errors.New("gemini response has no summary")
	}

	return explanation, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")

	// Drop any chatter around the object.
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start != -1 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStrings(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, s)
		}
	}
	return out
}
