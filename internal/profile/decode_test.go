package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/match-scorer/internal/matching"
)

func TestDecodeCandidateMixedSkills(t *testing.T) {
	raw := Record{
		"id":        float64(42),
		"full_name": "Ada",
		"extracted_skills": []any{
			"React",
			map[string]any{"skill": "SQL", "confidence": 0.6},
			map[string]any{"name": "Go", "confidence": "0.9"},
			map[string]any{"skill": "Rust", "confidence": "very"},
			map[string]any{"skill": "   "},
			map[string]any{"skill": "Kafka", "confidence": 4},
			17,
		},
		"experience_level":   "Senior",
		"personality_scores": map[string]any{"openness": 80.4, "grit": "n/a", "calm": 130},
	}

	candidate, err := DecodeCandidate(raw)
	require.NoError(t, err)

	assert.Equal(t, "42", candidate.ID)
	assert.Equal(t, "Ada", candidate.Name)
	assert.Equal(t, matching.LevelSenior, candidate.ExperienceLevel)
	assert.Equal(t, []matching.CandidateSkill{
		{Name: "React", Confidence: matching.DefaultConfidence},
		{Name: "SQL", Confidence: 0.6},
		{Name: "Go", Confidence: 0.9},
		{Name: "Rust", Confidence: matching.DefaultConfidence},
		{Name: "Kafka", Confidence: 1},
	}, candidate.Skills)
	assert.Equal(t, map[string]int{"openness": 80, "calm": 100}, candidate.PersonalityScores)
}

func TestDecodeCandidateCamelCaseWins(t *testing.T) {
	raw := Record{
		"id":               "c1",
		"extractedSkills":  []any{"Go"},
		"extracted_skills": []any{"Java"},
		"experienceLevel":  "unknown",
	}

	candidate, err := DecodeCandidate(raw)
	require.NoError(t, err)
	assert.Equal(t, []matching.CandidateSkill{matching.NewCandidateSkill("Go")}, candidate.Skills)
	assert.Equal(t, matching.LevelUnset, candidate.ExperienceLevel)
	assert.Nil(t, candidate.PersonalityScores)
}

func TestDecodeJob(t *testing.T) {
	raw := Record{
		"id":               7,
		"title":            "Frontend engineer",
		"company":          "Acme",
		"employer_id":      "emp-1",
		"required_skills":  []any{"React", " ", "TypeScript "},
		"experience_level": "MID",
	}

	job, err := DecodeJob(raw)
	require.NoError(t, err)
	assert.Equal(t, matching.JobPosting{
		ID:              "7",
		Title:           "Frontend engineer",
		EmployerID:      "emp-1",
		EmployerName:    "Acme",
		RequiredSkills:  []string{"React", "TypeScript"},
		ExperienceLevel: matching.LevelMid,
	}, job)
}

func TestDecodeRejectsEmptyRecord(t *testing.T) {
	_, err := DecodeJob(nil)
	require.Error(t, err)

	_, err = DecodeCandidate(nil)
	require.Error(t, err)
}

func TestDecodedInputsScore(t *testing.T) {
	job, err := DecodeJob(Record{"requiredSkills": []any{"React", "SQL"}})
	require.NoError(t, err)

	candidate, err := DecodeCandidate(Record{"extractedSkills": []any{"react"}})
	require.NoError(t, err)

	assert.Equal(t, 40, matching.Score(job, candidate).SkillsMatch)
}

func TestDecodeCandidateJSONNumbers(t *testing.T) {
	raw := Record{
		"id": json.Number("9007199254740993"),
		"extracted_skills": []any{
			map[string]any{"skill": "Go", "confidence": json.Number("0.5")},
		},
		"personality_scores": map[string]any{"grit": json.Number("72.6"), "calm": json.Number("150")},
	}

	got, err := DecodeCandidate(raw)
	require.NoError(t, err)

	assert.Equal(t, "9007199254740993", got.ID)
	require.Len(t, got.Skills, 1)
	assert.Equal(t, 0.5, got.Skills[0].Confidence)
	assert.Equal(t, map[string]int{"grit": 73, "calm": 100}, got.PersonalityScores)
}
