package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/match-scorer/internal/matching"
)

const yamlDocument = `
jobs:
  - id: j1
    title: Frontend engineer
    company: Acme
    required_skills: [React, SQL]
    experience_level: mid
  - id: 2
    title: Platform engineer
    requiredSkills: [Go]
candidates:
  - id: c1
    name: Ada
    extractedSkills:
      - react
      - skill: Go
        confidence: 0.9
    experienceLevel: senior
    personalityScores:
      openness: 70
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileYAML(t *testing.T) {
	ctx := context.Background()
	src, err := OpenFile(writeFile(t, "records.yaml", yamlDocument))
	require.NoError(t, err)
	defer src.Close()

	job, err := src.Job(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", job.EmployerName)
	assert.Equal(t, []string{"React", "SQL"}, job.RequiredSkills)
	assert.Equal(t, matching.LevelMid, job.ExperienceLevel)

	_, err = src.Job(ctx, "2")
	require.NoError(t, err)

	jobs, err := src.Jobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	candidate, err := src.Candidate(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []matching.CandidateSkill{
		matching.NewCandidateSkill("react"),
		{Name: "Go", Confidence: 0.9},
	}, candidate.Skills)
	assert.Equal(t, map[string]int{"openness": 70}, candidate.PersonalityScores)

	result := matching.Score(job, candidate)
	assert.Equal(t, matching.Result{SkillsMatch: 40, ExperienceMatch: 80, Overall: 52}, result)
}

func TestFileJSON(t *testing.T) {
	path := writeFile(t, "records.json", `{"jobs":[{"id":"j1","requiredSkills":["Go"]}],"candidates":[]}`)

	src, err := OpenFile(path)
	require.NoError(t, err)

	_, err = src.Candidate(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = src.Job(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileErrors(t *testing.T) {
	_, err := OpenFile("")
	require.Error(t, err)

	_, err = OpenFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	_, err = OpenFile(writeFile(t, "broken.json", `{"jobs": [`))
	require.Error(t, err)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "records.yaml", yamlDocument)

	src, err := Open(ctx, &Config{File: path}, nil)
	require.NoError(t, err)
	assert.IsType(t, &File{}, src)

	_, err = Open(ctx, &Config{Type: "mongo"}, nil)
	require.Error(t, err)

	_, err = Open(ctx, &Config{Type: TypeREST}, nil)
	require.Error(t, err)

	_, err = Open(ctx, nil, nil)
	require.Error(t, err)
}
