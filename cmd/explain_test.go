package cmd

import (
	"context"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/match-scorer/internal/matching"
	"github.com/spigell/match-scorer/internal/recommend"
	"github.com/spigell/match-scorer/internal/store"
)

type stubSource struct {
	jobs []matching.JobPosting
}

func (s *stubSource) Job(_ context.Context, id string) (matching.JobPosting, error) {
	for _, job := range s.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return matching.JobPosting{}, store.ErrNotFound
}

func (s *stubSource) Jobs(_ context.Context) ([]matching.JobPosting, error) {
	return s.jobs, nil
}

func (s *stubSource) Candidate(_ context.Context, _ string) (matching.CandidateProfile, error) {
	return matching.CandidateProfile{}, store.ErrNotFound
}

func (s *stubSource) Candidates(_ context.Context) ([]matching.CandidateProfile, error) {
	return nil, nil
}

func (s *stubSource) Close() error { return nil }

// stubSelect answers prompts with the given indexes in order and records the
// items each prompt offered.
func stubSelect(t *testing.T, answers ...int) *[][]string {
	t.Helper()

	var offered [][]string
	original := runSelect
	runSelect = func(s *promptui.Select) (int, string, error) {
		items, _ := s.Items.([]string)
		offered = append(offered, items)

		require.NotEmpty(t, answers, "unexpected prompt")
		idx := answers[0]
		answers = answers[1:]
		return idx, items[idx], nil
	}
	t.Cleanup(func() { runSelect = original })

	return &offered
}

func TestSelectJobUsesIndex(t *testing.T) {
	source := &stubSource{jobs: []matching.JobPosting{
		{ID: "senior dev 1", Title: "Backend"},
		{ID: "senior dev 2", Title: "Frontend"},
	}}
	stubSelect(t, 1)

	id, err := selectJob(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, "senior dev 2", id)
}

func TestSelectJobWithoutJobs(t *testing.T) {
	_, err := selectJob(context.Background(), &stubSource{})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobDetailsUsesIndex(t *testing.T) {
	list := recommend.NewRanker(0, 1).Rank(matching.CandidateProfile{ID: "c1"}, []matching.JobPosting{
		{ID: "job one"}, {ID: "job two"},
	})
	offered := stubSelect(t, 1, 2)

	require.NoError(t, jobDetails(list))

	require.Len(t, *offered, 2)
	assert.Equal(t, PromptBack, (*offered)[0][2])
	assert.Equal(t, 2, list.Len())
}
