package store

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/matching"
)

func newTestREST(t *testing.T, handler http.HandlerFunc, pageSize int) *REST {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	src, err := NewREST(&RESTConfig{URL: server.URL + "/", APIKey: "secret", PageSize: pageSize}, zap.NewNop())
	require.NoError(t, err)
	return src
}

func TestRESTCandidate(t *testing.T) {
	src := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/candidate_profiles", r.URL.Path)
		assert.Equal(t, "eq.c1", r.URL.Query().Get("id"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_ = json.NewEncoder(gz).Encode([]map[string]any{{
			"id":               "c1",
			"extracted_skills": []any{"React", map[string]any{"skill": "SQL", "confidence": 0.5}},
			"experience_level": "mid",
		}})
	}, 0)

	candidate, err := src.Candidate(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", candidate.ID)
	assert.Equal(t, matching.LevelMid, candidate.ExperienceLevel)
	assert.Len(t, candidate.Skills, 2)
}

func TestRESTNotFound(t *testing.T) {
	src := newTestREST(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}, 0)

	_, err := src.Job(context.Background(), "absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRESTBadStatus(t *testing.T) {
	src := newTestREST(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}, 0)

	_, err := src.Job(context.Background(), "j1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestRESTJobsPaging(t *testing.T) {
	const total = 5
	var calls int

	src := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/rest/v1/jobs", r.URL.Path)

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		page := []map[string]any{}
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, map[string]any{"id": i, "required_skills": []string{"Go"}})
		}
		_ = json.NewEncoder(w).Encode(page)
	}, 2)

	jobs, err := src.Jobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, total)
	assert.Equal(t, "4", jobs[4].ID)
	assert.Equal(t, 3, calls)
}

func TestRESTBigintIDs(t *testing.T) {
	const id = "9007199254740993"

	src := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq."+id, r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`[{"id": 9007199254740993, "required_skills": ["Go"], "experience_level": "senior"}]`))
	}, 0)

	job, err := src.Job(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
}

func TestNewRESTValidation(t *testing.T) {
	_, err := NewREST(&RESTConfig{APIKey: "k"}, nil)
	require.Error(t, err)

	_, err = NewREST(&RESTConfig{URL: "http://localhost"}, nil)
	require.Error(t, err)
}
