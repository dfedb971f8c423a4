package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/spigell/match-scorer/internal/matching"
	"github.com/spigell/match-scorer/internal/profile"
)

// File is a Source backed by a single YAML or JSON document with jobs and
// candidates lists. The document is read once on open.
type File struct {
	path       string
	jobs       []matching.JobPosting
	candidates []matching.CandidateProfile
}

type fileDocument struct {
	Jobs       []profile.Record `json:"jobs" yaml:"jobs"`
	Candidates []profile.Record `json:"candidates" yaml:"candidates"`
}

// OpenFile reads and decodes the document at path.
func OpenFile(path string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("source file is not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source file %q: %w", path, err)
	}

	var doc fileDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing source file %q: %w", path, err)
	}

	f := &File{path: path}
	for i, raw := range doc.Jobs {
		job, err := profile.DecodeJob(raw)
		if err != nil {
			return nil, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		f.jobs = append(f.jobs, job)
	}
	for i, raw := range doc.Candidates {
		candidate, err := profile.DecodeCandidate(raw)
		if err != nil {
			return nil, fmt.Errorf("candidates[%d]: %w", i, err)
		}
		f.candidates = append(f.candidates, candidate)
	}

	return f, nil
}

func (f *File) Job(_ context.Context, id string) (matching.JobPosting, error) {
	for _, job := range f.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return matching.JobPosting{}, fmt.Errorf("job %q: %w", id, ErrNotFound)
}

func (f *File) Jobs(_ context.Context) ([]matching.JobPosting, error) {
	out := make([]matching.JobPosting, len(f.jobs))
	copy(out, f.jobs)
	return out, nil
}

func (f *File) Candidate(_ context.Context, id string) (matching.CandidateProfile, error) {
	for _, candidate := range f.candidates {
		if candidate.ID == id {
			return candidate, nil
		}
	}
	return matching.CandidateProfile{}, fmt.Errorf("candidate %q: %w", id, ErrNotFound)
}

func (f *File) Candidates(_ context.Context) ([]matching.CandidateProfile, error) {
	out := make([]matching.CandidateProfile, len(f.candidates))
	copy(out, f.candidates)
	return out, nil
}

func (f *File) Close() error { return nil }
