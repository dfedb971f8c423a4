package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/match-scorer/internal/matching"
	"github.com/spigell/match-scorer/internal/profile"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	employer_id      TEXT NOT NULL DEFAULT '',
	employer_name    TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	required_skills  TEXT NOT NULL DEFAULT '[]',
	experience_level TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS candidates (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	extracted_skills   TEXT NOT NULL DEFAULT '[]',
	experience_level   TEXT NOT NULL DEFAULT '',
	personality_scores TEXT NOT NULL DEFAULT '{}'
);`

// SQLite is a Source backed by a local SQLite database. Skill lists and
// personality scores are stored as JSON text.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens the database at path and creates the tables when missing.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db, logger: logger}, nil
}

const jobColumns = `id, title, employer_id, employer_name, description, required_skills, experience_level`

func (s *SQLite) Job(ctx context.Context, id string) (matching.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return matching.JobPosting{}, fmt.Errorf("job %q: %w", id, ErrNotFound)
	}
	return job, err
}

func (s *SQLite) Jobs(ctx context.Context) ([]matching.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []matching.JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			s.logger.Warn("skipping undecodable job", zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

const candidateColumns = `id, name, extracted_skills, experience_level, personality_scores`

func (s *SQLite) Candidate(ctx context.Context, id string) (matching.CandidateProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id)

	candidate, err := s.scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return matching.CandidateProfile{}, fmt.Errorf("candidate %q: %w", id, ErrNotFound)
	}
	return candidate, err
}

func (s *SQLite) Candidates(ctx context.Context) ([]matching.CandidateProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []matching.CandidateProfile
	for rows.Next() {
		candidate, err := s.scanCandidate(rows)
		if err != nil {
			s.logger.Warn("skipping undecodable candidate", zap.Error(err))
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, rows.Err()
}

func (s *SQLite) scanCandidate(row scanner) (matching.CandidateProfile, error) {
	var id, name, skills, level, traits string
	if err := row.Scan(&id, &name, &skills, &level, &traits); err != nil {
		return matching.CandidateProfile{}, err
	}

	return profile.DecodeCandidate(profile.Record{
		"id":                 id,
		"name":               name,
		"extracted_skills":   jsonValue(skills, s.logger),
		"experience_level":   level,
		"personality_scores": jsonValue(traits, s.logger),
	})
}

// PutJob inserts or replaces a job.
func (s *SQLite) PutJob(ctx context.Context, job matching.JobPosting) error {
	skills, err := json.Marshal(job.RequiredSkills)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Title, job.EmployerID, job.EmployerName, job.Description, string(skills), job.ExperienceLevel.String())
	return err
}

// PutCandidate inserts or replaces a candidate.
func (s *SQLite) PutCandidate(ctx context.Context, candidate matching.CandidateProfile) error {
	skills, err := json.Marshal(candidate.Skills)
	if err != nil {
		return err
	}

	traits := candidate.PersonalityScores
	if traits == nil {
		traits = map[string]int{}
	}
	traitsJSON, err := json.Marshal(traits)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO candidates (`+candidateColumns+`)
		VALUES (?, ?, ?, ?, ?)
	`, candidate.ID, candidate.Name, string(skills), candidate.ExperienceLevel.String(), string(traitsJSON))
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (matching.JobPosting, error) {
	var id, title, employerID, employerName, description, skills, level string
	if err := row.Scan(&id, &title, &employerID, &employerName, &description, &skills, &level); err != nil {
		return matching.JobPosting{}, err
	}

	var required []any
	if err := json.Unmarshal([]byte(skills), &required); err != nil {
		return matching.JobPosting{}, fmt.Errorf("job %q required_skills: %w", id, err)
	}

	return profile.DecodeJob(profile.Record{
		"id":               id,
		"title":            title,
		"employer_id":      employerID,
		"employer_name":    employerName,
		"description":      description,
		"required_skills":  required,
		"experience_level": level,
	})
}

// jsonValue parses a JSON column, yielding nil for malformed text.
func jsonValue(text string, logger *zap.Logger) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		logger.Debug("ignoring malformed json column", zap.Error(err))
		return nil
	}
	return v
}

// Import copies every job and candidate of src into s and returns how many of
// each were written.
func (s *SQLite) Import(ctx context.Context, src Source) (int, int, error) {
	jobs, err := src.Jobs(ctx)
	if err != nil {
		return 0, 0, err
	}
	candidates, err := src.Candidates(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, job := range jobs {
		if err := s.PutJob(ctx, job); err != nil {
			return 0, 0, fmt.Errorf("put job %q: %w", job.ID, err)
		}
	}
	for _, candidate := range candidates {
		if err := s.PutCandidate(ctx, candidate); err != nil {
			return len(jobs), 0, fmt.Errorf("put candidate %q: %w", candidate.ID, err)
		}
	}

	s.logger.Info("import finished", zap.Int("jobs", len(jobs)), zap.Int("candidates", len(candidates)))
	return len(jobs), len(candidates), nil
}
