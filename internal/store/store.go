// Package store loads job postings and candidate profiles from the configured
// backend and shapes them for scoring.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/matching"
)

const (
	TypeFile   = "file"
	TypeREST   = "rest"
	TypeSQLite = "sqlite"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("record not found")

// Source gives read access to jobs and candidates.
type Source interface {
	Job(ctx context.Context, id string) (matching.JobPosting, error)
	Jobs(ctx context.Context) ([]matching.JobPosting, error)
	Candidate(ctx context.Context, id string) (matching.CandidateProfile, error)
	Candidates(ctx context.Context) ([]matching.CandidateProfile, error)
	Close() error
}

var (
	_ Source = (*File)(nil)
	_ Source = (*REST)(nil)
	_ Source = (*SQLite)(nil)
)

// Config selects and configures a Source.
type Config struct {
	Type   string
	File   string
	REST   *RESTConfig
	SQLite *SQLiteConfig
}

// RESTConfig configures the hosted database REST backend.
type RESTConfig struct {
	URL             string
	APIKey          string
	JobsTable       string
	CandidatesTable string
	PageSize        int
	UserAgent       string
}

// SQLiteConfig configures the local SQLite backend.
type SQLiteConfig struct {
	Path string
}

// Open returns the Source described by cfg.
func Open(ctx context.Context, cfg *Config, logger *zap.Logger) (Source, error) {
	if cfg == nil {
		return nil, errors.New("source configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	kind := strings.ToLower(strings.TrimSpace(cfg.Type))
	if kind == "" {
		kind = TypeFile
	}

	logger = logger.With(zap.String("source", kind))

	var (
		src Source
		err error
	)

	switch kind {
	case TypeFile:
		src, err = OpenFile(cfg.File)
	case TypeREST:
		if cfg.REST == nil {
			return nil, errors.New("rest source requires source.rest configuration")
		}
		src, err = NewREST(cfg.REST, logger)
	case TypeSQLite:
		if cfg.SQLite == nil {
			return nil, errors.New("sqlite source requires source.sqlite configuration")
		}
		src, err = OpenSQLite(ctx, cfg.SQLite.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return src, nil
}
