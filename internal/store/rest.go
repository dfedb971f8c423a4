package store

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/matching"
	"github.com/spigell/match-scorer/internal/profile"
)

const (
	restPath               = "/rest/v1"
	defaultJobsTable       = "jobs"
	defaultCandidatesTable = "candidate_profiles"
	defaultPageSize        = 100
	defaultUserAgent       = "spigell/match-scorer"
	contentType            = "application/json"
	contentEncoding        = "gzip"
)

// REST reads records from the hosted database REST interface.
type REST struct {
	HTTPClient *http.Client
	UserAgent  string

	baseURL         string
	apiKey          string
	jobsTable       string
	candidatesTable string
	pageSize        int
	logger          *zap.Logger
}

// NewREST creates a REST source.
func NewREST(cfg *RESTConfig, logger *zap.Logger) (*REST, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("rest source url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse rest source url: %w", err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("rest source api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &REST{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent:       defaultUserAgent,
		baseURL:         base,
		apiKey:          strings.TrimSpace(cfg.APIKey),
		jobsTable:       defaultJobsTable,
		candidatesTable: defaultCandidatesTable,
		pageSize:        defaultPageSize,
		logger:          logger,
	}

	if t := strings.TrimSpace(cfg.JobsTable); t != "" {
		r.jobsTable = t
	}
	if t := strings.TrimSpace(cfg.CandidatesTable); t != "" {
		r.candidatesTable = t
	}
	if cfg.PageSize > 0 {
		r.pageSize = cfg.PageSize
	}
	if ua := strings.TrimSpace(cfg.UserAgent); ua != "" {
		r.UserAgent = ua
	}

	return r, nil
}

func (r *REST) Job(ctx context.Context, id string) (matching.JobPosting, error) {
	raw, err := r.getOne(ctx, r.jobsTable, id)
	if err != nil {
		return matching.JobPosting{}, fmt.Errorf("job %q: %w", id, err)
	}
	return profile.DecodeJob(raw)
}

func (r *REST) Jobs(ctx context.Context) ([]matching.JobPosting, error) {
	items, err := r.GetItems(ctx, r.jobsTable, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]matching.JobPosting, 0, len(items))
	for _, raw := range items {
		job, err := profile.DecodeJob(raw)
		if err != nil {
			r.logger.Warn("skipping undecodable job", zap.Any("id", raw["id"]), zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (r *REST) Candidate(ctx context.Context, id string) (matching.CandidateProfile, error) {
	raw, err := r.getOne(ctx, r.candidatesTable, id)
	if err != nil {
		return matching.CandidateProfile{}, fmt.Errorf("candidate %q: %w", id, err)
	}
	return profile.DecodeCandidate(raw)
}

func (r *REST) Candidates(ctx context.Context) ([]matching.CandidateProfile, error) {
	items, err := r.GetItems(ctx, r.candidatesTable, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	candidates := make([]matching.CandidateProfile, 0, len(items))
	for _, raw := range items {
		candidate, err := profile.DecodeCandidate(raw)
		if err != nil {
			r.logger.Warn("skipping undecodable candidate", zap.Any("id", raw["id"]), zap.Error(err))
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (r *REST) Close() error {
	r.HTTPClient.CloseIdleConnections()
	return nil
}

func (r *REST) getOne(ctx context.Context, table, id string) (profile.Record, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)

	items, err := r.getPage(ctx, table, q, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	return items[0], nil
}

// GetItems reads every row of table matching q, following limit/offset pages
// until a short page is returned.
func (r *REST) GetItems(ctx context.Context, table string, q url.Values) ([]profile.Record, error) {
	var items []profile.Record

	for offset := 0; ; offset += r.pageSize {
		page, err := r.getPage(ctx, table, q, r.pageSize, offset)
		if err != nil {
			return nil, err
		}

		items = append(items, page...)

		if len(page) < r.pageSize {
			break
		}

		r.logger.Debug("additional request needed", zap.String("table", table), zap.Int("offset", offset+r.pageSize))
	}

	return items, nil
}

func (r *REST) getPage(ctx context.Context, table string, q url.Values, limit, offset int) ([]profile.Record, error) {
	endpoint := fmt.Sprintf("%s%s/%s", r.baseURL, restPath, url.PathEscape(table))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for key, values := range q {
		params[key] = append([]string(nil), values...)
	}
	params.Set("select", "*")
	params.Set("order", "id.asc")
	params.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	req.URL.RawQuery = params.Encode()

	resp, err := r.request(r.setHeaders(req))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var items []profile.Record
	if err := decodeBody(resp, &items); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *REST) request(req *http.Request) (*http.Response, error) {
	r.logger.Debug("make request", zap.String("url", req.URL.String()))
	return r.HTTPClient.Do(req)
}

func (r *REST) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))
	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func decodeBody(resp *http.Response, target any) error {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(reader, 512))
		return fmt.Errorf("bad status: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	dec := json.NewDecoder(reader)
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
