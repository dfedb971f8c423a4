package recommend

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	JobIDField      = "JobID"
	EmployerIDField = "EmployerID"
)

// List is an ordered set of ranked entries.
type List struct {
	Items []*Entry `json:"items"`
}

func (l *List) Len() int {
	return len(l.Items)
}

func (l *List) FindByJobID(id string) *Entry {
	for _, entry := range l.Items {
		if entry.Job.ID == id {
			return entry
		}
	}
	return nil
}

func (l *List) JobIDs() []string {
	ids := make([]string, 0, len(l.Items))
	for _, entry := range l.Items {
		ids = append(ids, entry.Job.ID)
	}
	return ids
}

// Truncate drops every entry after the first n and returns the job IDs of the
// dropped entries. A non-positive n keeps the whole list.
func (l *List) Truncate(n int) []string {
	if n <= 0 || len(l.Items) <= n {
		return nil
	}

	dropped := make([]string, 0, len(l.Items)-n)
	for _, entry := range l.Items[n:] {
		dropped = append(dropped, entry.Job.ID)
	}
	clear(l.Items[n:])
	l.Items = l.Items[:n]
	return dropped
}

// Keep retains the entries for which keep returns true, preserving order, and
// returns the job IDs of the dropped entries.
func (l *List) Keep(keep func(*Entry) bool) []string {
	var dropped []string
	kept := l.Items[:0]
	for _, entry := range l.Items {
		if keep(entry) {
			kept = append(kept, entry)
			continue
		}
		dropped = append(dropped, entry.Job.ID)
	}
	clear(l.Items[len(kept):])
	l.Items = kept
	return dropped
}

// Exclude drops entries whose field matches any of targets and returns the job
// IDs of the dropped entries.
func (l *List) Exclude(field string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}

	return l.Keep(func(e *Entry) bool {
		_, found := set[e.stringField(field)]
		return !found
	})
}

func (e *Entry) stringField(name string) string {
	switch name {
	case JobIDField:
		return e.Job.ID
	case EmployerIDField:
		return e.Job.EmployerID
	default:
		return ""
	}
}

// Report groups entries by employer for display.
func (l *List) Report() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, entry := range l.Items {
		key := fmt.Sprintf("%s (%s)", entry.Job.EmployerName, entry.Job.EmployerID)
		row := map[string]string{
			"job_id":           entry.Job.ID,
			"title":            entry.Job.Title,
			"match_score":      strconv.Itoa(entry.Result.Overall),
			"skills_match":     strconv.Itoa(entry.Result.SkillsMatch),
			"experience_match": strconv.Itoa(entry.Result.ExperienceMatch),
			"rank_score":       strconv.FormatFloat(entry.RankScore, 'f', 2, 64),
		}
		if entry.Explanation != nil {
			row["ai_summary"] = entry.Explanation.Summary
			row["ai_fallback"] = strconv.FormatBool(entry.Explanation.Fallback)
		}
		report[key] = append(report[key], row)
	}
	return report
}

func (l *List) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "recommendations_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Excluded is the content of an exclude file.
type Excluded struct {
	Items []*ExcludedJob
}

type ExcludedJob struct {
	ID           string
	Title        string
	EmployerName string
	ExcludedAt   time.Time
}

func (l *List) ToExcluded() *Excluded {
	excluded := &Excluded{}
	now := time.Now().UTC()
	for _, entry := range l.Items {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			ID:           entry.Job.ID,
			Title:        entry.Job.Title,
			EmployerName: entry.Job.EmployerName,
			ExcludedAt:   now,
		})
	}
	return excluded
}

// ReadExcluded loads an exclude file. A missing or empty file yields an empty set.
func ReadExcluded(path string) (*Excluded, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Excluded{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return &Excluded{}, nil
	}

	var excluded Excluded
	if err := json.Unmarshal(data, &excluded); err != nil {
		return nil, fmt.Errorf("parse exclude file %q: %w", path, err)
	}
	return &excluded, nil
}

func (x *Excluded) Append(other *Excluded) {
	x.Items = append(x.Items, other.Items...)
}

func (x *Excluded) JobIDs() []string {
	ids := make([]string, 0, len(x.Items))
	for _, job := range x.Items {
		ids = append(ids, job.ID)
	}
	return ids
}

func (x *Excluded) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(x)
}
