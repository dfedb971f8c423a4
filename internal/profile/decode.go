// Package profile turns loosely typed records, as stored by the hosted database or
// written in local files, into the typed inputs of the matching package.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/match-scorer/internal/matching"
)

// Record is a single row or document as produced by a store.
type Record = map[string]any

// aliases maps storage column names to the field names used by the decoders.
var aliases = map[string]string{
	"required_skills":    "requiredSkills",
	"extracted_skills":   "extractedSkills",
	"skills":             "extractedSkills",
	"experience_level":   "experienceLevel",
	"personality_scores": "personalityScores",
	"employer_id":        "employerId",
	"employer_name":      "employerName",
	"company":            "employerName",
	"full_name":          "name",
}

type jobRecord struct {
	ID              string         `mapstructure:"id"`
	Title           string         `mapstructure:"title"`
	EmployerID      string         `mapstructure:"employerId"`
	EmployerName    string         `mapstructure:"employerName"`
	Description     string         `mapstructure:"description"`
	RequiredSkills  []string       `mapstructure:"requiredSkills"`
	ExperienceLevel matching.Level `mapstructure:"experienceLevel"`
}

type candidateRecord struct {
	ID                string                    `mapstructure:"id"`
	Name              string                    `mapstructure:"name"`
	Skills            []matching.CandidateSkill `mapstructure:"extractedSkills"`
	ExperienceLevel   matching.Level            `mapstructure:"experienceLevel"`
	PersonalityScores map[string]int            `mapstructure:"personalityScores"`
}

// DecodeJob converts a job record into a JobPosting.
func DecodeJob(raw Record) (matching.JobPosting, error) {
	var rec jobRecord
	if err := decode(raw, &rec); err != nil {
		return matching.JobPosting{}, fmt.Errorf("decode job: %w", err)
	}

	skills := make([]string, 0, len(rec.RequiredSkills))
	for _, s := range rec.RequiredSkills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}

	return matching.JobPosting{
		ID:              rec.ID,
		Title:           rec.Title,
		EmployerID:      rec.EmployerID,
		EmployerName:    rec.EmployerName,
		Description:     rec.Description,
		RequiredSkills:  skills,
		ExperienceLevel: rec.ExperienceLevel,
	}, nil
}

// DecodeCandidate converts a candidate record into a CandidateProfile. Skill
// entries may be plain strings or objects with skill and confidence keys.
func DecodeCandidate(raw Record) (matching.CandidateProfile, error) {
	var rec candidateRecord
	if err := decode(raw, &rec); err != nil {
		return matching.CandidateProfile{}, fmt.Errorf("decode candidate: %w", err)
	}

	skills := make([]matching.CandidateSkill, 0, len(rec.Skills))
	for _, s := range rec.Skills {
		if s.Name == "" {
			continue
		}
		skills = append(skills, s)
	}

	var traits map[string]int
	for name, value := range rec.PersonalityScores {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if traits == nil {
			traits = make(map[string]int, len(rec.PersonalityScores))
		}
		traits[name] = min(max(value, 0), 100)
	}

	return matching.CandidateProfile{
		ID:                rec.ID,
		Name:              rec.Name,
		Skills:            skills,
		ExperienceLevel:   rec.ExperienceLevel,
		PersonalityScores: traits,
	}, nil
}

func decode(raw Record, target any) error {
	if raw == nil {
		return errors.New("record is empty")
	}

	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			levelHook,
			skillHook,
			traitsHook,
			idHook,
		),
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(normalizeKeys(raw))
}

func normalizeKeys(raw Record) Record {
	out := make(Record, len(raw))
	for key, value := range raw {
		if alias, ok := aliases[key]; ok {
			if _, exists := raw[alias]; exists {
				continue
			}
			key = alias
		}
		out[key] = value
	}
	return out
}

var (
	levelType  = reflect.TypeOf(matching.LevelUnset)
	skillType  = reflect.TypeOf(matching.CandidateSkill{})
	traitsType = reflect.TypeOf(map[string]int{})
)

func levelHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != levelType {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return matching.ParseLevel(s), nil
	}
	return matching.LevelUnset, nil
}

// idHook renders numeric identifiers (common for serial primary keys) as strings.
// json.Number keeps bigint keys exact.
func idHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	}
	return data, nil
}

// traitsHook drops trait values that are not numbers instead of failing the record.
func traitsHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != traitsType {
		return data, nil
	}

	m, ok := data.(map[string]any)
	if !ok {
		return map[string]int{}, nil
	}

	traits := make(map[string]int, len(m))
	for name, value := range m {
		f, ok := coerceNumber(value)
		if !ok {
			continue
		}
		traits[name] = int(math.Round(f))
	}
	return traits, nil
}

func skillHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != skillType {
		return data, nil
	}

	switch v := data.(type) {
	case string:
		return matching.NewCandidateSkill(strings.TrimSpace(v)), nil
	case map[string]any:
		return skillFromMap(v), nil
	case map[any]any:
		converted := make(map[string]any, len(v))
		for key, value := range v {
			converted[fmt.Sprint(key)] = value
		}
		return skillFromMap(converted), nil
	default:
		return matching.CandidateSkill{}, nil
	}
}

func skillFromMap(m map[string]any) matching.CandidateSkill {
	name := coerceString(m["skill"])
	if name == "" {
		name = coerceString(m["name"])
	}

	skill := matching.NewCandidateSkill(name)
	if c, ok := coerceFloat(m["confidence"]); ok {
		skill.Confidence = c
	}
	return skill
}

func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// coerceFloat parses a confidence value and clamps it into [0,1].
func coerceFloat(v any) (float64, bool) {
	f, ok := coerceNumber(v)
	if !ok {
		return 0, false
	}
	return math.Min(math.Max(f, 0), 1), true
}

func coerceNumber(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
