// Package matching computes the compatibility score between a job posting and a
// candidate profile.
//
// Score is pure: it performs no I/O, holds no state and is safe for concurrent use.
// Incomplete inputs resolve to fixed fallback values instead of errors.
package matching

import (
	"math"
	"strings"
)

const (
	skillsWeight     = 0.7
	experienceWeight = 0.3

	// neutralScore is used when one side gives nothing to compare against.
	neutralScore = 50
)

// experienceBands maps a level distance to a score. Distances past the end use the
// last band.
var experienceBands = []int{100, 80, 60, 40}

// Score returns the match result of candidate against job.
//
// Sub-scores are rounded first and Overall is computed from the rounded values.
func Score(job JobPosting, candidate CandidateProfile) Result {
	skills := SkillsMatch(job.RequiredSkills, candidate.Skills)
	experience := ExperienceMatch(job.ExperienceLevel, candidate.ExperienceLevel)

	return Result{
		SkillsMatch:     skills,
		ExperienceMatch: experience,
		Overall:         Combine(skills, experience),
	}
}

// Combine weights the skills and experience sub-scores into the overall score.
func Combine(skills, experience int) int {
	return clamp(round(float64(skills)*skillsWeight + float64(experience)*experienceWeight))
}

// SkillsMatch scores how many required skills the candidate covers, weighted by
// the confidence of the covering skill.
func SkillsMatch(required []string, skills []CandidateSkill) int {
	if len(required) == 0 || len(skills) == 0 {
		if len(skills) > 0 {
			return neutralScore
		}
		return 0
	}

	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = strings.ToLower(s.Name)
	}

	var matched, total float64
	for _, req := range required {
		total++

		want := strings.ToLower(req)
		for i, have := range names {
			if strings.Contains(have, want) || strings.Contains(want, have) {
				matched += confidence(skills[i].Confidence)
				break
			}
		}
	}

	if total == 0 {
		return 0
	}

	return clamp(round(100 * matched / total))
}

// ExperienceMatch scores the distance between two seniority levels.
func ExperienceMatch(job, candidate Level) int {
	if !job.IsSet() || !candidate.IsSet() {
		return neutralScore
	}

	diff := job.index() - candidate.index()
	if diff < 0 {
		diff = -diff
	}
	if diff >= len(experienceBands) {
		diff = len(experienceBands) - 1
	}

	return experienceBands[diff]
}

func confidence(c float64) float64 {
	switch {
	case math.IsNaN(c):
		return DefaultConfidence
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

func round(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
