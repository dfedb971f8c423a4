package matching

import "strings"

// DefaultConfidence is used for candidate skills that carry no confidence value.
const DefaultConfidence = 0.8

// Level is a seniority label. The zero value means the level is not set.
type Level int

const (
	LevelUnset Level = iota
	LevelEntry
	LevelMid
	LevelSenior
	LevelLead
	LevelExecutive
)

var levelNames = map[Level]string{
	LevelEntry:     "entry",
	LevelMid:       "mid",
	LevelSenior:    "senior",
	LevelLead:      "lead",
	LevelExecutive: "executive",
}

// ParseLevel maps a label to a Level. Unknown labels map to LevelUnset.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == s {
			return level
		}
	}
	return LevelUnset
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return ""
}

// IsSet reports whether l is one of the known levels.
func (l Level) IsSet() bool {
	_, ok := levelNames[l]
	return ok
}

// index returns the ordinal position of l, entry being 0.
func (l Level) index() int {
	return int(l - LevelEntry)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	*l = ParseLevel(string(text))
	return nil
}

// CandidateSkill is a normalized skill entry of a candidate.
type CandidateSkill struct {
	Name       string  `json:"skill"`
	Confidence float64 `json:"confidence"`
}

// NewCandidateSkill returns a skill with the default confidence.
func NewCandidateSkill(name string) CandidateSkill {
	return CandidateSkill{Name: name, Confidence: DefaultConfidence}
}

// JobPosting is the job side of a match. Only RequiredSkills and ExperienceLevel
// affect the score.
type JobPosting struct {
	ID              string   `json:"id"`
	Title           string   `json:"title,omitempty"`
	EmployerID      string   `json:"employerId,omitempty"`
	EmployerName    string   `json:"employerName,omitempty"`
	Description     string   `json:"description,omitempty"`
	RequiredSkills  []string `json:"requiredSkills"`
	ExperienceLevel Level    `json:"experienceLevel,omitempty"`
}

// CandidateProfile is the candidate side of a match.
type CandidateProfile struct {
	ID                string           `json:"id"`
	Name              string           `json:"name,omitempty"`
	Skills            []CandidateSkill `json:"extractedSkills"`
	ExperienceLevel   Level            `json:"experienceLevel,omitempty"`
	PersonalityScores map[string]int   `json:"personalityScores,omitempty"`
}

// Result is the outcome of Score. All values are within [0,100].
type Result struct {
	SkillsMatch     int `json:"skillsMatch"`
	ExperienceMatch int `json:"experienceMatch"`
	Overall         int `json:"overall"`
}

// Breakdown is the sub-score part of Response.
type Breakdown struct {
	SkillsMatch     int `json:"skillsMatch"`
	ExperienceMatch int `json:"experienceMatch"`
}

// Response is the shape handlers serialize to clients.
type Response struct {
	MatchScore int       `json:"matchScore"`
	Breakdown  Breakdown `json:"breakdown"`
}

func (r Result) Response() Response {
	return Response{
		MatchScore: r.Overall,
		Breakdown: Breakdown{
			SkillsMatch:     r.SkillsMatch,
			ExperienceMatch: r.ExperienceMatch,
		},
	}
}
