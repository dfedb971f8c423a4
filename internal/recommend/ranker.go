// Package recommend ranks job postings for a candidate.
//
// Ranking may add random jitter so that equally scored jobs rotate between
// runs. Jitter only affects RankScore; the deterministic matching.Result kept on
// every entry is never changed.
package recommend

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/spigell/match-scorer/internal/ai"
	"github.com/spigell/match-scorer/internal/matching"
)

// Entry is a ranked job for one candidate.
type Entry struct {
	Job         matching.JobPosting `json:"job"`
	Result      matching.Result     `json:"result"`
	RankScore   float64             `json:"rankScore"`
	Explanation *ai.Explanation     `json:"explanation,omitempty"`
}

// Ranker orders jobs for a candidate.
type Ranker struct {
	// Jitter is the half-width of the uniform noise added to RankScore.
	Jitter float64

	seed uint64
	rand *rand.Rand
}

// NewRanker returns a ranker. With jitter 0 the ranking is deterministic. A zero
// seed picks a random one, so jittered rankings differ between runs unless a
// seed is given; Seed reports the one in use.
func NewRanker(jitter float64, seed uint64) *Ranker {
	if jitter < 0 || math.IsNaN(jitter) {
		jitter = 0
	}
	for seed == 0 {
		seed = rand.Uint64()
	}
	return &Ranker{
		Jitter: jitter,
		seed:   seed,
		rand:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Seed returns the noise seed. Passing it back to NewRanker reproduces the ranking.
func (r *Ranker) Seed() uint64 {
	return r.seed
}

// Rank scores every job against candidate and returns them best first. Ties on
// RankScore are broken by Overall and then by job ID.
func (r *Ranker) Rank(candidate matching.CandidateProfile, jobs []matching.JobPosting) *List {
	entries := make([]*Entry, 0, len(jobs))
	for _, job := range jobs {
		result := matching.Score(job, candidate)
		entries = append(entries, &Entry{
			Job:       job,
			Result:    result,
			RankScore: r.rankScore(result),
		})
	}

	slices.SortStableFunc(entries, func(a, b *Entry) int {
		if c := cmp.Compare(b.RankScore, a.RankScore); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Result.Overall, a.Result.Overall); c != 0 {
			return c
		}
		return cmp.Compare(a.Job.ID, b.Job.ID)
	})

	return &List{Items: entries}
}

func (r *Ranker) rankScore(result matching.Result) float64 {
	score := float64(result.Overall)
	if r.Jitter > 0 && r.rand != nil {
		score += (r.rand.Float64()*2 - 1) * r.Jitter
	}
	return math.Min(math.Max(score, 0), 100)
}
