// Package synth generates synthetic election fixtures for testing.
//
// Generation is deterministic for a given Params value: the same seed
// always yields the same fixture.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/tally"
)

// Params controls the shape of a synthetic election.
type Params struct {
	Contests      int `json:"contests" yaml:"contests"`
	WrongContests int `json:"wrong_contests" yaml:"wrong_contests"`

	MinSelections int `json:"min_selections" yaml:"min_selections"`
	MaxSelections int `json:"max_selections" yaml:"max_selections"`

	Collections      int `json:"collections" yaml:"collections"`
	NoCVRCollections int `json:"nocvr_collections" yaml:"nocvr_collections"`

	MinBallots int64 `json:"min_ballots" yaml:"min_ballots"`
	MaxBallots int64 `json:"max_ballots" yaml:"max_ballots"`

	MinCollectionsPerContest int `json:"min_collections_per_contest" yaml:"min_collections_per_contest"`
	MaxCollectionsPerContest int `json:"max_collections_per_contest" yaml:"max_collections_per_contest"`

	// Dropoff is the ratio of preference between consecutive selections:
	// s2 is chosen Dropoff times as often as s1, and so on.
	Dropoff float64 `json:"dropoff" yaml:"dropoff"`

	Seed uint64 `json:"seed" yaml:"seed"`
}

// DefaultParams returns a small two-contest, two-collection election.
func DefaultParams() Params {
	return Params{
		Contests:                 2,
		MinSelections:            2,
		MaxSelections:            5,
		Collections:              2,
		MinBallots:               10,
		MaxBallots:               20,
		MinCollectionsPerContest: 1,
		MaxCollectionsPerContest: 2,
		Dropoff:                  0.9,
		Seed:                     1,
	}
}

// Validate checks that p describes a generatable election.
func (p Params) Validate() error {
	var errs []error
	if p.Contests < 1 {
		errs = append(errs, fmt.Errorf("contests must be at least 1, got %d", p.Contests))
	}
	if p.WrongContests < 0 || p.WrongContests > p.Contests {
		errs = append(errs, fmt.Errorf("wrong contests must be between 0 and %d, got %d", p.Contests, p.WrongContests))
	}
	if p.MinSelections < 2 || p.MaxSelections < p.MinSelections {
		errs = append(errs, fmt.Errorf("selections range [%d, %d] invalid: need 2 <= min <= max", p.MinSelections, p.MaxSelections))
	}
	if p.Collections < 1 {
		errs = append(errs, fmt.Errorf("collections must be at least 1, got %d", p.Collections))
	}
	if p.NoCVRCollections < 0 || p.NoCVRCollections > p.Collections {
		errs = append(errs, fmt.Errorf("noCVR collections must be between 0 and %d, got %d", p.Collections, p.NoCVRCollections))
	}
	if p.MinBallots < 1 || p.MaxBallots < p.MinBallots {
		errs = append(errs, fmt.Errorf("ballots range [%d, %d] invalid: need 1 <= min <= max", p.MinBallots, p.MaxBallots))
	}
	if p.MinCollectionsPerContest < 1 || p.MaxCollectionsPerContest < p.MinCollectionsPerContest ||
		p.MaxCollectionsPerContest > p.Collections {
		errs = append(errs, fmt.Errorf("collections per contest range [%d, %d] invalid: need 1 <= min <= max <= %d",
			p.MinCollectionsPerContest, p.MaxCollectionsPerContest, p.Collections))
	}
	if !(p.Dropoff > 0 && p.Dropoff <= 1) {
		errs = append(errs, fmt.Errorf("dropoff must be in (0, 1], got %v", p.Dropoff))
	}
	return errors.Join(errs...)
}

// Synthetic is a generated election.
type Synthetic struct {
	Election *election.Election
	// Wrong lists, in canonical order, the contests whose reported
	// outcome was chosen to disagree with the tallies.
	Wrong []string
	// NoCVR lists collections that report tallies rather than per-ballot
	// records when written as an election directory.
	NoCVR []string
}

// Generate builds a synthetic election from p.
func Generate(p Params) (*Synthetic, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid synth params: %w", err)
	}
	g := &generator{p: p, rng: rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))}
	return g.run(), nil
}

type generator struct {
	p   Params
	rng *rand.Rand
}

func (g *generator) run() *Synthetic {
	p := g.p
	e := election.New()
	e.AddComment(election.KeyBallots, fmt.Sprintf(
		"Synthetic election: seed %d, %d contests (%d wrong), %d collections",
		p.Seed, p.Contests, p.WrongContests, p.Collections))

	cids := numbered("c", p.Contests)
	pbcids := numbered("p", p.Collections)

	for _, pbcid := range pbcids {
		e.Ballots[pbcid] = g.geoChoice(p.MinBallots, p.MaxBallots)
	}

	wrong := g.pick(cids, p.WrongContests)
	noCVR := g.pick(pbcids, p.NoCVRCollections)

	for _, cid := range cids {
		selids := numbered("s", int(g.geoChoice(int64(p.MinSelections), int64(p.MaxSelections))))
		weights := dropoffWeights(len(selids), p.Dropoff)

		span := int(g.geoChoice(int64(p.MinCollectionsPerContest), int64(p.MaxCollectionsPerContest)))
		first := g.rng.IntN(len(pbcids) - span + 1)
		for _, pbcid := range pbcids[first : first+span] {
			for _, selid := range selids {
				e.SetTally(cid, pbcid, selid, 0)
			}
			for i := int64(0); i < e.Ballots[pbcid]; i++ {
				e.AddTally(cid, pbcid, selids[g.weighted(weights)], 1)
			}
		}
	}

	wrongSet := make(map[string]bool, len(wrong))
	for _, cid := range wrong {
		wrongSet[cid] = true
	}
	for _, cid := range cids {
		leaders, _ := tally.Leaders(e.Totals(cid))
		if !wrongSet[cid] {
			e.Reported[cid] = leaders[0]
			continue
		}
		if len(leaders) == len(e.VotesFor(cid)) {
			breakTie(e, cid)
			leaders, _ = tally.Leaders(e.Totals(cid))
		}
		e.Reported[cid] = runnerUp(e.Totals(cid), leaders)
	}

	return &Synthetic{Election: e, Wrong: wrong, NoCVR: noCVR}
}

// geoChoice returns a random element of Geospace(lo, hi, 7).
func (g *generator) geoChoice(lo, hi int64) int64 {
	values := Geospace(lo, hi, 7)
	return values[g.rng.IntN(len(values))]
}

// pick returns k distinct elements of ids, in canonical order.
func (g *generator) pick(ids []string, k int) []string {
	out := make([]string, 0, k)
	for _, i := range g.rng.Perm(len(ids))[:k] {
		out = append(out, ids[i])
	}
	election.SortIDs(out)
	return out
}

func (g *generator) weighted(weights []float64) int {
	r := g.rng.Float64()
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

// Geospace returns up to num distinct integers from start to stop inclusive,
// spread geometrically:
//
//	Geospace(0, 10, 7)     = [0 1 2 3 5 7 10]
//	Geospace(20, 10000, 7) = [20 56 159 447 1260 3550 10000]
func Geospace(start, stop int64, num int) []int64 {
	set := map[int64]bool{start: true, stop: true}
	lo := float64(max(start, 1))
	for i := 1; i < num-1; i++ {
		v := lo * math.Pow(float64(stop)/lo, float64(i)/float64(num-1))
		set[int64(math.RoundToEven(v))] = true
	}
	out := make([]int64, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// dropoffWeights returns normalized weights 1, d, d^2, ...
func dropoffWeights(n int, dropoff float64) []float64 {
	weights := make([]float64, n)
	var sum float64
	for i := range weights {
		weights[i] = math.Pow(dropoff, float64(i))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// breakTie moves one vote from the last selection to the first in the first
// collection where the last selection has votes, so a contest whose
// selections all tie gains a non-leader.
func breakTie(e *election.Election, cid string) {
	votes := e.VotesFor(cid)
	first, last := votes[0], votes[len(votes)-1]
	for _, pbcid := range e.CollectionsFor(cid) {
		if e.Tallies[cid][pbcid][last] > 0 {
			e.AddTally(cid, pbcid, last, -1)
			e.AddTally(cid, pbcid, first, 1)
			return
		}
	}
}

// runnerUp returns the non-leader with the most votes.
func runnerUp(totals map[string]int64, leaders []string) string {
	isLeader := make(map[string]bool, len(leaders))
	for _, vid := range leaders {
		isLeader[vid] = true
	}
	best, bestVotes := "", int64(-1)
	for _, vid := range election.SortedKeys(totals) {
		if !isLeader[vid] && totals[vid] > bestVotes {
			best, bestVotes = vid, totals[vid]
		}
	}
	return best
}

func numbered(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return ids
}
