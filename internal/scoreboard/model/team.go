package model

import (
	"maps"
	"slices"
)

// Team holds identity and per-problem state of a contestant.
type Team struct {
	Login           string              `json:"login"`
	Name            string              `json:"name"`
	Affiliation     string              `json:"affiliation"`
	Problems        map[string]*Problem `json:"problems"`
	PlacementGlobal int                 `json:"placement_global"`
	Placement       int                 `json:"placement"`
}

func NewTeam(login, affiliation, name string) *Team {
	return &Team{
		Login:       login,
		Name:        name,
		Affiliation: affiliation,
		Problems:    make(map[string]*Problem),
	}
}

func (t *Team) problem(letter string) *Problem {
	if t.Problems == nil {
		t.Problems = make(map[string]*Problem)
	}
	p, ok := t.Problems[letter]
	if !ok {
		p = &Problem{}
		t.Problems[letter] = p
	}
	return p
}

// Apply records a verdict on the given problem.
func (t *Team) Apply(letter string, v Verdict, penalty int64) {
	t.problem(letter).Apply(v, penalty)
}

// Buffer queues a frozen verdict on the given problem.
func (t *Team) Buffer(letter string, v Verdict) {
	t.problem(letter).Buffer(v)
}

// Score sums penalties of solved problems only.
func (t *Team) Score() Score {
	s := Score{Login: t.Login}
	for _, p := range t.Problems {
		if !p.Solved {
			continue
		}
		s.Solved++
		s.Penalty += p.Penalty
		s.MaxSolveTime = max(s.MaxSolveTime, p.SolveTime)
	}
	return s
}

func (t *Team) IsWaiting() bool {
	for _, p := range t.Problems {
		if p.IsWaiting() {
			return true
		}
	}
	return false
}

// PendingCount returns the number of buffered verdicts across problems.
func (t *Team) PendingCount() int {
	total := 0
	for _, p := range t.Problems {
		if p.IsWaiting() {
			total += p.PendingCount()
		}
	}
	return total
}

// RevealNext reveals one verdict of the first waiting problem in letter order.
func (t *Team) RevealNext(penalty int64) bool {
	for _, letter := range t.letters() {
		if t.Problems[letter].RevealNext(penalty) {
			return true
		}
	}
	return false
}

func (t *Team) letters() []string {
	return slices.Sorted(maps.Keys(t.Problems))
}

func (t *Team) Clone() *Team {
	c := *t
	c.Problems = make(map[string]*Problem, len(t.Problems))
	for letter, p := range t.Problems {
		c.Problems[letter] = p.Clone()
	}
	return &c
}

// SortTeams orders teams by rank.
func SortTeams(teams []*Team) {
	scores := make(map[*Team]Score, len(teams))
	for _, t := range teams {
		scores[t] = t.Score()
	}
	slices.SortFunc(teams, func(a, b *Team) int {
		return scores[a].Compare(scores[b])
	})
}
