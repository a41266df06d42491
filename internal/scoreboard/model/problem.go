package model

import "encoding/json"

// Problem accumulates the runs of one team on one problem.
// Verdicts submitted during the freeze wait in pending until revealed.
type Problem struct {
	Solved      bool
	Submissions int
	Penalty     int64
	SolveTime   int64
	SolvedFirst bool

	pending []Verdict
}

// Apply records a verdict directly. penalty is the contest cost of a wrong answer.
func (p *Problem) Apply(v Verdict, penalty int64) {
	if p.Solved {
		return
	}
	switch v.Kind {
	case VerdictAccepted:
		p.Solved = true
		p.Submissions++
		p.Penalty += v.Time
		p.SolveTime = v.Time
		p.SolvedFirst = v.First
		p.pending = nil
	case VerdictRejected:
		p.Submissions++
		p.Penalty += penalty
	case VerdictJudging:
		// a run still judging when applied counts as wrong once revealed
		p.pending = append(p.pending, Rejected())
	}
}

// Buffer queues a frozen verdict without touching the public counters.
func (p *Problem) Buffer(v Verdict) {
	if p.Solved || v.Kind == VerdictJudging {
		return
	}
	p.pending = append(p.pending, v)
}

// IsWaiting reports whether the problem has hidden verdicts to reveal.
func (p *Problem) IsWaiting() bool {
	return !p.Solved && len(p.pending) > 0
}

// PendingCount returns the number of buffered verdicts.
func (p *Problem) PendingCount() int {
	return len(p.pending)
}

// RevealNext applies the oldest buffered verdict.
func (p *Problem) RevealNext(penalty int64) bool {
	if !p.IsWaiting() {
		return false
	}
	next := p.pending[0]
	p.pending = p.pending[1:]
	if len(p.pending) == 0 {
		p.pending = nil
	}
	p.Apply(next, penalty)
	return true
}

// Clone returns a deep copy.
func (p *Problem) Clone() *Problem {
	c := *p
	if p.pending != nil {
		c.pending = append([]Verdict(nil), p.pending...)
	}
	return &c
}

type problemJSON struct {
	Solved      bool  `json:"solved"`
	Submissions int   `json:"submissions"`
	Penalty     int64 `json:"penalty"`
	SolveTime   int64 `json:"solve_time"`
	SolvedFirst bool  `json:"solved_first,omitempty"`
	Pending     int   `json:"pending"`
}

// MarshalJSON exposes how many verdicts are pending but never their outcome.
func (p *Problem) MarshalJSON() ([]byte, error) {
	return json.Marshal(problemJSON{
		Solved:      p.Solved,
		Submissions: p.Submissions,
		Penalty:     p.Penalty,
		SolveTime:   p.SolveTime,
		SolvedFirst: p.SolvedFirst,
		Pending:     len(p.pending),
	})
}

// UnmarshalJSON restores the public counters. Pending outcomes never leave
// the server, so they come back as unknown verdicts.
func (p *Problem) UnmarshalJSON(data []byte) error {
	var raw problemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Problem{
		Solved:      raw.Solved,
		Submissions: raw.Submissions,
		Penalty:     raw.Penalty,
		SolveTime:   raw.SolveTime,
		SolvedFirst: raw.SolvedFirst,
	}
	for range raw.Pending {
		p.pending = append(p.pending, Unknown())
	}
	return nil
}
