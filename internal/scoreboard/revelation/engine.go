package revelation

import (
	"container/heap"
	"fmt"

	"scoreboard/internal/scoreboard/model"
	pkgerrors "scoreboard/pkg/errors"
)

// State is the lifecycle of a revelation.
type State int

const (
	StateFresh State = iota
	StateInProgress
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateInProgress:
		return "in-progress"
	default:
		return "complete"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "fresh":
		*s = StateFresh
	case "in-progress":
		*s = StateInProgress
	case "complete":
		*s = StateComplete
	default:
		return fmt.Errorf("invalid revelation state %q", string(text))
	}
	return nil
}

// Engine reveals frozen verdicts one at a time, worst ranked team first.
// An Engine is not safe for concurrent use.
type Engine struct {
	initial *model.Contest
	contest *model.Contest
	site    model.Membership
	queue   worstFirst
	steps   int
	skipped error
}

type Option func(*Engine)

// WithSite computes local placements for the members of site.
func WithSite(site model.Membership) Option {
	return func(e *Engine) {
		e.site = site
	}
}

// New builds an engine from the teams of contest and the full runs log.
// Runs before the freeze are applied, the rest are buffered for revelation.
// Runs of unknown teams or problems are left out and reported by Skipped.
func New(contest *model.Contest, runs *model.RunsLog, opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	initial := contest.Blank()
	e.skipped = initial.Replay(runs.SortedByTime(), false)
	initial.Recalculate(e.site)
	e.initial = initial
	e.Restart()
	return e
}

// Skipped returns the joined errors of runs left out when the engine was built.
func (e *Engine) Skipped() error {
	return e.skipped
}

// SkippedCount is the number of runs left out when the engine was built.
func (e *Engine) SkippedCount() int {
	if e.skipped == nil {
		return 0
	}
	if joined, ok := e.skipped.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

// Restart rewinds to the initial frozen state.
func (e *Engine) Restart() {
	e.contest = e.initial.Clone()
	e.contest.Recalculate(e.site)
	e.queue = make(worstFirst, 0, len(e.contest.Teams))
	for login, t := range e.contest.Teams {
		e.queue = append(e.queue, entry{login: login, score: t.Score()})
	}
	heap.Init(&e.queue)
	e.steps = 0
}

// Step reveals one verdict of the worst ranked team still queued.
// A team that stays waiting goes back to the queue with its new score.
// Stepping a complete revelation does nothing.
func (e *Engine) Step() error {
	if e.queue.Len() == 0 {
		return nil
	}
	top := heap.Pop(&e.queue).(entry)
	team, ok := e.contest.Teams[top.login]
	if !ok {
		return pkgerrors.Newf(pkgerrors.RevelationStateCorrupt, "queued team %s is not in the contest", top.login)
	}
	team.RevealNext(e.contest.PenaltyPerWrongAnswer)
	if team.IsWaiting() {
		heap.Push(&e.queue, entry{login: top.login, score: team.Score()})
	}
	e.steps++
	e.contest.Recalculate(e.site)
	return nil
}

// RevealTopN steps until at most n teams remain queued.
func (e *Engine) RevealTopN(n int) error {
	for e.queue.Len() > n {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// JumpTeamForward reveals everything left for the team at the top of the queue.
func (e *Engine) JumpTeamForward() error {
	login, ok := e.Peek()
	if !ok {
		return nil
	}
	for {
		if err := e.Step(); err != nil {
			return err
		}
		next, ok := e.Peek()
		if !ok || next != login {
			return nil
		}
	}
}

// BackOne undoes the last step by replaying from the initial state.
func (e *Engine) BackOne() error {
	if e.steps == 0 {
		return nil
	}
	target := e.steps - 1
	e.Restart()
	for e.steps < target {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Peek returns the login that the next step will reveal.
func (e *Engine) Peek() (string, bool) {
	if e.queue.Len() == 0 {
		return "", false
	}
	return e.queue[0].login, true
}

func (e *Engine) Len() int { return e.queue.Len() }

func (e *Engine) IsEmpty() bool { return e.queue.Len() == 0 }

func (e *Engine) Steps() int { return e.steps }

func (e *Engine) State() State {
	switch {
	case e.steps == 0:
		return StateFresh
	case e.queue.Len() == 0:
		return StateComplete
	default:
		return StateInProgress
	}
}

// Contest returns a copy of the current standings.
func (e *Engine) Contest() *model.Contest {
	return e.contest.Clone()
}
