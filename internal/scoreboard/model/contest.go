package model

import (
	"errors"
	"maps"
	"slices"

	pkgerrors "scoreboard/pkg/errors"
)

// Membership decides whether a team login belongs to a group, usually a site.
type Membership interface {
	Contains(login string) bool
}

// MembershipFunc adapts a function to Membership.
type MembershipFunc func(login string) bool

func (f MembershipFunc) Contains(login string) bool { return f(login) }

// Contest is the scoreboard state of one contest. Times are in minutes.
type Contest struct {
	Name                  string           `json:"name"`
	Teams                 map[string]*Team `json:"teams"`
	CurrentTime           int64            `json:"current_time"`
	MaximumTime           int64            `json:"maximum_time"`
	ScoreFreezeTime       int64            `json:"score_freeze_time"`
	PenaltyPerWrongAnswer int64            `json:"penalty_per_wrong_answer"`
	ProblemCount          int              `json:"problem_count"`
}

func NewContest(name string, teams []*Team, maximumTime, currentTime, freezeTime, penalty int64, problemCount int) *Contest {
	c := &Contest{
		Name:                  name,
		Teams:                 make(map[string]*Team, len(teams)),
		CurrentTime:           currentTime,
		MaximumTime:           maximumTime,
		ScoreFreezeTime:       freezeTime,
		PenaltyPerWrongAnswer: penalty,
		ProblemCount:          problemCount,
	}
	for _, t := range teams {
		c.Teams[t.Login] = t
	}
	return c
}

// ProblemLetters returns A, B, ... for the configured problem count.
func (c *Contest) ProblemLetters() []string {
	letters := make([]string, 0, c.ProblemCount)
	for i := 0; i < c.ProblemCount && i < 26; i++ {
		letters = append(letters, string(rune('A'+i)))
	}
	return letters
}

// HasProblem reports whether letter names a problem of the contest.
// A contest without a problem count accepts any letter.
func (c *Contest) HasProblem(letter string) bool {
	if c.ProblemCount <= 0 {
		return letter != ""
	}
	return slices.Contains(c.ProblemLetters(), letter)
}

func (c *Contest) target(r Run) (*Team, error) {
	team, ok := c.Teams[r.TeamLogin]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.UnknownTeam, "team %s not found", r.TeamLogin).
			WithDetail("run_id", r.ID)
	}
	if !c.HasProblem(r.Problem) {
		return nil, pkgerrors.Newf(pkgerrors.UnknownProblem, "problem %s not found", r.Problem).
			WithDetail("run_id", r.ID)
	}
	return team, nil
}

// ApplyRun applies the verdict of r to the public state of its team.
func (c *Contest) ApplyRun(r Run) error {
	team, err := c.target(r)
	if err != nil {
		return err
	}
	team.Apply(r.Problem, r.Verdict, c.PenaltyPerWrongAnswer)
	return nil
}

// ApplyRunFrozen buffers the verdict of r until it is revealed.
func (c *Contest) ApplyRunFrozen(r Run) error {
	team, err := c.target(r)
	if err != nil {
		return err
	}
	team.Buffer(r.Problem, r.Verdict)
	return nil
}

// Replay applies runs in submit order. Runs at or after the freeze are
// buffered, with their outcome hidden when mask is set. Runs that target an
// unknown team or problem are skipped and reported in the joined error.
func (c *Contest) Replay(runs []Run, mask bool) error {
	sorted := append([]Run(nil), runs...)
	SortRunsByTime(sorted)

	var errs []error
	for _, r := range sorted {
		var err error
		switch {
		case !r.IsFrozen(c.ScoreFreezeTime):
			err = c.ApplyRun(r)
		case mask:
			err = c.ApplyRunFrozen(r.Masked())
		default:
			err = c.ApplyRunFrozen(r)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SortedTeams returns the teams in rank order.
func (c *Contest) SortedTeams() []*Team {
	teams := slices.Collect(maps.Values(c.Teams))
	SortTeams(teams)
	return teams
}

// Recalculate assigns global placements to every team and local placements
// to the members of site. Non-members get a local placement of 0.
// A nil site makes every team a member.
func (c *Contest) Recalculate(site Membership) {
	local := 0
	for i, t := range c.SortedTeams() {
		t.PlacementGlobal = i + 1
		if site == nil || site.Contains(t.Login) {
			local++
			t.Placement = local
		} else {
			t.Placement = 0
		}
	}
}

// FilterBySite returns a copy restricted to the members of site.
func (c *Contest) FilterBySite(site Membership) *Contest {
	out := c.cloneHeader()
	for login, t := range c.Teams {
		if site == nil || site.Contains(login) {
			out.Teams[login] = t.Clone()
		}
	}
	return out
}

// BuildPanelItem projects r against the current placement of its team.
func (c *Contest) BuildPanelItem(r Run) (PanelItem, error) {
	team, err := c.target(r)
	if err != nil {
		return PanelItem{}, err
	}
	return PanelItem{
		ID:          r.ID,
		Time:        r.Time,
		TeamLogin:   team.Login,
		TeamName:    team.Name,
		Affiliation: team.Affiliation,
		Problem:     r.Problem,
		Placement:   team.PlacementGlobal,
		Verdict:     r.Verdict,
	}, nil
}

// Timer converts the contest clock to seconds.
func (c *Contest) Timer(currentSeconds int64) Timer {
	return Timer{CurrentTime: currentSeconds, ScoreFreezeTime: c.ScoreFreezeTime * 60}
}

// IsWaiting reports whether any team still has hidden verdicts.
func (c *Contest) IsWaiting() bool {
	for _, t := range c.Teams {
		if t.IsWaiting() {
			return true
		}
	}
	return false
}

// Blank returns a copy with every team reset to an empty score.
func (c *Contest) Blank() *Contest {
	out := c.cloneHeader()
	for login, t := range c.Teams {
		out.Teams[login] = NewTeam(t.Login, t.Affiliation, t.Name)
	}
	return out
}

func (c *Contest) Clone() *Contest {
	out := c.cloneHeader()
	for login, t := range c.Teams {
		out.Teams[login] = t.Clone()
	}
	return out
}

func (c *Contest) cloneHeader() *Contest {
	out := *c
	out.Teams = make(map[string]*Team, len(c.Teams))
	return &out
}
