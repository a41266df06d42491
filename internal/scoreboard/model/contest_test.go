package model_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"scoreboard/internal/scoreboard/model"
	pkgerrors "scoreboard/pkg/errors"
)

func newContest(freeze, penalty int64, logins ...string) *model.Contest {
	teams := make([]*model.Team, 0, len(logins))
	for _, login := range logins {
		teams = append(teams, model.NewTeam(login, "school "+login, "Team "+strings.ToUpper(login)))
	}
	return model.NewContest("test", teams, 300, 0, freeze, penalty, 5)
}

func run(id, time int64, login, letter string, v model.Verdict) model.Run {
	return model.Run{ID: id, Time: time, TeamLogin: login, Problem: letter, Verdict: v}
}

func TestSingleAcceptedNoFreeze(t *testing.T) {
	c := newContest(999, 20, "t1")
	r := run(1, 10, "t1", "A", model.Accepted(10))
	if err := c.ApplyRun(r); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	c.Recalculate(nil)

	team := c.Teams["t1"]
	want := model.Score{Solved: 1, Penalty: 10, MaxSolveTime: 10, Login: "t1"}
	if got := team.Score(); got != want {
		t.Fatalf("score = %+v, want %+v", got, want)
	}
	if team.Placement != 1 || team.PlacementGlobal != 1 {
		t.Fatalf("unexpected placement: %d/%d", team.Placement, team.PlacementGlobal)
	}
	item, err := c.BuildPanelItem(r)
	if err != nil {
		t.Fatalf("build panel item failed: %v", err)
	}
	if item.Placement != 1 || item.TeamName != "Team T1" {
		t.Fatalf("unexpected panel item: %+v", item)
	}
}

func TestRejectionThenAccepted(t *testing.T) {
	c := newContest(999, 20, "t1")
	for _, r := range []model.Run{
		run(1, 5, "t1", "A", model.Rejected()),
		run(2, 15, "t1", "A", model.Accepted(15)),
	} {
		if err := c.ApplyRun(r); err != nil {
			t.Fatalf("apply failed: %v", err)
		}
	}
	p := c.Teams["t1"].Problems["A"]
	if !p.Solved || p.Submissions != 2 || p.Penalty != 35 || p.SolveTime != 15 {
		t.Fatalf("unexpected problem state: %+v", p)
	}
}

func TestFreezeHidesAccepted(t *testing.T) {
	c := newContest(60, 20, "t1")
	for _, r := range []model.Run{
		run(1, 10, "t1", "A", model.Rejected()),
		run(2, 70, "t1", "A", model.Accepted(70)),
	} {
		var err error
		if r.IsFrozen(c.ScoreFreezeTime) {
			err = c.ApplyRunFrozen(r)
		} else {
			err = c.ApplyRun(r)
		}
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}
	}
	p := c.Teams["t1"].Problems["A"]
	if p.Solved || p.Submissions != 1 || p.Penalty != 20 || !p.IsWaiting() {
		t.Fatalf("unexpected public state: %+v", p)
	}
}

func TestRunAtFreezeTimeIsFrozen(t *testing.T) {
	r := run(1, 60, "t1", "A", model.Accepted(60))
	if !r.IsFrozen(60) {
		t.Fatalf("run at freeze time must be frozen")
	}
	if run(2, 59, "t1", "A", model.Rejected()).IsFrozen(60) {
		t.Fatalf("run before freeze must not be frozen")
	}
}

func TestOrderingTieOnSolvedAndPenalty(t *testing.T) {
	c := newContest(999, 0, "t2", "t1")
	runs := []model.Run{
		run(1, 10, "t1", "A", model.Accepted(10)),
		run(2, 30, "t1", "B", model.Accepted(30)),
		run(3, 5, "t2", "A", model.Accepted(5)),
		run(4, 35, "t2", "B", model.Accepted(35)),
	}
	for _, r := range runs {
		if err := c.ApplyRun(r); err != nil {
			t.Fatalf("apply failed: %v", err)
		}
	}
	c.Recalculate(nil)
	if c.Teams["t1"].Score().Penalty != 40 || c.Teams["t2"].Score().Penalty != 40 {
		t.Fatalf("fixture must tie on penalty")
	}
	if c.Teams["t1"].PlacementGlobal != 1 || c.Teams["t2"].PlacementGlobal != 2 {
		t.Fatalf("unexpected placements: t1=%d t2=%d", c.Teams["t1"].PlacementGlobal, c.Teams["t2"].PlacementGlobal)
	}
}

func TestRecalculateTieBreaksByLogin(t *testing.T) {
	c := newContest(999, 20, "charlie", "alpha", "bravo")
	c.Recalculate(nil)
	for login, want := range map[string]int{"alpha": 1, "bravo": 2, "charlie": 3} {
		if got := c.Teams[login].PlacementGlobal; got != want {
			t.Fatalf("%s placement = %d, want %d", login, got, want)
		}
	}
}

func TestRecalculateEmptyContest(t *testing.T) {
	c := model.NewContest("empty", nil, 300, 0, 240, 20, 0)
	c.Recalculate(nil)
	if len(c.Teams) != 0 {
		t.Fatalf("unexpected teams")
	}
}

func TestRecalculateWithSite(t *testing.T) {
	c := newContest(999, 20, "sp1", "rj1", "sp2")
	_ = c.ApplyRun(run(1, 10, "rj1", "A", model.Accepted(10)))
	_ = c.ApplyRun(run(2, 20, "sp2", "A", model.Accepted(20)))
	site := model.MembershipFunc(func(login string) bool { return strings.HasPrefix(login, "sp") })
	c.Recalculate(site)

	tests := []struct {
		login     string
		global    int
		placement int
	}{
		{"rj1", 1, 0},
		{"sp2", 2, 1},
		{"sp1", 3, 2},
	}
	for _, tt := range tests {
		team := c.Teams[tt.login]
		if team.PlacementGlobal != tt.global || team.Placement != tt.placement {
			t.Fatalf("%s: got %d/%d, want %d/%d", tt.login, team.PlacementGlobal, team.Placement, tt.global, tt.placement)
		}
	}

	filtered := c.FilterBySite(site)
	if len(filtered.Teams) != 2 || filtered.Teams["rj1"] != nil {
		t.Fatalf("unexpected filtered teams: %v", filtered.Teams)
	}
	filtered.Teams["sp1"].Name = "changed"
	if c.Teams["sp1"].Name == "changed" {
		t.Fatalf("filtered contest shares teams")
	}
}

// Placements form a permutation of 1..N in non-decreasing score order.
func TestRecalculateTotalOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	logins := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for round := 0; round < 200; round++ {
		c := newContest(999, 20, logins...)
		for id := int64(1); id <= 40; id++ {
			login := logins[r.IntN(len(logins))]
			letter := string(rune('A' + r.IntN(5)))
			v := model.Rejected()
			if r.IntN(2) == 0 {
				v = model.Accepted(id * 3)
			}
			_ = c.ApplyRun(run(id, id*3, login, letter, v))
		}
		c.Recalculate(nil)

		byPlacement := make([]*model.Team, len(logins)+1)
		for _, team := range c.Teams {
			if team.PlacementGlobal < 1 || team.PlacementGlobal > len(logins) || byPlacement[team.PlacementGlobal] != nil {
				t.Fatalf("placements are not a permutation")
			}
			byPlacement[team.PlacementGlobal] = team
		}
		for i := 2; i <= len(logins); i++ {
			if byPlacement[i].Score().Better(byPlacement[i-1].Score()) {
				t.Fatalf("placement %d ranks ahead of %d", i, i-1)
			}
		}
	}
}

func TestApplyRunUnknownTeamAndProblem(t *testing.T) {
	c := newContest(999, 20, "t1")
	err := c.ApplyRun(run(1, 10, "staff", "A", model.Accepted(10)))
	if !pkgerrors.Is(err, pkgerrors.UnknownTeam) {
		t.Fatalf("expected unknown team, got %v", err)
	}
	err = c.ApplyRun(run(2, 10, "t1", "Z", model.Accepted(10)))
	if !pkgerrors.Is(err, pkgerrors.UnknownProblem) {
		t.Fatalf("expected unknown problem, got %v", err)
	}
	if _, err := c.BuildPanelItem(run(3, 10, "ghost", "A", model.Rejected())); !pkgerrors.Is(err, pkgerrors.UnknownTeam) {
		t.Fatalf("expected unknown team from panel item, got %v", err)
	}
}

func TestContestTimer(t *testing.T) {
	c := newContest(240, 20, "t1")
	timer := c.Timer(3600)
	if timer.ScoreFreezeTime != 240*60 || timer.CurrentTime != 3600 {
		t.Fatalf("unexpected timer: %+v", timer)
	}
	if timer.IsFrozen() || !timer.Started() {
		t.Fatalf("unexpected timer state: %+v", timer)
	}
	if (model.Timer{CurrentTime: -1}).Started() {
		t.Fatalf("negative time must not be started")
	}
}

func TestParseVerdictCode(t *testing.T) {
	tests := []struct {
		code string
		want model.Verdict
	}{
		{"Y", model.Accepted(42)},
		{"N", model.Rejected()},
		{"?", model.Judging()},
		{"X", model.Unknown()},
	}
	for _, tt := range tests {
		got, err := model.ParseVerdictCode(tt.code, 42)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.code, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %+v, want %+v", tt.code, got, tt.want)
		}
		if got.Code() != tt.code {
			t.Fatalf("%s: round trip code %s", tt.code, got.Code())
		}
	}
	if _, err := model.ParseVerdictCode("W", 1); !pkgerrors.Is(err, pkgerrors.InvalidVerdictCode) {
		t.Fatalf("expected invalid verdict code, got %v", err)
	}
}

func TestReplayMasksFrozenRuns(t *testing.T) {
	c := newContest(60, 20, "t1", "t2")
	runs := []model.Run{
		run(2, 70, "t1", "A", model.Accepted(70)),
		run(1, 10, "t1", "A", model.Rejected()),
		run(3, 80, "ghost", "A", model.Accepted(80)),
	}
	err := c.Replay(runs, true)
	if !pkgerrors.Is(err, pkgerrors.UnknownTeam) {
		t.Fatalf("expected unknown team to be reported, got %v", err)
	}

	p := c.Teams["t1"].Problems["A"]
	if p.Solved || p.Submissions != 1 || !p.IsWaiting() {
		t.Fatalf("unexpected public state: %+v", p)
	}
	p.RevealNext(c.PenaltyPerWrongAnswer)
	if p.Solved {
		t.Fatalf("masked verdict must not reveal an accepted run")
	}

	blank := c.Blank()
	if len(blank.Teams["t1"].Problems) != 0 || blank.Teams["t1"].Name != "Team T1" {
		t.Fatalf("unexpected blank team: %+v", blank.Teams["t1"])
	}
}
