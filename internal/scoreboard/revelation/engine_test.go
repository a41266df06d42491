package revelation_test

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"

	"scoreboard/internal/scoreboard/model"
	"scoreboard/internal/scoreboard/revelation"
)

func newContest(freeze int64, logins ...string) *model.Contest {
	teams := make([]*model.Team, 0, len(logins))
	for _, login := range logins {
		teams = append(teams, model.NewTeam(login, "", login))
	}
	return model.NewContest("final", teams, 300, 300, freeze, 20, 5)
}

func run(id, time int64, login, letter, code string) model.Run {
	v, err := model.ParseVerdictCode(code, time)
	if err != nil {
		panic(err)
	}
	return model.Run{ID: id, Time: time, TeamLogin: login, Problem: letter, Verdict: v}
}

func TestFreezeHidesAcceptedUntilRevealed(t *testing.T) {
	c := newContest(60, "t1")
	runs := model.NewRunsLogFrom([]model.Run{
		run(1, 10, "t1", "A", "N"),
		run(2, 70, "t1", "A", "Y"),
	})
	e := revelation.New(c, runs)

	p := e.Contest().Teams["t1"].Problems["A"]
	if p.Solved || p.Submissions != 1 || p.Penalty != 20 || !p.IsWaiting() {
		t.Fatalf("unexpected frozen state: %+v", p)
	}
	if e.State() != revelation.StateFresh {
		t.Fatalf("unexpected state %v", e.State())
	}

	if err := e.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	p = e.Contest().Teams["t1"].Problems["A"]
	if !p.Solved || p.Submissions != 2 || p.Penalty != 90 {
		t.Fatalf("unexpected revealed state: %+v", p)
	}
	if e.State() != revelation.StateComplete || !e.IsEmpty() {
		t.Fatalf("expected complete, got %v with %d queued", e.State(), e.Len())
	}
}

func scenarioContest() (*model.Contest, *model.RunsLog) {
	c := newContest(100, "t1", "t2", "t3")
	runs := model.NewRunsLogFrom([]model.Run{
		run(1, 2, "t1", "A", "Y"),
		run(2, 3, "t1", "B", "Y"),
		run(3, 5, "t1", "C", "Y"),
		run(4, 5, "t2", "A", "Y"),
		run(5, 15, "t2", "B", "Y"),
		run(6, 110, "t1", "D", "N"),
		run(7, 120, "t2", "C", "N"),
		run(8, 130, "t3", "A", "N"),
	})
	return c, runs
}

func TestRevealOrderIsWorstFirst(t *testing.T) {
	c, runs := scenarioContest()
	e := revelation.New(c, runs)

	var order []string
	for !e.IsEmpty() {
		login, ok := e.Peek()
		if !ok {
			t.Fatalf("peek failed on non-empty queue")
		}
		order = append(order, login)
		if err := e.Step(); err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}
	if !reflect.DeepEqual(order, []string{"t3", "t2", "t1"}) {
		t.Fatalf("unexpected reveal order: %v", order)
	}
	if e.Steps() != 3 {
		t.Fatalf("unexpected step count %d", e.Steps())
	}
}

func TestStepOnCompleteIsNoop(t *testing.T) {
	c, runs := scenarioContest()
	e := revelation.New(c, runs)
	if err := e.RevealTopN(0); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	before := e.Contest()
	steps := e.Steps()

	if err := e.Step(); err != nil {
		t.Fatalf("step on complete failed: %v", err)
	}
	if err := e.JumpTeamForward(); err != nil {
		t.Fatalf("jump on complete failed: %v", err)
	}
	if e.Steps() != steps || !reflect.DeepEqual(before, e.Contest()) {
		t.Fatalf("step on complete changed the engine")
	}
	if e.State() != revelation.StateComplete {
		t.Fatalf("expected complete state, got %v", e.State())
	}
}

func TestRevealTopNBounds(t *testing.T) {
	c, runs := scenarioContest()

	e := revelation.New(c, runs)
	if err := e.RevealTopN(e.Len()); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if e.Steps() != 0 {
		t.Fatalf("RevealTopN(len) must reveal nothing, took %d steps", e.Steps())
	}

	if err := e.RevealTopN(1); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if e.Len() != 1 {
		t.Fatalf("expected one queued team, got %d", e.Len())
	}
	if login, _ := e.Peek(); login != "t1" {
		t.Fatalf("unexpected leader %s", login)
	}

	if err := e.RevealTopN(0); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if !e.IsEmpty() || e.Contest().IsWaiting() {
		t.Fatalf("RevealTopN(0) must reveal everything")
	}
}

func TestBackOne(t *testing.T) {
	c, runs := scenarioContest()
	e := revelation.New(c, runs)

	if err := e.BackOne(); err != nil {
		t.Fatalf("back at start failed: %v", err)
	}
	if e.Steps() != 0 || e.State() != revelation.StateFresh {
		t.Fatalf("back at start must be a no-op")
	}

	if err := e.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	afterOne := e.Contest()
	peekOne, _ := e.Peek()

	if err := e.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if err := e.BackOne(); err != nil {
		t.Fatalf("back failed: %v", err)
	}
	peek, _ := e.Peek()
	if e.Steps() != 1 || peek != peekOne || !reflect.DeepEqual(afterOne, e.Contest()) {
		t.Fatalf("back did not restore the previous step")
	}
	if e.State() != revelation.StateInProgress {
		t.Fatalf("unexpected state %v", e.State())
	}

	e.Restart()
	if e.Steps() != 0 || e.Len() != 3 || e.State() != revelation.StateFresh {
		t.Fatalf("restart did not reset the engine")
	}
}

func TestJumpTeamForward(t *testing.T) {
	c := newContest(100, "a", "b")
	runs := model.NewRunsLogFrom([]model.Run{
		run(1, 10, "b", "A", "Y"),
		run(2, 110, "a", "A", "N"),
		run(3, 111, "a", "B", "N"),
		run(4, 112, "a", "C", "N"),
		run(5, 120, "b", "B", "N"),
	})
	e := revelation.New(c, runs)
	if login, _ := e.Peek(); login != "a" {
		t.Fatalf("unexpected first team %s", login)
	}
	if err := e.JumpTeamForward(); err != nil {
		t.Fatalf("jump failed: %v", err)
	}
	if e.Contest().Teams["a"].IsWaiting() {
		t.Fatalf("jump must reveal the whole team")
	}
	if e.Steps() != 3 {
		t.Fatalf("expected 3 steps, got %d", e.Steps())
	}
	if login, _ := e.Peek(); login != "b" {
		t.Fatalf("unexpected next team %s", login)
	}
}

func TestWithSitePlacements(t *testing.T) {
	c, runs := scenarioContest()
	site := model.MembershipFunc(func(login string) bool { return login != "t1" })
	e := revelation.New(c, runs, revelation.WithSite(site))

	got := e.Contest()
	if got.Teams["t1"].Placement != 0 || got.Teams["t2"].Placement != 1 || got.Teams["t2"].PlacementGlobal != 2 {
		t.Fatalf("unexpected site placements: t1=%d t2=%d/%d",
			got.Teams["t1"].Placement, got.Teams["t2"].Placement, got.Teams["t2"].PlacementGlobal)
	}
}

func randomContest(r *rand.Rand) (*model.Contest, *model.RunsLog) {
	logins := []string{"a", "b", "c", "d", "e", "f"}
	c := newContest(int64(60+r.IntN(120)), logins...)
	codes := []string{"Y", "N", "N", "X"}
	var runs []model.Run
	for id := int64(1); id <= 60; id++ {
		runs = append(runs, run(
			id,
			int64(r.IntN(300)),
			logins[r.IntN(len(logins))],
			string(rune('A'+r.IntN(5))),
			codes[r.IntN(len(codes))],
		))
	}
	return c, model.NewRunsLogFrom(runs)
}

func TestRevealConvergesToFinalStandings(t *testing.T) {
	r := rand.New(rand.NewPCG(17, 29))
	for round := 0; round < 100; round++ {
		c, runs := randomContest(r)

		e := revelation.New(c, runs)
		if err := e.RevealTopN(0); err != nil {
			t.Fatalf("round %d: reveal failed: %v", round, err)
		}

		want := c.Blank()
		for _, next := range runs.SortedByTime() {
			if err := want.ApplyRun(next); err != nil {
				t.Fatalf("round %d: apply failed: %v", round, err)
			}
		}
		want.Recalculate(nil)

		if !reflect.DeepEqual(want.Teams, e.Contest().Teams) {
			t.Fatalf("round %d: revealed contest differs from direct application", round)
		}
	}
}

func TestRevealedTeamsNeverClimb(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 8))
	for round := 0; round < 100; round++ {
		c, runs := randomContest(r)
		e := revelation.New(c, runs)

		settled := make(map[string]int)
		for {
			for login, team := range e.Contest().Teams {
				if team.IsWaiting() {
					continue
				}
				if k, ok := settled[login]; ok && team.PlacementGlobal < k {
					t.Fatalf("round %d: %s climbed from %d to %d", round, login, k, team.PlacementGlobal)
				} else if !ok {
					settled[login] = team.PlacementGlobal
				}
			}
			if e.IsEmpty() {
				break
			}
			if err := e.Step(); err != nil {
				t.Fatalf("round %d: step failed: %v", round, err)
			}
		}
	}
}

func TestRevelationIsDeterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(41, 43))
	c, runs := randomContest(r)

	trace := func() string {
		e := revelation.New(c, runs)
		var out string
		for !e.IsEmpty() {
			login, _ := e.Peek()
			out += fmt.Sprintf("%s:%d ", login, e.Len())
			if err := e.Step(); err != nil {
				t.Fatalf("step failed: %v", err)
			}
		}
		return out
	}

	first := trace()
	for i := 0; i < 5; i++ {
		if got := trace(); got != first {
			t.Fatalf("trace %d differs:\n%s\n%s", i, first, got)
		}
	}
}

func TestNewReportsSkippedRuns(t *testing.T) {
	c := newContest(60, "t1")
	runs := model.NewRunsLogFrom([]model.Run{
		run(1, 10, "t1", "A", "N"),
		run(2, 20, "ghost", "A", "Y"),
		{ID: 3, Time: 70, TeamLogin: "t1", Problem: "Z", Verdict: model.Rejected()},
	})
	e := revelation.New(c, runs)
	if e.Skipped() == nil || e.SkippedCount() != 2 {
		t.Fatalf("expected 2 skipped runs, got %d: %v", e.SkippedCount(), e.Skipped())
	}
	if p := e.Contest().Teams["t1"].Problems["A"]; p.Submissions != 1 {
		t.Fatalf("known runs must still apply: %+v", p)
	}

	clean := revelation.New(c, model.NewRunsLogFrom([]model.Run{run(1, 10, "t1", "A", "N")}))
	if clean.Skipped() != nil || clean.SkippedCount() != 0 {
		t.Fatalf("unexpected skipped runs: %v", clean.Skipped())
	}
}
