package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"scoreboard/internal/cli/command"
	"scoreboard/internal/cli/reveal"
	"scoreboard/internal/scoreboard/model"
	"scoreboard/internal/scoreboard/webcast"
)

func newSession() (*Session, *bytes.Buffer) {
	teams := []*model.Team{
		model.NewTeam("a1", "", "Alpha"),
		model.NewTeam("b1", "", "Beta"),
	}
	archive := &webcast.Archive{
		Contest: model.NewContest("Open", teams, 300, 300, 240, 20, 1),
		Runs: []model.Run{
			{ID: 1, Time: 20, TeamLogin: "a1", Problem: "A", Verdict: model.Accepted(20)},
			{ID: 2, Time: 260, TeamLogin: "b1", Problem: "A", Verdict: model.Accepted(260)},
		},
	}
	out := &bytes.Buffer{}
	env := &command.Env{Driver: reveal.NewLocal(archive, nil), Out: out}
	return New(env, command.Registry(), "> ", ""), out
}

func TestExecute(t *testing.T) {
	tests := []struct {
		line string
		want string
		more bool
	}{
		{line: "", want: "", more: true},
		{line: "peek", want: "b1", more: true},
		{line: "dance", want: `unknown command "dance"`, more: true},
		{line: "top", want: "usage: top <n>", more: true},
		{line: `show "unterminated`, want: "parse command failed", more: true},
		{line: "set timeout 3s", want: "timeout set to 3s", more: true},
		{line: "set timeout soon", want: "invalid duration", more: true},
		{line: "help", want: "reveal one verdict", more: true},
		{line: "exit", want: "bye", more: false},
	}
	for _, tt := range tests {
		s, out := newSession()
		more := s.Execute(context.Background(), tt.line)
		if more != tt.more {
			t.Fatalf("%q: continue=%v, want %v", tt.line, more, tt.more)
		}
		if !strings.Contains(out.String(), tt.want) {
			t.Fatalf("%q: output %q does not contain %q", tt.line, out.String(), tt.want)
		}
	}
}

func TestExecuteSetUpdatesEnv(t *testing.T) {
	s, _ := newSession()
	s.Execute(context.Background(), "set base http://example.test:9000")
	s.Execute(context.Background(), "set timeout 4s")
	if s.env.BaseURL != "http://example.test:9000" || s.env.Timeout != 4*time.Second {
		t.Fatalf("set did not update env: %+v", s.env)
	}
}

func TestExecuteRevealsToTheEnd(t *testing.T) {
	s, out := newSession()
	for _, line := range []string{"step", "step", "show"} {
		s.Execute(context.Background(), line)
	}
	got := out.String()
	if !strings.Contains(got, "complete: 2 steps, 0 queued") {
		t.Fatalf("reveal did not finish: %s", got)
	}
	if strings.Index(got, "Alpha") > strings.Index(got, "Beta") {
		t.Fatalf("Alpha should lead on time: %s", got)
	}
}
