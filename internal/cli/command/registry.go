package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"scoreboard/internal/cli/reveal"
	"scoreboard/internal/cli/state"
	"scoreboard/internal/scoreboard/service"
	"scoreboard/internal/scoreboard/site"
	"scoreboard/internal/scoreboard/view"
	"scoreboard/internal/scoreboard/webcast"
	pkgerrors "scoreboard/pkg/errors"
)

// Registry returns every console command by name.
func Registry() map[string]Command {
	commands := []Command{
		{Name: "load", Usage: "load <archive> [site]", Summary: "reveal an archive locally", MinArgs: 1, MaxArgs: 2, Run: runLoad},
		{Name: "connect", Usage: "connect <contest> <secret>", Summary: "open a reveal session on the server", MinArgs: 2, MaxArgs: 2, Run: runConnect},
		{Name: "resume", Usage: "resume", Summary: "reattach to the saved server session", MaxArgs: 0, Run: runResume},
		{Name: "close", Usage: "close", Summary: "end the current session", MaxArgs: 0, Run: runClose},
		{Name: "step", Usage: "step", Summary: "reveal one verdict", MaxArgs: 0, Run: action(service.ActionStep)},
		{Name: "top", Usage: "top <n>", Summary: "reveal until n teams are left", MinArgs: 1, MaxArgs: 1, Run: runTop},
		{Name: "jump", Usage: "jump", Summary: "finish the team in the spotlight", MaxArgs: 0, Run: action(service.ActionJump)},
		{Name: "back", Usage: "back", Summary: "undo the last step", MaxArgs: 0, Run: action(service.ActionBack)},
		{Name: "restart", Usage: "restart", Summary: "rewind to the frozen standings", MaxArgs: 0, Run: action(service.ActionRestart)},
		{Name: "peek", Usage: "peek", Summary: "show the team revealed next", MaxArgs: 0, Run: runPeek},
		{Name: "show", Usage: "show [site]", Summary: "print the standings", MaxArgs: 1, Run: runShow},
		{Name: "trace", Usage: "trace", Summary: "step to the end printing the queue", MaxArgs: 0, Run: runTrace},
	}
	out := make(map[string]Command, len(commands))
	for _, c := range commands {
		out[c.Name] = c
	}
	return out
}

// Names lists the registered commands in order.
func Names(commands map[string]Command) []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookupSite(env *Env, name string) (*site.Site, error) {
	if env.Sites == nil {
		return nil, pkgerrors.Newf(pkgerrors.SiteNotFound, "site %s not found, no site config loaded", name)
	}
	return env.Sites.Lookup(name)
}

func runLoad(ctx context.Context, env *Env, args []string) error {
	var st *site.Site
	if len(args) == 2 {
		found, err := lookupSite(env, args[1])
		if err != nil {
			return err
		}
		st = found
	}
	source, err := webcast.NewSource(args[0], nil)
	if err != nil {
		return err
	}
	d, err := reveal.LoadLocal(ctx, source, st)
	if err != nil {
		return err
	}
	replaceDriver(ctx, env, d)
	v, _ := d.View(ctx)
	env.printf("loaded %s: %d teams queued", d.Name(), v.Remaining)
	if d.Dropped > 0 {
		env.printf("%d runs dropped from the archive", d.Dropped)
	}
	return nil
}

func runConnect(ctx context.Context, env *Env, args []string) error {
	d, v, err := reveal.Connect(ctx, env.BaseURL, env.Timeout, args[0], args[1])
	if err != nil {
		return err
	}
	replaceDriver(ctx, env, d)
	if env.StatePath != "" {
		if err := state.Save(env.StatePath, d.State()); err != nil {
			env.printf("warning: %v", err)
		}
	}
	env.printf("connected to %s: %d teams queued", d.Name(), v.Remaining)
	return nil
}

func runResume(ctx context.Context, env *Env, _ []string) error {
	st, err := state.Load(env.StatePath)
	if err != nil {
		return err
	}
	if st.Empty() {
		return pkgerrors.New(pkgerrors.RevealSessionNotFound).WithMessage("no saved session")
	}
	d := reveal.Resume(st, env.Timeout)
	v, err := d.View(ctx)
	if err != nil {
		return err
	}
	replaceDriver(ctx, env, d)
	printSummary(env, v)
	return nil
}

func runClose(ctx context.Context, env *Env, _ []string) error {
	d, err := env.driver()
	if err != nil {
		return err
	}
	if err := d.Close(ctx); err != nil {
		return err
	}
	if _, ok := d.(*reveal.RemoteDriver); ok && env.StatePath != "" {
		if err := state.Clear(env.StatePath); err != nil {
			env.printf("warning: %v", err)
		}
	}
	env.Driver = nil
	env.printf("closed %s", d.Name())
	return nil
}

// replaceDriver ends a local predecessor; remote sessions stay open on the
// server so they can be resumed.
func replaceDriver(ctx context.Context, env *Env, d reveal.Driver) {
	if prev, ok := env.Driver.(*reveal.LocalDriver); ok {
		_ = prev.Close(ctx)
	}
	env.Driver = d
}

func action(name string) func(context.Context, *Env, []string) error {
	return func(ctx context.Context, env *Env, _ []string) error {
		return act(ctx, env, name, 0)
	}
}

func runTop(ctx context.Context, env *Env, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return pkgerrors.Newf(pkgerrors.InvalidParams, "top needs a non-negative count, got %q", args[0])
	}
	return act(ctx, env, service.ActionTop, n)
}

func act(ctx context.Context, env *Env, name string, n int) error {
	d, err := env.driver()
	if err != nil {
		return err
	}
	v, err := d.Act(ctx, name, n)
	if err != nil {
		return err
	}
	printSummary(env, v)
	return nil
}

func runPeek(ctx context.Context, env *Env, _ []string) error {
	d, err := env.driver()
	if err != nil {
		return err
	}
	v, err := d.View(ctx)
	if err != nil {
		return err
	}
	if v.Next == "" {
		env.printf("queue is empty")
		return nil
	}
	env.printf("%s", v.Next)
	return nil
}

func runShow(ctx context.Context, env *Env, args []string) error {
	d, err := env.driver()
	if err != nil {
		return err
	}
	v, err := d.View(ctx)
	if err != nil {
		return err
	}
	rows := v.Standings
	if len(args) == 1 {
		st, err := lookupSite(env, args[0])
		if err != nil {
			return err
		}
		rows = filterRows(rows, st)
	}
	printSummary(env, v)
	printRows(env, rows)
	return nil
}

// filterRows keeps the members of st and renumbers them in order.
func filterRows(rows []view.Row, st *site.Site) []view.Row {
	out := make([]view.Row, 0, len(rows))
	for _, r := range rows {
		if !st.Contains(r.Login) {
			continue
		}
		r.Placement = len(out) + 1
		r.Medal = st.Medal(r.Placement)
		out = append(out, r)
	}
	return out
}

func runTrace(ctx context.Context, env *Env, _ []string) error {
	d, err := env.driver()
	if err != nil {
		return err
	}
	v, err := d.View(ctx)
	if err != nil {
		return err
	}
	for v.Remaining > 0 {
		env.printf("%s %d", v.Next, v.Remaining)
		if v, err = d.Act(ctx, service.ActionStep, 0); err != nil {
			return err
		}
	}
	printSummary(env, v)
	return nil
}

func printSummary(env *Env, v service.RevealView) {
	line := fmt.Sprintf("%s: %d steps, %d queued", v.State, v.Steps, v.Remaining)
	if v.Spotlight != "" {
		line += ", spotlight " + v.Spotlight
	}
	env.printf("%s", line)
}

// printRows renders the standings. SESSION is the rank among every team the
// reveal was opened for, which for a site-scoped session is the site itself.
func printRows(env *Env, rows []view.Row) {
	w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tSESSION\tTEAM\tSOLVED\tPENALTY\tMEDAL")
	for _, r := range rows {
		name := r.Name
		if name == "" {
			name = r.Login
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\t%s\n",
			r.Placement, r.PlacementGlobal, name, r.Score.Solved, r.Score.Penalty, strings.ToUpper(string(r.Medal)))
	}
	_ = w.Flush()
}
