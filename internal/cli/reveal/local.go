package reveal

import (
	"context"
	"fmt"

	"scoreboard/internal/scoreboard/model"
	"scoreboard/internal/scoreboard/revelation"
	"scoreboard/internal/scoreboard/service"
	"scoreboard/internal/scoreboard/site"
	"scoreboard/internal/scoreboard/webcast"
)

// LocalDriver runs the engine in process over a full archive.
type LocalDriver struct {
	name   string
	site   *site.Site
	engine *revelation.Engine
	// Dropped counts runs that were left out of the archive.
	Dropped int
}

// LoadLocal fetches and decodes an archive and builds an engine for the
// teams of st, or every team when st is nil.
func LoadLocal(ctx context.Context, source webcast.Source, st *site.Site) (*LocalDriver, error) {
	blob, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	archive, err := webcast.Decode(blob)
	if err != nil {
		return nil, err
	}
	return NewLocal(archive, st), nil
}

func NewLocal(archive *webcast.Archive, st *site.Site) *LocalDriver {
	contest := archive.Contest
	runs := model.NewRunsLogFrom(archive.Runs)
	dropped := len(archive.Invalid) + runs.PruneUnknownTeams(contest.Teams)

	var opts []revelation.Option
	if st != nil {
		contest = contest.FilterBySite(st)
		runs = runs.FilterBySite(st)
		opts = append(opts, revelation.WithSite(st))
	}
	engine := revelation.New(contest, runs, opts...)
	return &LocalDriver{
		name:    contest.Name,
		site:    st,
		engine:  engine,
		Dropped: dropped + engine.SkippedCount(),
	}
}

func (d *LocalDriver) Name() string {
	if d.site != nil {
		return fmt.Sprintf("local %s (%s)", d.name, d.site.Name)
	}
	return "local " + d.name
}

func (d *LocalDriver) View(context.Context) (service.RevealView, error) {
	return service.BuildRevealView(d.name, d.site, d.engine), nil
}

func (d *LocalDriver) Act(_ context.Context, action string, n int) (service.RevealView, error) {
	if err := service.ApplyRevealAction(d.engine, action, n); err != nil {
		return service.RevealView{}, err
	}
	return service.BuildRevealView(d.name, d.site, d.engine), nil
}

func (d *LocalDriver) Close(context.Context) error { return nil }
