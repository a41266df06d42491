package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"scoreboard/internal/common/broadcast"
	"scoreboard/internal/scoreboard/model"
	"scoreboard/internal/scoreboard/repository"
	"scoreboard/internal/scoreboard/site"
	"scoreboard/internal/scoreboard/view"
	"scoreboard/internal/scoreboard/webcast"
	pkgerrors "scoreboard/pkg/errors"
	"scoreboard/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultSinkTimeout = 5 * time.Second

// ContestOptions configures one contest.
type ContestOptions struct {
	Sites     *site.Config
	Secrets   *site.SecretConfig
	PanelSize int
}

// ContestService owns the live state of one contest: the public runs log and
// standings, the unmasked log behind the secret gate, and the runs and timer
// streams.
type ContestService struct {
	name        string
	sites       *site.Config
	secrets     *site.SecretTable
	sinks       []RunSink
	sinkTimeout time.Duration
	metrics     *Metrics
	snapshots   *repository.SnapshotRepository

	refreshMu sync.Mutex

	mu      sync.RWMutex
	header  *model.Contest
	public  *model.Contest
	runs    *model.RunsLog
	secret  *model.RunsLog
	timer   model.Timer
	panel   *view.PanelRing
	version uint64

	runsFeed  *broadcast.Memoized[model.Run]
	timerFeed *broadcast.Memoized[model.Timer]
}

func NewContestService(name string, opts ContestOptions, deps Dependencies) *ContestService {
	sites := opts.Sites
	if sites == nil {
		sites = site.Default(name)
	}
	sinkTimeout := deps.SinkTimeout
	if sinkTimeout <= 0 {
		sinkTimeout = defaultSinkTimeout
	}
	return &ContestService{
		name:        name,
		sites:       sites,
		secrets:     opts.Secrets.Table(sites),
		sinks:       deps.Sinks,
		sinkTimeout: sinkTimeout,
		metrics:     deps.Metrics,
		snapshots:   deps.Snapshots,
		runs:        model.NewRunsLog(),
		secret:      model.NewRunsLog(),
		timer:       model.Timer{CurrentTime: -1},
		panel:       view.NewPanelRing(opts.PanelSize),
		runsFeed:    broadcast.NewMemoized[model.Run](),
		timerFeed:   broadcast.NewMemoized[model.Timer](),
	}
}

func (s *ContestService) Name() string { return s.name }

// Refresh applies one decoded snapshot and returns the runs that were new or
// changed. Fresh runs are published before the timer tick of the same call.
func (s *ContestService) Refresh(ctx context.Context, archive *webcast.Archive) ([]model.Run, error) {
	if archive == nil || archive.Contest == nil {
		return nil, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("archive has no contest")
	}
	ctx = logger.WithContest(ctx, s.name)

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	for _, err := range archive.Invalid {
		logger.Warn(ctx, "run rejected from batch", zap.Error(err))
	}
	s.metrics.AddDropped(s.name, "invalid_verdict", len(archive.Invalid))

	header := archive.Contest.Blank()
	incoming := model.NewRunsLogFrom(archive.Runs)
	if pruned := incoming.PruneUnknownTeams(header.Teams); pruned > 0 {
		logger.Warn(ctx, "runs of unknown teams dropped", zap.Int("count", pruned))
		s.metrics.AddDropped(s.name, "unknown_team", pruned)
	}
	visible := incoming.FilterByFreeze(header.ScoreFreezeTime)

	s.mu.Lock()
	fresh := s.runs.UpsertBatch(visible.SortedByTime())

	// A run published before the freeze moved earlier stays in the public
	// log and must not be replayed a second time as a hidden one.
	var frozen []model.Run
	for _, r := range incoming.SortedByTime() {
		if !r.IsFrozen(header.ScoreFreezeTime) {
			continue
		}
		if _, seen := s.runs.Get(r.ID); seen {
			continue
		}
		frozen = append(frozen, r.Masked())
	}

	publicRuns := s.runs.SortedByTime()
	model.AnnotateFirstSolved(publicRuns)
	first := make(map[int64]bool)
	for _, r := range publicRuns {
		if r.Verdict.First {
			first[r.ID] = true
		}
	}

	public := header.Clone()
	if err := public.Replay(append(publicRuns, frozen...), true); err != nil {
		logger.Warn(ctx, "runs skipped on replay", zap.Error(err))
	}
	public.Recalculate(nil)

	for i := range fresh {
		fresh[i].Verdict.First = first[fresh[i].ID]
		item, err := public.BuildPanelItem(fresh[i])
		if err != nil {
			continue
		}
		s.panel.Push(item)
	}

	s.header = header
	s.public = public
	s.secret = incoming
	s.timer = header.Timer(archive.Time)
	s.version++
	timer := s.timer
	s.mu.Unlock()

	for _, r := range fresh {
		s.runsFeed.Send(r)
	}
	s.timerFeed.Send(timer)

	s.metrics.AddFresh(s.name, len(fresh))
	if len(fresh) > 0 {
		logger.Debug(ctx, "fresh runs published", zap.Int("count", len(fresh)))
		s.dispatch(ctx, fresh)
	}
	return fresh, nil
}

// dispatch hands fresh runs to every sink. Each sink gets at most
// sinkTimeout so a stalled broker cannot hold up the next tick.
func (s *ContestService) dispatch(ctx context.Context, fresh []model.Run) {
	for _, sink := range s.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
		err := sink.Consume(sinkCtx, s.name, fresh)
		cancel()
		if err != nil {
			logger.Warn(ctx, "run sink failed", zap.String("sink", sink.Name()), zap.Error(err))
			s.metrics.AddDropped(s.name, "sink_"+sink.Name(), len(fresh))
		}
	}
}

// Version changes every time a snapshot is applied.
func (s *ContestService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *ContestService) Timer() model.Timer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timer
}

func (s *ContestService) Config() *site.Config {
	return s.sites
}

// Panel returns the latest panel items, newest first.
func (s *ContestService) Panel() []model.PanelItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panel.Items()
}

func (s *ContestService) lookupSite(name string) (*site.Site, error) {
	if name == "" {
		return nil, nil
	}
	return s.sites.Lookup(name)
}

// started returns the public contest and version once the clock is running.
// Callers must hold s.mu.
func (s *ContestService) started() (*model.Contest, uint64, error) {
	if s.public == nil || !s.timer.Started() {
		return nil, 0, pkgerrors.Newf(pkgerrors.ContestNotStarted, "contest %s has not started", s.name)
	}
	return s.public, s.version, nil
}

// published returns the public contest together with the version it was
// applied under. The contest is replaced on refresh, never mutated, so it
// may be read after the lock is released.
func (s *ContestService) published() (*model.Contest, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started()
}

func siteSnapshot(public *model.Contest, st *site.Site) *model.Contest {
	c := public.Clone()
	if st == nil {
		return c
	}
	c.Recalculate(st)
	return c.FilterBySite(st)
}

// Snapshot returns the public standings, restricted to siteName when set.
// Teams keep their global placement; placement is local to the site.
func (s *ContestService) Snapshot(siteName string) (*model.Contest, error) {
	st, err := s.lookupSite(siteName)
	if err != nil {
		return nil, err
	}
	public, _, err := s.published()
	if err != nil {
		return nil, err
	}
	return siteSnapshot(public, st), nil
}

// SnapshotJSON is Snapshot encoded, served from the snapshot cache when one
// is configured.
func (s *ContestService) SnapshotJSON(ctx context.Context, siteName string) ([]byte, error) {
	st, err := s.lookupSite(siteName)
	if err != nil {
		return nil, err
	}
	public, version, err := s.published()
	if err != nil {
		return nil, err
	}
	return s.cached(ctx, "contest:"+siteName, version, func() interface{} {
		return siteSnapshot(public, st)
	})
}

// Standings returns the rows of siteName, or of every team when empty.
func (s *ContestService) Standings(siteName string) ([]view.Row, error) {
	st, err := s.lookupSite(siteName)
	if err != nil {
		return nil, err
	}
	public, _, err := s.published()
	if err != nil {
		return nil, err
	}
	return view.Standings(public.Clone(), st), nil
}

func (s *ContestService) StandingsJSON(ctx context.Context, siteName string) ([]byte, error) {
	st, err := s.lookupSite(siteName)
	if err != nil {
		return nil, err
	}
	public, version, err := s.published()
	if err != nil {
		return nil, err
	}
	return s.cached(ctx, "standings:"+siteName, version, func() interface{} {
		return view.Standings(public.Clone(), st)
	})
}

// cached encodes the view built from the contest published as version,
// so the key always names the data stored under it.
func (s *ContestService) cached(ctx context.Context, viewName string, version uint64, load func() interface{}) ([]byte, error) {
	build := func(context.Context) ([]byte, error) {
		data, err := json.Marshal(load())
		if err != nil {
			return nil, pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "encode %s: %v", viewName, err)
		}
		return data, nil
	}
	if s.snapshots == nil {
		return build(ctx)
	}
	key := repository.SnapshotKey{Contest: s.name, View: viewName, Version: version}
	return s.snapshots.Get(ctx, key, build)
}

// SecretRuns returns the unmasked runs of the site unlocked by secret.
func (s *ContestService) SecretRuns(secret string) ([]model.Run, error) {
	st, err := s.secrets.Resolve(secret)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	runs := s.secret.FilterBySite(st).SortedByTime()
	s.mu.RUnlock()
	model.AnnotateFirstSolved(runs)
	return runs, nil
}

// RevealInput returns what a revelation of the site unlocked by secret
// starts from: the teams of the site with no score and their unmasked runs.
func (s *ContestService) RevealInput(secret string) (*model.Contest, *model.RunsLog, *site.Site, error) {
	st, err := s.secrets.Resolve(secret)
	if err != nil {
		return nil, nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.header == nil {
		return nil, nil, nil, pkgerrors.Newf(pkgerrors.ContestNotStarted, "contest %s has not started", s.name)
	}
	runs := s.secret.FilterBySite(st).SortedByTime()
	model.AnnotateFirstSolved(runs)
	return s.header.FilterBySite(st), model.NewRunsLogFrom(runs), st, nil
}

// SubscribeRuns replays every published run, then follows new ones.
func (s *ContestService) SubscribeRuns(buffer int) *broadcast.Subscription[model.Run] {
	return s.runsFeed.Subscribe(buffer)
}

// SubscribeTimer replays every timer tick, then follows new ones.
func (s *ContestService) SubscribeTimer(buffer int) *broadcast.Subscription[model.Timer] {
	return s.timerFeed.Subscribe(buffer)
}

func (s *ContestService) Metrics() *Metrics { return s.metrics }

// Close ends every open stream.
func (s *ContestService) Close() {
	s.runsFeed.Close()
	s.timerFeed.Close()
}

// TeamEntry describes a team in an uploaded contest header.
type TeamEntry struct {
	Login       string `json:"login" binding:"required"`
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
}

// ContestHeader is the uploaded form of the contest file.
type ContestHeader struct {
	Name            string      `json:"name"`
	MaximumTime     int64       `json:"maximum_time"`
	CurrentTime     int64       `json:"current_time"`
	ScoreFreezeTime int64       `json:"score_freeze_time"`
	Penalty         int64       `json:"penalty"`
	ProblemCount    int         `json:"problem_count"`
	Teams           []TeamEntry `json:"teams"`
}

func (h *ContestHeader) contest() *model.Contest {
	teams := make([]*model.Team, 0, len(h.Teams))
	for _, t := range h.Teams {
		teams = append(teams, model.NewTeam(t.Login, t.Affiliation, t.Name))
	}
	return model.NewContest(h.Name, teams, h.MaximumTime, h.CurrentTime, h.ScoreFreezeTime, h.Penalty, h.ProblemCount)
}

// StateUpload replaces the runs and clock of a contest in one batch.
// Contest may be omitted once a header has been ingested.
type StateUpload struct {
	Time    int64          `json:"time"`
	Contest *ContestHeader `json:"contest,omitempty"`
	Runs    []model.Run    `json:"runs"`
}

// UploadState applies an uploaded batch as if it came from the webcast.
func (s *ContestService) UploadState(ctx context.Context, state StateUpload) ([]model.Run, error) {
	var header *model.Contest
	if state.Contest != nil {
		header = state.Contest.contest()
	} else {
		s.mu.RLock()
		if s.header != nil {
			header = s.header.Clone()
		}
		s.mu.RUnlock()
	}
	if header == nil {
		return nil, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("contest header is required for the first upload")
	}
	if header.Name == "" {
		header.Name = s.name
	}
	return s.Refresh(ctx, &webcast.Archive{Time: state.Time, Contest: header, Runs: state.Runs})
}

// ContestSummary is the listing entry of a contest.
type ContestSummary struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Teams       int    `json:"teams"`
	Runs        int    `json:"runs"`
	CurrentTime int64  `json:"current_time"`
	Started     bool   `json:"started"`
	Version     uint64 `json:"version"`
}

func (s *ContestService) Summary() ContestSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := ContestSummary{
		Name:        s.name,
		Runs:        s.runs.Len(),
		CurrentTime: s.timer.CurrentTime,
		Started:     s.timer.Started() && s.public != nil,
		Version:     s.version,
	}
	if s.header != nil {
		sum.Title = s.header.Name
		sum.Teams = len(s.header.Teams)
	}
	return sum
}

// Dependencies are the shared collaborators of every contest.
type Dependencies struct {
	Sinks []RunSink
	// SinkTimeout bounds each sink call of a tick. Zero means defaultSinkTimeout.
	SinkTimeout time.Duration
	Metrics     *Metrics
	Snapshots   *repository.SnapshotRepository
}
