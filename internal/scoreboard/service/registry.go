package service

import (
	"context"
	"slices"
	"sync"

	"scoreboard/internal/scoreboard/webcast"
	pkgerrors "scoreboard/pkg/errors"

	"golang.org/x/sync/errgroup"
)

// Registry holds every contest served by the process and their ingestors.
type Registry struct {
	deps Dependencies

	mu        sync.RWMutex
	contests  map[string]*ContestService
	ingestors map[string]*Ingestor
}

func NewRegistry(deps Dependencies) *Registry {
	return &Registry{
		deps:      deps,
		contests:  make(map[string]*ContestService),
		ingestors: make(map[string]*Ingestor),
	}
}

// Create registers a contest. Names are unique.
func (r *Registry) Create(name string, opts ContestOptions) (*ContestService, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithMessage("contest name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contests[name]; ok {
		return nil, pkgerrors.Newf(pkgerrors.ContestAlreadyExists, "contest %s already exists", name)
	}
	c := NewContestService(name, opts, r.deps)
	r.contests[name] = c
	return c, nil
}

// Watch attaches a polling ingestor to a registered contest.
func (r *Registry) Watch(name string, source webcast.Source, opts IngestOptions) (*Ingestor, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ingestors[name]; ok {
		return nil, pkgerrors.Newf(pkgerrors.Conflict, "contest %s is already watched", name)
	}
	ing := NewIngestor(c, source, opts)
	r.ingestors[name] = ing
	return ing, nil
}

func (r *Registry) Get(name string) (*ContestService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contests[name]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.ContestNotFound, "contest %s not found", name)
	}
	return c, nil
}

// Names returns the registered contest names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.contests))
	for name := range r.contests {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) List() []ContestSummary {
	names := r.Names()
	out := make([]ContestSummary, 0, len(names))
	for _, name := range names {
		c, err := r.Get(name)
		if err != nil {
			continue
		}
		out = append(out, c.Summary())
	}
	return out
}

// Run drives every ingestor until ctx is done, then closes the streams.
func (r *Registry) Run(ctx context.Context) error {
	r.mu.RLock()
	ingestors := make([]*Ingestor, 0, len(r.ingestors))
	for _, ing := range r.ingestors {
		ingestors = append(ingestors, ing)
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, ing := range ingestors {
		g.Go(func() error {
			return ing.Run(gctx)
		})
	}
	err := g.Wait()
	r.Close()
	return err
}

// Close ends the streams of every contest.
func (r *Registry) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contests {
		c.Close()
	}
}
