package model

import (
	"cmp"
	"maps"
	"slices"
)

// RunsLog keeps the latest version of every run, keyed by run id.
type RunsLog struct {
	runs      map[int64]Run
	nextOrder uint64
}

func NewRunsLog() *RunsLog {
	return &RunsLog{runs: make(map[int64]Run)}
}

// NewRunsLogFrom builds a log from runs in the given order.
func NewRunsLogFrom(runs []Run) *RunsLog {
	l := NewRunsLog()
	l.UpsertBatch(runs)
	return l
}

// Upsert stores r and reports whether it was new or changed.
// Stored runs receive the next arrival order.
func (l *RunsLog) Upsert(r Run) bool {
	if existing, ok := l.runs[r.ID]; ok && existing.SameAs(r) {
		return false
	}
	l.nextOrder++
	r.Order = l.nextOrder
	l.runs[r.ID] = r
	return true
}

// UpsertBatch returns the fresh runs in batch order, with their arrival order stamped.
func (l *RunsLog) UpsertBatch(batch []Run) []Run {
	var fresh []Run
	for _, r := range batch {
		if l.Upsert(r) {
			fresh = append(fresh, l.runs[r.ID])
		}
	}
	return fresh
}

func (l *RunsLog) Get(id int64) (Run, bool) {
	r, ok := l.runs[id]
	return r, ok
}

func (l *RunsLog) Len() int {
	return len(l.runs)
}

// Runs returns the runs ordered by id.
func (l *RunsLog) Runs() []Run {
	out := make([]Run, 0, len(l.runs))
	for _, id := range slices.Sorted(maps.Keys(l.runs)) {
		out = append(out, l.runs[id])
	}
	return out
}

// SortedByTime returns the runs ordered by submit time, then id.
func (l *RunsLog) SortedByTime() []Run {
	out := slices.Collect(maps.Values(l.runs))
	SortRunsByTime(out)
	return out
}

// SortRunsByTime orders runs by submit time, then id.
func SortRunsByTime(runs []Run) {
	slices.SortFunc(runs, func(a, b Run) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// FilterByFreeze keeps the runs submitted before the freeze minute.
func (l *RunsLog) FilterByFreeze(freezeTime int64) *RunsLog {
	return l.filter(func(r Run) bool { return !r.IsFrozen(freezeTime) })
}

// FilterBySite keeps the runs of teams that belong to the site.
func (l *RunsLog) FilterBySite(site Membership) *RunsLog {
	if site == nil {
		return l.Clone()
	}
	return l.filter(func(r Run) bool { return site.Contains(r.TeamLogin) })
}

// PruneUnknownTeams drops runs of logins not present in teams and
// returns how many were dropped.
func (l *RunsLog) PruneUnknownTeams(teams map[string]*Team) int {
	pruned := 0
	for id, r := range l.runs {
		if _, ok := teams[r.TeamLogin]; !ok {
			delete(l.runs, id)
			pruned++
		}
	}
	return pruned
}

func (l *RunsLog) Clone() *RunsLog {
	return &RunsLog{runs: maps.Clone(l.runs), nextOrder: l.nextOrder}
}

func (l *RunsLog) filter(keep func(Run) bool) *RunsLog {
	out := &RunsLog{runs: make(map[int64]Run), nextOrder: l.nextOrder}
	for id, r := range l.runs {
		if keep(r) {
			out.runs[id] = r
		}
	}
	return out
}
