package model

// Run is one judged submission. Time is in contest minutes.
// Order is stamped by the runs log when the run is stored.
type Run struct {
	ID        int64   `json:"id"`
	Time      int64   `json:"time"`
	TeamLogin string  `json:"team_login"`
	Problem   string  `json:"problem"`
	Verdict   Verdict `json:"verdict"`
	Order     uint64  `json:"order"`
}

// SameAs compares everything but the arrival order.
func (r Run) SameAs(o Run) bool {
	return r.ID == o.ID &&
		r.Time == o.Time &&
		r.TeamLogin == o.TeamLogin &&
		r.Problem == o.Problem &&
		r.Verdict == o.Verdict
}

// IsFrozen reports whether the run was submitted at or after the freeze minute.
func (r Run) IsFrozen(freezeTime int64) bool {
	return r.Time >= freezeTime
}

// Masked hides the outcome of a frozen run.
func (r Run) Masked() Run {
	r.Verdict = Unknown()
	return r
}

// AnnotateFirstSolved marks the earliest accepted run of every problem.
// runs must be sorted by time.
func AnnotateFirstSolved(runs []Run) {
	seen := make(map[string]bool)
	for i := range runs {
		if !runs[i].Verdict.IsAccepted() {
			continue
		}
		runs[i].Verdict.First = !seen[runs[i].Problem]
		seen[runs[i].Problem] = true
	}
}
