package model

import (
	"math/rand/v2"
	"reflect"
	"testing"
)

func TestProblemApply(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []Verdict
		want     Problem
	}{
		{
			name:     "single accepted",
			verdicts: []Verdict{Accepted(10)},
			want:     Problem{Solved: true, Submissions: 1, Penalty: 10, SolveTime: 10},
		},
		{
			name:     "rejected then accepted",
			verdicts: []Verdict{Rejected(), Accepted(15)},
			want:     Problem{Solved: true, Submissions: 2, Penalty: 35, SolveTime: 15},
		},
		{
			name:     "verdicts after solve are ignored",
			verdicts: []Verdict{Accepted(5), Rejected(), Accepted(50)},
			want:     Problem{Solved: true, Submissions: 1, Penalty: 5, SolveTime: 5},
		},
		{
			name:     "unknown is ignored",
			verdicts: []Verdict{Unknown(), Rejected()},
			want:     Problem{Submissions: 1, Penalty: 20},
		},
		{
			name:     "judging becomes a pending rejection",
			verdicts: []Verdict{Judging()},
			want:     Problem{pending: []Verdict{Rejected()}},
		},
		{
			name:     "accepted clears pending",
			verdicts: []Verdict{Judging(), Accepted(30)},
			want:     Problem{Solved: true, Submissions: 1, Penalty: 30, SolveTime: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Problem
			for _, v := range tt.verdicts {
				p.Apply(v, 20)
			}
			if !reflect.DeepEqual(p, tt.want) {
				t.Fatalf("got %+v, want %+v", p, tt.want)
			}
		})
	}
}

func TestProblemBufferDropsJudging(t *testing.T) {
	var p Problem
	p.Buffer(Judging())
	if p.IsWaiting() || p.PendingCount() != 0 {
		t.Fatalf("judging must not be buffered: %+v", p)
	}
	p.Buffer(Rejected())
	p.Buffer(Judging())
	p.Buffer(Accepted(70))
	if p.PendingCount() != 2 {
		t.Fatalf("expected 2 pending, got %d", p.PendingCount())
	}
	if p.Submissions != 0 || p.Penalty != 0 || p.Solved {
		t.Fatalf("buffer must not touch counters: %+v", p)
	}
}

func TestProblemRevealNext(t *testing.T) {
	var p Problem
	p.Apply(Rejected(), 20)
	p.Buffer(Accepted(70))

	if !p.IsWaiting() {
		t.Fatalf("expected waiting")
	}
	if !p.RevealNext(20) {
		t.Fatalf("expected progress")
	}
	want := Problem{Solved: true, Submissions: 2, Penalty: 90, SolveTime: 70}
	if !reflect.DeepEqual(p, want) {
		t.Fatalf("got %+v, want %+v", p, want)
	}
	if p.RevealNext(20) {
		t.Fatalf("solved problem must not reveal")
	}
}

func randomVerdict(r *rand.Rand) Verdict {
	switch r.IntN(3) {
	case 0:
		return Accepted(int64(r.IntN(300)))
	case 1:
		return Rejected()
	default:
		return Unknown()
	}
}

// Buffering decided verdicts and revealing them all matches applying them directly.
func TestProblemFreezeEquivalence(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 2000; i++ {
		n := r.IntN(9)
		verdicts := make([]Verdict, n)
		for j := range verdicts {
			verdicts[j] = randomVerdict(r)
		}

		var direct, buffered Problem
		for _, v := range verdicts {
			direct.Apply(v, 20)
			buffered.Buffer(v)
		}
		for buffered.RevealNext(20) {
		}

		if !reflect.DeepEqual(direct, buffered) {
			t.Fatalf("sequence %v: direct %+v, buffered %+v", verdicts, direct, buffered)
		}
	}
}

func TestProblemCloneIsDeep(t *testing.T) {
	var p Problem
	p.Buffer(Rejected())
	c := p.Clone()
	c.RevealNext(20)
	if p.PendingCount() != 1 {
		t.Fatalf("clone shares pending queue")
	}
}

func TestProblemJSONHidesPending(t *testing.T) {
	var p Problem
	p.Buffer(Accepted(80))
	data, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	got := string(data)
	want := `{"solved":false,"submissions":0,"penalty":0,"solve_time":0,"pending":1}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestProblemJSONRoundTripKeepsCounters(t *testing.T) {
	p := Problem{Solved: true, Submissions: 2, Penalty: 50, SolveTime: 30, SolvedFirst: true}
	var other Problem
	other.Apply(Rejected(), 20)
	other.Buffer(Accepted(250))
	for _, src := range []*Problem{&p, &other} {
		data, err := src.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var got Problem
		if err := got.UnmarshalJSON(data); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if got.Solved != src.Solved || got.Submissions != src.Submissions || got.Penalty != src.Penalty ||
			got.SolveTime != src.SolveTime || got.SolvedFirst != src.SolvedFirst {
			t.Fatalf("counters changed: got %+v, want %+v", got, *src)
		}
		if got.PendingCount() != src.PendingCount() {
			t.Fatalf("pending count %d, want %d", got.PendingCount(), src.PendingCount())
		}
	}
}
