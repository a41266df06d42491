package revelation

import "scoreboard/internal/scoreboard/model"

type entry struct {
	login string
	score model.Score
}

// worstFirst is a container/heap ordered so the lowest ranked team pops first.
type worstFirst []entry

func (q worstFirst) Len() int { return len(q) }

func (q worstFirst) Less(i, j int) bool {
	return q[i].score.Compare(q[j].score) > 0
}

func (q worstFirst) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *worstFirst) Push(x any) { *q = append(*q, x.(entry)) }

func (q *worstFirst) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}
