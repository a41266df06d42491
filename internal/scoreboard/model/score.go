package model

import (
	"cmp"
	"strings"
)

// Score is the ranking key of a team.
type Score struct {
	Solved       int    `json:"solved"`
	Penalty      int64  `json:"penalty"`
	MaxSolveTime int64  `json:"max_solve_time"`
	Login        string `json:"login"`
}

// Compare orders scores by rank: a negative result means s ranks ahead of o.
// More solved first, then lower penalty, then earlier last solve, then login.
func (s Score) Compare(o Score) int {
	if c := cmp.Compare(o.Solved, s.Solved); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Penalty, o.Penalty); c != 0 {
		return c
	}
	if c := cmp.Compare(s.MaxSolveTime, o.MaxSolveTime); c != 0 {
		return c
	}
	return strings.Compare(s.Login, o.Login)
}

// Better reports whether s ranks strictly ahead of o.
func (s Score) Better(o Score) bool {
	return s.Compare(o) < 0
}
