package view

import (
	"cmp"
	"maps"
	"slices"

	"scoreboard/internal/scoreboard/model"
	"scoreboard/internal/scoreboard/revelation"
	"scoreboard/internal/scoreboard/site"
)

// OrderedLogins lists logins by global placement.
func OrderedLogins(c *model.Contest) []string {
	teams := slices.Collect(maps.Values(c.Teams))
	slices.SortFunc(teams, func(a, b *model.Team) int {
		if d := cmp.Compare(a.PlacementGlobal, b.PlacementGlobal); d != 0 {
			return d
		}
		return cmp.Compare(a.Login, b.Login)
	})
	logins := make([]string, len(teams))
	for i, t := range teams {
		logins[i] = t.Login
	}
	return logins
}

// CompressedPlacements numbers the members of site 1..k in global order.
func CompressedPlacements(c *model.Contest, s model.Membership) map[string]int {
	out := make(map[string]int)
	for _, login := range OrderedLogins(c) {
		if s == nil || s.Contains(login) {
			out[login] = len(out) + 1
		}
	}
	return out
}

// Row is one line of the standings table.
type Row struct {
	Placement       int                       `json:"placement"`
	PlacementGlobal int                       `json:"placement_global"`
	Login           string                    `json:"login"`
	Name            string                    `json:"name"`
	Affiliation     string                    `json:"affiliation"`
	Score           model.Score               `json:"score"`
	Medal           site.Medal                `json:"medal,omitempty"`
	Problems        map[string]*model.Problem `json:"problems"`
}

// Standings lists the teams of s in placement order with their medals.
// A nil site lists every team without medals.
func Standings(c *model.Contest, s *site.Site) []Row {
	var member model.Membership
	if s != nil {
		member = s
	}
	local := CompressedPlacements(c, member)

	rows := make([]Row, 0, len(local))
	for _, login := range OrderedLogins(c) {
		placement, ok := local[login]
		if !ok {
			continue
		}
		t := c.Teams[login]
		row := Row{
			Placement:       placement,
			PlacementGlobal: t.PlacementGlobal,
			Login:           t.Login,
			Name:            t.Name,
			Affiliation:     t.Affiliation,
			Score:           t.Score(),
			Problems:        t.Problems,
		}
		if s != nil {
			row.Medal = s.Medal(placement)
		}
		rows = append(rows, row)
	}
	return rows
}

// Spotlight is the team a revelation is about to reveal, while it is running.
func Spotlight(e *revelation.Engine) (string, bool) {
	if e.State() != revelation.StateInProgress {
		return "", false
	}
	return e.Peek()
}
