package model

// PanelItem projects a run against the current standings for the live feed.
type PanelItem struct {
	ID          int64   `json:"id"`
	Time        int64   `json:"time"`
	TeamLogin   string  `json:"team_login"`
	TeamName    string  `json:"team_name"`
	Affiliation string  `json:"affiliation"`
	Problem     string  `json:"problem"`
	Placement   int     `json:"placement"`
	Verdict     Verdict `json:"verdict"`
}
