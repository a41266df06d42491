package model

// Timer is the contest clock in seconds.
type Timer struct {
	CurrentTime     int64 `json:"current_time"`
	ScoreFreezeTime int64 `json:"score_freeze_time"`
}

func (t Timer) Started() bool {
	return t.CurrentTime >= 0
}

func (t Timer) IsFrozen() bool {
	return t.CurrentTime >= t.ScoreFreezeTime
}
