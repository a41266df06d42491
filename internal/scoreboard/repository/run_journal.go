package repository

import (
	"context"
	"strings"

	"scoreboard/internal/common/db"
	"scoreboard/internal/scoreboard/model"
	pkgerrors "scoreboard/pkg/errors"
)

const runJournalSchema = `
	CREATE TABLE IF NOT EXISTS scoreboard_runs (
		contest       VARCHAR(128) NOT NULL,
		run_id        BIGINT       NOT NULL,
		submit_time   BIGINT       NOT NULL,
		team_login    VARCHAR(128) NOT NULL,
		problem       VARCHAR(8)   NOT NULL,
		verdict       CHAR(1)      NOT NULL,
		arrival_order BIGINT       NOT NULL,
		updated_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (contest, run_id)
	)
`

const runJournalColumns = "run_id, submit_time, team_login, problem, verdict, arrival_order"

// RunJournal keeps the latest version of every ingested run.
type RunJournal interface {
	Append(ctx context.Context, contest string, runs []model.Run) error
	LoadRuns(ctx context.Context, contest string) ([]model.Run, error)
}

// MySQLRunJournal implements RunJournal with MySQL.
type MySQLRunJournal struct {
	db db.Database
}

func NewMySQLRunJournal(database db.Database) *MySQLRunJournal {
	return &MySQLRunJournal{db: database}
}

// EnsureSchema creates the journal table when missing.
func (j *MySQLRunJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, runJournalSchema); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.DatabaseError, "create scoreboard_runs: %v", err)
	}
	return nil
}

// Append upserts runs in one statement.
func (j *MySQLRunJournal) Append(ctx context.Context, contest string, runs []model.Run) error {
	if contest == "" {
		return pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithMessage("contest is required")
	}
	if len(runs) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(runs))
	args := make([]interface{}, 0, len(runs)*7)
	for _, r := range runs {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, contest, r.ID, r.Time, r.TeamLogin, r.Problem, r.Verdict.Code(), r.Order)
	}
	query := "INSERT INTO scoreboard_runs (contest, " + runJournalColumns + ") VALUES " +
		strings.Join(placeholders, ", ") +
		` ON DUPLICATE KEY UPDATE
			submit_time = VALUES(submit_time),
			team_login = VALUES(team_login),
			problem = VALUES(problem),
			verdict = VALUES(verdict),
			arrival_order = VALUES(arrival_order)`

	if _, err := j.db.Exec(ctx, query, args...); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.DatabaseError, "append runs: %v", err)
	}
	return nil
}

// LoadRuns returns the journaled runs of contest in arrival order.
func (j *MySQLRunJournal) LoadRuns(ctx context.Context, contest string) ([]model.Run, error) {
	query := "SELECT " + runJournalColumns + " FROM scoreboard_runs WHERE contest = ? ORDER BY arrival_order, run_id"
	rows, err := j.db.Query(ctx, query, contest)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.DatabaseError, "load runs: %v", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		var (
			r    model.Run
			code string
		)
		if err := rows.Scan(&r.ID, &r.Time, &r.TeamLogin, &r.Problem, &code, &r.Order); err != nil {
			return nil, pkgerrors.Wrapf(err, pkgerrors.DatabaseError, "scan run: %v", err)
		}
		if r.Verdict, err = model.ParseVerdictCode(code, r.Time); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.DatabaseError, "iterate runs: %v", err)
	}
	return runs, nil
}
