package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"scoreboard/internal/cli/reveal"
	"scoreboard/internal/scoreboard/site"
	pkgerrors "scoreboard/pkg/errors"
)

// Env is the state every console command works against.
type Env struct {
	Driver    reveal.Driver
	Sites     *site.Config
	Out       io.Writer
	BaseURL   string
	Timeout   time.Duration
	StatePath string
}

// Command defines a console command.
type Command struct {
	Name    string
	Usage   string
	Summary string
	MinArgs int
	MaxArgs int
	Run     func(ctx context.Context, env *Env, args []string) error
}

// Check validates the argument count.
func (c Command) Check(args []string) error {
	if len(args) < c.MinArgs || (c.MaxArgs >= 0 && len(args) > c.MaxArgs) {
		return pkgerrors.Newf(pkgerrors.InvalidParams, "usage: %s", c.Usage)
	}
	return nil
}

func (e *Env) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(e.Out, format+"\n", args...)
}

func (e *Env) driver() (reveal.Driver, error) {
	if e.Driver == nil {
		return nil, pkgerrors.New(pkgerrors.RevealSessionNotFound).WithMessage("nothing loaded, use load or connect first")
	}
	return e.Driver, nil
}
