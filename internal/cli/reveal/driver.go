// Package reveal drives a revelation either in process or through a
// scoreboard server session.
package reveal

import (
	"context"

	"scoreboard/internal/scoreboard/service"
)

// Driver applies presenter actions to one revelation.
type Driver interface {
	Name() string
	View(ctx context.Context) (service.RevealView, error)
	Act(ctx context.Context, action string, n int) (service.RevealView, error)
	Close(ctx context.Context) error
}
