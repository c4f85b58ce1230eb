// Package browser is the boundary between the traversal engine and the page
// that renders the bulb finder form.
package browser

import (
	"context"
	"errors"
	"time"

	"bulbfinder/harvester/internal/domain"
)

var (
	ErrControlNotFound = errors.New("control not found")
	ErrWaitTimeout     = errors.New("timed out waiting for options")
)

// Control is a handle to a form control located on the current page. Handles
// go stale after a reload and must be located again.
type Control interface {
	Name() string
}

// Session drives a single page. Implementations are not safe for concurrent use.
type Session interface {
	Navigate(ctx context.Context, url string) error
	FindControl(ctx context.Context, name string) (Control, error)
	ListOptions(ctx context.Context, control Control) ([]domain.RawOption, error)
	WaitForOptionCount(ctx context.Context, control Control, minCount int, timeout time.Duration) error
	Select(ctx context.Context, control Control, value string) error
	Reload(ctx context.Context) error
	Close() error
}

// Factory opens a new session.
type Factory func(ctx context.Context) (Session, error)
