// Package store persists the therapy-session events that own voice room ids.
// The coordinator never reads this; it exists so a roomId survives between
// the REST call that schedules a session and the browsers that later join it.
package store

import (
	"context"
	"errors"

	"github.com/Alexxandr133/JungAI-sub002/internal/domain"
)

var ErrNotFound = errors.New("event not found")

type EventStore interface {
	Create(ctx context.Context, ev domain.Event) error
	Get(ctx context.Context, id string) (*domain.Event, error)
	// Delete removes the event and returns the deleted record, so the
	// caller can notify the owning voice room. ErrNotFound if absent.
	Delete(ctx context.Context, id string) (*domain.Event, error)
	Close() error
}
