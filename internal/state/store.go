// Package state keeps the in-progress conversation of every (chat, user)
// pair.
package state

import (
	"context"
	"errors"

	"hotel-bot/internal/models"
)

// ErrNoSession is returned by Update when the key has no session.
var ErrNoSession = errors.New("state: no session")

// Store is scoped by session key. Get returns nil, nil for an idle key and
// Delete on an idle key is a no-op.
type Store interface {
	Get(ctx context.Context, key models.SessionKey) (*models.SearchSession, error)
	Put(ctx context.Context, key models.SessionKey, s *models.SearchSession) error
	Update(ctx context.Context, key models.SessionKey, fn func(*models.SearchSession) error) error
	Delete(ctx context.Context, key models.SessionKey) error
}
