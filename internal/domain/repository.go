package domain

import (
	"context"
	"time"
)

// ArticleRepository defines persistence for article generation jobs.
type ArticleRepository interface {
	Create(ctx context.Context, article *Article) error
	GetByID(ctx context.Context, id string) (*Article, error)
	// Update applies a partial update; nil fields are left unchanged.
	Update(ctx context.Context, id string, upd ArticleUpdate) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Article, error)
	// CountSince counts jobs created by the user at or after the given
	// instant. Usage windows are recomputed from this on every admission
	// check; there is no separate counter to keep in sync.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	// ClaimNextPending atomically moves the oldest PENDING article to
	// RUNNING and returns its id, or ErrNotFound when the queue is empty.
	ClaimNextPending(ctx context.Context) (string, error)
}

// UserRepository defines access to accounts and their plan state.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateGenerationPrefs(ctx context.Context, id string, prefs *GenerationPrefs) error
}
