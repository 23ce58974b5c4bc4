package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"articlemaster/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// GetByID fetches a user with its plan state and premium preferences.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, email, name, plan_tier, plan_active_until, premium_generation_prefs, created_at, updated_at
FROM users
WHERE id = $1;
`, id)

	var (
		u        domain.User
		prefsRaw []byte
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PlanTier, &u.PlanActiveUntil, &prefsRaw, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(prefsRaw) > 0 {
		u.PremiumGenerationPrefs = &domain.GenerationPrefs{}
		if err := json.Unmarshal(prefsRaw, u.PremiumGenerationPrefs); err != nil {
			return nil, fmt.Errorf("decode premium prefs: %w", err)
		}
	}
	return &u, nil
}

// UpdateGenerationPrefs replaces the account's persistent premium
// generation preferences.
func (r *UserRepositoryPG) UpdateGenerationPrefs(ctx context.Context, id string, prefs *domain.GenerationPrefs) error {
	encoded, err := nullableJSON(prefs, prefs.IsZero())
	if err != nil {
		return fmt.Errorf("encode premium prefs: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET premium_generation_prefs = $2, updated_at = NOW()
WHERE id = $1;
`, id, encoded)
	if err != nil {
		return fmt.Errorf("update premium prefs: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
