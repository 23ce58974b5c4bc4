package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"articlemaster/internal/domain"
)

// ArticleRepositoryPG implements domain.ArticleRepository backed by PostgreSQL.
type ArticleRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(pool *pgxpool.Pool) *ArticleRepositoryPG {
	return &ArticleRepositoryPG{pool: pool}
}

const articleColumns = `id, user_id, source_url, video_id, video_title, video_description, transcript,
generation_prefs, chapters, draft_markdown, critique, final_markdown,
prompt_tokens, completion_tokens, total_tokens, estimated_cost_usd, word_count,
progress, status, error_message, created_at, updated_at`

// Create inserts a new article record.
func (r *ArticleRepositoryPG) Create(ctx context.Context, a *domain.Article) error {
	prefs, err := nullableJSON(a.GenerationPrefs, a.GenerationPrefs.IsZero())
	if err != nil {
		return fmt.Errorf("encode generation prefs: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO articles (id, user_id, source_url, video_id, video_title, video_description, transcript, generation_prefs, progress, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`,
		a.ID,
		a.UserID,
		a.SourceURL,
		a.VideoID,
		a.VideoTitle,
		a.VideoDescription,
		a.Transcript,
		prefs,
		a.Progress,
		a.Status,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// GetByID fetches an article by its identifier.
func (r *ArticleRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	return scanArticle(row)
}

// Update applies a partial update without clobbering unspecified fields.
func (r *ArticleRepositoryPG) Update(ctx context.Context, id string, upd domain.ArticleUpdate) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Status != nil {
		set("status", *upd.Status)
	}
	if upd.ErrorMessage != nil {
		set("error_message", *upd.ErrorMessage)
	}
	if upd.Progress != nil {
		set("progress", *upd.Progress)
	}
	if upd.Chapters != nil {
		encoded, err := json.Marshal(upd.Chapters)
		if err != nil {
			return fmt.Errorf("encode chapters: %w", err)
		}
		set("chapters", encoded)
	}
	if upd.DraftMarkdown != nil {
		set("draft_markdown", *upd.DraftMarkdown)
	}
	if upd.Critique != nil {
		encoded, err := json.Marshal(upd.Critique)
		if err != nil {
			return fmt.Errorf("encode critique: %w", err)
		}
		set("critique", encoded)
	}
	if upd.FinalMarkdown != nil {
		set("final_markdown", *upd.FinalMarkdown)
	}
	if upd.PromptTokens != nil {
		set("prompt_tokens", *upd.PromptTokens)
	}
	if upd.CompletionTokens != nil {
		set("completion_tokens", *upd.CompletionTokens)
	}
	if upd.TotalTokens != nil {
		set("total_tokens", *upd.TotalTokens)
	}
	if upd.EstimatedCostUSD != nil {
		set("estimated_cost_usd", *upd.EstimatedCostUSD)
	}
	if upd.WordCount != nil {
		set("word_count", *upd.WordCount)
	}

	query := "UPDATE articles SET " + strings.Join(sets, ", ") + " WHERE id = $1"
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByUser returns the account's articles, newest first.
func (r *ArticleRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+articleColumns+` FROM articles WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CountSince counts the account's jobs created at or after the instant.
func (r *ArticleRepositoryPG) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles WHERE user_id = $1 AND created_at >= $2`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

// ClaimNextPending flips the oldest PENDING article to RUNNING so worker
// processes never pick the same job twice.
func (r *ArticleRepositoryPG) ClaimNextPending(ctx context.Context) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
UPDATE articles
SET status = $1, updated_at = NOW()
WHERE id = (
    SELECT id FROM articles
    WHERE status = $2
    ORDER BY created_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING id;
`, domain.ArticleStatusRunning, domain.ArticleStatusPending).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("claim pending article: %w", err)
	}
	return id, nil
}

func scanArticle(row pgx.Row) (*domain.Article, error) {
	var (
		a                                  domain.Article
		prefsRaw, chaptersRaw, critiqueRaw []byte
		errorMessage                       *string
	)
	if err := row.Scan(
		&a.ID, &a.UserID, &a.SourceURL, &a.VideoID, &a.VideoTitle, &a.VideoDescription, &a.Transcript,
		&prefsRaw, &chaptersRaw, &a.DraftMarkdown, &critiqueRaw, &a.FinalMarkdown,
		&a.PromptTokens, &a.CompletionTokens, &a.TotalTokens, &a.EstimatedCostUSD, &a.WordCount,
		&a.Progress, &a.Status, &errorMessage, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if errorMessage != nil {
		a.ErrorMessage = *errorMessage
	}
	if len(prefsRaw) > 0 {
		a.GenerationPrefs = &domain.GenerationPrefs{}
		if err := json.Unmarshal(prefsRaw, a.GenerationPrefs); err != nil {
			return nil, fmt.Errorf("decode generation prefs: %w", err)
		}
	}
	if len(chaptersRaw) > 0 {
		a.Chapters = &domain.Chapters{}
		if err := json.Unmarshal(chaptersRaw, a.Chapters); err != nil {
			return nil, fmt.Errorf("decode chapters: %w", err)
		}
	}
	if len(critiqueRaw) > 0 {
		a.Critique = &domain.Critique{}
		if err := json.Unmarshal(critiqueRaw, a.Critique); err != nil {
			return nil, fmt.Errorf("decode critique: %w", err)
		}
	}
	return &a, nil
}

func nullableJSON(v any, zero bool) ([]byte, error) {
	if zero {
		return nil, nil
	}
	return json.Marshal(v)
}
