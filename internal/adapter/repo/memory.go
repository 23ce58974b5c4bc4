package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"articlemaster/internal/domain"
)

// MemoryArticleRepository stores articles in memory. It backs unit tests
// and local development without a database.
type MemoryArticleRepository struct {
	mu       sync.RWMutex
	articles map[string]*domain.Article
}

func NewMemoryArticleRepository() *MemoryArticleRepository {
	return &MemoryArticleRepository{articles: make(map[string]*domain.Article)}
}

func (r *MemoryArticleRepository) Create(_ context.Context, a *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := cloneArticle(a)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	clone.UpdatedAt = clone.CreatedAt
	r.articles[a.ID] = clone
	return nil
}

func (r *MemoryArticleRepository) GetByID(_ context.Context, id string) (*domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.articles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneArticle(a), nil
}

func (r *MemoryArticleRepository) Update(_ context.Context, id string, upd domain.ArticleUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.articles[id]
	if !ok {
		return domain.ErrNotFound
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}
	if upd.ErrorMessage != nil {
		a.ErrorMessage = *upd.ErrorMessage
	}
	if upd.Progress != nil {
		a.Progress = *upd.Progress
	}
	if upd.Chapters != nil {
		c := *upd.Chapters
		a.Chapters = &c
	}
	if upd.DraftMarkdown != nil {
		a.DraftMarkdown = *upd.DraftMarkdown
	}
	if upd.Critique != nil {
		c := *upd.Critique
		a.Critique = &c
	}
	if upd.FinalMarkdown != nil {
		a.FinalMarkdown = *upd.FinalMarkdown
	}
	if upd.PromptTokens != nil {
		a.PromptTokens = *upd.PromptTokens
	}
	if upd.CompletionTokens != nil {
		a.CompletionTokens = *upd.CompletionTokens
	}
	if upd.TotalTokens != nil {
		a.TotalTokens = *upd.TotalTokens
	}
	if upd.EstimatedCostUSD != nil {
		a.EstimatedCostUSD = *upd.EstimatedCostUSD
	}
	if upd.WordCount != nil {
		a.WordCount = *upd.WordCount
	}
	a.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryArticleRepository) ListByUser(_ context.Context, userID string, limit int) ([]domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	var out []domain.Article
	for _, a := range r.articles {
		if a.UserID == userID {
			out = append(out, *cloneArticle(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryArticleRepository) CountSince(_ context.Context, userID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, a := range r.articles {
		if a.UserID == userID && !a.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryArticleRepository) ClaimNextPending(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var oldest *domain.Article
	for _, a := range r.articles {
		if a.Status != domain.ArticleStatusPending {
			continue
		}
		if oldest == nil || a.CreatedAt.Before(oldest.CreatedAt) {
			oldest = a
		}
	}
	if oldest == nil {
		return "", domain.ErrNotFound
	}
	oldest.Status = domain.ArticleStatusRunning
	oldest.UpdatedAt = time.Now()
	return oldest.ID, nil
}

func cloneArticle(a *domain.Article) *domain.Article {
	clone := *a
	if a.GenerationPrefs != nil {
		p := *a.GenerationPrefs
		clone.GenerationPrefs = &p
	}
	if a.Chapters != nil {
		c := *a.Chapters
		clone.Chapters = &c
	}
	if a.Critique != nil {
		c := *a.Critique
		clone.Critique = &c
	}
	return &clone
}

// MemoryUserRepository stores users in memory for tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*domain.User)}
}

// Put inserts or replaces a user.
func (r *MemoryUserRepository) Put(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *u
	r.users[u.ID] = &clone
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	if u.PremiumGenerationPrefs != nil {
		p := *u.PremiumGenerationPrefs
		clone.PremiumGenerationPrefs = &p
	}
	return &clone, nil
}

func (r *MemoryUserRepository) UpdateGenerationPrefs(_ context.Context, id string, prefs *domain.GenerationPrefs) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	if prefs.IsZero() {
		u.PremiumGenerationPrefs = nil
		return nil
	}
	p := *prefs
	u.PremiumGenerationPrefs = &p
	u.UpdatedAt = time.Now()
	return nil
}
