// Package plans maps subscription tiers to generation quotas and
// pipeline depth. The effective tier is recomputed at every decision
// point because plan state can change between submission and execution.
package plans

import (
	"context"
	"fmt"
	"time"

	"articlemaster/internal/domain"
)

// Window identifies a rolling usage window.
type Window string

const (
	Rolling7d  Window = "rolling_7d"
	Rolling24h Window = "rolling_24h"
)

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	if w == Rolling24h {
		return 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

// Limit pairs a rolling window with the number of articles allowed in it.
type Limit struct {
	Window      Window
	MaxArticles int
}

// Limits holds the per-tier quota table.
var Limits = map[domain.PlanTier]Limit{
	domain.PlanFree:    {Window: Rolling7d, MaxArticles: 1},
	domain.PlanPro:     {Window: Rolling7d, MaxArticles: 4},
	domain.PlanPremium: {Window: Rolling24h, MaxArticles: 1},
}

// Effective collapses a stored tier to FREE when its expiry is absent or
// already passed. Never cache the result.
func Effective(tier domain.PlanTier, activeUntil *time.Time, now time.Time) domain.PlanTier {
	if tier == domain.PlanFree || tier == "" {
		return domain.PlanFree
	}
	if activeUntil == nil || !activeUntil.After(now) {
		return domain.PlanFree
	}
	return tier
}

// MinWordCount is the minimum article length enforced by the expansion
// stage for paid tiers. FREE articles ship the draft untouched.
func MinWordCount(tier domain.PlanTier) int {
	switch tier {
	case domain.PlanPro:
		return 1500
	case domain.PlanPremium:
		return 1800
	default:
		return 0
	}
}

// UsageStatus is the admission-check result.
type UsageStatus struct {
	Plan        domain.PlanTier `json:"plan"`
	Used        int             `json:"used"`
	Max         int             `json:"max"`
	Window      Window          `json:"window"`
	WindowStart time.Time       `json:"windowStart"`
}

// QuotaError reports a rejected admission with the tier-specific message
// shown to the caller.
type QuotaError struct {
	Status  UsageStatus
	Message string
}

func (e *QuotaError) Error() string { return e.Message }

func (e *QuotaError) Unwrap() error { return domain.ErrQuotaExceeded }

// Service computes usage windows from the job history table.
type Service struct {
	users    domain.UserRepository
	articles domain.ArticleRepository
	now      func() time.Time
}

func NewService(users domain.UserRepository, articles domain.ArticleRepository) *Service {
	return &Service{users: users, articles: articles, now: time.Now}
}

// UsageStatus resolves the account's effective plan and counts jobs
// created within the plan's rolling window. Side-effect free.
func (s *Service) UsageStatus(ctx context.Context, userID string) (*UsageStatus, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	now := s.now()
	plan := Effective(user.PlanTier, user.PlanActiveUntil, now)
	limit := Limits[plan]
	start := now.Add(-limit.Window.Duration())

	used, err := s.articles.CountSince(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("count usage window: %w", err)
	}
	return &UsageStatus{
		Plan:        plan,
		Used:        used,
		Max:         limit.MaxArticles,
		Window:      limit.Window,
		WindowStart: start,
	}, nil
}

// EnforceCanGenerate rejects generation with a *QuotaError once the
// window cap is reached.
func (s *Service) EnforceCanGenerate(ctx context.Context, userID string) (*UsageStatus, error) {
	status, err := s.UsageStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status.Used >= status.Max {
		return nil, &QuotaError{Status: *status, Message: limitMessage(status.Plan)}
	}
	return status, nil
}

func limitMessage(plan domain.PlanTier) string {
	switch plan {
	case domain.PlanPro:
		return "Pro plan limit reached (4 articles per week). Upgrade to Premium or wait for your limit to reset."
	case domain.PlanPremium:
		return "Premium plan limit reached (1 article per day). Please wait for your limit to reset."
	default:
		return "Free plan limit reached (1 article per week). Upgrade to Pro or Premium to generate more."
	}
}
