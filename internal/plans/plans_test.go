package plans

import (
	"context"
	"errors"
	"testing"
	"time"

	"articlemaster/internal/adapter/repo"
	"articlemaster/internal/domain"
)

func TestEffective(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	cases := []struct {
		name        string
		tier        domain.PlanTier
		activeUntil *time.Time
		want        domain.PlanTier
	}{
		{name: "free", tier: domain.PlanFree, activeUntil: nil, want: domain.PlanFree},
		{name: "pro_active", tier: domain.PlanPro, activeUntil: &future, want: domain.PlanPro},
		{name: "pro_expired", tier: domain.PlanPro, activeUntil: &past, want: domain.PlanFree},
		{name: "pro_no_expiry", tier: domain.PlanPro, activeUntil: nil, want: domain.PlanFree},
		{name: "premium_active", tier: domain.PlanPremium, activeUntil: &future, want: domain.PlanPremium},
		{name: "premium_expires_now", tier: domain.PlanPremium, activeUntil: &now, want: domain.PlanFree},
		{name: "empty_tier", tier: "", activeUntil: &future, want: domain.PlanFree},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Effective(tc.tier, tc.activeUntil, now); got != tc.want {
				t.Fatalf("Effective = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMinWordCount(t *testing.T) {
	t.Parallel()
	if got := MinWordCount(domain.PlanPro); got != 1500 {
		t.Fatalf("PRO minimum = %d, want 1500", got)
	}
	if got := MinWordCount(domain.PlanPremium); got != 1800 {
		t.Fatalf("PREMIUM minimum = %d, want 1800", got)
	}
	if got := MinWordCount(domain.PlanFree); got != 0 {
		t.Fatalf("FREE minimum = %d, want 0", got)
	}
}

func newTestService(now time.Time) (*Service, *repo.MemoryUserRepository, *repo.MemoryArticleRepository) {
	users := repo.NewMemoryUserRepository()
	articles := repo.NewMemoryArticleRepository()
	svc := NewService(users, articles)
	svc.now = func() time.Time { return now }
	return svc, users, articles
}

func TestUsageStatusCountsWindow(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, users, articles := newTestService(now)

	until := now.Add(30 * 24 * time.Hour)
	users.Put(&domain.User{ID: "u1", PlanTier: domain.PlanPro, PlanActiveUntil: &until})

	inside := now.Add(-6 * 24 * time.Hour)
	outside := now.Add(-8 * 24 * time.Hour)
	mustCreate(t, articles, &domain.Article{ID: "a1", UserID: "u1", CreatedAt: inside})
	mustCreate(t, articles, &domain.Article{ID: "a2", UserID: "u1", CreatedAt: outside})
	mustCreate(t, articles, &domain.Article{ID: "a3", UserID: "other", CreatedAt: inside})

	status, err := svc.UsageStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UsageStatus returned error: %v", err)
	}
	if status.Plan != domain.PlanPro {
		t.Fatalf("Plan = %q, want PRO", status.Plan)
	}
	if status.Used != 1 || status.Max != 4 {
		t.Fatalf("Used/Max = %d/%d, want 1/4", status.Used, status.Max)
	}
	if status.Window != Rolling7d {
		t.Fatalf("Window = %q, want %q", status.Window, Rolling7d)
	}
	if want := now.Add(-7 * 24 * time.Hour); !status.WindowStart.Equal(want) {
		t.Fatalf("WindowStart = %v, want %v", status.WindowStart, want)
	}
}

func TestUsageStatusExpiredPlanUsesFreeWindow(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, users, _ := newTestService(now)

	expired := now.Add(-time.Hour)
	users.Put(&domain.User{ID: "u1", PlanTier: domain.PlanPremium, PlanActiveUntil: &expired})

	status, err := svc.UsageStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UsageStatus returned error: %v", err)
	}
	if status.Plan != domain.PlanFree || status.Max != 1 || status.Window != Rolling7d {
		t.Fatalf("expired premium should collapse to FREE limits, got %+v", status)
	}
}

func TestEnforceCanGenerateQuotaReached(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, users, articles := newTestService(now)

	users.Put(&domain.User{ID: "u1", PlanTier: domain.PlanFree})
	mustCreate(t, articles, &domain.Article{ID: "a1", UserID: "u1", CreatedAt: now.Add(-time.Hour)})

	_, err := svc.EnforceCanGenerate(context.Background(), "u1")
	var quotaErr *QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected *QuotaError, got %v", err)
	}
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatal("QuotaError should unwrap to domain.ErrQuotaExceeded")
	}
	if quotaErr.Status.Plan != domain.PlanFree || quotaErr.Status.Used != 1 || quotaErr.Status.Max != 1 {
		t.Fatalf("quota status = %+v, want plan=FREE used=1 max=1", quotaErr.Status)
	}
	if want := "Free plan limit reached (1 article per week). Upgrade to Pro or Premium to generate more."; quotaErr.Message != want {
		t.Fatalf("message = %q, want %q", quotaErr.Message, want)
	}
}

func TestEnforceCanGenerateAllowed(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, users, articles := newTestService(now)

	until := now.Add(24 * time.Hour)
	users.Put(&domain.User{ID: "u1", PlanTier: domain.PlanPro, PlanActiveUntil: &until})
	for i, age := range []time.Duration{time.Hour, 2 * time.Hour, 3 * time.Hour} {
		mustCreate(t, articles, &domain.Article{ID: string(rune('a' + i)), UserID: "u1", CreatedAt: now.Add(-age)})
	}

	status, err := svc.EnforceCanGenerate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("EnforceCanGenerate returned error: %v", err)
	}
	if status.Used != 3 || status.Max != 4 {
		t.Fatalf("Used/Max = %d/%d, want 3/4", status.Used, status.Max)
	}
}

func mustCreate(t *testing.T, articles *repo.MemoryArticleRepository, a *domain.Article) {
	t.Helper()
	if a.Status == "" {
		a.Status = domain.ArticleStatusComplete
	}
	if err := articles.Create(context.Background(), a); err != nil {
		t.Fatalf("create article: %v", err)
	}
}
