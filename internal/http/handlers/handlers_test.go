package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"articlemaster/internal/adapter/repo"
	"articlemaster/internal/domain"
	"articlemaster/internal/middleware"
	"articlemaster/internal/plans"
	"articlemaster/internal/transcript"
)

type stubSource struct {
	result transcript.Result
	err    error
}

func (s *stubSource) Fetch(_ context.Context, _ string) (transcript.Result, error) {
	return s.result, s.err
}

type recordRunner struct {
	dispatched []string
}

func (r *recordRunner) Dispatch(articleID string) {
	r.dispatched = append(r.dispatched, articleID)
}

type testApp struct {
	app      *App
	articles *repo.MemoryArticleRepository
	users    *repo.MemoryUserRepository
	runner   *recordRunner
	source   *stubSource
}

func newTestApp(t *testing.T, tier domain.PlanTier) *testApp {
	t.Helper()
	articles := repo.NewMemoryArticleRepository()
	users := repo.NewMemoryUserRepository()

	until := time.Now().Add(30 * 24 * time.Hour)
	user := &domain.User{ID: "u1", Email: "u1@example.com", PlanTier: tier}
	if tier != domain.PlanFree {
		user.PlanActiveUntil = &until
	}
	users.Put(user)

	runner := &recordRunner{}
	source := &stubSource{result: transcript.Result{
		Transcript: "hello world transcript",
		VideoTitle: "A Video",
	}}
	return &testApp{
		app: &App{
			Articles:    articles,
			Users:       users,
			Plans:       plans.NewService(users, articles),
			Runner:      runner,
			Transcripts: source,
			Logger:      zerolog.Nop(),
		},
		articles: articles,
		users:    users,
		runner:   runner,
		source:   source,
	}
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "u1"))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestGenerateArticleAccepted(t *testing.T) {
	ta := newTestApp(t, domain.PlanFree)
	req := authedRequest(http.MethodPost, "/v1/articles/generate",
		`{"youtubeUrl":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`)
	rec := httptest.NewRecorder()
	ta.app.GenerateArticle(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	id, _ := body["articleId"].(string)
	if id == "" {
		t.Fatal("response missing articleId")
	}
	if len(ta.runner.dispatched) != 1 || ta.runner.dispatched[0] != id {
		t.Fatalf("dispatched = %v", ta.runner.dispatched)
	}
	article, err := ta.articles.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("article not persisted: %v", err)
	}
	if article.Status != domain.ArticleStatusPending {
		t.Fatalf("Status = %q, want PENDING", article.Status)
	}
	if article.VideoID != "dQw4w9WgXcQ" || article.Transcript != "hello world transcript" {
		t.Fatalf("article = %+v", article)
	}
}

func TestGenerateArticleQuotaExceeded(t *testing.T) {
	ta := newTestApp(t, domain.PlanFree)
	// One article inside the window exhausts the FREE quota.
	seed := &domain.Article{ID: "prev", UserID: "u1", Status: domain.ArticleStatusComplete}
	if err := ta.articles.Create(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	req := authedRequest(http.MethodPost, "/v1/articles/generate",
		`{"youtubeUrl":"https://youtu.be/dQw4w9WgXcQ"}`)
	rec := httptest.NewRecorder()
	ta.app.GenerateArticle(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != "Free plan limit reached (1 article per week). Upgrade to Pro or Premium to generate more." {
		t.Fatalf("error = %q", body["error"])
	}
	if body["plan"] != "FREE" || body["used"] != float64(1) || body["max"] != float64(1) {
		t.Fatalf("quota payload = %v", body)
	}
	if len(ta.runner.dispatched) != 0 {
		t.Fatal("rejected request must not dispatch")
	}
}

func TestGenerateArticleBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		source   *stubSource
		wantCode int
		wantErr  string
	}{
		{name: "empty body", body: "", wantCode: http.StatusBadRequest, wantErr: "Invalid request"},
		{name: "missing url", body: `{}`, wantCode: http.StatusBadRequest, wantErr: "Invalid request"},
		{
			name: "bad url", body: `{"youtubeUrl":"https://vimeo.com/1"}`,
			wantCode: http.StatusBadRequest, wantErr: "Please paste a valid YouTube URL",
		},
		{
			name: "no captions", body: `{"youtubeUrl":"https://youtu.be/dQw4w9WgXcQ"}`,
			source:   &stubSource{result: transcript.Result{VideoTitle: "Silent"}},
			wantCode: http.StatusBadRequest, wantErr: noTranscriptMessage,
		},
		{
			name: "extractor down", body: `{"youtubeUrl":"https://youtu.be/dQw4w9WgXcQ"}`,
			source:   &stubSource{err: domain.ErrProviderFailure},
			wantCode: http.StatusBadRequest, wantErr: "Failed to fetch subtitles",
		},
		{
			name: "oversized pref", body: `{"youtubeUrl":"https://youtu.be/dQw4w9WgXcQ","generationPrefs":{"language":"` + strings.Repeat("x", 11) + `"}}`,
			wantCode: http.StatusBadRequest, wantErr: "Invalid request: language too long",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, domain.PlanFree)
			if tt.source != nil {
				ta.app.Transcripts = tt.source
			}
			req := authedRequest(http.MethodPost, "/v1/articles/generate", tt.body)
			rec := httptest.NewRecorder()
			ta.app.GenerateArticle(rec, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if body := decode(t, rec); body["error"] != tt.wantErr {
				t.Fatalf("error = %q, want %q", body["error"], tt.wantErr)
			}
		})
	}
}

func TestGenerateArticleUnauthorized(t *testing.T) {
	ta := newTestApp(t, domain.PlanFree)
	req := httptest.NewRequest(http.MethodPost, "/v1/articles/generate",
		strings.NewReader(`{"youtubeUrl":"https://youtu.be/dQw4w9WgXcQ"}`))
	rec := httptest.NewRecorder()
	ta.app.GenerateArticle(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func articleRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/articles/{id}", app.GetArticle)
	return r
}

func TestGetArticleProjection(t *testing.T) {
	ta := newTestApp(t, domain.PlanFree)
	seed := &domain.Article{
		ID:            "job-1",
		UserID:        "u1",
		SourceURL:     "https://youtu.be/dQw4w9WgXcQ",
		VideoTitle:    "A Video",
		Transcript:    "secret transcript",
		FinalMarkdown: "# Done",
		WordCount:     900,
		Progress:      100,
		Status:        domain.ArticleStatusComplete,
	}
	if err := ta.articles.Create(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	articleRouter(ta.app).ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/articles/job-1", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	article, ok := body["article"].(map[string]any)
	if !ok {
		t.Fatalf("body = %v", body)
	}
	if article["finalMarkdown"] != "# Done" || article["progress"] != float64(100) || article["status"] != "COMPLETE" {
		t.Fatalf("projection = %v", article)
	}
	if strings.Contains(rec.Body.String(), "secret transcript") {
		t.Fatal("transcript must not leak through the polling endpoint")
	}
}

func TestGetArticleOwnership(t *testing.T) {
	ta := newTestApp(t, domain.PlanFree)
	seed := &domain.Article{ID: "job-1", UserID: "someone-else", Status: domain.ArticleStatusComplete}
	if err := ta.articles.Create(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"job-1", "missing"} {
		rec := httptest.NewRecorder()
		articleRouter(ta.app).ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/articles/"+id, ""))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status for %q = %d, want 404", id, rec.Code)
		}
		if body := decode(t, rec); body["error"] != "Not found" {
			t.Fatalf("error = %q", body["error"])
		}
	}
}

func TestListArticles(t *testing.T) {
	ta := newTestApp(t, domain.PlanPro)
	for _, id := range []string{"a", "b"} {
		if err := ta.articles.Create(context.Background(), &domain.Article{
			ID: id, UserID: "u1", Status: domain.ArticleStatusComplete,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := ta.articles.Create(context.Background(), &domain.Article{
		ID: "other", UserID: "u2", Status: domain.ArticleStatusComplete,
	}); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	ta.app.ListArticles(rec, authedRequest(http.MethodGet, "/v1/articles", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	list, ok := body["articles"].([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("articles = %v", body["articles"])
	}
}

func TestGenerationPrefsPremiumGate(t *testing.T) {
	for _, tier := range []domain.PlanTier{domain.PlanFree, domain.PlanPro} {
		ta := newTestApp(t, tier)
		rec := httptest.NewRecorder()
		ta.app.GetGenerationPrefs(rec, authedRequest(http.MethodGet, "/v1/settings/generation-prefs", ""))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("tier %s: status = %d, want 403", tier, rec.Code)
		}
		if body := decode(t, rec); body["error"] != premiumFeatureMessage {
			t.Fatalf("error = %q", body["error"])
		}
	}
}

func TestGenerationPrefsExpiredPremium(t *testing.T) {
	ta := newTestApp(t, domain.PlanPremium)
	expired := time.Now().Add(-time.Hour)
	ta.users.Put(&domain.User{ID: "u1", PlanTier: domain.PlanPremium, PlanActiveUntil: &expired})

	rec := httptest.NewRecorder()
	ta.app.GetGenerationPrefs(rec, authedRequest(http.MethodGet, "/v1/settings/generation-prefs", ""))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 after expiry", rec.Code)
	}
}

func TestGenerationPrefsRoundTrip(t *testing.T) {
	ta := newTestApp(t, domain.PlanPremium)

	rec := httptest.NewRecorder()
	ta.app.UpdateGenerationPrefs(rec, authedRequest(http.MethodPut, "/v1/settings/generation-prefs",
		`{"tone":"formal","seoKeywords":"cast iron"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ta.app.GetGenerationPrefs(rec, authedRequest(http.MethodGet, "/v1/settings/generation-prefs", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	body := decode(t, rec)
	prefs, ok := body["prefs"].(map[string]any)
	if !ok {
		t.Fatalf("prefs = %v", body["prefs"])
	}
	if prefs["tone"] != "formal" || prefs["seoKeywords"] != "cast iron" {
		t.Fatalf("prefs = %v", prefs)
	}
}

func TestGetUsage(t *testing.T) {
	ta := newTestApp(t, domain.PlanPro)
	if err := ta.articles.Create(context.Background(), &domain.Article{
		ID: "a", UserID: "u1", Status: domain.ArticleStatusComplete,
	}); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	ta.app.GetUsage(rec, authedRequest(http.MethodGet, "/v1/usage", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["plan"] != "PRO" || body["used"] != float64(1) || body["max"] != float64(4) || body["window"] != "rolling_7d" {
		t.Fatalf("usage = %v", body)
	}
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t, domain.PlanFree)
	rec := httptest.NewRecorder()
	ta.app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}
