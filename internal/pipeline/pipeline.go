// Package pipeline runs the staged article generation workflow: outline,
// draft, critique, rewrite and an optional expansion pass, with durable
// progress checkpoints after every stage.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"articlemaster/internal/domain"
	"articlemaster/internal/plans"
	"articlemaster/internal/providers/openrouter"
)

// Default model per stage, overridable through configuration: a cheap and
// fast model for outline extraction, a stronger model for prose, and a
// distinct reasoning model for critique.
const (
	DefaultChaptersModel = "google/gemini-2.0-flash-lite-001"
	DefaultWriterModel   = "openai/gpt-5.2"
	DefaultCriticModel   = "moonshotai/kimi-k2-thinking"
)

const emptyTranscriptMessage = "Transcript is empty."

// Generator is the capability surface the pipeline needs from a language
// model provider.
type Generator interface {
	GenerateText(ctx context.Context, model, prompt string) (openrouter.TextResult, error)
	GenerateObject(ctx context.Context, model, prompt string, out openrouter.Structured) (openrouter.Usage, error)
}

// Config carries the per-stage model identifiers and the optional job
// timeout. A zero timeout reproduces the original behavior of waiting on
// the provider indefinitely. There is never an automatic retry.
type Config struct {
	ChaptersModel string
	WriterModel   string
	CriticModel   string
	JobTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.ChaptersModel == "" {
		c.ChaptersModel = DefaultChaptersModel
	}
	if c.WriterModel == "" {
		c.WriterModel = DefaultWriterModel
	}
	if c.CriticModel == "" {
		c.CriticModel = DefaultCriticModel
	}
	return c
}

// Pipeline orchestrates one article generation job at a time. Instances
// are safe for concurrent use; all per-job state lives in the durable
// article record, of which the running job is the only writer.
type Pipeline struct {
	articles domain.ArticleRepository
	users    domain.UserRepository
	gen      Generator
	cfg      Config
	logger   zerolog.Logger
}

// New constructs a Pipeline.
func New(articles domain.ArticleRepository, users domain.UserRepository, gen Generator, cfg Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		articles: articles,
		users:    users,
		gen:      gen,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Run executes the full pipeline for the article. The record always
// reaches a terminal status before Run returns: COMPLETE on success, or
// FAILED carrying the first error's message. The returned error reports
// why a job failed; callers use it for logging only.
func (p *Pipeline) Run(ctx context.Context, articleID string) error {
	article, err := p.articles.GetByID(ctx, articleID)
	if err != nil {
		return fmt.Errorf("load article %s: %w", articleID, err)
	}

	if strings.TrimSpace(article.Transcript) == "" {
		p.fail(ctx, articleID, emptyTranscriptMessage)
		return domain.ErrEmptyTranscript
	}

	if p.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.JobTimeout)
		defer cancel()
	}

	// Exactly one top-level failure handler per job run.
	if err := p.run(ctx, article); err != nil {
		p.logger.Error().Err(err).Str("article_id", articleID).Msg("pipeline: job failed")
		p.fail(ctx, articleID, err.Error())
		return err
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, article *domain.Article) error {
	start := time.Now()
	if err := p.checkpoint(ctx, article.ID, domain.ArticleUpdate{
		Status:   ptr(domain.ArticleStatusRunning),
		Progress: ptr(0),
	}); err != nil {
		return err
	}

	// The effective plan is recomputed here, not trusted from submission
	// time: it may have changed while the job sat in the queue.
	user, err := p.users.GetByID(ctx, article.UserID)
	if err != nil {
		return fmt.Errorf("load article owner: %w", err)
	}
	plan := plans.Effective(user.PlanTier, user.PlanActiveUntil, time.Now())

	prefs := article.GenerationPrefs
	if plan == domain.PlanPremium {
		prefs = prefs.Layered(user.PremiumGenerationPrefs)
	}
	instructions := BuildInstructions(prefs)
	seoKeywords := ""
	if prefs != nil {
		seoKeywords = prefs.SEOKeywords
	}
	minWords := plans.MinWordCount(plan)
	writerFloor := minWords
	if writerFloor == 0 {
		writerFloor = 1500
	}

	var totals usageTotals

	// Stage 1: chapters (structured).
	var chapters domain.Chapters
	usage, err := p.gen.GenerateObject(ctx, p.cfg.ChaptersModel, ChaptersPrompt(article.VideoTitle, article.Transcript), &chapters)
	if err != nil {
		return err
	}
	totals.add(p.cfg.ChaptersModel, usage)
	if err := p.checkpoint(ctx, article.ID, p.stageUpdate(totals, domain.ArticleUpdate{
		Chapters: &chapters,
		Progress: ptr(20),
	})); err != nil {
		return err
	}

	// Stage 2: full-text draft.
	chaptersJSON, err := json.MarshalIndent(chapters, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chapters: %w", err)
	}
	draftRes, err := p.gen.GenerateText(ctx, p.cfg.WriterModel,
		WriterPrompt(article.VideoTitle, string(chaptersJSON), article.Transcript, instructions, seoKeywords, writerFloor))
	if err != nil {
		return err
	}
	draft := draftRes.Text
	totals.add(p.cfg.WriterModel, draftRes.Usage)
	if err := p.checkpoint(ctx, article.ID, p.stageUpdate(totals, domain.ArticleUpdate{
		DraftMarkdown: &draft,
		Progress:      ptr(40),
	})); err != nil {
		return err
	}

	// Tier branch: FREE ships the draft untouched.
	if plan == domain.PlanFree {
		return p.complete(ctx, article.ID, draft, totals, start)
	}

	// Stage 3: critique (structured).
	var critique domain.Critique
	usage, err = p.gen.GenerateObject(ctx, p.cfg.CriticModel, CritiquePrompt(draft), &critique)
	if err != nil {
		return err
	}
	totals.add(p.cfg.CriticModel, usage)
	if err := p.checkpoint(ctx, article.ID, p.stageUpdate(totals, domain.ArticleUpdate{
		Critique: &critique,
		Progress: ptr(60),
	})); err != nil {
		return err
	}

	// Stage 4: rewrite. Anchored on the original draft plus the critique,
	// never on a previous rewrite.
	critiqueJSON, err := json.MarshalIndent(critique, "", "  ")
	if err != nil {
		return fmt.Errorf("encode critique: %w", err)
	}
	rewriteRes, err := p.gen.GenerateText(ctx, p.cfg.WriterModel,
		RewritePrompt(draft, string(critiqueJSON), instructions, seoKeywords, minWords))
	if err != nil {
		return err
	}
	final := rewriteRes.Text
	totals.add(p.cfg.WriterModel, rewriteRes.Usage)
	if err := p.checkpoint(ctx, article.ID, p.stageUpdate(totals, domain.ArticleUpdate{
		Progress: ptr(90),
	})); err != nil {
		return err
	}

	// Stage 5: expand once when the candidate is under the tier minimum.
	if CountWords(final) < minWords {
		expandRes, err := p.gen.GenerateText(ctx, p.cfg.WriterModel,
			ExpandPrompt(final, article.Transcript, instructions, seoKeywords, minWords))
		if err != nil {
			return err
		}
		final = expandRes.Text
		totals.add(p.cfg.WriterModel, expandRes.Usage)
	}

	return p.complete(ctx, article.ID, final, totals, start)
}

func (p *Pipeline) complete(ctx context.Context, articleID, finalMarkdown string, totals usageTotals, start time.Time) error {
	wordCount := CountWords(finalMarkdown)
	if err := p.checkpoint(ctx, articleID, p.stageUpdate(totals, domain.ArticleUpdate{
		FinalMarkdown: &finalMarkdown,
		WordCount:     &wordCount,
		Status:        ptr(domain.ArticleStatusComplete),
		Progress:      ptr(100),
	})); err != nil {
		return err
	}
	p.logger.Info().
		Str("article_id", articleID).
		Int("word_count", wordCount).
		Int("total_tokens", totals.totalTokens).
		Float64("estimated_cost_usd", totals.costUSD).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline: article complete")
	return nil
}

// stageUpdate attaches the running accounting totals to a stage write so
// the persisted counters only ever increase.
func (p *Pipeline) stageUpdate(totals usageTotals, upd domain.ArticleUpdate) domain.ArticleUpdate {
	upd.PromptTokens = ptr(totals.promptTokens)
	upd.CompletionTokens = ptr(totals.completionTokens)
	upd.TotalTokens = ptr(totals.totalTokens)
	upd.EstimatedCostUSD = ptr(totals.costUSD)
	return upd
}

func (p *Pipeline) checkpoint(ctx context.Context, articleID string, upd domain.ArticleUpdate) error {
	if err := p.articles.Update(ctx, articleID, upd); err != nil {
		return fmt.Errorf("persist stage: %w", err)
	}
	return nil
}

// fail marks the job FAILED. The write is best-effort: if the store
// itself is unreachable there is nothing left to record the failure in.
func (p *Pipeline) fail(ctx context.Context, articleID, message string) {
	// The run context may already be cancelled or past its deadline.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
	}
	err := p.articles.Update(ctx, articleID, domain.ArticleUpdate{
		Status:       ptr(domain.ArticleStatusFailed),
		ErrorMessage: &message,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("article_id", articleID).Msg("pipeline: failed to record job failure")
	}
}

func ptr[T any](v T) *T { return &v }
