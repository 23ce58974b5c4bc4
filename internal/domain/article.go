package domain

import "time"

// ArticleStatus enumerates the generation job lifecycle states.
type ArticleStatus string

const (
	ArticleStatusPending  ArticleStatus = "PENDING"
	ArticleStatusRunning  ArticleStatus = "RUNNING"
	ArticleStatusComplete ArticleStatus = "COMPLETE"
	ArticleStatusFailed   ArticleStatus = "FAILED"
)

// Terminal reports whether the status is a final state.
func (s ArticleStatus) Terminal() bool {
	return s == ArticleStatusComplete || s == ArticleStatusFailed
}

// Article is one durable generation job: the submitted transcript, the
// intermediate artifacts persisted after each pipeline stage, and the
// final output plus accounting totals.
type Article struct {
	ID               string
	UserID           string
	SourceURL        string
	VideoID          string
	VideoTitle       string
	VideoDescription string
	Transcript       string
	GenerationPrefs  *GenerationPrefs

	Chapters      *Chapters
	DraftMarkdown string
	Critique      *Critique
	FinalMarkdown string

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD float64
	WordCount        int

	Progress     int
	Status       ArticleStatus
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArticleUpdate is a partial update applied to an article record. Nil
// fields are left untouched so stage writes never clobber earlier
// artifacts.
type ArticleUpdate struct {
	Status       *ArticleStatus
	ErrorMessage *string
	Progress     *int

	Chapters      *Chapters
	DraftMarkdown *string
	Critique      *Critique
	FinalMarkdown *string

	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
	EstimatedCostUSD *float64
	WordCount        *int
}
