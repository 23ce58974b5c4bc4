package domain

import "strings"

// GenerationPrefs customizes the writer, rewrite and expand stages.
// Every field is optional free text.
type GenerationPrefs struct {
	Language        string `json:"language,omitempty"`
	Tone            string `json:"tone,omitempty"`
	Include         string `json:"include,omitempty"`
	Exclude         string `json:"exclude,omitempty"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`
	SEOKeywords     string `json:"seoKeywords,omitempty"`
}

// IsZero reports whether no preference is set.
func (p *GenerationPrefs) IsZero() bool {
	if p == nil {
		return true
	}
	return p.Language == "" && p.Tone == "" && p.Include == "" &&
		p.Exclude == "" && p.AdditionalNotes == "" && p.SEOKeywords == ""
}

// Layered merges p over base: per-job preferences always win, the base
// (an account's persistent premium preferences) fills the gaps.
func (p *GenerationPrefs) Layered(base *GenerationPrefs) *GenerationPrefs {
	if base.IsZero() {
		return p
	}
	if p.IsZero() {
		out := *base
		return &out
	}
	out := *p
	if strings.TrimSpace(out.Language) == "" {
		out.Language = base.Language
	}
	if strings.TrimSpace(out.Tone) == "" {
		out.Tone = base.Tone
	}
	if strings.TrimSpace(out.Include) == "" {
		out.Include = base.Include
	}
	if strings.TrimSpace(out.Exclude) == "" {
		out.Exclude = base.Exclude
	}
	if strings.TrimSpace(out.AdditionalNotes) == "" {
		out.AdditionalNotes = base.AdditionalNotes
	}
	if strings.TrimSpace(out.SEOKeywords) == "" {
		out.SEOKeywords = base.SEOKeywords
	}
	return &out
}
