package openrouter

// Usage is the normalized token/cost report for one model invocation.
// CostUSD is nil when the provider did not attach a real cost.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          *float64
}

// wireUsage accepts the field names used across providers proxied by
// OpenRouter: OpenAI-style prompt/completion counts, Anthropic-style
// input/output counts, and an optional true dollar cost.
type wireUsage struct {
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	TotalTokens      int      `json:"total_tokens"`
	InputTokens      int      `json:"input_tokens"`
	OutputTokens     int      `json:"output_tokens"`
	Total            int      `json:"total"`
	Cost             *float64 `json:"cost"`
}

// normalizeUsage prefers the directly reported total and otherwise
// derives it from the prompt and completion counts.
func normalizeUsage(w wireUsage) Usage {
	prompt := w.PromptTokens
	if prompt == 0 {
		prompt = w.InputTokens
	}
	completion := w.CompletionTokens
	if completion == 0 {
		completion = w.OutputTokens
	}
	total := w.TotalTokens
	if total == 0 {
		total = w.Total
	}
	if total == 0 {
		total = prompt + completion
	}
	u := Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
	if w.Cost != nil && *w.Cost > 0 {
		cost := *w.Cost
		u.CostUSD = &cost
	}
	return u
}
