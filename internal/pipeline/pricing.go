package pipeline

import "articlemaster/internal/providers/openrouter"

// modelPricing is USD per million tokens. Best-effort estimates; prices
// can differ by provider and region.
type modelPricing struct {
	Input  float64
	Output float64
}

var pricingUSDPerMillionTokens = map[string]modelPricing{
	"openai/gpt-4o":                    {Input: 5, Output: 15},
	"openai/gpt-4o-mini":               {Input: 0.15, Output: 0.6},
	"openai/gpt-5.2":                   {Input: 10, Output: 30},
	"google/gemini-2.0-flash-lite-001": {Input: 0.075, Output: 0.3},
	"moonshotai/kimi-k2-thinking":      {Input: 2, Output: 8},
}

// estimateCostUSD prices an invocation from the static table. The second
// return is false for unknown models; such stages contribute no cost.
func estimateCostUSD(modelID string, promptTokens, completionTokens int) (float64, bool) {
	pricing, ok := pricingUSDPerMillionTokens[modelID]
	if !ok {
		return 0, false
	}
	input := float64(promptTokens) / 1_000_000 * pricing.Input
	output := float64(completionTokens) / 1_000_000 * pricing.Output
	return input + output, true
}

// usageTotals is the running accumulator folded over every stage the job
// actually executes. It only ever increases.
type usageTotals struct {
	promptTokens     int
	completionTokens int
	totalTokens      int
	costUSD          float64
}

// add folds one invocation's normalized usage into the totals. A real
// reported cost wins over the price table; a stage with neither leaves
// the cost total unchanged.
func (t *usageTotals) add(modelID string, u openrouter.Usage) {
	t.promptTokens += u.PromptTokens
	t.completionTokens += u.CompletionTokens
	t.totalTokens += u.TotalTokens
	if u.CostUSD != nil && *u.CostUSD > 0 {
		t.costUSD += *u.CostUSD
		return
	}
	if cost, ok := estimateCostUSD(modelID, u.PromptTokens, u.CompletionTokens); ok {
		t.costUSD += cost
	}
}
