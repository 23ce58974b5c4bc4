package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"articlemaster/internal/domain"
)

// Prompt builders are pure string functions. The rules they spell out are
// functional requirements on the model output, not style guidance: the
// finished article must never reveal its transcript origin and must carry
// the SEO scaffolding the rest of the product depends on.

// ChaptersPrompt asks a model to organize a transcript into an outline.
func ChaptersPrompt(videoTitle, transcript string) string {
	title := videoTitle
	if strings.TrimSpace(title) == "" {
		title = "(unknown)"
	}
	return `You are a senior editor. Organize the following transcript into a clean chapter plan.

IMPORTANT: Do NOT cut or remove any content. Your job is to ORGANIZE the existing captions into logical chapters, not to summarize or condense them.

Rules:
- Output must match the requested JSON schema exactly.
- Create a clear title and 4-10 sections based on the natural flow of the content.
- Each section has a heading, a concise summary, and 3-8 keyPoints.
- The keyPoints should reflect the actual topics covered in that section of the transcript.
- Do not mention the words "video", "YouTube", "transcript", or that this is a conversion.
- Preserve all information - just organize it into logical sections.

Context title: ` + title + `

Transcript:
` + transcript
}

// WriterPrompt asks for the first full-text draft. minWords is the
// tier-dependent length floor.
func WriterPrompt(videoTitle, chaptersJSON, transcript, instructions, seoKeywords string, minWords int) string {
	title := videoTitle
	if strings.TrimSpace(title) == "" {
		title = "(unknown)"
	}
	var b strings.Builder
	b.WriteString(`You are a professional technical/marketing writer.

Write a highly focused, SEO-optimized, professional long-form article in Markdown.

Hard rules:
- Do NOT mention you are summarizing a video or using a transcript.
- Do NOT mention YouTube.
- Write as if the content is an original article.
- Use clear headings and short paragraphs.
- Avoid excessive bullet points and numbered lists. Use lists only when truly helpful:
  - Key takeaways: max 5 bullets total.
  - If you must include a checklist: max 5 items, and keep it rare.
- Prefer specificity, avoid fluff and repetition.
`)
	fmt.Fprintf(&b, "- Minimum length: %d words. Target %d-%d words when possible.\n", minWords, minWords+300, minWords+700)
	b.WriteString(`- Include:
  - A strong H1 title
  - A 1-paragraph intro that matches search intent
  - A short "Key takeaways" bullet list (max 5 bullets)
  - A table of contents as plain lines (no bullets/numbers)
  - Multiple H2 sections with practical details and examples (avoid lists unless necessary)
  - A short FAQ (5-8 questions) using H3 question headings (no bullet/number lists)
  - A conclusion with next steps
- At the very top, include an HTML comment with:
  - SEO Title (<= 60 chars)
  - Meta Description (<= 155 chars)
  - Primary Keyword
  - 5-10 Secondary Keywords
`)
	writeExtras(&b, instructions, seoKeywords)
	b.WriteString("\nUse these chapters as the outline:\n")
	b.WriteString(chaptersJSON)
	b.WriteString("\n\nSource content (for facts and details):\n")
	b.WriteString(transcript)
	b.WriteString("\n\nOptional title context: ")
	b.WriteString(title)
	return b.String()
}

// CritiquePrompt asks for structured feedback on a draft.
func CritiquePrompt(draftMarkdown string) string {
	return `You are a senior editor.

Analyze the article below and produce a detailed critique.

Rules:
- Output must match the requested JSON schema exactly.
- Provide concrete, actionable fixes.
- Focus on clarity, structure, SEO, and professionalism.

Article:
` + draftMarkdown
}

// RewritePrompt asks for a rewrite of the original draft according to the
// critique. It always receives the pre-critique draft, never a previous
// rewrite, so successive passes cannot drift.
func RewritePrompt(draftMarkdown, critiqueJSON, instructions, seoKeywords string, minWords int) string {
	var b strings.Builder
	b.WriteString(`You are a professional writer.

Rewrite the article below according to the critique.

Rules:
- Output ONLY the rewritten article in Markdown.
- Do NOT mention the critique.
- Do NOT mention YouTube/video/transcript.
- Implement fixes faithfully.
`)
	fmt.Fprintf(&b, "- Ensure the final article is SEO-first and long-form (minimum %d words).\n", minWords)
	b.WriteString(`- Reduce bullet points/numbered lists (keep only minimal, high-value lists).
- Preserve or improve the SEO HTML comment block (SEO Title, Meta Description, Primary/Secondary keywords).
`)
	writeExtras(&b, instructions, seoKeywords)
	b.WriteString("\nCritique:\n")
	b.WriteString(critiqueJSON)
	b.WriteString("\n\nDraft:\n")
	b.WriteString(draftMarkdown)
	return b.String()
}

// ExpandPrompt asks for a single lengthening pass on an under-length
// article.
func ExpandPrompt(articleMarkdown, transcript, instructions, seoKeywords string, minWords int) string {
	var b strings.Builder
	b.WriteString(`You are a professional editor and SEO writer.

Expand and improve the article below so it becomes a complete long-form, SEO-optimized piece.

Rules:
- Output ONLY the updated article in Markdown.
`)
	fmt.Fprintf(&b, "- Minimum length: %d words (target %d-%d).\n", minWords, minWords+300, minWords+900)
	b.WriteString(`- Do NOT mention YouTube/video/transcript.
- Keep the topic tightly focused (no filler).
- Add depth by expanding explanations, adding examples, and adding a few more relevant subsections.
- Avoid excessive bullet points and numbered lists.
- Ensure the article contains: Key takeaways, table of contents, FAQ (5-8 questions), and a conclusion.
- Keep or improve the SEO HTML comment block at the top.
`)
	writeExtras(&b, instructions, seoKeywords)
	b.WriteString("\nUse this source content for facts and details:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nCurrent article:\n")
	b.WriteString(articleMarkdown)
	return b.String()
}

func writeExtras(b *strings.Builder, instructions, seoKeywords string) {
	if strings.TrimSpace(instructions) != "" {
		b.WriteString("\n")
		b.WriteString(instructions)
		b.WriteString("\n")
	}
	if kw := strings.TrimSpace(seoKeywords); kw != "" {
		b.WriteString("\nSEO focus keywords (weave them in naturally, never stuff):\n")
		b.WriteString(kw)
		b.WriteString("\n")
	}
}

// BuildInstructions renders generation preferences into the free-text
// instruction block shared by the writer, rewrite and expand stages.
func BuildInstructions(prefs *domain.GenerationPrefs) string {
	if prefs.IsZero() {
		return ""
	}
	var lines []string
	if name := languageName(prefs.Language); name != "" {
		lines = append(lines, "Write the entire article in "+name+".")
	}
	if tone := strings.TrimSpace(prefs.Tone); tone != "" {
		lines = append(lines, "Tone of voice: "+tone+".")
	}
	if include := strings.TrimSpace(prefs.Include); include != "" {
		lines = append(lines, "Make sure to cover: "+include+".")
	}
	if exclude := strings.TrimSpace(prefs.Exclude); exclude != "" {
		lines = append(lines, "Do not mention or discuss: "+exclude+".")
	}
	if notes := strings.TrimSpace(prefs.AdditionalNotes); notes != "" {
		lines = append(lines, "Additional notes: "+notes+".")
	}
	if len(lines) == 0 {
		return ""
	}
	return "Custom instructions (follow strictly):\n- " + strings.Join(lines, "\n- ")
}

// languageName resolves a BCP 47 tag ("pt-BR") or plain language word
// ("Spanish") into an English display name for the prompt.
func languageName(pref string) string {
	pref = strings.TrimSpace(pref)
	if pref == "" {
		return ""
	}
	tag, err := language.Parse(pref)
	if err != nil {
		// Free text like "Spanish" is passed through untouched.
		return pref
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return pref
}
