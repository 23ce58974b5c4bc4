package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chapters is the structured outline produced by the first pipeline
// stage and used to guide the full-text draft.
type Chapters struct {
	Title    string           `json:"title"`
	Sections []ChapterSection `json:"sections"`
}

// ChapterSection is one outline entry.
type ChapterSection struct {
	Heading   string   `json:"heading"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
}

// Validate enforces the structural contract for model output: a real
// title and at least three sections, each with a heading, a summary and
// at least one key point.
func (c *Chapters) Validate() error {
	if minLen(c.Title, 3) {
		return fmt.Errorf("chapters: title must be at least 3 characters")
	}
	if len(c.Sections) < 3 {
		return fmt.Errorf("chapters: expected at least 3 sections, got %d", len(c.Sections))
	}
	for i, s := range c.Sections {
		if minLen(s.Heading, 3) {
			return fmt.Errorf("chapters: section %d heading must be at least 3 characters", i+1)
		}
		if minLen(s.Summary, 10) {
			return fmt.Errorf("chapters: section %d summary must be at least 10 characters", i+1)
		}
		if len(s.KeyPoints) < 1 {
			return fmt.Errorf("chapters: section %d has no key points", i+1)
		}
		for j, kp := range s.KeyPoints {
			if minLen(kp, 3) {
				return fmt.Errorf("chapters: section %d key point %d must be at least 3 characters", i+1, j+1)
			}
		}
	}
	return nil
}

// Critique is the structured feedback driving the rewrite stage.
type Critique struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Fixes      []string `json:"fixes"`
}

// Validate requires at least 2 strengths, 2 weaknesses and 3 fixes.
func (c *Critique) Validate() error {
	if err := minItems("strengths", c.Strengths, 2); err != nil {
		return err
	}
	if err := minItems("weaknesses", c.Weaknesses, 2); err != nil {
		return err
	}
	return minItems("fixes", c.Fixes, 3)
}

func minItems(field string, items []string, min int) error {
	if len(items) < min {
		return fmt.Errorf("critique: expected at least %d %s, got %d", min, field, len(items))
	}
	for i, item := range items {
		if minLen(item, 3) {
			return fmt.Errorf("critique: %s entry %d must be at least 3 characters", field, i+1)
		}
	}
	return nil
}

func minLen(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) < n
}
