package pipeline

import (
	"regexp"
	"strings"
)

var fencedCodeBlock = regexp.MustCompile("(?s)```.*?```")

// CountWords counts whitespace-separated words in markdown, excluding
// fenced code blocks. Code samples should not count toward the length
// thresholds that trigger the expansion stage.
func CountWords(markdown string) int {
	withoutCode := fencedCodeBlock.ReplaceAllString(markdown, " ")
	return len(strings.Fields(withoutCode))
}
