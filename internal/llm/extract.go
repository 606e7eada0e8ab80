package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Models are instructed to fence structured output, but free-form text
// around or instead of the fence is common. These extractors pull the
// payload out of whatever arrived; callers fall back gracefully when
// nothing matches.
var (
	sqlFence  = regexp.MustCompile("(?i)```(?:sql)?\\s*([\\s\\S]*?)\\s*```")
	jsonFence = regexp.MustCompile("(?i)```json([\\s\\S]*?)```")
	jsonArray = regexp.MustCompile(`\[[\s\S]*?\]`)

	markdownHeading  = regexp.MustCompile(`(?m)^\d+\.\s*\*\*(.*?)\*\*\s*`)
	markdownBold     = regexp.MustCompile(`\*\*`)
	markdownNumbered = regexp.MustCompile(`(?m)^\d+\.\s*`)
)

// ExtractSQL returns the contents of the first fenced code block, or the
// whole trimmed text when no fence is present (models sometimes return the
// bare statement).
func ExtractSQL(text string) string {
	if m := sqlFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ExtractFencedJSON locates the first ```json fenced block and returns its
// raw contents plus the full fence for removal from the surrounding prose.
func ExtractFencedJSON(text string) (payload, fence string, ok bool) {
	m := jsonFence.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), m[0], true
}

// ExtractStringArray parses a JSON string array out of text, tolerating
// surrounding prose. Returns nil when no parseable array is found.
func ExtractStringArray(text string) []string {
	candidate := text
	if m := jsonArray.FindString(text); m != "" {
		candidate = m
	}

	var out []string
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return nil
	}
	return out
}

// StripMarkdown removes heading, bold, and numbered-list artifacts that
// models sprinkle into prose explanations.
func StripMarkdown(text string) string {
	text = markdownHeading.ReplaceAllString(text, "")
	text = markdownBold.ReplaceAllString(text, "")
	text = markdownNumbered.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
