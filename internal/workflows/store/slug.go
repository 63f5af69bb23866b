package store

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// slugRegex matches characters that should be replaced with hyphens
	slugRegex = regexp.MustCompile(`[^a-z0-9]+`)
	// multiHyphenRegex matches multiple consecutive hyphens
	multiHyphenRegex = regexp.MustCompile(`-+`)
)

// maxSlugLen bounds generated workflow IDs.
const maxSlugLen = 50

// Slugify converts a name into a workflow ID.
// Rules:
// - Lowercase (unicode aware)
// - Replace anything outside a-z and 0-9 with hyphens
// - Collapse multiple hyphens
// - Trim leading/trailing hyphens
// - Max length: 50 chars
//
// Examples:
//
//	"Lint On Commit" -> "lint-on-commit"
//	"notify_slack" -> "notify-slack"
func Slugify(name string) string {
	if name == "" {
		return ""
	}

	result := cases.Lower(language.Und).String(strings.TrimSpace(name))

	result = slugRegex.ReplaceAllString(result, "-")
	result = multiHyphenRegex.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > maxSlugLen {
		// Cut at the last hyphen so a word is not split
		cutoff := maxSlugLen
		if idx := strings.LastIndex(result[:cutoff], "-"); idx > 0 {
			cutoff = idx
		}
		result = result[:cutoff]
	}

	return result
}

// ScriptID derives a workflow ID from a script file name by slugifying its
// stem ("Lint On Commit.ts" -> "lint-on-commit").
func ScriptID(filename string) string {
	base := filepath.Base(filename)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	if id := Slugify(base); id != "" {
		return id
	}
	return "workflow"
}

// GenerateUniqueSlug returns base, or base with a numeric suffix when base
// is already taken.
func GenerateUniqueSlug(base string, existing []string) string {
	if base == "" {
		base = "workflow"
	}
	slug := base
	for i := 1; slices.Contains(existing, slug); i++ {
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return slug
}
