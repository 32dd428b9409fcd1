// Package importer turns Markdown notes into memory records for bulk
// ingestion. Each top-level list item becomes one memory; files without
// list items contribute one memory per paragraph. YAML frontmatter supplies
// category, source, importance, and tags for the whole file.
package importer

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minerva-ai/minerva/internal/storage"
)

// NoteFile is one parsed Markdown file: file-level attributes from the
// frontmatter plus the extracted memory entries.
type NoteFile struct {
	// Category applies to every entry; from frontmatter "category".
	Category string

	// Source applies to every entry; from frontmatter "source", defaulting
	// to "external".
	Source string

	// Importance applies to every entry when > 0; from frontmatter.
	Importance int

	// Tags merges the frontmatter tag list with inline #hashtags.
	Tags []string

	// CreatedAt is the frontmatter date, or zero when absent.
	CreatedAt time.Time

	// Entries are the individual memory contents in document order.
	Entries []string
}

// AddParams expands the parsed file into one storage.AddParams per entry.
func (f *NoteFile) AddParams() []storage.AddParams {
	params := make([]storage.AddParams, 0, len(f.Entries))
	for _, entry := range f.Entries {
		p := storage.AddParams{
			Content:  entry,
			Category: f.Category,
			Source:   f.Source,
			Tags:     f.Tags,
		}
		if f.Importance > 0 {
			imp := f.Importance
			p.Importance = &imp
		}
		if !f.CreatedAt.IsZero() {
			created := f.CreatedAt
			p.CreatedAt = &created
		}
		params = append(params, p)
	}
	return params
}

// ParseNoteFile parses Markdown content into memory entries.
func ParseNoteFile(content []byte) (*NoteFile, error) {
	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, err
	}

	file := &NoteFile{
		Category:   extractString(fm, "category", ""),
		Source:     extractString(fm, "source", "external"),
		Importance: extractInt(fm, "importance"),
		Tags:       mergeTags(extractTags(fm), extractInlineTags(body)),
		CreatedAt:  extractTimestamp(fm),
		Entries:    extractEntries(body),
	}
	return file, nil
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters) from
// the Markdown body. Returns an empty map and the full text when no
// frontmatter is present.
func splitFrontmatter(text string) (map[string]interface{}, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return map[string]interface{}{}, text, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return map[string]interface{}{}, text, nil
	}

	fm := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:closeIdx], "\n")), &fm); err != nil {
		return nil, "", fmt.Errorf("importer: invalid frontmatter: %w", err)
	}
	return fm, strings.Join(lines[closeIdx+1:], "\n"), nil
}

var listItemRe = regexp.MustCompile(`^\s*[-*+]\s+`)

// extractEntries pulls memory contents from the body: one per top-level
// list item when the note is a list, otherwise one per paragraph. Headings
// and inline tags are stripped; continuation lines of a list item fold into
// the item.
func extractEntries(body string) []string {
	var items []string
	var current strings.Builder

	flush := func() {
		if text := cleanEntry(current.String()); text != "" {
			items = append(items, text)
		}
		current.Reset()
	}

	inList := false
	for _, line := range strings.Split(body, "\n") {
		switch {
		case listItemRe.MatchString(line):
			flush()
			inList = true
			current.WriteString(listItemRe.ReplaceAllString(line, ""))
		case inList && strings.TrimSpace(line) != "" && strings.HasPrefix(line, " "):
			current.WriteString(" ")
			current.WriteString(strings.TrimSpace(line))
		case strings.TrimSpace(line) == "":
			flush()
			inList = false
		}
	}
	flush()

	if len(items) > 0 {
		return items
	}

	// No list items: fall back to paragraphs.
	var paragraphs []string
	for _, para := range strings.Split(body, "\n\n") {
		var kept []string
		for _, line := range strings.Split(para, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				continue // heading or tag-only line
			}
			kept = append(kept, line)
		}
		if text := cleanEntry(strings.Join(kept, " ")); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs
}

// cleanEntry strips inline hashtags and collapses whitespace.
func cleanEntry(text string) string {
	text = inlineTagRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// extractTags reads tags from frontmatter, handling both list and
// comma-separated string forms.
func extractTags(fm map[string]interface{}) []string {
	raw, ok := fm["tags"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []interface{}:
		var tags []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		var tags []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}
	return nil
}

// extractTimestamp reads a date field from frontmatter, trying several
// common layouts.
func extractTimestamp(fm map[string]interface{}) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, key := range []string{"date", "created", "created_at"} {
		raw, ok := fm[key]
		if !ok {
			continue
		}
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		case time.Time:
			return v
		default:
			s = fmt.Sprintf("%v", v)
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func extractString(fm map[string]interface{}, key, defaultVal string) string {
	if v, ok := fm[key]; ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return defaultVal
}

func extractInt(fm map[string]interface{}, key string) int {
	if v, ok := fm[key]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

// inlineTagRe finds #hashtag patterns in body text.
var inlineTagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// extractInlineTags finds #hashtag patterns, deduplicated case-insensitively
// in order of first appearance.
func extractInlineTags(body string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, m := range inlineTagRe.FindAllStringSubmatch(body, -1) {
		tag := strings.TrimSpace(m[1])
		lower := strings.ToLower(tag)
		if !seen[lower] {
			seen[lower] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// mergeTags combines two tag slices deduplicating by lowercase value.
func mergeTags(a, b []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, tag := range append(a, b...) {
		lower := strings.ToLower(tag)
		if !seen[lower] {
			seen[lower] = true
			result = append(result, tag)
		}
	}
	return result
}
