package mdparser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ladybug-space/ladybug/model"
)

const frontmatterDelimiter = "---"

// splitFrontmatter separates a leading "---\n...\n---\n" YAML block from the
// rest of the document. If no such block is present the whole input is the
// body and the returned frontmatter is empty.
func splitFrontmatter(content string) (model.Metadata, string, error) {
	if !strings.HasPrefix(content, frontmatterDelimiter) {
		return model.Metadata{}, content, nil
	}

	rest := content[len(frontmatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx == -1 {
		return model.Metadata{}, content, nil
	}

	raw := rest[:idx]
	body := strings.TrimPrefix(rest[idx+len("\n"+frontmatterDelimiter):], "\n")

	var fm map[string]interface{}
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return model.Metadata{}, content, fmt.Errorf("parse frontmatter: %w", err)
	}
	if fm == nil {
		fm = map[string]interface{}{}
	}

	return model.Metadata(fm), body, nil
}

// frontmatterTags normalizes frontmatter["tags"], which may be a single
// string, a comma-separated string, or a YAML list of strings.
func frontmatterTags(fm model.Metadata) []string {
	raw, ok := fm["tags"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case string:
		return splitTagString(v)
	case []interface{}:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	default:
		return nil
	}
}

func splitTagString(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// mergeTags appends frontmatter tags after content tags, preserving content
// order first and dropping duplicates, per §4.1.
func mergeTags(contentTags, frontmatterTags []string) []string {
	seen := make(map[string]bool, len(contentTags)+len(frontmatterTags))
	merged := make([]string, 0, len(contentTags)+len(frontmatterTags))
	for _, t := range contentTags {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range frontmatterTags {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	return merged
}
