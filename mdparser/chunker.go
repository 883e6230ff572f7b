package mdparser

import (
	"regexp"
	"strings"
)

var level2Heading = regexp.MustCompile(`(?m)^##[ \t]+(.+?)[ \t]*$`)

type rawSection struct {
	header  string
	content string
}

// splitSections implements the chunking rule in §4.1: split the body by
// level-2 ("## ") headings. Deeper headings stay inline in whichever section
// they fall under. A body with no level-2 headings is one section whose
// header is the supplied default (the filename stem).
func splitSections(body string, defaultHeader string) []rawSection {
	locs := level2Heading.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		return []rawSection{{header: defaultHeader, content: strings.TrimSpace(body)}}
	}

	sections := make([]rawSection, 0, len(locs)+1)
	if preamble := strings.TrimSpace(body[:locs[0][0]]); preamble != "" {
		sections = append(sections, rawSection{header: defaultHeader, content: preamble})
	}
	for i, loc := range locs {
		header := body[loc[2]:loc[3]]
		contentStart := loc[1]
		contentEnd := len(body)
		if i+1 < len(locs) {
			contentEnd = locs[i+1][0]
		}
		sections = append(sections, rawSection{
			header:  strings.TrimSpace(header),
			content: strings.TrimSpace(body[contentStart:contentEnd]),
		})
	}
	return sections
}

var anyHeading = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t]*$`)

// extractSection pulls the subsection of raw starting at the first heading
// whose text matches header case-insensitively, continuing until the next
// heading of equal or shallower depth. If no such heading is found, raw is
// returned unchanged.
func extractSection(raw string, header string) string {
	locs := anyHeading.FindAllStringSubmatchIndex(raw, -1)
	target := strings.ToLower(header)

	for i, loc := range locs {
		text := raw[loc[4]:loc[5]]
		if strings.ToLower(text) != target {
			continue
		}
		level := loc[3] - loc[2]
		start := loc[1]
		end := len(raw)
		for j := i + 1; j < len(locs); j++ {
			nextLevel := locs[j][3] - locs[j][2]
			if nextLevel <= level {
				end = locs[j][0]
				break
			}
		}
		return strings.TrimSpace(raw[start:end])
	}
	return raw
}
