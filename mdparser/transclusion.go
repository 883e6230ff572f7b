package mdparser

import "strings"

const maxTransclusionDepth = 5

// expand replaces every "![[X]]"/"![[X#H]]" reference in body with the
// cached content of the target page, recursively, up to a depth cap that
// breaks cycles. Targets absent from the cache are left as literal text.
func (p *Parser) expand(body string, depth int) string {
	if depth > maxTransclusionDepth {
		return body
	}

	return transclusionPattern.ReplaceAllStringFunc(body, func(match string) string {
		groups := transclusionPattern.FindStringSubmatch(match)
		target := strings.TrimSpace(groups[1])
		header := strings.TrimSpace(groups[2])

		raw, ok := p.lookupCache(target)
		if !ok {
			return match
		}

		section := raw
		if header != "" {
			section = extractSection(raw, header)
		}
		return p.expand(section, depth+1)
	})
}
