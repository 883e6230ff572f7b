package mdparser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ladybug-space/ladybug/model"
)

var (
	// Transclusions must be matched before plain wikilinks, since
	// "![[X]]" also matches the wikilink pattern on its "[[X]]" suffix.
	transclusionPattern = regexp.MustCompile(`!\[\[([^\]\|#]+?)(?:#([^\]\|]+?))?\]\]`)
	wikilinkPattern     = regexp.MustCompile(`\[\[([^\]\|#]+?)(?:\|[^\]]*)?\]\]`)
	hashtagPattern      = regexp.MustCompile(`(^|[^\x60/\w])#([A-Za-z0-9_\-/]+)`)
	attributePattern    = regexp.MustCompile(`(^|[^!])\[([A-Za-z_][A-Za-z0-9_]*):\s*([^\]]*)\]`)
	dataBlockPattern    = regexp.MustCompile("(?s)```#(\\w+)\\n(.*?)\\n```")
)

// extractWikilinks returns the unique, order-preserving list of "[[X]]" and
// "[[X|alias]]" targets in body, excluding transclusion targets.
func extractWikilinks(body string) []string {
	stripped := transclusionPattern.ReplaceAllString(body, "")
	return uniqueOrdered(matchGroup(wikilinkPattern, stripped, 1))
}

// extractHashtags returns the unique, order-preserving list of "#word"
// hashtags in body.
func extractHashtags(body string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(body, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[2])
	}
	return uniqueOrdered(tags)
}

// extractTransclusions returns every "![[X]]" / "![[X#H]]" reference in body.
func extractTransclusions(body string) []model.Transclusion {
	matches := transclusionPattern.FindAllStringSubmatch(body, -1)
	out := make([]model.Transclusion, 0, len(matches))
	for _, m := range matches {
		out = append(out, model.Transclusion{Target: strings.TrimSpace(m[1]), Header: strings.TrimSpace(m[2])})
	}
	return out
}

// extractAttributes returns every "[name: value]" inline attribute in body.
// Markdown links "[text](url)" never match: a bracket whose closing "]" is
// immediately followed by "(" is skipped.
func extractAttributes(body string) []model.Attribute {
	matches := attributePattern.FindAllStringSubmatchIndex(body, -1)
	out := make([]model.Attribute, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, loc := range matches {
		if loc[1] < len(body) && body[loc[1]] == '(' {
			continue
		}
		name := body[loc[4]:loc[5]]
		value := strings.TrimSpace(body[loc[6]:loc[7]])
		if seen[name] {
			// Last occurrence of a repeated name wins; drop the earlier one.
			for i := range out {
				if out[i].Name == name {
					out[i].Value = value
				}
			}
			continue
		}
		seen[name] = true
		out = append(out, model.Attribute{Name: name, Value: value})
	}
	return out
}

// extractDataBlocks parses every fenced "```#tag\n...\n```" block in body as
// YAML. Blocks whose body fails to parse as YAML are silently dropped.
func extractDataBlocks(body string) []model.DataBlock {
	matches := dataBlockPattern.FindAllStringSubmatch(body, -1)
	out := make([]model.DataBlock, 0, len(matches))
	idx := 0
	for _, m := range matches {
		var data map[string]interface{}
		if err := yaml.Unmarshal([]byte(m[2]), &data); err != nil {
			continue
		}
		if data == nil {
			data = map[string]interface{}{}
		}
		out = append(out, model.DataBlock{
			Tag:   m[1],
			Index: idx,
			Data:  model.Metadata(data),
		})
		idx++
	}
	return out
}

func matchGroup(re *regexp.Regexp, s string, group int) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[group]))
	}
	return out
}

func uniqueOrdered(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
