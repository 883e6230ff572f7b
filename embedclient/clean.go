package embedclient

import (
	"regexp"
	"strings"
)

var (
	leadingDashLine  = regexp.MustCompile(`(?m)^---[ \t]*\n`)
	aliasedWikilink  = regexp.MustCompile(`\[\[[^\]\|#]+\|([^\]]+)\]\]`)
	plainWikilink    = regexp.MustCompile(`\[\[([^\]\|#]+)\]\]`)
	hashtagWord      = regexp.MustCompile(`#([A-Za-z0-9_\-/]+)`)
	mentionWord      = regexp.MustCompile(`@(\w+)`)
	runsOfNewlines   = regexp.MustCompile(`\n{3,}`)
	runsOfSpaces     = regexp.MustCompile(`[ \t]{2,}`)
)

// clean applies the §4.2 text-normalization rules before a string is handed
// to a provider for embedding.
func clean(text string) string {
	text = leadingDashLine.ReplaceAllString(text, "")
	text = aliasedWikilink.ReplaceAllString(text, "$1")
	text = plainWikilink.ReplaceAllString(text, "$1")
	text = hashtagWord.ReplaceAllString(text, "$1")
	text = mentionWord.ReplaceAllString(text, "$1")
	text = runsOfNewlines.ReplaceAllString(text, "\n\n")
	text = runsOfSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
