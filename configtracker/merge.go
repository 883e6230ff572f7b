package configtracker

import (
	"fmt"
	"regexp"
	"strings"
)

var spaceLuaFence = regexp.MustCompile("(?s)```space-lua\\s*\\n(.*?)```")

// extractLuaBlocks returns the body of every fenced block opened by
// ```space-lua, in document order.
func extractLuaBlocks(content string) []string {
	matches := spaceLuaFence.FindAllStringSubmatch(content, -1)
	blocks := make([]string, len(matches))
	for i, m := range matches {
		blocks[i] = m[1]
	}
	return blocks
}

// buildConfig parses every space-lua block in content and deep-merges their
// statements, in block order then statement order, per the later-wins rule.
// It returns an error when every non-blank block failed to yield a single
// statement, so a genuinely malformed CONFIG.md doesn't replace the sidecar
// with an empty config.
func buildConfig(content string) (map[string]interface{}, error) {
	blocks := extractLuaBlocks(content)
	root := map[string]interface{}{}
	nonBlankBlocks := 0
	totalStmts := 0
	for _, block := range blocks {
		if strings.TrimSpace(block) != "" {
			nonBlankBlocks++
		}
		stmts := parseStatements(block)
		totalStmts += len(stmts)
		for _, stmt := range stmts {
			deepMerge(root, stmt.patch)
		}
	}
	if nonBlankBlocks > 0 && totalStmts == 0 {
		return nil, fmt.Errorf("no config.set statements parsed from %d space-lua block(s)", nonBlankBlocks)
	}
	return root, nil
}

// deepMerge merges src into dst in place: leaf values in src replace dst's,
// map values recurse and merge rather than replace wholesale.
func deepMerge(dst, src map[string]interface{}) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]interface{})
		if !srcIsMap {
			dst[k] = v
			continue
		}
		dstMap, dstIsMap := dst[k].(map[string]interface{})
		if !dstIsMap {
			dstMap = map[string]interface{}{}
			dst[k] = dstMap
		}
		deepMerge(dstMap, srcMap)
	}
}
