package configtracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLuaBlocksFindsEveryFence(t *testing.T) {
	content := "intro\n```space-lua\nconfig.set(\"a\", 1)\n```\nmiddle\n```space-lua\nconfig.set(\"b\", 2)\n```\n"
	blocks := extractLuaBlocks(content)
	assert.Len(t, blocks, 2)
}

func TestBuildConfigLaterStatementsMergeOverEarlier(t *testing.T) {
	content := "```space-lua\n" +
		`config.set { search = { limit = 10, fusion = "rrf" } }` + "\n" +
		`config.set("search.limit", 25)` + "\n" +
		"```\n"

	config, err := buildConfig(content)
	require.NoError(t, err)
	search := config["search"].(map[string]interface{})
	assert.Equal(t, int64(25), search["limit"])
	assert.Equal(t, "rrf", search["fusion"], "unrelated leaf from the earlier statement must survive the merge")
}

func TestBuildConfigReturnsErrorWhenNoStatementsParse(t *testing.T) {
	content := "```space-lua\nthis is not valid lua at all\n```\n"
	_, err := buildConfig(content)
	assert.Error(t, err)
}

func TestBuildConfigSucceedsWithNoBlocksAtAll(t *testing.T) {
	config, err := buildConfig("just a regular note, no config here\n")
	require.NoError(t, err)
	assert.Empty(t, config)
}

func TestDeepMergeReplacesLeavesAndMergesSubmaps(t *testing.T) {
	dst := map[string]interface{}{
		"a": map[string]interface{}{"x": 1, "y": 2},
		"b": "old",
	}
	src := map[string]interface{}{
		"a": map[string]interface{}{"x": 99},
		"b": "new",
	}
	deepMerge(dst, src)

	a := dst["a"].(map[string]interface{})
	assert.Equal(t, 99, a["x"])
	assert.Equal(t, 2, a["y"])
	assert.Equal(t, "new", dst["b"])
}
