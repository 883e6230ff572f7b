package configtracker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigMd(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "CONFIG.md"), []byte(content), 0644))
}

func TestOnConfigChangedWritesSidecarJSON(t *testing.T) {
	root := t.TempDir()
	dbDir := t.TempDir()
	writeConfigMd(t, root, "```space-lua\nconfig.set(\"search.limit\", 25)\n```\n")

	tr := New(dbDir, nil)
	require.NoError(t, tr.OnConfigChanged(context.Background(), root, "CONFIG.md"))

	body, err := os.ReadFile(filepath.Join(dbDir, sidecarFileName))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	search := got["search"].(map[string]interface{})
	assert.EqualValues(t, 25, search["limit"])
}

func TestOnConfigChangedLeavesSidecarUntouchedOnParseFailure(t *testing.T) {
	root := t.TempDir()
	dbDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dbDir, sidecarFileName), []byte(`{"old":true}`), 0644))
	writeConfigMd(t, root, "```space-lua\nthis is not valid lua at all\n```\n")

	tr := New(dbDir, nil)
	err := tr.OnConfigChanged(context.Background(), root, "CONFIG.md")
	require.Error(t, err)

	body, err := os.ReadFile(filepath.Join(dbDir, sidecarFileName))
	require.NoError(t, err)
	assert.JSONEq(t, `{"old":true}`, string(body))
}

func TestOnConfigChangedLeavesSidecarUntouchedOnMissingFile(t *testing.T) {
	root := t.TempDir()
	dbDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dbDir, sidecarFileName), []byte(`{"old":true}`), 0644))

	tr := New(dbDir, nil)
	err := tr.OnConfigChanged(context.Background(), root, "CONFIG.md")
	require.Error(t, err)

	body, err := os.ReadFile(filepath.Join(dbDir, sidecarFileName))
	require.NoError(t, err)
	assert.JSONEq(t, `{"old":true}`, string(body))
}
