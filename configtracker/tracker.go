// Package configtracker watches CONFIG.md's space-lua blocks and mirrors
// them into a JSON sidecar used for runtime configuration, per §4.6.
package configtracker

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ladybug-space/ladybug/helper"
)

const sidecarFileName = "space_config.json"

// Tracker writes the merged CONFIG.md state to <DBDirectory>/space_config.json.
type Tracker struct {
	dbDirectory string
	logger      *slog.Logger
}

func New(dbDirectory string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{dbDirectory: dbDirectory, logger: logger}
}

// OnConfigChanged reads root/relPath, parses its space-lua blocks, and
// atomically replaces the sidecar JSON. Parse failures are logged and leave
// the previous sidecar untouched, per §4.6.
func (t *Tracker) OnConfigChanged(ctx context.Context, root, relPath string) error {
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return helper.WrapKind("read config file", helper.ErrConfigError, err)
	}

	config, err := buildConfig(string(raw))
	if err != nil {
		t.logger.Error("parse config file", slog.String("error", err.Error()))
		return helper.WrapKind("parse config file", helper.ErrConfigError, err)
	}

	if err := t.writeSidecar(config); err != nil {
		t.logger.Error("write config sidecar", slog.String("error", err.Error()))
		return helper.WrapKind("write config sidecar", helper.ErrConfigError, err)
	}
	return nil
}

func (t *Tracker) sidecarPath() string {
	return filepath.Join(t.dbDirectory, sidecarFileName)
}

// writeSidecar serializes config as pretty JSON and replaces the sidecar
// file atomically via a temp-file-then-rename, so a reader never observes a
// half-written document.
func (t *Tracker) writeSidecar(config map[string]interface{}) error {
	if err := os.MkdirAll(t.dbDirectory, 0750); err != nil {
		return err
	}

	body, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(t.dbDirectory, sidecarFileName+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, t.sidecarPath())
}
