package rpc

import (
	"errors"
	"path/filepath"
	"strings"
)

var errInvalidPageName = errors.New("Invalid page name")

// resolveSafe resolves name against root and rejects any path that would
// escape root, per §6's path-safety contract.
func resolveSafe(root, name string) (string, error) {
	abs := filepath.Clean(filepath.Join(root, filepath.FromSlash(name)))
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errInvalidPageName
	}
	return abs, nil
}
