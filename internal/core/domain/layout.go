package domain

import (
	"path/filepath"
	"slices"
	"strings"
)

const (
	// ConfigBaseName is the base name of directory config resources.
	ConfigBaseName = "__config__"

	// DefaultHandlerName is the base name of the fallback handler looked up at the root.
	DefaultHandlerName = "__default__"

	// NodeModulesDir is the dependency-manager directory vetoed when exclude_node_modules is set.
	NodeModulesDir = "node_modules"
)

// ConfigExtensions lists the recognized directory config formats, in lookup order.
var ConfigExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// IsConfigResource reports whether path names a directory config resource.
func IsConfigResource(path string) bool {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) == ConfigBaseName && slices.Contains(ConfigExtensions, ext)
}
