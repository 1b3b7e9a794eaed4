// Package config loads the global router configuration and directory config resources.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/engine/pattern"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DirectoryDTO is the on-disk shape of a directory config resource. Absent keys stay nil.
type DirectoryDTO struct {
	Exec                  *[]string `yaml:"exec" json:"exec" toml:"exec"`
	Exclude               *[]string `yaml:"exclude" json:"exclude" toml:"exclude"`
	Suffix                *[]string `yaml:"suffix" json:"suffix" toml:"suffix"`
	Index                 *[]string `yaml:"index" json:"index" toml:"index"`
	ExecTryParentDir      *bool     `yaml:"exec_try_parent_dir" json:"exec_try_parent_dir" toml:"exec_try_parent_dir"`
	ExcludeNodeModules    *bool     `yaml:"exclude_node_modules" json:"exclude_node_modules" toml:"exclude_node_modules"`
	ImportStrategy        *string   `yaml:"import_strategy" json:"import_strategy" toml:"import_strategy"`
	InheritFromParent     *bool     `yaml:"inherit_from_parent" json:"inherit_from_parent" toml:"inherit_from_parent"`
	PropagateIntoChildren *bool     `yaml:"propagate_into_children" json:"propagate_into_children" toml:"propagate_into_children"`
}

// DirectoryLoader implements ports.DirectoryConfigLoader for YAML, JSON and TOML resources.
type DirectoryLoader struct{}

// NewDirectoryLoader creates a DirectoryLoader.
func NewDirectoryLoader() *DirectoryLoader {
	return &DirectoryLoader{}
}

// Load reads and strictly decodes the directory config resource at path.
func (l *DirectoryLoader) Load(path string) (*domain.DirectoryConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the watched root
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigLoadFailed, err.Error()), "path", path)
	}

	var dto DirectoryDTO
	if err := decode(filepath.Ext(path), data, &dto); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	cfg, err := dto.toDomain()
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	cfg.Source = path
	return cfg, nil
}

func decode(ext string, data []byte, dto *DirectoryDTO) error {
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(dto)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(dto)
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(dto)
	default:
		return zerr.With(zerr.Wrap(domain.ErrUnsupportedConfigFormat, "decode directory config"), "extension", ext)
	}

	// An empty resource is an empty config.
	if err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(domain.ErrConfigParseFailed, err.Error())
	}
	return nil
}

func (d *DirectoryDTO) toDomain() (*domain.DirectoryConfig, error) {
	cfg := &domain.DirectoryConfig{}

	if d.Exec != nil {
		rules, err := pattern.ParseAll(*d.Exec)
		if err != nil {
			return nil, zerr.With(err, "key", "exec")
		}
		cfg.Exec = domain.Some(rules)
	}
	if d.Exclude != nil {
		rules, err := pattern.ParseAll(*d.Exclude)
		if err != nil {
			return nil, zerr.With(err, "key", "exclude")
		}
		cfg.Exclude = domain.Some(rules)
	}
	if d.ImportStrategy != nil {
		strategy, err := domain.ParseImportStrategy(*d.ImportStrategy)
		if err != nil {
			return nil, err
		}
		cfg.ImportStrategy = domain.Some(strategy)
	}

	cfg.Suffix = optional(d.Suffix)
	cfg.Index = optional(d.Index)
	cfg.ExecTryParentDir = optional(d.ExecTryParentDir)
	cfg.ExcludeNodeModules = optional(d.ExcludeNodeModules)
	cfg.InheritFromParent = optional(d.InheritFromParent)
	cfg.PropagateIntoChildren = optional(d.PropagateIntoChildren)
	return cfg, nil
}

func optional[T any](p *T) domain.Opt[T] {
	if p == nil {
		return domain.Opt[T]{}
	}
	return domain.Some(*p)
}
