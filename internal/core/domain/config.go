package domain

import (
	"slices"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// ImportStrategy selects how the loader obtains a fresh module for a resource.
type ImportStrategy string

const (
	// ImportNever always loads synchronously through the module cache.
	ImportNever ImportStrategy = "never"
	// ImportAlways loads asynchronously under a fresh cache key.
	// Modules loaded this way are never reclaimed.
	ImportAlways ImportStrategy = "always"
	// ImportFallback loads synchronously and retries asynchronously on failure.
	ImportFallback ImportStrategy = "fallback"
)

// ParseImportStrategy parses an import strategy name.
func ParseImportStrategy(s string) (ImportStrategy, error) {
	switch ImportStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case ImportNever, "":
		return ImportNever, nil
	case ImportAlways:
		return ImportAlways, nil
	case ImportFallback:
		return ImportFallback, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidImportStrategy, "parse import strategy"), "value", s)
	}
}

// LogLevel is a named logging level. LogLevelNone disables logging for the concern it configures.
type LogLevel string

const (
	// LogLevelNone disables logging.
	LogLevelNone LogLevel = "none"
	// LogLevelDebug logs at debug level.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs at info level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs at warn level.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs at error level.
	LogLevelError LogLevel = "error"
)

// ParseLogLevel parses a log level name. An empty string yields fallback.
func ParseLogLevel(s string, fallback LogLevel) (LogLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback, nil
	}
	if s == "warning" {
		s = string(LogLevelWarn)
	}
	switch lvl := LogLevel(s); lvl {
	case LogLevelNone, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return lvl, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidLogLevel, "parse log level"), "value", s)
	}
}

// Opt is a configuration value that may be left unset so it can be inherited.
type Opt[T any] struct {
	Value T
	Set   bool
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Set: true}
}

// Or returns the value if set, def otherwise.
func (o Opt[T]) Or(def T) T {
	if o.Set {
		return o.Value
	}
	return def
}

// orElse returns o if it is set, other otherwise.
func (o Opt[T]) orElse(other Opt[T]) Opt[T] {
	if o.Set {
		return o
	}
	return other
}

// Settings is the subset of configuration shared between the global and directory scopes.
type Settings struct {
	Exec               Opt[RuleSet]
	Exclude            Opt[RuleSet]
	Suffix             Opt[[]string]
	Index              Opt[[]string]
	ExecTryParentDir   Opt[bool]
	ExcludeNodeModules Opt[bool]
	ImportStrategy     Opt[ImportStrategy]
}

// Fill returns a copy of s where every unset field takes its value from other.
func (s Settings) Fill(other Settings) Settings {
	return Settings{
		Exec:               s.Exec.orElse(other.Exec),
		Exclude:            s.Exclude.orElse(other.Exclude),
		Suffix:             s.Suffix.orElse(other.Suffix),
		Index:              s.Index.orElse(other.Index),
		ExecTryParentDir:   s.ExecTryParentDir.orElse(other.ExecTryParentDir),
		ExcludeNodeModules: s.ExcludeNodeModules.orElse(other.ExcludeNodeModules),
		ImportStrategy:     s.ImportStrategy.orElse(other.ImportStrategy),
	}
}

// Effective resolves s against the hard defaults.
func (s Settings) Effective() Effective {
	full := s.Fill(DefaultSettings())
	return Effective{
		Exec:               full.Exec.Value,
		Exclude:            full.Exclude.Value,
		Suffix:             full.Suffix.Value,
		Index:              full.Index.Value,
		ExecTryParentDir:   full.ExecTryParentDir.Value,
		ExcludeNodeModules: full.ExcludeNodeModules.Value,
		ImportStrategy:     full.ImportStrategy.Value,
	}
}

// DefaultSettings returns the hard defaults for every shared field.
func DefaultSettings() Settings {
	return Settings{
		Exec:               Some(Globs("*.route.*")),
		Exclude:            Some(Globs("*.ts", "*.map")),
		Suffix:             Some([]string{".route.sh"}),
		Index:              Some([]string{"index.route.sh", "index.html"}),
		ExecTryParentDir:   Some(true),
		ExcludeNodeModules: Some(true),
		ImportStrategy:     Some(ImportNever),
	}
}

// Effective is a fully resolved configuration for one path.
type Effective struct {
	Exec               RuleSet
	Exclude            RuleSet
	Suffix             []string
	Index              []string
	ExecTryParentDir   bool
	ExcludeNodeModules bool
	ImportStrategy     ImportStrategy
}

// DirectoryConfig is the configuration explicitly loaded for one directory.
type DirectoryConfig struct {
	Settings
	// InheritFromParent defaults to true. It never inherits or propagates itself.
	InheritFromParent Opt[bool]
	// PropagateIntoChildren defaults to true. It never inherits or propagates itself.
	PropagateIntoChildren Opt[bool]
	// Source is the config resource the value was loaded from.
	Source string
}

// Inherits reports whether the directory config continues the walk to its ancestors.
func (c *DirectoryConfig) Inherits() bool {
	return c.InheritFromParent.Or(true)
}

// Propagates reports whether the directory config applies to paths below its directory.
func (c *DirectoryConfig) Propagates() bool {
	return c.PropagateIntoChildren.Or(true)
}

// GlobalConfig configures one router instance. It is immutable after construction.
type GlobalConfig struct {
	// Root is the absolute directory served by the router.
	Root string
	// Defaults is the global shared-property subset, consulted before the hard defaults.
	Defaults             Settings
	DebounceWait         time.Duration
	LoadOnDemand         bool
	ClearCacheOnChange   bool
	ForceFullReload      bool
	ExtraWatch           []string
	HandlerErrorLogLevel LogLevel
}

// DefaultDebounceWait is the default quiet period before a reconciliation pass.
const DefaultDebounceWait = time.Second

// DefaultGlobalConfig returns a GlobalConfig for root with every field at its default.
func DefaultGlobalConfig(root string) GlobalConfig {
	return GlobalConfig{
		Root:                 root,
		DebounceWait:         DefaultDebounceWait,
		LoadOnDemand:         true,
		ClearCacheOnChange:   true,
		HandlerErrorLogLevel: LogLevelNone,
	}
}

// WatchRoots returns the root followed by every extra watch path, without duplicates.
func (c *GlobalConfig) WatchRoots() []string {
	roots := []string{c.Root}
	for _, p := range c.ExtraWatch {
		if !slices.Contains(roots, p) {
			roots = append(roots, p)
		}
	}
	return roots
}

// ServerConfig holds the process-level settings of the fsroute binary.
type ServerConfig struct {
	Listen      string
	AdminListen string
	LogLevel    LogLevel
	LogJSON     bool
}

// Config is the complete configuration loaded by the global config loader.
type Config struct {
	Router GlobalConfig
	Server ServerConfig
}
