package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/engine/pattern"
	"go.trai.ch/zerr"
)

const (
	// EnvPrefix prefixes every environment variable read by the global loader.
	EnvPrefix = "FSROUTE"
	// FileName is the base name of the global config file looked up in the working directory.
	FileName = "fsroute"
)

// Configuration keys.
const (
	KeyRoot                 = "root"
	KeyListen               = "listen"
	KeyAdminListen          = "admin_listen"
	KeyExec                 = "exec"
	KeyExclude              = "exclude"
	KeySuffix               = "suffix"
	KeyIndex                = "index"
	KeyExecTryParentDir     = "exec_try_parent_dir"
	KeyExcludeNodeModules   = "exclude_node_modules"
	KeyImportStrategy       = "import_strategy"
	KeyDebounceWait         = "debounce_wait"
	KeyLoadOnDemand         = "load_on_demand"
	KeyClearCacheOnChange   = "clear_cache_on_change"
	KeyForceFullReload      = "force_full_reload"
	KeyExtraWatch           = "extra_watch"
	KeyHandlerErrorLogLevel = "handler_error_log_level"
	KeyLogLevel             = "log_level"
	KeyLogFormat            = "log_format"
)

// DefaultListen is the default address of the routed HTTP server.
const DefaultListen = ":8080"

// GlobalLoader implements ports.GlobalConfigLoader with viper. Sources are layered as
// defaults, config file, FSROUTE_* environment, then overrides.
type GlobalLoader struct {
	searchPaths []string
}

// NewGlobalLoader creates a GlobalLoader searching the working directory for fsroute.*.
func NewGlobalLoader() *GlobalLoader {
	return &GlobalLoader{searchPaths: []string{"."}}
}

// Load builds the process configuration. path names an explicit config file; when it
// is empty an fsroute.{yaml,json,toml} in the search paths is used if present.
func (l *GlobalLoader) Load(path string, overrides map[string]any) (*domain.Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := l.readConfig(v, path); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for key, value := range overrides {
		v.Set(key, value)
	}

	return build(v)
}

func (l *GlobalLoader) readConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrConfigLoadFailed, err.Error()), "path", path)
		}
		return nil
	}

	v.SetConfigName(FileName)
	for _, p := range l.searchPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return zerr.With(zerr.Wrap(domain.ErrConfigLoadFailed, err.Error()), "path", v.ConfigFileUsed())
	}
	return nil
}

// setDefaults registers the process-level defaults. Shared directory settings get
// no viper default so that an unset key falls through to directory configs.
func setDefaults(v *viper.Viper) {
	router := domain.DefaultGlobalConfig(".")
	v.SetDefault(KeyRoot, router.Root)
	v.SetDefault(KeyListen, DefaultListen)
	v.SetDefault(KeyAdminListen, "")
	v.SetDefault(KeyDebounceWait, router.DebounceWait)
	v.SetDefault(KeyLoadOnDemand, router.LoadOnDemand)
	v.SetDefault(KeyClearCacheOnChange, router.ClearCacheOnChange)
	v.SetDefault(KeyForceFullReload, router.ForceFullReload)
	v.SetDefault(KeyExtraWatch, []string{})
	v.SetDefault(KeyHandlerErrorLogLevel, string(router.HandlerErrorLogLevel))
	v.SetDefault(KeyLogLevel, string(domain.LogLevelInfo))
	v.SetDefault(KeyLogFormat, "pretty")
}

func build(v *viper.Viper) (*domain.Config, error) {
	root, err := filepath.Abs(v.GetString(KeyRoot))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "key", KeyRoot)
	}

	defaults, err := buildSettings(v)
	if err != nil {
		return nil, err
	}

	handlerLevel, err := domain.ParseLogLevel(v.GetString(KeyHandlerErrorLogLevel), domain.LogLevelNone)
	if err != nil {
		return nil, zerr.With(err, "key", KeyHandlerErrorLogLevel)
	}
	logLevel, err := domain.ParseLogLevel(v.GetString(KeyLogLevel), domain.LogLevelInfo)
	if err != nil {
		return nil, zerr.With(err, "key", KeyLogLevel)
	}

	var extra []string
	for _, p := range stringList(v, KeyExtraWatch) {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "key", KeyExtraWatch)
		}
		extra = append(extra, abs)
	}

	debounce := v.GetDuration(KeyDebounceWait)
	if debounce < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "negative duration"), "key", KeyDebounceWait)
	}

	return &domain.Config{
		Router: domain.GlobalConfig{
			Root:                 root,
			Defaults:             defaults,
			DebounceWait:         debounce,
			LoadOnDemand:         v.GetBool(KeyLoadOnDemand),
			ClearCacheOnChange:   v.GetBool(KeyClearCacheOnChange),
			ForceFullReload:      v.GetBool(KeyForceFullReload),
			ExtraWatch:           extra,
			HandlerErrorLogLevel: handlerLevel,
		},
		Server: domain.ServerConfig{
			Listen:      v.GetString(KeyListen),
			AdminListen: v.GetString(KeyAdminListen),
			LogLevel:    logLevel,
			LogJSON:     strings.EqualFold(v.GetString(KeyLogFormat), "json"),
		},
	}, nil
}

func buildSettings(v *viper.Viper) (domain.Settings, error) {
	var s domain.Settings

	if v.IsSet(KeyExec) {
		rules, err := pattern.ParseAll(stringList(v, KeyExec))
		if err != nil {
			return s, zerr.With(err, "key", KeyExec)
		}
		s.Exec = domain.Some(rules)
	}
	if v.IsSet(KeyExclude) {
		rules, err := pattern.ParseAll(stringList(v, KeyExclude))
		if err != nil {
			return s, zerr.With(err, "key", KeyExclude)
		}
		s.Exclude = domain.Some(rules)
	}
	if v.IsSet(KeySuffix) {
		s.Suffix = domain.Some(stringList(v, KeySuffix))
	}
	if v.IsSet(KeyIndex) {
		s.Index = domain.Some(stringList(v, KeyIndex))
	}
	if v.IsSet(KeyExecTryParentDir) {
		s.ExecTryParentDir = domain.Some(v.GetBool(KeyExecTryParentDir))
	}
	if v.IsSet(KeyExcludeNodeModules) {
		s.ExcludeNodeModules = domain.Some(v.GetBool(KeyExcludeNodeModules))
	}
	if v.IsSet(KeyImportStrategy) {
		strategy, err := domain.ParseImportStrategy(v.GetString(KeyImportStrategy))
		if err != nil {
			return s, zerr.With(err, "key", KeyImportStrategy)
		}
		s.ImportStrategy = domain.Some(strategy)
	}
	return s, nil
}

// stringList reads a list key. Environment values are comma separated.
func stringList(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).(string); ok {
		var out []string
		for item := range strings.SplitSeq(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	out := v.GetStringSlice(key)
	if out == nil {
		out = []string{}
	}
	return out
}
