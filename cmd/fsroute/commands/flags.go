package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.trai.ch/fsroute/internal/adapters/config"
	"go.trai.ch/fsroute/internal/app"
)

const configFlag = "config"

// flagKeys maps every flag that overrides a configuration key to that key.
var flagKeys = map[string]string{
	"root":                    config.KeyRoot,
	"listen":                  config.KeyListen,
	"admin-listen":            config.KeyAdminListen,
	"exec":                    config.KeyExec,
	"exclude":                 config.KeyExclude,
	"suffix":                  config.KeySuffix,
	"index":                   config.KeyIndex,
	"exec-try-parent-dir":     config.KeyExecTryParentDir,
	"exclude-node-modules":    config.KeyExcludeNodeModules,
	"import-strategy":         config.KeyImportStrategy,
	"debounce-wait":           config.KeyDebounceWait,
	"load-on-demand":          config.KeyLoadOnDemand,
	"clear-cache-on-change":   config.KeyClearCacheOnChange,
	"force-full-reload":       config.KeyForceFullReload,
	"extra-watch":             config.KeyExtraWatch,
	"handler-error-log-level": config.KeyHandlerErrorLogLevel,
	"log-level":               config.KeyLogLevel,
	"log-format":              config.KeyLogFormat,
}

// addConfigFlags registers the flags shared by every command that builds a router.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.StringP(configFlag, "c", "", "Config file (default fsroute.{yaml,json,toml} in the working directory)")
	fs.StringP("root", "r", "", "Directory to serve (default the working directory)")
	fs.StringSlice("exec", nil, "Patterns of executable handler files")
	fs.StringSlice("exclude", nil, "Patterns of files that are never served")
	fs.StringSlice("suffix", nil, "Suffixes appended to request paths when looking for handlers")
	fs.StringSlice("index", nil, "Index file names tried for directory requests")
	fs.Bool("exec-try-parent-dir", true, "Ascend to parent directory handlers")
	fs.Bool("exclude-node-modules", true, "Exclude every path below a node_modules directory")
	fs.String("import-strategy", "never", "Handler import strategy: never, always, or fallback")
	fs.String("handler-error-log-level", "none", "Level used to log handler errors: none, debug, info, warn, or error")
	fs.String("log-level", "info", "Log level: none, debug, info, warn, or error")
	fs.String("log-format", "pretty", "Log format: pretty or json")
}

// addServeFlags registers the flags that only apply to a long-running server.
func addServeFlags(fs *pflag.FlagSet) {
	fs.StringP("listen", "l", config.DefaultListen, "Address of the routed HTTP server")
	fs.String("admin-listen", "", "Address of the admin API (disabled when empty)")
	fs.Duration("debounce-wait", 0, "Quiet period before changes are reconciled (default 1s)")
	fs.Bool("load-on-demand", true, "Load handlers on first request instead of eagerly")
	fs.Bool("clear-cache-on-change", true, "Evict every loaded module once per batch of changes")
	fs.Bool("force-full-reload", false, "Reload every handler on any change")
	fs.StringSlice("extra-watch", nil, "Additional paths whose changes invalidate loaded modules")
}

// configOptions collects the config file and the explicitly set flags of cmd.
// Flags left at their default never override the config file or the environment.
func configOptions(cmd *cobra.Command) app.ConfigOptions {
	opts := app.ConfigOptions{Overrides: map[string]any{}}
	opts.Path, _ = cmd.Flags().GetString(configFlag)

	cmd.Flags().Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		opts.Overrides[key] = flagValue(cmd.Flags(), f)
	})
	return opts
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) any {
	switch f.Value.Type() {
	case "stringSlice":
		v, _ := fs.GetStringSlice(f.Name)
		return v
	case "bool":
		v, _ := fs.GetBool(f.Name)
		return v
	case "duration":
		v, _ := fs.GetDuration(f.Name)
		return v
	default:
		return f.Value.String()
	}
}
