package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fsroute/internal/adapters/config"
	"go.trai.ch/fsroute/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDirectoryLoader_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "__config__.yaml",
			content: `exec: ["*.hjs", "re:\\.route\\.sh$"]
suffix: [".hjs"]
exec_try_parent_dir: false
import_strategy: always
propagate_into_children: false
`,
		},
		{
			name: "yml",
			file: "__config__.yml",
			content: `exec:
  - "*.hjs"
  - "re:\\.route\\.sh$"
suffix: [".hjs"]
exec_try_parent_dir: false
import_strategy: always
propagate_into_children: false
`,
		},
		{
			name: "json",
			file: "__config__.json",
			content: `{
  "exec": ["*.hjs", "re:\\.route\\.sh$"],
  "suffix": [".hjs"],
  "exec_try_parent_dir": false,
  "import_strategy": "always",
  "propagate_into_children": false
}`,
		},
		{
			name: "toml",
			file: "__config__.toml",
			content: `exec = ["*.hjs", 're:\.route\.sh$']
suffix = [".hjs"]
exec_try_parent_dir = false
import_strategy = "always"
propagate_into_children = false
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			cfg, err := config.NewDirectoryLoader().Load(path)
			require.NoError(t, err)

			assert.Equal(t, path, cfg.Source)
			require.True(t, cfg.Exec.Set)
			assert.Equal(t, []string{"*.hjs", `re:\.route\.sh$`}, cfg.Exec.Value.Strings())
			assert.Equal(t, domain.Some([]string{".hjs"}), cfg.Suffix)
			assert.Equal(t, domain.Some(false), cfg.ExecTryParentDir)
			assert.Equal(t, domain.Some(domain.ImportAlways), cfg.ImportStrategy)
			assert.False(t, cfg.Propagates())
			assert.True(t, cfg.Inherits())
			assert.False(t, cfg.Exclude.Set)
			assert.False(t, cfg.Index.Set)
		})
	}
}

func TestDirectoryLoader_EmptyResource(t *testing.T) {
	for _, name := range []string{"__config__.yaml", "__config__.json", "__config__.toml"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), name, "")

			cfg, err := config.NewDirectoryLoader().Load(path)
			require.NoError(t, err)
			assert.Equal(t, domain.Settings{}, cfg.Settings)
		})
	}
}

func TestDirectoryLoader_EmptyExecDisablesDispatch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "__config__.json", `{"exec": []}`)

	cfg, err := config.NewDirectoryLoader().Load(path)
	require.NoError(t, err)

	require.True(t, cfg.Exec.Set)
	assert.Empty(t, cfg.Exec.Value)
}

func TestDirectoryLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    error
	}{
		{name: "unknown yaml key", file: "__config__.yaml", content: "exec_suffix: [.js]\n", want: domain.ErrConfigParseFailed},
		{name: "unknown json key", file: "__config__.json", content: `{"exec_suffix": []}`, want: domain.ErrConfigParseFailed},
		{name: "unknown toml key", file: "__config__.toml", content: "exec_suffix = []\n", want: domain.ErrConfigParseFailed},
		{name: "malformed yaml", file: "__config__.yaml", content: "exec: [\n", want: domain.ErrConfigParseFailed},
		{name: "bad regexp", file: "__config__.yaml", content: "exec: ['re:(']\n", want: domain.ErrInvalidPattern},
		{name: "bad strategy", file: "__config__.yaml", content: "import_strategy: sometimes\n", want: domain.ErrInvalidImportStrategy},
		{name: "unknown extension", file: "__config__.ini", content: "exec=*\n", want: domain.ErrUnsupportedConfigFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			_, err := config.NewDirectoryLoader().Load(path)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDirectoryLoader_MissingFile(t *testing.T) {
	_, err := config.NewDirectoryLoader().Load(filepath.Join(t.TempDir(), "__config__.yaml"))
	require.ErrorIs(t, err, domain.ErrConfigLoadFailed)
}
