package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fsroute/internal/core/domain"
)

func TestSettingsFillKeepsNearestValue(t *testing.T) {
	near := domain.Settings{Index: domain.Some([]string{"in.html"})}
	far := domain.Settings{
		Index:   domain.Some([]string{"index.html"}),
		Exclude: domain.Some(domain.Globs("*.json")),
	}

	merged := near.Fill(far)

	assert.Equal(t, []string{"in.html"}, merged.Index.Value)
	assert.Equal(t, []string{"*.json"}, merged.Exclude.Value.Strings())
	assert.False(t, merged.Suffix.Set)
}

func TestSettingsEffectiveUsesHardDefaults(t *testing.T) {
	eff := domain.Settings{ExecTryParentDir: domain.Some(false)}.Effective()

	assert.False(t, eff.ExecTryParentDir)
	assert.True(t, eff.ExcludeNodeModules)
	assert.Equal(t, []string{".route.sh"}, eff.Suffix)
	assert.Equal(t, []string{"index.route.sh", "index.html"}, eff.Index)
	assert.Equal(t, []string{"*.route.*"}, eff.Exec.Strings())
	assert.Equal(t, domain.ImportNever, eff.ImportStrategy)
}

func TestSettingsEffectiveKeepsExplicitEmptyList(t *testing.T) {
	eff := domain.Settings{Exclude: domain.Some(domain.RuleSet{})}.Effective()
	assert.Empty(t, eff.Exclude)
}

func TestDirectoryConfigFlagsDefaultToTrue(t *testing.T) {
	var cfg domain.DirectoryConfig
	assert.True(t, cfg.Inherits())
	assert.True(t, cfg.Propagates())

	cfg.PropagateIntoChildren = domain.Some(false)
	assert.False(t, cfg.Propagates())
}

func TestParseImportStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want domain.ImportStrategy
	}{
		{"", domain.ImportNever},
		{"never", domain.ImportNever},
		{"ALWAYS", domain.ImportAlways},
		{" fallback ", domain.ImportFallback},
	}
	for _, tt := range tests {
		got, err := domain.ParseImportStrategy(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := domain.ParseImportStrategy("sometimes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidImportStrategy))
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := domain.ParseLogLevel("", domain.LogLevelInfo)
	require.NoError(t, err)
	assert.Equal(t, domain.LogLevelInfo, lvl)

	lvl, err = domain.ParseLogLevel("Warning", domain.LogLevelInfo)
	require.NoError(t, err)
	assert.Equal(t, domain.LogLevelWarn, lvl)

	_, err = domain.ParseLogLevel("loud", domain.LogLevelInfo)
	assert.ErrorIs(t, err, domain.ErrInvalidLogLevel)
}

func TestIsConfigResource(t *testing.T) {
	assert.True(t, domain.IsConfigResource("/srv/a/__config__.yaml"))
	assert.True(t, domain.IsConfigResource("__config__.toml"))
	assert.False(t, domain.IsConfigResource("/srv/a/__config__.js"))
	assert.False(t, domain.IsConfigResource("/srv/a/config.yaml"))
}

func TestGlobalConfigWatchRoots(t *testing.T) {
	cfg := domain.DefaultGlobalConfig("/srv")
	cfg.ExtraWatch = []string{"/lib", "/srv", "/lib"}
	assert.Equal(t, []string{"/srv", "/lib"}, cfg.WatchRoots())
}

func TestHandlerHooks(t *testing.T) {
	h := &domain.Handler{}
	assert.Empty(t, h.Hooks())

	h.OnDestroy = func(_ context.Context) error { return nil }
	assert.Equal(t, []string{domain.HookDestroy}, h.Hooks())
}

func TestCandidateRel(t *testing.T) {
	assert.Equal(t, "a/b", domain.Candidate{Path: "/a/b"}.Rel())
	assert.Empty(t, domain.Candidate{Path: "/"}.Rel())
}
