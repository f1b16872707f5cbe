// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatmon-tui/internal/model"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CHATMON_HOME", dir)
	return dir
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8080", cfg.API.Host)
	assert.Equal(t, "/agent/test", cfg.API.Path)
	assert.Equal(t, model.DefaultLeftModel, cfg.Models.Left)
	assert.Equal(t, model.DefaultRightModel, cfg.Models.Right)
	assert.False(t, cfg.Models.Compare)
	assert.Zero(t, cfg.IdleTimeout())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().API, cfg.API)
}

func TestLoadFromPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, `
[api]
host = "https://chat.example.com"
idle_timeout_secs = 45

[models]
left = "gpt-4.1"
compare = true

[ui]
theme = "light"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.API.Host)
	assert.Equal(t, "/agent/test", cfg.API.Path, "missing keys keep defaults")
	assert.Equal(t, 45*time.Second, cfg.IdleTimeout())
	assert.Equal(t, "gpt-4.1", cfg.Models.Left)
	assert.Equal(t, model.DefaultRightModel, cfg.Models.Right)
	assert.True(t, cfg.Models.Compare)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoadFromPath_TightensPermissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\n"), 0o644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadFromPath_CustomCatalog(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, `
[models]
left = "alpha"
right = "beta"

[[models.catalog]]
id = "alpha"
name = "Alpha"
cost = "low"

[[models.catalog]]
id = "beta"
name = "Beta"
cost = "high"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Catalog().IDs())
}

func TestLoadFromPath_Errors(t *testing.T) {
	dir := isolate(t)

	_, err := LoadFromPath(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	writeConfig(t, bad, "[api\nhost = ")
	_, err = LoadFromPath(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.toml")
	writeConfig(t, invalid, "[models]\nleft = \"nope\"\n")
	_, err = LoadFromPath(invalid)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "models.left")
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CHATMON_API_HOST", "http://10.0.0.5:9000")
	t.Setenv("CHATMON_MODELS_RIGHT", "gpt-4.1")
	t.Setenv("CHATMON_MODELS_COMPARE", "true")
	t.Setenv("CHATMON_LOG_LEVEL", "debug")
	t.Setenv("CHATMON_UI_MAX_FPS", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.API.Host)
	assert.Equal(t, "gpt-4.1", cfg.Models.Right)
	assert.True(t, cfg.Models.Compare)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 60, cfg.UI.MaxFPS)
}

func TestEnvOverrides_BeatFile(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, filepath.Join(dir, "config.toml"), "[api]\nhost = \"http://file:1\"\n")
	t.Setenv("CHATMON_API_HOST", "http://env:2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env:2", cfg.API.Host)
}

func TestEnvOverrides_BadValue(t *testing.T) {
	isolate(t)
	t.Setenv("CHATMON_UI_MAX_FPS", "fast")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad host scheme", func(c *Config) { c.API.Host = "ftp://x" }, "api.host"},
		{"host without authority", func(c *Config) { c.API.Host = "http://" }, "api.host"},
		{"relative path", func(c *Config) { c.API.Path = "agent" }, "api.path"},
		{"negative idle", func(c *Config) { c.API.IdleTimeoutSecs = -1 }, "api.idle_timeout_secs"},
		{"event too large", func(c *Config) { c.API.MaxEventKB = 100000 }, "api.max_event_kb"},
		{"unknown right model", func(c *Config) { c.Models.Right = "x" }, "models.right"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"fps", func(c *Config) { c.UI.MaxFPS = 0 }, "ui.max_fps"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }, "tracing.sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestValidateErrors_Joined(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "neon"
	cfg.UI.MaxFPS = 500

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui.theme")
	assert.Contains(t, err.Error(), "; ui.max_fps")
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.API.Host = "https://saved.example.com"
	cfg.Models.Compare = true
	cfg.UI.ShowStats = true
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# chatmon configuration file")

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestString_MasksPassword(t *testing.T) {
	cfg := Default()
	cfg.Auth.Password = "hunter2"

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "****")
	assert.Equal(t, "hunter2", cfg.Auth.Password)
}

func TestPaths(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	assert.Equal(t, filepath.Join(dir, "state.db"), cfg.StatePath())
	assert.Equal(t, filepath.Join(dir, "chatmon.log"), cfg.LogPath())
	assert.Equal(t, filepath.Join(dir, "traces.jsonl"), cfg.TracePath())

	cfg.Auth.StatePath = "/tmp/elsewhere.db"
	assert.Equal(t, "/tmp/elsewhere.db", cfg.StatePath())

	p, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), p)
}

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := Default()
			c.Models.Compare = true
			SetGlobal(c)
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestWatcher_Reloads(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "[models]\ncompare = false\n")

	reloaded := make(chan *Config, 8)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeConfig(t, path, "[models]\ncompare = true\n")

	select {
	case cfg := <-reloaded:
		assert.True(t, cfg.Models.Compare)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not picked up")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "")

	calls := make(chan struct{}, 8)
	w, err := NewWatcher(path, 10*time.Millisecond, func(*Config, error) { calls <- struct{}{} })
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	go w.Run(context.Background())

	writeConfig(t, filepath.Join(dir, "other.txt"), "x")

	select {
	case <-calls:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
