package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendacal/internal/model"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone: Asia/Seoul
week_start: friday
default_user: alice
page_limit: -4
ics:
  - id: work
    url: https://example.com/work.ics
  - id: gym
    url: file:///tmp/gym.ics
    user_id: bob
    kind: routine
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "monday", cfg.WeekStart)
	assert.Equal(t, time.Monday, cfg.WeekStartDay())
	assert.Equal(t, 200, cfg.PageLimit)
	assert.Equal(t, 3, cfg.MaxMonthItems)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())

	require.Len(t, cfg.ICS, 2)
	assert.Equal(t, "alice", cfg.ICS[0].UserID)
	assert.Equal(t, model.KindTask, cfg.ICS[0].Kind)
	assert.Equal(t, "bob", cfg.ICS[1].UserID)
	assert.Equal(t, model.KindRoutine, cfg.ICS[1].Kind)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"timezone":  "timezone: Mars/Olympus\n",
		"cron":      "refresh: every now and then\n",
		"kind":      "ics:\n  - id: a\n    url: x\n    kind: chore\n",
		"duplicate": "ics:\n  - id: a\n    url: x\n  - id: a\n    url: y\n",
		"no url":    "ics:\n  - id: a\n",
		"yaml":      "listen: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Listen = ":9000"
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", got.Listen)
	require.NotNil(t, got.BasicAuth)
	assert.Equal(t, "u", got.BasicAuth.Username)

	assert.Error(t, Save("", cfg))
	assert.Error(t, Save(path, nil))
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Special"}
	assert.Equal(t, time.UTC, cfg.Location())
}
