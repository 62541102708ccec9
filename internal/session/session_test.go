package session

import (
	"os"
	"path/filepath"
	"testing"

	"stackprobe/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplication_Argv(t *testing.T) {
	app := Application{Binary: "rapydo", Args: []string{"--testing"}}
	assert.Equal(t, []string{"rapydo", "--testing", "start"}, app.Argv([]string{"start"}))
	assert.Equal(t, []string{"rapydo", "--testing"}, app.Argv(nil))
}

func TestFromConfig_ResolvesEnvironment(t *testing.T) {
	t.Setenv("STACKPROBE_USER", "alice")

	cfg := config.GetDefaultConfig()
	cfg.CLI.WorkDir = t.TempDir()
	cfg.CLI.Env = map[string]string{"COMPOSE_PROJECT_NAME": "${STACKPROBE_USER}-e2e"}

	s, err := FromConfig(cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, cfg.CLI.WorkDir, s.App.Dir)
	assert.Equal(t, cfg.CLI.Timeout, s.App.Timeout)
	assert.Contains(t, s.App.Env, "COMPOSE_PROJECT_NAME=alice-e2e")
	assert.Equal(t, "", s.ProjectRC.Variable("ANY"), "missing projectrc is empty")
}

func TestFactory_ReloadsProjectRCEveryCall(t *testing.T) {
	dir := t.TempDir()
	cfg := config.GetDefaultConfig()
	cfg.CLI.WorkDir = dir
	factory := Static(cfg)

	first, err := factory()
	require.NoError(t, err)
	assert.Equal(t, "", first.ProjectRC.Variable("HEALTHCHECK_INTERVAL"))

	rc := "project_configuration:\n  variables:\n    env:\n      HEALTHCHECK_INTERVAL: 1s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".projectrc"), []byte(rc), 0644))

	second, err := factory()
	require.NoError(t, err)
	assert.Equal(t, "1s", second.ProjectRC.Variable("HEALTHCHECK_INTERVAL"))
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotSame(t, first, second)
}

func TestFromConfig_MalformedProjectRC(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".projectrc"), []byte("project: ["), 0644))

	cfg := config.GetDefaultConfig()
	cfg.CLI.WorkDir = dir

	_, err := FromConfig(cfg)
	assert.Error(t, err)
}
