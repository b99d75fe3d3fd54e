package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadHostConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hosts.yaml", `
scriptsRoot: generated
command: func
args: ["host", "start", "--port", "{port}", "--script-root", "{scriptDir}"]
env:
  AzureWebJobsStorage: $TEST_STORAGE_CONNECTION
  FUNCTIONS_WORKER_RUNTIME: custom
startupTimeout: 90s
requestTimeout: 15s
`)
	c, err := LoadHostConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "generated"), c.ScriptsRoot)
	assert.Equal(t, "func", c.Command)
	assert.Equal(t, time.Second*90, c.StartupTimeout)
	assert.Equal(t, time.Second*15, c.RequestTimeout)
	assert.Equal(t, "custom", c.Env["FUNCTIONS_WORKER_RUNTIME"])

	assert.Equal(t,
		[]string{"host", "start", "--port", "7071", "--script-root", "/scripts/app"},
		c.commandArgs(7071, "/scripts/app"))
}

func TestLoadHostConfigRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hosts.yaml", "comand: func\n")
	_, err := LoadHostConfig(path)
	assert.Error(t, err)
}

func TestLoadHostConfigMissingFile(t *testing.T) {
	_, err := LoadHostConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestHostConfigDefaults(t *testing.T) {
	c := HostConfig{}.withDefaults()
	assert.Equal(t, DefaultCommand, c.Command)
	assert.Equal(t, DefaultArgs, c.Args)
	assert.Equal(t, DefaultHostname, c.Hostname)
	assert.Equal(t, DefaultStatusPath, c.StatusPath)
	assert.Equal(t, DefaultRoutePrefix, c.RoutePrefix)
	assert.Equal(t, DefaultStartupTimeout, c.StartupTimeout)
	assert.Equal(t, DefaultRequestTimeout, c.RequestTimeout)
	assert.Equal(t, DefaultStopTimeout, c.StopTimeout)

	custom := HostConfig{Command: "./host", RoutePrefix: "functions"}.withDefaults()
	assert.Empty(t, custom.Args)
	assert.Equal(t, "/functions/", custom.RoutePrefix)
}

func TestHostConfigEnvironmentIsExpanded(t *testing.T) {
	t.Setenv("TEST_STORAGE_CONNECTION", "UseDevelopmentStorage=true")
	c := HostConfig{Env: map[string]string{"AzureWebJobsStorage": "$TEST_STORAGE_CONNECTION"}}
	assert.Contains(t, c.environ(), "AzureWebJobsStorage=UseDevelopmentStorage=true")
}

func TestResolveScriptDir(t *testing.T) {
	c := HostConfig{ScriptsRoot: "/scripts"}
	dir, err := c.ResolveScriptDir("blueprint_functions/only_blueprint")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/scripts/blueprint_functions/only_blueprint"), dir)

	dir, err = c.ResolveScriptDir("/elsewhere/app")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/elsewhere/app"), dir)
}
