package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCommand        = "func"
	DefaultHostname       = "localhost"
	DefaultStatusPath     = "/admin/host/status"
	DefaultRoutePrefix    = "/api/"
	DefaultStartupTimeout = time.Minute * 2
	DefaultRequestTimeout = time.Second * 30
	DefaultStopTimeout    = time.Second * 10

	// PortPlaceholder and ScriptDirPlaceholder may appear in HostConfig.Args; they are
	// replaced with the port chosen for the host and the absolute script directory.
	PortPlaceholder      = "{port}"
	ScriptDirPlaceholder = "{scriptDir}"
)

// DefaultArgs are the arguments used with DefaultCommand when none are configured.
var DefaultArgs = []string{"host", "start", "--port", PortPlaceholder}

// HostConfig describes how to launch and talk to host processes. It can be loaded from a
// YAML file with LoadHostConfig; all fields are optional.
type HostConfig struct {
	// ScriptsRoot is the directory that relative script directory names are resolved
	// against.
	ScriptsRoot string `yaml:"scriptsRoot"`

	// AttachURL, if set, is the base URL of a host that is already running. The pool will
	// use that host for every script directory instead of starting processes.
	AttachURL string `yaml:"attachURL"`

	// Command and Args are the host executable and its arguments. The process runs with the
	// script directory as its working directory.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// Env contains extra environment variables for the host process. Values are expanded
	// against the harness's own environment, so "$STORAGE_CONNECTION" can be used to pass
	// a secret through without writing it in the file.
	Env map[string]string `yaml:"env"`

	// Hostname is the name used to reach started hosts.
	Hostname string `yaml:"hostname"`

	StartupTimeout time.Duration `yaml:"startupTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	StopTimeout    time.Duration `yaml:"stopTimeout"`

	// StatusPath is polled until the host reports that it is running.
	StatusPath string `yaml:"statusPath"`

	// RoutePrefix is prepended to function routes when making requests.
	RoutePrefix string `yaml:"routePrefix"`
}

// LoadHostConfig reads a HostConfig from a YAML file. Unknown fields are an error.
func LoadHostConfig(path string) (HostConfig, error) {
	var c HostConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return c, fmt.Errorf("invalid host configuration in %s: %w", path, err)
	}
	if c.ScriptsRoot != "" && !filepath.IsAbs(c.ScriptsRoot) {
		c.ScriptsRoot = filepath.Join(filepath.Dir(path), c.ScriptsRoot)
	}
	return c, nil
}

func (c HostConfig) withDefaults() HostConfig {
	if c.Command == "" {
		c.Command = DefaultCommand
		if len(c.Args) == 0 {
			c.Args = DefaultArgs
		}
	}
	if c.Hostname == "" {
		c.Hostname = DefaultHostname
	}
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = DefaultStartupTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.StatusPath == "" {
		c.StatusPath = DefaultStatusPath
	}
	if c.RoutePrefix == "" {
		c.RoutePrefix = DefaultRoutePrefix
	}
	if !strings.HasPrefix(c.RoutePrefix, "/") {
		c.RoutePrefix = "/" + c.RoutePrefix
	}
	if !strings.HasSuffix(c.RoutePrefix, "/") {
		c.RoutePrefix += "/"
	}
	c.AttachURL = strings.TrimSuffix(c.AttachURL, "/")
	return c
}

// ResolveScriptDir returns the absolute directory for a script directory name.
func (c HostConfig) ResolveScriptDir(name string) (string, error) {
	dir := filepath.FromSlash(name)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.ScriptsRoot, dir)
	}
	return filepath.Abs(dir)
}

func (c HostConfig) commandArgs(port int, scriptDir string) []string {
	replacer := strings.NewReplacer(
		PortPlaceholder, strconv.Itoa(port),
		ScriptDirPlaceholder, scriptDir,
	)
	args := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		args = append(args, replacer.Replace(a))
	}
	return args
}

func (c HostConfig) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+os.ExpandEnv(c.Env[k]))
	}
	return env
}
