package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/funcworker/worker-e2e-tests/e2etests"
	"github.com/funcworker/worker-e2e-tests/framework"
	"github.com/funcworker/worker-e2e-tests/framework/harness"
	"github.com/funcworker/worker-e2e-tests/framework/ldtest"
	"github.com/funcworker/worker-e2e-tests/framework/retry"
	"github.com/funcworker/worker-e2e-tests/funcapp"

	"github.com/alessio/shellescape"
)

type commandParams struct {
	scriptsRoot   string
	hostConfig    string
	attachURL     string
	filters       ldtest.RegexFilters
	retryAttempts int
	retryDelay    time.Duration
	debug         bool
	debugAll      bool
}

func (c *commandParams) Read(args []string, errOut io.Writer) bool {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.scriptsRoot, "scripts-root", "", "directory containing the generated fixture script directories")
	fs.StringVar(&c.hostConfig, "host-config", "", "YAML file describing how to start hosts")
	fs.StringVar(&c.attachURL, "url", "", "base URL of an already running host to use instead of starting hosts")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.IntVar(&c.retryAttempts, "retry-attempts", retry.DefaultAttempts, "attempts for each retryable test")
	fs.DurationVar(&c.retryDelay, "retry-delay", retry.DefaultDelay, "delay between attempts of a retryable test")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if c.scriptsRoot == "" && c.hostConfig == "" && c.attachURL == "" {
		fmt.Fprintln(errOut, "one of -scripts-root, -host-config or -url is required")
		fs.Usage()
		return false
	}
	if c.retryAttempts < 1 {
		fmt.Fprintln(errOut, "-retry-attempts must be at least 1")
		return false
	}
	return true
}

// loadHostConfig combines the host configuration file, if any, with the command line.
func (c *commandParams) loadHostConfig() (harness.HostConfig, error) {
	var config harness.HostConfig
	if c.hostConfig != "" {
		var err error
		if config, err = harness.LoadHostConfig(c.hostConfig); err != nil {
			return config, err
		}
	}
	if c.scriptsRoot != "" {
		config.ScriptsRoot = c.scriptsRoot
	}
	if c.attachURL != "" {
		config.AttachURL = c.attachURL
	}
	return config, nil
}

func (c *commandParams) retryPolicy() retry.Policy {
	return retry.Policy{Attempts: c.retryAttempts, Delay: c.retryDelay}
}

// capabilities returns the capabilities of the hosts described by config. Blob storage is
// available if the storage connection setting is given to the hosts, or is present in the
// environment that they inherit.
func capabilities(config harness.HostConfig) framework.Capabilities {
	var ret framework.Capabilities
	connection := os.Getenv(funcapp.DefaultConnection)
	if v, ok := config.Env[funcapp.DefaultConnection]; ok {
		connection = os.ExpandEnv(v)
	}
	if connection != "" {
		ret = append(ret, e2etests.CapabilityBlobStorage)
	}
	return ret
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// rerunCommand returns a command line that repeats this run for only the failed tests.
func (c *commandParams) rerunCommand(program string, failures []ldtest.TestResult) string {
	var b commandBuilder
	b.add(program)
	if c.hostConfig != "" {
		b.add("-host-config", c.hostConfig)
	}
	if c.scriptsRoot != "" {
		b.add("-scripts-root", c.scriptsRoot)
	}
	if c.attachURL != "" {
		b.add("-url", c.attachURL)
	}
	if c.retryAttempts != retry.DefaultAttempts {
		b.add("-retry-attempts", strconv.Itoa(c.retryAttempts))
	}
	if c.retryDelay != retry.DefaultDelay {
		b.add("-retry-delay", c.retryDelay.String())
	}
	for _, f := range failures {
		b.add("-run", exactTestPattern(f.TestID))
	}
	b.add("-debug")
	return b.String()
}

func exactTestPattern(id ldtest.TestID) string {
	elements := make([]string, 0, len(id.Path))
	for _, e := range id.Path {
		elements = append(elements, "^"+regexp.QuoteMeta(e)+"$")
	}
	return strings.Join(elements, "/")
}
