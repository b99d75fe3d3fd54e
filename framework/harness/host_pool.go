package harness

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/alessio/shellescape"
	"golang.org/x/sync/errgroup"

	"github.com/funcworker/worker-e2e-tests/framework"
)

// HostPool keeps at most one live host per script directory. Tests ask it for the host of
// a script directory; the first request starts the host and later requests reuse it for
// as long as its process is running.
//
// HostPool is safe for concurrent use. Starting a host holds the pool's lock, so two tests
// asking for the same script directory at the same time still get a single host.
type HostPool struct {
	config        HostConfig
	hosts         map[string]*Host
	logger        framework.Logger
	startupOutput io.Writer
	lock          sync.Mutex
}

// NewHostPool creates a HostPool. The debugLogger receives host process output and request
// details that are not tied to a specific test; startupOutput receives progress messages
// while waiting for hosts to start. Either may be nil.
func NewHostPool(config HostConfig, debugLogger framework.Logger, startupOutput io.Writer) *HostPool {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}
	return &HostPool{
		config:        config.withDefaults(),
		hosts:         make(map[string]*Host),
		logger:        debugLogger,
		startupOutput: startupOutput,
	}
}

// Host returns the host for a script directory, starting it if there is none or if the
// previous one has exited. If the pool was configured with an AttachURL, the host at that
// URL is used instead of starting a process.
//
// An error means that the host could not be started or did not become ready in time.
// Callers should treat that as fatal to the tests that need this host.
func (p *HostPool) Host(scriptDir string) (*Host, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if h := p.hosts[scriptDir]; h != nil {
		if !h.Exited() {
			return h, nil
		}
		p.logger.Printf("Host for %s has exited; starting a new one", scriptDir)
		delete(p.hosts, scriptDir)
	}

	var h *Host
	var err error
	if p.config.AttachURL != "" {
		h, err = p.attach(scriptDir, p.config.AttachURL)
	} else {
		h, err = p.start(scriptDir)
	}
	if err != nil {
		return nil, err
	}
	p.hosts[scriptDir] = h
	return h, nil
}

// Attach registers an already-running host as the host for a script directory, after
// verifying that it is ready. It replaces any host previously associated with that
// directory without stopping it.
func (p *HostPool) Attach(scriptDir, baseURL string) (*Host, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	h, err := p.attach(scriptDir, baseURL)
	if err != nil {
		return nil, err
	}
	p.hosts[scriptDir] = h
	return h, nil
}

func (p *HostPool) attach(scriptDir, baseURL string) (*Host, error) {
	h := newHost(scriptDir, baseURL, p.config, p.logger)
	p.logger.Printf("Attaching to host at %s for %s", h.baseURL, scriptDir)
	if err := h.waitForReady(p.startupOutput); err != nil {
		return nil, err
	}
	return h, nil
}

func (p *HostPool) start(scriptDir string) (*Host, error) {
	dir, err := p.config.ResolveScriptDir(scriptDir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("script directory %s does not exist", dir)
	}
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("could not allocate a port for the host: %w", err)
	}

	args := p.config.commandArgs(port, dir)
	cmd := exec.Command(p.config.Command, args...)
	cmd.Dir = dir
	cmd.Env = p.config.environ()

	hostLogger := framework.PrefixedLogger(p.logger, fmt.Sprintf("[host %s] ", scriptDir))
	p.logger.Printf("Starting host for %s in %s: %s", scriptDir, dir,
		quoteCommand(append([]string{p.config.Command}, args...)))
	proc, err := startHostProcess(cmd, hostLogger)
	if err != nil {
		return nil, fmt.Errorf("could not start host for %s: %w", scriptDir, err)
	}

	h := newHost(scriptDir, fmt.Sprintf("http://%s:%d", p.config.Hostname, port), p.config, hostLogger)
	h.process = proc
	if err := h.waitForReady(p.startupOutput); err != nil {
		_ = h.Stop()
		return nil, fmt.Errorf("host for %s failed to start: %w", scriptDir, err)
	}
	return h, nil
}

func quoteCommand(args []string) string {
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		quoted = append(quoted, shellescape.Quote(a))
	}
	return strings.Join(quoted, " ")
}

// ScriptDirs returns the script directories that currently have a host, sorted.
func (p *HostPool) ScriptDirs() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	ret := make([]string, 0, len(p.hosts))
	for dir := range p.hosts {
		ret = append(ret, dir)
	}
	sort.Strings(ret)
	return ret
}

// Close stops every host process that the pool started and forgets all hosts.
func (p *HostPool) Close() error {
	p.lock.Lock()
	hosts := p.hosts
	p.hosts = make(map[string]*Host)
	p.lock.Unlock()

	var g errgroup.Group
	for _, h := range hosts {
		h := h
		g.Go(h.Stop)
	}
	return g.Wait()
}
