// Package harness starts, reuses and stops host processes for the end-to-end tests, and
// sends HTTP requests to the function routes they expose.
package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/funcworker/worker-e2e-tests/framework"
)

// RequestIDHeader is set on every request the harness sends, so that host logs can be
// matched with test debug output.
const RequestIDHeader = "x-ms-client-request-id"

const hostStateRunning = "Running"

// how long to wait for the process to be reaped after a request failed, before concluding
// that the failure was not caused by the host exiting
const exitGracePeriod = time.Second

// ErrHostExited is returned (wrapped) by requests to a host whose process is no longer
// running.
var ErrHostExited = errors.New("host process has exited")

// Host is a running host that serves the function app of one script directory. It is
// either a child process started by a HostPool, or an existing host that was attached by
// URL.
type Host struct {
	id        string
	scriptDir string
	baseURL   string
	config    HostConfig
	client    *http.Client
	logger    framework.Logger
	process   *hostProcess
}

// RequestParams describes a request to one of the host's function routes.
type RequestParams struct {
	Method string
	Route  string
	Query  url.Values
	Header http.Header
	Body   []byte
}

func newHost(scriptDir, baseURL string, config HostConfig, logger framework.Logger) *Host {
	return &Host{
		id:        uuid.NewString(),
		scriptDir: scriptDir,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		config:    config,
		client:    &http.Client{Timeout: config.RequestTimeout},
		logger:    logger,
	}
}

// ID returns an identifier that is unique to this host instance. A host that was restarted
// for the same script directory has a different ID.
func (h *Host) ID() string {
	return h.id
}

func (h *Host) ScriptDir() string {
	return h.scriptDir
}

func (h *Host) BaseURL() string {
	return h.baseURL
}

// Exited returns true if the host was started as a process and that process has exited.
// It is always false for an attached host.
func (h *Host) Exited() bool {
	return h.process != nil && h.process.exited()
}

// Request is a shortcut for Do with only a method and route.
func (h *Host) Request(method, route string, logger framework.Logger) (*Response, error) {
	return h.Do(RequestParams{Method: method, Route: route}, logger)
}

// Do sends a request to a function route and reads the whole response. The logger, which
// may be nil, receives a description of the request and response.
//
// A transport error or timeout is returned as an error. If the host process has exited,
// the error wraps ErrHostExited.
func (h *Host) Do(params RequestParams, logger framework.Logger) (*Response, error) {
	if logger == nil {
		logger = h.logger
	}
	if h.Exited() {
		return nil, h.process.exitError(h.scriptDir)
	}
	method := params.Method
	if method == "" {
		method = http.MethodGet
	}
	u := h.baseURL + h.config.RoutePrefix + strings.TrimPrefix(params.Route, "/")
	if len(params.Query) > 0 {
		u += "?" + params.Query.Encode()
	}
	var body io.Reader
	if params.Body != nil {
		body = bytes.NewReader(params.Body)
	}
	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return nil, err
	}
	for name, values := range params.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	logger.Printf("Sending %s %s (request ID %s, %d body bytes)", method, u, requestID, len(params.Body))
	resp, err := h.client.Do(req)
	if err != nil {
		if h.process != nil && h.process.waitForExit(exitGracePeriod) {
			return nil, h.process.exitError(h.scriptDir)
		}
		return nil, fmt.Errorf("%s %s failed: %w", method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body from %s: %w", u, err)
	}
	response := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
	logger.Printf("Received %s", response)
	return response, nil
}

// Stop stops the host process, if this host was started by the harness. It first asks the
// process to shut down and kills it if it has not exited after the configured timeout.
func (h *Host) Stop() error {
	if h.process == nil {
		return nil
	}
	h.logger.Printf("Stopping host for %s", h.scriptDir)
	return h.process.stop(h.config.StopTimeout)
}

// waitForReady polls the host's status resource until it reports that it is running, the
// startup timeout expires, or the process exits.
func (h *Host) waitForReady(output io.Writer) error {
	statusURL := h.baseURL + h.config.StatusPath
	fmt.Fprintf(output, "Waiting for host at %s", statusURL)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond * 100
	b.MaxInterval = time.Second * 2
	b.MaxElapsedTime = h.config.StartupTimeout

	ctx, cancel := context.WithTimeout(context.Background(), h.config.StartupTimeout)
	defer cancel()

	var lastErr error
	err := backoff.RetryNotify(func() error {
		if h.Exited() {
			return backoff.Permanent(h.process.exitError(h.scriptDir))
		}
		lastErr = h.queryStatus(ctx, statusURL)
		return lastErr
	}, backoff.WithContext(b, ctx), func(error, time.Duration) {
		fmt.Fprint(output, ".")
	})
	fmt.Fprintln(output)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && lastErr != nil {
			err = lastErr
		}
		return fmt.Errorf("host at %s did not become ready: %w", h.baseURL, err)
	}
	return nil
}

func (h *Host) queryStatus(ctx context.Context, statusURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status query returned HTTP %d", resp.StatusCode)
	}
	status := ldvalue.Parse(data)
	if state := status.GetByKey("state"); !state.IsNull() && state.StringValue() != hostStateRunning {
		return fmt.Errorf("host state is %q", state.StringValue())
	}
	h.logger.Printf("Host for %s is ready: %s", h.scriptDir, string(data))
	return nil
}
