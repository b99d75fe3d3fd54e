package e2etests

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/funcworker/worker-e2e-tests/framework/harness"
	"github.com/funcworker/worker-e2e-tests/framework/ldtest"

	"github.com/stretchr/testify/require"
)

// ScriptHost is the host of one script directory, as used by tests.
type ScriptHost struct {
	scriptDir string
	host      *harness.Host
}

// RequireHost returns the host for a script directory, starting it if necessary. If the
// host cannot be started the test is aborted; this should be called outside of retryable
// subtests, so that a startup failure fails the whole group.
func RequireHost(t *ldtest.T, scriptDir string) *ScriptHost {
	h, err := requireContext(t).Hosts.Host(scriptDir)
	if err != nil {
		t.Abort("could not get host for %s: %s", scriptDir, err)
	}
	t.Debug("using host %s at %s for %s", h.ID(), h.BaseURL(), scriptDir)
	return &ScriptHost{scriptDir: scriptDir, host: h}
}

// Do sends a request to a function route. A transport error or timeout fails the test, which
// is retryable; if the host process has exited the test is aborted.
func (h *ScriptHost) Do(t *ldtest.T, params harness.RequestParams) *harness.Response {
	resp, err := h.host.Do(params, t.DebugLogger())
	if errors.Is(err, harness.ErrHostExited) {
		t.Abort("%s", err)
	}
	require.NoError(t, err, "request to %s/%s failed", h.scriptDir, params.Route)
	return resp
}

func (h *ScriptHost) Get(t *ldtest.T, route string) *harness.Response {
	return h.Do(t, harness.RequestParams{Method: http.MethodGet, Route: route})
}

// GetWithQuery is Get with query parameters.
func (h *ScriptHost) GetWithQuery(t *ldtest.T, route string, query url.Values) *harness.Response {
	return h.Do(t, harness.RequestParams{Method: http.MethodGet, Route: route, Query: query})
}

func (h *ScriptHost) Post(t *ldtest.T, route string, body string) *harness.Response {
	return h.Do(t, harness.RequestParams{
		Method: http.MethodPost,
		Route:  route,
		Header: http.Header{"Content-Type": {"text/plain"}},
		Body:   []byte(body),
	})
}

// RequireOK fails the test unless the response status is below 400.
func RequireOK(t *ldtest.T, resp *harness.Response) {
	require.True(t, resp.OK(), "expected a successful response, got %s", resp)
}

// RequireText fails the test unless the response is successful and has the given body.
func RequireText(t *ldtest.T, resp *harness.Response, expected string) {
	RequireOK(t, resp)
	require.Equal(t, expected, resp.Text())
}
