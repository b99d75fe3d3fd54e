// Package funcapptest emulates just enough of a functions host to run a funcapp script in
// process: the status resource, HTTP routes under /api/, and blob bindings backed by an
// in-memory BlobStore. It exists for testing fixtures and suites without a real host.
//
// Binding resolution is simple. Blob paths are used literally, a missing input
// blob is delivered as null, and blob triggers fire synchronously after the write that
// caused them.
package funcapptest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/funcworker/worker-e2e-tests/funcapp"
	"github.com/funcworker/worker-e2e-tests/servicedef"
)

const (
	StatusPath  = "/admin/host/status"
	RoutePrefix = "/api/"
)

// Host serves one script. It implements http.Handler, so it can be run with httptest.
type Host struct {
	id      string
	script  funcapp.Script
	handler *funcapp.Server
	blobs   *BlobStore
	lock    sync.Mutex
	invoked map[string]int
}

// NewHost creates a Host for a script. If blobs is nil, a new empty store is used.
func NewHost(script funcapp.Script, blobs *BlobStore, logger *zap.Logger) *Host {
	if blobs == nil {
		blobs = NewBlobStore()
	}
	return &Host{
		id:      uuid.NewString(),
		script:  script,
		handler: funcapp.NewServer(script, logger),
		blobs:   blobs,
		invoked: make(map[string]int),
	}
}

// Blobs returns the host's blob store.
func (h *Host) Blobs() *BlobStore {
	return h.blobs
}

// Invocations returns how many times a function has been invoked.
func (h *Host) Invocations(function string) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.invoked[strings.ToLower(function)]
}

func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == StatusPath {
		writeJSON(w, http.StatusOK, map[string]string{"id": h.id, "state": "Running"})
		return
	}
	if !strings.HasPrefix(r.URL.Path, RoutePrefix) {
		http.NotFound(w, r)
		return
	}
	route := strings.TrimPrefix(r.URL.Path, RoutePrefix)
	f, ok := h.functionForRoute(route)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if !methodAllowed(f, r.Method) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	query := make(map[string]string)
	for k, vs := range r.URL.Query() {
		query[k] = vs[0]
	}
	trigger, err := json.Marshal(servicedef.HTTPRequestData{
		URL:     "http://" + r.Host + r.URL.String(),
		Method:  r.Method,
		Query:   query,
		Headers: r.Header,
		Params:  map[string]string{},
		Body:    mustMarshal(string(body)),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp, err := h.invoke(f, trigger, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ret, _ := f.Binding(servicedef.ReturnBindingName)
	if ret.Type != funcapp.TypeHTTP {
		w.WriteHeader(http.StatusOK)
		return
	}
	var out servicedef.HTTPResponseData
	if err := remarshal(resp.ReturnValue, &out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for k, v := range out.Headers {
		w.Header().Set(k, v)
	}
	status := out.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(out.Body))
}

func (h *Host) functionForRoute(route string) (funcapp.Function, bool) {
	index, err := h.script.Index()
	if err != nil {
		return funcapp.Function{}, false
	}
	for _, f := range index.Functions() {
		if f.Route() != "" && strings.EqualFold(f.Route(), route) {
			return f, true
		}
	}
	return funcapp.Function{}, false
}

func methodAllowed(f funcapp.Function, method string) bool {
	for _, m := range f.Methods() {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// invoke runs one invocation through the custom handler, then applies its blob outputs.
func (h *Host) invoke(f funcapp.Function, trigger json.RawMessage, metadata map[string]ldvalue.Value) (
	servicedef.InvokeResponse, error) {
	h.lock.Lock()
	h.invoked[strings.ToLower(f.Name)]++
	h.lock.Unlock()

	req := servicedef.InvokeRequest{
		Data:     map[string]json.RawMessage{f.Trigger.Name: trigger},
		Metadata: metadata,
	}
	for _, b := range f.Bindings {
		if b.Direction == funcapp.In && b.Type == funcapp.TypeBlob {
			req.Data[b.Name] = h.blobValue(b)
		}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return servicedef.InvokeResponse{}, err
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/"+f.Name, bytes.NewReader(body)))
	var resp servicedef.InvokeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		return resp, fmt.Errorf("invalid response from custom handler (HTTP %d): %s", rec.Code, rec.Body.String())
	}
	if rec.Code != http.StatusOK {
		return resp, fmt.Errorf("function %s failed: %s", f.Name, strings.Join(resp.Logs, "; "))
	}

	var written []string
	for _, b := range f.Bindings {
		if b.Direction != funcapp.Out || b.Type != funcapp.TypeBlob {
			continue
		}
		value, ok := resp.Outputs[b.Name]
		if b.IsReturn() {
			value, ok = resp.ReturnValue, resp.ReturnValue != nil
		}
		if !ok {
			continue
		}
		content, err := decodeBlob(b.DataType, value)
		if err != nil {
			return resp, fmt.Errorf("output %s of %s: %w", b.Name, f.Name, err)
		}
		h.blobs.Put(b.Path, content)
		written = append(written, b.Path)
	}
	for _, path := range written {
		if err := h.fireBlobTriggers(path); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

func (h *Host) fireBlobTriggers(path string) error {
	index, err := h.script.Index()
	if err != nil {
		return nil
	}
	for _, f := range index.Functions() {
		if f.Trigger.Type != funcapp.TypeBlobTrigger || f.Trigger.Path != path {
			continue
		}
		metadata := map[string]ldvalue.Value{
			"BlobTrigger": ldvalue.String(path),
			"Name":        ldvalue.String(path[strings.LastIndex(path, "/")+1:]),
		}
		if _, err := h.invoke(f, h.blobValue(f.Trigger), metadata); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) blobValue(b funcapp.Binding) json.RawMessage {
	content, ok := h.blobs.Get(b.Path)
	if !ok {
		return json.RawMessage("null")
	}
	if b.DataType == funcapp.DataTypeBinary {
		return mustMarshal(base64.StdEncoding.EncodeToString(content))
	}
	return mustMarshal(string(content))
}

func decodeBlob(dataType funcapp.DataType, value interface{}) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return json.Marshal(value)
	}
	if dataType == funcapp.DataTypeBinary {
		return base64.StdEncoding.DecodeString(s)
	}
	return []byte(s), nil
}

func remarshal(from, to interface{}) error {
	data, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, to)
}

func mustMarshal(value interface{}) json.RawMessage {
	data, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	return data
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
