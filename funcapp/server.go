package funcapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/funcworker/worker-e2e-tests/servicedef"
)

// PortEnvVar is the environment variable in which the host passes the port that a custom
// handler must listen on.
const PortEnvVar = "FUNCTIONS_CUSTOMHANDLER_PORT"

const shutdownTimeout = time.Second * 5

// Server is the custom handler for one script. The host sends POST /<functionName> for each
// invocation; anything else is a 404.
type Server struct {
	index  *Index
	logger *zap.Logger
}

// NewServer indexes a script and returns a handler for its functions. If indexing fails the
// error is logged and the server exposes no functions.
func NewServer(script Script, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	index, err := script.Index()
	if err != nil {
		logger.Error("Script could not be indexed; no functions will be served",
			zap.String("script", script.Path), zap.Error(err))
	} else {
		logger.Info("Indexed script", zap.String("script", script.Path), zap.Int("functions", index.Len()))
	}
	return &Server{index: index, logger: logger}
}

// Index returns the functions that the server exposes.
func (s *Server) Index() *Index {
	return s.index
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(r.URL.Path, "/")
	f, err := s.index.Function(name)
	if err != nil {
		s.logger.Debug("Request for unknown function", zap.String("path", r.URL.Path))
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req servicedef.InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Invalid invocation request", zap.String("function", f.Name), zap.Error(err))
		http.Error(w, "invalid invocation request: "+err.Error(), http.StatusBadRequest)
		return
	}

	logger := s.logger.With(zap.String("function", f.Name),
		zap.String("invocationId", r.Header.Get("X-Azure-Functions-InvocationId")))
	started := time.Now()
	inv := NewInvocation(r.Context(), f, req)
	resp, err := invoke(f, inv)
	if err != nil {
		logger.Error("Invocation failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		resp.Logs = append(resp.Logs, err.Error())
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	logger.Debug("Invocation succeeded", zap.Duration("duration", time.Since(started)))
	writeJSON(w, http.StatusOK, resp)
}

func invoke(f Function, inv *Invocation) (resp servicedef.InvokeResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = servicedef.InvokeResponse{Outputs: map[string]interface{}{}, Logs: inv.logs}
			err = fmt.Errorf("function %s panicked: %v", f.Name, r)
		}
	}()
	ret, err := f.Handler(inv)
	if err != nil {
		resp, _ = inv.Response(nil)
		return resp, fmt.Errorf("function %s failed: %w", f.Name, err)
	}
	return inv.Response(ret)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, listener, handler, logger)
}

// Serve is like ListenAndServe with an existing listener, which it closes.
func Serve(ctx context.Context, listener net.Listener, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second * 10}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	logger.Info("Custom handler listening", zap.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down custom handler")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
