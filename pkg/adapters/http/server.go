package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/scorm"
	"github.com/aretw0/scorm/internal/logging"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes the live sessions of a Manager as a JSON API for hosted content frames.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager

	perMinute int
	limiter   *callLimiter
	metrics   http.Handler
	health    func(r *http.Request) error
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithRateLimit caps the calls of each session to perMinute, with a burst of the same size.
// Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.perMinute = perMinute
	}
}

// WithMetricsHandler mounts h (usually promhttp) on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithHealthCheck makes GET /health report the outcome of check (for example a store ping).
func WithHealthCheck(check func(r *http.Request) error) Option {
	return func(s *Server) {
		s.health = check
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the manager.
func NewHandler(manager *session.Manager, opts ...Option) http.Handler {
	return newServer(manager, opts...).routes()
}

func newServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		Manager: manager,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	s.limiter = newCallLimiter(s.perMinute, manager.Live)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Post("/sessions", s.Launch)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/", s.GetSession)
		r.Delete("/", s.CloseSession)
		r.Post("/initialize", s.Initialize)
		r.Post("/terminate", s.Terminate)
		r.Post("/commit", s.Commit)
		r.Get("/values/{element}", s.GetValue)
		r.Put("/values/{element}", s.SetValue)
		r.Get("/errors/last", s.GetLastError)
		r.Get("/errors/{code}", s.DescribeError)
		r.Get("/events", s.SubscribeEvents)
	})
	r.Get("/attempts", s.ListAttempts)
	r.Get("/attempts/{registration}", s.GetAttempt)
	r.Delete("/attempts/{registration}", s.DeleteAttempt)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CallResponse carries the string result of an RTE call and the error code it left behind.
type CallResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// ErrorInfo describes an error code.
type ErrorInfo struct {
	Code       string `json:"code"`
	String     string `json:"string"`
	Diagnostic string `json:"diagnostic"`
}

type paramRequest struct {
	Param string `json:"param"`
}

type valueRequest struct {
	Value string `json:"value"`
}

// Launch handles POST /sessions.
func (s *Server) Launch(w http.ResponseWriter, r *http.Request) {
	var req session.LaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Launch: Invalid request body", "err", err)
		return
	}
	info, err := s.Manager.Launch(r.Context(), req)
	if err != nil {
		s.fail(w, "Launch", err)
		return
	}
	writeJSON(w, http.StatusCreated, info, s.logger)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.Manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, info, s.logger)
}

// CloseSession handles DELETE /sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Manager.Close(r.Context(), id); err != nil {
		s.fail(w, "CloseSession", err)
		return
	}
	s.limiter.forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// Initialize handles POST /sessions/{id}/initialize.
func (s *Server) Initialize(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, "Initialize", (*scorm.API).Initialize)
}

// Terminate handles POST /sessions/{id}/terminate.
func (s *Server) Terminate(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, "Terminate", (*scorm.API).Terminate)
}

// Commit handles POST /sessions/{id}/commit.
func (s *Server) Commit(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, "Commit", (*scorm.API).Commit)
}

func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, name string, call func(*scorm.API, string) string) {
	var body paramRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn(name+": Invalid request body", "err", err)
			return
		}
	}
	s.call(w, r, name, func(api *scorm.API) string {
		return call(api, body.Param)
	})
}

// GetValue handles GET /sessions/{id}/values/{element}.
func (s *Server) GetValue(w http.ResponseWriter, r *http.Request) {
	element := chi.URLParam(r, "element")
	s.call(w, r, "GetValue", func(api *scorm.API) string {
		return api.GetValue(element)
	})
}

// SetValue handles PUT /sessions/{id}/values/{element}.
func (s *Server) SetValue(w http.ResponseWriter, r *http.Request) {
	var body valueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SetValue: Invalid request body", "err", err)
		return
	}
	element := chi.URLParam(r, "element")
	s.call(w, r, "SetValue", func(api *scorm.API) string {
		return api.SetValue(element, body.Value)
	})
}

// GetLastError handles GET /sessions/{id}/errors/last.
func (s *Server) GetLastError(w http.ResponseWriter, r *http.Request) {
	s.call(w, r, "GetLastError", (*scorm.API).GetLastError)
}

// DescribeError handles GET /sessions/{id}/errors/{code}.
func (s *Server) DescribeError(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var info ErrorInfo
	err := s.Manager.Call(r.Context(), chi.URLParam(r, "id"), func(api *scorm.API) error {
		diagnostic := api.GetDiagnostic(code)
		info = ErrorInfo{
			Code:       code,
			String:     api.GetErrorString(code),
			Diagnostic: diagnostic,
		}
		return nil
	})
	if err != nil {
		s.fail(w, "DescribeError", err)
		return
	}
	writeJSON(w, http.StatusOK, info, s.logger)
}

// call runs one RTE call under the session lock and broadcasts the resulting change, if any.
// RTE failures are reported in the body with status 200; only transport problems use HTTP errors.
func (s *Server) call(w http.ResponseWriter, r *http.Request, name string, fn func(*scorm.API) string) {
	id := chi.URLParam(r, "id")
	watched := s.Streams.HasSubscribers(id)

	var resp CallResponse
	var diff *domain.SnapshotDiff
	err := s.Manager.Call(r.Context(), id, func(api *scorm.API) error {
		var before domain.Snapshot
		if watched {
			before = api.Snapshot()
		}
		resp.Result = fn(api)
		resp.Error = api.LastError().String()
		if watched {
			diff = domain.Diff(before, api.Snapshot())
		}
		return nil
	})
	if err != nil {
		s.fail(w, name, err)
		return
	}

	if diff != nil {
		s.logger.Debug(name+": Diff calculated", "session_id", id, "changed", diff.Changed())
		if bytes, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(id, string(bytes))
		}
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

// ListAttempts handles GET /attempts.
func (s *Server) ListAttempts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.fail(w, "ListAttempts", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids, s.logger)
}

// GetAttempt handles GET /attempts/{registration}.
func (s *Server) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := s.Manager.Inspect(r.Context(), chi.URLParam(r, "registration"))
	if err != nil {
		s.fail(w, "GetAttempt", err)
		return
	}
	writeJSON(w, http.StatusOK, attempt, s.logger)
}

// DeleteAttempt handles DELETE /attempts/{registration}.
func (s *Server) DeleteAttempt(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "registration")); err != nil {
		s.fail(w, "DeleteAttempt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r); err != nil {
			s.logger.Error("Health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()}, s.logger)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"app":             "scorm-http",
		"version":         strings.TrimSpace(scorm.Version),
		"active_sessions": s.Manager.Active(),
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

func (s *Server) fail(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrAttemptNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrInvalidLaunch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, fmt.Sprintf("%s error: %v", name, err), http.StatusInternalServerError)
		s.logger.Error(name+" failed", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
