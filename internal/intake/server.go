// Package intake is the HTTP service that accepts serialized registrations,
// re-validates them with the wizard's predicates and stores them.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kingrea/techfest/internal/registration"
	"github.com/kingrea/techfest/internal/submission"
)

// ProtocolVersion identifies the intake contract version exposed via /health.
const ProtocolVersion = "1.0.0"

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// ErrDisabled is returned by Start when intake.enabled is false.
var ErrDisabled = errors.New("intake: server disabled")

// Logger records server status information. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

// Server wraps the HTTP listener and handlers backing the intake service.
type Server struct {
	settings Settings
	store    Store
	profile  registration.Profile
	catalog  registration.Catalog
	registry *prometheus.Registry
	metrics  *Metrics
	logger   Logger
	clock    func() time.Time

	handlerOnce sync.Once
	handler     http.Handler

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithStore overrides the default in-memory store.
func WithStore(store Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithProfile sets the flow variant used to validate payloads.
func WithProfile(p registration.Profile) Option {
	return func(s *Server) {
		s.profile = p
	}
}

// WithCatalog restricts accepted events to catalog.
func WithCatalog(catalog registration.Catalog) Option {
	return func(s *Server) {
		if catalog.Len() > 0 {
			s.catalog = catalog
		}
	}
}

// WithRegistry registers metrics with reg and serves it on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares an intake server using the provided settings.
func NewServer(settings Settings, opts ...Option) *Server {
	if settings.MaxBodyBytes <= 0 {
		settings.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		settings: settings,
		store:    NewMemoryStore(),
		profile:  registration.DefaultProfile(),
		catalog:  registration.DefaultCatalog(),
		logger:   nopLogger{},
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)
	return s
}

// Handler returns the router. It is built once and shared with Start.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Get("/health", s.handleHealth)
		r.Head("/health", s.handleHealth)
		r.Post("/registrations", s.handleCreate)
		r.Get("/registrations", s.handleList)
		r.Get("/registrations/{id}", s.handleGet)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusMethodNotAllowed, submission.ErrorResponse{Error: "method not allowed"})
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, submission.ErrorResponse{Error: "not found"})
		})
		s.handler = r
	})
	return s.handler
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("intake: server is nil")
	}
	if !s.settings.Enabled {
		return ErrDisabled
	}
	handler := s.Handler()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("intake: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("intake: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("intake: serve error: %v", err)
		}
	}()
	s.logger.Printf("intake: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(time.Since(s.startTime).Seconds())
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Registrations int    `json:"registrations"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type listResponse struct {
	Registrations []Record `json:"registrations"`
	Total         int      `json:"total"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Printf("intake: count registrations: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, submission.ErrorResponse{Error: "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		Version:       ProtocolVersion,
		Registrations: count,
		UptimeSeconds: s.uptimeSeconds(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		s.reject(w, http.StatusBadRequest, "empty_body", submission.ErrorResponse{Error: "empty body"})
		return
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.reject(w, http.StatusRequestEntityTooLarge, "too_large", submission.ErrorResponse{Error: "payload exceeds limit"})
			return
		}
		s.reject(w, http.StatusBadRequest, "unreadable", submission.ErrorResponse{Error: "unable to read body"})
		return
	}
	var payload submission.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.reject(w, http.StatusBadRequest, "invalid_json", submission.ErrorResponse{Error: "invalid JSON"})
		return
	}
	payload.Normalize()
	if payload.Version != submission.SchemaVersion {
		s.reject(w, http.StatusBadRequest, "version", submission.ErrorResponse{Error: fmt.Sprintf("version %d not supported", payload.Version)})
		return
	}
	key := strings.TrimSpace(r.Header.Get(submission.IdempotencyHeader))
	switch {
	case payload.ID == "" && key != "":
		payload.ID = key
	case payload.ID == "":
		payload.ID = uuid.NewString()
	case key != "" && key != payload.ID:
		s.reject(w, http.StatusBadRequest, "id_mismatch", submission.ErrorResponse{Error: "idempotency key does not match payload id"})
		return
	}
	if missing := registration.MissingFields(payload.Form(), s.profile, &s.catalog); len(missing) > 0 {
		s.reject(w, http.StatusUnprocessableEntity, "incomplete", submission.ErrorResponse{Error: "registration incomplete", Missing: missing})
		return
	}

	record := Record{Payload: payload, ReceivedAt: s.now()}
	err = s.store.Save(r.Context(), record)
	switch {
	case err == nil:
		s.metrics.ObserveAccepted(payload.Events)
		s.logger.Printf("intake: accepted registration %s (%s)", payload.ID, strings.Join(payload.Events, ","))
		writeJSON(w, http.StatusCreated, s.ack(record, "accepted"))
	case errors.Is(err, ErrDuplicate):
		existing, getErr := s.store.Get(r.Context(), payload.ID)
		if getErr != nil {
			s.logger.Printf("intake: load duplicate %s: %v", payload.ID, getErr)
			writeJSON(w, http.StatusInternalServerError, submission.ErrorResponse{Error: "registration lookup failed"})
			return
		}
		if !existing.Payload.SameAnswers(payload) {
			s.logger.Printf("intake: registration %s conflicts with a stored one", payload.ID)
			s.reject(w, http.StatusConflict, "id_conflict", submission.ErrorResponse{Error: "registration id already used for different answers"})
			return
		}
		s.metrics.ObserveDuplicate()
		writeJSON(w, http.StatusOK, s.ack(existing, "duplicate"))
	default:
		s.logger.Printf("intake: store registration %s: %v", payload.ID, err)
		writeJSON(w, http.StatusInternalServerError, submission.ErrorResponse{Error: "registration could not be stored"})
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, submission.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	records, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Printf("intake: list registrations: %v", err)
		writeJSON(w, http.StatusInternalServerError, submission.ErrorResponse{Error: "registrations unavailable"})
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Printf("intake: count registrations: %v", err)
		writeJSON(w, http.StatusInternalServerError, submission.ErrorResponse{Error: "registrations unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Registrations: records, Total: total})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, submission.ErrorResponse{Error: "registration not found"})
		return
	}
	if err != nil {
		s.logger.Printf("intake: get registration: %v", err)
		writeJSON(w, http.StatusInternalServerError, submission.ErrorResponse{Error: "registration unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) ack(record Record, status string) submission.AckResponse {
	names := make([]string, 0, len(record.Payload.Events))
	for _, id := range record.Payload.Events {
		names = append(names, s.catalog.Name(registration.EventID(id)))
	}
	return submission.AckResponse{
		ID:         record.ID(),
		Status:     status,
		ReceivedAt: record.ReceivedAt,
		Message:    fmt.Sprintf("Registered %s for %s", record.Payload.FullName, strings.Join(names, ", ")),
	}
}

func (s *Server) reject(w http.ResponseWriter, status int, reason string, resp submission.ErrorResponse) {
	s.metrics.ObserveRejected(reason)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
