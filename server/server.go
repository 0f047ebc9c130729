package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/safal938/nurse-sim/interview"
	"github.com/safal938/nurse-sim/logging"
	"github.com/safal938/nurse-sim/storage"
)

// DefaultPatientID is used when the start message names no patient.
const DefaultPatientID = "P0001"

// StartRequest is the client's opening message.
type StartRequest struct {
	Type      string `json:"type"`
	PatientID string `json:"patient_id"`
	Gender    string `json:"gender,omitempty"`
}

// Runner runs one session to completion.
type Runner interface {
	Run(ctx context.Context) error
}

// SessionFactory builds a session for a validated start request.
type SessionFactory interface {
	NewSession(ctx context.Context, req StartRequest, conn interview.Connection) (Runner, error)
}

// SessionFactoryFunc adapts a function to the SessionFactory interface.
type SessionFactoryFunc func(ctx context.Context, req StartRequest, conn interview.Connection) (Runner, error)

// NewSession implements SessionFactory.
func (f SessionFactoryFunc) NewSession(ctx context.Context, req StartRequest, conn interview.Connection) (Runner, error) {
	return f(ctx, req, conn)
}

// Options configure a Server.
type Options struct {
	// AllowedOrigins are host patterns accepted for cross-origin requests.
	// "*" accepts any origin.
	AllowedOrigins []string
	// StartTimeout bounds the wait for the start message.
	StartTimeout time.Duration
	// BaseContext is the parent of every session context. Cancelling it
	// ends all running sessions.
	BaseContext context.Context
	Logger      logging.Logger
}

// Server routes HTTP requests.
type Server struct {
	factory  SessionFactory
	profiles storage.Profiles
	opts     Options
	mux      *http.ServeMux
}

// New creates a server.
func New(factory SessionFactory, profiles storage.Profiles, optFns ...func(o *Options)) *Server {
	opts := Options{
		AllowedOrigins: []string{"*"},
		StartTimeout:   30 * time.Second,
		BaseContext:    context.Background(),
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	s := &Server{factory: factory, profiles: profiles, opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /ws/simulation", s.handleSimulation)
	s.mux.HandleFunc("POST /api/get-patient-file", s.handlePatientFile)
	s.mux.HandleFunc("OPTIONS /api/get-patient-file", s.handlePreflight)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.cors(w, r)
	s.mux.ServeHTTP(w, r)
}

func (s *Server) allowAnyOrigin() bool { return slices.Contains(s.opts.AllowedOrigins, "*") }

func (s *Server) cors(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	if s.allowAnyOrigin() {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else if s.originAllowed(origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
}

// originAllowed matches the origin's host against the allowed patterns the
// same way the websocket handshake does.
func (s *Server) originAllowed(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, pattern := range s.opts.AllowedOrigins {
		if ok, _ := path.Match(strings.ToLower(pattern), strings.ToLower(u.Host)); ok {
			return true
		}
	}
	return false
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
