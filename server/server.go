// Package server exposes publishing, previews, publish history and LLM
// drafting sessions over HTTP, with a small embedded page at /.
package server

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"wechat_md_publisher/generator"
	"wechat_md_publisher/history"
	"wechat_md_publisher/publisher"
)

//go:embed web
var embeddedStatic embed.FS

// Server wires the publisher, the optional drafting agent and the optional
// history store to HTTP handlers.
type Server struct {
	pub      *publisher.Publisher
	genAgent *generator.Agent
	history  *history.Store
	logger   *log.Logger
	store    *sessionStore
	staticFS http.Handler
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*generator.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*generator.Session)}
}

func (s *sessionStore) set(id string, sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *sessionStore) get(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// New builds a Server. genAgent and hist may be nil: drafting routes then
// answer 503 and publishes are not recorded.
func New(pub *publisher.Publisher, genAgent *generator.Agent, hist *history.Store, logger *log.Logger) (*Server, error) {
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	if logger == nil {
		logger = log.Default()
	}
	sub, err := fs.Sub(embeddedStatic, "web")
	if err != nil {
		return nil, err
	}
	return &Server{
		pub:      pub,
		genAgent: genAgent,
		history:  hist,
		logger:   logger,
		store:    newStore(),
		staticFS: http.FileServer(http.FS(sub)),
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/publish", s.handlePublish)
	mux.HandleFunc("GET /api/publish/ws", s.handlePublishWS)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/preview", s.handlePreview)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryEntry)
	mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("POST /api/sessions/{id}", s.handleSessionRevise)
	mux.Handle("GET /", s.staticFS)
	return s.logMiddleware(mux)
}

// record stores a finished publish. Failures to record are logged only.
func (s *Server) record(ctx context.Context, res publisher.Result, source, markdown string) {
	if s.history == nil {
		return
	}
	if _, err := s.history.Record(ctx, history.FromResult(res, source, markdown)); err != nil {
		s.logger.Printf("[WARN] failed to record history: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResp struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResp{Error: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Printf("[http] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
