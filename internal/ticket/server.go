package ticket

import (
	"log/slog"
	"net/http"
)

const defaultMaxUploadMB = 20

// Server handles HTTP requests for the upload dashboard
type Server struct {
	service        *Service
	mux            *http.ServeMux
	maxUploadBytes int64
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, maxUploadMB int) *Server {
	return NewServerWithMux(service, maxUploadMB, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, maxUploadMB int, mux *http.ServeMux) *Server {
	if maxUploadMB < 1 {
		maxUploadMB = defaultMaxUploadMB
	}
	s := &Server{
		service:        service,
		mux:            mux,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("GET /classify/{name}", s.handleClassifyForm)
	s.mux.HandleFunc("POST /classify/{name}", s.handleClassifySubmit)
	s.mux.HandleFunc("GET /files/{name}", s.handleFile)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.mux)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
