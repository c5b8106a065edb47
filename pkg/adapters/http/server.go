package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/buddy/internal/logging"
	"github.com/aretw0/buddy/pkg/domain"
	"github.com/aretw0/buddy/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultIngressPath is where the extension posts its payloads.
const DefaultIngressPath = "/receive_text"

// ReceiveTextRequest is the body posted by the extension. Every field is optional.
type ReceiveTextRequest struct {
	MenuItemID string `json:"menuItemId"`
	Text       string `json:"text"`
	HTML       string `json:"html"`
}

// ReceiveTextResponse carries the dispatcher acknowledgement.
type ReceiveTextResponse struct {
	Reply string `json:"reply"`
}

// Server routes extension requests to a dispatcher.
type Server struct {
	dispatcher  ports.Dispatcher
	logger      *slog.Logger
	ingressPath string
	maxBody     int64
	origins     []string
	version     string
	metricsPath string
	metrics     http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIngressPath overrides DefaultIngressPath.
func WithIngressPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.ingressPath = path
		}
	}
}

// WithMaxBodyBytes caps the accepted request body. Zero or less means no cap.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

// WithCORSOrigins sets the allowed origins. "*" allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithVersion sets the application version reported by /info.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(version)
	}
}

// WithMetrics mounts a metrics handler (usually promhttp) at path.
func WithMetrics(path string, handler http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = handler
	}
}

// NewHandler creates the HTTP handler for the ingress.
func NewHandler(dispatcher ports.Dispatcher, opts ...Option) http.Handler {
	s := &Server{
		dispatcher:  dispatcher,
		logger:      logging.NewNop(),
		ingressPath: DefaultIngressPath,
		origins:     []string{"*"},
		version:     "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Post(s.ingressPath, s.ReceiveText)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(RawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil && s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, s.metrics)
	}
	return r
}

// ReceiveText handles the extension POST. Missing fields default to empty and unknown
// actions are relayed unchanged; only a body that is not a JSON object is rejected.
func (s *Server) ReceiveText(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if s.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}

	var req ReceiveTextRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, "Invalid request body", status)
		s.logger.Warn("ReceiveText: invalid request body",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		return
	}

	payload := domain.NewPayload(req.MenuItemID, req.Text, req.HTML)
	_, reply := s.dispatcher.Dispatch(r.Context(), payload)

	writeJSON(w, s.logger, ReceiveTextResponse{Reply: reply})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, s.logger, map[string]string{
		"app":         "buddy-http",
		"version":     s.version,
		"api_version": apiVersion,
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if slices.Contains(s.origins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(s.origins, origin) {
		return origin
	}
	return ""
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Buddy API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`
