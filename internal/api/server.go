package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/animal-images/internal/animal"
	"github.com/JakeFAU/animal-images/internal/metrics"
)

// NoImagesInfo is sent in the X-Info header when a batch stored nothing.
const NoImagesInfo = "No images were fetched for the given type."

// Images is the service surface the HTTP layer depends on.
type Images interface {
	FetchAndStore(ctx context.Context, category string, count int) ([]animal.Image, error)
	GetLatest(ctx context.Context, category string) (animal.Image, error)
}

// Server wires HTTP handlers to the image service.
type Server struct {
	router chi.Router
	images Images
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(images Images, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		images: images,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/animals", func(r chi.Router) {
		r.Post("/fetch", s.fetchImages)
		r.Route("/last", func(r chi.Router) {
			r.Get("/", s.lastImage)
			r.Get("/image", s.lastImageBytes)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) fetchImages(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("type")
	rawCount := r.URL.Query().Get("count")
	if rawCount == "" {
		s.writeError(w, http.StatusBadRequest, "count is required")
		return
	}
	count, err := strconv.Atoi(rawCount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "count must be an integer")
		return
	}

	// A batch runs to completion even if the client goes away.
	images, err := s.images.FetchAndStore(context.WithoutCancel(r.Context()), category, count)
	switch {
	case errors.Is(err, animal.ErrUnsupportedCategory), errors.Is(err, animal.ErrInvalidCount):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("fetch batch failed", zap.String("category", category), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to fetch images")
		return
	}

	if len(images) == 0 {
		w.Header().Set("X-Info", NoImagesInfo)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, images)
}

func (s *Server) lastImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.latest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, img)
}

func (s *Server) lastImageBytes(w http.ResponseWriter, r *http.Request) {
	img, ok := s.latest(w, r)
	if !ok {
		return
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = animal.DefaultContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Payload)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Payload); err != nil {
		s.logger.Warn("write image failed", zap.String("image_id", img.ID), zap.Error(err))
	}
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) (animal.Image, bool) {
	category := r.URL.Query().Get("type")
	img, err := s.images.GetLatest(r.Context(), category)
	switch {
	case errors.Is(err, animal.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
		return animal.Image{}, false
	case err != nil:
		s.logger.Error("latest image lookup failed", zap.String("category", category), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load image")
		return animal.Image{}, false
	}
	return img, true
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request ID stored by the server middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.String("request_id", RequestID(r.Context())),
						zap.Any("error", rec),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
