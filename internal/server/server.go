// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabloom/internal/analyzer"
	"github.com/KaramelBytes/tabloom/internal/config"
	"github.com/KaramelBytes/tabloom/internal/ingest"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

const unsupportedMessage = "Please upload either CSV or Excel files (.csv, .xlsx, .xls)"

// FileAnalyzer is the part of the analyzer the HTTP layer needs.
type FileAnalyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*analyzer.Report, error)
}

// Server serves POST /api/analyze and GET /healthz.
type Server struct {
	router   *chi.Mux
	analyzer FileAnalyzer
	cfg      *config.Global
	log      *zap.Logger
}

// New builds the router and creates the upload folder.
func New(cfg *config.Global, a FileAnalyzer, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := utils.EnsureDir(cfg.UploadFolder); err != nil {
		return nil, fmt.Errorf("create upload folder: %w", err)
	}
	s := &Server{router: chi.NewRouter(), analyzer: a, cfg: cfg, log: log}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/api/analyze", s.handleAnalyze)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ServerAddress,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// insight generation can take as long as the provider timeout
		WriteTimeout: time.Duration(s.cfg.HTTPTimeoutSec+60) * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxContentLength)
	if err := r.ParseMultipartForm(s.cfg.MaxContentLength); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		// a file input left empty arrives as a plain field with no filename
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeError(w, http.StatusBadRequest, "No file selected")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}
	ext := ingest.Extension(header.Filename)
	if !s.cfg.Allowed(ext) {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	path, err := s.saveUpload(file, ext)
	if path != "" {
		defer func() {
			if err := utils.RemoveIfExists(path); err != nil {
				s.log.Error("cleanup upload", zap.String("path", path), zap.Error(err))
			}
		}()
	}
	if err != nil {
		s.log.Error("save upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rep, err := s.analyzer.AnalyzeFile(r.Context(), path)
	if err != nil {
		status, msg := classify(err)
		s.log.Warn("analysis rejected",
			zap.String("file", header.Filename),
			zap.Int("status", status),
			zap.Error(err))
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// saveUpload stores the upload under a random name that keeps its extension,
// so the client-supplied name never touches the filesystem.
func (s *Server) saveUpload(src io.Reader, ext string) (string, error) {
	path := filepath.Join(s.cfg.UploadFolder, uuid.NewString()+"."+ext)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return path, fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return path, fmt.Errorf("close upload: %w", err)
	}
	return path, nil
}

func classify(err error) (int, string) {
	var readErr *ingest.FileReadError
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusBadRequest, unsupportedMessage
	case errors.Is(err, ingest.ErrEmptyDataset), errors.As(err, &readErr):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Error analyzing file: " + err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)))
	})
}
