// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server is the web form: paste a report, download the filled
// workbook, and maintain the shared print list.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"mime"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/printlist/internal/script"
	"github.com/pdiddy/printlist/internal/submit"
	"github.com/pdiddy/printlist/internal/workbook"
	"github.com/pdiddy/printlist/pkg/types"
)

//go:embed templates/index.html
var templates embed.FS

// User-facing messages.
const (
	msgCleared     = "スプレッドシートのデータをクリアしました。"
	msgCopied      = "テンプレートをコピーしました。"
	msgClearFailed = "クリアに失敗しました："
	msgCopyFailed  = "コピーに失敗しました："
	msgNetwork     = "通信エラー："
	msgNoText      = "テキストを入力してください。"
	msgSubmitError = "処理に失敗しました："
)

// Submitter runs one submission.
type Submitter interface {
	Submit(ctx context.Context, text string) (submit.Result, error)
}

// Maintainer performs the print-list maintenance actions.
type Maintainer interface {
	Clear(ctx context.Context) error
	CopyTemplate(ctx context.Context) error
}

// Server serves the form.
type Server struct {
	cfg    types.ServerConfig
	sub    Submitter
	maint  Maintainer
	flash  *flasher
	page   *template.Template
	logger *zap.Logger
}

type pageData struct {
	Flash string
	Error string
	Text  string
}

// New builds a server. sessionSecret signs flash cookies; when empty a
// per-process key is used.
func New(cfg types.ServerConfig, sub Submitter, maint Maintainer, sessionSecret string, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DownloadName == "" {
		cfg.DownloadName = "output.xlsx"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	page, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, err
	}
	fl, err := newFlasher(sessionSecret)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, sub: sub, maint: maint, flash: fl, page: page, logger: logger}, nil
}

// Handler returns the routed, logging handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleSubmit)
	mux.HandleFunc("POST /clear", s.handleClear)
	mux.HandleFunc("POST /copy", s.handleCopy)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	return s.logRequests(mux)
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("rendering page", zap.Error(err))
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, pageData{Flash: s.flash.Pop(w, r)})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, pageData{Error: msgSubmitError + err.Error()})
		return
	}
	text := r.PostForm.Get("text")

	res, err := s.sub.Submit(r.Context(), text)
	switch {
	case errors.Is(err, submit.ErrEmptyReport):
		s.render(w, http.StatusBadRequest, pageData{Error: msgNoText})
		return
	case err != nil:
		s.render(w, http.StatusBadGateway, pageData{Error: msgSubmitError + err.Error(), Text: text})
		return
	}

	w.Header().Set("Content-Type", workbook.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": s.cfg.DownloadName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.XLSX)))
	w.Header().Set("X-Submission-Id", res.ID)
	w.Write(res.XLSX)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.maintain(w, r, s.maint.Clear, msgCleared, msgClearFailed)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	s.maintain(w, r, s.maint.CopyTemplate, msgCopied, msgCopyFailed)
}

func (s *Server) maintain(w http.ResponseWriter, r *http.Request, action func(context.Context) error, ok, failed string) {
	err := action(r.Context())
	var re *script.ResponseError
	switch {
	case err == nil:
		s.flash.Set(w, ok)
	case errors.As(err, &re):
		s.logger.Warn("script rejected", zap.String("path", r.URL.Path), zap.Int("status", re.Status), zap.String("body", re.Body))
		s.flash.Set(w, failed+re.Body)
	default:
		s.logger.Warn("script unreachable", zap.String("path", r.URL.Path), zap.Error(err))
		s.flash.Set(w, msgNetwork+err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
