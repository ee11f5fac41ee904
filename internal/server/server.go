// Package server 是 mvbrowse 的 HTTP 前端：HTML 页面 + JSON API + /metrics。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/John-Robertt/mvbrowse/internal/app/browse"
	"github.com/John-Robertt/mvbrowse/internal/domain"
	"github.com/John-Robertt/mvbrowse/internal/metrics"
	"github.com/John-Robertt/mvbrowse/internal/render"
)

const (
	// handlerTimeout 覆盖一次全部地区扇出 + credits 图片查询的最坏耗时。
	handlerTimeout  = 60 * time.Second
	shutdownTimeout = 5 * time.Second
)

type Options struct {
	Service *browse.Service

	// Page 是页面模板参数；每个 HTML 请求据此新建一份 render.Page。
	Page render.Options

	// DefaultGenres 用于未指定 genre 的 genres / tv 列表请求。
	DefaultGenres []domain.Genre

	Metrics  *metrics.Collectors
	Gatherer prometheus.Gatherer
	Logger   hclog.Logger
}

type server struct {
	svc           *browse.Service
	pageOpts      render.Options
	defaultGenres []domain.Genre
	log           hclog.Logger
}

// New 构造路由。
func New(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	s := &server{
		svc:           opts.Service,
		pageOpts:      opts.Page,
		defaultGenres: opts.DefaultGenres,
		log:           log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log, opts.Metrics))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(opts.Gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(handlerTimeout))

		r.Get("/", s.handlePage)
		r.Route("/api", func(r chi.Router) {
			r.Get("/movies", s.handleMovies)
			r.Get("/movies/{id}", s.handleDetail)
			r.Get("/movies/{id}/credits", s.handleCredits)
			r.Get("/list/{kind}", s.handleList)
			r.Get("/tv", s.handleTV)
		})
	})
	return r
}

// ListenAndServe 监听 addr，直到 ctx 取消后优雅退出。
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log hclog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}
