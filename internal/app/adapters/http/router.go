package http

import (
	"context"
	"crypto/tls"
	"errors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/acme/autocert"
	"log/slog"
	"net/http"
	"redditslacker/internal/app/adapters/http/handlers"
	"redditslacker/internal/app/adapters/http/middlewares"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/pkg/logger"
	"time"
)

const shutdownTimeout = 10 * time.Second

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log    logger.Logger
	server config.Server
}

// NewRouter wires the Slack endpoints and the admin surface. Admin routes are
// only mounted when adminToken is set.
func NewRouter(log logger.Logger, server config.Server, service handlers.Service, verifier middlewares.Verifier, adminToken string) *Router {
	r := &Router{
		router:      gin.New(),
		handlers:    handlers.New(log, service),
		middlewares: middlewares.New(log, verifier),
		log:         log,
		server:      server,
	}
	r.router.Use(gin.Recovery())

	r.router.GET("/healthz", r.handlers.HealthHandler)

	slackGroup := r.router.Group("/slack", r.middlewares.SlackVerify())
	slackGroup.POST("/commands", r.handlers.CommandHandler)
	slackGroup.POST("/actions", r.handlers.ActionHandler)

	if adminToken != "" {
		pprofGroup := r.router.Group("/", gin.BasicAuth(gin.Accounts{
			"admin": adminToken,
		}))
		pprof.Register(pprofGroup)

		r.router.GET("/metrics", r.middlewares.Auth(adminToken), gin.WrapH(promhttp.Handler()))
	}

	return r
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Run serves until ctx is cancelled, then shuts down gracefully. TLS comes
// from a static certificate pair, from ACME when domains are configured, or
// is skipped entirely.
func (r *Router) Run(ctx context.Context) error {
	srv := r.newServer(r.server.Addr, r.router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.serve(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	r.log.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (r *Router) serve(srv *http.Server) error {
	switch {
	case r.server.CertFile != "" && r.server.KeyFile != "":
		r.log.Info("HTTPS server started", slog.String("addr", srv.Addr), slog.String("cert", r.server.CertFile))
		return srv.ListenAndServeTLS(r.server.CertFile, r.server.KeyFile)
	case len(r.server.CertDomains) > 0:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(r.server.CertDomains...),
			Cache:      autocert.DirCache(r.server.CertCacheDir),
		}
		srv.TLSConfig = m.TLSConfig()
		srv.TLSConfig.MinVersion = tls.VersionTLS12
		r.log.Info("HTTPS server started with ACME certificates", slog.String("addr", srv.Addr), slog.Any("domains", r.server.CertDomains))
		return srv.ListenAndServeTLS("", "")
	default:
		r.log.Info("HTTP server started", slog.String("addr", srv.Addr))
		return srv.ListenAndServe()
	}
}

func (r *Router) newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
