package app

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"
	"io"
	"log/slog"
	"net"
	"net/http"
	"redditslacker/internal/app/adapters/chart"
	router "redditslacker/internal/app/adapters/http"
	"redditslacker/internal/app/adapters/imagehost"
	"redditslacker/internal/app/adapters/metrics"
	"redditslacker/internal/app/adapters/reddit"
	"redditslacker/internal/app/adapters/slack"
	"redditslacker/internal/app/domain/commands"
	"redditslacker/internal/app/domain/monitor"
	"redditslacker/internal/app/domain/usernotes"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/internal/app/infrastructure/jobs"
	"redditslacker/internal/app/infrastructure/storage"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
	"runtime"
	"time"
)

const (
	httpTimeout = 30 * time.Second
	cacheSize   = 1000
)

type Options struct {
	ConfigPath string
	EnvFile    string
}

type base struct {
	log     *logger.SlogLogger
	manager *config.Manager
	secrets config.Secrets
	client  *http.Client
}

func bootstrap(o Options, needSecrets bool) (*base, error) {
	manager, err := config.New(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Get()

	log := logger.New(logger.Options{File: cfg.App.LogFile, Level: cfg.App.LogLevel})

	var secrets config.Secrets
	if needSecrets {
		secrets, err = config.LoadSecrets(o.EnvFile)
		if err != nil {
			_ = log.Close()
			return nil, err
		}
	}

	client, err := httpClient(cfg.Proxy, time.Duration(cfg.Reddit.TimeoutSecs)*time.Second)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	return &base{log: log, manager: manager, secrets: secrets, client: client}, nil
}

// httpClient returns the outbound client, tunnelled through SOCKS5 when a
// proxy is configured.
func httpClient(p *config.Proxy, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = httpTimeout
	}
	client := &http.Client{
		Timeout:   timeout,
		Transport: http.DefaultTransport,
	}

	if p == nil || p.Address == "" || p.Port == 0 {
		return client, nil
	}

	dialer, err := proxy.SOCKS5("tcp", fmt.Sprintf("%s:%d", p.Address, p.Port), nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy: %w", err)
	}

	client.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return client, nil
}

// Serve runs the Slack endpoints and the pollers until ctx is cancelled.
func Serve(ctx context.Context, o Options) error {
	b, err := bootstrap(o, true)
	if err != nil {
		return err
	}
	defer b.log.Close()

	log := b.log
	cfg := b.manager.Get()

	gin.SetMode(cfg.App.GinMode)
	b.manager.OnChange(func(c *config.Config) {
		if c.App.LogLevel != log.GetLogLevel() {
			log.SetLogLevel(c.App.LogLevel)
			log.Info("Log level changed", slog.String("level", c.App.LogLevel))
		}
	})

	prometheus.MustRegister(metrics.SummaryDuration)

	store, err := storage.OpenStore(ctx, cfg.App.Database)
	if err != nil {
		log.Error("Failed to open database", err, slog.String("path", cfg.App.Database))
		return err
	}
	defer store.Close()

	processed, err := storage.OpenProcessedLog(cfg.App.ProcessedLog)
	if err != nil {
		log.Error("Failed to open processed log", err, slog.String("path", cfg.App.ProcessedLog))
		return err
	}
	metrics.ProcessedIDs.Set(float64(processed.Len()))

	rc, err := reddit.New(logger.NewPrefixedLogger(log, "reddit"), b.client, reddit.OptionsFromConfig(cfg.Reddit, b.secrets))
	if err != nil {
		return err
	}

	users := storage.NewCache[ports.Redditor](storage.CacheOptions{
		Capacity:      cacheSize,
		TTL:           time.Duration(cfg.Summary.CacheTTLSecs) * time.Second,
		FilePath:      cfg.App.CacheFile,
		FlushInterval: time.Duration(cfg.Summary.CacheFlushSecs) * time.Second,
	})
	defer func() {
		if err := users.Close(); err != nil {
			log.Error("Failed to flush redditor cache", err, slog.String("path", cfg.App.CacheFile))
		}
	}()

	workers := cfg.App.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	pool := jobs.NewPool(logger.NewPrefixedLogger(log, "jobs"), workers, 0)
	defer pool.Stop()

	// A nil *Imgur must not end up in the interface.
	var images ports.ImageHostPort
	if b.secrets.ImgurClientID != "" {
		images = imagehost.New(log, b.client, cfg.Summary.ImgurEndpoint, b.secrets.ImgurClientID)
	} else {
		log.Warn("IMGUR_CLIENT_ID not set, summaries will have no chart")
	}

	poster := slack.NewPoster(logger.NewPrefixedLogger(log, "slack"), b.secrets.SlackBotToken, b.client, "")

	svc := commands.New(commands.Deps{
		Log:       logger.NewPrefixedLogger(log, "commands"),
		Settings:  b.manager,
		Reddit:    rc,
		Store:     store,
		Notes:     usernotes.NewService(logger.NewPrefixedLogger(log, "usernotes"), rc, cfg.Summary.UsernotesPage),
		Chart:     chart.New(),
		Images:    images,
		Pool:      pool,
		Responder: slack.NewResponder(log, b.client),
		Poster:    poster,
		Users:     users,
		Started:   time.Now(),
	})

	mon := monitor.New(logger.NewPrefixedLogger(log, "monitor"), b.manager, rc, store, processed, poster)

	r := router.NewRouter(
		logger.NewPrefixedLogger(log, "http"),
		cfg.Server,
		svc,
		slack.NewVerifier(b.secrets.SlackSigningSecret, b.secrets.SlackVerificationToken),
		b.secrets.AdminToken,
	)

	if cfg.App.DryRun {
		log.Warn("Dry run enabled, no changes will be made on Reddit")
	}
	log.Info("RedditSlacker started", slog.String("subreddit", cfg.Reddit.Subreddit), slog.String("addr", cfg.Server.Addr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.Run(gctx) })
	for _, p := range mon.Pollers() {
		g.Go(func() error { return p.Run(gctx) })
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Stopped with error", err)
		return err
	}

	log.Info("RedditSlacker stopped")
	return nil
}

// ResetTracks zeroes every user's removal and ban counters.
func ResetTracks(ctx context.Context, o Options) (int64, error) {
	b, err := bootstrap(o, false)
	if err != nil {
		return 0, err
	}
	defer b.log.Close()

	store, err := storage.OpenStore(ctx, b.manager.Get().App.Database)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	n, err := store.ResetCounters(ctx)
	if err != nil {
		return 0, err
	}

	b.log.Info("User tracks reset", slog.Int64("users", n))
	return n, nil
}

// PrintUser writes the stored offense row of name to w.
func PrintUser(ctx context.Context, o Options, name string, w io.Writer) error {
	b, err := bootstrap(o, false)
	if err != nil {
		return err
	}
	defer b.log.Close()

	store, err := storage.OpenStore(ctx, b.manager.Get().App.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	u, err := store.UserStatus(ctx, name)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w,
		"user:                %s\nremoved comments:    %d\nremoved submissions: %d\nbans:                %d\ntracked:             %t\npermamuted:          %t\nshadowbanned:        %t\n",
		u.Username, u.RemovedComments, u.RemovedSubmissions, u.Bans, u.Tracked, u.Permamuted, u.Shadowbanned)
	return err
}
