package config

import (
	"errors"
	"fmt"
	"redditslacker/pkg/logger"
	"strings"
)

const minIntervalSecs = 10

func (m *Manager) validate(cfg *Config) error {
	// app
	if cfg.App.LogLevel != "" && !logger.ValidLevel(cfg.App.LogLevel) {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error, fatal; got %s", cfg.App.LogLevel)
	}
	if cfg.App.GinMode != "" && cfg.App.GinMode != "debug" && cfg.App.GinMode != "release" && cfg.App.GinMode != "test" {
		return fmt.Errorf("app.gin_mode must be debug, release or test; got %s", cfg.App.GinMode)
	}
	if cfg.App.Database == "" {
		return errors.New("app.database is required")
	}
	if cfg.App.ProcessedLog == "" {
		return errors.New("app.processed_log is required")
	}
	if cfg.App.Workers < 1 || cfg.App.Workers > 64 {
		return errors.New("app.workers must be [1,64]")
	}

	// proxy
	if cfg.Proxy != nil && cfg.Proxy.Address != "" && (cfg.Proxy.Port < 1 || cfg.Proxy.Port > 65535) {
		return errors.New("proxy.port must be [1,65535]")
	}

	// server
	if cfg.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if (cfg.Server.CertFile == "") != (cfg.Server.KeyFile == "") {
		return errors.New("server.cert_file and server.key_file must both be set or both be empty")
	}

	// reddit
	if strings.TrimSpace(cfg.Reddit.Subreddit) == "" {
		return errors.New("reddit.subreddit is required")
	}
	if cfg.Reddit.UserAgent == "" {
		return errors.New("reddit.user_agent is required")
	}
	if cfg.Reddit.RequestsPerSecond <= 0 {
		return errors.New("reddit.requests_per_second must be > 0")
	}
	if cfg.Reddit.TimeoutSecs < 1 {
		return errors.New("reddit.timeout_secs must be >= 1")
	}

	// slack
	if cfg.Slack.Moderators == nil {
		cfg.Slack.Moderators = []string{}
	}
	if cfg.Slack.FeedChannel == "" || cfg.Slack.TrackingChannel == "" || cfg.Slack.BanRequestChannel == "" {
		return errors.New("slack.feed_channel, slack.tracking_channel and slack.ban_request_channel are required")
	}

	// monitor
	pollers := map[string]Poller{
		"comments":  cfg.Monitor.Comments,
		"modlog":    cfg.Monitor.ModLog,
		"modmail":   cfg.Monitor.Modmail,
		"unflaired": cfg.Monitor.Unflaired,
	}
	for name, p := range pollers {
		if p.IntervalSecs < minIntervalSecs {
			return fmt.Errorf("monitor.%s.interval_secs must be >= %d", name, minIntervalSecs)
		}
		if p.Limit < 1 || p.Limit > 100 {
			return fmt.Errorf("monitor.%s.limit must be [1,100]", name)
		}
	}

	// thresholds
	thresholds := map[string]Threshold{
		"comments":    cfg.Thresholds.Comments,
		"submissions": cfg.Thresholds.Submissions,
		"bans":        cfg.Thresholds.Bans,
	}
	for name, th := range thresholds {
		if th.Warning < 0 || th.High < 0 {
			return fmt.Errorf("thresholds.%s must be non-negative", name)
		}
		if th.High < th.Warning {
			return fmt.Errorf("thresholds.%s.high must be >= thresholds.%s.warning", name, name)
		}
	}

	// shadowban
	if cfg.Shadowban.WikiPage == "" {
		return errors.New("shadowban.wiki_page is required")
	}

	// summary
	if cfg.Summary.MaxLimit < 1 || cfg.Summary.MaxLimit > 1000 {
		return errors.New("summary.max_limit must be [1,1000]")
	}
	if cfg.Summary.Limit < 1 || cfg.Summary.Limit > cfg.Summary.MaxLimit {
		return errors.New("summary.limit must be [1,summary.max_limit]")
	}
	for _, l := range cfg.Summary.ChooseLimits {
		if l < 1 || l > cfg.Summary.MaxLimit {
			return errors.New("summary.choose_limits must be [1,summary.max_limit]")
		}
	}
	if cfg.Summary.CacheTTLSecs < 0 {
		return errors.New("summary.cache_ttl_secs must be >= 0")
	}
	if cfg.Summary.CacheFlushSecs < 0 {
		return errors.New("summary.cache_flush_secs must be >= 0")
	}
	if cfg.Summary.UsernotesPage == "" {
		return errors.New("summary.usernotes_page is required")
	}
	if cfg.Summary.ImgurEndpoint == "" {
		return errors.New("summary.imgur_endpoint is required")
	}

	// unflaired
	if cfg.Unflaired.GraceSecs < 1 {
		return errors.New("unflaired.grace_secs must be >= 1")
	}
	if cfg.Unflaired.MaxAgeSecs <= cfg.Unflaired.GraceSecs {
		return errors.New("unflaired.max_age_secs must be > unflaired.grace_secs")
	}

	return nil
}
