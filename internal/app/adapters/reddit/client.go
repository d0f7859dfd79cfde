package reddit

import (
	"context"
	"errors"
	"fmt"
	"github.com/caarlos0/go-reddit/v3/reddit"
	"golang.org/x/time/rate"
	"log/slog"
	"net/http"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
	"strconv"
	"time"
)

var (
	ErrNotFound    = ports.ErrNotFound
	ErrRateLimited = errors.New("reddit: rate limited")
)

const (
	maxRetries  = 5
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

// Client talks to Reddit on behalf of the moderator account. All requests,
// typed or raw, go through call so they share pacing and 429 handling.
type Client struct {
	log       logger.Logger
	api       *reddit.Client
	limiter   *rate.Limiter
	subreddit string

	backoff    time.Duration
	maxBackoff time.Duration
}

type Options struct {
	Subreddit         string
	UserAgent         string
	RequestsPerSecond float64
	Credentials       reddit.Credentials

	// BaseURL and TokenURL override the Reddit endpoints; empty means the real ones.
	BaseURL  string
	TokenURL string
}

func OptionsFromConfig(cfg config.Reddit, secrets config.Secrets) Options {
	return Options{
		Subreddit:         cfg.Subreddit,
		UserAgent:         cfg.UserAgent,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Credentials: reddit.Credentials{
			ID:       secrets.RedditClientID,
			Secret:   secrets.RedditClientSecret,
			Username: secrets.RedditUsername,
			Password: secrets.RedditPassword,
		},
	}
}

func New(log logger.Logger, httpClient *http.Client, o Options) (*Client, error) {
	// go-reddit wraps the transport of the client it is given.
	hc := *httpClient

	opts := []reddit.Opt{
		reddit.WithHTTPClient(&hc),
		reddit.WithUserAgent(o.UserAgent),
	}
	if o.BaseURL != "" {
		opts = append(opts, reddit.WithBaseURL(o.BaseURL))
	}
	if o.TokenURL != "" {
		opts = append(opts, reddit.WithTokenURL(o.TokenURL))
	}

	api, err := reddit.NewClient(o.Credentials, opts...)
	if err != nil {
		return nil, fmt.Errorf("create reddit client: %w", err)
	}

	rps := o.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Client{
		log:        log,
		api:        api,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		subreddit:  o.Subreddit,
		backoff:    baseBackoff,
		maxBackoff: maxBackoff,
	}, nil
}

func (c *Client) Subreddit() string {
	return c.subreddit
}

func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) (*reddit.Response, error)) error {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		c.log.Trace("Sending Reddit request", slog.String("op", op), slog.Int("attempt", attempt))

		resp, err := fn(ctx)
		if err == nil {
			if resp != nil {
				c.log.Trace("Reddit request succeeded", slog.String("op", op), slog.Int("remaining", resp.Rate.Remaining))
			}
			return nil
		}

		wait, retry := c.retryAfter(err, attempt)
		if !retry {
			return fmt.Errorf("%s: %w", op, classify(err))
		}

		c.log.Warn("Reddit request throttled, backing off",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.String("wait", wait.String()),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(wait):
		}
	}

	c.log.Error("Reddit request failed after max retries", nil, slog.String("op", op), slog.Int("maxRetries", maxRetries))
	return fmt.Errorf("%s: %w after %d attempts", op, ErrRateLimited, maxRetries)
}

// retryAfter reports whether err is worth retrying and how long to wait first.
func (c *Client) retryAfter(err error, attempt int) (time.Duration, bool) {
	var wait time.Duration

	var rateErr *reddit.RateLimitError
	var respErr *reddit.ErrorResponse
	switch {
	case errors.As(err, &rateErr):
		wait = time.Until(rateErr.Rate.Reset)
	case errors.As(err, &respErr) && respErr.Response != nil:
		switch code := respErr.Response.StatusCode; {
		case code == http.StatusTooManyRequests:
			wait = calcWaitDuration(respErr.Response.Header.Get("X-Ratelimit-Reset"))
		case code >= http.StatusInternalServerError:
		default:
			return 0, false
		}
	default:
		return 0, false
	}

	if wait <= 0 {
		wait = time.Duration(attempt) * c.backoff
	}
	if wait > c.maxBackoff {
		wait = c.maxBackoff
	}
	return wait, true
}

// calcWaitDuration reads Reddit's reset header, which counts seconds from now.
func calcWaitDuration(resetHeader string) time.Duration {
	if resetHeader == "" {
		return 0
	}

	secs, err := strconv.ParseFloat(resetHeader, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func classify(err error) error {
	var respErr *reddit.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}
	return err
}
