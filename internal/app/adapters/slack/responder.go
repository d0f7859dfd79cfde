package slack

import (
	"context"
	"fmt"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/slack-go/slack"
	"net/http"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
	"time"
)

// Responder answers slash commands and button presses through their
// response_url, retrying transient failures.
type Responder struct {
	client *http.Client
}

func NewResponder(log logger.Logger, httpClient *http.Client) *Responder {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = logger.Leveled(log)

	return &Responder{client: rc.StandardClient()}
}

func (r *Responder) Respond(ctx context.Context, responseURL string, msg ports.Message) error {
	if responseURL == "" {
		return fmt.Errorf("respond: empty response_url")
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, responseURL, r.client, toWebhook(msg)); err != nil {
		return fmt.Errorf("respond: %w", err)
	}
	return nil
}
