package slack

import (
	"context"
	"fmt"
	"github.com/slack-go/slack"
	"log/slog"
	"net/http"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
)

// Poster sends bot messages with chat.postMessage.
type Poster struct {
	log logger.Logger
	api *slack.Client
}

// NewPoster builds a poster. apiURL overrides the Slack Web API base URL and
// must end with a slash; empty means the real one.
func NewPoster(log logger.Logger, token string, httpClient *http.Client, apiURL string) *Poster {
	opts := []slack.Option{slack.OptionHTTPClient(httpClient)}
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}

	return &Poster{log: log, api: slack.New(token, opts...)}
}

func (p *Poster) Post(ctx context.Context, channel string, msg ports.Message) error {
	opts := []slack.MsgOption{
		slack.MsgOptionAsUser(false),
		slack.MsgOptionDisableLinkUnfurl(),
	}
	if msg.Text != "" {
		opts = append(opts, slack.MsgOptionText(msg.Text, false))
	}
	if len(msg.Attachments) > 0 {
		opts = append(opts, slack.MsgOptionAttachments(toAttachments(msg.Attachments)...))
	}

	_, ts, err := p.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return fmt.Errorf("post to %s: %w", channel, err)
	}

	p.log.Debug("Posted Slack message", slog.String("channel", channel), slog.String("ts", ts))
	return nil
}
