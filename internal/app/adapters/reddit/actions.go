package reddit

import (
	"context"
	"fmt"
	"github.com/caarlos0/go-reddit/v3/reddit"
	"net/url"
	"unicode/utf8"
)

const (
	maxReportReason = 100
	maxWikiReason   = 256
)

func (c *Client) Remove(ctx context.Context, fullID string) error {
	return c.call(ctx, "remove "+fullID, func(ctx context.Context) (*reddit.Response, error) {
		return c.api.Moderation.Remove(ctx, fullID)
	})
}

func (c *Client) Approve(ctx context.Context, fullID string) error {
	return c.call(ctx, "approve "+fullID, func(ctx context.Context) (*reddit.Response, error) {
		return c.api.Moderation.Approve(ctx, fullID)
	})
}

func (c *Client) Report(ctx context.Context, fullID, reason string) error {
	reason = truncate(reason, maxReportReason)
	return c.call(ctx, "report "+fullID, func(ctx context.Context) (*reddit.Response, error) {
		return c.api.Comment.Report(ctx, fullID, reason)
	})
}

// BanUser bans name from the subreddit permanently.
func (c *Client) BanUser(ctx context.Context, name, reason, note string) error {
	return c.call(ctx, "ban "+name, func(ctx context.Context) (*reddit.Response, error) {
		return c.api.Moderation.Ban(ctx, c.subreddit, name, &reddit.BanConfig{
			Reason:  reason,
			ModNote: note,
		})
	})
}

// ReplySticky posts text under parentFullID, then distinguishes and stickies
// it. It returns the full id of the new comment.
func (c *Client) ReplySticky(ctx context.Context, parentFullID, text string) (string, error) {
	var reply *reddit.Comment
	err := c.call(ctx, "reply to "+parentFullID, func(ctx context.Context) (*reddit.Response, error) {
		var resp *reddit.Response
		var err error
		reply, resp, err = c.api.Comment.Submit(ctx, parentFullID, text)
		return resp, err
	})
	if err != nil {
		return "", err
	}
	if reply == nil || reply.FullID == "" {
		return "", fmt.Errorf("reply to %s: empty comment in response", parentFullID)
	}

	err = c.call(ctx, "sticky "+reply.FullID, func(ctx context.Context) (*reddit.Response, error) {
		return c.api.Moderation.DistinguishAndSticky(ctx, reply.FullID)
	})
	if err != nil {
		return reply.FullID, err
	}
	return reply.FullID, nil
}

func (c *Client) DeleteComment(ctx context.Context, fullID string) error {
	return c.call(ctx, "delete "+fullID, func(ctx context.Context) (*reddit.Response, error) {
		return c.api.Comment.Delete(ctx, fullID)
	})
}

func (c *Client) MuteModmail(ctx context.Context, conversationID string) error {
	return c.postForm(ctx, "mute modmail "+conversationID,
		fmt.Sprintf("api/mod/conversations/%s/mute", url.PathEscape(conversationID)), url.Values{})
}

func (c *Client) WikiPage(ctx context.Context, page string) (string, error) {
	var wp *reddit.WikiPage
	err := c.call(ctx, "get wiki page "+page, func(ctx context.Context) (*reddit.Response, error) {
		var resp *reddit.Response
		var err error
		wp, resp, err = c.api.Wiki.Page(ctx, c.subreddit, page)
		return resp, err
	})
	if err != nil {
		return "", err
	}
	if wp == nil {
		return "", fmt.Errorf("get wiki page %s: %w", page, ErrNotFound)
	}
	return wp.Content, nil
}

func (c *Client) EditWikiPage(ctx context.Context, page, content, reason string) error {
	reason = truncate(reason, maxWikiReason)
	return c.call(ctx, "edit wiki page "+page, func(ctx context.Context) (*reddit.Response, error) {
		return c.api.Wiki.Edit(ctx, &reddit.WikiPageEditRequest{
			Subreddit: c.subreddit,
			Page:      page,
			Content:   content,
			Reason:    reason,
		})
	})
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
