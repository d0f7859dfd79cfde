package reddit

import (
	"context"
	"fmt"
	"github.com/caarlos0/go-reddit/v3/reddit"
	"redditslacker/internal/app/ports"
	"time"
)

const pageSize = 100

func (c *Client) User(ctx context.Context, name string) (*ports.Redditor, error) {
	var u *reddit.User
	err := c.call(ctx, "get user", func(ctx context.Context) (*reddit.Response, error) {
		var resp *reddit.Response
		var err error
		u, resp, err = c.api.User.Get(ctx, name)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	if u == nil || u.Name == "" {
		return nil, fmt.Errorf("get user %s: %w", name, ErrNotFound)
	}

	r := &ports.Redditor{
		Name:         u.Name,
		LinkKarma:    u.PostKarma,
		CommentKarma: u.CommentKarma,
	}
	if u.Created != nil {
		r.Created = u.Created.Time
	}
	return r, nil
}

// UserComments pages through the newest comments of a user until limit is
// reached or the history runs out.
func (c *Client) UserComments(ctx context.Context, name string, limit int) ([]ports.Comment, error) {
	out := make([]ports.Comment, 0, limit)
	after := ""

	for len(out) < limit {
		opts := &reddit.ListUserOverviewOptions{
			ListOptions: reddit.ListOptions{Limit: min(pageSize, limit-len(out)), After: after},
			Sort:        "new",
		}

		var page []*reddit.Comment
		var next string
		err := c.call(ctx, "get user comments", func(ctx context.Context) (*reddit.Response, error) {
			var resp *reddit.Response
			var err error
			page, resp, err = c.api.User.CommentsOf(ctx, name, opts)
			if resp != nil {
				next = resp.After
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, cm := range page {
			out = append(out, fromComment(cm))
		}
		if len(page) == 0 || next == "" {
			break
		}
		after = next
	}

	return out, nil
}

func fromComment(cm *reddit.Comment) ports.Comment {
	out := ports.Comment{
		ID:        cm.ID,
		FullID:    cm.FullID,
		Author:    cm.Author,
		Subreddit: cm.SubredditName,
		Body:      cm.Body,
		Permalink: absolute(cm.Permalink),
		LinkTitle: cm.PostTitle,
		LinkID:    cm.PostID,
		ParentID:  cm.ParentID,
		Score:     cm.Score,
	}
	if cm.Created != nil {
		out.Created = cm.Created.Time
	}
	return out
}

func unixTime(v float64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(v), 0)
}
