package reddit

import (
	"context"
	"fmt"
	"github.com/caarlos0/go-reddit/v3/reddit"
	"net/http"
	"net/url"
	"redditslacker/internal/app/ports"
	"sort"
	"strconv"
	"strings"
)

// Raw listings are used where go-reddit's typed models drop fields we need
// (link flair, mod reports) or the endpoint has no typed wrapper.
type listing[T any] struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data T      `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type rawComment struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	Body       string  `json:"body"`
	Permalink  string  `json:"permalink"`
	LinkTitle  string  `json:"link_title"`
	LinkID     string  `json:"link_id"`
	ParentID   string  `json:"parent_id"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}

type rawSubmission struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Author        string     `json:"author"`
	Title         string     `json:"title"`
	SelfText      string     `json:"selftext"`
	Permalink     string     `json:"permalink"`
	LinkFlairText string     `json:"link_flair_text"`
	CreatedUTC    float64    `json:"created_utc"`
	ModReports    [][]string `json:"mod_reports"`
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, v any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	return c.call(ctx, op, func(ctx context.Context) (*reddit.Response, error) {
		req, err := c.api.NewRequest(http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		return c.api.Do(ctx, req, v)
	})
}

func (c *Client) postForm(ctx context.Context, op, path string, form url.Values) error {
	return c.call(ctx, op, func(ctx context.Context) (*reddit.Response, error) {
		req, err := c.api.NewRequest(http.MethodPost, path, form)
		if err != nil {
			return nil, err
		}
		return c.api.Do(ctx, req, nil)
	})
}

func limitQuery(limit int) url.Values {
	return url.Values{"limit": {strconv.Itoa(limit)}, "raw_json": {"1"}}
}

func (c *Client) NewComments(ctx context.Context, limit int) ([]ports.Comment, error) {
	var l listing[rawComment]
	if err := c.getJSON(ctx, "get new comments", fmt.Sprintf("r/%s/comments", c.subreddit), limitQuery(limit), &l); err != nil {
		return nil, err
	}

	out := make([]ports.Comment, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		out = append(out, ch.Data.toComment())
	}
	return out, nil
}

func (c *Client) NewSubmissions(ctx context.Context, limit int) ([]ports.Submission, error) {
	var l listing[rawSubmission]
	if err := c.getJSON(ctx, "get new submissions", fmt.Sprintf("r/%s/new", c.subreddit), limitQuery(limit), &l); err != nil {
		return nil, err
	}
	return submissions(l), nil
}

// Submissions looks up the current state of the given t3_ ids.
func (c *Client) Submissions(ctx context.Context, fullIDs []string) ([]ports.Submission, error) {
	if len(fullIDs) == 0 {
		return nil, nil
	}

	out := make([]ports.Submission, 0, len(fullIDs))
	for start := 0; start < len(fullIDs); start += pageSize {
		end := min(start+pageSize, len(fullIDs))

		var l listing[rawSubmission]
		q := url.Values{"id": {strings.Join(fullIDs[start:end], ",")}, "raw_json": {"1"}}
		if err := c.getJSON(ctx, "get submissions info", "api/info", q, &l); err != nil {
			return nil, err
		}
		out = append(out, submissions(l)...)
	}
	return out, nil
}

func submissions(l listing[rawSubmission]) []ports.Submission {
	out := make([]ports.Submission, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		if ch.Kind != "" && ch.Kind != "t3" {
			continue
		}
		out = append(out, ch.Data.toSubmission())
	}
	return out
}

func (c *Client) ModLog(ctx context.Context, limit int) ([]ports.ModAction, error) {
	var actions []*reddit.ModAction
	err := c.call(ctx, "get mod log", func(ctx context.Context) (*reddit.Response, error) {
		var resp *reddit.Response
		var err error
		actions, resp, err = c.api.Moderation.Actions(ctx, c.subreddit, &reddit.ListModActionOptions{
			ListOptions: reddit.ListOptions{Limit: limit},
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]ports.ModAction, 0, len(actions))
	for _, a := range actions {
		ma := ports.ModAction{
			ID:           a.ID,
			Action:       a.Action,
			Moderator:    a.Moderator,
			TargetAuthor: a.TargetAuthor,
			TargetID:     a.TargetID,
		}
		if a.Created != nil {
			ma.Created = a.Created.Time
		}
		out = append(out, ma)
	}
	return out, nil
}

type modmailResponse struct {
	Conversations map[string]struct {
		ID          string `json:"id"`
		Subject     string `json:"subject"`
		Participant struct {
			Name string `json:"name"`
		} `json:"participant"`
	} `json:"conversations"`
	ConversationIDs []string `json:"conversationIds"`
}

// ModmailConversations returns the most recent conversations, newest first.
func (c *Client) ModmailConversations(ctx context.Context, limit int) ([]ports.ModmailConversation, error) {
	q := url.Values{
		"entity": {c.subreddit},
		"limit":  {strconv.Itoa(limit)},
		"sort":   {"recent"},
		"state":  {"all"},
	}

	var resp modmailResponse
	if err := c.getJSON(ctx, "get modmail", "api/mod/conversations", q, &resp); err != nil {
		return nil, err
	}

	ids := resp.ConversationIDs
	if len(ids) == 0 {
		for id := range resp.Conversations {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	out := make([]ports.ModmailConversation, 0, len(ids))
	for _, id := range ids {
		conv, ok := resp.Conversations[id]
		if !ok {
			continue
		}
		if conv.ID == "" {
			conv.ID = id
		}
		out = append(out, ports.ModmailConversation{
			ID:          conv.ID,
			Subject:     conv.Subject,
			Participant: conv.Participant.Name,
		})
	}
	return out, nil
}

func (r rawComment) toComment() ports.Comment {
	return ports.Comment{
		ID:        r.ID,
		FullID:    r.Name,
		Author:    r.Author,
		Subreddit: r.Subreddit,
		Body:      r.Body,
		Permalink: absolute(r.Permalink),
		LinkTitle: r.LinkTitle,
		LinkID:    r.LinkID,
		ParentID:  r.ParentID,
		Score:     r.Score,
		Created:   unixTime(r.CreatedUTC),
	}
}

func (r rawSubmission) toSubmission() ports.Submission {
	s := ports.Submission{
		ID:        r.ID,
		FullID:    r.Name,
		Author:    r.Author,
		Title:     r.Title,
		Body:      r.SelfText,
		Permalink: absolute(r.Permalink),
		FlairText: r.LinkFlairText,
		Created:   unixTime(r.CreatedUTC),
	}
	for _, rep := range r.ModReports {
		if len(rep) > 0 && rep[0] != "" {
			s.ModReports = append(s.ModReports, rep[0])
		}
	}
	return s
}

// absolute turns the site-relative permalinks Reddit returns into full URLs.
func absolute(permalink string) string {
	if strings.HasPrefix(permalink, "/") {
		return "https://www.reddit.com" + permalink
	}
	return permalink
}
