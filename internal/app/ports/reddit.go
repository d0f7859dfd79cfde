package ports

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a user or thing does not exist on Reddit.
var ErrNotFound = errors.New("reddit: not found")

type Redditor struct {
	Name         string
	LinkKarma    int
	CommentKarma int
	Created      time.Time
}

func (r Redditor) CombinedKarma() int {
	return r.LinkKarma + r.CommentKarma
}

type Comment struct {
	ID        string
	FullID    string
	Author    string
	Subreddit string
	Body      string
	Permalink string
	LinkTitle string
	LinkID    string
	ParentID  string
	Score     int
	Created   time.Time
}

// IsTopLevel reports whether the comment replies directly to a submission.
func (c Comment) IsTopLevel() bool {
	return strings.HasPrefix(c.ParentID, "t3_")
}

type Submission struct {
	ID         string
	FullID     string
	Author     string
	Title      string
	Body       string
	Permalink  string
	FlairText  string
	Created    time.Time
	ModReports []string
}

func (s Submission) Flaired() bool {
	return strings.TrimSpace(s.FlairText) != ""
}

type ModAction struct {
	ID           string
	Action       string
	Moderator    string
	TargetAuthor string
	TargetID     string
	Created      time.Time
}

type ModmailConversation struct {
	ID          string
	Subject     string
	Participant string
}

type RedditPort interface {
	User(ctx context.Context, name string) (*Redditor, error)
	UserComments(ctx context.Context, name string, limit int) ([]Comment, error)

	NewComments(ctx context.Context, limit int) ([]Comment, error)
	NewSubmissions(ctx context.Context, limit int) ([]Submission, error)
	Submissions(ctx context.Context, fullIDs []string) ([]Submission, error)
	ModLog(ctx context.Context, limit int) ([]ModAction, error)
	ModmailConversations(ctx context.Context, limit int) ([]ModmailConversation, error)

	Remove(ctx context.Context, fullID string) error
	Approve(ctx context.Context, fullID string) error
	Report(ctx context.Context, fullID, reason string) error
	BanUser(ctx context.Context, name, reason, note string) error
	ReplySticky(ctx context.Context, parentFullID, text string) (string, error)
	DeleteComment(ctx context.Context, fullID string) error
	MuteModmail(ctx context.Context, conversationID string) error

	WikiPage(ctx context.Context, page string) (string, error)
	EditWikiPage(ctx context.Context, page, content, reason string) error
}
