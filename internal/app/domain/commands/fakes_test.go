package commands

import (
	"context"
	"errors"
	"fmt"
	"github.com/stretchr/testify/require"
	"io"
	"path/filepath"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/internal/app/infrastructure/storage"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeReddit struct {
	mu sync.Mutex

	users    map[string]ports.Redditor
	comments []ports.Comment
	wiki     string

	limits   []int
	approved []string
	removed  []string
	banned   []string
	edits    []string
}

func (f *fakeReddit) User(_ context.Context, name string) (*ports.Redditor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.users[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", name, ports.ErrNotFound)
	}
	return &r, nil
}

func (f *fakeReddit) UserComments(_ context.Context, _ string, limit int) ([]ports.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.limits = append(f.limits, limit)
	return f.comments, nil
}

func (f *fakeReddit) NewComments(context.Context, int) ([]ports.Comment, error) { return nil, nil }
func (f *fakeReddit) NewSubmissions(context.Context, int) ([]ports.Submission, error) {
	return nil, nil
}
func (f *fakeReddit) Submissions(context.Context, []string) ([]ports.Submission, error) {
	return nil, nil
}
func (f *fakeReddit) ModLog(context.Context, int) ([]ports.ModAction, error) { return nil, nil }
func (f *fakeReddit) ModmailConversations(context.Context, int) ([]ports.ModmailConversation, error) {
	return nil, nil
}

func (f *fakeReddit) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeReddit) Approve(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, id)
	return nil
}

func (f *fakeReddit) Report(context.Context, string, string) error { return nil }

func (f *fakeReddit) BanUser(_ context.Context, name, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banned = append(f.banned, name)
	return nil
}

func (f *fakeReddit) ReplySticky(context.Context, string, string) (string, error) { return "", nil }
func (f *fakeReddit) DeleteComment(context.Context, string) error                   { return nil }
func (f *fakeReddit) MuteModmail(context.Context, string) error                     { return nil }

func (f *fakeReddit) WikiPage(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wiki, nil
}

func (f *fakeReddit) EditWikiPage(_ context.Context, _, content, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wiki = content
	f.edits = append(f.edits, reason)
	return nil
}

type fakeNotes struct {
	mu    sync.Mutex
	added []string
}

func (f *fakeNotes) LatestNote(context.Context, string) (string, error) {
	return "Spams links", nil
}

func (f *fakeNotes) AddNote(_ context.Context, user, text, _, warning, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, user+"|"+warning+"|"+text)
	return nil
}

type fakeChart struct{}

func (fakeChart) Render(ports.SummarySeries) ([]byte, error) { return []byte("png"), nil }

type fakeImages struct{}

func (fakeImages) Upload(_ context.Context, name string, _ []byte) (string, error) {
	return "https://i.example.com/" + name, nil
}

// inlinePool runs tasks synchronously so replies are visible as soon as the
// handler returns.
type inlinePool struct{ full bool }

func (p inlinePool) Submit(task func()) error {
	if p.full {
		return errors.New("queue full")
	}
	task()
	return nil
}

type fakeResponder struct {
	mu   sync.Mutex
	urls []string
	msgs []ports.Message
}

func (f *fakeResponder) Respond(_ context.Context, url string, msg ports.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeResponder) last(t *testing.T) ports.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.msgs)
	return f.msgs[len(f.msgs)-1]
}

type fakePoster struct {
	mu       sync.Mutex
	channels []string
	msgs     []ports.Message
}

func (f *fakePoster) Post(_ context.Context, channel string, msg ports.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channel)
	f.msgs = append(f.msgs, msg)
	return nil
}

type harness struct {
	svc       *Service
	reddit    *fakeReddit
	store     *storage.Store
	settings  *config.Manager
	notes     *fakeNotes
	responder *fakeResponder
	poster    *fakePoster
	users     *storage.Cache[ports.Redditor]
}

func newHarness(t *testing.T, pool ports.PoolPort) *harness {
	t.Helper()

	dir := t.TempDir()

	settings, err := config.New(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	require.NoError(t, settings.Update(func(c *config.Config) {
		c.Slack.Moderators = []string{"boss"}
		c.Shadowban.Enabled = true
	}))

	store, err := storage.OpenStore(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		reddit: &fakeReddit{
			users: map[string]ports.Redditor{
				"bob": {Name: "Bob", LinkKarma: 10, CommentKarma: 90, Created: time.Date(2015, 3, 1, 12, 0, 0, 0, time.UTC)},
			},
			comments: []ports.Comment{
				{Subreddit: "explainlikeimfive", Body: "short", Score: 3, Created: time.Unix(1_700_000_200, 0)},
				{Subreddit: "explainlikeimfive", Body: "short", Score: 5, Created: time.Unix(1_700_000_100, 0)},
			},
			wiki: "# shadowbans\nauthor: [\"someone\"]\n#end shadowbans\n",
		},
		store:     store,
		settings:  settings,
		notes:     &fakeNotes{},
		responder: &fakeResponder{},
		poster:    &fakePoster{},
		users:     storage.NewCache[ports.Redditor](storage.CacheOptions{Capacity: 16, TTL: time.Minute}),
	}

	h.svc = New(Deps{
		Log:       logger.New(logger.Options{Output: io.Discard, Level: "error"}),
		Settings:  settings,
		Reddit:    h.reddit,
		Store:     store,
		Notes:     h.notes,
		Chart:     fakeChart{},
		Images:    fakeImages{},
		Pool:      pool,
		Responder: h.responder,
		Poster:    h.poster,
		Users:     h.users,
	})
	return h
}
