package reddit

import (
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"redditslacker/pkg/logger"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"token","token_type":"bearer","expires_in":3600}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(logger.New(logger.Options{Output: io.Discard, Level: "error"}), srv.Client(), Options{
		Subreddit:         "explainlikeimfive",
		UserAgent:         "test:redditslacker:1.0",
		RequestsPerSecond: 1000,
		BaseURL:           srv.URL + "/",
		TokenURL:          srv.URL + "/api/v1/access_token",
	})
	require.NoError(t, err)

	c.backoff = time.Millisecond
	c.maxBackoff = 5 * time.Millisecond
	return c
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestClient_User(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/user/spez/about", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		writeJSON(w, `{"kind":"t2","data":{"id":"1w72","name":"spez","created_utc":1118030400,"link_karma":100,"comment_karma":23}}`)
	})
	mux.HandleFunc("/user/ghost/about", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found","error":404}`, http.StatusNotFound)
	})

	c := newTestClient(t, mux)

	u, err := c.User(context.Background(), "spez")
	require.NoError(t, err)
	assert.Equal(t, "spez", u.Name)
	assert.Equal(t, 123, u.CombinedKarma())
	assert.Equal(t, int64(1118030400), u.Created.Unix())

	_, err = c.User(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_RetriesOnTooManyRequests(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/user/spez/about", func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, `{"kind":"t2","data":{"name":"spez"}}`)
	})

	c := newTestClient(t, mux)

	u, err := c.User(context.Background(), "spez")
	require.NoError(t, err)
	assert.Equal(t, "spez", u.Name)
	assert.EqualValues(t, 3, hits.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/user/spez/about", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c := newTestClient(t, mux)

	_, err := c.User(context.Background(), "spez")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, maxRetries, hits.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/remove", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	c := newTestClient(t, mux)

	err := c.Remove(context.Background(), "t1_abc")
	assert.Error(t, err)
	assert.EqualValues(t, 1, hits.Load())
}

func TestClient_UserCommentsPaginates(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/user/spez/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "new", r.URL.Query().Get("sort"))
		if r.URL.Query().Get("after") == "" {
			writeJSON(w, `{"kind":"Listing","data":{"after":"t1_b","children":[
				{"kind":"t1","data":{"id":"a","name":"t1_a","subreddit":"pics","body":"one","score":3}},
				{"kind":"t1","data":{"id":"b","name":"t1_b","subreddit":"aww","body":"two","score":-1}}]}}`)
			return
		}
		writeJSON(w, `{"kind":"Listing","data":{"after":null,"children":[
			{"kind":"t1","data":{"id":"c","name":"t1_c","subreddit":"pics","body":"three","score":7}}]}}`)
	})

	c := newTestClient(t, mux)

	got, err := c.UserComments(context.Background(), "spez", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "t1_a", got[0].FullID)
	assert.Equal(t, "aww", got[1].Subreddit)
	assert.Equal(t, 7, got[2].Score)
}

func TestClient_NewSubmissions(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/r/explainlikeimfive/new", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		writeJSON(w, `{"kind":"Listing","data":{"children":[
			{"kind":"t3","data":{"id":"x1","name":"t3_x1","author":"op","title":"ELI5: tides","link_flair_text":"Physics","created_utc":1700000000}},
			{"kind":"t3","data":{"id":"x2","name":"t3_x2","author":"op2","title":"ELI5: rain","link_flair_text":null,"mod_reports":[["spam","mod1"]]}}]}}`)
	})

	c := newTestClient(t, mux)

	got, err := c.NewSubmissions(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Flaired())
	assert.False(t, got[1].Flaired())
	assert.Equal(t, []string{"spam"}, got[1].ModReports)
	assert.Equal(t, int64(1700000000), got[0].Created.Unix())
}

func TestClient_Submissions(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "t3_a,t3_b", r.URL.Query().Get("id"))
		writeJSON(w, `{"kind":"Listing","data":{"children":[
			{"kind":"t3","data":{"id":"a","name":"t3_a","link_flair_text":"Biology"}},
			{"kind":"t3","data":{"id":"b","name":"t3_b"}}]}}`)
	})

	c := newTestClient(t, mux)

	got, err := c.Submissions(context.Background(), []string{"t3_a", "t3_b"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Biology", got[0].FlairText)

	none, err := c.Submissions(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClient_ModLog(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/r/explainlikeimfive/about/log", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"kind":"Listing","data":{"children":[
			{"kind":"modaction","data":{"id":"ModAction_1","action":"removecomment","mod":"mod1","target_author":"troll","target_fullname":"t1_z","created_utc":1700000000}}]}}`)
	})

	c := newTestClient(t, mux)

	got, err := c.ModLog(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "removecomment", got[0].Action)
	assert.Equal(t, "troll", got[0].TargetAuthor)
	assert.Equal(t, "t1_z", got[0].TargetID)
}

func TestClient_Modmail(t *testing.T) {
	t.Parallel()

	var muted atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/mod/conversations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "explainlikeimfive", r.URL.Query().Get("entity"))
		writeJSON(w, `{"conversationIds":["b2","a1"],"conversations":{
			"a1":{"id":"a1","subject":"old","participant":{"name":"alice"}},
			"b2":{"id":"b2","subject":"new","participant":{"name":"bob"}}}}`)
	})
	mux.HandleFunc("/api/mod/conversations/b2/mute", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		muted.Store(true)
		writeJSON(w, `{}`)
	})

	c := newTestClient(t, mux)

	got, err := c.ModmailConversations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].Participant)
	assert.Equal(t, "a1", got[1].ID)

	require.NoError(t, c.MuteModmail(context.Background(), "b2"))
	assert.True(t, muted.Load())
}

func TestClient_ReplySticky(t *testing.T) {
	t.Parallel()

	var stickied atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/api/comment", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		assert.Equal(t, "t3_abc", r.PostForm.Get("parent"))
		writeJSON(w, `{"id":"r1","name":"t1_r1","body":"please flair"}`)
	})
	mux.HandleFunc("/api/distinguish", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		stickied.Store(fmt.Sprintf("%s/%s", r.PostForm.Get("id"), r.PostForm.Get("sticky")))
		writeJSON(w, `{}`)
	})

	c := newTestClient(t, mux)

	id, err := c.ReplySticky(context.Background(), "t3_abc", "please flair")
	require.NoError(t, err)
	assert.Equal(t, "t1_r1", id)
	assert.Equal(t, "t1_r1/true", stickied.Load())
}

func TestClient_Wiki(t *testing.T) {
	t.Parallel()

	var edited atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/r/explainlikeimfive/wiki/config/automoderator", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"kind":"wikipage","data":{"content_md":"# shadowbans\nauthor: [\"a\"]\n#end shadowbans"}}`)
	})
	mux.HandleFunc("/r/explainlikeimfive/api/wiki/edit", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		edited.Store(r.PostForm.Get("page") + "|" + r.PostForm.Get("reason"))
		writeJSON(w, `{}`)
	})

	c := newTestClient(t, mux)

	content, err := c.WikiPage(context.Background(), "config/automoderator")
	require.NoError(t, err)
	assert.Contains(t, content, "#end shadowbans")

	require.NoError(t, c.EditWikiPage(context.Background(), "config/automoderator", content, "shadowban"))
	assert.Equal(t, "config/automoderator|shadowban", edited.Load())
}

func TestCalcWaitDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"abc", 0},
		{"-3", 0},
		{"2", 2 * time.Second},
		{"1.5", 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, calcWaitDuration(tt.header))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "spam", n: 100, want: "spam"},
		{name: "ascii", in: "abcdef", n: 3, want: "abc"},
		{name: "multibyte", in: "привет", n: 4, want: "прив"},
		{name: "mixed", in: "a€b€c", n: 2, want: "a€"},
		{name: "exact", in: "日本語", n: 3, want: "日本語"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
