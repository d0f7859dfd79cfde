package http

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
	"strings"
	"sync"
	"testing"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type headerVerifier struct{}

func (headerVerifier) Verify(header http.Header, body []byte) error {
	if header.Get("X-Test-Signature") != "ok" || len(body) == 0 {
		return errors.New("bad signature")
	}
	return nil
}

type fakeService struct {
	mu       sync.Mutex
	commands []ports.SlashCommand
	actions  []ports.ButtonAction
}

func (f *fakeService) HandleCommand(_ context.Context, cmd ports.SlashCommand) ports.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return ports.Message{Text: "hello " + cmd.Text, ResponseType: ports.ResponseEphemeral}
}

func (f *fakeService) HandleAction(_ context.Context, act ports.ButtonAction) ports.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, act)
	return ports.Message{Text: "pressed " + act.Value, ReplaceOriginal: true}
}

func newTestRouter(adminToken string) (*Router, *fakeService) {
	svc := &fakeService{}
	log := logger.New(logger.Options{Output: io.Discard, Level: "error"})
	return NewRouter(log, config.Server{Addr: ":0"}, svc, headerVerifier{}, adminToken), svc
}

func slackRequest(path string, form url.Values, signed bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signed {
		req.Header.Set("X-Test-Signature", "ok")
	}
	return req
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter("")
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouter_Command(t *testing.T) {
	t.Parallel()

	form := url.Values{
		"command":      {"/user"},
		"text":         {" bob "},
		"user_name":    {"alice"},
		"response_url": {"https://hooks.slack.com/x"},
	}

	tests := []struct {
		name   string
		signed bool
		code   int
	}{
		{name: "signed", signed: true, code: http.StatusOK},
		{name: "unsigned", signed: false, code: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, svc := newTestRouter("")
			w := httptest.NewRecorder()
			r.Handler().ServeHTTP(w, slackRequest("/slack/commands", form, tt.signed))

			require.Equal(t, tt.code, w.Code)
			if tt.code != http.StatusOK {
				assert.Empty(t, svc.commands)
				return
			}

			require.Len(t, svc.commands, 1)
			assert.Equal(t, "/user", svc.commands[0].Command)
			assert.Equal(t, "bob", svc.commands[0].Text)
			assert.Equal(t, "alice", svc.commands[0].UserName)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "hello bob", body["text"])
			assert.Equal(t, "ephemeral", body["response_type"])
		})
	}
}

func TestRouter_Action(t *testing.T) {
	t.Parallel()

	payload := `{
		"type": "interactive_message",
		"callback_id": "tlcfeed",
		"actions": [{"name": "approve", "type": "button", "value": "approve_c1"}],
		"user": {"id": "U1", "name": "alice"},
		"channel": {"id": "C1"},
		"response_url": "https://hooks.slack.com/y",
		"original_message": {"text": "", "attachments": [{"title": "ELI5: tides", "text": "moon"}]}
	}`

	r, svc := newTestRouter("")
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, slackRequest("/slack/actions", url.Values{"payload": {payload}}, true))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.actions, 1)

	act := svc.actions[0]
	assert.Equal(t, "tlcfeed", act.CallbackID)
	assert.Equal(t, "approve_c1", act.Value)
	assert.Equal(t, "alice", act.UserName)
	require.Len(t, act.OriginalMessage.Attachments, 1)
	assert.Equal(t, "ELI5: tides", act.OriginalMessage.Attachments[0].Title)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pressed approve_c1", body["text"])
	assert.Equal(t, true, body["replace_original"])
}

func TestRouter_ActionBadPayload(t *testing.T) {
	t.Parallel()

	r, svc := newTestRouter("")
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, slackRequest("/slack/actions", url.Values{"payload": {"{nope"}}, true))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.actions)
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		admin string
		auth  string
		code  int
	}{
		{name: "disabled without token", admin: "", auth: "Bearer x", code: http.StatusNotFound},
		{name: "missing auth", admin: "secret", auth: "", code: http.StatusUnauthorized},
		{name: "wrong token", admin: "secret", auth: "Bearer nope", code: http.StatusUnauthorized},
		{name: "valid token", admin: "secret", auth: "Bearer secret", code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, _ := newTestRouter(tt.admin)
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			r.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRouter_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Run(ctx))
}
