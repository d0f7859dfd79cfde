package imagehost

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"redditslacker/pkg/logger"
	"testing"
)

func newLogger() logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: "error"})
}

func TestImgur_Upload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantLink string
		wantErr  error
	}{
		{"ok", http.StatusOK, `{"data":{"link":"https://i.imgur.com/abc.png"},"success":true}`, "https://i.imgur.com/abc.png", nil},
		{"empty link", http.StatusOK, `{"data":{},"success":true}`, "", ErrEmptyLink},
		{"bad request", http.StatusBadRequest, `{"data":{"error":"bad image"}}`, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Client-ID cid", r.Header.Get("Authorization"))

				f, hdr, err := r.FormFile("image")
				if assert.NoError(t, err) {
					raw, _ := io.ReadAll(f)
					assert.Equal(t, []byte("\x89PNG"), raw)
					assert.Equal(t, "spez.png", hdr.Filename)
				}

				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			link, err := New(newLogger(), srv.Client(), srv.URL, "cid").Upload(context.Background(), "spez.png", []byte("\x89PNG"))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantLink == "":
				assert.ErrorContains(t, err, "unexpected status")
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantLink, link)
			}
		})
	}
}

func TestImgur_MissingClientID(t *testing.T) {
	t.Parallel()

	_, err := New(newLogger(), http.DefaultClient, "", "").Upload(context.Background(), "x.png", nil)
	assert.Error(t, err)
}
