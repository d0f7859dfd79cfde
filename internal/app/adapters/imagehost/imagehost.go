package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/hashicorp/go-retryablehttp"
	"io"
	"mime/multipart"
	"net/http"
	"redditslacker/pkg/logger"
	"time"
)

const DefaultEndpoint = "https://api.imgur.com/3/image"

var ErrEmptyLink = errors.New("empty link in response")

// Imgur uploads summary charts anonymously and returns their public link.
type Imgur struct {
	client   *retryablehttp.Client
	endpoint string
	clientID string
}

func New(log logger.Logger, httpClient *http.Client, endpoint, clientID string) *Imgur {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = 2
	rc.RetryWaitMin = time.Second
	rc.RetryWaitMax = 10 * time.Second
	rc.Logger = logger.Leveled(log)

	return &Imgur{client: rc, endpoint: endpoint, clientID: clientID}
}

func (i *Imgur) Upload(ctx context.Context, name string, png []byte) (string, error) {
	if i.clientID == "" {
		return "", errors.New("imgur client id is not configured")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(png); err != nil {
		return "", err
	}
	if err := mw.WriteField("type", "file"); err != nil {
		return "", err
	}
	if err := mw.WriteField("title", name); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, body.Bytes())
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Client-ID "+i.clientID)

	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %s: %s", resp.Status, string(slurp))
	}

	var out struct {
		Data struct {
			Link string `json:"link"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Data.Link == "" {
		return "", ErrEmptyLink
	}
	return out.Data.Link, nil
}
