package slack

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/slack-go/slack"
	"net/http"
	"net/url"
)

var ErrUnauthorized = errors.New("slack request failed verification")

// Verifier authenticates inbound Slack requests. A signing secret takes
// precedence; the legacy verification token is only checked without one.
type Verifier struct {
	signingSecret string
	token         string
}

func NewVerifier(signingSecret, token string) *Verifier {
	return &Verifier{signingSecret: signingSecret, token: token}
}

// Verify checks a raw request body against its headers.
func (v *Verifier) Verify(header http.Header, body []byte) error {
	if v.signingSecret != "" {
		sv, err := slack.NewSecretsVerifier(header, v.signingSecret)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		if _, err := sv.Write(body); err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		if err := sv.Ensure(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil
	}

	if v.token == "" {
		return fmt.Errorf("%w: no signing secret or verification token configured", ErrUnauthorized)
	}

	got, err := requestToken(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(v.token)) != 1 {
		return fmt.Errorf("%w: token mismatch", ErrUnauthorized)
	}
	return nil
}

// requestToken finds the verification token in a slash command form or in
// the JSON payload field of an interaction.
func requestToken(body []byte) (string, error) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return "", err
	}
	if token := form.Get("token"); token != "" {
		return token, nil
	}

	payload := form.Get("payload")
	if payload == "" {
		return "", errors.New("no token in request")
	}

	var p struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", err
	}
	return p.Token, nil
}
