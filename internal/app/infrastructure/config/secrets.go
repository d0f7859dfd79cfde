package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// LoadSecrets loads envFile (if it exists) into the process environment and
// reads the credentials from it. Variables already set in the environment win.
func LoadSecrets(envFile string) (Secrets, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	s := Secrets{
		SlackBotToken:          env("SLACK_BOT_TOKEN"),
		SlackSigningSecret:     env("SLACK_SIGNING_SECRET"),
		SlackVerificationToken: env("SLACK_VERIFICATION_TOKEN"),
		RedditClientID:         env("REDDIT_CLIENT_ID"),
		RedditClientSecret:     env("REDDIT_CLIENT_SECRET"),
		RedditUsername:         env("REDDIT_USERNAME"),
		RedditPassword:         env("REDDIT_PASSWORD"),
		ImgurClientID:          env("IMGUR_CLIENT_ID"),
		AdminToken:             env("ADMIN_TOKEN"),
	}

	var missing []string
	for name, v := range map[string]string{
		"SLACK_BOT_TOKEN":      s.SlackBotToken,
		"REDDIT_CLIENT_ID":     s.RedditClientID,
		"REDDIT_CLIENT_SECRET": s.RedditClientSecret,
		"REDDIT_USERNAME":      s.RedditUsername,
		"REDDIT_PASSWORD":      s.RedditPassword,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if s.SlackSigningSecret == "" && s.SlackVerificationToken == "" {
		missing = append(missing, "SLACK_SIGNING_SECRET or SLACK_VERIFICATION_TOKEN")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return s, fmt.Errorf("missing required secrets: %s", strings.Join(missing, ", "))
	}

	return s, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

