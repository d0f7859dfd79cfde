package middlewares

import (
	"bytes"
	"errors"
	"github.com/gin-gonic/gin"
	"io"
	"log/slog"
	"net/http"
	"redditslacker/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Verifier authenticates a raw Slack request body.
type Verifier interface {
	Verify(header http.Header, body []byte) error
}

type Middlewares struct {
	log      logger.Logger
	verifier Verifier
}

func New(log logger.Logger, verifier Verifier) *Middlewares {
	return &Middlewares{log: log, verifier: verifier}
}

// SlackVerify rejects requests that do not carry a valid Slack signature or
// token. The body is restored so handlers can parse the form afterwards.
func (m *Middlewares) SlackVerify() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatus(http.StatusRequestEntityTooLarge)
				return
			}
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		if err := m.verifier.Verify(c.Request.Header, body); err != nil {
			m.log.Warn("Rejected Slack request", slog.String("path", c.FullPath()), slog.String("ip", c.ClientIP()), slog.String("reason", err.Error()))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
