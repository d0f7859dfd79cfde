package handlers

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"log/slog"
	"net/http"
	"redditslacker/internal/app/adapters/slack"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
	"time"
)

// Service answers Slack interactions with an immediate message.
type Service interface {
	HandleCommand(ctx context.Context, cmd ports.SlashCommand) ports.Message
	HandleAction(ctx context.Context, act ports.ButtonAction) ports.Message
}

type Handlers struct {
	log     logger.Logger
	service Service
	started time.Time
}

func New(log logger.Logger, service Service) *Handlers {
	return &Handlers{
		log:     log,
		service: service,
		started: time.Now(),
	}
}

func (h *Handlers) CommandHandler(c *gin.Context) {
	cmd, err := slack.ParseCommand(c.Request)
	if err != nil {
		h.log.Warn("Bad slash command request", slog.String("error", err.Error()))
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, slack.Render(h.service.HandleCommand(c.Request.Context(), cmd)))
}

func (h *Handlers) ActionHandler(c *gin.Context) {
	act, err := slack.ParseAction(c.Request)
	if errors.Is(err, slack.ErrNoAction) {
		c.Status(http.StatusOK)
		return
	}
	if err != nil {
		h.log.Warn("Bad interaction request", slog.String("error", err.Error()))
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, slack.Render(h.service.HandleAction(c.Request.Context(), act)))
}

func (h *Handlers) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}
