package slack

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/slack-go/slack"
	"net/http"
	"redditslacker/internal/app/ports"
	"strings"
)

var ErrNoAction = errors.New("interaction carries no button action")

func ParseCommand(r *http.Request) (ports.SlashCommand, error) {
	s, err := slack.SlashCommandParse(r)
	if err != nil {
		return ports.SlashCommand{}, fmt.Errorf("parse slash command: %w", err)
	}

	return ports.SlashCommand{
		Command:     s.Command,
		Text:        strings.TrimSpace(s.Text),
		UserID:      s.UserID,
		UserName:    s.UserName,
		TeamID:      s.TeamID,
		TeamDomain:  s.TeamDomain,
		ChannelID:   s.ChannelID,
		ChannelName: s.ChannelName,
		ResponseURL: s.ResponseURL,
	}, nil
}

// ParseAction decodes the "payload" field of an interactive message callback.
// Only the first attachment action is used.
func ParseAction(r *http.Request) (ports.ButtonAction, error) {
	if err := r.ParseForm(); err != nil {
		return ports.ButtonAction{}, fmt.Errorf("parse action form: %w", err)
	}

	payload := r.PostForm.Get("payload")
	if payload == "" {
		return ports.ButtonAction{}, errors.New("parse action: missing payload")
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &cb); err != nil {
		return ports.ButtonAction{}, fmt.Errorf("parse action payload: %w", err)
	}

	if len(cb.ActionCallback.AttachmentActions) == 0 {
		return ports.ButtonAction{}, ErrNoAction
	}
	act := cb.ActionCallback.AttachmentActions[0]

	return ports.ButtonAction{
		CallbackID:  cb.CallbackID,
		Name:        act.Name,
		Value:       act.Value,
		UserName:    cb.User.Name,
		TeamDomain:  cb.Team.Domain,
		ChannelID:   cb.Channel.ID,
		ResponseURL: cb.ResponseURL,
		OriginalMessage: ports.Message{
			Text:        cb.OriginalMessage.Text,
			Attachments: fromAttachments(cb.OriginalMessage.Attachments),
		},
	}, nil
}
