package slack

import (
	"github.com/slack-go/slack"
	"redditslacker/internal/app/ports"
)

func toAttachments(in []ports.Attachment) []slack.Attachment {
	if len(in) == 0 {
		return nil
	}

	out := make([]slack.Attachment, 0, len(in))
	for _, a := range in {
		sa := slack.Attachment{
			Fallback:   a.Fallback,
			Title:      a.Title,
			TitleLink:  a.TitleLink,
			Text:       a.Text,
			Color:      a.Color,
			CallbackID: a.CallbackID,
			Footer:     a.Footer,
			ImageURL:   a.ImageURL,
		}
		for _, f := range a.Fields {
			sa.Fields = append(sa.Fields, slack.AttachmentField{Title: f.Title, Value: f.Value, Short: f.Short})
		}
		for _, b := range a.Buttons {
			action := slack.AttachmentAction{
				Name:  b.Name,
				Text:  b.Text,
				Value: b.Value,
				Style: b.Style,
				Type:  slack.ActionType("button"),
			}
			if b.Confirm != nil {
				action.Confirm = &slack.ConfirmationField{
					Title:       b.Confirm.Title,
					Text:        b.Confirm.Text,
					OkText:      b.Confirm.OkText,
					DismissText: b.Confirm.Dismiss,
				}
			}
			sa.Actions = append(sa.Actions, action)
		}
		out = append(out, sa)
	}
	return out
}

func fromAttachments(in []slack.Attachment) []ports.Attachment {
	if len(in) == 0 {
		return nil
	}

	out := make([]ports.Attachment, 0, len(in))
	for _, sa := range in {
		a := ports.Attachment{
			Fallback:   sa.Fallback,
			Title:      sa.Title,
			TitleLink:  sa.TitleLink,
			Text:       sa.Text,
			Color:      sa.Color,
			CallbackID: sa.CallbackID,
			Footer:     sa.Footer,
			ImageURL:   sa.ImageURL,
		}
		for _, f := range sa.Fields {
			a.Fields = append(a.Fields, ports.Field{Title: f.Title, Value: f.Value, Short: f.Short})
		}
		for _, act := range sa.Actions {
			b := ports.Button{Name: act.Name, Text: act.Text, Value: act.Value, Style: act.Style}
			if act.Confirm != nil {
				b.Confirm = &ports.Confirm{
					Title:   act.Confirm.Title,
					Text:    act.Confirm.Text,
					OkText:  act.Confirm.OkText,
					Dismiss: act.Confirm.DismissText,
				}
			}
			a.Buttons = append(a.Buttons, b)
		}
		out = append(out, a)
	}
	return out
}

// Render converts msg into the JSON body Slack expects as a synchronous reply
// to a command or action request.
func Render(msg ports.Message) *slack.WebhookMessage {
	return toWebhook(msg)
}

func toWebhook(msg ports.Message) *slack.WebhookMessage {
	responseType := msg.ResponseType
	if responseType == "" {
		responseType = ports.ResponseInChannel
	}

	return &slack.WebhookMessage{
		Text:            msg.Text,
		Attachments:     toAttachments(msg.Attachments),
		ResponseType:    responseType,
		ReplaceOriginal: msg.ReplaceOriginal,
	}
}
