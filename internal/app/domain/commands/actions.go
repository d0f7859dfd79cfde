package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"redditslacker/internal/app/adapters/metrics"
	"redditslacker/internal/app/domain/shadowban"
	"redditslacker/internal/app/ports"
	"strings"
)

// statusAction flips a tracking flag and answers with reply.
func (s *Service) statusAction(reply string) actionFunc {
	return func(ctx context.Context, act ports.ButtonAction, arg string) (ports.Message, error) {
		action, _ := act.Split()
		user := strings.ToLower(arg)
		if user == "" {
			return unknownBtn, fmt.Errorf("%s: missing user", action)
		}

		if err := s.store.SetStatus(ctx, user, ports.Status(action)); err != nil {
			return failure("Failed to update user status.", err), err
		}

		s.log.Info("User status updated", slog.String("user", user), slog.String("status", action), slog.String("by", act.UserName))
		return ports.NewMessage(reply), nil
	}
}

func (s *Service) shadowbanAction(ctx context.Context, act ports.ButtonAction, arg string) (ports.Message, error) {
	action, _ := act.Split()
	if !s.isModerator(act.UserName) {
		return forbidden, fmt.Errorf("%s by %s: %w", action, act.UserName, ErrForbidden)
	}

	err := s.background(ctx, action, act.ResponseURL, func(ctx context.Context) ports.Message {
		return s.shadowban(ctx, arg, act.UserName, action == string(ports.StatusShadowban))
	})
	if err != nil {
		return busy, err
	}
	return processing, nil
}

// shadowban adds or removes name from the AutoModerator shadowban list and
// records a usernote. In dry-run mode only the local status changes.
func (s *Service) shadowban(ctx context.Context, name, moderator string, add bool) ports.Message {
	verb, status, warning := "unshadowbanned", ports.StatusUnshadowban, "botban"
	if add {
		verb, status = "shadowbanned", ports.StatusShadowban
	}
	failText := fmt.Sprintf("Failed to %s user.", strings.TrimSuffix(verb, "ned"))

	r, err := s.redditor(ctx, name)
	if errors.Is(err, ports.ErrNotFound) {
		return ports.NewMessage("", ports.Attachment{Fallback: "Shadowban error.", Title: "Error: user not found.", Color: ports.ColorDanger})
	}
	if err != nil {
		return failure(failText, err)
	}

	if !s.dryRun() {
		if err := s.editShadowbans(ctx, r.Name, moderator, add); err != nil {
			s.log.Error("Shadowban edit failed", err, slog.String("user", r.Name))
			return failure(failText, err)
		}

		note := fmt.Sprintf("%s via RedditSlacker by Slack user '%s'", strings.ToUpper(verb[:1])+verb[1:], moderator)
		if err := s.notes.AddNote(ctx, r.Name, note, moderator, warning, ""); err != nil {
			s.log.Warn("Failed to add usernote", slog.String("user", r.Name), slog.String("error", err.Error()))
		}
	} else {
		s.log.Info("Dry run, shadowban list not edited", slog.String("user", r.Name), slog.Bool("add", add))
	}

	if err := s.store.SetStatus(ctx, r.Name, status); err != nil {
		return failure(failText, err)
	}
	s.forget(r.Name)
	metrics.ModerationActions.WithLabelValues(string(status)).Inc()

	return ports.NewMessage(fmt.Sprintf("User */u/%s* has been %s.", r.Name, verb), ports.Attachment{
		Fallback:  fmt.Sprintf("%s /u/%s", strings.ToUpper(verb[:1])+verb[1:], r.Name),
		Title:     "User profile",
		TitleLink: profileURL(r.Name),
		Color:     ports.ColorGood,
		Fields:    []ports.Field{{Title: "Author", Value: moderator, Short: true}},
	})
}

func (s *Service) editShadowbans(ctx context.Context, name, moderator string, add bool) error {
	page := s.settings.Get().Shadowban.WikiPage

	content, err := s.reddit.WikiPage(ctx, page)
	if err != nil {
		return err
	}

	var updated string
	if add {
		updated, err = shadowban.Add(content, name)
	} else {
		updated, err = shadowban.Remove(content, name)
	}
	if err != nil {
		return err
	}
	if updated == content {
		return nil
	}

	verb := "unshadowban"
	if add {
		verb = "shadowban"
	}
	reason := fmt.Sprintf("RedditSlacker %s user \"/u/%s\" executed by Slack user \"%s\"", verb, name, moderator)
	return s.reddit.EditWikiPage(ctx, page, updated, reason)
}

func (s *Service) banAction(ctx context.Context, act ports.ButtonAction, arg string) (ports.Message, error) {
	if !s.isModerator(act.UserName) {
		return forbidden, fmt.Errorf("ban by %s: %w", act.UserName, ErrForbidden)
	}

	err := s.background(ctx, "ban", act.ResponseURL, func(ctx context.Context) ports.Message {
		return s.ban(ctx, arg, act.UserName)
	})
	if err != nil {
		return busy, err
	}
	return processing, nil
}

func (s *Service) ban(ctx context.Context, name, moderator string) ports.Message {
	r, err := s.redditor(ctx, name)
	if errors.Is(err, ports.ErrNotFound) {
		return ports.NewMessage("", ports.Attachment{Fallback: "Ban error.", Title: "Error: user not found.", Color: ports.ColorDanger})
	}
	if err != nil {
		return failure("Failed to ban user.", err)
	}

	note := fmt.Sprintf("Banned via RedditSlacker by Slack user '%s'", moderator)
	if !s.dryRun() {
		if err := s.reddit.BanUser(ctx, r.Name, "Banned by the moderators", note); err != nil {
			s.log.Error("Ban failed", err, slog.String("user", r.Name))
			return failure("Failed to ban user.", err)
		}
		if err := s.notes.AddNote(ctx, r.Name, note, moderator, "ban", ""); err != nil {
			s.log.Warn("Failed to add usernote", slog.String("user", r.Name), slog.String("error", err.Error()))
		}
	} else {
		s.log.Info("Dry run, ban skipped", slog.String("user", r.Name))
	}
	s.forget(r.Name)
	metrics.ModerationActions.WithLabelValues("ban").Inc()

	return ports.NewMessage(fmt.Sprintf("User */u/%s* has been banned.", r.Name), ports.Attachment{
		Fallback:  "Banned /u/" + r.Name,
		Title:     "User profile",
		TitleLink: profileURL(r.Name),
		Color:     ports.ColorGood,
		Fields:    []ports.Field{{Title: "Author", Value: moderator, Short: true}},
	})
}

// verifyAction marks the original message as checked.
func (s *Service) verifyAction(_ context.Context, act ports.ButtonAction, _ string) (ports.Message, error) {
	att := stamped(act.OriginalMessage, "Verified by @"+act.UserName)
	att.Fields = nil

	msg := ports.NewMessage(act.OriginalMessage.Text, att)
	msg.ReplaceOriginal = true
	return msg, nil
}

// banRequestAction forwards a feed comment to the ban requests channel and
// removes it from Reddit.
func (s *Service) banRequestAction(ctx context.Context, act ports.ButtonAction, arg string) (ports.Message, error) {
	if arg == "" {
		return unknownBtn, errors.New("banreq: missing comment id")
	}

	request := original(act.OriginalMessage)
	request.Color = ports.ColorGood
	request.CallbackID = "banreq"
	request.Buttons = []ports.Button{{Name: "verify", Text: "Verify", Value: "verify", Style: "primary"}}
	post := ports.NewMessage(fmt.Sprintf("@%s has requested a ban. Comment:", act.UserName), request)

	channel := s.settings.Get().Slack.BanRequestChannel
	err := s.detached(ctx, "banreq", func(ctx context.Context) {
		if err := s.poster.Post(ctx, channel, post); err != nil {
			s.log.Error("Failed to post ban request", err, slog.String("comment", arg))
		}
		s.moderate(ctx, "remove", arg)
	})
	if err != nil {
		return busy, err
	}

	msg := ports.NewMessage("", stamped(act.OriginalMessage, "Ban requested by @"+act.UserName))
	msg.ReplaceOriginal = true
	return msg, nil
}

// moderateAction approves or removes a feed comment.
func (s *Service) moderateAction(ctx context.Context, act ports.ButtonAction, arg string) (ports.Message, error) {
	action, _ := act.Split()
	if arg == "" {
		return unknownBtn, fmt.Errorf("%s: missing comment id", action)
	}

	err := s.detached(ctx, action, func(ctx context.Context) {
		s.moderate(ctx, action, arg)
	})
	if err != nil {
		return busy, err
	}

	footer := "Approved by @" + act.UserName
	if action == "remove" {
		footer = "Removed by @" + act.UserName
	}

	msg := ports.NewMessage("", stamped(act.OriginalMessage, footer))
	msg.ReplaceOriginal = true
	return msg, nil
}

func (s *Service) moderate(ctx context.Context, action, commentID string) {
	fullID := commentID
	if !strings.HasPrefix(fullID, "t1_") {
		fullID = "t1_" + fullID
	}

	if s.dryRun() {
		s.log.Info("Dry run, moderation skipped", slog.String("action", action), slog.String("id", fullID))
		return
	}

	var err error
	switch action {
	case "approve":
		err = s.reddit.Approve(ctx, fullID)
	default:
		err = s.reddit.Remove(ctx, fullID)
	}
	if err != nil {
		s.log.Error("Moderation action failed", err, slog.String("action", action), slog.String("id", fullID))
		return
	}
	metrics.ModerationActions.WithLabelValues(action).Inc()
}

// original copies the content of the first attachment of msg without its
// buttons.
func original(msg ports.Message) ports.Attachment {
	if len(msg.Attachments) == 0 {
		return ports.Attachment{Text: msg.Text}
	}

	a := msg.Attachments[0]
	return ports.Attachment{
		Fallback:  a.Fallback,
		Title:     a.Title,
		TitleLink: a.TitleLink,
		Text:      a.Text,
		Fields:    a.Fields,
	}
}

func stamped(msg ports.Message, footer string) ports.Attachment {
	a := original(msg)
	a.Color = ports.ColorGood
	a.Footer = footer
	return a
}
