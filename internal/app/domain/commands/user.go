package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"redditslacker/internal/app/adapters/metrics"
	"redditslacker/internal/app/domain/summary"
	"redditslacker/internal/app/ports"
	"strconv"
	"strings"
	"time"
)

const (
	sinceFormat = "2006-01-02 15:04:05"
	noteMissing = "Unable to load usernotes."
)

// userCommand handles "/user <name> [quick]".
func (s *Service) userCommand(ctx context.Context, cmd ports.SlashCommand, args []string) (ports.Message, error) {
	if len(args) == 0 {
		return userUsage, nil
	}

	name := args[0]
	quick := len(args) > 1 && strings.EqualFold(args[1], "quick")
	limit := s.settings.Get().Summary.Limit

	err := s.background(ctx, "user", cmd.ResponseURL, func(ctx context.Context) ports.Message {
		return s.profile(ctx, name, quick, limit)
	})
	if err != nil {
		return busy, err
	}
	return processing, nil
}

// summaryCommand asks how many comments the summary should load.
func (s *Service) summaryCommand(_ context.Context, _ ports.SlashCommand, args []string) (ports.Message, error) {
	if len(args) == 0 {
		return sumUsage, nil
	}

	att := ports.Attachment{
		Fallback:   "You are unable to choose a number of comments to load.",
		CallbackID: "summary_" + args[0],
		Color:      ports.ColorInfo,
		Text:       "Have in mind loading 1000 comments takes a little longer.",
	}
	for _, n := range s.settings.Get().Summary.ChooseLimits {
		v := strconv.Itoa(n)
		att.Buttons = append(att.Buttons, ports.Button{Name: "limit", Text: v, Value: v})
	}

	return ports.NewMessage("How many comments to load?", att), nil
}

// summaryAction runs a full profile with summary. It is reached from the
// limit prompt (callback summary_<user>, value is the limit) or from a
// "summary_<user>" button.
func (s *Service) summaryAction(ctx context.Context, act ports.ButtonAction, arg string) (ports.Message, error) {
	cfg := s.settings.Get().Summary

	name, limit := arg, cfg.Limit
	if user, ok := strings.CutPrefix(act.CallbackID, "summary_"); ok {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return ports.Notice(ports.ColorDanger, "Invalid number of comments."), fmt.Errorf("summary limit %q", arg)
		}
		name, limit = user, min(n, cfg.MaxLimit)
	}
	if name == "" {
		return sumUsage, nil
	}

	err := s.background(ctx, "summary", act.ResponseURL, func(ctx context.Context) ports.Message {
		msg := s.profile(ctx, name, false, limit)
		msg.ReplaceOriginal = true
		return msg
	})
	if err != nil {
		return busy, err
	}

	msg := processing
	msg.ReplaceOriginal = true
	return msg, nil
}

// profile builds the user card, optionally followed by the troll summary.
func (s *Service) profile(ctx context.Context, name string, quick bool, limit int) ports.Message {
	r, err := s.redditor(ctx, name)
	if errors.Is(err, ports.ErrNotFound) {
		return notFound
	}
	if err != nil {
		s.log.Error("Failed to fetch redditor", err, slog.String("user", name))
		return failure("Failed to load user.", err)
	}

	status, err := s.store.UserStatus(ctx, r.Name)
	if err != nil {
		s.log.Error("Failed to load user status", err, slog.String("user", r.Name))
		return failure("Failed to load user.", err)
	}

	note, err := s.notes.LatestNote(ctx, r.Name)
	if err != nil {
		s.log.Warn("Failed to load usernotes", slog.String("user", r.Name), slog.String("error", err.Error()))
		note = noteMissing
	}

	msg := ports.NewMessage("", s.card(r, status, note))
	if !quick {
		msg.Attachments = append(msg.Attachments, s.summary(ctx, r, limit))
	}
	return msg
}

func (s *Service) card(r ports.Redditor, o ports.Offense, note string) ports.Attachment {
	att := ports.Attachment{
		Fallback:   "Summary for /u/" + r.Name,
		Title:      "Summary for /u/" + r.Name,
		TitleLink:  profileURL(r.Name),
		Color:      ports.ColorInfo,
		CallbackID: "user_" + r.Name,
		Fields: []ports.Field{
			{Title: "Combined karma", Value: strconv.Itoa(r.CombinedKarma()), Short: true},
			{Title: "Redditor since", Value: r.Created.UTC().Format(sinceFormat), Short: true},
			{Title: "Removed comments", Value: strconv.Itoa(o.RemovedComments), Short: true},
			{Title: "Removed submissions", Value: strconv.Itoa(o.RemovedSubmissions), Short: true},
			{Title: "Bans", Value: strconv.Itoa(o.Bans), Short: true},
			{Title: "Shadowbanned", Value: yesNo(o.Shadowbanned), Short: true},
			{Title: "Permamuted", Value: yesNo(o.Permamuted), Short: true},
			{Title: "Tracked", Value: yesNo(o.Tracked), Short: true},
			{Title: "Latest usernote", Value: note},
		},
	}

	if o.Permamuted {
		att.Buttons = append(att.Buttons, ports.Button{Name: "status", Text: "Unpermamute", Value: "unpermamute_" + r.Name})
	} else {
		att.Buttons = append(att.Buttons, ports.Button{
			Name: "status", Text: "Permamute", Value: "permamute_" + r.Name,
			Confirm: confirm("The user will be permamuted. This action is reversible.", "Permamute"),
		})
	}

	if o.Tracked {
		att.Buttons = append(att.Buttons, ports.Button{Name: "status", Text: "Untrack", Value: "untrack_" + r.Name})
	} else {
		att.Buttons = append(att.Buttons, ports.Button{Name: "status", Text: "Track", Value: "track_" + r.Name})
	}

	if s.settings.Get().Shadowban.Enabled {
		if o.Shadowbanned {
			att.Buttons = append(att.Buttons, ports.Button{Name: "status", Text: "Unshadowban", Value: "unshadowban_" + r.Name, Style: "danger"})
		} else {
			att.Buttons = append(att.Buttons, ports.Button{
				Name: "status", Text: "Shadowban", Value: "shadowban_" + r.Name, Style: "danger",
				Confirm: confirm("The user will be shadowbanned. This action is reversible.", "Shadowban"),
			})
		}
	}

	att.Buttons = append(att.Buttons, ports.Button{
		Name: "ban", Text: "Ban", Value: "ban_" + r.Name, Style: "danger",
		Confirm: confirm("The user will be permanently banned from the subreddit.", "Ban"),
	})

	return att
}

// summary analyses the comment history of r and returns the chart attachment.
func (s *Service) summary(ctx context.Context, r ports.Redditor, limit int) ports.Attachment {
	start := time.Now()
	defer func() { metrics.SummaryDuration.Observe(time.Since(start).Seconds()) }()

	fallback := "Summary for /u/" + r.Name

	comments, err := s.reddit.UserComments(ctx, r.Name, limit)
	if err != nil {
		s.log.Error("Failed to fetch comment history", err, slog.String("user", r.Name))
		return ports.Attachment{Fallback: fallback, Text: "Summary error: " + err.Error(), Color: ports.ColorDanger}
	}

	report, err := summary.Analyze(r.Name, comments, limit, r.CommentKarma, s.settings.Get().Summary.Blacklist)
	if errors.Is(err, summary.ErrNoComments) {
		return ports.Attachment{Fallback: fallback, Text: "Summary error: user has no comments.", Color: ports.ColorDanger}
	}
	if err != nil {
		return ports.Attachment{Fallback: fallback, Text: "Summary error: " + err.Error(), Color: ports.ColorDanger}
	}

	att := ports.Attachment{
		Fallback: fallback,
		Color:    report.Likelihood.Color,
		Fields: []ports.Field{
			{Title: "Troll likelihood", Value: report.Likelihood.Label, Short: true},
			{Title: "Total comments read", Value: strconv.Itoa(report.CommentsRead), Short: true},
		},
	}

	link, err := s.chartLink(ctx, r.Name, report.Series)
	if err != nil {
		s.log.Warn("Summary chart unavailable", slog.String("user", r.Name), slog.String("error", err.Error()))
		att.Text = "Chart unavailable."
		return att
	}
	att.ImageURL = link

	s.log.Debug("Summary built",
		slog.String("user", r.Name),
		slog.String("likelihood", report.Likelihood.Label),
		slog.Float64("index", report.Index),
		slog.Int("read", report.CommentsRead),
	)
	return att
}

func (s *Service) chartLink(ctx context.Context, name string, series ports.SummarySeries) (string, error) {
	if s.chart == nil || s.images == nil {
		return "", errors.New("chart rendering disabled")
	}

	png, err := s.chart.Render(series)
	if err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}

	link, err := s.images.Upload(ctx, name+"_summary.png", png)
	if err != nil {
		return "", fmt.Errorf("upload chart: %w", err)
	}
	return link, nil
}

func confirm(text, ok string) *ports.Confirm {
	return &ports.Confirm{Title: "Are you sure?", Text: text, OkText: ok, Dismiss: "No"}
}
