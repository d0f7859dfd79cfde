// Package monitor holds the background pollers: the top-level comment feed,
// the mod-log offense tracker, the modmail muter and the unflaired
// submission enforcer. Every Reddit id they act on goes into the processed
// log so restarts do not repeat work.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"redditslacker/internal/app/adapters/metrics"
	"redditslacker/internal/app/domain/offense"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	feedCallback = "tlcfeed"

	PollerComments  = "comments"
	PollerModLog    = "modlog"
	PollerModmail   = "modmail"
	PollerUnflaired = "unflaired"
)

type Settings interface {
	Get() *config.Config
}

type Monitor struct {
	log       logger.Logger
	settings  Settings
	reddit    ports.RedditPort
	store     ports.OffenseStorePort
	processed ports.ProcessedPort
	poster    ports.PosterPort
	now       func() time.Time

	mu       sync.Mutex
	pending  map[string]ports.UnflairedSubmission
	restored bool

	// owed holds lowercase usernames whose warnings failed to post.
	owed map[string]struct{}
}

func New(log logger.Logger, settings Settings, reddit ports.RedditPort, store ports.OffenseStorePort, processed ports.ProcessedPort, poster ports.PosterPort) *Monitor {
	return &Monitor{
		log:       log,
		settings:  settings,
		reddit:    reddit,
		store:     store,
		processed: processed,
		poster:    poster,
		now:       time.Now,
		pending:   make(map[string]ports.UnflairedSubmission),
		owed:      make(map[string]struct{}),
	}
}

// Pollers returns one poller per background job, wired to the live config.
func (m *Monitor) Pollers() []*Poller {
	cfg := func(pick func(c *config.Config) config.Poller) func() config.Poller {
		return func() config.Poller { return pick(m.settings.Get()) }
	}

	return []*Poller{
		NewPoller(m.log, PollerComments, cfg(func(c *config.Config) config.Poller { return c.Monitor.Comments }), m.Comments),
		NewPoller(m.log, PollerModLog, cfg(func(c *config.Config) config.Poller { return c.Monitor.ModLog }), m.ModLog),
		NewPoller(m.log, PollerModmail, cfg(func(c *config.Config) config.Poller { return c.Monitor.Modmail }), m.Modmail),
		NewPoller(m.log, PollerUnflaired, cfg(func(c *config.Config) config.Poller { return c.Monitor.Unflaired }), m.Unflaired),
	}
}

// Comments posts new top-level comments to the feed channel and comments by
// tracked users to the tracking channel.
func (m *Monitor) Comments(ctx context.Context) error {
	cfg := m.settings.Get()

	comments, err := m.reddit.NewComments(ctx, cfg.Monitor.Comments.Limit)
	if err != nil {
		return err
	}

	tracked, err := m.usernames(ctx, ports.FlagTracked)
	if err != nil {
		return err
	}

	var errs []error
	for _, c := range comments {
		if m.processed.Has(c.ID) {
			continue
		}

		if c.IsTopLevel() && !ignored(cfg, c.Author) {
			if err := m.poster.Post(ctx, cfg.Slack.FeedChannel, feedMessage(c)); err != nil {
				errs = append(errs, err)
				continue
			}
		}

		if tracked[strings.ToLower(c.Author)] {
			msg := ports.NewMessage("New comment by user /u/"+c.Author, ports.Attachment{
				Fallback:  "New comment by user /u/" + c.Author,
				Title:     c.LinkTitle,
				TitleLink: c.Permalink,
				Text:      c.Body,
				Color:     ports.ColorWarning,
			})
			if err := m.poster.Post(ctx, cfg.Slack.TrackingChannel, msg); err != nil {
				errs = append(errs, err)
				continue
			}
		}

		m.markProcessed(c.ID)
	}

	return errors.Join(errs...)
}

func feedMessage(c ports.Comment) ports.Message {
	return ports.NewMessage("", ports.Attachment{
		Fallback:   c.LinkTitle,
		Title:      c.LinkTitle,
		TitleLink:  c.Permalink,
		Text:       c.Body,
		Color:      ports.ColorFeed,
		CallbackID: feedCallback,
		Fields:     []ports.Field{{Title: "Author", Value: c.Author, Short: true}},
		Buttons: []ports.Button{
			{Name: "approve", Text: "Approve", Value: "approve_" + c.ID, Style: "primary"},
			{Name: "remove", Text: "Remove", Value: "remove_" + c.ID, Style: "danger"},
			{Name: "banreq", Text: "Request ban", Value: "banreq_" + c.ID},
		},
	})
}

// ModLog counts removals and bans per user and warns when a threshold is
// crossed. A user gets at most one batch of warnings per pass. Warnings that
// could not be posted are owed and retried on the next pass.
func (m *Monitor) ModLog(ctx context.Context) error {
	cfg := m.settings.Get()

	actions, err := m.reddit.ModLog(ctx, cfg.Monitor.ModLog.Limit)
	if err != nil {
		return err
	}

	var (
		errs  []error
		order []string
		due   = make(map[string]ports.Offense)
	)
	for key := range m.owed {
		o, err := m.store.UserStatus(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("owed warning %s: %w", key, err))
			continue
		}
		due[key] = o
		order = append(order, key)
	}
	slices.Sort(order)

	for _, a := range actions {
		if m.processed.Has(a.ID) {
			continue
		}
		if a.TargetAuthor == "" || ignored(cfg, a.TargetAuthor) {
			m.markProcessed(a.ID)
			continue
		}

		o, err := m.store.RecordModAction(ctx, a.TargetAuthor, a.Action)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", a.ID, err))
			continue
		}
		m.markProcessed(a.ID)

		key := strings.ToLower(o.Username)
		if _, ok := due[key]; ok || len(offense.Evaluate(o, cfg.Thresholds)) == 0 {
			continue
		}
		due[key] = o
		order = append(order, key)
	}

	for _, key := range order {
		if err := m.warn(ctx, cfg, due[key]); err != nil {
			m.owed[key] = struct{}{}
			errs = append(errs, err)
			continue
		}
		delete(m.owed, key)
	}

	return errors.Join(errs...)
}

// warn posts every warning o currently earns to the tracking channel.
func (m *Monitor) warn(ctx context.Context, cfg *config.Config, o ports.Offense) error {
	warnings := offense.Evaluate(o, cfg.Thresholds)

	var errs []error
	for _, w := range warnings {
		if err := m.poster.Post(ctx, cfg.Slack.TrackingChannel, w.Message()); err != nil {
			errs = append(errs, err)
			continue
		}
		metrics.OffenseWarnings.WithLabelValues(string(w.Kind), string(w.Severity)).Inc()
	}
	if len(errs) > 0 {
		return fmt.Errorf("warn %s: %w", o.Username, errors.Join(errs...))
	}

	if len(warnings) > 0 {
		m.log.Info("Offense warnings posted", slog.String("user", o.Username), slog.Int("count", len(warnings)))
	}
	return nil
}

// Modmail mutes new conversations started by permamuted users.
func (m *Monitor) Modmail(ctx context.Context) error {
	cfg := m.settings.Get()

	convs, err := m.reddit.ModmailConversations(ctx, cfg.Monitor.Modmail.Limit)
	if err != nil {
		return err
	}

	muted, err := m.usernames(ctx, ports.FlagPermamuted)
	if err != nil {
		return err
	}

	var errs []error
	for _, c := range convs {
		if m.processed.Has(c.ID) || !muted[strings.ToLower(c.Participant)] {
			continue
		}

		if cfg.App.DryRun {
			m.log.Info("Dry run, modmail not muted", slog.String("conversation", c.ID), slog.String("user", c.Participant))
		} else {
			if err := m.reddit.MuteModmail(ctx, c.ID); err != nil {
				errs = append(errs, err)
				continue
			}
			metrics.ModerationActions.WithLabelValues("mute").Inc()
			m.log.Info("Modmail muted", slog.String("conversation", c.ID), slog.String("user", c.Participant))
		}

		m.markProcessed(c.ID)
	}

	return errors.Join(errs...)
}

func (m *Monitor) usernames(ctx context.Context, flag ports.Flag) (map[string]bool, error) {
	names, err := m.store.Usernames(ctx, flag)
	if err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[strings.ToLower(n)] = true
	}
	return out, nil
}

func (m *Monitor) markProcessed(id string) {
	if err := m.processed.Add(id); err != nil {
		m.log.Error("Failed to persist processed id", err, slog.String("id", id))
		return
	}
	metrics.ProcessedIDs.Inc()
}

func ignored(cfg *config.Config, author string) bool {
	if author == "" || author == "[deleted]" {
		return true
	}
	for _, name := range cfg.Reddit.IgnoredAuthors {
		if strings.EqualFold(name, author) {
			return true
		}
	}
	return false
}
