package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"redditslacker/internal/app/adapters/metrics"
	"redditslacker/internal/app/domain/flair"
	"redditslacker/internal/app/ports"
	"slices"
	"strings"
	"time"
)

// Unflaired removes fresh submissions without flair, leaves a sticky
// explanation and restores them once the author picks a flair. Pending
// submissions survive restarts through the store.
func (m *Monitor) Unflaired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.restore(ctx); err != nil {
		return err
	}

	cfg := m.settings.Get()
	grace := time.Duration(cfg.Unflaired.GraceSecs) * time.Second
	maxAge := time.Duration(cfg.Unflaired.MaxAgeSecs) * time.Second

	subs, err := m.reddit.NewSubmissions(ctx, cfg.Monitor.Unflaired.Limit)
	if err != nil {
		return err
	}

	tracked, err := m.usernames(ctx, ports.FlagTracked)
	if err != nil {
		return err
	}

	var errs []error
	now := m.now()
	for _, s := range subs {
		if tracked[strings.ToLower(s.Author)] && !m.processed.Has(s.ID) {
			msg := ports.NewMessage("New submission by user /u/"+s.Author, ports.Attachment{
				Fallback:  "New submission by user /u/" + s.Author,
				Title:     s.Title,
				TitleLink: s.Permalink,
				Text:      s.Body,
				Color:     ports.ColorWarning,
			})
			if err := m.poster.Post(ctx, cfg.Slack.TrackingChannel, msg); err != nil {
				errs = append(errs, err)
			} else {
				m.markProcessed(s.ID)
			}
		}

		if _, ok := m.pending[s.FullID]; ok || s.Flaired() || now.Sub(s.Created) >= grace {
			continue
		}

		if err := m.hold(ctx, s, cfg.Reddit.Subreddit, cfg.App.DryRun); err != nil {
			errs = append(errs, err)
		}
	}

	if err := m.release(ctx, now, maxAge, cfg.App.DryRun); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (m *Monitor) restore(ctx context.Context) error {
	if m.restored {
		return nil
	}

	rows, err := m.store.Unflaired(ctx)
	if err != nil {
		return fmt.Errorf("restore unflaired: %w", err)
	}
	for _, r := range rows {
		m.pending[r.SubmissionID] = r
	}
	m.restored = true

	if len(rows) > 0 {
		m.log.Info("Restored pending unflaired submissions", slog.Int("count", len(rows)))
	}
	return nil
}

// hold removes s and stickies the flair reminder under it.
func (m *Monitor) hold(ctx context.Context, s ports.Submission, subreddit string, dryRun bool) error {
	if dryRun {
		m.log.Info("Dry run, unflaired submission left up", slog.String("id", s.FullID))
		return nil
	}

	if err := m.reddit.Remove(ctx, s.FullID); err != nil {
		return err
	}
	metrics.ModerationActions.WithLabelValues("remove_unflaired").Inc()

	// A reply that was posted but not stickied is still tracked, otherwise
	// the next pass would post it again.
	commentID, replyErr := m.reddit.ReplySticky(ctx, s.FullID, flair.Comment(s.Author, subreddit, s.Permalink))
	if commentID == "" {
		return replyErr
	}

	row := ports.UnflairedSubmission{SubmissionID: s.FullID, CommentID: commentID, CreatedAt: s.Created}
	m.pending[s.FullID] = row
	if err := m.store.LogUnflaired(ctx, row); err != nil {
		return errors.Join(replyErr, err)
	}
	if replyErr != nil {
		return replyErr
	}

	m.log.Info("Removed unflaired submission", slog.String("id", s.FullID), slog.String("author", s.Author))
	return nil
}

// release approves pending submissions that gained a flair and gives up on
// the ones older than maxAge.
func (m *Monitor) release(ctx context.Context, now time.Time, maxAge time.Duration, dryRun bool) error {
	if len(m.pending) == 0 {
		return nil
	}

	current, err := m.reddit.Submissions(ctx, slices.Sorted(maps.Keys(m.pending)))
	if err != nil {
		return err
	}

	var errs []error
	for _, s := range current {
		p, ok := m.pending[s.FullID]
		if !ok {
			continue
		}

		switch {
		case s.Flaired():
			if dryRun {
				continue
			}
			if err := m.reddit.Approve(ctx, s.FullID); err != nil {
				errs = append(errs, err)
				continue
			}
			for _, reason := range s.ModReports {
				if err := m.reddit.Report(ctx, s.FullID, reason); err != nil {
					errs = append(errs, err)
				}
			}
			m.log.Info("Restored flaired submission", slog.String("id", s.FullID))
		case now.Sub(p.CreatedAt) >= maxAge:
			m.log.Info("Giving up on unflaired submission", slog.String("id", s.FullID))
		default:
			continue
		}

		if err := m.drop(ctx, p, dryRun); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m *Monitor) drop(ctx context.Context, p ports.UnflairedSubmission, dryRun bool) error {
	if !dryRun && p.CommentID != "" {
		if err := m.reddit.DeleteComment(ctx, p.CommentID); err != nil && !errors.Is(err, ports.ErrNotFound) {
			return err
		}
	}

	delete(m.pending, p.SubmissionID)
	return m.store.DeleteUnflaired(ctx, p.SubmissionID)
}

// Pending reports how many submissions are waiting for a flair.
func (m *Monitor) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
