package usernotes

import (
	"context"
	"fmt"
	"log/slog"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
	"sync"
	"time"
)

const NoNotes = "No usernotes attached to this user."

type wiki interface {
	WikiPage(ctx context.Context, page string) (string, error)
	EditWikiPage(ctx context.Context, page, content, reason string) error
}

// Service keeps the usernotes wiki page in sync. Edits are serialised so two
// concurrent notes never overwrite each other.
type Service struct {
	log  logger.Logger
	wiki wiki
	page string
	now  func() time.Time

	mu sync.Mutex
}

var _ ports.UsernotesPort = (*Service)(nil)

func NewService(log logger.Logger, wiki wiki, page string) *Service {
	return &Service{log: log, wiki: wiki, page: page, now: time.Now}
}

func (s *Service) load(ctx context.Context) (*Notes, error) {
	content, err := s.wiki.WikiPage(ctx, s.page)
	if err != nil {
		return nil, fmt.Errorf("read usernotes: %w", err)
	}
	return Decode(content)
}

// LatestNote returns the newest note text for user or NoNotes.
func (s *Service) LatestNote(ctx context.Context, user string) (string, error) {
	notes, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	n, ok := notes.Latest(user)
	if !ok {
		return NoNotes, nil
	}
	return n.Text, nil
}

func (s *Service) AddNote(ctx context.Context, user, text, moderator, warning, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return err
	}

	notes.Add(user, Note{Text: text, Moderator: moderator, Warning: warning, Link: link, Time: s.now()})

	content, err := notes.Encode()
	if err != nil {
		return err
	}

	reason := fmt.Sprintf("\"create new note on user %s\" via redditslacker", user)
	if err := s.wiki.EditWikiPage(ctx, s.page, content, reason); err != nil {
		return fmt.Errorf("write usernotes: %w", err)
	}

	s.log.Debug("Usernote added", slog.String("user", user), slog.String("warning", warning))
	return nil
}
