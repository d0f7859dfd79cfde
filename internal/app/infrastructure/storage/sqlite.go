package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
	"redditslacker/internal/app/ports"
	"strings"
	"time"
)

var ErrUnknownStatus = errors.New("unknown user status")

const schema = `
CREATE TABLE IF NOT EXISTS commands_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_name    TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	team_name    TEXT NOT NULL,
	team_id      TEXT NOT NULL,
	channel_name TEXT NOT NULL,
	channel_id   TEXT NOT NULL,
	command      TEXT NOT NULL,
	args         TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS offense_track (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	user_name           TEXT NOT NULL UNIQUE COLLATE NOCASE,
	removed_comments    INTEGER NOT NULL DEFAULT 0,
	removed_submissions INTEGER NOT NULL DEFAULT 0,
	bans                INTEGER NOT NULL DEFAULT 0,
	permamuted          INTEGER NOT NULL DEFAULT 0,
	tracked             INTEGER NOT NULL DEFAULT 0,
	shadowbanned        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS unflaired_submissions (
	submission_id TEXT PRIMARY KEY,
	comment_id    TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);`

type offenseRow struct {
	UserName           string `db:"user_name"`
	RemovedComments    int    `db:"removed_comments"`
	RemovedSubmissions int    `db:"removed_submissions"`
	Bans               int    `db:"bans"`
	Permamuted         bool   `db:"permamuted"`
	Tracked            bool   `db:"tracked"`
	Shadowbanned       bool   `db:"shadowbanned"`
}

func (r offenseRow) toOffense() ports.Offense {
	return ports.Offense{
		Username:           r.UserName,
		RemovedComments:    r.RemovedComments,
		RemovedSubmissions: r.RemovedSubmissions,
		Bans:               r.Bans,
		Permamuted:         r.Permamuted,
		Tracked:            r.Tracked,
		Shadowbanned:       r.Shadowbanned,
	}
}

type commandRow struct {
	UserName    string `db:"user_name"`
	UserID      string `db:"user_id"`
	TeamName    string `db:"team_name"`
	TeamID      string `db:"team_id"`
	ChannelName string `db:"channel_name"`
	ChannelID   string `db:"channel_id"`
	Command     string `db:"command"`
	Args        string `db:"args"`
	CreatedAt   int64  `db:"created_at"`
}

type unflairedRow struct {
	SubmissionID string `db:"submission_id"`
	CommentID    string `db:"comment_id"`
	CreatedAt    int64  `db:"created_at"`
}

// statusColumns maps a moderator status change to the column and value it writes.
var statusColumns = map[ports.Status]struct {
	column string
	value  bool
}{
	ports.StatusTrack:       {"tracked", true},
	ports.StatusUntrack:     {"tracked", false},
	ports.StatusPermamute:   {"permamuted", true},
	ports.StatusUnpermamute: {"permamuted", false},
	ports.StatusShadowban:   {"shadowbanned", true},
	ports.StatusUnshadowban: {"shadowbanned", false},
}

var flagColumns = map[ports.Flag]string{
	ports.FlagTracked:      "tracked",
	ports.FlagPermamuted:   "permamuted",
	ports.FlagShadowbanned: "shadowbanned",
}

// Store is the SQLite-backed offense, command and unflaired-submission log.
type Store struct {
	db *sqlx.DB
}

func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LogCommand(ctx context.Context, e ports.CommandLog) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO commands_log (user_name, user_id, team_name, team_id, channel_name, channel_id, command, args, created_at)
		VALUES (:user_name, :user_id, :team_name, :team_id, :channel_name, :channel_id, :command, :args, :created_at)`,
		commandRow{
			UserName:    e.UserName,
			UserID:      e.UserID,
			TeamName:    e.TeamName,
			TeamID:      e.TeamID,
			ChannelName: e.ChannelName,
			ChannelID:   e.ChannelID,
			Command:     e.Command,
			Args:        e.Args,
			CreatedAt:   e.CreatedAt.Unix(),
		})
	if err != nil {
		return fmt.Errorf("log command: %w", err)
	}
	return nil
}

// RecordModAction bumps the counter matching a mod-log action and returns the
// updated row. Actions other than removecomment, removelink and banuser only
// make sure the row exists.
func (s *Store) RecordModAction(ctx context.Context, username, action string) (ports.Offense, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return ports.Offense{}, errors.New("record mod action: empty username")
	}

	var comments, submissions, bans int
	switch action {
	case "removecomment":
		comments = 1
	case "removelink":
		submissions = 1
	case "banuser":
		bans = 1
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return ports.Offense{}, fmt.Errorf("record mod action: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO offense_track (user_name, removed_comments, removed_submissions, bans)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_name) DO UPDATE SET
			removed_comments    = removed_comments + excluded.removed_comments,
			removed_submissions = removed_submissions + excluded.removed_submissions,
			bans                = bans + excluded.bans`,
		username, comments, submissions, bans); err != nil {
		return ports.Offense{}, fmt.Errorf("record mod action: %w", err)
	}

	var row offenseRow
	if err := tx.GetContext(ctx, &row, `
		SELECT user_name, removed_comments, removed_submissions, bans, permamuted, tracked, shadowbanned
		FROM offense_track WHERE user_name = ?`, username); err != nil {
		return ports.Offense{}, fmt.Errorf("record mod action: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ports.Offense{}, fmt.Errorf("record mod action: %w", err)
	}
	return row.toOffense(), nil
}

// UserStatus returns the stored row, or a zero row carrying username when the
// user has never been seen.
func (s *Store) UserStatus(ctx context.Context, username string) (ports.Offense, error) {
	var row offenseRow
	err := s.db.GetContext(ctx, &row, `
		SELECT user_name, removed_comments, removed_submissions, bans, permamuted, tracked, shadowbanned
		FROM offense_track WHERE user_name = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Offense{Username: username}, nil
	}
	if err != nil {
		return ports.Offense{}, fmt.Errorf("user status: %w", err)
	}
	return row.toOffense(), nil
}

func (s *Store) SetStatus(ctx context.Context, username string, status ports.Status) error {
	col, ok := statusColumns[status]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, status)
	}

	query := fmt.Sprintf(`
		INSERT INTO offense_track (user_name, %[1]s) VALUES (?, ?)
		ON CONFLICT (user_name) DO UPDATE SET %[1]s = excluded.%[1]s`, col.column)

	if _, err := s.db.ExecContext(ctx, query, username, col.value); err != nil {
		return fmt.Errorf("set status %s: %w", status, err)
	}
	return nil
}

func (s *Store) Usernames(ctx context.Context, flag ports.Flag) ([]string, error) {
	col, ok := flagColumns[flag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatus, flag)
	}

	var names []string
	query := fmt.Sprintf(`SELECT user_name FROM offense_track WHERE %s = 1 ORDER BY user_name`, col)
	if err := s.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list %s users: %w", flag, err)
	}
	return names, nil
}

func (s *Store) ResetCounters(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE offense_track SET removed_comments = 0, removed_submissions = 0, bans = 0`)
	if err != nil {
		return 0, fmt.Errorf("reset counters: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) LogUnflaired(ctx context.Context, u ports.UnflairedSubmission) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO unflaired_submissions (submission_id, comment_id, created_at)
		VALUES (:submission_id, :comment_id, :created_at)
		ON CONFLICT (submission_id) DO UPDATE SET comment_id = excluded.comment_id`,
		unflairedRow{SubmissionID: u.SubmissionID, CommentID: u.CommentID, CreatedAt: u.CreatedAt.Unix()})
	if err != nil {
		return fmt.Errorf("log unflaired: %w", err)
	}
	return nil
}

func (s *Store) DeleteUnflaired(ctx context.Context, submissionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM unflaired_submissions WHERE submission_id = ?`, submissionID); err != nil {
		return fmt.Errorf("delete unflaired: %w", err)
	}
	return nil
}

func (s *Store) Unflaired(ctx context.Context) ([]ports.UnflairedSubmission, error) {
	var rows []unflairedRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT submission_id, comment_id, created_at FROM unflaired_submissions ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list unflaired: %w", err)
	}

	out := make([]ports.UnflairedSubmission, 0, len(rows))
	for _, r := range rows {
		out = append(out, ports.UnflairedSubmission{
			SubmissionID: r.SubmissionID,
			CommentID:    r.CommentID,
			CreatedAt:    time.Unix(r.CreatedAt, 0),
		})
	}
	return out, nil
}
