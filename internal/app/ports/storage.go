package ports

import (
	"context"
	"time"
)

// Offense is the per-user row kept from the mod log and moderator buttons.
type Offense struct {
	Username           string
	RemovedComments    int
	RemovedSubmissions int
	Bans               int
	Permamuted         bool
	Tracked            bool
	Shadowbanned       bool
}

type Status string

const (
	StatusTrack       Status = "track"
	StatusUntrack     Status = "untrack"
	StatusPermamute   Status = "permamute"
	StatusUnpermamute Status = "unpermamute"
	StatusShadowban   Status = "shadowban"
	StatusUnshadowban Status = "unshadowban"
)

type Flag string

const (
	FlagTracked      Flag = "tracked"
	FlagPermamuted   Flag = "permamuted"
	FlagShadowbanned Flag = "shadowbanned"
)

type CommandLog struct {
	UserName    string
	UserID      string
	TeamName    string
	TeamID      string
	ChannelName string
	ChannelID   string
	Command     string
	Args        string
	CreatedAt   time.Time
}

type UnflairedSubmission struct {
	SubmissionID string
	CommentID    string
	CreatedAt    time.Time
}

type OffenseStorePort interface {
	LogCommand(ctx context.Context, entry CommandLog) error
	RecordModAction(ctx context.Context, username, action string) (Offense, error)
	UserStatus(ctx context.Context, username string) (Offense, error)
	SetStatus(ctx context.Context, username string, status Status) error
	Usernames(ctx context.Context, flag Flag) ([]string, error)
	ResetCounters(ctx context.Context) (int64, error)

	LogUnflaired(ctx context.Context, s UnflairedSubmission) error
	DeleteUnflaired(ctx context.Context, submissionID string) error
	Unflaired(ctx context.Context) ([]UnflairedSubmission, error)
}

// ProcessedPort remembers which Reddit things were already handled.
type ProcessedPort interface {
	Has(id string) bool
	Add(id string) error
}

type CachePort[T any] interface {
	Set(key string, val T)
	Get(key string) (T, bool)
	ClearKey(key string)
}
