package ports

import (
	"context"
	"time"
)

type ImageHostPort interface {
	Upload(ctx context.Context, name string, png []byte) (string, error)
}

// SummarySeries is the data a summary chart is drawn from.
type SummarySeries struct {
	Username     string
	Subreddits   []SubredditCount
	Points       []KarmaPoint
	Cumulative   []KarmaPoint
	AverageKarma float64
}

type SubredditCount struct {
	Name  string
	Count int
}

type KarmaPoint struct {
	At     time.Time
	Karma  float64
	Length int
}

type ChartPort interface {
	Render(series SummarySeries) ([]byte, error)
}

type PoolPort interface {
	Submit(task func()) error
}

type UsernotesPort interface {
	LatestNote(ctx context.Context, user string) (string, error)
	AddNote(ctx context.Context, user, text, moderator, warning, link string) error
}
