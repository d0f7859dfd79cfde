// Package summary scores a user's recent comment history for troll-like
// behaviour and prepares the series for the summary chart.
package summary

import (
	"errors"
	"math"
	"redditslacker/internal/app/ports"
	"sort"
	"strings"
)

var ErrNoComments = errors.New("user has no comments")

const (
	shortCommentLen   = 200
	shortCommentScore = 0.1
	blacklistScore    = 2.5
)

// Likelihood is a troll likelihood band with its attachment color.
type Likelihood struct {
	Label string
	Color string
}

var (
	Low           = Likelihood{"Low", ports.ColorGood}
	Moderate      = Likelihood{"Moderate", ports.ColorWarning}
	High          = Likelihood{"High", ports.ColorDanger}
	VeryHigh      = Likelihood{"Very high", ports.ColorDanger}
	ExtremelyHigh = Likelihood{"Extremely high", ports.ColorDanger}
)

// band is matched when index >= Index, negative karma < NegPer*ratio, or
// average karma < Avg. The last matching band wins.
type band struct {
	Likelihood
	Index  float64
	NegPer float64
	Avg    float64
}

var bands = []band{
	{Moderate, 40, -70, 1},
	{High, 60, -130, -2},
	{VeryHigh, 80, -180, -5},
	{ExtremelyHigh, 100, -200, -10},
}

type Report struct {
	Likelihood    Likelihood
	Index         float64
	CommentsRead  int
	AverageKarma  float64
	NegativeKarma int
	Series        ports.SummarySeries
}

// Analyze scores comments (newest first, as Reddit lists them). limit is the
// number of comments that was requested and scales the index so partial
// histories are comparable.
func Analyze(username string, comments []ports.Comment, limit, commentKarma int, blacklist []string) (Report, error) {
	read := len(comments)
	if read == 0 {
		return Report{}, ErrNoComments
	}
	if limit <= 0 {
		limit = read
	}

	blocked := make(map[string]struct{}, len(blacklist))
	for _, b := range blacklist {
		blocked[strings.ToLower(b)] = struct{}{}
	}

	var index float64
	var total, negative int
	counts := make(map[string]int)
	for _, c := range comments {
		total += c.Score
		if c.Score < 0 {
			negative += c.Score
		}
		if len(c.Body) < shortCommentLen {
			index += shortCommentScore
		}
		if _, ok := blocked[strings.ToLower(c.Subreddit)]; ok {
			index += blacklistScore
		}
		counts[c.Subreddit]++
	}

	index *= float64(limit) / float64(read)
	avg := float64(total) / float64(read)
	ratio := float64(read) / float64(limit)

	return Report{
		Likelihood:    classify(index, float64(negative), avg, ratio),
		Index:         index,
		CommentsRead:  read,
		AverageKarma:  avg,
		NegativeKarma: negative,
		Series: ports.SummarySeries{
			Username:     username,
			Subreddits:   significant(counts, read, limit),
			Points:       points(comments),
			Cumulative:   cumulative(comments, commentKarma, avg),
			AverageKarma: avg,
		},
	}, nil
}

func classify(index, negative, avg, ratio float64) Likelihood {
	out := Low
	for _, b := range bands {
		if index >= b.Index || negative < b.NegPer*ratio || avg < b.Avg {
			out = b.Likelihood
		}
	}
	return out
}

// significant keeps subreddits holding more than their share of the history,
// largest first.
func significant(counts map[string]int, read, limit int) []ports.SubredditCount {
	threshold := float64(read) / (20 * (float64(limit) / 200)) / (float64(len(counts)) / 30)

	out := make([]ports.SubredditCount, 0, len(counts))
	for name, n := range counts {
		if float64(n) > threshold {
			out = append(out, ports.SubredditCount{Name: name, Count: n})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func points(comments []ports.Comment) []ports.KarmaPoint {
	out := make([]ports.KarmaPoint, len(comments))
	for i, c := range comments {
		out[i] = ports.KarmaPoint{At: c.Created, Karma: float64(c.Score), Length: len(strings.Fields(c.Body))}
	}
	return out
}

// cumulative walks the history oldest first. The starting value estimates the
// user's comment karma before the oldest comment read.
func cumulative(comments []ports.Comment, commentKarma int, avg float64) []ports.KarmaPoint {
	start := float64(commentKarma) - math.Abs(avg*float64(len(comments)))

	out := make([]ports.KarmaPoint, 0, len(comments))
	acc := start
	for i := len(comments) - 1; i >= 0; i-- {
		acc += float64(comments[i].Score)
		out = append(out, ports.KarmaPoint{At: comments[i].Created, Karma: acc})
	}
	return out
}
