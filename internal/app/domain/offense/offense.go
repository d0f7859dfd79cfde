package offense

import (
	"fmt"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/internal/app/ports"
)

const CallbackID = "userwarning"

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityUrgent  Severity = "urgent"
)

type Kind string

const (
	KindComments    Kind = "comments"
	KindSubmissions Kind = "submissions"
	KindBans        Kind = "bans"
)

type Warning struct {
	Username  string
	Kind      Kind
	Severity  Severity
	Threshold int
}

// Evaluate returns a warning for every counter above its warning threshold and
// an urgent one for every counter above its high threshold.
func Evaluate(o ports.Offense, t config.Thresholds) []Warning {
	checks := []struct {
		kind  Kind
		count int
		th    config.Threshold
	}{
		{KindComments, o.RemovedComments, t.Comments},
		{KindSubmissions, o.RemovedSubmissions, t.Submissions},
		{KindBans, o.Bans, t.Bans},
	}

	var out []Warning
	for _, c := range checks {
		if c.count > c.th.Warning {
			out = append(out, Warning{Username: o.Username, Kind: c.kind, Severity: SeverityWarning, Threshold: c.th.Warning})
		}
		if c.count > c.th.High {
			out = append(out, Warning{Username: o.Username, Kind: c.kind, Severity: SeverityUrgent, Threshold: c.th.High})
		}
	}
	return out
}

func (w Warning) Text() string {
	var what string
	switch w.Kind {
	case KindComments:
		what = fmt.Sprintf("User has had %d> comments removed.", w.Threshold)
	case KindSubmissions:
		what = fmt.Sprintf("User has had %d> submissions removed.", w.Threshold)
	default:
		what = fmt.Sprintf("User has been banned %d> times.", w.Threshold)
	}

	if w.Severity == SeverityUrgent {
		return what + " Please check profile history immediately."
	}
	return what + " Please check profile history."
}

// Message renders the warning as a Slack notice with a Verify button.
func (w Warning) Message() ports.Message {
	title, color := "Warning regarding user /u/"+w.Username, ports.ColorWarning
	if w.Severity == SeverityUrgent {
		title, color = "*Urgent warning* regarding user /u/"+w.Username, ports.ColorDanger
	}

	return ports.NewMessage("", ports.Attachment{
		Fallback:   title,
		Title:      title,
		TitleLink:  "https://www.reddit.com/user/" + w.Username,
		Text:       w.Text(),
		Color:      color,
		CallbackID: CallbackID,
		Buttons:    []ports.Button{{Name: "verify", Text: "Verify", Value: "verify", Style: "primary"}},
	})
}
