package ports

import (
	"context"
	"strings"
)

const (
	ColorGood    = "good"
	ColorWarning = "warning"
	ColorDanger  = "danger"
	ColorInfo    = "#3AA3E3"
	ColorFeed    = "#0073a3"

	ResponseInChannel = "in_channel"
	ResponseEphemeral = "ephemeral"
)

type SlashCommand struct {
	Command     string
	Text        string
	UserID      string
	UserName    string
	TeamID      string
	TeamDomain  string
	ChannelID   string
	ChannelName string
	ResponseURL string
}

type ButtonAction struct {
	CallbackID      string
	Name            string
	Value           string
	UserName        string
	TeamDomain      string
	ChannelID       string
	ResponseURL     string
	OriginalMessage Message
}

// Split breaks a button value of the form "action_arg" apart. Values without
// an underscore are returned whole as the action.
func (a ButtonAction) Split() (action, arg string) {
	action, arg, _ = strings.Cut(a.Value, "_")
	return action, arg
}

type Message struct {
	Text            string
	ResponseType    string
	ReplaceOriginal bool
	Attachments     []Attachment
}

type Attachment struct {
	Fallback   string
	Title      string
	TitleLink  string
	Text       string
	Color      string
	CallbackID string
	Footer     string
	ImageURL   string
	Fields     []Field
	Buttons    []Button
}

// NewMessage returns a message visible to the whole channel.
func NewMessage(text string, attachments ...Attachment) Message {
	return Message{Text: text, ResponseType: ResponseInChannel, Attachments: attachments}
}

// Notice is a single colored attachment, used for command results.
func Notice(color, text string) Message {
	return NewMessage("", Attachment{Fallback: text, Text: text, Color: color})
}

type Field struct {
	Title string
	Value string
	Short bool
}

type Button struct {
	Name    string
	Text    string
	Value   string
	Style   string
	Confirm *Confirm
}

type Confirm struct {
	Title   string
	Text    string
	OkText  string
	Dismiss string
}

// PosterPort posts new messages into channels.
type PosterPort interface {
	Post(ctx context.Context, channel string, msg Message) error
}

// ResponderPort delivers delayed replies to a Slack response_url.
type ResponderPort interface {
	Respond(ctx context.Context, responseURL string, msg Message) error
}
