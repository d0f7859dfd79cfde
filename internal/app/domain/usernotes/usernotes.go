// Package usernotes reads and writes the moderator toolbox "usernotes" wiki
// page. The page is a JSON envelope whose blob field holds a zlib-compressed,
// base64-encoded map of username to notes. Moderators and warning kinds are
// stored once in the constants tables and referenced by index.
package usernotes

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

const schemaVersion = 6

var ErrUnsupportedVersion = errors.New("unsupported usernotes schema version")

type Note struct {
	Text      string
	Moderator string
	Warning   string
	Link      string
	Time      time.Time
}

type rawNote struct {
	Note      string `json:"n"`
	Time      int64  `json:"t"`
	Moderator int    `json:"m"`
	Link      string `json:"l"`
	Warning   int    `json:"w"`
}

type rawUser struct {
	Notes []rawNote `json:"ns"`
}

type constants struct {
	Users    []string `json:"users"`
	Warnings []string `json:"warnings"`
}

type envelope struct {
	Version   int       `json:"ver"`
	Constants constants `json:"constants"`
	Blob      string    `json:"blob"`
}

// Notes is a decoded usernotes page.
type Notes struct {
	constants constants
	users     map[string]rawUser
}

func Empty() *Notes {
	return &Notes{users: make(map[string]rawUser)}
}

// Decode parses the wiki page content. An empty page decodes to no notes.
func Decode(content string) (*Notes, error) {
	if strings.TrimSpace(content) == "" {
		return Empty(), nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("parse usernotes page: %w", err)
	}
	if env.Version != schemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}

	n := &Notes{constants: env.Constants, users: make(map[string]rawUser)}
	if env.Blob == "" {
		return n, nil
	}

	compressed, err := base64.StdEncoding.DecodeString(env.Blob)
	if err != nil {
		return nil, fmt.Errorf("decode usernotes blob: %w", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("inflate usernotes blob: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate usernotes blob: %w", err)
	}
	if err := json.Unmarshal(raw, &n.users); err != nil {
		return nil, fmt.Errorf("parse usernotes blob: %w", err)
	}

	return n, nil
}

// Encode renders the page content ready to be written back to the wiki.
func (n *Notes) Encode() (string, error) {
	raw, err := json.Marshal(n.users)
	if err != nil {
		return "", fmt.Errorf("marshal usernotes blob: %w", err)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("deflate usernotes blob: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("deflate usernotes blob: %w", err)
	}

	out, err := json.Marshal(envelope{
		Version:   schemaVersion,
		Constants: n.constants,
		Blob:      base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	if err != nil {
		return "", fmt.Errorf("marshal usernotes page: %w", err)
	}
	return string(out), nil
}

// Get returns the notes of user, newest first.
func (n *Notes) Get(user string) []Note {
	u, ok := n.lookup(user)
	if !ok {
		return nil
	}

	out := make([]Note, 0, len(u.Notes))
	for _, rn := range u.Notes {
		out = append(out, Note{
			Text:      rn.Note,
			Moderator: at(n.constants.Users, rn.Moderator),
			Warning:   at(n.constants.Warnings, rn.Warning),
			Link:      rn.Link,
			Time:      time.Unix(rn.Time, 0),
		})
	}
	return out
}

// Latest returns the newest note of user.
func (n *Notes) Latest(user string) (Note, bool) {
	notes := n.Get(user)
	if len(notes) == 0 {
		return Note{}, false
	}
	return notes[0], true
}

// Add prepends note to the notes of user.
func (n *Notes) Add(user string, note Note) {
	key := user
	if existing, ok := n.key(user); ok {
		key = existing
	}

	rn := rawNote{
		Note:      note.Text,
		Time:      note.Time.Unix(),
		Moderator: index(&n.constants.Users, note.Moderator),
		Link:      note.Link,
		Warning:   index(&n.constants.Warnings, note.Warning),
	}

	u := n.users[key]
	u.Notes = append([]rawNote{rn}, u.Notes...)
	n.users[key] = u
}

// Users lists every user with notes, sorted.
func (n *Notes) Users() []string {
	out := make([]string, 0, len(n.users))
	for name := range n.users {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (n *Notes) lookup(user string) (rawUser, bool) {
	key, ok := n.key(user)
	if !ok {
		return rawUser{}, false
	}
	return n.users[key], true
}

func (n *Notes) key(user string) (string, bool) {
	if _, ok := n.users[user]; ok {
		return user, true
	}
	for name := range n.users {
		if strings.EqualFold(name, user) {
			return name, true
		}
	}
	return "", false
}

func at(table []string, i int) string {
	if i < 0 || i >= len(table) {
		return ""
	}
	return table[i]
}

func index(table *[]string, v string) int {
	for i, s := range *table {
		if s == v {
			return i
		}
	}
	*table = append(*table, v)
	return len(*table) - 1
}
