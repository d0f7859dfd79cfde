// Package shadowban edits the shadowban list kept in the AutoModerator
// config page. The list lives between a line mentioning "shadowbans" and an
// "#end shadowbans" marker; every bracketed author list inside that block
// carries the banned names.
package shadowban

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	startMarker = "shadowbans"
	endMarker   = "#end shadowbans"
)

var (
	ErrMarkerNotFound = errors.New("shadowban markers not found in automoderator config")
	ErrNoList         = errors.New("shadowban block has no bracketed list")
)

func block(config string) (start, end int, err error) {
	start = strings.Index(config, startMarker)
	if start < 0 {
		return 0, 0, ErrMarkerNotFound
	}
	rel := strings.Index(config[start:], endMarker)
	if rel < 0 {
		return 0, 0, ErrMarkerNotFound
	}
	return start, start + rel, nil
}

// Contains reports whether user is already listed in the shadowban block.
func Contains(config, user string) (bool, error) {
	start, end, err := block(config)
	if err != nil {
		return false, err
	}
	return quoted(user).MatchString(config[start:end]), nil
}

// Add appends user to every list in the shadowban block. A block without a
// bracketed list yields ErrNoList.
func Add(config, user string) (string, error) {
	if err := validUser(user); err != nil {
		return "", err
	}

	start, end, err := block(config)
	if err != nil {
		return "", err
	}

	section := config[start:end]
	if quoted(user).MatchString(section) {
		return config, nil
	}
	if !strings.Contains(section, "]") {
		return "", ErrNoList
	}

	var b strings.Builder
	b.Grow(len(section) + 16)
	for i := 0; i < len(section); i++ {
		if section[i] == ']' {
			prev := strings.TrimRight(section[:i], " \t")
			if strings.HasSuffix(prev, "[") {
				fmt.Fprintf(&b, "%q", user)
			} else {
				fmt.Fprintf(&b, ", %q", user)
			}
		}
		b.WriteByte(section[i])
	}

	return config[:start] + b.String() + config[end:], nil
}

// Remove deletes every listing of user from the shadowban block, leaving the
// rest of the page untouched.
func Remove(config, user string) (string, error) {
	if err := validUser(user); err != nil {
		return "", err
	}

	start, end, err := block(config)
	if err != nil {
		return "", err
	}

	q := regexp.QuoteMeta(fmt.Sprintf("%q", user))
	section := config[start:end]
	section = regexp.MustCompile(`(?i),\s*`+q).ReplaceAllString(section, "")
	section = regexp.MustCompile(`(?i)`+q+`\s*,\s*`).ReplaceAllString(section, "")
	section = regexp.MustCompile(`(?i)`+q).ReplaceAllString(section, "")

	return config[:start] + section + config[end:], nil
}

func quoted(user string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(fmt.Sprintf("%q", user)))
}

func validUser(user string) error {
	if user == "" || strings.ContainsAny(user, "\"[],\n") {
		return fmt.Errorf("invalid username %q", user)
	}
	return nil
}
