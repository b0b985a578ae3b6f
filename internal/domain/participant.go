package domain

import "strings"

const MaxNameLen = 36

// Viewer is a non-host participant. ConnID is unique within a session,
// Name is not.
type Viewer struct {
	Name   string       `json:"name"`
	ConnID ConnectionID `json:"-"`
}

// CleanName trims the display name and checks its length.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return "", ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}
