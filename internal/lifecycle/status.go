package lifecycle

import (
	"fmt"
	"strings"
)

// Status is the article lifecycle state.
type Status string

const (
	StatusRaw        Status = "raw"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusEdited     Status = "edited"
	StatusPublished  Status = "published"
)

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.TrimSpace(strings.ToLower(raw)))
	switch status {
	case StatusRaw, StatusProcessing, StatusReady, StatusEdited, StatusPublished:
		return status, nil
	default:
		return "", fmt.Errorf("unknown article status %q", raw)
	}
}

var transitions = map[Status][]Status{
	StatusRaw:        {StatusProcessing},
	StatusProcessing: {StatusRaw, StatusReady},
	StatusReady:      {StatusEdited, StatusPublished},
	StatusEdited:     {StatusEdited, StatusPublished},
	StatusPublished:  {StatusEdited},
}

// CanTransitionTo reports whether the machine admits a move.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Public reports whether articles in this state are served to readers
// and listed in the sitemap.
func (s Status) Public() bool {
	switch s {
	case StatusReady, StatusEdited, StatusPublished:
		return true
	default:
		return false
	}
}

// IdentityLocked reports whether automated reprocessing may still
// overwrite the article's title. Slug is immutable in every state.
func (s Status) IdentityLocked() bool {
	return s == StatusEdited || s == StatusPublished
}
