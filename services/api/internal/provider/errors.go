package provider

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why a resolution produced no stream.
// Kind implements error so callers can write errors.Is(err, provider.NoVideoFrame).
type Kind string

const (
	SiteUnreachable Kind = "site_unreachable"
	SiteRejected    Kind = "site_rejected"
	NoSearchMatch   Kind = "no_search_match"
	NoEpisodeMatch  Kind = "no_episode_match"
	NoVideoFrame    Kind = "no_video_frame"
	ParseFailure    Kind = "parse_failure"
)

func (k Kind) Error() string { return string(k) }

// Stage names one network-fetch-plus-parse step of a scrape.
type Stage string

const (
	StageSearch   Stage = "search"
	StageEpisodes Stage = "episodes"
	StagePlayer   Stage = "player"
)

// Error is a classified resolution failure.
type Error struct {
	Provider string
	Stage    Stage
	Kind     Kind
	URL      string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s stage: %s", e.Provider, e.Stage, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf maps any error returned by a Provider to a Kind.
// Context cancellation and deadlines count as SiteUnreachable; anything
// unclassified counts as ParseFailure.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return SiteUnreachable
	}
	return ParseFailure
}

// StageOf returns the stage recorded on err, if any.
func StageOf(err error) Stage {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
