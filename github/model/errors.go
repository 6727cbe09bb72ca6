package model

import (
	"fmt"
)

// Failure categories of a FetchError
type FetchErrorKind string

const (
	FetchNetwork   FetchErrorKind = "network"
	FetchAuth      FetchErrorKind = "auth"
	FetchRateLimit FetchErrorKind = "rate_limit"
	FetchTimeout   FetchErrorKind = "timeout"
	FetchDecode    FetchErrorKind = "decode"
	FetchHTTP      FetchErrorKind = "http"
)

// FetchError is returned when an external API could not be reached or answered badly.
type FetchError struct {
	Source string // e.g. "github LemmyNet/lemmy" or "lemmy https://lemmy.ml"
	Kind   FetchErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when required data is absent from the queried window.
type NotFoundError struct {
	What    string
	Pattern string
	Scanned int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s matching %q among the %d most recent entries", e.What, e.Pattern, e.Scanned)
}

// MalformedDataError is returned when a pull request lacks a field needed downstream.
type MalformedDataError struct {
	Repository string
	URL        string
	Field      string
}

func (e *MalformedDataError) Error() string {
	ref := e.URL
	if ref == "" {
		ref = "<no url>"
	}
	return fmt.Sprintf("pull request %s in %s is missing %s", ref, e.Repository, e.Field)
}

// RenderError is returned when the report cannot be formatted.
type RenderError struct {
	Author string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render group %q: %v", e.Author, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// KindForStatus maps a non-2xx HTTP status to a FetchErrorKind.
func KindForStatus(status int, rateLimitRemaining string) FetchErrorKind {
	switch {
	case status == 429:
		return FetchRateLimit
	case status == 403 && rateLimitRemaining == "0":
		return FetchRateLimit
	case status == 401 || status == 403:
		return FetchAuth
	default:
		return FetchHTTP
	}
}
