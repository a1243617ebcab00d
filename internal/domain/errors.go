package domain

import "errors"

var (
	// ErrSessionNotFound is returned for an unknown session ID.
	ErrSessionNotFound = errors.New("interview session not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotCompleted is returned when a report is requested before completion.
	ErrSessionNotCompleted = errors.New("interview not completed")
	// ErrReportNotFound indicates no evaluation exists yet for the session.
	ErrReportNotFound = errors.New("report not available")
	// ErrUpstream marks a backend-reported generation failure. It never reaches
	// callers of the interview flow; generation consumers convert it to fallback content.
	ErrUpstream = errors.New("generation backend error")
	// ErrUpstreamTimeout is returned when the caller's context expires before
	// the generation backend produced a result.
	ErrUpstreamTimeout = errors.New("generation backend timed out")
)
