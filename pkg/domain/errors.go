package domain

import "errors"

var (
	// ErrFetch marks media that could not be resolved, downloaded or transcoded.
	ErrFetch = errors.New("media fetch failed")

	// ErrVoiceJoin marks a voice chat that could not be joined or started.
	ErrVoiceJoin = errors.New("voice join failed")

	// ErrVoiceControl marks a failed leave, pause or resume.
	ErrVoiceControl = errors.New("voice control failed")

	// ErrAssistant marks a failed language model call.
	ErrAssistant = errors.New("assistant request failed")
)
