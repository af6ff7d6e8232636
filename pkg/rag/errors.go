package rag

import "errors"

// Error kinds of the query pipeline. Everything except
// ErrIndexUnavailable is caught at the orchestrator boundary and
// converted into the error response variant; the index failing to
// build is fatal at startup.
var (
	// ErrIndexUnavailable means the reference-embedding catalog could
	// not be loaded.
	ErrIndexUnavailable = errors.New("similarity index unavailable")

	// ErrEmbeddingFailure is a transient embedding-provider failure.
	// The pipeline retries the call exactly once before surfacing it.
	ErrEmbeddingFailure = errors.New("embedding generation failed")

	// ErrSessionNotFound means the client supplied a session id that
	// no longer exists. The user is asked to restart.
	ErrSessionNotFound = errors.New("session not found")

	// ErrGenerationTimeout means the answer LLM call exceeded its
	// deadline. Never auto-retried: a second generation call would
	// double the most expensive step in the pipeline.
	ErrGenerationTimeout = errors.New("answer generation timed out")
)
