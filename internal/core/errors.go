package core

import (
	"errors"
	"fmt"
)

// Script generation failures shared by every ScriptGenerator backend.
var (
	ErrAPIKeyMissing = errors.New("api key required")
	ErrNoCandidates  = errors.New("no candidates in response")
	ErrEmptyContent  = errors.New("no content parts in response")
)

// APIStatusError reports a non-200 answer from the generative API.
type APIStatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIStatusError) Error() string {
	return fmt.Sprintf("generate content: http %d: %s", e.StatusCode, e.Body)
}
