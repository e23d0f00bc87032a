package tts

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errEmptyJSONBody = errors.New("empty JSON body")

// parseJSON parses a response body into the target, rejecting empty bodies.
func parseJSON(data []byte, target any) error {
	if len(data) == 0 {
		return errEmptyJSONBody
	}

	err := json.Unmarshal(data, target)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}
