package model

import "fmt"

// ValidationError reports a single rejected input field. Returned before any
// write is attempted.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
