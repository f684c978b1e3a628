// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Extraction errors.
	ErrFormatNotRecognized = errors.New("statement format not recognized")
	ErrLineParse           = errors.New("line could not be parsed")

	// Rule store errors.
	ErrInvalidRuleDefinition = errors.New("invalid rule definition")
	ErrMalformedRuleDocument = errors.New("malformed rule document")
	ErrRuleNotFound          = errors.New("rule not found")
	ErrNotFound              = errors.New("not found")
	ErrOrganizationMismatch  = errors.New("rules belong to another organization")

	// Classification errors.
	ErrInvalidCategory  = errors.New("invalid category")
	ErrReservedCategory = errors.New("reserved category")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage returns the user-facing message carried by err, or err's own text.
func UserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}
