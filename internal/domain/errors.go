// Package domain holds the error taxonomy shared by every SlopScan layer.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for callers that need to react to it.
type ErrorKind string

const (
	KindRecognition ErrorKind = "recognition"
	KindEmbedding   ErrorKind = "embedding"
	KindSearch      ErrorKind = "search"
	KindNotFound    ErrorKind = "not_found"
	KindValidation  ErrorKind = "validation"
	KindConfig      ErrorKind = "config"
	KindInternal    ErrorKind = "internal"
)

// Error is a classified error with context.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func RecognitionError(message string, err error) *Error {
	return NewError(KindRecognition, message, err)
}

func EmbeddingError(message string, err error) *Error {
	return NewError(KindEmbedding, message, err)
}

func SearchError(message string, err error) *Error {
	return NewError(KindSearch, message, err)
}

func NotFoundError(message string, err error) *Error {
	return NewError(KindNotFound, message, err)
}

func ValidationError(message string, err error) *Error {
	return NewError(KindValidation, message, err)
}

func ConfigError(message string, err error) *Error {
	return NewError(KindConfig, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
