// Package repository defines the contract for storing daily summaries and
// the error type every implementation reports.
package repository

import (
	"context"
	"errors"
	"fmt"

	"soda/internal/core"
)

// Operation names carried by Error.
const (
	OpCreate = "create"
	OpList   = "list"
	OpUpdate = "update"
	OpDelete = "delete"
)

var ErrNotFound = errors.New("summary not found")

// Repository stores daily summaries. IDs are assigned by the implementation.
type Repository interface {
	Create(ctx context.Context, f core.Fields) (string, error)
	ListAll(ctx context.Context) ([]core.Summary, error)
	Update(ctx context.Context, id string, f core.Fields) error
	Delete(ctx context.Context, id string) error
}

// Error is a failed repository call. Status is an HTTP-like status code, or
// 0 when the call never got a response. Message is fit for display.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s summary: status %d: %s", e.Op, e.Status, msg)
	}
	return fmt.Sprintf("%s summary: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the displayable message of a repository error, or
// fallback when err carries none.
func Message(err error, fallback string) string {
	var re *Error
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}

// Status returns the status code of a repository error, or 0.
func Status(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}
