package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConversationClosed is returned for operations on a finalized or cancelled conversation.
	ErrConversationClosed = errors.New("conversation closed")
	// ErrNothingSelected is returned when finalizing without any selected lesson.
	ErrNothingSelected = errors.New("no lessons selected")
	// ErrConversationBusy is returned for edits while a conversation is finalizing.
	ErrConversationBusy = errors.New("conversation is finalizing")
)
