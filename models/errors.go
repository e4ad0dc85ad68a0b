package models

import "errors"

// Business rule rejections. Callers wrap these with context using %w and
// compare with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidState        = errors.New("invalid bet state")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyJoined       = errors.New("already joined")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInvalidOutcome      = errors.New("invalid outcome")
	ErrUsernameTaken       = errors.New("username already taken")
)
