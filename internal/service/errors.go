package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrExpired          = errors.New("share link expired")
	ErrConflict         = errors.New("save already in progress")
	ErrUnavailable      = errors.New("feature unavailable")
)
