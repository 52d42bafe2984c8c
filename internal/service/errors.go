package service

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAllSourcesFailed     = errors.New("all data sources failed")
	ErrPersistenceFailure   = errors.New("persistence failure")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)
