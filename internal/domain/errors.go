package domain

import "errors"

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrInvalidCandidate  = errors.New("invalid candidate")
	ErrPersistence       = errors.New("persistence failure")
	ErrConfiguration     = errors.New("configuration error")
)
