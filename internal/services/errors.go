package services

import "errors"

var (
	ErrUnknownDomain  = errors.New("unknown domain code")
	ErrEmptyOverview  = errors.New("no questions found for partition")
	ErrUpdateProgress = errors.New("failed to update progress")
)
