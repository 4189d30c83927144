package main

import "errors"

// Sentinel errors for command operations
var (
	ErrSameCandidate    = errors.New("candidates must differ")
	ErrUnknownFormat    = errors.New("unknown output format")
	ErrFileExists       = errors.New("file already exists")
	ErrNoLogDestination = errors.New("cannot open log output")
)
