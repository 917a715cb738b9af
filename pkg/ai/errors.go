package ai

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind classifies provider failures for retry decisions.
type ErrorKind int

const (
	KindProvider ErrorKind = iota
	KindRateLimited
	KindTimeout
)

// Error is a provider failure carrying its retry classification.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsRateLimited checks if the error indicates API quota exhaustion (429).
// Typed errors are checked first; providers that surface plain errors fall
// back to message classification.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind == KindRateLimited
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var aiErr *Error
	if errors.As(err, &aiErr) && aiErr.Kind == KindTimeout {
		return true
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
