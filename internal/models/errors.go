package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument indicates a malformed key, key list or value list
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCacheFailure indicates that the cache backend reported a failure
	ErrCacheFailure = errors.New("cache failure")

	// ErrRateLimitExceeded indicates that rate limit has been exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrUnsupportedBackend indicates an unknown CACHE_BACKEND value
	ErrUnsupportedBackend = errors.New("unsupported cache backend")
)

// ErrorKind discriminates the two families of cache errors
type ErrorKind string

const (
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindCacheFailure    ErrorKind = "cache_failure"
)

// CacheError represents an error raised by a cache operation
type CacheError struct {
	Kind    ErrorKind
	Op      string
	Key     string
	Message string
	Err     error
}

func (e *CacheError) Error() string {
	prefix := e.Op
	if e.Key != "" {
		prefix = fmt.Sprintf("%s %q", e.Op, e.Key)
	}
	if e.Err != nil && e.Kind == KindCacheFailure {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching the error kind
func (e *CacheError) Is(target error) bool {
	switch e.Kind {
	case KindInvalidArgument:
		return target == ErrInvalidArgument
	case KindCacheFailure:
		return target == ErrCacheFailure
	}
	return false
}

// NewInvalidArgumentError creates an InvalidArgument error for the given operation
func NewInvalidArgumentError(op, key, message string) *CacheError {
	return &CacheError{
		Kind:    KindInvalidArgument,
		Op:      op,
		Key:     key,
		Message: message,
	}
}

// NewCacheFailureError wraps a backend error, keeping it reachable through errors.Is/As
func NewCacheFailureError(op, key string, err error) *CacheError {
	return &CacheError{
		Kind:    KindCacheFailure,
		Op:      op,
		Key:     key,
		Message: "backend operation failed",
		Err:     err,
	}
}

// IsInvalidArgument reports whether err carries the InvalidArgument kind
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsCacheFailure reports whether err carries the CacheFailure kind
func IsCacheFailure(err error) bool {
	return errors.Is(err, ErrCacheFailure)
}
