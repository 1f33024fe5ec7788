package kv

import (
	"errors"

	"github.com/jacentio/rescue/internal/keyspace"
)

var (
	// ErrInvalidKey is returned when a key is empty, reserved ("." or "..") or
	// longer than 512 bytes.
	ErrInvalidKey = keyspace.ErrInvalidKey

	// ErrInvalidCursor is returned when ListOptions.Cursor was not produced by List.
	ErrInvalidCursor = keyspace.ErrInvalidCursor

	// ErrInvalidExpiration is returned when a Put expiration is less than
	// MinExpirationTTL in the future.
	ErrInvalidExpiration = errors.New("rescue: expiration must be at least 60 seconds in the future")

	// ErrValueTooLarge is returned when a value exceeds MaxValueSize.
	ErrValueTooLarge = errors.New("rescue: value too large")

	// ErrTableNotFound is returned when the configured DynamoDB table does not exist.
	ErrTableNotFound = errors.New("rescue: table not found")
)
