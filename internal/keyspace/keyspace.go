// Package keyspace derives DynamoDB partition keys for key-value namespaces
// and validates the keys stored inside them.
package keyspace

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// MaxKeyLength is the longest key, in bytes, a namespace accepts.
const MaxKeyLength = 512

const partitionPrefix = "ns#"

var (
	// ErrInvalidKey is returned for empty, oversized or reserved keys.
	ErrInvalidKey = errors.New("rescue: invalid key")

	// ErrInvalidCursor is returned when a list cursor cannot be decoded.
	ErrInvalidCursor = errors.New("rescue: invalid list cursor")
)

// PartitionKey computes the partition key holding every key of a namespace.
// All keys of one namespace share a partition so a single Query returns them
// in sort-key (lexicographic) order.
func PartitionKey(namespace string) string {
	return partitionPrefix + namespace
}

// ValidateKey rejects keys that cannot be stored.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: key is empty", ErrInvalidKey)
	case key == "." || key == "..":
		return fmt.Errorf("%w: %q is reserved", ErrInvalidKey, key)
	case len(key) > MaxKeyLength:
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidKey, len(key), MaxKeyLength)
	}
	return nil
}

// EncodeCursor turns the last key of a page into an opaque cursor.
func EncodeCursor(lastKey string) string {
	if lastKey == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(lastKey))
}

// DecodeCursor reverses EncodeCursor. An empty cursor decodes to "".
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := ValidateKey(string(b)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return string(b), nil
}
