package kv

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultListLimit is the page size used when ListOptions.Limit is zero,
	// and the largest page List returns.
	DefaultListLimit = 1000

	// MinExpirationTTL is the shortest expiration Put accepts.
	MinExpirationTTL = 60 * time.Second

	// MaxValueSize keeps an item below the 400 KB DynamoDB item limit once
	// the key attributes are added.
	MaxValueSize = 390 * 1024
)

// Namespace is the key-value capability the GraphQL facade depends on.
type Namespace interface {
	// Get returns the value stored under key. ok is false when the key does
	// not exist or has expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// List returns one page of keys in lexicographic order.
	List(ctx context.Context, opts ListOptions) (ListResult, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte, opts PutOptions) error
}

// Key is a listed key.
type Key struct {
	Name string

	// Expiration is the unix time the key expires at, 0 if it never expires.
	Expiration int64
}

// ListOptions configures a List call.
type ListOptions struct {
	// Prefix restricts the page to keys starting with it.
	Prefix string

	// Limit is the maximum number of keys to return (0 = DefaultListLimit).
	// Values above DefaultListLimit are clamped.
	Limit int

	// Cursor continues a previous List. Empty starts from the first key.
	Cursor string
}

// ListResult is one page of keys.
type ListResult struct {
	Keys []Key

	// ListComplete is true when no keys follow this page.
	ListComplete bool

	// Cursor is passed back in ListOptions to fetch the next page.
	// Empty when ListComplete is true.
	Cursor string
}

// PutOptions configures a Put call. At most one field should be set; when
// both are, Expiration wins.
type PutOptions struct {
	// Expiration is the absolute time the value expires.
	Expiration time.Time

	// ExpirationTTL is the lifetime of the value from now.
	ExpirationTTL time.Duration
}

// expiresAt resolves the options into unix seconds (0 = never).
func (o PutOptions) expiresAt(now time.Time) (int64, error) {
	switch {
	case !o.Expiration.IsZero():
		if o.Expiration.Sub(now) < MinExpirationTTL {
			return 0, fmt.Errorf("%w: expiration %s", ErrInvalidExpiration, o.Expiration.UTC().Format(time.RFC3339))
		}
		return o.Expiration.Unix(), nil
	case o.ExpirationTTL != 0:
		if o.ExpirationTTL < MinExpirationTTL {
			return 0, fmt.Errorf("%w: ttl %s", ErrInvalidExpiration, o.ExpirationTTL)
		}
		return now.Add(o.ExpirationTTL).Unix(), nil
	}
	return 0, nil
}

// pageLimit clamps a requested page size.
func pageLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
