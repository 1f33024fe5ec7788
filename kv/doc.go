// Package kv provides a key-value namespace with a DynamoDB implementation.
//
// A namespace is a flat set of string keys mapped to opaque values. It offers
// exactly three operations:
//
//	type Namespace interface {
//	    Get(ctx context.Context, key string) ([]byte, bool, error)
//	    List(ctx context.Context, opts ListOptions) (ListResult, error)
//	    Put(ctx context.Context, key string, value []byte, opts PutOptions) error
//	}
//
// [Store] keeps every namespace of an application in one DynamoDB table. Each
// namespace is a single partition (pk = "ns#<name>") and each key is a sort
// key, so [Store.List] returns keys in lexicographic order. Values may carry
// an expiration; expired values read as absent and are skipped by List. The
// expiration attribute doubles as the table's DynamoDB TTL attribute so the
// table reclaims them eventually.
//
// [Memory] implements the same contract in process for local development and
// tests.
//
// # Table layout
//
//	pk         S  partition key, "ns#<namespace>"
//	sk         S  sort key, the record key
//	value      S  stored value
//	expiration N  optional unix seconds, enable TTL on this attribute
//
// # Errors
//
//   - [ErrInvalidKey] - key is empty, reserved or longer than 512 bytes
//   - [ErrInvalidExpiration] - expiration is less than 60 seconds away
//   - [ErrValueTooLarge] - value does not fit in a DynamoDB item
//   - [ErrTableNotFound] - the configured table does not exist
//
// A missing key is not an error: Get reports it with ok == false.
package kv
