package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/rescue/internal/keyspace"
)

// API is the subset of the DynamoDB client the Store uses.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Store is a Namespace backed by a DynamoDB table.
type Store struct {
	client API
	config Config
	pk     string
	now    func() time.Time
}

var _ Namespace = (*Store)(nil)

// item is the DynamoDB representation of one key.
type item struct {
	PK         string `dynamodbav:"pk"`
	SK         string `dynamodbav:"sk"`
	Value      string `dynamodbav:"value"`
	Expiration int64  `dynamodbav:"expiration,omitempty"`
}

// New creates a new Store bound to config.Namespace.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
		pk:     keyspace.PartitionKey(config.Namespace),
		now:    time.Now,
	}
}

// Namespace returns the binding name this Store serves.
func (s *Store) Namespace() string {
	return s.config.Namespace
}

// Table returns the DynamoDB table name.
func (s *Store) Table() string {
	return s.config.Table
}

// Get retrieves the value stored under key. Missing and expired keys return
// ok == false with a nil error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := keyspace.ValidateKey(key); err != nil {
		return nil, false, err
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.Table),
		Key:            s.primaryKey(key),
		ConsistentRead: aws.Bool(s.config.ConsistentRead),
	})
	if err != nil {
		return nil, false, s.mapError(fmt.Sprintf("get %q", key), err)
	}
	if result.Item == nil {
		return nil, false, nil
	}
	if IsExpired(result.Item, s.now()) {
		return nil, false, nil
	}

	it, err := unmarshalItem(result.Item)
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return []byte(it.Value), true, nil
}

// List returns one page of live keys in ascending order.
func (s *Store) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	start, err := keyspace.DecodeCursor(opts.Cursor)
	if err != nil {
		return ListResult{}, err
	}

	now := s.now()
	keyCond := expression.Key("pk").Equal(expression.Value(s.pk))
	if opts.Prefix != "" {
		keyCond = keyCond.And(expression.Key("sk").BeginsWith(opts.Prefix))
	}
	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(liveFilter(now)).
		WithProjection(expression.NamesList(expression.Name("sk"), expression.Name(expirationAttr))).
		Build()
	if err != nil {
		return ListResult{}, fmt.Errorf("build list expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.Table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(s.config.ConsistentRead),
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(int32(pageLimit(opts.Limit))),
	}
	if start != "" {
		input.ExclusiveStartKey = s.primaryKey(start)
	}

	// Single page only; callers follow Cursor if they want more.
	page, err := s.client.Query(ctx, input)
	if err != nil {
		return ListResult{}, s.mapError("list", err)
	}

	result := ListResult{Keys: make([]Key, 0, len(page.Items))}
	for _, raw := range page.Items {
		it, err := unmarshalItem(raw)
		if err != nil {
			return ListResult{}, fmt.Errorf("list: %w", err)
		}
		if expired(it.Expiration, now) || !strings.HasPrefix(it.SK, opts.Prefix) {
			continue
		}
		result.Keys = append(result.Keys, Key{Name: it.SK, Expiration: it.Expiration})
	}

	if len(page.LastEvaluatedKey) == 0 {
		result.ListComplete = true
		return result, nil
	}
	var last item
	if err := attributevalue.UnmarshalMap(page.LastEvaluatedKey, &last); err != nil {
		return ListResult{}, fmt.Errorf("list: unmarshal last key: %w", err)
	}
	result.Cursor = keyspace.EncodeCursor(last.SK)
	return result, nil
}

// Put stores value under key. Writes are unconditional: an existing value is
// replaced.
func (s *Store) Put(ctx context.Context, key string, value []byte, opts PutOptions) error {
	if err := keyspace.ValidateKey(key); err != nil {
		return err
	}
	if len(value) > MaxValueSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrValueTooLarge, len(value), MaxValueSize)
	}
	exp, err := opts.expiresAt(s.now())
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(item{
		PK:         s.pk,
		SK:         key,
		Value:      string(value),
		Expiration: exp,
	})
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.Table),
		Item:      av,
	})
	if err != nil {
		return s.mapError(fmt.Sprintf("put %q", key), err)
	}
	return nil
}

// primaryKey builds the DynamoDB key for key in this namespace.
func (s *Store) primaryKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: s.pk},
		"sk": &types.AttributeValueMemberS{Value: key},
	}
}

// mapError maps DynamoDB errors onto package errors.
func (s *Store) mapError(op string, err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%s: %w: %s", op, ErrTableNotFound, s.config.Table)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// unmarshalItem converts a DynamoDB item to an item struct.
func unmarshalItem(raw map[string]types.AttributeValue) (item, error) {
	var it item
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return item{}, fmt.Errorf("unmarshal item: %w", err)
	}
	return it, nil
}
