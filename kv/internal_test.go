package kv

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// --- fake DynamoDB ---

// fakeAPI is a single-partition table. Query ignores the key condition and
// filter and returns items in sort-key order, honoring Limit and
// ExclusiveStartKey the way DynamoDB does.
type fakeAPI struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	getErr   error
	putErr   error
	queryErr error

	lastQuery *dynamodb.QueryInput
	lastGet   *dynamodb.GetItemInput
	lastPut   *dynamodb.PutItemInput
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]map[string]types.AttributeValue)}
}

func skOf(key map[string]types.AttributeValue) string {
	if v, ok := key["sk"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastGet = params
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: f.items[skOf(params.Key)]}, nil
}

func (f *fakeAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPut = params
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.items[skOf(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = params
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var sks []string
	for sk := range f.items {
		sks = append(sks, sk)
	}
	sort.Strings(sks)

	start := skOf(params.ExclusiveStartKey)
	out := &dynamodb.QueryOutput{}
	for _, sk := range sks {
		if start != "" && sk <= start {
			continue
		}
		if params.Limit != nil && int32(len(out.Items)) == *params.Limit {
			last := out.Items[len(out.Items)-1]
			out.LastEvaluatedKey = map[string]types.AttributeValue{"pk": last["pk"], "sk": last["sk"]}
			break
		}
		out.Items = append(out.Items, f.items[sk])
	}
	return out, nil
}

func (f *fakeAPI) seed(pk, sk, value string, expiration int64) {
	item := map[string]types.AttributeValue{
		"pk":    &types.AttributeValueMemberS{Value: pk},
		"sk":    &types.AttributeValueMemberS{Value: sk},
		"value": &types.AttributeValueMemberS{Value: value},
	}
	if expiration != 0 {
		item["expiration"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiration, 10)}
	}
	f.items[sk] = item
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(api *fakeAPI) *Store {
	s := New(api, DefaultConfig())
	s.now = func() time.Time { return fixedNow }
	return s
}

// --- Get Tests ---

func TestGet_Existing(t *testing.T) {
	api := newFakeAPI()
	api.seed("ns#animal_rescues", "k1", `{"id":"k1"}`, 0)
	s := newTestStore(api)

	value, ok, err := s.Get(context.Background(), "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected key to exist")
	}
	if string(value) != `{"id":"k1"}` {
		t.Errorf("expected stored value, got %q", value)
	}
	if aws.ToString(api.lastGet.TableName) != "rescue_kv" {
		t.Errorf("expected table 'rescue_kv', got %q", aws.ToString(api.lastGet.TableName))
	}
	if !aws.ToBool(api.lastGet.ConsistentRead) {
		t.Error("expected consistent read")
	}
	if pk, ok := api.lastGet.Key["pk"].(*types.AttributeValueMemberS); !ok || pk.Value != "ns#animal_rescues" {
		t.Errorf("expected pk 'ns#animal_rescues', got %v", api.lastGet.Key["pk"])
	}
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(newFakeAPI())

	value, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || value != nil {
		t.Errorf("expected absent key, got ok=%v value=%q", ok, value)
	}
}

func TestGet_Expired(t *testing.T) {
	api := newFakeAPI()
	api.seed("ns#animal_rescues", "old", "v", fixedNow.Unix()-1)
	api.seed("ns#animal_rescues", "now", "v", fixedNow.Unix())
	api.seed("ns#animal_rescues", "later", "v", fixedNow.Unix()+3600)
	s := newTestStore(api)

	tests := []struct {
		key    string
		wantOK bool
	}{
		{"old", false},
		{"now", false},
		{"later", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, ok, err := s.Get(context.Background(), tt.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("expected ok=%v, got %v", tt.wantOK, ok)
			}
		})
	}
}

func TestGet_InvalidKey(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(api)

	_, _, err := s.Get(context.Background(), "")
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if api.lastGet != nil {
		t.Error("expected no DynamoDB call for invalid key")
	}
}

func TestGet_TableNotFound(t *testing.T) {
	api := newFakeAPI()
	api.getErr = &types.ResourceNotFoundException{Message: aws.String("no table")}
	s := newTestStore(api)

	_, _, err := s.Get(context.Background(), "k1")
	if !errors.Is(err, ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestGet_ClientError(t *testing.T) {
	api := newFakeAPI()
	boom := errors.New("throttled")
	api.getErr = boom
	s := newTestStore(api)

	_, _, err := s.Get(context.Background(), "k1")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped client error, got %v", err)
	}
}

// --- Put Tests ---

func TestPut_WritesItem(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(api)

	if err := s.Put(context.Background(), "k1", []byte("hello"), PutOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := api.lastPut.Item
	if v, ok := got["value"].(*types.AttributeValueMemberS); !ok || v.Value != "hello" {
		t.Errorf("expected value 'hello', got %v", got["value"])
	}
	if v, ok := got["pk"].(*types.AttributeValueMemberS); !ok || v.Value != "ns#animal_rescues" {
		t.Errorf("expected pk 'ns#animal_rescues', got %v", got["pk"])
	}
	if _, ok := got["expiration"]; ok {
		t.Error("expected no expiration attribute")
	}
	if api.lastPut.ConditionExpression != nil {
		t.Error("expected unconditional put")
	}
}

func TestPut_ExpirationTTL(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(api)

	if err := s.Put(context.Background(), "k1", []byte("v"), PutOptions{ExpirationTTL: time.Hour}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strconv.FormatInt(fixedNow.Add(time.Hour).Unix(), 10)
	if v, ok := api.lastPut.Item["expiration"].(*types.AttributeValueMemberN); !ok || v.Value != want {
		t.Errorf("expected expiration %s, got %v", want, api.lastPut.Item["expiration"])
	}
}

func TestPut_InvalidExpiration(t *testing.T) {
	s := newTestStore(newFakeAPI())

	tests := []struct {
		name string
		opts PutOptions
	}{
		{"ttl too short", PutOptions{ExpirationTTL: 59 * time.Second}},
		{"absolute in past", PutOptions{Expiration: fixedNow.Add(-time.Minute)}},
		{"absolute too soon", PutOptions{Expiration: fixedNow.Add(30 * time.Second)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Put(context.Background(), "k1", []byte("v"), tt.opts)
			if !errors.Is(err, ErrInvalidExpiration) {
				t.Errorf("expected ErrInvalidExpiration, got %v", err)
			}
		})
	}
}

func TestPut_ValueTooLarge(t *testing.T) {
	s := newTestStore(newFakeAPI())

	err := s.Put(context.Background(), "k1", make([]byte, MaxValueSize+1), PutOptions{})
	if !errors.Is(err, ErrValueTooLarge) {
		t.Errorf("expected ErrValueTooLarge, got %v", err)
	}
}

func TestPut_ClientError(t *testing.T) {
	api := newFakeAPI()
	api.putErr = errors.New("service unavailable")
	s := newTestStore(api)

	if err := s.Put(context.Background(), "k1", []byte("v"), PutOptions{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPutThenGet(t *testing.T) {
	s := newTestStore(newFakeAPI())
	ctx := context.Background()

	if err := s.Put(ctx, "k1", []byte(`{"name":"Fido"}`), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, ok, err := s.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(value) != `{"name":"Fido"}` {
		t.Errorf("expected round-tripped value, got %q", value)
	}
}

// --- List Tests ---

func TestList_Ordered(t *testing.T) {
	api := newFakeAPI()
	for _, k := range []string{"c", "a", "b"} {
		api.seed("ns#animal_rescues", k, "v", 0)
	}
	s := newTestStore(api)

	result, err := s.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.ListComplete {
		t.Error("expected ListComplete")
	}
	if result.Cursor != "" {
		t.Errorf("expected empty cursor, got %q", result.Cursor)
	}
	var names []string
	for _, k := range result.Keys {
		names = append(names, k.Name)
	}
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("expected [a b c], got %v", names)
	}
	if aws.ToInt32(api.lastQuery.Limit) != DefaultListLimit {
		t.Errorf("expected Limit %d, got %d", DefaultListLimit, aws.ToInt32(api.lastQuery.Limit))
	}
	if !aws.ToBool(api.lastQuery.ScanIndexForward) {
		t.Error("expected ascending query")
	}
	if api.lastQuery.FilterExpression == nil {
		t.Error("expected expiration filter")
	}
}

func TestList_Empty(t *testing.T) {
	s := newTestStore(newFakeAPI())

	result, err := s.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Keys) != 0 || !result.ListComplete {
		t.Errorf("expected empty complete page, got %+v", result)
	}
}

func TestList_SkipsExpired(t *testing.T) {
	api := newFakeAPI()
	api.seed("ns#animal_rescues", "dead", "v", fixedNow.Unix()-10)
	api.seed("ns#animal_rescues", "live", "v", fixedNow.Unix()+10)
	api.seed("ns#animal_rescues", "forever", "v", 0)
	s := newTestStore(api)

	result, err := s.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Keys) != 2 {
		t.Fatalf("expected 2 live keys, got %+v", result.Keys)
	}
	if result.Keys[0].Name != "forever" || result.Keys[0].Expiration != 0 {
		t.Errorf("unexpected first key %+v", result.Keys[0])
	}
	if result.Keys[1].Name != "live" || result.Keys[1].Expiration != fixedNow.Unix()+10 {
		t.Errorf("unexpected second key %+v", result.Keys[1])
	}
}

func TestList_Pagination(t *testing.T) {
	api := newFakeAPI()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		api.seed("ns#animal_rescues", k, "v", 0)
	}
	s := newTestStore(api)
	ctx := context.Background()

	first, err := s.List(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if first.ListComplete || first.Cursor == "" {
		t.Fatalf("expected incomplete first page with cursor, got %+v", first)
	}
	if len(first.Keys) != 2 || first.Keys[1].Name != "b" {
		t.Fatalf("unexpected first page %+v", first.Keys)
	}

	second, err := s.List(ctx, ListOptions{Limit: 2, Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Keys) != 2 || second.Keys[0].Name != "c" || second.Keys[1].Name != "d" {
		t.Fatalf("unexpected second page %+v", second.Keys)
	}

	third, err := s.List(ctx, ListOptions{Limit: 2, Cursor: second.Cursor})
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third.Keys) != 1 || third.Keys[0].Name != "e" || !third.ListComplete {
		t.Fatalf("unexpected third page %+v", third)
	}
}

func TestList_Prefix(t *testing.T) {
	api := newFakeAPI()
	for _, k := range []string{"cat-1", "dog-1", "dog-2"} {
		api.seed("ns#animal_rescues", k, "v", 0)
	}
	s := newTestStore(api)

	result, err := s.List(context.Background(), ListOptions{Prefix: "dog-"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Keys) != 2 || result.Keys[0].Name != "dog-1" {
		t.Errorf("expected dog keys only, got %+v", result.Keys)
	}
}

func TestList_InvalidCursor(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(api)

	_, err := s.List(context.Background(), ListOptions{Cursor: "%%%"})
	if !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor, got %v", err)
	}
	if api.lastQuery != nil {
		t.Error("expected no query for invalid cursor")
	}
}

func TestList_ClientError(t *testing.T) {
	api := newFakeAPI()
	api.queryErr = &types.ResourceNotFoundException{Message: aws.String("missing")}
	s := newTestStore(api)

	_, err := s.List(context.Background(), ListOptions{})
	if !errors.Is(err, ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

// --- helper Tests ---

func TestIsExpired(t *testing.T) {
	tests := []struct {
		name     string
		item     map[string]types.AttributeValue
		expected bool
	}{
		{
			name:     "no expiration attribute",
			item:     map[string]types.AttributeValue{},
			expected: false,
		},
		{
			name: "expiration in past",
			item: map[string]types.AttributeValue{
				"expiration": &types.AttributeValueMemberN{Value: "1000000000"}, // 2001
			},
			expected: true,
		},
		{
			name: "expiration in future",
			item: map[string]types.AttributeValue{
				"expiration": &types.AttributeValueMemberN{Value: strconv.FormatInt(fixedNow.Unix()+3600, 10)},
			},
			expected: false,
		},
		{
			name: "expiration is now",
			item: map[string]types.AttributeValue{
				"expiration": &types.AttributeValueMemberN{Value: strconv.FormatInt(fixedNow.Unix(), 10)},
			},
			expected: true,
		},
		{
			name: "wrong type",
			item: map[string]types.AttributeValue{
				"expiration": &types.AttributeValueMemberS{Value: "1000000000"},
			},
			expected: false,
		},
		{
			name: "unparseable",
			item: map[string]types.AttributeValue{
				"expiration": &types.AttributeValueMemberN{Value: "soon"},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpired(tt.item, fixedNow); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPageLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultListLimit},
		{-5, DefaultListLimit},
		{1, 1},
		{250, 250},
		{DefaultListLimit, DefaultListLimit},
		{DefaultListLimit + 1, DefaultListLimit},
	}
	for _, tt := range tests {
		if got := pageLimit(tt.in); got != tt.want {
			t.Errorf("pageLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestExpiresAt_Precedence(t *testing.T) {
	abs := fixedNow.Add(2 * time.Hour)
	exp, err := PutOptions{Expiration: abs, ExpirationTTL: time.Hour}.expiresAt(fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp != abs.Unix() {
		t.Errorf("expected absolute expiration to win, got %d", exp)
	}
}

func TestUnmarshalItem_Minimal(t *testing.T) {
	it, err := unmarshalItem(map[string]types.AttributeValue{
		"sk": &types.AttributeValueMemberS{Value: "k1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.SK != "k1" || it.Value != "" || it.Expiration != 0 {
		t.Errorf("unexpected item %+v", it)
	}
}
