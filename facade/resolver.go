package facade

import (
	"context"
	"errors"
	"log/slog"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/rescue/kv"
	"github.com/jacentio/rescue/record"
)

const (
	opRecord       = "record"
	opRecords      = "records"
	opCreateRecord = "createRecord"
)

// defaultListConcurrency caps the point reads records keeps in flight.
const defaultListConcurrency = 64

// Resolver is the root resolver for Query and Mutation. It holds no
// per-request state and is safe for concurrent use.
type Resolver struct {
	logger          *slog.Logger
	metrics         *Metrics
	listConcurrency int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMetrics records every resolver call in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithListConcurrency bounds the concurrent Gets issued by records.
// Values below 1 leave the default.
func WithListConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.listConcurrency = n
		}
	}
}

// NewResolver creates a root resolver.
func NewResolver(logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		logger:          logger,
		listConcurrency: defaultListConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record resolves Query.record: one Get, null when absent.
func (r *Resolver) Record(ctx context.Context, args struct{ ID graphql.ID }) (res *recordResolver, err error) {
	defer r.track(ctx, opRecord, time.Now(), &err)

	ns, err := namespaceFrom(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := fetch(ctx, ns, string(args.ID))
	if err != nil || rec == nil {
		return nil, err
	}
	return &recordResolver{rec: *rec}, nil
}

// Records resolves Query.records: one List page, then one Get per key.
// Output order follows the listing; keys that vanished resolve to null.
func (r *Resolver) Records(ctx context.Context) (res *[]*recordResolver, err error) {
	defer r.track(ctx, opRecords, time.Now(), &err)

	ns, err := namespaceFrom(ctx)
	if err != nil {
		return nil, err
	}
	page, err := ns.List(ctx, kv.ListOptions{})
	if err != nil {
		return nil, err
	}
	if !page.ListComplete {
		r.logger.WarnContext(ctx, "records truncated to first page", "keys", len(page.Keys))
	}

	out := make([]*recordResolver, len(page.Keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.listConcurrency)
	for i, key := range page.Keys {
		i, key := i, key
		g.Go(func() error {
			rec, err := fetch(gctx, ns, key.Name)
			if err != nil {
				return err
			}
			if rec != nil {
				out[i] = &recordResolver{rec: *rec}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRecord resolves Mutation.createRecord: one Put under a new id.
func (r *Resolver) CreateRecord(ctx context.Context, args struct {
	Name    string
	Species *string
}) (res *recordResolver, err error) {
	defer r.track(ctx, opCreateRecord, time.Now(), &err)

	ns, err := namespaceFrom(ctx)
	if err != nil {
		return nil, err
	}

	var species *record.Species
	if args.Species != nil {
		// graphql-go has already validated the enum value.
		s, err := record.ParseSpecies(*args.Species)
		if err != nil {
			return nil, err
		}
		species = &s
	}

	rec := record.New(args.Name, species)
	value, err := record.Encode(rec)
	if err != nil {
		return nil, err
	}
	if err := ns.Put(ctx, rec.ID, value, kv.PutOptions{}); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "record created", "id", rec.ID)
	return &recordResolver{rec: rec}, nil
}

// track classifies *errp, logs it and records metrics. It runs deferred so
// every return path of a resolver goes through it.
func (r *Resolver) track(ctx context.Context, operation string, start time.Time, errp *error) {
	if *errp == nil {
		r.metrics.observe(operation, start, nil)
		return
	}

	e := classify(operation, *errp)
	switch e.Code {
	case CodeCancelled, CodeDeadlineExceeded:
		r.logger.WarnContext(ctx, "resolver interrupted", "operation", operation, "error", *errp)
	default:
		r.logger.ErrorContext(ctx, "resolver failed", "operation", operation, "code", e.Code, "error", *errp)
	}
	r.metrics.observe(operation, start, e)
	*errp = e
}

// namespaceFrom returns the bound namespace or ErrNoNamespace.
func namespaceFrom(ctx context.Context) (kv.Namespace, error) {
	ns, ok := NamespaceFrom(ctx)
	if !ok {
		return nil, ErrNoNamespace
	}
	return ns, nil
}

// fetch reads and decodes one record. A missing key, or a key the namespace
// could never hold, is (nil, nil).
func fetch(ctx context.Context, ns kv.Namespace, key string) (*record.Record, error) {
	value, ok, err := ns.Get(ctx, key)
	if errors.Is(err, kv.ErrInvalidKey) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	rec, err := record.Decode(value)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// recordResolver resolves the Record type.
type recordResolver struct {
	rec record.Record
}

func (r *recordResolver) ID() graphql.ID { return graphql.ID(r.rec.ID) }

func (r *recordResolver) Name() string { return r.rec.Name }

func (r *recordResolver) Species() *string {
	if r.rec.Species == nil {
		return nil
	}
	s := string(*r.rec.Species)
	return &s
}
