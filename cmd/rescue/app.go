package main

import (
	"context"
	"log/slog"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacentio/rescue/facade"
	"github.com/jacentio/rescue/kv"
)

// app is the wiring shared by serve and lambda.
type app struct {
	logger *slog.Logger
	schema *graphql.Schema
	ns     kv.Namespace
}

// newApp binds the configured namespace and parses the schema. Metrics are
// registered with reg when it is non-nil.
func newApp(ctx context.Context, logger *slog.Logger, reg prometheus.Registerer) (*app, error) {
	ns, err := newNamespace(ctx, logger)
	if err != nil {
		return nil, err
	}

	opts := []facade.Option{facade.WithListConcurrency(cfg.GetInt(cfgListConcurrency))}
	if reg != nil {
		m, err := facade.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, facade.WithMetrics(m))
	}

	schema, err := facade.NewSchema(facade.NewResolver(logger, opts...))
	if err != nil {
		return nil, err
	}
	return &app{logger: logger, schema: schema, ns: ns}, nil
}
