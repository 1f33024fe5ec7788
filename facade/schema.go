package facade

import (
	"context"
	"fmt"
	"log/slog"

	graphql "github.com/graph-gophers/graphql-go"
)

// Schema is the GraphQL schema served by the facade.
const Schema = `
	schema {
		query: Query
		mutation: Mutation
	}

	enum Species {
		DOG
		CAT
	}

	type Record {
		id: ID!
		name: String!
		species: Species
	}

	type Query {
		record(id: ID!): Record
		records: [Record]
	}

	type Mutation {
		createRecord(name: String!, species: Species): Record
	}
`

// maxParallelism bounds how many fields graphql-go resolves at once per request.
const maxParallelism = 20

// NewSchema parses Schema against r.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(Schema, r,
		graphql.MaxParallelism(maxParallelism),
		graphql.Logger(panicLogger{logger: r.logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return schema, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(r *Resolver) *graphql.Schema {
	schema, err := NewSchema(r)
	if err != nil {
		panic(err)
	}
	return schema
}

// panicLogger routes resolver panics recovered by graphql-go to slog.
type panicLogger struct {
	logger *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.logger.ErrorContext(ctx, "graphql resolver panic", "panic", value)
}
