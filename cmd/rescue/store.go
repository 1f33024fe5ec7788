package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/rescue/kv"
)

const (
	storeDynamoDB = "dynamodb"
	storeMemory   = "memory"
)

// newNamespace builds the namespace selected by configuration.
func newNamespace(ctx context.Context, logger *slog.Logger) (kv.Namespace, error) {
	switch backend := cfg.GetString(cfgStore); backend {
	case storeMemory:
		logger.Warn("using in-memory namespace; records are lost on exit")
		return kv.NewMemory(), nil
	case storeDynamoDB:
		client, err := newDynamoDBClient(ctx)
		if err != nil {
			return nil, err
		}
		s := kv.New(client, kv.Config{
			Table:          cfg.GetString(cfgTable),
			Namespace:      cfg.GetString(cfgNamespace),
			ConsistentRead: cfg.GetBool(cfgConsistentRead),
		})
		logger.Info("namespace bound",
			"table", s.Table(),
			"namespace", s.Namespace(),
		)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown %s %q: want %s or %s", cfgStore, backend, storeDynamoDB, storeMemory)
	}
}

// newDynamoDBClient loads AWS configuration from the default chain.
func newDynamoDBClient(ctx context.Context) (*dynamodb.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region := cfg.GetString(cfgRegion); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	endpoint := cfg.GetString(cfgEndpoint)
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}
