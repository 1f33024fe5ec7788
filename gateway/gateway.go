// Package gateway serves the GraphQL facade from AWS Lambda behind an API
// Gateway HTTP API.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	graphql "github.com/graph-gophers/graphql-go"

	"github.com/jacentio/rescue/facade"
	"github.com/jacentio/rescue/kv"
)

// Handler turns API Gateway events into GraphQL executions.
type Handler struct {
	schema *graphql.Schema
	ns     kv.Namespace
	logger *slog.Logger
}

// NewHandler creates a new gateway handler bound to ns.
func NewHandler(schema *graphql.Schema, ns kv.Namespace, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		schema: schema,
		ns:     ns,
		logger: logger,
	}
}

// HandleRequest processes one HTTP API (payload v2) event.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleRequest(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := req.RequestContext.HTTP.Method
	if !strings.EqualFold(method, http.MethodPost) {
		resp := respond(http.StatusMethodNotAllowed, errorBody("method not allowed"))
		resp.Headers["Allow"] = http.MethodPost
		return resp, nil
	}

	body, err := requestBody(req)
	if err != nil {
		h.logger.Warn("undecodable request body",
			"requestID", req.RequestContext.RequestID,
			"error", err,
		)
		return respond(http.StatusBadRequest, errorBody("request body is not valid base64")), nil
	}

	params, err := facade.DecodeParams(strings.NewReader(body))
	if err != nil {
		return respond(http.StatusBadRequest, errorBody(err.Error())), nil
	}

	result := facade.Execute(ctx, h.schema, h.ns, params)
	out, err := json.Marshal(result)
	if err != nil {
		h.logger.Error("failed to marshal graphql response",
			"requestID", req.RequestContext.RequestID,
			"error", err,
		)
		return respond(http.StatusInternalServerError, errorBody("internal error")), nil
	}

	h.logger.Debug("graphql request served",
		"requestID", req.RequestContext.RequestID,
		"operationName", params.OperationName,
		"errors", len(result.Errors),
	)
	return respond(facade.StatusCode(result), string(out)), nil
}

// requestBody returns the raw request body, decoding base64 when API
// Gateway flagged it.
func requestBody(req events.APIGatewayV2HTTPRequest) (string, error) {
	if !req.IsBase64Encoded {
		return req.Body, nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// respond builds a JSON response.
func respond(status int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

// errorBody renders a GraphQL-shaped error envelope for transport failures.
func errorBody(message string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"errors": []map[string]string{{"message": message}},
	})
	return string(b)
}
