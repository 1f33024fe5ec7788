package facade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/jacentio/rescue/kv"
)

// MaxRequestBytes bounds the size of a GraphQL request body.
const MaxRequestBytes = 1 << 20

// ErrBadRequest is returned by DecodeParams for bodies that are not GraphQL
// request objects.
var ErrBadRequest = errors.New("rescue: malformed graphql request")

// Params is the standard GraphQL-over-HTTP request body.
type Params struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// DecodeParams reads a GraphQL request body.
func DecodeParams(r io.Reader) (Params, error) {
	var p Params
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if p.Query == "" {
		return Params{}, fmt.Errorf("%w: query is empty", ErrBadRequest)
	}
	return p, nil
}

// Execute runs params against schema with ns bound to the request.
func Execute(ctx context.Context, schema *graphql.Schema, ns kv.Namespace, p Params) *graphql.Response {
	return schema.Exec(WithNamespace(ctx, ns), p.Query, p.OperationName, p.Variables)
}

// StatusCode picks the HTTP status for a response. Requests rejected before
// any resolver ran (syntax or validation errors) carry no data and map to
// 400; everything else, field errors included, is 200.
func StatusCode(resp *graphql.Response) int {
	if len(resp.Errors) > 0 && len(resp.Data) == 0 {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

// Handler serves GraphQL over HTTP POST against a single namespace.
type Handler struct {
	schema *graphql.Schema
	ns     kv.Namespace
	logger *slog.Logger
}

// NewHandler creates a Handler binding ns into every request it serves.
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

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	params, err := DecodeParams(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	if err != nil {
		h.logger.DebugContext(r.Context(), "rejected graphql request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	resp := Execute(r.Context(), h.schema, h.ns, params)
	body, err := json.Marshal(resp)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to marshal graphql response", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, StatusCode(resp), body)
}

// errorBody renders a GraphQL-shaped error envelope for transport failures.
func errorBody(message string) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"errors": []map[string]string{{"message": message}},
	})
	return b
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
