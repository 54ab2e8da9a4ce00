// Package server serves a built schema over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/graphql-go/graphql"

	"github.com/syssam/postgraph/dialect"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/inventory"
)

// Sessioner opens one pinned storage session per request.
type Sessioner interface {
	Session(ctx context.Context) (dialect.Session, error)
}

// Request is the body of a GraphQL POST request.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// Handler executes GraphQL requests against the current schema. The schema
// can be swapped while requests are served.
type Handler struct {
	schema           atomic.Pointer[graphql.Schema]
	db               Sessioner
	logger           *slog.Logger
	statementTimeout time.Duration
	maxBodyBytes     int64
}

// DefaultMaxBodyBytes bounds the size of a request body.
const DefaultMaxBodyBytes = 1 << 20

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithMaxBodyBytes bounds the size of a request body. Default is
// DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		h.maxBodyBytes = n
	}
}

// WithStatementTimeout sets the statement_timeout of every request session.
func WithStatementTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.statementTimeout = d
	}
}

// NewHandler returns a handler serving s.
func NewHandler(s graphql.Schema, db Sessioner, opts ...Option) *Handler {
	h := &Handler{db: db, logger: slog.Default(), maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(h)
	}
	h.SetSchema(s)
	return h
}

// SetSchema replaces the served schema. Requests in flight finish on the
// schema they started with.
func (h *Handler) SetSchema(s graphql.Schema) {
	h.schema.Store(&s)
}

// Schema returns the served schema.
func (h *Handler) Schema() graphql.Schema {
	return *h.schema.Load()
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		if tooLarge := (*http.MaxBytesError)(nil); errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	start := time.Now()
	sess, err := h.db.Session(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "open session", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	defer func() {
		if err := sess.Close(); err != nil {
			h.logger.WarnContext(r.Context(), "close session", "error", err)
		}
	}()

	ictx := inventory.NewContext(sess, h.logger)
	ctx := inventory.WithContext(r.Context(), ictx)
	if h.statementTimeout > 0 {
		ctx = sql.WithVar(ctx, "statement_timeout", strconv.FormatInt(h.statementTimeout.Milliseconds(), 10))
	}
	result := graphql.Do(graphql.Params{
		Schema:         h.Schema(),
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	ictx.Logger.InfoContext(ctx, "graphql request",
		"operation", req.OperationName,
		"duration", time.Since(start),
		"errors", len(result.Errors),
	)
	w.Header().Set("X-Request-Id", ictx.ID.String())
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]string{{"message": msg}},
	})
}

// NewMux routes POST /graphql to h and serves the playground at /.
func NewMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	mux.Handle("/", playground.Handler("postgraph", "/graphql"))
	return mux
}
