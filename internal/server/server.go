// Package server exposes the document read API over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	collection "github.com/quillcms/quill/internal/collection"
	eventbus "github.com/quillcms/quill/internal/eventbus"
	events "github.com/quillcms/quill/internal/events"
	field "github.com/quillcms/quill/internal/field"
	reqid "github.com/quillcms/quill/internal/reqid"
	request "github.com/quillcms/quill/internal/request"
)

// Handler is an http.Handler serving collection reads:
//
//	GET /api/{collection}        find (paginated)
//	GET /api/{collection}/{id}   findByID
//
// Both accept locale, fallback-locale, depth and draft query
// parameters; find additionally accepts limit and page.
type Handler struct {
	api *collection.API
	mux *http.ServeMux
	opt Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxDepth caps the depth query parameter. 0 applies the default cap.
	MaxDepth int

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxDepth(n int) Option          { return func(o *Options) { o.MaxDepth = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

const defaultMaxDepth = 10

// New creates the read API handler for the given operations.
func New(api *collection.API, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second, MaxDepth: defaultMaxDepth}
	for _, f := range opts {
		f(&op)
	}
	h := &Handler{api: api, opt: op}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{collection}", h.handleFind)
	mux.HandleFunc("GET /api/{collection}/{id}", h.handleFindByID)
	mux.HandleFunc("OPTIONS /api/", h.handlePreflight)
	h.mux = mux
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	ctx, _ = reqid.NewContext(ctx)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: sw.status, Duration: time.Since(start)})
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(sw, r, h.opt.CORS)
	}
	h.mux.ServeHTTP(sw, r.WithContext(ctx))
}

func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFindByID(w http.ResponseWriter, r *http.Request) {
	args, err := h.readArgs(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	args.ID = r.PathValue("id")

	doc, err := h.api.FindByID(r.Context(), args)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleFind(w http.ResponseWriter, r *http.Request) {
	args, err := h.readArgs(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.api.Find(r.Context(), args)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// readArgs decodes the shared query parameters. HTTP reads are
// unauthenticated here (auth is out of scope) but access rules still
// apply: OverrideAccess is never set from the wire.
func (h *Handler) readArgs(r *http.Request) (collection.ReadArgs, error) {
	q := r.URL.Query()
	args := collection.ReadArgs{
		Collection:     r.PathValue("collection"),
		Locale:         q.Get("locale"),
		FallbackLocale: q.Get("fallback-locale"),
		Req:            &request.Context{Data: map[string]any{}},
	}

	var err error
	if args.Depth, err = intParam(q.Get("depth"), 0); err != nil {
		return args, err
	}
	maxDepth := h.opt.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	if args.Depth > maxDepth {
		args.Depth = maxDepth
	}
	if args.Limit, err = intParam(q.Get("limit"), 10); err != nil {
		return args, err
	}
	if args.Page, err = intParam(q.Get("page"), 1); err != nil {
		return args, err
	}
	if v := q.Get("draft"); v != "" {
		if args.Draft, err = strconv.ParseBool(v); err != nil {
			return args, errors.New("invalid 'draft' parameter")
		}
	}
	return args, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid numeric parameter " + strconv.Quote(raw))
	}
	return n, nil
}

func statusFor(err error) int {
	var notFound *collection.ErrNotFound
	var unknown *collection.ErrUnknownCollection
	var config *field.ConfigError
	switch {
	case errors.As(err, &notFound), errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &config):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Errors []errorEntry `json:"errors"`
}

type errorEntry struct {
	Message string `json:"message"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorBody{Errors: []errorEntry{{Message: err.Error()}}})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, c CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			return
		}
	}
}

// statusWriter records the response status for the finish event.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
