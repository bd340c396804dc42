package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"niwaki/internal/infra"
	"niwaki/internal/middleware"
)

type execCall struct {
	query string
	args  []any
}

// stubSQL answers queries by their sqlinline constant. Unknown queries fail
// loudly so a handler using the wrong statement is caught.
type stubSQL struct {
	mu       sync.Mutex
	rows     map[string][][]any
	row      map[string][]any
	rowErr   map[string]error
	iterErr  map[string]error
	execErr  map[string]error
	execTags map[string]string
	execs    []execCall
	queried  []execCall
}

func newStubSQL() *stubSQL {
	return &stubSQL{
		rows:     map[string][][]any{},
		row:      map[string][]any{},
		rowErr:   map[string]error{},
		iterErr:  map[string]error{},
		execErr:  map[string]error{},
		execTags: map[string]string{},
	}
}

func (s *stubSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execs = append(s.execs, execCall{query: query, args: args})
	if err := s.execErr[query]; err != nil {
		return pgconn.CommandTag{}, err
	}
	tag := s.execTags[query]
	if tag == "" {
		tag = "UPDATE 1"
	}
	return pgconn.NewCommandTag(tag), nil
}

func (s *stubSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, execCall{query: query, args: args})
	if err := s.rowErr[query]; err != nil {
		return NewSimpleRow(func(...any) error { return err })
	}
	values, ok := s.row[query]
	if !ok {
		return SimpleRow{}
	}
	return NewSimpleRow(func(dest ...any) error { return assignRow(dest, values) })
}

func (s *stubSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, execCall{query: query, args: args})
	rows, ok := s.rows[query]
	if !ok {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	return &sliceRows{rows: rows, err: s.iterErr[query]}, nil
}

func (s *stubSQL) execsFor(query string) []execCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []execCall
	for _, c := range s.execs {
		if c.query == query {
			out = append(out, c)
		}
	}
	return out
}

func (s *stubSQL) lastQuery(query string) (execCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.queried) - 1; i >= 0; i-- {
		if s.queried[i].query == query {
			return s.queried[i], true
		}
	}
	return execCall{}, false
}

var _ infra.SQLExecutor = (*stubSQL)(nil)

// sliceRows yields rows in order; err is reported by Err once iteration ends,
// mimicking a connection that drops mid-stream.
type sliceRows struct {
	TestRowsBase
	rows [][]any
	idx  int
	err  error
}

func (r *sliceRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *sliceRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.rows) {
		return pgx.ErrNoRows
	}
	return assignRow(dest, r.rows[r.idx-1])
}

func (r *sliceRows) Err() error { return r.err }

func (r *sliceRows) Close() {}

// assignRow copies values into scan destinations, allocating pointer
// destinations for non-nil values and converting named types.
func assignRow(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: got %d destinations, want %d", len(dest), len(values))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("scan: destination %d is not a pointer", i)
		}
		elem := target.Elem()
		if v == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		src := reflect.ValueOf(v)
		if elem.Kind() == reflect.Pointer {
			p := reflect.New(elem.Type().Elem())
			p.Elem().Set(src.Convert(elem.Type().Elem()))
			elem.Set(p)
			continue
		}
		if !src.Type().ConvertibleTo(elem.Type()) {
			return fmt.Errorf("scan: cannot assign %T to %s", v, elem.Type())
		}
		elem.Set(src.Convert(elem.Type()))
	}
	return nil
}

func newTestApp(sql *stubSQL) *App {
	return &App{SQL: sql, Logger: zerolog.Nop(), Config: &infra.Config{MaxUploadBytes: 1 << 20}}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return out
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

func httpBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

// SimpleRow adapts a scan function to pgx.Row. A zero SimpleRow behaves like
// a query that matched nothing.
type SimpleRow struct {
	scan func(dest ...any) error
}

func NewSimpleRow(scanner func(dest ...any) error) SimpleRow {
	return SimpleRow{scan: scanner}
}

func (r SimpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// TestRowsBase fills in the parts of pgx.Rows the handlers never touch.
type TestRowsBase struct{}

func (TestRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (TestRowsBase) Conn() *pgx.Conn { return nil }

func (TestRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (TestRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (TestRowsBase) RawValues() [][]byte { return nil }
