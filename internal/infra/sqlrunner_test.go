package infra

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantMarker string
		wantErr    bool
	}{
		{
			name:       "valid marker",
			query:      "--sql 0c7e4a8e-3d43-4a0e-a0f5-0cb5b2a1f001\nselect 1;",
			wantMarker: "0c7e4a8e-3d43-4a0e-a0f5-0cb5b2a1f001",
		},
		{
			name:       "leading whitespace",
			query:      "\n   --sql 0c7e4a8e-3d43-4a0e-a0f5-0cb5b2a1f001\nselect 1;",
			wantMarker: "0c7e4a8e-3d43-4a0e-a0f5-0cb5b2a1f001",
		},
		{
			name:    "missing marker",
			query:   "select 1;",
			wantErr: true,
		},
		{
			name:    "malformed uuid",
			query:   "--sql not-a-uuid\nselect 1;",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := extractMarker(tc.query)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("extractMarker() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("extractMarker() unexpected error: %v", err)
			}
			if marker != tc.wantMarker {
				t.Fatalf("marker = %q, want %q", marker, tc.wantMarker)
			}
			if body != "select 1;" {
				t.Fatalf("body = %q, want %q", body, "select 1;")
			}
		})
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(pgx.ErrNoRows) {
		t.Fatalf("IsNoRows(pgx.ErrNoRows) = false")
	}
	if !IsNoRows(errors.Join(errors.New("scan"), pgx.ErrNoRows)) {
		t.Fatalf("IsNoRows(wrapped) = false")
	}
	if IsNoRows(errors.New("boom")) {
		t.Fatalf("IsNoRows(other) = true")
	}
}

func TestObserveLogsSlowStatements(t *testing.T) {
	var buf bytes.Buffer
	r := &SQLRunner{Logger: zerolog.New(&buf), SlowQuery: 10 * time.Millisecond}

	r.observe("fast", "exec", time.Now())
	if buf.Len() != 0 {
		t.Fatalf("fast statement should not log: %s", buf.String())
	}

	r.observe("abc", "query", time.Now().Add(-time.Second))
	if !strings.Contains(buf.String(), "sql[abc] slow query") || !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("missing slow log: %s", buf.String())
	}
}
