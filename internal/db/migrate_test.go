package db

import (
	"strings"
	"testing"
)

func TestStatements(t *testing.T) {
	stmts := Statements()
	if len(stmts) < 8 {
		t.Fatalf("expected schema statements, got %d", len(stmts))
	}
	for i, stmt := range stmts {
		if !strings.HasSuffix(stmt, ";") {
			t.Fatalf("statement %d not terminated: %q", i, stmt)
		}
		if strings.HasPrefix(stmt, "--") {
			t.Fatalf("statement %d is a comment", i)
		}
	}
	for _, table := range []string{"users", "garden_locations", "photos", "votes", "comments", "moderation_queue"} {
		if !strings.Contains(Schema(), "create table if not exists "+table+" (") {
			t.Fatalf("schema missing table %s", table)
		}
	}
}
