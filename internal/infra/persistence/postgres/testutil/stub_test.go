package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	for _, name := range []string{"beta", "alpha"} {
		_, err := conn.ExecContext(ctx, "INSERT INTO slider_state(name,payload) VALUES($1,$2)", []driver.NamedValue{
			{Value: name},
			{Value: []byte("{}")},
		})
		if err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	if len(conn.Tables["slider_state"]) != 2 {
		t.Fatalf("expected two rows, got %v", conn.Tables["slider_state"])
	}

	rows, err := conn.QueryContext(ctx, "SELECT name FROM slider_state ORDER BY name", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	dest := make([]driver.Value, 1)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "alpha" {
		t.Fatalf("expected ordered rows, got first %v", dest[0])
	}
	_ = rows.Close()

	rows, err = conn.QueryContext(ctx, "SELECT name FROM slider_state WHERE name = $1", []driver.NamedValue{{Value: "beta"}})
	if err != nil {
		t.Fatalf("QueryContext where: %v", err)
	}
	defer func() { _ = rows.Close() }()
	if err := rows.Next(dest); err != nil || dest[0] != "beta" {
		t.Fatalf("expected filtered row, got %v (%v)", dest[0], err)
	}

	res, err := conn.ExecContext(ctx, "DELETE FROM slider_state WHERE name = $1", []driver.NamedValue{{Value: "gamma"}})
	if err != nil {
		t.Fatalf("ExecContext delete: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 0 {
		t.Fatalf("expected no rows removed for a missing name, got %d", n)
	}
}

func TestStubDBFailures(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	conn.FailPing = true
	if err := conn.Ping(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailTables = map[string]bool{"slider_state": true}
	if _, err := conn.QueryContext(ctx, "SELECT name FROM slider_state", nil); err == nil {
		t.Fatalf("expected query failure")
	}
}
