package store

import (
	"strings"
	"testing"

	"kabuscalp/internal/config"
)

func TestNewSQLite_InMemorySharesOneDatabase(t *testing.T) {
	st, err := NewSQLite(config.DatabaseConfig{InMemory: true, MaxOpenConns: 2})
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ddl := `CREATE TABLE scratch (id INTEGER PRIMARY KEY);`
	if err := ApplySchema(st.DB(), "scratch", ddl); err != nil {
		t.Fatalf("ApplySchema: %v", err)
	}

	if _, err := st.DB().Exec(`INSERT INTO scratch (id) VALUES (1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// 连接池可能为查询新开连接，共享缓存下仍要看到同一张表。
	var count int
	if err := st.DB().QueryRow(`SELECT COUNT(*) FROM scratch`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row visible across pooled connections, got %d", count)
	}
}

func TestApplySchema_NamesFailingComponent(t *testing.T) {
	st, err := NewSQLite(config.DatabaseConfig{InMemory: true, MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	err = ApplySchema(st.DB(), "broken", `CREATE TABLE`)
	if err == nil {
		t.Fatal("expected invalid DDL to fail")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected the component name in the error, got %v", err)
	}
}
