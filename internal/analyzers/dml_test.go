package analyzers

import (
	"context"
	"testing"

	"depwiki/internal/logging"
)

const dmlSample = `CREATE TABLE users (
  id INT PRIMARY KEY,
  name TEXT
);

CREATE OR REPLACE PROCEDURE add_user(name TEXT)
BEGIN
  INSERT INTO users (name) VALUES (name);
END;

CREATE FUNCTION count_users() RETURNS INT
BEGIN
  RETURN 0;
END;
`

func TestDMLStatements(t *testing.T) {
	a := NewDMLAnalyzer(logging.NewDiscardLogger())
	nodes, rels, err := a.Analyze(context.Background(), src("db/schema.sql", dmlSample))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rels) != 0 {
		t.Errorf("statement analysis yields no relationships: %v", rels)
	}

	users := requireNode(t, nodes, "db.schema.users")
	if users.ComponentType != "table" {
		t.Errorf("users type = %q", users.ComponentType)
	}
	if users.StartLine != 1 || users.EndLine != 4 {
		t.Errorf("users span = %d-%d, want 1-4", users.StartLine, users.EndLine)
	}

	proc := requireNode(t, nodes, "db.schema.add_user")
	if proc.ComponentType != "procedure" {
		t.Errorf("add_user type = %q", proc.ComponentType)
	}

	fn := requireNode(t, nodes, "db.schema.count_users")
	if fn.ComponentType != "function" || fn.DisplayName != "function count_users" {
		t.Errorf("count_users = %+v", fn)
	}
}
