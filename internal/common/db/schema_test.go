package db

import (
	"strings"
	"testing"
)

func TestMigrationsAreOrdered(t *testing.T) {
	prev := 0
	for _, m := range migrations {
		if m.version != prev+1 {
			t.Errorf("migration %d follows %d; versions must be contiguous", m.version, prev)
		}
		if m.description == "" || len(m.statements) == 0 {
			t.Errorf("migration %d is empty", m.version)
		}
		prev = m.version
	}
}

func TestMigrationsStayInSchema(t *testing.T) {
	for _, m := range migrations {
		for _, stmt := range m.statements {
			if strings.Contains(stmt, "TABLE") && !strings.Contains(stmt, "railseat.") {
				t.Errorf("migration %d creates a table outside the railseat schema: %s", m.version, stmt)
			}
		}
	}
}
