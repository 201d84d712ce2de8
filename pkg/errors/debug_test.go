package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestLogFieldsPgx(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value", ConstraintName: "idx_departments_name", TableName: "departments"}
	err := Wrap(CodeConflict, fmt.Errorf("insert: %w", pgErr), "create department")

	fields := LogFields(err)
	assert.Equal(t, string(CodeConflict), fields["error_code"])
	assert.Equal(t, "23505", fields["pg_code"])
	assert.Equal(t, "idx_departments_name", fields["pg_constraint"])
	assert.Equal(t, "departments", fields["pg_table"])
	assert.NotContains(t, fields, "pg_column")
	assert.Len(t, fields["error_chain"], 3)
}

func TestLogFieldsLibPQ(t *testing.T) {
	err := fmt.Errorf("query: %w", &pq.Error{Code: "23503", Message: "fk violation", Column: "head_id"})

	fields := LogFields(err)
	assert.Equal(t, "23503", fields["pg_code"])
	assert.Equal(t, "head_id", fields["pg_column"])
	assert.NotContains(t, fields, "error_code")
}

func TestLogFieldsPlain(t *testing.T) {
	fields := LogFields(stdErrors.New("boom"))
	assert.Equal(t, map[string]any{"error": "boom"}, fields)
	assert.Empty(t, LogFields(nil))
}
