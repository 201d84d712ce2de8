package migrate_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/civictrack/civictrack-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsContainSchemas(t *testing.T) {
	cases := map[string][]string{
		"create_users": {
			"CREATE TABLE IF NOT EXISTS users",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email",
			"CHECK (role IN ('citizen', 'admin', 'super-admin'))",
			"DROP TABLE IF EXISTS users",
		},
		"create_departments": {
			"CREATE TABLE IF NOT EXISTS departments",
			"CREATE TABLE IF NOT EXISTS department_members",
			"PRIMARY KEY (department_id, user_id)",
			"DROP TABLE IF EXISTS department_members",
		},
		"create_complaints": {
			"CREATE TABLE IF NOT EXISTS complaints",
			"CREATE TABLE IF NOT EXISTS complaint_remarks",
			"CREATE INDEX IF NOT EXISTS idx_complaints_status_priority ON complaints (status, priority)",
			"CREATE INDEX IF NOT EXISTS idx_complaints_submitted_by",
			"CREATE INDEX IF NOT EXISTS idx_complaints_assigned_to",
			"FOREIGN KEY (complaint_id) REFERENCES complaints(id) ON DELETE CASCADE",
		},
	}

	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", suffix, sub)
			}
		}
	}
}

func TestValidateShippedMigrations(t *testing.T) {
	if err := migrate.Validate(migrate.Disk("migrations")); err != nil {
		t.Fatalf("disk: %v", err)
	}
	if err := migrate.Validate(migrate.Embedded()); err != nil {
		t.Fatalf("embedded: %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"init.sql":             "-- +goose Up\n-- +goose Down\n",
		"20260101000000_a.sql": "-- +goose Up\n",
		"20260101000000_b.sql": "-- +goose Up\n-- +goose Down\n",
		"notes.txt":            "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	err := migrate.Validate(migrate.Disk(dir))
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"init.sql", "missing \"-- +goose Down\"", "already used"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
	if strings.Contains(err.Error(), "notes.txt") {
		t.Errorf("non-sql files should be skipped: %v", err)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Complaint Tags!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_complaint_tags.sql") {
		t.Fatalf("unexpected path %q", path)
	}
	if err := migrate.Validate(migrate.Disk(dir)); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}

	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for a name without letters or digits")
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	src := migrate.Embedded()
	embedded, err := fs.Glob(src.FS, src.Dir+"/*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embedded) != len(onDisk) || len(embedded) == 0 {
		t.Fatalf("embedded %d files, disk %d", len(embedded), len(onDisk))
	}
}

func TestToVersionRejectsMalformedTarget(t *testing.T) {
	for _, target := range []string{"", "latest", "2026"} {
		if err := migrate.ToVersion(context.Background(), nil, migrate.Embedded(), target); err == nil {
			t.Errorf("expected error for %q", target)
		}
	}
}
