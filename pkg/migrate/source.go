package migrate

import (
	"embed"
	"io/fs"
	"os"
)

// DefaultDir is the on-disk migrations folder relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Source locates a set of goose SQL migrations. A nil FS means Dir is read
// from the local filesystem.
type Source struct {
	FS  fs.FS
	Dir string
}

// Disk reads migrations from dir on the local filesystem.
func Disk(dir string) Source {
	return Source{Dir: dir}
}

// Embedded returns the migrations compiled into the binary.
func Embedded() Source {
	return Source{FS: migrationFiles, Dir: "migrations"}
}

// Name is used in logs.
func (s Source) Name() string {
	if s.FS != nil {
		return "embedded:" + s.Dir
	}
	return s.Dir
}

// browse returns a filesystem and a path inside it for reading the files.
func (s Source) browse() (fs.FS, string) {
	if s.FS != nil {
		return s.FS, s.Dir
	}
	return os.DirFS(s.Dir), "."
}
