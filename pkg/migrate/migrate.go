package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const dialect = "postgres"

// Run executes a goose command (up, down, status, redo, ...) against src.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	return withSource(db, src, func() error {
		if err := goose.RunContext(ctx, command, db, src.Dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// ToVersion moves the schema up or down until it sits at target, a
// YYYYMMDDHHMMSS version string.
func ToVersion(ctx context.Context, db *sql.DB, src Source, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil || len(target) != 14 {
		return fmt.Errorf("version %q is not a YYYYMMDDHHMMSS timestamp", target)
	}

	return withSource(db, src, func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		switch {
		case current < version:
			err = goose.UpToContext(ctx, db, src.Dir, version)
		case current > version:
			err = goose.DownToContext(ctx, db, src.Dir, version)
		}
		if err != nil {
			return fmt.Errorf("migrate %d -> %d: %w", current, version, err)
		}
		return nil
	})
}

// withSource points goose at src for the duration of fn. goose keeps its
// filesystem and dialect as package state.
func withSource(db *sql.DB, src Source, fn func() error) error {
	if db == nil {
		return errors.New("migrate: nil database handle")
	}
	if src.Dir == "" {
		return errors.New("migrate: migrations dir is empty")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	goose.SetBaseFS(src.FS)
	defer goose.SetBaseFS(nil)
	return fn()
}
