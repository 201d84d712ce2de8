package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/civictrack/civictrack-backend/pkg/config"
	"github.com/civictrack/civictrack-backend/pkg/db"
	"github.com/civictrack/civictrack-backend/pkg/logger"
	"github.com/civictrack/civictrack-backend/pkg/migrate"
)

const usage = `usage: migrate [flags]

  -cmd up|down|status|redo   apply goose command
  -cmd version -version V    move the schema to version V
  -cmd create -name N        write an empty migration into -dir
  -cmd validate              lint migration files without a database
`

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|redo|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory on disk")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into this binary instead of -dir")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	src := migrate.Disk(*dir)
	if *embedded {
		src = migrate.Embedded()
	}

	// File-only commands need neither config nor a database.
	switch *cmd {
	case "create":
		if *name == "" {
			fail("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fail(err.Error())
		}
		fmt.Println(path)
		return
	case "validate":
		if err := migrate.Validate(src); err != nil {
			fail(err.Error())
		}
		fmt.Println("ok:", src.Name())
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fail("config: " + err.Error())
	}
	logg := logger.New(logger.Options{
		ServiceName: "civictrack-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env},
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *cmd, "source": src.Name()})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		os.Exit(1)
	}

	sqlDB, err := dbClient.DB().DB()
	if err == nil {
		switch *cmd {
		case "up", "down", "status", "redo":
			err = migrate.Run(ctx, sqlDB, src, *cmd)
		case "version":
			err = migrate.ToVersion(ctx, sqlDB, src, *version)
		default:
			err = fmt.Errorf("unknown -cmd %q", *cmd)
		}
	}
	_ = dbClient.Close()
	if err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate.done")
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "migrate:", msg)
	os.Exit(1)
}
