package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|to|create|validate")
	name := flag.String("name", "", "migration name for -cmd=create")
	target := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=to")
	flag.Parse()

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := context.Background()

	// offline commands work on the source tree and need no config
	switch *cmd {
	case "create":
		path, err := migrate.Scaffold(migrate.SourceDir, *name, time.Now())
		exitOn(err, "create")
		fmt.Println("created", path)
		return
	case "validate":
		exitOn(migrate.Validate(os.DirFS(migrate.SourceDir)), "validate")
		fmt.Println("migrations ok")
		return
	}

	cfg, err := config.Load()
	exitOn(err, "config")
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(err, "database")
	defer dbClient.Close()

	if cfg.DB.IsSQLite() {
		if *cmd != "up" {
			exitOn(fmt.Errorf("-cmd=%s needs postgres; sqlite only supports up", *cmd), "sqlite")
		}
		exitOn(migrate.AutoMigrate(ctx, dbClient.DB()), "auto-migrate")
		logg.Info(ctx, "sqlite schema up to date")
		return
	}

	pool, err := dbClient.DB().DB()
	exitOn(err, "sql handle")
	runner, err := migrate.NewRunner(pool, nil, logg)
	exitOn(err, "runner")

	switch *cmd {
	case "up":
		exitOn(runner.Up(ctx), "up")
	case "down":
		exitOn(runner.Down(ctx), "down")
	case "to":
		version, err := migrate.ParseVersion(*target)
		exitOn(err, "to")
		exitOn(runner.To(ctx, version), "to")
	case "status":
		rows, err := runner.Status(ctx)
		exitOn(err, "status")
		printStatus(rows)
	default:
		exitOn(fmt.Errorf("unknown -cmd %q", *cmd), "flags")
	}
}

func printStatus(rows []migrate.Status) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tAPPLIED AT\tFILE")
	for _, row := range rows {
		applied := "pending"
		if row.Applied {
			applied = row.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", row.Version, applied, row.Path)
	}
	_ = w.Flush()
}

func exitOn(err error, step string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "migrate %s: %v\n", step, err)
	os.Exit(1)
}
