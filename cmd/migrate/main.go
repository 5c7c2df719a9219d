package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"newsrelay/migrations"
)

func main() {
	dbPath := flag.String("db", os.Getenv("STATE_DB_PATH"), "path to the relay state database")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || *dbPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: migrate -db path <command>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "The database path defaults to $STATE_DB_PATH.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  up          Migrate to the latest version")
		fmt.Fprintln(os.Stderr, "  up-one      Migrate one version up")
		fmt.Fprintln(os.Stderr, "  down        Roll back one version")
		fmt.Fprintln(os.Stderr, "  status      Show migration status")
		fmt.Fprintln(os.Stderr, "  version     Show current version")
		fmt.Fprintln(os.Stderr, "  reset       Roll back all migrations (clears cursors and seen links)")
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		log.Fatalf("create provider: %v", err)
	}

	ctx := context.Background()
	cmd := args[0]
	switch cmd {
	case "up":
		_, err = provider.Up(ctx)
	case "up-one":
		_, err = provider.UpByOne(ctx)
	case "down":
		_, err = provider.Down(ctx)
	case "status":
		err = printStatus(ctx, provider)
	case "version":
		var v int64
		if v, err = provider.GetDBVersion(ctx); err == nil {
			fmt.Printf("version %d\n", v)
		}
	case "reset":
		_, err = provider.DownTo(ctx, 0)
	default:
		log.Fatalf("unknown command: %s", cmd)
	}

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func printStatus(ctx context.Context, p *goose.Provider) error {
	statuses, err := p.Status(ctx)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		applied := "pending"
		if s.State == goose.StateApplied {
			applied = "applied " + s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-40s %s\n", s.Source.Path, applied)
	}
	return nil
}
