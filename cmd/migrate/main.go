// Command migrate applies or inspects the items schema.
//
//	migrate [up|down|status|version]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ghuser/itemsapi/migrations/items"
	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/migrator"
)

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg).With("process", "migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, cmd, cfg, log); err != nil {
		log.Error("migrate failed", "command", cmd, "error", err)
		os.Exit(1) //nolint:gocritic
	}
}

func run(ctx context.Context, cmd string, cfg *config.Config, log logger.Logger) error {
	db, err := database.Open(ctx, database.OptionsFromConfig(cfg), log)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	files, err := items.FS(db.Dialect())
	if err != nil {
		return err
	}
	m, err := migrator.New(db.DB(), db.Dialect(), files, log)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case "status":
		st, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range st {
			fmt.Printf("%-6d %-9s %s\n", s.Source.Version, s.State, s.Source.Path)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q (want up, down, status or version)", cmd)
	}
}
