package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"ruinfall.game/internal/persistence/indexdb"
	"ruinfall.game/internal/sim/tuning"
)

func dbCmd(q string, args []string) {
	fs := flag.NewFlagSet(q, flag.ExitOnError)
	settingsPath := fs.String("settings", "./configs/settings.yaml", "settings path; supplies the index backend")
	backend := fs.String("backend", "", "index backend: sqlite|postgres (default: settings)")
	dbPath := fs.String("db", "", "sqlite db path (default: settings)")
	dsn := fs.String("dsn", "", "postgres dsn (default: settings or RUINFALL_INDEX_DSN)")
	gameID := fs.String("game", "", "game id (commands, saves)")
	limit := fs.Int("limit", 20, "result limit (games)")
	asJSON := fs.Bool("json", false, "print json")
	_ = fs.Parse(args)

	settings, err := tuning.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load settings:", err)
		os.Exit(1)
	}
	ix := settings.Index
	if *backend != "" {
		ix.Backend = *backend
	}
	if *dbPath != "" {
		ix.Path = *dbPath
	}
	if *dsn != "" {
		ix.DSN = *dsn
	} else if env := os.Getenv("RUINFALL_INDEX_DSN"); env != "" {
		ix.DSN = env
	}
	if ix.Backend == "none" {
		fmt.Fprintln(os.Stderr, "index disabled in settings; pass -backend")
		os.Exit(2)
	}

	idx, err := indexdb.Open(ix.Backend, ix.Path, ix.DSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch q {
	case "games":
		games, err := idx.Games(ctx, *limit)
		if err != nil {
			fail(err)
		}
		if *asJSON {
			printJSON(games)
			return
		}
		for _, g := range games {
			result := "running"
			if g.Finished {
				result = "winner=" + g.Winner
				if g.Winner == "" {
					result = "draw"
				}
			}
			fmt.Printf("%s\t%s\t%dx%d\tunits=%d/%d\tcommands=%d\tturns=%d\t%s\n",
				g.StartedAt, g.GameID, g.Width, g.Height, g.UnitsA, g.UnitsB, g.Commands, g.Turns, result)
		}

	case "commands":
		require("game", *gameID)
		cmds, err := idx.Commands(ctx, *gameID)
		if err != nil {
			fail(err)
		}
		if *asJSON {
			printJSON(cmds)
			return
		}
		for _, c := range cmds {
			line := fmt.Sprintf("#%d\tturn=%d\t%s\t%s", c.Seq, c.Turn, c.Side, c.Kind)
			if c.Unit.Valid {
				line += fmt.Sprintf("\tunit=%d %s", c.Unit.Int64, c.Command)
			}
			if c.Invalid != "" {
				line += fmt.Sprintf("\tinvalid=%q", c.Invalid)
			}
			fmt.Println(line)
		}

	case "saves":
		require("game", *gameID)
		saves, err := idx.Saves(ctx, *gameID)
		if err != nil {
			fail(err)
		}
		if *asJSON {
			printJSON(saves)
			return
		}
		for _, s := range saves {
			fmt.Printf("%s\tturn=%d\t%s to move\t%s\t%s\n",
				s.SavedAt, s.Turn, s.Side, humanize.Bytes(uint64(s.Bytes)), s.Path)
		}
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "query:", err)
	os.Exit(1)
}
