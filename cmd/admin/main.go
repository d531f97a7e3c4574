package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"ruinfall.game/internal/persistence/archive"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "games", "commands", "saves":
			dbCmd(os.Args[1], os.Args[2:])
			return
		case "archives":
			archivesCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		}
	}
	dbCmd("games", os.Args[1:])
}

// archivesCmd lists archived games from their meta.json files; it works
// without the index database.
func archivesCmd(args []string) {
	fs := flag.NewFlagSet("archives", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	asJSON := fs.Bool("json", false, "print json")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(filepath.Join(*dataDir, "archives"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	var metas []archive.Meta
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := archive.ReadMeta(*dataDir, e.Name())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", e.Name(), err)
			continue
		}
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].CreatedAt > metas[j].CreatedAt })

	if *asJSON {
		printJSON(metas)
		return
	}
	for _, m := range metas {
		winner := m.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Printf("%s\t%s\tturn=%d\twinner=%s\tunits=%d/%d\t%dx%d\t%s\n",
			m.CreatedAt, m.GameID, m.Turn, winner, m.UnitsA, m.UnitsB, m.Width, m.Height, humanize.Bytes(uint64(m.Bytes)))
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}
}

func require(name, v string) {
	if strings.TrimSpace(v) == "" {
		fmt.Fprintf(os.Stderr, "missing -%s\n", name)
		os.Exit(2)
	}
}
