package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"ruinfall.game/internal/persistence/archive"
	matchlog "ruinfall.game/internal/persistence/log"
	"ruinfall.game/internal/persistence/snapshot"
	"ruinfall.game/internal/sim/battle"
)

func main() {
	var (
		savePath  = flag.String("save", "", "path to a .sav file")
		eventsDir = flag.String("events", "", "events dir containing events-*.jsonl.zst (optional)")
		dataDir   = flag.String("data", "./data", "runtime data directory, used with -game")
		gameID    = flag.String("game", "", "game id; finds the match log and archived save under -data")
		fromTurn  = flag.Int("from_turn", 0, "first turn to print (inclusive, optional)")
		toTurn    = flag.Int("to_turn", 0, "last turn to print (inclusive, optional)")
		showUnits = flag.Bool("units", true, "print the units in the save")
	)
	flag.Parse()

	if *gameID != "" {
		if *eventsDir == "" {
			*eventsDir = matchlog.MatchDir(*dataDir, *gameID)
		}
		if *savePath == "" {
			meta, err := archive.ReadMeta(*dataDir, *gameID)
			if err == nil {
				*savePath = filepath.Join(archive.Dir(*dataDir, *gameID), meta.Snapshot)
			}
		}
	}
	if *savePath == "" && *eventsDir == "" {
		fmt.Fprintln(os.Stderr, "missing -save, -events or -game")
		os.Exit(2)
	}

	var hdr *snapshot.Header
	if *savePath != "" {
		h, err := printSave(*savePath, *showUnits)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read save:", err)
			os.Exit(1)
		}
		hdr = &h
	}
	if *eventsDir == "" {
		return
	}

	evs, err := matchlog.ReadEvents(*eventsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read events:", err)
		os.Exit(1)
	}
	if len(evs) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}
	for _, ev := range evs {
		if *fromTurn != 0 && int(ev.Turn) < *fromTurn {
			continue
		}
		if *toTurn != 0 && int(ev.Turn) > *toTurn {
			break
		}
		fmt.Println(describe(ev))
	}

	problems := verify(evs, hdr)
	for _, p := range problems {
		fmt.Println("mismatch:", p)
	}
	if len(problems) > 0 {
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d events over %d turns\n", len(evs), evs[len(evs)-1].Turn)
}

func printSave(path string, showUnits bool) (snapshot.Header, error) {
	hdr, err := snapshot.ReadHeader(path)
	if err != nil {
		return hdr, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return hdr, err
	}
	fmt.Printf("save v%d game=%s turn=%d side=%s map=%dx%d units=%d/%d size=%s saved=%s\n",
		hdr.Version, hdr.GameID, hdr.Turn, hdr.Side, hdr.Width, hdr.Height, hdr.UnitsA, hdr.UnitsB,
		humanize.Bytes(uint64(fi.Size())), humanize.Time(time.Unix(hdr.SavedAt, 0)))
	if !showUnits {
		return hdr, nil
	}
	m, err := battle.Load(path)
	if err != nil {
		return hdr, err
	}
	for _, u := range m.Units.All() {
		fmt.Printf("  #%d (%d,%d) %s\n", u.ID, u.X, u.Y, u.Info())
	}
	fmt.Printf("  digest %s\n", m.Digest())
	return hdr, nil
}

func describe(ev matchlog.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d turn=%d %s %s", ev.Seq, ev.Turn, ev.Side, ev.Kind)
	if ev.Unit != nil {
		fmt.Fprintf(&b, " unit=%d %s", *ev.Unit, ev.Command)
	}
	if ev.Steps > 0 {
		fmt.Fprintf(&b, " steps=%d", ev.Steps)
	}
	if len(ev.Target) == 2 {
		fmt.Fprintf(&b, " at=(%d,%d)", ev.Target[0], ev.Target[1])
	}
	if ev.Item != nil {
		fmt.Fprintf(&b, " item=%d", *ev.Item)
	}
	if ev.Save != "" {
		fmt.Fprintf(&b, " name=%q", ev.Save)
	}
	if ev.Invalid != "" {
		fmt.Fprintf(&b, " invalid=%q", ev.Invalid)
	}
	fmt.Fprintf(&b, " units=%d/%d", ev.UnitsA, ev.UnitsB)
	if ev.Winner != "" {
		fmt.Fprintf(&b, " winner=%s", ev.Winner)
	}
	return b.String()
}

// verify checks that the log is one unbroken game and, when the save is the
// game's final state, that it agrees with the last event.
func verify(evs []matchlog.Event, hdr *snapshot.Header) []string {
	var problems []string
	if len(evs) == 0 {
		return problems
	}
	gameID := evs[0].GameID
	for i, ev := range evs {
		if ev.Seq != uint64(i+1) {
			problems = append(problems, fmt.Sprintf("event %d has seq %d", i+1, ev.Seq))
			break
		}
		if ev.GameID != gameID {
			problems = append(problems, fmt.Sprintf("seq %d belongs to game %s, not %s", ev.Seq, ev.GameID, gameID))
		}
		if i > 0 && ev.Turn < evs[i-1].Turn {
			problems = append(problems, fmt.Sprintf("seq %d goes back to turn %d", ev.Seq, ev.Turn))
		}
		if ev.Winner != "" && i != len(evs)-1 {
			problems = append(problems, fmt.Sprintf("seq %d ends the game but %d events follow", ev.Seq, len(evs)-1-i))
		}
	}
	if hdr == nil {
		return problems
	}
	if hdr.GameID != gameID {
		problems = append(problems, fmt.Sprintf("save is game %s, log is game %s", hdr.GameID, gameID))
		return problems
	}
	last := evs[len(evs)-1]
	if last.Winner != "" && uint32(last.Turn) == hdr.Turn && (hdr.UnitsA != last.UnitsA || hdr.UnitsB != last.UnitsB) {
		problems = append(problems, fmt.Sprintf("final save has units %d/%d, log ends with %d/%d",
			hdr.UnitsA, hdr.UnitsB, last.UnitsA, last.UnitsB))
	}
	return problems
}
