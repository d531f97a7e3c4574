// Package log writes the match log: one compressed JSON line per message the
// server applied. It is a read model; saves remain the source of truth.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/units"
)

// Event is one line of the match log.
type Event struct {
	GameID string `json:"game_id"`
	Seq    uint64 `json:"seq"`
	Time   string `json:"ts"`
	Turn   uint16 `json:"turn"`
	Side   string `json:"side"`
	Kind   string `json:"kind"`

	Unit    *uint8 `json:"unit,omitempty"`
	Command string `json:"command,omitempty"`
	Steps   int    `json:"steps,omitempty"`
	Target  []int  `json:"target,omitempty"`
	Item    *int   `json:"item,omitempty"`
	Save    string `json:"save,omitempty"`

	// Invalid carries the server's reason when the command was rejected.
	Invalid   string `json:"invalid,omitempty"`
	Responses [2]int `json:"responses"`
	UnitsA    int    `json:"units_a"`
	UnitsB    int    `json:"units_b"`
	Winner    string `json:"winner,omitempty"`
}

// NewEvent describes msg from side after the server applied it to m.
func NewEvent(side units.Side, msg protocol.ClientMessage, r battle.ServerResponses, m *battle.Map) Event {
	ev := Event{
		GameID: m.GameID,
		Turn:   m.Turn,
		Side:   side.String(),
		Kind:   msg.Kind.String(),
		UnitsA: m.Units.Count(units.PlayerA),
		UnitsB: m.Units.Count(units.PlayerB),
	}
	for _, s := range units.Sides {
		ev.Responses[s] = len(r.For(s))
	}
	switch msg.Kind {
	case protocol.ClientCommand:
		id, cmd := msg.Unit, msg.Command
		ev.Unit = &id
		ev.Command = cmd.Kind.String()
		switch cmd.Kind {
		case battle.CmdWalk:
			ev.Steps = len(cmd.Facings)
		case battle.CmdFire:
			ev.Target = []int{cmd.X, cmd.Y}
		case battle.CmdThrowItem:
			ev.Target = []int{cmd.X, cmd.Y}
			ev.Item = &cmd.Item
		case battle.CmdUseItem, battle.CmdDropItem, battle.CmdPickupItem:
			ev.Item = &cmd.Item
		}
	case protocol.ClientSaveGame:
		ev.Save = msg.SaveName
	}
	for _, resp := range r.For(side) {
		if inv, ok := resp.(*battle.InvalidCommand); ok {
			ev.Invalid = inv.Reason
		}
	}
	switch {
	case !m.Over():
	case ev.UnitsB == 0 && ev.UnitsA > 0:
		ev.Winner = units.PlayerA.String()
	case ev.UnitsA == 0 && ev.UnitsB > 0:
		ev.Winner = units.PlayerB.String()
	}
	return ev
}

// MatchLogger numbers and writes the events of one game under
// <dataDir>/matches/<gameID>/.
type MatchLogger struct {
	w      *JSONLZstdWriter
	gameID string
	seq    uint64
}

func NewMatchLogger(dataDir, gameID string) *MatchLogger {
	return &MatchLogger{w: NewJSONLZstdWriter(MatchDir(dataDir, gameID), "events"), gameID: gameID}
}

func MatchDir(dataDir, gameID string) string {
	return filepath.Join(dataDir, "matches", gameID)
}

// WriteEvent stamps ev with the game id, the next sequence number and the
// time, writes it and returns the stamped copy.
func (l *MatchLogger) WriteEvent(ev Event) (Event, error) {
	l.seq++
	ev.Seq = l.seq
	ev.GameID = l.gameID
	if ev.Time == "" {
		ev.Time = l.w.now().UTC().Format(time.RFC3339Nano)
	}
	return ev, l.w.Write(ev)
}

func (l *MatchLogger) Close() error { return l.w.Close() }

// ReadEvents reads every event file in dir, oldest hour first.
func ReadEvents(dir string) ([]Event, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	var out []Event
	for _, f := range files {
		evs, err := readFile(f)
		if err != nil {
			return out, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		out = append(out, evs...)
	}
	return out, nil
}

func readFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Event
	br := bufio.NewReader(dec)
	for {
		line, err := br.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			var ev Event
			if jerr := json.Unmarshal([]byte(line), &ev); jerr != nil {
				return out, jerr
			}
			out = append(out, ev)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}
