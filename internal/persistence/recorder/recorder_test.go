package recorder

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"ruinfall.game/internal/persistence/archive"
	"ruinfall.game/internal/persistence/indexdb"
	matchlog "ruinfall.game/internal/persistence/log"
	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/session"
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/units"
)

func TestRecorder_LogsSavesAndArchives(t *testing.T) {
	dir := t.TempDir()
	dataDir, saveDir := filepath.Join(dir, "data"), filepath.Join(dir, "saves")
	dbPath := filepath.Join(dataDir, "index.sqlite")
	idx, err := indexdb.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	rng := rand.New(rand.NewSource(3))
	m := battle.New(12, 12, 1)
	m.GameID = "game-1"
	a, err := m.Units.Spawn(units.Squaddie, units.PlayerA, 0, 0, units.Bottom, rng)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	b, err := m.Units.Spawn(units.Squaddie, units.PlayerB, 11, 11, units.Top, rng)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	rec, err := New(m, Config{DataDir: dataDir, SaveDir: saveDir, Index: idx})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	walk := protocol.Command(a.ID, battle.Command{Kind: battle.CmdWalk, Facings: []units.Facing{units.Bottom}})
	r := m.PerformCommand(walk.Unit, walk.Command, units.PlayerA, rng)
	rec.OnHandled(session.Handled{Side: units.PlayerA, Message: walk, Responses: r, Map: m})

	save := protocol.SaveGame("mid")
	r = m.Save(saveDir, save.SaveName)
	rec.OnHandled(session.Handled{Side: units.PlayerA, Message: save, Responses: r, Map: m})

	if err := m.Units.Kill(b.ID, m.Tiles); err != nil {
		t.Fatalf("kill: %v", err)
	}
	meta, err := rec.Finish(m)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if meta.Winner != "PlayerA" || meta.GameID != "game-1" {
		t.Fatalf("meta=%+v", meta)
	}
	if _, err := archive.ReadMeta(dataDir, "game-1"); err != nil {
		t.Fatalf("ReadMeta: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("index close: %v", err)
	}

	evs, err := matchlog.ReadEvents(matchlog.MatchDir(dataDir, "game-1"))
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(evs) != 2 || evs[0].Command != "walk" || evs[1].Save != "mid" {
		t.Fatalf("events=%+v", evs)
	}

	idx, err = indexdb.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()
	games, err := idx.Games(ctx, 10)
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	if len(games) != 1 || !games[0].Finished || games[0].Winner != "PlayerA" || games[0].Commands != 2 {
		t.Fatalf("games=%+v", games)
	}
	saves, err := idx.Saves(ctx, "game-1")
	if err != nil {
		t.Fatalf("Saves: %v", err)
	}
	if len(saves) != 2 {
		t.Fatalf("saves=%+v", saves)
	}
}

func TestRecorder_NeedsGameID(t *testing.T) {
	if _, err := New(battle.New(10, 10, 1), Config{DataDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRecorder_NilIndex(t *testing.T) {
	dir := t.TempDir()
	m := battle.New(10, 10, 1)
	m.GameID = "solo"
	rec, err := New(m, Config{DataDir: dir, SaveDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rec.Close()
	r := m.EndTurn(units.PlayerA)
	rec.OnHandled(session.Handled{Side: units.PlayerA, Message: protocol.EndTurn(), Responses: r, Map: m})
	if _, err := rec.Finish(m); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}
