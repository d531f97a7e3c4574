// Package recorder keeps the durable trail of one game: the match log, the
// index rows and, once the game ends, the archived final save.
package recorder

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"ruinfall.game/internal/persistence/archive"
	"ruinfall.game/internal/persistence/indexdb"
	matchlog "ruinfall.game/internal/persistence/log"
	"ruinfall.game/internal/persistence/snapshot"
	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/session"
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/units"
)

type Config struct {
	DataDir string
	SaveDir string
	// Index may be nil when the database is disabled.
	Index  *indexdb.Index
	Logger *log.Logger
}

// Recorder is driven from the server goroutine through OnHandled, so it
// needs no locking of its own.
type Recorder struct {
	cfg    Config
	log    *log.Logger
	events *matchlog.MatchLogger
	gameID string

	logErrors int
}

// New starts recording m. m must already carry its game id.
func New(m *battle.Map, cfg Config) (*Recorder, error) {
	if m.GameID == "" {
		return nil, fmt.Errorf("recorder: map has no game id")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	r := &Recorder{
		cfg:    cfg,
		log:    cfg.Logger,
		events: matchlog.NewMatchLogger(cfg.DataDir, m.GameID),
		gameID: m.GameID,
	}
	cfg.Index.RecordGame(indexdb.GameRow{
		GameID: m.GameID,
		Width:  m.Width(),
		Height: m.Height(),
		UnitsA: m.Units.Count(units.PlayerA),
		UnitsB: m.Units.Count(units.PlayerB),
	})
	return r, nil
}

// OnHandled is meant for session.ServerConfig.OnHandled.
func (r *Recorder) OnHandled(h session.Handled) {
	ev, err := r.events.WriteEvent(matchlog.NewEvent(h.Side, h.Message, h.Responses, h.Map))
	if err != nil {
		r.logErrors++
		// the first failure and every hundredth after it
		if r.logErrors == 1 || r.logErrors%100 == 0 {
			r.log.Printf("match log: %v (%d failures)", err, r.logErrors)
		}
	}
	r.cfg.Index.RecordEvent(ev)

	if h.Message.Kind == protocol.ClientSaveGame {
		path, err := battle.SaveName(r.cfg.SaveDir, h.Message.SaveName)
		if err != nil {
			return
		}
		r.recordSave(path)
	}
}

func (r *Recorder) recordSave(path string) {
	hdr, err := snapshot.ReadHeader(path)
	if err != nil || hdr.GameID != r.gameID {
		return
	}
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	r.cfg.Index.RecordSave(path, hdr, fi.Size())
	r.log.Printf("saved %s (%s)", path, humanize.Bytes(uint64(fi.Size())))
}

// FinalSavePath is where Finish writes the last state of a game.
func FinalSavePath(saveDir, gameID string) string {
	return filepath.Join(saveDir, gameID+"-final"+battle.Extension)
}

// Finish writes the final save, archives it and records the result.
func (r *Recorder) Finish(m *battle.Map) (archive.Meta, error) {
	path := FinalSavePath(r.cfg.SaveDir, r.gameID)
	if err := m.WriteFile(path); err != nil {
		return archive.Meta{}, fmt.Errorf("final save: %w", err)
	}
	r.recordSave(path)

	meta, dst, err := archive.ArchiveGame(r.cfg.DataDir, path)
	if err != nil {
		return meta, err
	}
	r.cfg.Index.RecordResult(indexdb.ResultRow{
		GameID:      meta.GameID,
		Winner:      meta.Winner,
		Turns:       meta.Turn,
		UnitsA:      meta.UnitsA,
		UnitsB:      meta.UnitsB,
		ArchivePath: dst,
	})
	winner := meta.Winner
	if winner == "" {
		winner = "nobody"
	}
	r.log.Printf("archived %s to %s (%s), winner %s after %d turns",
		r.gameID, dst, humanize.Bytes(uint64(meta.Bytes)), winner, meta.Turn)
	return meta, nil
}

// Close flushes the match log. The index belongs to the caller.
func (r *Recorder) Close() error { return r.events.Close() }
