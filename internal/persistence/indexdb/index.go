package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	matchlog "ruinfall.game/internal/persistence/log"
	"ruinfall.game/internal/persistence/snapshot"
)

// Index is a queryable read model of games, their commands, saves and
// results. Writes are queued and applied in batches by one goroutine; when
// the queue is full they are dropped and counted, since the match log and
// save files remain the source of truth.
type Index struct {
	db      *sql.DB
	dialect dialect

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
	drops  [reqKinds]atomic.Uint64
}

type reqKind int

const (
	reqGame reqKind = iota
	reqCommand
	reqSave
	reqResult
	reqKinds
)

type req struct {
	kind   reqKind
	game   GameRow
	event  matchlog.Event
	save   SaveRow
	result ResultRow
}

type GameRow struct {
	GameID    string
	Width     int
	Height    int
	UnitsA    int
	UnitsB    int
	StartedAt string
}

type SaveRow struct {
	Path    string
	GameID  string
	Turn    uint32
	Side    string
	Bytes   int64
	SavedAt string
}

type ResultRow struct {
	GameID      string
	Winner      string
	Turns       uint32
	UnitsA      int
	UnitsB      int
	ArchivePath string
	RecordedAt  string
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropGame      uint64
	DropCommand   uint64
	DropSave      uint64
	DropResult    uint64
}

const queueSize = 65536

func open(db *sql.DB, d dialect) (*Index, error) {
	if err := initSchema(db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init %s schema: %w", d.driver, err)
	}
	idx := &Index{db: db, dialect: d, ch: make(chan req, queueSize)}
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		idx.loop()
	}()
	return idx, nil
}

// Open picks a backend by name: "sqlite" uses path, "postgres" uses dsn.
func Open(backend, path, dsn string) (*Index, error) {
	switch backend {
	case "", "sqlite":
		return OpenSQLite(path)
	case "postgres":
		return OpenPostgres(dsn)
	}
	return nil, fmt.Errorf("unknown index backend %q", backend)
}

func (i *Index) Close() error {
	var err error
	i.once.Do(func() {
		i.closed.Store(true)
		close(i.ch)
		i.wg.Wait()
		err = i.db.Close()
	})
	return err
}

func (i *Index) enqueue(r req) {
	if i == nil || i.closed.Load() {
		return
	}
	select {
	case i.ch <- r:
	default:
		i.drops[r.kind].Add(1)
	}
}

func (i *Index) RecordGame(g GameRow) {
	if g.StartedAt == "" {
		g.StartedAt = now()
	}
	i.enqueue(req{kind: reqGame, game: g})
}

func (i *Index) RecordEvent(ev matchlog.Event) { i.enqueue(req{kind: reqCommand, event: ev}) }

func (i *Index) RecordSave(path string, hdr snapshot.Header, bytes int64) {
	i.enqueue(req{kind: reqSave, save: SaveRow{
		Path:    path,
		GameID:  hdr.GameID,
		Turn:    hdr.Turn,
		Side:    hdr.Side,
		Bytes:   bytes,
		SavedAt: time.Unix(hdr.SavedAt, 0).UTC().Format(time.RFC3339),
	}})
}

func (i *Index) RecordResult(r ResultRow) {
	if r.RecordedAt == "" {
		r.RecordedAt = now()
	}
	i.enqueue(req{kind: reqResult, result: r})
}

func (i *Index) Stats() Stats {
	return Stats{
		QueueDepth:    len(i.ch),
		QueueCapacity: cap(i.ch),
		DropGame:      i.drops[reqGame].Load(),
		DropCommand:   i.drops[reqCommand].Load(),
		DropSave:      i.drops[reqSave].Load(),
		DropResult:    i.drops[reqResult].Load(),
	}
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func (i *Index) loop() {
	ctx := context.Background()
	stmts := map[reqKind]*sql.Stmt{}
	for kind, q := range map[reqKind]string{
		reqGame:    insertGame,
		reqCommand: insertCommand,
		reqSave:    upsertSave,
		reqResult:  upsertResult,
	} {
		if st, err := i.db.Prepare(i.dialect.rebind(q)); err == nil {
			stmts[kind] = st
		}
	}
	defer func() {
		for _, st := range stmts {
			_ = st.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := i.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	end := func(commit bool) {
		if tx == nil {
			return
		}
		if commit {
			_ = tx.Commit()
		} else {
			_ = tx.Rollback()
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range i.ch {
		begin()
		if tx == nil {
			continue
		}
		st, ok := stmts[r.kind]
		if !ok {
			continue
		}
		if _, err := tx.Stmt(st).Exec(args(r)...); err != nil {
			end(false)
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(i.ch) == 0 {
			end(true)
		}
	}
	end(true)
}

func args(r req) []any {
	switch r.kind {
	case reqGame:
		g := r.game
		return []any{g.GameID, g.Width, g.Height, g.UnitsA, g.UnitsB, g.StartedAt}
	case reqCommand:
		ev := r.event
		var unit any
		if ev.Unit != nil {
			unit = int64(*ev.Unit)
		}
		return []any{ev.GameID, int64(ev.Seq), int64(ev.Turn), ev.Side, ev.Kind, unit, ev.Command, ev.Invalid, ev.Time}
	case reqSave:
		s := r.save
		return []any{s.Path, s.GameID, int64(s.Turn), s.Side, s.Bytes, s.SavedAt}
	case reqResult:
		res := r.result
		return []any{res.GameID, res.Winner, int64(res.Turns), res.UnitsA, res.UnitsB, res.ArchivePath, res.RecordedAt}
	}
	return nil
}
