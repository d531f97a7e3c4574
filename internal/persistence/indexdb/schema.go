package indexdb

import (
	"database/sql"
	"strconv"
	"strings"
)

// The statements are written once with ? placeholders and ON CONFLICT
// upserts, which SQLite and Postgres both accept after rebinding.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		game_id TEXT PRIMARY KEY,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		units_a INTEGER NOT NULL,
		units_b INTEGER NOT NULL,
		started_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS commands (
		game_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		side TEXT NOT NULL,
		kind TEXT NOT NULL,
		unit INTEGER,
		command TEXT NOT NULL,
		invalid TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (game_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_commands_game_turn ON commands(game_id, turn)`,
	`CREATE TABLE IF NOT EXISTS saves (
		path TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		side TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		saved_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_saves_game ON saves(game_id)`,
	`CREATE TABLE IF NOT EXISTS results (
		game_id TEXT PRIMARY KEY,
		winner TEXT NOT NULL,
		turns INTEGER NOT NULL,
		units_a INTEGER NOT NULL,
		units_b INTEGER NOT NULL,
		archive_path TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	)`,
}

const (
	upsertMeta = `INSERT INTO meta(key,value) VALUES(?,?)
		ON CONFLICT (key) DO UPDATE SET value=excluded.value`
	insertGame = `INSERT INTO games(game_id,width,height,units_a,units_b,started_at) VALUES(?,?,?,?,?,?)
		ON CONFLICT (game_id) DO NOTHING`
	insertCommand = `INSERT INTO commands(game_id,seq,turn,side,kind,unit,command,invalid,recorded_at) VALUES(?,?,?,?,?,?,?,?,?)
		ON CONFLICT (game_id,seq) DO NOTHING`
	upsertSave = `INSERT INTO saves(path,game_id,turn,side,bytes,saved_at) VALUES(?,?,?,?,?,?)
		ON CONFLICT (path) DO UPDATE SET game_id=excluded.game_id, turn=excluded.turn, side=excluded.side,
			bytes=excluded.bytes, saved_at=excluded.saved_at`
	upsertResult = `INSERT INTO results(game_id,winner,turns,units_a,units_b,archive_path,recorded_at) VALUES(?,?,?,?,?,?,?)
		ON CONFLICT (game_id) DO UPDATE SET winner=excluded.winner, turns=excluded.turns, units_a=excluded.units_a,
			units_b=excluded.units_b, archive_path=excluded.archive_path, recorded_at=excluded.recorded_at`
)

// dialect adapts the shared statements to one driver.
type dialect struct {
	driver string
	dollar bool
}

var (
	sqliteDialect   = dialect{driver: "sqlite"}
	postgresDialect = dialect{driver: "postgres", dollar: true}
)

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (d dialect) rebind(q string) string {
	if !d.dollar {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func initSchema(db *sql.DB, d dialect) error {
	for _, s := range schema {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(d.rebind(upsertMeta), "schema_version", "1")
	return err
}
