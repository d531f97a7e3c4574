package indexdb

import (
	"context"
	"database/sql"
)

// GameSummary joins a game with its result, if it has one.
type GameSummary struct {
	GameRow
	Winner   string
	Turns    uint32
	Finished bool
	Commands int
}

// Games lists the most recently started games first.
func (i *Index) Games(ctx context.Context, limit int) ([]GameSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := i.db.QueryContext(ctx, i.dialect.rebind(`
		SELECT g.game_id, g.width, g.height, g.units_a, g.units_b, g.started_at,
			COALESCE(r.winner, ''), COALESCE(r.turns, 0), r.game_id IS NOT NULL,
			(SELECT COUNT(*) FROM commands c WHERE c.game_id = g.game_id)
		FROM games g LEFT JOIN results r ON r.game_id = g.game_id
		ORDER BY g.started_at DESC, g.game_id
		LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var g GameSummary
		var turns int64
		if err := rows.Scan(&g.GameID, &g.Width, &g.Height, &g.UnitsA, &g.UnitsB, &g.StartedAt,
			&g.Winner, &turns, &g.Finished, &g.Commands); err != nil {
			return nil, err
		}
		g.Turns = uint32(turns)
		out = append(out, g)
	}
	return out, rows.Err()
}

type CommandRow struct {
	Seq     uint64
	Turn    int
	Side    string
	Kind    string
	Unit    sql.NullInt64
	Command string
	Invalid string
}

// Commands returns a game's applied messages in order.
func (i *Index) Commands(ctx context.Context, gameID string) ([]CommandRow, error) {
	rows, err := i.db.QueryContext(ctx, i.dialect.rebind(`
		SELECT seq, turn, side, kind, unit, command, invalid
		FROM commands WHERE game_id = ? ORDER BY seq`), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CommandRow
	for rows.Next() {
		var c CommandRow
		var seq int64
		if err := rows.Scan(&seq, &c.Turn, &c.Side, &c.Kind, &c.Unit, &c.Command, &c.Invalid); err != nil {
			return nil, err
		}
		c.Seq = uint64(seq)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Saves lists the saves recorded for a game, newest first.
func (i *Index) Saves(ctx context.Context, gameID string) ([]SaveRow, error) {
	rows, err := i.db.QueryContext(ctx, i.dialect.rebind(`
		SELECT path, game_id, turn, side, bytes, saved_at
		FROM saves WHERE game_id = ? ORDER BY saved_at DESC, path`), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaveRow
	for rows.Next() {
		var s SaveRow
		var turn int64
		if err := rows.Scan(&s.Path, &s.GameID, &turn, &s.Side, &s.Bytes, &s.SavedAt); err != nil {
			return nil, err
		}
		s.Turn = uint32(turn)
		out = append(out, s)
	}
	return out, rows.Err()
}
