package battle

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"ruinfall.game/internal/persistence/snapshot"
	"ruinfall.game/internal/sim/units"
)

const Extension = ".sav"

var (
	ErrNoSave      = errors.New("no saved game")
	ErrBadSaveName = errors.New("bad save name")
)

// SaveName turns a player-chosen name into a file name in dir.
func SaveName(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrBadSaveName, name)
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	return filepath.Join(dir, name), nil
}

func (m *Map) header() snapshot.Header {
	return snapshot.Header{
		GameID:  m.GameID,
		Turn:    uint32(m.Turn),
		Side:    m.Side.String(),
		Width:   m.Width(),
		Height:  m.Height(),
		UnitsA:  m.Units.Count(units.PlayerA),
		UnitsB:  m.Units.Count(units.PlayerB),
		SavedAt: time.Now().Unix(),
	}
}

// WriteFile stores the full, unredacted map at path.
func (m *Map) WriteFile(path string) error {
	m.Tiles.UpdateVisibility(m.Units)
	return snapshot.WriteSnapshot(path, m.header(), m)
}

// Save writes the game under name in dir and tells both sides how it went,
// followed by GameOver when the game is already decided.
func (m *Map) Save(dir, name string) ServerResponses {
	var r ServerResponses
	path, err := SaveName(dir, name)
	if err == nil {
		err = m.WriteFile(path)
	}
	if err != nil {
		r.PushMessage(fmt.Sprintf("Could not save game: %v", err))
	} else {
		r.PushMessage(fmt.Sprintf("Game saved to '%s'", path))
	}
	// a loaded game may already be decided; the server stops after this
	m.pushGameOver(&r)
	return r
}

// Load reads a map written by Save or WriteFile.
func Load(path string) (*Map, error) {
	var m Map
	if _, err := snapshot.ReadSnapshot(path, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSave, err)
	}
	if m.Units == nil || m.Tiles == nil {
		return nil, fmt.Errorf("%w: %s is incomplete", ErrNoSave, path)
	}
	if m.Units.ByID == nil {
		m.Units.ByID = map[uint8]*units.Unit{}
	}
	m.Tiles.UpdateVisibility(m.Units)
	return &m, nil
}
