package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ruinfall.game/internal/persistence/snapshot"
)

// Meta is written next to an archived save as meta.json.
type Meta struct {
	GameID    string `json:"game_id"`
	Turn      uint32 `json:"turn"`
	Winner    string `json:"winner,omitempty"`
	UnitsA    int    `json:"units_a"`
	UnitsB    int    `json:"units_b"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Snapshot  string `json:"snapshot"`
	Bytes     int64  `json:"bytes"`
	CreatedAt string `json:"created_at"`
}

// Dir is where a game's archive lives.
func Dir(dataDir, gameID string) string {
	return filepath.Join(dataDir, "archives", gameID)
}

// ArchiveGame copies a finished game's final save into
// <dataDir>/archives/<game_id>/ and writes meta.json beside it. The game id
// and result come from the save's header.
func ArchiveGame(dataDir, savePath string) (Meta, string, error) {
	hdr, err := snapshot.ReadHeader(savePath)
	if err != nil {
		return Meta{}, "", fmt.Errorf("archive %s: %w", savePath, err)
	}
	if hdr.GameID == "" {
		return Meta{}, "", fmt.Errorf("archive %s: save has no game id", savePath)
	}

	dir := Dir(dataDir, hdr.GameID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Meta{}, "", err
	}
	dst := filepath.Join(dir, filepath.Base(savePath))
	n, err := copyFile(savePath, dst)
	if err != nil {
		return Meta{}, "", err
	}

	meta := Meta{
		GameID:    hdr.GameID,
		Turn:      hdr.Turn,
		UnitsA:    hdr.UnitsA,
		UnitsB:    hdr.UnitsB,
		Width:     hdr.Width,
		Height:    hdr.Height,
		Snapshot:  filepath.Base(dst),
		Bytes:     n,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	switch {
	case hdr.UnitsB == 0 && hdr.UnitsA > 0:
		meta.Winner = "PlayerA"
	case hdr.UnitsA == 0 && hdr.UnitsB > 0:
		meta.Winner = "PlayerB"
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return meta, dst, err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644); err != nil {
		return meta, dst, err
	}
	return meta, dst, nil
}

// ReadMeta loads the meta.json of an archived game.
func ReadMeta(dataDir, gameID string) (Meta, error) {
	var meta Meta
	b, err := os.ReadFile(filepath.Join(Dir(dataDir, gameID), "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(b, &meta)
	return meta, err
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer func() { _ = out.Close() }()

	n, err := io.Copy(out, in)
	if err != nil {
		return n, err
	}
	return n, out.Close()
}
