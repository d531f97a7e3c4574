package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type body struct {
	Name  string
	Cells []int
}

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "a.sav")
	in := body{Name: "x", Cells: []int{1, 2, 3}}
	if err := WriteSnapshot(path, Header{GameID: "g1", Turn: 4, Width: 3}, &in); err != nil {
		t.Fatalf("write: %v", err)
	}

	hdr, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if hdr.Version != Version || hdr.GameID != "g1" || hdr.Turn != 4 {
		t.Fatalf("header=%+v", hdr)
	}

	var out body
	if _, err := ReadSnapshot(path, &out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Name != in.Name || len(out.Cells) != 3 || out.Cells[2] != 3 {
		t.Fatalf("out=%+v", out)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestReadSnapshot_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.sav")
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out body
	if _, err := ReadSnapshot(path, &out); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "missing.sav"), &out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err=%v", err)
	}
}
