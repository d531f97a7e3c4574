package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

// Header is written as a JSON line ahead of the gob body so tools can inspect
// a save without decoding the whole map.
type Header struct {
	Version int    `json:"version"`
	GameID  string `json:"game_id"`
	Turn    uint32 `json:"turn"`
	Side    string `json:"side"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	UnitsA  int    `json:"units_a"`
	UnitsB  int    `json:"units_b"`
	SavedAt int64  `json:"saved_at_unix"`
}

var ErrBadHeader = errors.New("snapshot: bad header")

// WriteSnapshot writes hdr and the gob encoding of body. The file is written
// next to path and renamed into place, so a failed save leaves no partial file.
func WriteSnapshot(path string, hdr Header, body any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := encode(f, hdr, body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func encode(w io.Writer, hdr Header, body any) error {
	if hdr.Version == 0 {
		hdr.Version = Version
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(hdr)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(body); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSnapshot decodes the body into out and returns the header.
func ReadSnapshot(path string, out any) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	hdr, err := readHeader(br)
	if err != nil {
		return hdr, err
	}
	if err := gob.NewDecoder(br).Decode(out); err != nil {
		return hdr, fmt.Errorf("gob decode: %w", err)
	}
	return hdr, nil
}

// ReadHeader reads only the JSON header line.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, err
	}
	defer dec.Close()
	return readHeader(bufio.NewReader(dec))
}

func readHeader(br *bufio.Reader) (Header, error) {
	var hdr Header
	line, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if hdr.Version != Version {
		return hdr, fmt.Errorf("%w: version %d", ErrBadHeader, hdr.Version)
	}
	return hdr, nil
}
